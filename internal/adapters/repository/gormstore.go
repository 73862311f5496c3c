package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/swingscope/internal/domain/analysis"
	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/pkg/metrics"
)

// analysisRecord is the swing_analyses row.
type analysisRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	PlayerID    string `gorm:"index;size:128;not null"`
	Status      string `gorm:"size:16;not null"`
	Score       int
	Report      []byte `gorm:"type:jsonb"`
	Error       string
	SubmittedAt time.Time
	CompletedAt *time.Time
}

func (analysisRecord) TableName() string { return "swing_analyses" }

// playerBest is the player_best_scores row.
type playerBest struct {
	PlayerID   string  `gorm:"primaryKey;size:128"`
	Score      float64 `gorm:"index;not null"`
	AnalysisID string  `gorm:"size:64"`
	UpdatedAt  time.Time
}

func (playerBest) TableName() string { return "player_best_scores" }

// GormStore is a Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

// OpenGormStore connects to Postgres with dsn and migrates the schema.
func OpenGormStore(ctx context.Context, dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewGormStore(ctx, db)
}

// NewGormStore wraps an open gorm handle and migrates the schema.
func NewGormStore(ctx context.Context, db *gorm.DB) (*GormStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&analysisRecord{}, &playerBest{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (g *GormStore) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save implements Results.Save.
func (g *GormStore) Save(ctx context.Context, a model.Analysis) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("save", float64(time.Since(start).Milliseconds()))
	}()

	rec, err := toRecord(a)
	if err != nil {
		return err
	}
	if err := g.db.WithContext(ctx).Save(&rec).Error; err != nil {
		metrics.RecordError("repository", "save")
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	return nil
}

// Get implements Results.Get.
func (g *GormStore) Get(ctx context.Context, id string) (model.Analysis, error) {
	var rec analysisRecord
	err := g.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Analysis{}, ErrAnalysisNotFound
	}
	if err != nil {
		return model.Analysis{}, fmt.Errorf("get analysis %s: %w", id, err)
	}
	return fromRecord(rec)
}

// UpdateBest implements Ranking.UpdateBest with a single conditional upsert.
func (g *GormStore) UpdateBest(ctx context.Context, playerID string, score float64, analysisID string) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("update_best", float64(time.Since(start).Milliseconds()))
	}()

	if playerID == "" {
		return false, ErrEmptyID
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return false, ErrInvalidScore
	}

	row := playerBest{PlayerID: playerID, Score: score, AnalysisID: analysisID, UpdatedAt: time.Now()}
	res := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "analysis_id", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("player_best_scores.score < excluded.score"),
		}},
	}).Create(&row)
	if res.Error != nil {
		metrics.RecordError("repository", "update_best")
		return false, fmt.Errorf("update best for %s: %w", playerID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Rank implements Ranking.Rank.
func (g *GormStore) Rank(ctx context.Context, playerID string) (Entry, error) {
	var row playerBest
	err := g.db.WithContext(ctx).First(&row, "player_id = ?", playerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RecordError("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("rank %s: %w", playerID, err)
	}

	var above int64
	if err := g.db.WithContext(ctx).Model(&playerBest{}).Where("score > ?", row.Score).Count(&above).Error; err != nil {
		return Entry{}, fmt.Errorf("rank %s: %w", playerID, err)
	}
	return Entry{Rank: int(above) + 1, PlayerID: row.PlayerID, Score: row.Score, AnalysisID: row.AnalysisID}, nil
}

// TopN implements Ranking.TopN.
func (g *GormStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordError("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	var rows []playerBest
	if err := g.db.WithContext(ctx).Order("score DESC, player_id ASC").Limit(n).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("top %d: %w", n, err)
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{PlayerID: r.PlayerID, Score: r.Score, AnalysisID: r.AnalysisID}
	}
	assignRanks(out)
	return out, nil
}

// Count implements Ranking.Count. Query failures count as zero.
func (g *GormStore) Count(ctx context.Context) int {
	var c int64
	if err := g.db.WithContext(ctx).Model(&playerBest{}).Count(&c).Error; err != nil {
		metrics.RecordError("repository", "count")
		return 0
	}
	return int(c)
}

func toRecord(a model.Analysis) (analysisRecord, error) {
	if a.ID == "" {
		return analysisRecord{}, ErrEmptyID
	}
	rec := analysisRecord{
		ID:          a.ID,
		PlayerID:    a.PlayerID,
		Status:      string(a.Status),
		Score:       a.Score(),
		Error:       a.Error,
		SubmittedAt: a.SubmittedAt,
		CompletedAt: a.CompletedAt,
	}
	if a.Report != nil {
		raw, err := json.Marshal(a.Report)
		if err != nil {
			return analysisRecord{}, fmt.Errorf("encode report %s: %w", a.ID, err)
		}
		rec.Report = raw
	}
	return rec, nil
}

func fromRecord(rec analysisRecord) (model.Analysis, error) {
	a := model.Analysis{
		ID:          rec.ID,
		PlayerID:    rec.PlayerID,
		Status:      model.Status(rec.Status),
		Error:       rec.Error,
		SubmittedAt: rec.SubmittedAt,
		CompletedAt: rec.CompletedAt,
	}
	if len(rec.Report) > 0 {
		var r analysis.Report
		if err := json.Unmarshal(rec.Report, &r); err != nil {
			return model.Analysis{}, fmt.Errorf("decode report %s: %w", rec.ID, err)
		}
		a.Report = &r
	}
	return a, nil
}
