package loadtest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/swingscope/internal/adapters/http/api"
	service "github.com/okian/swingscope/internal/app"
	"github.com/okian/swingscope/internal/domain/analysis"
	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/loadtest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a run configuration", t, func() {
		cfg := loadtest.DefaultConfig()
		cfg.Players = 3
		cfg.SwingsPer = 2

		swings := loadtest.Generate(cfg)

		Convey("Then every player gets its swings with unique ids", func() {
			So(swings, ShouldHaveLength, 6)
			ids := map[string]bool{}
			for _, s := range swings {
				ids[s.AnalysisID] = true
				So(len(s.Frames), ShouldBeGreaterThanOrEqualTo, 90)
			}
			So(ids, ShouldHaveLength, 6)
			So(swings[0].PlayerID, ShouldEqual, "player-000")
			So(swings[5].PlayerID, ShouldEqual, "player-002")
		})
	})
}

func TestVerify(t *testing.T) {
	done := func(id, player string, score int) loadtest.Analysis {
		return loadtest.Analysis{ID: id, PlayerID: player, Status: model.StatusDone,
			Report: &analysis.Report{Score: scoring.Result{Score: score}}}
	}
	results := []loadtest.Analysis{done("a1", "p1", 70), done("a2", "p1", 82), done("a3", "p2", 60)}

	Convey("Given finished analyses", t, func() {
		Convey("When the leaderboard matches", func() {
			board := []loadtest.Entry{{Rank: 1, PlayerID: "p1", Score: 82}, {Rank: 2, PlayerID: "p2", Score: 60}}
			So(loadtest.Verify(board, results), ShouldBeNil)
		})

		Convey("When a score is stale", func() {
			board := []loadtest.Entry{{Rank: 1, PlayerID: "p1", Score: 70}}
			So(errors.Is(loadtest.Verify(board, results), loadtest.ErrMismatch), ShouldBeTrue)
		})

		Convey("When the order is wrong", func() {
			board := []loadtest.Entry{{PlayerID: "p2", Score: 60}, {PlayerID: "p1", Score: 82}}
			So(errors.Is(loadtest.Verify(board, results), loadtest.ErrMismatch), ShouldBeTrue)
		})

		Convey("When a player is unknown", func() {
			board := []loadtest.Entry{{PlayerID: "ghost", Score: 10}}
			So(errors.Is(loadtest.Verify(board, results), loadtest.ErrMismatch), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a live service behind httptest", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(64))
		So(svc.Start(ctx), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc, 50).Register(mux)
		srv := httptest.NewServer(mux)
		Reset(func() {
			srv.Close()
			svc.Stop(ctx)
		})

		cfg := loadtest.DefaultConfig()
		cfg.BaseURL = srv.URL
		cfg.Players = 4
		cfg.SwingsPer = 2
		cfg.WaitTimeout = 10 * time.Second
		cfg.PollInterval = 10 * time.Millisecond

		stats, err := loadtest.Run(ctx, cfg)

		Convey("Then every swing is analysed and the leaderboard verifies", func() {
			So(err, ShouldBeNil)
			So(stats.Accepted, ShouldEqual, 8)
			So(stats.Done+stats.Failed, ShouldEqual, 8)
			So(stats.Done, ShouldBeGreaterThan, 0)
			So(stats.Pending, ShouldEqual, 0)
			So(len(stats.Leaderboard), ShouldBeBetweenOrEqual, 1, 4)
		})
	})

	Convey("Given no service", t, func() {
		cfg := loadtest.DefaultConfig()
		cfg.BaseURL = "http://127.0.0.1:1"
		cfg.Timeout = 200 * time.Millisecond

		_, err := loadtest.Run(context.Background(), cfg)
		So(err, ShouldNotBeNil)
	})
}
