package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/swingscope/internal/adapters/http/api"
	service "github.com/okian/swingscope/internal/app"
	"github.com/okian/swingscope/internal/domain/model"
	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/domain/types"
	"github.com/okian/swingscope/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	submitted []model.Submission
	receipt   model.Receipt
	submitErr error
	analysis  model.Analysis
	getErr    error
	topN      []types.Entry
	topNErr   error
	rank      types.Entry
	rankErr   error
}

func (m *mockDeps) Submit(_ context.Context, sub model.Submission) (model.Receipt, error) {
	if m.submitErr != nil {
		return model.Receipt{}, m.submitErr
	}
	m.submitted = append(m.submitted, sub)
	r := m.receipt
	if r.AnalysisID == "" {
		r.AnalysisID = sub.AnalysisID
	}
	return r, nil
}

func (m *mockDeps) Get(context.Context, string) (model.Analysis, error) {
	return m.analysis, m.getErr
}

func (m *mockDeps) Score(ctx context.Context, metrics map[string]float64) (scoring.Result, error) {
	return scoring.NewRubricScorer().Score(ctx, scoring.Input{Metrics: metrics})
}

func (m *mockDeps) Rubric() scoring.Rubric { return scoring.DefaultRubric() }

func (m *mockDeps) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDeps) Rank(context.Context, string) (types.Entry, error) {
	return m.rank, m.rankErr
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true, "queueLength": 0}
}

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, mockStats{}, 10).Register(mux)
	return mux
}

func do(mux http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func score(v float64) *float64 { return &v }

func oneFrame() []pose.RawFrame {
	return []pose.RawFrame{{T: 0, Keypoints: []pose.RawKeypoint{{Name: "nose", X: 1, Y: 2, Score: score(0.9)}}}}
}

func TestPostAnalysis(t *testing.T) {
	Convey("Given the analyses endpoint", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When a valid swing is posted", func() {
			rec := do(mux, http.MethodPost, "/analyses", map[string]any{
				"analysis_id": "a1",
				"player_id":   "p1",
				"frames":      oneFrame(),
				"metrics":     map[string]float64{"stride_ratio": 1.4},
			})

			Convey("Then it is accepted and converted", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				var ack map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["status"], ShouldEqual, "accepted")
				So(ack["analysis_id"], ShouldEqual, "a1")
				So(ack["duplicate"], ShouldEqual, false)

				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].Sequence, ShouldHaveLength, 1)
				So(deps.submitted[0].Sequence[0].Keypoints[0].Name, ShouldEqual, pose.Nose)
				So(deps.submitted[0].Overrides["stride_ratio"], ShouldEqual, 1.4)
			})
		})

		Convey("When the swing is a duplicate", func() {
			deps.receipt = model.Receipt{AnalysisID: "a1", Duplicate: true}
			rec := do(mux, http.MethodPost, "/analyses", map[string]any{"player_id": "p1", "frames": oneFrame()})

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"duplicate":true`)
		})

		Convey("When the body is malformed or incomplete", func() {
			So(do(mux, http.MethodPost, "/analyses", "{").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/analyses", map[string]any{"frames": oneFrame()}).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/analyses", map[string]any{"player_id": "p1"}).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service rejects the submission", func() {
			cases := []struct {
				err  error
				code int
			}{
				{fmt.Errorf("%w: empty", model.ErrInvalidSubmission), http.StatusBadRequest},
				{fmt.Errorf("%w: 4000 > 3000", model.ErrTooManyFrames), http.StatusRequestEntityTooLarge},
				{model.ErrBackpressure, http.StatusTooManyRequests},
				{model.ErrNotStarted, http.StatusServiceUnavailable},
				{errors.New("boom"), http.StatusInternalServerError},
			}
			for _, c := range cases {
				deps.submitErr = c.err
				rec := do(mux, http.MethodPost, "/analyses", map[string]any{"player_id": "p1", "frames": oneFrame()})
				So(rec.Code, ShouldEqual, c.code)
			}
		})

		Convey("When the method is wrong", func() {
			So(do(mux, http.MethodGet, "/analyses", nil).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestGetAnalysis(t *testing.T) {
	Convey("Given the analysis lookup endpoint", t, func() {
		deps := &mockDeps{analysis: model.Analysis{ID: "a1", PlayerID: "p1", Status: model.StatusPending}}
		mux := newMux(deps)

		Convey("When the analysis exists", func() {
			rec := do(mux, http.MethodGet, "/analyses/a1", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"status":"pending"`)
		})

		Convey("When it does not", func() {
			deps.getErr = fmt.Errorf("analysis a9: %w", model.ErrNotFound)
			So(do(mux, http.MethodGet, "/analyses/a9", nil).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the path is malformed", func() {
			So(do(mux, http.MethodGet, "/analyses/a/b", nil).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestScoreAndRubric(t *testing.T) {
	Convey("Given the scoring endpoints", t, func() {
		mux := newMux(&mockDeps{})

		Convey("When metrics are posted", func() {
			rec := do(mux, http.MethodPost, "/score", map[string]any{"metrics": map[string]float64{"stride_ratio": 1.5}})

			So(rec.Code, ShouldEqual, http.StatusOK)
			var res scoring.Result
			So(json.Unmarshal(rec.Body.Bytes(), &res), ShouldBeNil)
			So(res.Score, ShouldEqual, 100)
		})

		Convey("When no metrics are posted", func() {
			So(do(mux, http.MethodPost, "/score", map[string]any{}).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the rubric is requested", func() {
			rec := do(mux, http.MethodGet, "/rubric", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			var rubric []map[string]any
			So(json.Unmarshal(rec.Body.Bytes(), &rubric), ShouldBeNil)
			So(rubric, ShouldHaveLength, len(scoring.DefaultRubric()))
			So(rubric[0]["metric_name"], ShouldEqual, scoring.MetricHipShoulderSeparation)
		})
	})
}

func TestLeaderboardAndRank(t *testing.T) {
	Convey("Given the ranking endpoints", t, func() {
		deps := &mockDeps{
			topN: []types.Entry{{Rank: 1, PlayerID: "p1", Score: 90}, {Rank: 2, PlayerID: "p2", Score: 80}},
			rank: types.Entry{Rank: 2, PlayerID: "p2", Score: 80},
		}
		mux := newMux(deps)

		Convey("When a valid limit is requested", func() {
			rec := do(mux, http.MethodGet, "/leaderboard?limit=1", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			var entries []types.Entry
			So(json.Unmarshal(rec.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldResemble, deps.topN[:1])
		})

		Convey("When the limit is missing, invalid or too large", func() {
			So(do(mux, http.MethodGet, "/leaderboard", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=0", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=11", nil).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a player rank is requested", func() {
			rec := do(mux, http.MethodGet, "/rank/p2", nil)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"player_id":"p2"`)

			deps.rankErr = fmt.Errorf("player x: %w", model.ErrNotFound)
			So(do(mux, http.MethodGet, "/rank/x", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/rank/", nil).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		mux := newMux(&mockDeps{})

		rec := do(mux, http.MethodGet, "/stats", nil)
		So(rec.Code, ShouldEqual, http.StatusOK)
		So(rec.Body.String(), ShouldContainSubstring, `"started":true`)
		So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")

		rec = do(mux, http.MethodPost, "/stats", nil)
		So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		So(rec.Header().Get("Allow"), ShouldEqual, http.MethodGet)

		// prime a counter so the exposition is not empty
		do(mux, http.MethodGet, "/rank/", nil)
		rec = do(mux, http.MethodGet, "/healthz", nil)
		So(rec.Code, ShouldEqual, http.StatusOK)
		So(rec.Body.String(), ShouldContainSubstring, "swingscope_")
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given kind errors", t, func() {
		cause := errors.New("bad json")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: bad json")
		So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
		So(api.WrapKind("api.op", api.ErrBadRequest, nil), ShouldBeNil)
		So(api.Wrap("api.op", nil), ShouldBeNil)
	})
}

func TestEndToEnd(t *testing.T) {
	Convey("Given the API backed by a running service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { svc.Stop(ctx) })

		mux := http.NewServeMux()
		api.NewServer(svc, svc, 10).Register(mux)

		Convey("When a synthetic swing is posted", func() {
			body := map[string]any{
				"analysis_id": "e2e-1",
				"player_id":   "slugger",
				"frames":      synth.Swing(synth.DefaultParams()).Raw(),
			}
			rec := do(mux, http.MethodPost, "/analyses", body)
			So(rec.Code, ShouldEqual, http.StatusAccepted)

			var a model.Analysis
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				rec = do(mux, http.MethodGet, "/analyses/e2e-1", nil)
				_ = json.Unmarshal(rec.Body.Bytes(), &a)
				if a.Status == model.StatusDone {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then the report and the leaderboard are served", func() {
				So(a.Status, ShouldEqual, model.StatusDone)
				So(a.Report, ShouldNotBeNil)
				So(a.Report.Events.Contact, ShouldNotBeNil)

				rec := do(mux, http.MethodGet, "/leaderboard?limit=5", nil)
				So(strings.Contains(rec.Body.String(), "slugger"), ShouldBeTrue)

				rec = do(mux, http.MethodPost, "/analyses", body)
				So(rec.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
