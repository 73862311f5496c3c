package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("swing"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered on the given registry", func() {
				So(manager, ShouldNotBeNil)
				manager.analysesSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_swing_analyses_submitted_total"], ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When analyses are recorded", func() {
			before := testutil.ToFloat64(globalManager.analysesCompleted)
			RecordAnalysisSubmitted()
			RecordAnalysisCompleted(12, 87)
			RecordAnalysisFailed("no_swing")
			RecordAnalysisDuplicate()

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.analysesCompleted), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.analysesFailed.WithLabelValues("no_swing")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When phases are detected", func() {
			RecordEventDetected("launch")
			RecordEventDetected("launch")

			So(testutil.ToFloat64(globalManager.eventsDetected.WithLabelValues("launch")), ShouldBeGreaterThanOrEqualTo, 2)
		})

		Convey("When queue gauges are updated", func() {
			UpdateQueueCapacity(10)
			UpdateQueueSize(4, 10)

			Convey("Then utilization follows the size", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldAlmostEqual, 0.4, 1e-9)
			})
		})

		Convey("When the remaining helpers are called", func() {
			So(func() {
				RecordLowConfidence()
				RecordLeaderboardUpdate()
				UpdateTotalPlayers(3)
				RecordStoreLatency("save", 1.5)
				RecordQueueEnqueue()
				RecordQueueRejected("full")
				UpdateWorkerActive(2)
				RecordWorkerProcessingLatency(3)
				RecordHTTPRequest("/analyses", "POST", "202", 4)
				RecordError("worker", "analysis")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
