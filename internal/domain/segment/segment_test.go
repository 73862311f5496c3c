package segment_test

import (
	"testing"

	"github.com/okian/swingscope/internal/domain/kinematics"
	"github.com/okian/swingscope/internal/domain/segment"
	"github.com/okian/swingscope/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func indices(ev segment.Events) []int {
	var out []int
	for _, p := range segment.Phases() {
		if idx, ok := ev.Get(p); ok {
			out = append(out, idx)
		}
	}
	return out
}

func TestSegment(t *testing.T) {
	Convey("Given a clean synthetic swing", t, func() {
		seq := synth.Swing(synth.DefaultParams())

		Convey("When it is segmented", func() {
			ev := segment.Segment(seq)

			Convey("Then all six events are detected", func() {
				So(ev.Detected(), ShouldResemble, segment.Phases())
			})

			Convey("And the indices follow the swing order", func() {
				idx := indices(ev)
				for i := 1; i < len(idx); i++ {
					So(idx[i], ShouldBeGreaterThanOrEqualTo, idx[i-1])
				}
			})

			Convey("And every index points into the sequence", func() {
				for _, i := range indices(ev) {
					So(i, ShouldBeBetweenOrEqual, 0, len(seq)-1)
				}
			})

			Convey("And the events land in their motion windows", func() {
				So(*ev.LoadStart, ShouldBeBetweenOrEqual, 17, 22)
				So(*ev.StridePlant, ShouldBeBetweenOrEqual, 44, 49)
				So(*ev.Launch, ShouldBeBetweenOrEqual, 50, 55)
				So(*ev.Contact, ShouldBeBetweenOrEqual, 54, 60)
				So(*ev.Finish, ShouldBeGreaterThan, *ev.Extension)
			})
		})

		Convey("When it is segmented twice", func() {
			So(segment.Segment(seq), ShouldResemble, segment.Segment(seq))
		})
	})

	Convey("Given noisy swings", t, func() {
		for seed := int64(1); seed <= 5; seed++ {
			p := synth.DefaultParams()
			p.Jitter = 1.5
			p.Seed = seed
			idx := indices(segment.Segment(synth.Swing(p)))

			for i := 1; i < len(idx); i++ {
				So(idx[i], ShouldBeGreaterThanOrEqualTo, idx[i-1])
			}
		}
	})

	Convey("Given fewer than ten frames", t, func() {
		seq := synth.Swing(synth.DefaultParams())[:9]

		Convey("Then no event is reported", func() {
			ev := segment.Segment(seq)
			So(ev, ShouldResemble, segment.Events{})
			So(ev.Empty(), ShouldBeTrue)
		})
	})

	Convey("Given an empty sequence", t, func() {
		So(segment.Segment(nil).Empty(), ShouldBeTrue)
	})

	Convey("Given a motionless subject", t, func() {
		ev := segment.Segment(synth.Still(40, 30))

		Convey("Then neither load nor stride is found", func() {
			So(ev.LoadStart, ShouldBeNil)
			So(ev.StridePlant, ShouldBeNil)
		})
	})
}

func TestDetect(t *testing.T) {
	flat := func(n int, v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}
		return out
	}

	Convey("Given hand-built signals", t, func() {
		sig := kinematics.Signals{
			PelvisAngularVelocity: []float64{0, 0, 0, 0, 0, 0, 0.2, 0.5, 1, 2, 4, 3, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			AnkleVerticalVelocity: []float64{0, 0, 0, 0, 0, 0, 0, -5, -5, 5, 5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			HandSpeed:             []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 10, 50, 100, 80, 60, 40, 5, 0, 0, 0, 0, 0, 0, 0, 0},
			ArmExtension:          flat(25, 0.7),
		}
		sig.ArmExtension[14] = 0.99

		ev := segment.New().Detect(sig)

		Convey("Then each stage resolves on its own signal", func() {
			So(*ev.LoadStart, ShouldEqual, 7)
			So(*ev.StridePlant, ShouldEqual, 11)
			So(*ev.Launch, ShouldEqual, 11)
			So(*ev.Contact, ShouldEqual, 12)
			So(*ev.Extension, ShouldEqual, 14)
			So(*ev.Finish, ShouldEqual, 16)
		})
	})

	Convey("Given a load but no stride plant and an earlier pelvis spike", t, func() {
		sig := kinematics.Signals{
			PelvisAngularVelocity: []float64{0, 0, 0, 9, 0, 0, 0.2, 0.5, 1, 2, 4, 3, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			AnkleVerticalVelocity: flat(25, 0),
			HandSpeed:             []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 10, 50, 100, 80, 60, 40, 5, 0, 0, 0, 0, 0, 0, 0, 0},
			ArmExtension:          flat(25, 0.7),
		}
		sig.ArmExtension[14] = 0.99

		ev := segment.New().Detect(sig)

		Convey("Then launch searches from the load, not from the start", func() {
			So(*ev.LoadStart, ShouldEqual, 7)
			So(ev.StridePlant, ShouldBeNil)
			So(*ev.Launch, ShouldEqual, 10)
			So(*ev.Launch, ShouldBeGreaterThanOrEqualTo, *ev.LoadStart)
			So(*ev.Contact, ShouldEqual, 12)
			So(*ev.Extension, ShouldEqual, 14)
			So(*ev.Finish, ShouldEqual, 16)
		})
	})

	Convey("Given signals without a load", t, func() {
		sig := kinematics.Signals{
			PelvisAngularVelocity: flat(20, 0),
			AnkleVerticalVelocity: flat(20, 0),
			HandSpeed:             flat(20, 0),
			ArmExtension:          flat(20, 0.5),
		}

		ev := segment.New().Detect(sig)

		Convey("Then later stages still search from the start", func() {
			So(ev.LoadStart, ShouldBeNil)
			So(ev.StridePlant, ShouldBeNil)
			So(*ev.Launch, ShouldEqual, 0)
			So(ev.Contact, ShouldBeNil)
			So(*ev.Extension, ShouldEqual, 0)
			So(*ev.Finish, ShouldEqual, 0)
		})
	})

	Convey("Given a custom finish run length", t, func() {
		th := segment.DefaultThresholds()
		th.FinishRun = 3
		sig := kinematics.Signals{
			PelvisAngularVelocity: []float64{1, 1, 0, 0, 0, 1, 0},
			AnkleVerticalVelocity: flat(7, 0),
			HandSpeed:             flat(7, 0),
			ArmExtension:          flat(7, 0.5),
		}

		ev := segment.New(segment.WithThresholds(th)).Detect(sig)

		So(*ev.Finish, ShouldEqual, 2)
	})
}
