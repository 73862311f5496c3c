package synth_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/internal/synth"
)

func TestSwing(t *testing.T) {
	Convey("Given default parameters", t, func() {
		seq := synth.Swing(synth.DefaultParams())

		Convey("Then the sequence is complete and evenly timed", func() {
			So(seq, ShouldHaveLength, synth.MinFrames)
			So(seq[1].T, ShouldAlmostEqual, 1000.0/30, 1e-9)
			for _, f := range seq {
				So(f.Keypoints, ShouldHaveLength, len(pose.Landmarks()))
			}
		})

		Convey("Then the lead foot lifts and returns to the ground", func() {
			before, _ := seq[0].Get(pose.LeftAnkle)
			peak, _ := seq[37].Get(pose.LeftAnkle)
			after, _ := seq[60].Get(pose.LeftAnkle)
			So(peak.Y, ShouldBeLessThan, before.Y)
			So(after.Y, ShouldAlmostEqual, before.Y, 1e-9)
			So(after.X, ShouldBeLessThan, before.X)
		})
	})

	Convey("Given the same seed twice", t, func() {
		p := synth.DefaultParams()
		p.Jitter = 2
		p.Seed = 7
		So(synth.Swing(p), ShouldResemble, synth.Swing(p))
	})

	Convey("Given out-of-range parameters", t, func() {
		seq := synth.Swing(synth.Params{Frames: 10, SwingFrames: 500})
		So(seq, ShouldHaveLength, synth.MinFrames)
		So(seq[0].Keypoints[0].Score, ShouldEqual, 0.9)
	})
}

func TestStill(t *testing.T) {
	Convey("Given a still sequence", t, func() {
		seq := synth.Still(20, 60)
		So(seq, ShouldHaveLength, 20)
		So(seq.Duration(), ShouldAlmostEqual, 19*1000.0/60, 1e-9)
		a, _ := seq[0].Get(pose.LeftWrist)
		b, _ := seq[19].Get(pose.LeftWrist)
		So(a, ShouldResemble, b)
	})
}
