package segment_test

import (
	"testing"

	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/internal/domain/segment"
	. "github.com/smartystreets/goconvey/convey"
)

var keys = []pose.Landmark{
	pose.LeftHip, pose.RightHip,
	pose.LeftShoulder, pose.RightShoulder,
	pose.LeftAnkle, pose.RightAnkle,
	pose.LeftWrist, pose.RightWrist,
}

// frameWithWeak builds a frame where the first weak key landmarks score 0.1.
func frameWithWeak(weak int) pose.Frame {
	f := pose.Frame{}
	for i, l := range keys {
		score := 0.9
		if i < weak {
			score = 0.1
		}
		f.Keypoints = append(f.Keypoints, pose.Keypoint{Name: l, Score: score})
	}
	return f
}

func sequence(total, low int) pose.Sequence {
	seq := make(pose.Sequence, total)
	for i := range seq {
		if i < low {
			seq[i] = frameWithWeak(4)
		} else {
			seq[i] = frameWithWeak(3)
		}
		seq[i].T = float64(i) * 33
	}
	return seq
}

func TestAssessQuality(t *testing.T) {
	Convey("Given exactly a quarter of frames with four weak key landmarks", t, func() {
		seq := sequence(20, 5)

		Convey("Then the sequence is not flagged", func() {
			So(segment.AssessQuality(seq), ShouldEqual, segment.QualityFlag(""))
		})
	})

	Convey("Given more than a quarter of weak frames", t, func() {
		seq := sequence(20, 6)

		Convey("Then the sequence is flagged low confidence", func() {
			So(segment.AssessQuality(seq), ShouldEqual, segment.LowConfidence)
		})
	})

	Convey("Given frames missing key landmarks entirely", t, func() {
		seq := pose.Sequence{
			{T: 0, Keypoints: []pose.Keypoint{{Name: pose.Nose, Score: 1}}},
			{T: 33, Keypoints: []pose.Keypoint{{Name: pose.Nose, Score: 1}}},
			frameWithWeak(0),
		}

		Convey("Then absent landmarks count as weak", func() {
			So(segment.AssessQuality(seq), ShouldEqual, segment.LowConfidence)
		})
	})

	Convey("Given an empty sequence", t, func() {
		So(segment.AssessQuality(nil), ShouldEqual, segment.QualityFlag(""))
	})
}
