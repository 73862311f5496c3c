package pose_test

import (
	"math"
	"testing"

	"github.com/okian/swingscope/internal/domain/pose"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func TestParseLandmark(t *testing.T) {
	Convey("Given landmark names", t, func() {
		Convey("When the name is snake_case", func() {
			l, ok := pose.ParseLandmark("left_wrist")
			So(ok, ShouldBeTrue)
			So(l, ShouldEqual, pose.LeftWrist)
		})

		Convey("When the name is camelCase", func() {
			l, ok := pose.ParseLandmark("rightAnkle")
			So(ok, ShouldBeTrue)
			So(l, ShouldEqual, pose.RightAnkle)
		})

		Convey("When the name is unknown", func() {
			_, ok := pose.ParseLandmark("left_toe")
			So(ok, ShouldBeFalse)
		})

		Convey("Then every landmark round-trips through its string form", func() {
			for _, l := range pose.Landmarks() {
				got, ok := pose.ParseLandmark(l.String())
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, l)
			}
			So(len(pose.Landmarks()), ShouldEqual, 17)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given raw keypoints from two model shapes", t, func() {
		raw := []pose.RawKeypoint{
			{Name: "left_hip", X: 1, Y: 2, Score: ptr(0.9)},
			{Part: "rightHip", X: 3, Y: 4, Confidence: ptr(0.7)},
			{Name: "left_hip", X: 9, Y: 9, Score: ptr(0.1)},
			{Name: "tail", X: 0, Y: 0, Score: ptr(1)},
			{Name: "nose", X: math.NaN(), Y: 0, Score: ptr(1)},
			{Name: "left_knee", X: 5, Y: 6, Score: ptr(1.7)},
		}

		kps := pose.Normalize(raw)

		Convey("Then both shapes collapse to the canonical keypoint", func() {
			So(len(kps), ShouldEqual, 3)
			So(kps[0].Name, ShouldEqual, pose.LeftHip)
			So(kps[0].Score, ShouldEqual, 0.9)
			So(kps[1].Name, ShouldEqual, pose.RightHip)
			So(kps[1].Score, ShouldEqual, 0.7)
		})

		Convey("And the first duplicate wins", func() {
			So(kps[0].X, ShouldEqual, 1)
		})

		Convey("And scores are clamped into [0,1]", func() {
			So(kps[2].Score, ShouldEqual, 1.0)
		})
	})
}

func TestBuildSequence(t *testing.T) {
	Convey("Given raw frames out of order with an empty pose", t, func() {
		raw := []pose.RawFrame{
			{T: 66, Keypoints: []pose.RawKeypoint{{Name: "nose", X: 1, Y: 1, Score: ptr(1)}}},
			{T: 33, Keypoints: nil},
			{T: 0, Keypoints: []pose.RawKeypoint{{Name: "nose", X: 0, Y: 0, Score: ptr(1)}}},
		}

		seq := pose.BuildSequence(raw)

		Convey("Then the empty frame is dropped and the rest are ordered", func() {
			So(len(seq), ShouldEqual, 2)
			So(seq[0].T, ShouldEqual, 0)
			So(seq[1].T, ShouldEqual, 66)
			So(seq.Duration(), ShouldEqual, 66)
		})
	})
}

func TestWrapAngle(t *testing.T) {
	Convey("Given angles outside (-π, π]", t, func() {
		So(pose.WrapAngle(3*math.Pi/2), ShouldAlmostEqual, -math.Pi/2, 1e-9)
		So(pose.WrapAngle(-3*math.Pi/2), ShouldAlmostEqual, math.Pi/2, 1e-9)
		So(pose.WrapAngle(-math.Pi), ShouldAlmostEqual, math.Pi, 1e-9)
		So(pose.WrapAngle(5*math.Pi), ShouldAlmostEqual, math.Pi, 1e-9)
		So(pose.WrapAngle(math.NaN()), ShouldEqual, 0)
	})
}

func TestSequenceRaw(t *testing.T) {
	Convey("Given a normalised sequence", t, func() {
		raw := []pose.RawFrame{
			{T: 0, Keypoints: []pose.RawKeypoint{{Name: "left_wrist", X: 1, Y: 2, Score: ptr(0.8)}}},
			{T: 33, Keypoints: []pose.RawKeypoint{{Part: "nose", X: 3, Y: 4, Confidence: ptr(0.6)}}},
		}
		seq := pose.BuildSequence(raw)

		Convey("Then converting it back to raw frames is lossless", func() {
			So(pose.BuildSequence(seq.Raw()), ShouldResemble, seq)
			So(seq.Raw()[1].Keypoints[0].Name, ShouldEqual, "nose")
		})
	})
}
