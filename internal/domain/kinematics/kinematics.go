// Package kinematics derives scalar motion signals from a keypoint sequence and
// smooths them for event detection.
package kinematics

import (
	"math"

	"github.com/okian/swingscope/internal/domain/pose"
)

// DefaultWindow is the default centred moving-average window.
const DefaultWindow = 5

// Lead-side landmarks. The left side is used as the lead-side proxy.
const (
	LeadAnkle    = pose.LeftAnkle
	LeadWrist    = pose.LeftWrist
	LeadElbow    = pose.LeftElbow
	LeadShoulder = pose.LeftShoulder
)

// Signals holds the per-pair kinematic series. For an N-frame sequence each
// series has N-1 samples and sample i belongs to frame i+1.
type Signals struct {
	PelvisAngularVelocity []float64 // rad/s, absolute
	AnkleVerticalVelocity []float64 // px/s, +y is down in image space
	HandSpeed             []float64 // px/s
	ArmExtension          []float64 // ratio in (0,1], 0 when unknown
}

// Len returns the number of samples in each series.
func (s Signals) Len() int {
	return len(s.PelvisAngularVelocity)
}

// FrameIndex maps a series index back to its frame index.
func FrameIndex(sample int) int {
	return sample + 1
}

// Extract computes the raw kinematic signals for seq. Missing landmarks and
// non-positive time steps yield 0 for the affected samples.
func Extract(seq pose.Sequence) Signals {
	n := len(seq) - 1
	if n < 1 {
		return Signals{
			PelvisAngularVelocity: []float64{},
			AnkleVerticalVelocity: []float64{},
			HandSpeed:             []float64{},
			ArmExtension:          []float64{},
		}
	}

	s := Signals{
		PelvisAngularVelocity: make([]float64, n),
		AnkleVerticalVelocity: make([]float64, n),
		HandSpeed:             make([]float64, n),
		ArmExtension:          make([]float64, n),
	}
	for i := 1; i < len(seq); i++ {
		prev, curr := seq[i-1], seq[i]
		dt := (curr.T - prev.T) / 1000
		s.PelvisAngularVelocity[i-1] = pelvisAngularVelocity(prev, curr, dt)
		s.AnkleVerticalVelocity[i-1] = verticalVelocity(prev, curr, LeadAnkle, dt)
		s.HandSpeed[i-1] = linearSpeed(prev, curr, LeadWrist, dt)
		s.ArmExtension[i-1] = ExtensionRatio(curr)
	}
	return s
}

func pelvisAngularVelocity(prev, curr pose.Frame, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	pl, pr, ok := prev.Pair(pose.LeftHip, pose.RightHip)
	if !ok {
		return 0
	}
	cl, cr, ok := curr.Pair(pose.LeftHip, pose.RightHip)
	if !ok {
		return 0
	}
	d := pose.WrapAngle(pose.Angle(cl, cr) - pose.Angle(pl, pr))
	return math.Abs(d / dt)
}

func verticalVelocity(prev, curr pose.Frame, l pose.Landmark, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	a, ok := prev.Get(l)
	if !ok {
		return 0
	}
	b, ok := curr.Get(l)
	if !ok {
		return 0
	}
	return (b.Y - a.Y) / dt
}

func linearSpeed(prev, curr pose.Frame, l pose.Landmark, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	a, ok := prev.Get(l)
	if !ok {
		return 0
	}
	b, ok := curr.Get(l)
	if !ok {
		return 0
	}
	return pose.Dist(a, b) / dt
}

// ExtensionRatio returns |shoulder-wrist| / (|shoulder-elbow| + |elbow-wrist|)
// for the lead arm, or 0 when a landmark is missing or the limb has no length.
func ExtensionRatio(f pose.Frame) float64 {
	sh, ok := f.Get(LeadShoulder)
	if !ok {
		return 0
	}
	el, ok := f.Get(LeadElbow)
	if !ok {
		return 0
	}
	wr, ok := f.Get(LeadWrist)
	if !ok {
		return 0
	}
	limb := pose.Dist(sh, el) + pose.Dist(el, wr)
	if limb <= 0 {
		return 0
	}
	return math.Min(1, pose.Dist(sh, wr)/limb)
}
