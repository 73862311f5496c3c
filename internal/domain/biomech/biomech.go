// Package biomech turns detected swing events and keypoint trajectories into
// the named metrics consumed by the scorer.
package biomech

import (
	"math"

	"github.com/okian/swingscope/internal/domain/kinematics"
	"github.com/okian/swingscope/internal/domain/pose"
	"github.com/okian/swingscope/internal/domain/scoring"
	"github.com/okian/swingscope/internal/domain/segment"
)

// Extract computes every metric whose inputs are available. seq is the
// analysed sequence, ev its events and sig the smoothed signals they were
// detected on.
func Extract(seq pose.Sequence, ev segment.Events, sig kinematics.Signals) map[string]float64 {
	out := make(map[string]float64)
	set := func(name string, metric func() (float64, bool)) {
		if v, ok := metric(); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[name] = v
		}
	}

	set(scoring.MetricHipShoulderSeparation, func() (float64, bool) { return separation(seq, ev) })
	set(scoring.MetricStrideRatio, func() (float64, bool) { return strideRatio(seq, ev) })
	set(scoring.MetricLoadToContact, func() (float64, bool) {
		return elapsed(seq, ev, segment.PhaseLoadStart, segment.PhaseContact)
	})
	set(scoring.MetricLaunchToContact, func() (float64, bool) {
		return elapsed(seq, ev, segment.PhaseLaunch, segment.PhaseContact)
	})
	set(scoring.MetricPeakHandSpeed, func() (float64, bool) { return peakHandSpeed(seq, ev, sig) })
	set(scoring.MetricPeakPelvisVelocity, func() (float64, bool) { return peakPelvis(ev, sig) })
	set(scoring.MetricExtensionRatio, func() (float64, bool) { return extension(ev, sig) })
	set(scoring.MetricHeadDrift, func() (float64, bool) { return headDrift(seq, ev) })
	return out
}

func frameAt(seq pose.Sequence, ev segment.Events, p segment.Phase) (pose.Frame, bool) {
	idx, ok := ev.Get(p)
	if !ok || idx < 0 || idx >= len(seq) {
		return pose.Frame{}, false
	}
	return seq[idx], true
}

// separation is the hip to shoulder line angle at launch, in degrees.
func separation(seq pose.Sequence, ev segment.Events) (float64, bool) {
	f, ok := frameAt(seq, ev, segment.PhaseLaunch)
	if !ok {
		return 0, false
	}
	ls, rs, ok := f.Pair(pose.LeftShoulder, pose.RightShoulder)
	if !ok {
		return 0, false
	}
	lh, rh, ok := f.Pair(pose.LeftHip, pose.RightHip)
	if !ok {
		return 0, false
	}
	d := pose.WrapAngle(pose.Angle(ls, rs) - pose.Angle(lh, rh))
	return math.Abs(d) * 180 / math.Pi, true
}

// strideRatio is the ankle spread at plant over the shoulder width.
func strideRatio(seq pose.Sequence, ev segment.Events) (float64, bool) {
	f, ok := frameAt(seq, ev, segment.PhaseStridePlant)
	if !ok {
		return 0, false
	}
	la, ra, ok := f.Pair(pose.LeftAnkle, pose.RightAnkle)
	if !ok {
		return 0, false
	}
	ls, rs, ok := f.Pair(pose.LeftShoulder, pose.RightShoulder)
	if !ok {
		return 0, false
	}
	width := pose.Dist(ls, rs)
	if width <= 0 {
		return 0, false
	}
	return pose.Dist(la, ra) / width, true
}

func elapsed(seq pose.Sequence, ev segment.Events, from, to segment.Phase) (float64, bool) {
	a, ok := frameAt(seq, ev, from)
	if !ok {
		return 0, false
	}
	b, ok := frameAt(seq, ev, to)
	if !ok {
		return 0, false
	}
	return b.T - a.T, true
}

func peak(series []float64, from, to int) (float64, bool) {
	from = max(from, 0)
	to = min(to, len(series)-1)
	if from > to {
		return 0, false
	}
	best := series[from]
	for _, v := range series[from+1 : to+1] {
		best = max(best, v)
	}
	return best, true
}

// peakHandSpeed is the top hand speed between launch and contact in torso
// lengths per second.
func peakHandSpeed(seq pose.Sequence, ev segment.Events, sig kinematics.Signals) (float64, bool) {
	launch, ok := ev.Get(segment.PhaseLaunch)
	if !ok {
		return 0, false
	}
	contact, ok := ev.Get(segment.PhaseContact)
	if !ok {
		return 0, false
	}
	speed, ok := peak(sig.HandSpeed, launch, contact)
	if !ok {
		return 0, false
	}
	f, _ := frameAt(seq, ev, segment.PhaseLaunch)
	torso, ok := f.TorsoLength()
	if !ok || torso <= 0 {
		return 0, false
	}
	return speed / torso, true
}

func peakPelvis(ev segment.Events, sig kinematics.Signals) (float64, bool) {
	load, ok := ev.Get(segment.PhaseLoadStart)
	if !ok {
		return 0, false
	}
	contact, ok := ev.Get(segment.PhaseContact)
	if !ok {
		return 0, false
	}
	return peak(sig.PelvisAngularVelocity, load, contact)
}

func extension(ev segment.Events, sig kinematics.Signals) (float64, bool) {
	idx, ok := ev.Get(segment.PhaseExtension)
	if !ok || idx < 0 || idx >= len(sig.ArmExtension) {
		return 0, false
	}
	return sig.ArmExtension[idx], true
}

// headDrift is the nose travel between load and contact in torso lengths.
func headDrift(seq pose.Sequence, ev segment.Events) (float64, bool) {
	a, ok := frameAt(seq, ev, segment.PhaseLoadStart)
	if !ok {
		return 0, false
	}
	b, ok := frameAt(seq, ev, segment.PhaseContact)
	if !ok {
		return 0, false
	}
	na, ok := a.Get(pose.Nose)
	if !ok {
		return 0, false
	}
	nb, ok := b.Get(pose.Nose)
	if !ok {
		return 0, false
	}
	torso, ok := a.TorsoLength()
	if !ok || torso <= 0 {
		return 0, false
	}
	return pose.Dist(na, nb) / torso, true
}
