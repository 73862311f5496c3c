// Package synth generates deterministic synthetic batting swings as keypoint
// sequences. It feeds tests, the simulate command and local demos.
package synth

import (
	"math"
	"math/rand"

	"github.com/okian/swingscope/internal/domain/pose"
)

// Frame layout of the generated swing (frame indices).
const (
	loadStart    = 20
	loadEnd      = 35
	liftStart    = 30
	liftPeak     = 37
	plant        = 45
	rotateStart  = 45
	rotateEnd    = 60
	swingStart   = 48
	recoilFrames = 8

	// MinFrames is the shortest sequence that contains the whole swing.
	MinFrames = 90
)

// Body geometry in pixels.
const (
	centerX       = 320.0
	hipY          = 300.0
	hipHalfWidth  = 40.0
	shoulderY     = 180.0
	shoulderHalf  = 50.0
	ankleY        = 420.0
	ankleHalf     = 60.0
	strideReach   = 30.0
	liftHeight    = 20.0
	upperArm      = 60.0
	forearm       = 60.0
	loadRotation  = -0.3
	armStartAngle = 2.0
	armSweep      = -3.0
	bentRatio     = 0.6
	recoilRatio   = 0.55
)

// Params shapes a generated swing.
type Params struct {
	Frames      int     // total frames, at least MinFrames
	FPS         float64 // sampling rate
	Rotation    float64 // forward pelvis rotation in radians
	SwingFrames int     // frames from hand start to full extension
	HeadDrift   float64 // nose travel in pixels between load and contact
	Score       float64 // keypoint confidence
	Jitter      float64 // gaussian pixel noise, 0 disables
	Seed        int64
}

// DefaultParams returns a clean, well-timed swing at 30 fps.
func DefaultParams() Params {
	return Params{
		Frames:      MinFrames,
		FPS:         30,
		Rotation:    1.9,
		SwingFrames: 16,
		HeadDrift:   0,
		Score:       0.9,
	}
}

// Swing builds a synthetic swing sequence.
func Swing(p Params) pose.Sequence {
	p = withDefaults(p)
	var rng *rand.Rand
	if p.Jitter > 0 {
		rng = rand.New(rand.NewSource(p.Seed)) //nolint:gosec // reproducible noise
	}

	swingEnd := swingStart + p.SwingFrames
	seq := make(pose.Sequence, p.Frames)
	for f := 0; f < p.Frames; f++ {
		theta := pelvisAngle(f, p.Rotation)
		psi, ratio := armPose(f, swingEnd)
		kps := body(f, theta, psi, ratio, p, swingEnd)
		if rng != nil {
			for i := range kps {
				kps[i].X += rng.NormFloat64() * p.Jitter
				kps[i].Y += rng.NormFloat64() * p.Jitter
			}
		}
		seq[f] = pose.Frame{T: float64(f) * 1000 / p.FPS, Keypoints: kps}
	}
	return seq
}

func withDefaults(p Params) Params {
	d := DefaultParams()
	if p.Frames < MinFrames {
		p.Frames = d.Frames
	}
	if p.FPS <= 0 {
		p.FPS = d.FPS
	}
	if p.Rotation <= 0 {
		p.Rotation = d.Rotation
	}
	if p.SwingFrames < 4 {
		p.SwingFrames = d.SwingFrames
	}
	if p.Score <= 0 {
		p.Score = d.Score
	}
	// the recoil must settle before the sequence ends
	if limit := p.Frames - swingStart - recoilFrames - 12; p.SwingFrames > limit {
		p.SwingFrames = limit
	}
	return p
}

// ease is a cosine ramp from 0 to 1 over [from, to].
func ease(f, from, to int) float64 {
	switch {
	case f <= from:
		return 0
	case f >= to:
		return 1
	}
	u := float64(f-from) / float64(to-from)
	return 0.5 - 0.5*math.Cos(math.Pi*u)
}

// ramp is a linear ramp from 0 to 1 over [from, to].
func ramp(f, from, to int) float64 {
	switch {
	case f <= from:
		return 0
	case f >= to:
		return 1
	}
	return float64(f-from) / float64(to-from)
}

func pelvisAngle(f int, rotation float64) float64 {
	load := loadRotation * ramp(f, loadStart, loadEnd)
	return load + (rotation-loadRotation)*ease(f, rotateStart, rotateEnd)
}

func armPose(f, swingEnd int) (psi, ratio float64) {
	p := ease(f, swingStart, swingEnd)
	psi = armStartAngle + armSweep*p
	ratio = bentRatio + (1-bentRatio)*p
	if f > swingEnd {
		ratio -= (1 - recoilRatio) * ease(f, swingEnd, swingEnd+recoilFrames)
	}
	return psi, ratio
}

func body(f int, theta, psi, ratio float64, p Params, swingEnd int) []pose.Keypoint {
	s := p.Score
	kp := func(l pose.Landmark, x, y float64) pose.Keypoint {
		return pose.Keypoint{Name: l, X: x, Y: y, Score: s}
	}

	// lead foot: lifts, reaches forward, plants
	lift := ramp(f, liftStart, liftPeak) - ramp(f, liftPeak, plant)
	reach := strideReach * ramp(f, liftStart, plant)
	leadAnkleX := centerX - ankleHalf - reach
	leadAnkleY := ankleY - liftHeight*lift

	// head drifts between load and contact
	drift := p.HeadDrift * ramp(f, loadStart, swingStart+p.SwingFrames/2)
	noseX := centerX + drift

	shX := centerX - shoulderHalf
	d := ratio * (upperArm + forearm)
	wx := shX + d*math.Cos(psi)
	wy := shoulderY + d*math.Sin(psi)
	h := math.Sqrt(math.Max(0, upperArm*upperArm-(d/2)*(d/2)))
	ex := shX + (d/2)*math.Cos(psi) - h*math.Sin(psi)
	ey := shoulderY + (d/2)*math.Sin(psi) + h*math.Cos(psi)

	return []pose.Keypoint{
		kp(pose.Nose, noseX, 120),
		kp(pose.LeftEye, noseX-10, 112),
		kp(pose.RightEye, noseX+10, 112),
		kp(pose.LeftEar, noseX-20, 118),
		kp(pose.RightEar, noseX+20, 118),
		kp(pose.LeftShoulder, shX, shoulderY),
		kp(pose.RightShoulder, centerX+shoulderHalf, shoulderY),
		kp(pose.LeftElbow, ex, ey),
		kp(pose.RightElbow, centerX+shoulderHalf+20, 240),
		kp(pose.LeftWrist, wx, wy),
		kp(pose.RightWrist, centerX+shoulderHalf+10, 200),
		kp(pose.LeftHip, centerX-hipHalfWidth*math.Cos(theta), hipY-hipHalfWidth*math.Sin(theta)),
		kp(pose.RightHip, centerX+hipHalfWidth*math.Cos(theta), hipY+hipHalfWidth*math.Sin(theta)),
		kp(pose.LeftKnee, centerX-45-reach/2, 360),
		kp(pose.RightKnee, centerX+45, 360),
		kp(pose.LeftAnkle, leadAnkleX, leadAnkleY),
		kp(pose.RightAnkle, centerX+ankleHalf, ankleY),
	}
}

// Still builds a sequence of n motionless frames.
func Still(n int, fps float64) pose.Sequence {
	p := DefaultParams()
	if fps > 0 {
		p.FPS = fps
	}
	seq := make(pose.Sequence, n)
	for f := 0; f < n; f++ {
		seq[f] = pose.Frame{T: float64(f) * 1000 / p.FPS, Keypoints: body(0, 0, armStartAngle, bentRatio, p, 0)}
	}
	return seq
}
