// Package segment locates the six phase boundaries of a batting swing in a
// keypoint sequence and grades how reliable that sequence is.
package segment

import (
	"github.com/okian/swingscope/internal/domain/kinematics"
	"github.com/okian/swingscope/internal/domain/pose"
)

// Default detection thresholds.
const (
	defaultMinFrames       = 10
	defaultLoadEdge        = 5
	defaultLoadPelvis      = 0.1 // rad/s
	defaultStrideGap       = 3
	defaultContactFraction = 0.8
	defaultFinishPelvis    = 0.05 // rad/s
	defaultFinishHand      = 10   // px/s
	defaultFinishRun       = 8
)

// Thresholds tunes the stage heuristics.
type Thresholds struct {
	MinFrames       int     // sequences shorter than this yield no events
	LoadEdge        int     // samples skipped at both ends when looking for load
	LoadPelvis      float64 // pelvis velocity that marks the load
	StrideGap       int     // samples after load before a plant may be found
	ContactFraction float64 // fraction of running max hand speed at contact
	FinishPelvis    float64 // pelvis velocity ceiling while finished
	FinishHand      float64 // hand speed ceiling while finished
	FinishRun       int     // consecutive quiet samples that make a finish
}

// DefaultThresholds returns the stock heuristics.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinFrames:       defaultMinFrames,
		LoadEdge:        defaultLoadEdge,
		LoadPelvis:      defaultLoadPelvis,
		StrideGap:       defaultStrideGap,
		ContactFraction: defaultContactFraction,
		FinishPelvis:    defaultFinishPelvis,
		FinishHand:      defaultFinishHand,
		FinishRun:       defaultFinishRun,
	}
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithSmoothingWindow sets the moving-average window applied before detection.
func WithSmoothingWindow(window int) Option {
	return func(s *Segmenter) {
		if window >= 1 {
			s.window = window
		}
	}
}

// WithThresholds replaces the stage thresholds.
func WithThresholds(t Thresholds) Option {
	return func(s *Segmenter) {
		s.thresholds = t
	}
}

// Segmenter detects swing events. It holds no state between calls and is
// safe for concurrent use.
type Segmenter struct {
	window     int
	thresholds Thresholds
}

// New creates a Segmenter.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		window:     kinematics.DefaultWindow,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment detects events with a Segmenter built from opts.
func Segment(seq pose.Sequence, opts ...Option) Events {
	return New(opts...).Segment(seq)
}

// Signals returns the smoothed signals the Segmenter detects on.
func (s *Segmenter) Signals(seq pose.Sequence) kinematics.Signals {
	return kinematics.SmoothSignals(kinematics.Extract(seq), s.window)
}

// Segment detects the swing events in seq.
func (s *Segmenter) Segment(seq pose.Sequence) Events {
	ev, _ := s.Run(seq)
	return ev
}

// Run detects the swing events in seq and also returns the smoothed signals
// they were found on.
func (s *Segmenter) Run(seq pose.Sequence) (Events, kinematics.Signals) {
	sig := s.Signals(seq)
	if len(seq) < s.thresholds.MinFrames {
		return Events{}, sig
	}
	return s.Detect(sig), sig
}

// Detect runs the stage detectors over already smoothed signals. Each stage
// searches from the most recent detected event, or from 0 when none was found.
func (s *Segmenter) Detect(sig kinematics.Signals) Events {
	var ev Events
	from := 0
	for _, st := range s.stages() {
		idx, ok := st.detect(sig, from)
		if !ok {
			continue
		}
		ev = ev.with(st.phase, idx)
		from = idx
	}
	return ev
}

// detector returns the index of its event at or after from.
type detector func(sig kinematics.Signals, from int) (int, bool)

type stage struct {
	phase  Phase
	detect detector
}

func (s *Segmenter) stages() []stage {
	t := s.thresholds
	return []stage{
		{PhaseLoadStart, loadStart(t)},
		{PhaseStridePlant, stridePlant(t)},
		{PhaseLaunch, launch},
		{PhaseContact, contact(t)},
		{PhaseExtension, extension},
		{PhaseFinish, finish(t)},
	}
}

func loadStart(t Thresholds) detector {
	return func(sig kinematics.Signals, from int) (int, bool) {
		p := sig.PelvisAngularVelocity
		for i := max(from, t.LoadEdge, 1); i < len(p)-t.LoadEdge; i++ {
			if p[i] > p[i-1] && p[i] > t.LoadPelvis {
				return kinematics.FrameIndex(i), true
			}
		}
		return 0, false
	}
}

func stridePlant(t Thresholds) detector {
	return func(sig kinematics.Signals, from int) (int, bool) {
		a := sig.AnkleVerticalVelocity
		for i := max(from+t.StrideGap+1, 1); i < len(a); i++ {
			if a[i-1] > 0 && a[i] <= 0 {
				return i, true
			}
		}
		return 0, false
	}
}

func launch(sig kinematics.Signals, from int) (int, bool) {
	return argmax(sig.PelvisAngularVelocity, from)
}

func contact(t Thresholds) detector {
	return func(sig kinematics.Signals, from int) (int, bool) {
		h := sig.HandSpeed
		peak := 0.0
		for i := from; i+2 < len(h); i++ {
			peak = max(peak, h[i])
			if h[i] >= t.ContactFraction*peak && h[i+1] < h[i] && h[i+2] < h[i+1] {
				return i, true
			}
		}
		return 0, false
	}
}

func extension(sig kinematics.Signals, from int) (int, bool) {
	return argmax(sig.ArmExtension, from)
}

func finish(t Thresholds) detector {
	return func(sig kinematics.Signals, from int) (int, bool) {
		p, h := sig.PelvisAngularVelocity, sig.HandSpeed
		run := 0
		for i := max(from, 0); i < len(p); i++ {
			if p[i] < t.FinishPelvis && h[i] < t.FinishHand {
				run++
				if run >= t.FinishRun {
					return i - run + 1, true
				}
				continue
			}
			run = 0
		}
		return 0, false
	}
}

// argmax returns the first index of the largest value in series[from:].
func argmax(series []float64, from int) (int, bool) {
	from = max(from, 0)
	if from >= len(series) {
		return 0, false
	}
	best := from
	for i := from + 1; i < len(series); i++ {
		if series[i] > series[best] {
			best = i
		}
	}
	return best, true
}
