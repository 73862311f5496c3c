package scoring

import (
	"fmt"
	"math"
)

// Metric names produced by swing analysis.
const (
	MetricHipShoulderSeparation = "hip_shoulder_separation_deg"
	MetricStrideRatio           = "stride_ratio"
	MetricLoadToContact         = "load_to_contact_ms"
	MetricLaunchToContact       = "launch_to_contact_ms"
	MetricPeakHandSpeed         = "peak_hand_speed_bl"
	MetricPeakPelvisVelocity    = "peak_pelvis_velocity"
	MetricExtensionRatio        = "extension_ratio"
	MetricHeadDrift             = "head_drift_ratio"
)

// DefaultRubric returns the stock swing rubric.
func DefaultRubric() Rubric {
	return Rubric{
		{Name: MetricHipShoulderSeparation, Target: [2]float64{35, 55}, Weight: 1.5},
		{Name: MetricPeakPelvisVelocity, Target: [2]float64{5, 9}, Weight: 1.5},
		{Name: MetricPeakHandSpeed, Target: [2]float64{5.5, 9}, Weight: 1.5},
		{Name: MetricLaunchToContact, Target: [2]float64{100, 200}, Weight: 1},
		{Name: MetricLoadToContact, Target: [2]float64{900, 1500}, Weight: 0.5},
		{Name: MetricStrideRatio, Target: [2]float64{1.2, 1.8}, Weight: 1},
		{Name: MetricExtensionRatio, Target: [2]float64{0.95, 1}, Weight: 1},
		{Name: MetricHeadDrift, Target: [2]float64{0, 0.1}, Weight: 1, AbsWindow: true},
	}
}

// Validate checks that r can be scored against.
func (r Rubric) Validate() error {
	if len(r) == 0 {
		return ErrEmptyRubric
	}
	seen := make(map[string]struct{}, len(r))
	for _, m := range r {
		if m.Name == "" {
			return fmt.Errorf("%w: missing metric name", ErrInvalidSpec)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateMetric, m.Name)
		}
		seen[m.Name] = struct{}{}
		if !(m.Weight > 0) || math.IsInf(m.Weight, 0) {
			return fmt.Errorf("%w: %s weight must be positive", ErrInvalidSpec, m.Name)
		}
		if math.IsNaN(m.Lo()) || math.IsNaN(m.Hi()) || m.Hi() < m.Lo() {
			return fmt.Errorf("%w: %s target [%g, %g]", ErrInvalidSpec, m.Name, m.Lo(), m.Hi())
		}
	}
	return nil
}

// Names returns the metric names in rubric order.
func (r Rubric) Names() []string {
	out := make([]string, len(r))
	for i, m := range r {
		out[i] = m.Name
	}
	return out
}
