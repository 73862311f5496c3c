package kinematics

// Smooth applies a centred moving average. The window shrinks at the series
// boundaries instead of padding, so the output has the same length as the input.
func Smooth(series []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	half := window / 2
	out := make([]float64, len(series))
	for i := range series {
		lo := max(0, i-half)
		hi := min(len(series), i+half+1)
		sum := 0.0
		for _, v := range series[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// SmoothSignals smooths each series of s independently.
func SmoothSignals(s Signals, window int) Signals {
	return Signals{
		PelvisAngularVelocity: Smooth(s.PelvisAngularVelocity, window),
		AnkleVerticalVelocity: Smooth(s.AnkleVerticalVelocity, window),
		HandSpeed:             Smooth(s.HandSpeed, window),
		ArmExtension:          Smooth(s.ArmExtension, window),
	}
}
