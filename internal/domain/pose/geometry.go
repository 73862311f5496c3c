package pose

import "math"

// Dist returns the Euclidean distance between two keypoints.
func Dist(a, b Keypoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Angle returns the orientation of the segment a->b in radians.
func Angle(a, b Keypoint) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// WrapAngle maps an angle into (-π, π].
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Pair returns the keypoints for two landmarks when both are present.
func (f Frame) Pair(a, b Landmark) (Keypoint, Keypoint, bool) {
	ka, ok := f.Get(a)
	if !ok {
		return Keypoint{}, Keypoint{}, false
	}
	kb, ok := f.Get(b)
	if !ok {
		return Keypoint{}, Keypoint{}, false
	}
	return ka, kb, true
}

// Midpoint returns the midpoint of two landmarks when both are present.
func (f Frame) Midpoint(a, b Landmark) (float64, float64, bool) {
	ka, kb, ok := f.Pair(a, b)
	if !ok {
		return 0, 0, false
	}
	return (ka.X + kb.X) / 2, (ka.Y + kb.Y) / 2, true
}

// TorsoLength is the distance between the shoulder and hip midpoints.
func (f Frame) TorsoLength() (float64, bool) {
	sx, sy, ok := f.Midpoint(LeftShoulder, RightShoulder)
	if !ok {
		return 0, false
	}
	hx, hy, ok := f.Midpoint(LeftHip, RightHip)
	if !ok {
		return 0, false
	}
	return math.Hypot(sx-hx, sy-hy), true
}
