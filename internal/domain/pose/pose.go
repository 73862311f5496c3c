// Package pose defines the keypoint frame store: landmarks, keypoints, frames and
// the ordered sequences the analysis pipeline consumes.
package pose

import (
	"math"
	"sort"
	"strings"
)

// Landmark is one of the 17 body landmarks produced by the pose model.
// The numeric order matches the COCO keypoint layout.
type Landmark int

// Body landmarks.
const (
	Nose Landmark = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	// LandmarkCount is the number of known landmarks.
	LandmarkCount = 17
)

var landmarkNames = [LandmarkCount]string{
	"nose",
	"left_eye",
	"right_eye",
	"left_ear",
	"right_ear",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

var landmarkByName = func() map[string]Landmark {
	m := make(map[string]Landmark, LandmarkCount)
	for i, n := range landmarkNames {
		m[n] = Landmark(i)
	}
	return m
}()

// String returns the snake_case landmark name.
func (l Landmark) String() string {
	if !l.Valid() {
		return "unknown"
	}
	return landmarkNames[l]
}

// Valid reports whether l is one of the known landmarks.
func (l Landmark) Valid() bool {
	return l >= 0 && l < LandmarkCount
}

// ParseLandmark resolves a landmark name. Both snake_case ("left_wrist") and
// camelCase ("leftWrist") spellings are accepted.
func ParseLandmark(name string) (Landmark, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if l, ok := landmarkByName[key]; ok {
		return l, true
	}
	// camelCase -> snake_case
	var b strings.Builder
	for i, r := range strings.TrimSpace(name) {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	l, ok := landmarkByName[b.String()]
	return l, ok
}

// Landmarks returns all landmarks in model order.
func Landmarks() []Landmark {
	out := make([]Landmark, LandmarkCount)
	for i := range out {
		out[i] = Landmark(i)
	}
	return out
}

// Keypoint is a single landmark estimate in source pixel space.
type Keypoint struct {
	Name  Landmark
	X     float64
	Y     float64
	Score float64
}

// Frame is one sampled video frame with its detected keypoints.
type Frame struct {
	T         float64 // milliseconds since video start
	Keypoints []Keypoint
}

// Get returns the keypoint for landmark l if present.
func (f Frame) Get(l Landmark) (Keypoint, bool) {
	for _, kp := range f.Keypoints {
		if kp.Name == l {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// Sequence is an ordered run of frames, ascending by T.
type Sequence []Frame

// Duration returns the time span covered by the sequence in milliseconds.
func (s Sequence) Duration() float64 {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].T - s[0].T
}

// RawKeypoint is the ingestion shape of a keypoint. Pose models disagree on field
// names, so both name/part and score/confidence are accepted.
type RawKeypoint struct {
	Name       string   `json:"name,omitempty"`
	Part       string   `json:"part,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Score      *float64 `json:"score,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// RawFrame is the ingestion shape of a frame.
type RawFrame struct {
	T         float64       `json:"t"`
	Keypoints []RawKeypoint `json:"keypoints"`
}

// Normalize converts raw keypoints to the canonical shape. Unknown names and
// non-finite coordinates are dropped; the first occurrence of a name wins.
func Normalize(raw []RawKeypoint) []Keypoint {
	out := make([]Keypoint, 0, len(raw))
	var seen [LandmarkCount]bool
	for _, rk := range raw {
		name := rk.Name
		if name == "" {
			name = rk.Part
		}
		l, ok := ParseLandmark(name)
		if !ok || seen[l] {
			continue
		}
		if !finite(rk.X) || !finite(rk.Y) {
			continue
		}
		score := 0.0
		switch {
		case rk.Score != nil:
			score = *rk.Score
		case rk.Confidence != nil:
			score = *rk.Confidence
		}
		if !finite(score) {
			score = 0
		}
		seen[l] = true
		out = append(out, Keypoint{Name: l, X: rk.X, Y: rk.Y, Score: clamp01(score)})
	}
	return out
}

// BuildSequence normalises raw frames into a Sequence. Frames without any
// recognised keypoint are dropped and the result is ordered by T.
func BuildSequence(raw []RawFrame) Sequence {
	seq := make(Sequence, 0, len(raw))
	for _, rf := range raw {
		if !finite(rf.T) {
			continue
		}
		kps := Normalize(rf.Keypoints)
		if len(kps) == 0 {
			continue
		}
		seq = append(seq, Frame{T: rf.T, Keypoints: kps})
	}
	sort.SliceStable(seq, func(i, j int) bool { return seq[i].T < seq[j].T })
	return seq
}

// Raw converts a sequence back to its ingestion shape.
func (s Sequence) Raw() []RawFrame {
	out := make([]RawFrame, len(s))
	for i, f := range s {
		kps := make([]RawKeypoint, len(f.Keypoints))
		for j, kp := range f.Keypoints {
			score := kp.Score
			kps[j] = RawKeypoint{Name: kp.Name.String(), X: kp.X, Y: kp.Y, Score: &score}
		}
		out[i] = RawFrame{T: f.T, Keypoints: kps}
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
