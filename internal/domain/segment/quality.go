package segment

import "github.com/okian/swingscope/internal/domain/pose"

// QualityFlag marks a sequence whose detections are unreliable. The zero value
// means no flag.
type QualityFlag string

// LowConfidence is set when too many frames miss key landmarks.
const LowConfidence QualityFlag = "low_confidence"

const (
	minKeyScore        = 0.4
	lowFrameFraction   = 0.25
	lowKeyLandmarksMin = 4
)

var keyLandmarks = [...]pose.Landmark{
	pose.LeftHip, pose.RightHip,
	pose.LeftShoulder, pose.RightShoulder,
	pose.LeftAnkle, pose.RightAnkle,
	pose.LeftWrist, pose.RightWrist,
}

// AssessQuality flags seq as low confidence when more than a quarter of its
// frames have at least half of the key landmarks absent or below 0.4.
func AssessQuality(seq pose.Sequence) QualityFlag {
	if len(seq) == 0 {
		return ""
	}
	low := 0
	for _, f := range seq {
		if lowConfidenceFrame(f) {
			low++
		}
	}
	if float64(low)/float64(len(seq)) > lowFrameFraction {
		return LowConfidence
	}
	return ""
}

func lowConfidenceFrame(f pose.Frame) bool {
	weak := 0
	for _, l := range keyLandmarks {
		kp, ok := f.Get(l)
		if !ok || kp.Score < minKeyScore {
			weak++
		}
	}
	return weak >= lowKeyLandmarksMin
}
