package loadtest

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/okian/swingscope/internal/synth"
)

// Generate builds the swings for a run. Each swing varies rotation, tempo,
// head drift and noise so players end up with distinct scores.
func Generate(cfg Config) []SwingRequest {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible load
	out := make([]SwingRequest, 0, cfg.Players*cfg.SwingsPer)
	for p := 0; p < cfg.Players; p++ {
		player := fmt.Sprintf("player-%03d", p)
		for s := 0; s < cfg.SwingsPer; s++ {
			params := synth.DefaultParams()
			params.Rotation = 1.2 + rng.Float64()*1.2
			params.SwingFrames = 10 + rng.Intn(14)
			params.HeadDrift = rng.Float64() * 25
			params.Jitter = rng.Float64() * 1.5
			params.Seed = rng.Int63()
			out = append(out, SwingRequest{
				AnalysisID: uuid.NewString(),
				PlayerID:   player,
				Frames:     synth.Swing(params).Raw(),
			})
		}
	}
	return out
}
