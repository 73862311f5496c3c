package repository

import "time"

// Option configures a TreapStore.
type Option func(*TreapStore)

// WithPlayerGaugeInterval sets how often the ranked-players gauge is
// refreshed from the ranking. Non-positive values keep the default.
func WithPlayerGaugeInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval > 0 {
			s.playerGaugeInterval = interval
		}
	}
}
