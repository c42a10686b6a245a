// Package anonymize produces the transport-safe artifacts consumed by
// downstream personalization: keyed identifier hashes, noise-calibrated
// pattern metrics, and anonymization reports.
package anonymize

import (
	"math"
	"math/rand"
	"sync"
)

// NoiseGenerator yields calibrated random noise for a privacy budget.
// Smaller epsilon means more privacy and therefore more noise.
type NoiseGenerator interface {
	Noise(epsilon, sensitivity float64) float64
}

// LaplaceNoise draws from the Laplace distribution with scale
// sensitivity/epsilon, the standard differential-privacy mechanism for
// bounded numeric queries.
type LaplaceNoise struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewLaplaceNoise seeds a generator. Pass a fixed seed in tests for
// reproducible draws.
func NewLaplaceNoise(seed int64) *LaplaceNoise {
	return &LaplaceNoise{rng: rand.New(rand.NewSource(seed))}
}

// Noise returns a Laplace sample. Degenerate budgets (epsilon <= 0) clamp to
// a small positive value instead of producing unbounded noise.
func (l *LaplaceNoise) Noise(epsilon, sensitivity float64) float64 {
	if epsilon <= 0 {
		epsilon = 0.01
	}
	if sensitivity <= 0 {
		sensitivity = 1
	}
	scale := sensitivity / epsilon

	l.mu.Lock()
	u := l.rng.Float64() - 0.5
	l.mu.Unlock()

	// Inverse CDF of the Laplace distribution.
	return -scale * sign(u) * math.Log(1-2*math.Abs(u))
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}
