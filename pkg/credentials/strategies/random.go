package strategies

import (
	"math/rand/v2"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
)

// Random picks a uniformly random credential from the bucket.
type Random struct{}

// NewRandom creates a random strategy.
func NewRandom() *Random {
	return &Random{}
}

// Pick selects a uniform index in [0, len). The cursor is returned
// unchanged; random does not rotate.
func (s *Random) Pick(creds []*credentials.Credential, cursor int) (int, int, error) {
	return rand.IntN(len(creds)), cursor, nil
}

// Name returns the strategy name.
func (s *Random) Name() string {
	return string(config.RotationRandom)
}
