// Package strategies provides the rotation strategies used by the
// credential pool: round-robin, least-used, and random.
//
// All strategies are stateless; rotation state lives in the pool's buckets
// and is passed in on every pick.
package strategies

import (
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
)

// RoundRobin cycles through a bucket's credentials in registration order.
//
// The cursor is owned by the bucket; this strategy picks the credential at
// the cursor position and advances the cursor by one, modulo the bucket
// length, so N consecutive selections over a stable bucket of N credentials
// visit each credential exactly once.
type RoundRobin struct{}

// NewRoundRobin creates a round-robin strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Pick selects creds[cursor mod len] and advances the cursor one position.
func (s *RoundRobin) Pick(creds []*credentials.Credential, cursor int) (int, int, error) {
	index := cursor % len(creds)
	return index, (index + 1) % len(creds), nil
}

// Name returns the strategy name.
func (s *RoundRobin) Name() string {
	return string(config.RotationRoundRobin)
}
