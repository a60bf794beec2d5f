package strategies

import (
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
)

// LeastUsed picks the credential with the lowest usage count. Ties are
// resolved left-to-right, so the first credential encountered at the
// minimum wins and selection is stable across runs.
type LeastUsed struct{}

// NewLeastUsed creates a least-used strategy.
func NewLeastUsed() *LeastUsed {
	return &LeastUsed{}
}

// Pick scans linearly for the minimum usage count. The cursor is returned
// unchanged; least-used does not rotate.
func (s *LeastUsed) Pick(creds []*credentials.Credential, cursor int) (int, int, error) {
	index := 0
	for i := 1; i < len(creds); i++ {
		if creds[i].UsageCount < creds[index].UsageCount {
			index = i
		}
	}
	return index, cursor, nil
}

// Name returns the strategy name.
func (s *LeastUsed) Name() string {
	return string(config.RotationLeastUsed)
}
