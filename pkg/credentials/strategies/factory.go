package strategies

import (
	"fmt"

	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
)

// ForName returns the strategy implementation for a configured rotation
// strategy. The switch is exhaustive over the closed set of strategies;
// unrecognized values return an error rather than a silent default.
func ForName(strategy config.RotationStrategy) (credentials.Strategy, error) {
	switch strategy {
	case config.RotationRoundRobin:
		return NewRoundRobin(), nil
	case config.RotationLeastUsed:
		return NewLeastUsed(), nil
	case config.RotationRandom:
		return NewRandom(), nil
	default:
		return nil, fmt.Errorf("unknown rotation strategy %q", strategy)
	}
}
