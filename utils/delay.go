package utils

import (
	"math/rand"
	"time"
)

// RandomDuration returns a duration drawn uniformly from [min, max].
// If max <= min it returns min.
func RandomDuration(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	diff := int64(max - min)
	if rng == nil {
		return min + time.Duration(rand.Int63n(diff+1))
	}
	return min + time.Duration(rng.Int63n(diff+1))
}
