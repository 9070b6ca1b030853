// Package seed resolves the random seed shared by every preprocessing
// project and hands out reproducible generators.
package seed

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// EnvVar is consulted when no explicit seed is given.
const EnvVar = "SEED"

// Default is used when neither an explicit seed nor SEED is set.
const Default int64 = 42

// Resolve picks the seed with priority explicit > $SEED > Default.
// An empty SEED counts as unset; a non-integer SEED is an error.
func Resolve(explicit *int64) (int64, error) {
	if explicit != nil {
		return *explicit, nil
	}

	raw, ok := os.LookupEnv(EnvVar)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return Default, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", EnvVar, raw, err)
	}
	return v, nil
}

// New returns a generator whose stream depends only on seed.
// Generators are not safe for concurrent use; create one per goroutine.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Ptr is a convenience for passing literal seeds to Resolve.
func Ptr(v int64) *int64 {
	return &v
}
