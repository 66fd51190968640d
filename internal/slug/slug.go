package slug

import (
	"context"
	"fmt"
	"strings"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
)

// maxProbes caps the uniqueness probe loop so a pathological exists check
// cannot spin forever.
const maxProbes = 1000

// ExistsFunc reports whether a slug is already taken in its namespace.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Normalize derives the base slug from a human-readable name: lowercase,
// every run of characters outside [a-z0-9] collapsed to a single hyphen,
// leading and trailing hyphens stripped. Returns "" when the name contains
// no alphanumeric characters at all.
func Normalize(name string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		default:
			hyphen = true
		}
	}
	return b.String()
}

// Allocate returns the first free slug for candidateName: the base slug
// itself, then base-1, base-2, and so on. Uniqueness holds only at the
// instant of the check; callers must still treat a unique-constraint
// violation from storage as a signal to re-allocate, not as a fatal error.
func Allocate(ctx context.Context, candidateName string, exists ExistsFunc) (string, error) {
	return AllocateFrom(ctx, candidateName, 1, exists)
}

// AllocateFrom is Allocate with an explicit starting counter, used when a
// storage conflict forces a re-run past an already-taken suffix. With seed 1
// the bare base slug is tried first; with a larger seed probing starts
// directly at base-seed.
func AllocateFrom(ctx context.Context, candidateName string, seed int, exists ExistsFunc) (string, error) {
	base := Normalize(candidateName)
	if base == "" {
		return "", fmt.Errorf("%w: %q has no alphanumeric characters", apperr.ErrInvalidName, candidateName)
	}
	if seed < 1 {
		seed = 1
	}

	candidate := base
	counter := seed
	if seed > 1 {
		candidate = fmt.Sprintf("%s-%d", base, seed)
		counter = seed + 1
	}
	for probe := 0; probe < maxProbes; probe++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
		counter++
	}
	return "", fmt.Errorf("%w: no free slug for %q after %d probes", apperr.ErrSlugExhausted, base, maxProbes)
}
