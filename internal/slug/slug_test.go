package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LokalDeals/lokaldeals_api/internal/apperr"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "The Coffee House", "the-coffee-house"},
		{"mixed separators", "Bob's  Diner!", "bob-s-diner"},
		{"leading and trailing junk", "  --Café 24/7--  ", "caf-24-7"},
		{"already clean", "warung-makan-7", "warung-makan-7"},
		{"digits only", "24", "24"},
		{"no alphanumerics", "!!! ---", ""},
		{"empty", "", ""},
		{"uppercase collapses", "ABC", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func takenSet(slugs ...string) ExistsFunc {
	set := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		set[s] = true
	}
	return func(_ context.Context, slug string) (bool, error) {
		return set[slug], nil
	}
}

func TestAllocateFreeBase(t *testing.T) {
	got, err := Allocate(context.Background(), "The Coffee House", takenSet())
	require.NoError(t, err)
	assert.Equal(t, "the-coffee-house", got)
}

func TestAllocateProbesSuffixes(t *testing.T) {
	exists := takenSet("the-coffee-house", "the-coffee-house-1")
	got, err := Allocate(context.Background(), "The Coffee House", exists)
	require.NoError(t, err)
	assert.Equal(t, "the-coffee-house-2", got)
}

func TestAllocateFromSkipsToSeed(t *testing.T) {
	// A storage conflict on the bare base re-runs allocation with seed 2;
	// the base itself must not be probed again.
	probed := []string{}
	exists := func(_ context.Context, slug string) (bool, error) {
		probed = append(probed, slug)
		return slug == "cafe-2", nil
	}

	got, err := AllocateFrom(context.Background(), "Cafe", 2, exists)
	require.NoError(t, err)
	assert.Equal(t, "cafe-3", got)
	assert.Equal(t, []string{"cafe-2", "cafe-3"}, probed)
}

func TestAllocateInvalidName(t *testing.T) {
	_, err := Allocate(context.Background(), "!!!", takenSet())
	assert.ErrorIs(t, err, apperr.ErrInvalidName)

	_, err = Allocate(context.Background(), "", takenSet())
	assert.ErrorIs(t, err, apperr.ErrInvalidName)
}

func TestAllocateExhaustion(t *testing.T) {
	everything := func(_ context.Context, _ string) (bool, error) {
		return true, nil
	}
	_, err := Allocate(context.Background(), "Cafe", everything)
	assert.ErrorIs(t, err, apperr.ErrSlugExhausted)
}

func TestAllocatePropagatesLookupError(t *testing.T) {
	boom := errors.New("connection refused")
	failing := func(_ context.Context, _ string) (bool, error) {
		return false, boom
	}
	_, err := Allocate(context.Background(), "Cafe", failing)
	assert.ErrorIs(t, err, boom)
}
