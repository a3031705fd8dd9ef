package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidateRaw(t *testing.T) {
	ok := RawConfig{
		Tokens:  &TokenConfig{PerDraw: ptr(100)},
		Catalog: []EntryConfig{{ID: "a", Tier: "N", Weight: ptr(1.0)}},
	}
	require.NoError(t, ValidateRaw(ok))

	bad := RawConfig{
		Tokens: &TokenConfig{PerDraw: ptr(-1), PerTenDraw: ptr(-1)},
		Catalog: []EntryConfig{
			{ID: "", Tier: "N", Weight: ptr(1.0)},
			{ID: "a", Tier: "LR", Weight: ptr(1.0)},
			{ID: "a", Tier: "R", Weight: ptr(0.0)},
			{ID: "b", Tier: "R"},
		},
	}
	err := ValidateRaw(bad)
	require.Error(t, err)
	for _, msg := range []string{
		"catalog[0].id is required",
		"catalog[1].tier must be one of",
		`catalog[2].id "a" duplicates catalog[1]`,
		"catalog[2].weight must be > 0",
		"catalog[3].weight is required",
		"tokens.per_draw must be >= 0",
		"tokens.per_ten_draw must be >= 0",
	} {
		require.ErrorContains(t, err, msg)
	}

	require.ErrorContains(t, ValidateRaw(RawConfig{Catalog: ok.Catalog}), "tokens.per_draw is required")
}
