package gacha

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyPool    = errors.New("reward pool has no entries")
	ErrInvalidEntry = errors.New("invalid catalog entry")
	ErrUnknownTier  = errors.New("unknown tier")
)

func validateWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: weight must be finite", ErrInvalidEntry)
	}
	if w <= 0 {
		return fmt.Errorf("%w: weight must be > 0", ErrInvalidEntry)
	}
	return nil
}

// validateEntries checks every entry and the catalog as a whole.
// Returns the total weight on success.
func validateEntries(entries []CatalogEntry) (float64, error) {
	if len(entries) == 0 {
		return 0, ErrEmptyPool
	}
	seen := make(map[string]struct{}, len(entries))
	var total float64
	for i, e := range entries {
		if e.ID == "" {
			return 0, fmt.Errorf("%w: entries[%d].id is required", ErrInvalidEntry, i)
		}
		if _, dup := seen[e.ID]; dup {
			return 0, fmt.Errorf("%w: entries[%d].id %q is duplicated", ErrInvalidEntry, i, e.ID)
		}
		seen[e.ID] = struct{}{}
		if !e.Tier.Valid() {
			return 0, fmt.Errorf("entries[%d]: %w: %d", i, ErrUnknownTier, int(e.Tier))
		}
		if err := validateWeight(e.Weight); err != nil {
			return 0, fmt.Errorf("entries[%d]: %w", i, err)
		}
		total += e.Weight
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("%w: total weight must be positive and finite", ErrInvalidEntry)
	}
	return total, nil
}
