package game

import (
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/lootdraw/internal/gacha"
)

// ValidateRaw checks semantic constraints of a merged RawConfig.
// All problems are reported together.
func ValidateRaw(cfg RawConfig) error {
	var errs []string

	// catalog
	if len(cfg.Catalog) == 0 {
		errs = append(errs, "catalog must contain at least one entry")
	}
	seen := make(map[string]int, len(cfg.Catalog))
	var total float64
	for i, e := range cfg.Catalog {
		if e.ID == "" {
			errs = append(errs, fmt.Sprintf("catalog[%d].id is required", i))
		} else if j, dup := seen[e.ID]; dup {
			errs = append(errs, fmt.Sprintf("catalog[%d].id %q duplicates catalog[%d]", i, e.ID, j))
		} else {
			seen[e.ID] = i
		}
		if _, err := gacha.ParseTier(e.Tier); err != nil {
			errs = append(errs, fmt.Sprintf("catalog[%d].tier must be one of N, R, SR, SSR, UR", i))
		}
		switch {
		case e.Weight == nil:
			errs = append(errs, fmt.Sprintf("catalog[%d].weight is required", i))
		case math.IsNaN(*e.Weight) || math.IsInf(*e.Weight, 0) || *e.Weight <= 0:
			errs = append(errs, fmt.Sprintf("catalog[%d].weight must be > 0", i))
		default:
			total += *e.Weight
		}
	}
	if len(cfg.Catalog) > 0 && total <= 0 {
		errs = append(errs, "catalog total weight must be > 0")
	}

	// tokens
	if cfg.Tokens == nil || cfg.Tokens.PerDraw == nil {
		errs = append(errs, "tokens.per_draw is required")
	} else {
		if *cfg.Tokens.PerDraw < 0 {
			errs = append(errs, "tokens.per_draw must be >= 0")
		}
		if cfg.Tokens.PerTenDraw != nil && *cfg.Tokens.PerTenDraw < 0 {
			errs = append(errs, "tokens.per_ten_draw must be >= 0")
		}
		if cfg.Tokens.PerNDraw != nil && *cfg.Tokens.PerNDraw < 0 {
			errs = append(errs, "tokens.per_n_draw must be >= 0")
		}
		if cfg.Tokens.N != nil && *cfg.Tokens.N < 0 {
			errs = append(errs, "tokens.n must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
