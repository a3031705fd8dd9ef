package gacha

import (
	"fmt"
	"strings"
)

// Tier is the rarity of a catalog entry. Higher value = rarer.
type Tier int

const (
	TierN Tier = iota + 1
	TierR
	TierSR
	TierSSR
	TierUR
)

// tierInfo holds the fixed per-tier numbers.
type tierInfo struct {
	name    string
	rate    float64 // advertised payout rate, display only
	salvage int64   // currency credited on a duplicate grant
}

var tiers = map[Tier]tierInfo{
	TierN:   {name: "N", rate: 0.50, salvage: 10},
	TierR:   {name: "R", rate: 0.30, salvage: 50},
	TierSR:  {name: "SR", rate: 0.15, salvage: 200},
	TierSSR: {name: "SSR", rate: 0.04, salvage: 1000},
	TierUR:  {name: "UR", rate: 0.01, salvage: 5000},
}

// Tiers lists every tier in ascending order.
func Tiers() []Tier {
	return []Tier{TierN, TierR, TierSR, TierSSR, TierUR}
}

func (t Tier) Valid() bool {
	_, ok := tiers[t]
	return ok
}

func (t Tier) String() string {
	if info, ok := tiers[t]; ok {
		return info.name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// PayoutRate is the advertised rate for the tier. It does not drive sampling;
// the pool weights do.
func (t Tier) PayoutRate() float64 {
	return tiers[t].rate
}

// SalvageValue is the fixed credit for a duplicate of this tier. 0 for an unknown tier.
func (t Tier) SalvageValue() int64 {
	return tiers[t].salvage
}

// ParseTier accepts "N", "R", "SR", "SSR", "UR" in any case.
func ParseTier(s string) (Tier, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for t, info := range tiers {
		if info.name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// MarshalText/UnmarshalText let tiers round-trip through YAML and JSON as names.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
