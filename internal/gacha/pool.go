package gacha

// CatalogEntry is one item that a pool can award.
type CatalogEntry struct {
	ID          string
	Name        string
	Tier        Tier
	Weight      float64 // relative weight, > 0
	Description string  // optional flavour text, passed through to rewards
}

// Sampler draws one catalog entry per call.
type Sampler interface {
	Sample() CatalogEntry
}

// RewardPool holds a weighted catalog. The catalog is fixed after
// construction so Sample never mutates the pool.
type RewardPool struct {
	entries []CatalogEntry
	total   float64
	rng     RandomSource
}

// NewRewardPool validates entries and builds a pool. If rng is nil the
// crypto-backed default source is used.
func NewRewardPool(entries []CatalogEntry, rng RandomSource) (*RewardPool, error) {
	total, err := validateEntries(entries)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	cp := append([]CatalogEntry(nil), entries...)
	return &RewardPool{entries: cp, total: total, rng: rng}, nil
}

// Sample picks an entry with probability weight/total.
// u is drawn from [0, total); entries are walked in catalog order and the first
// one with u <= cumulative wins, so earlier entries take the boundary.
// If float drift leaves nothing matched, the first entry is returned.
func (p *RewardPool) Sample() CatalogEntry {
	u := p.rng.Float64() * p.total
	return p.pick(u)
}

func (p *RewardPool) pick(u float64) CatalogEntry {
	var cum float64
	for _, e := range p.entries {
		cum += e.Weight
		if u <= cum {
			return e
		}
	}
	return p.entries[0]
}

// Entries returns a copy of the catalog in insertion order.
func (p *RewardPool) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), p.entries...)
}

// TotalWeight is the sum of all entry weights.
func (p *RewardPool) TotalWeight() float64 { return p.total }

// Lookup finds an entry by id.
func (p *RewardPool) Lookup(id string) (CatalogEntry, bool) {
	for _, e := range p.entries {
		if e.ID == id {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Probability is weight/total for id, 0 if id is not in the catalog.
func (p *RewardPool) Probability(id string) float64 {
	e, ok := p.Lookup(id)
	if !ok {
		return 0
	}
	return e.Weight / p.total
}

// TierProbability sums the probabilities of every entry of tier t.
func (p *RewardPool) TierProbability(t Tier) float64 {
	var w float64
	for _, e := range p.entries {
		if e.Tier == t {
			w += e.Weight
		}
	}
	return w / p.total
}
