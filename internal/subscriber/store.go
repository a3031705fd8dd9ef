package subscriber

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xtding233/lootdraw/internal/gacha"
)

// Stats are per-account running totals derived from the event stream.
type Stats struct {
	Draws           int                `json:"draws"`
	Rewards         int                `json:"rewards"`
	Spent           int64              `json:"spent"`
	FirstTimeGrants int                `json:"first_time_grants"`
	Duplicates      int                `json:"duplicates"`
	Salvaged        int64              `json:"salvaged"`
	ByTier          map[gacha.Tier]int `json:"by_tier"`
	LastDrawAt      time.Time          `json:"last_draw_at"`
}

func (s Stats) clone() Stats {
	s.ByTier = maps.Clone(s.ByTier)
	return s
}

// StatsStore keeps Stats per account.
type StatsStore interface {
	// Update applies fn to the account's stats atomically, at most once per
	// eventID. It reports false when eventID was already applied. An empty
	// eventID is always applied.
	Update(accountID, eventID string, fn func(*Stats)) bool
	Get(accountID string) (Stats, bool)
}

// HistoryEntry is one granted reward.
type HistoryEntry struct {
	EventID   string     `json:"event_id"`
	ItemID    string     `json:"item_id"`
	Tier      gacha.Tier `json:"tier"`
	FirstTime bool       `json:"first_time"`
	Salvage   int64      `json:"salvage,omitempty"`
	At        time.Time  `json:"at"`
}

// HistoryStore keeps an ordered reward log per account.
type HistoryStore interface {
	// Append adds e unless the account already has an entry with its EventID.
	Append(accountID string, e HistoryEntry) bool
	List(accountID string) []HistoryEntry
}

// StoreConfig bounds the in-memory stores.
type StoreConfig struct {
	Capacity      int           // max accounts kept
	TTL           time.Duration // idle accounts expire after this; 0 = never
	PerAccountCap int           // history only: newest entries kept per account
	SeenCapacity  int           // stats only: applied event ids remembered for redelivery
}

const (
	defaultCapacity      = 10_000
	defaultPerAccountCap = 100
	defaultSeenCapacity  = 100_000
)

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Capacity <= 0 {
		c.Capacity = defaultCapacity
	}
	if c.PerAccountCap <= 0 {
		c.PerAccountCap = defaultPerAccountCap
	}
	if c.SeenCapacity <= 0 {
		c.SeenCapacity = defaultSeenCapacity
	}
	return c
}

// MemoryStats is an LRU+TTL bounded StatsStore. Applied event ids are kept
// in a second bounded LRU so a redelivered event is counted once.
type MemoryStats struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, Stats]
	seen  *expirable.LRU[string, struct{}]
}

func NewMemoryStats(cfg StoreConfig) *MemoryStats {
	cfg = cfg.withDefaults()
	return &MemoryStats{
		cache: expirable.NewLRU[string, Stats](cfg.Capacity, nil, cfg.TTL),
		seen:  expirable.NewLRU[string, struct{}](cfg.SeenCapacity, nil, cfg.TTL),
	}
}

func (m *MemoryStats) Update(accountID, eventID string, fn func(*Stats)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if eventID != "" {
		if m.seen.Contains(eventID) {
			return false
		}
		m.seen.Add(eventID, struct{}{})
	}
	s, _ := m.cache.Get(accountID)
	s = s.clone()
	if s.ByTier == nil {
		s.ByTier = make(map[gacha.Tier]int)
	}
	fn(&s)
	m.cache.Add(accountID, s)
	return true
}

func (m *MemoryStats) Get(accountID string) (Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.cache.Get(accountID)
	if !ok {
		return Stats{}, false
	}
	return s.clone(), true
}

func (m *MemoryStats) Len() int { return m.cache.Len() }

// MemoryHistory is an LRU+TTL bounded HistoryStore that also caps entries per account.
type MemoryHistory struct {
	mu     sync.Mutex
	perAcc int
	cache  *expirable.LRU[string, []HistoryEntry]
}

func NewMemoryHistory(cfg StoreConfig) *MemoryHistory {
	cfg = cfg.withDefaults()
	return &MemoryHistory{
		perAcc: cfg.PerAccountCap,
		cache:  expirable.NewLRU[string, []HistoryEntry](cfg.Capacity, nil, cfg.TTL),
	}
}

func (m *MemoryHistory) Append(accountID string, e HistoryEntry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, _ := m.cache.Get(accountID)
	if e.EventID != "" && slices.ContainsFunc(list, func(h HistoryEntry) bool { return h.EventID == e.EventID }) {
		return false
	}
	list = append(slices.Clone(list), e)
	if over := len(list) - m.perAcc; over > 0 {
		list = list[over:]
	}
	m.cache.Add(accountID, list)
	return true
}

// List returns the account's entries, oldest first.
func (m *MemoryHistory) List(accountID string) []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	list, _ := m.cache.Get(accountID)
	return slices.Clone(list)
}

func (m *MemoryHistory) Len() int { return m.cache.Len() }
