// Package subscriber holds the bus handlers that turn draw events into
// per-account stats, a reward history and log lines. State lives in stores
// injected at construction.
package subscriber

import (
	"context"
	"log/slog"

	"github.com/xtding233/lootdraw/internal/event"
)

// StatsHandler folds events into a StatsStore.
type StatsHandler struct {
	store StatsStore
}

func NewStatsHandler(store StatsStore) *StatsHandler {
	return &StatsHandler{store: store}
}

// Handle folds e into the store. A redelivered event is ignored.
func (h *StatsHandler) Handle(ctx context.Context, e event.Event) error {
	id := e.ID().String()
	switch p := e.Payload().(type) {
	case event.BalanceDebited:
		if p.Reason != "draw" {
			return nil
		}
		h.store.Update(p.Account, id, func(s *Stats) { s.Spent += p.Amount })
	case event.RewardGranted:
		h.store.Update(p.Account, id, func(s *Stats) {
			s.Rewards++
			s.ByTier[p.Tier]++
			if p.FirstTime {
				s.FirstTimeGrants++
			} else {
				s.Duplicates++
				s.Salvaged += p.Salvage
			}
		})
	case event.DrawExecuted:
		h.store.Update(p.Account, id, func(s *Stats) {
			s.Draws++
			s.LastDrawAt = e.OccurredAt()
		})
	}
	return nil
}

// HistoryHandler appends granted rewards to a HistoryStore.
type HistoryHandler struct {
	store HistoryStore
}

func NewHistoryHandler(store HistoryStore) *HistoryHandler {
	return &HistoryHandler{store: store}
}

func (h *HistoryHandler) Handle(ctx context.Context, e event.Event) error {
	p, ok := e.Payload().(event.RewardGranted)
	if !ok {
		return nil
	}
	h.store.Append(p.Account, HistoryEntry{
		EventID:   e.ID().String(),
		ItemID:    p.ItemID,
		Tier:      p.Tier,
		FirstTime: p.FirstTime,
		Salvage:   p.Salvage,
		At:        e.OccurredAt(),
	})
	return nil
}

// LogHandler writes one structured line per event.
type LogHandler struct {
	logger *slog.Logger
}

func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger}
}

func (h *LogHandler) Handle(ctx context.Context, e event.Event) error {
	attrs := []any{"event_id", e.ID(), "account", e.AccountID(), "at", e.OccurredAt()}
	switch p := e.Payload().(type) {
	case event.DrawExecuted:
		attrs = append(attrs, "cost", p.Cost, "mode", p.Mode, "count", p.Count)
	case event.BalanceDebited:
		attrs = append(attrs, "amount", p.Amount, "balance_after", p.BalanceAfter, "reason", p.Reason)
	case event.RewardGranted:
		attrs = append(attrs, "item", p.ItemID, "tier", p.Tier.String(), "first_time", p.FirstTime, "salvage", p.Salvage)
	}
	h.logger.InfoContext(ctx, string(e.Kind()), attrs...)
	return nil
}

// Register subscribes the handlers to every kind they care about.
// Nil handlers are skipped.
func Register(bus *event.Bus, stats *StatsHandler, history *HistoryHandler, log *LogHandler) {
	for _, k := range event.Kinds() {
		if stats != nil {
			bus.Subscribe(k, stats.Handle)
		}
		if log != nil {
			bus.Subscribe(k, log.Handle)
		}
	}
	if history != nil {
		bus.Subscribe(event.KindRewardGranted, history.Handle)
	}
}
