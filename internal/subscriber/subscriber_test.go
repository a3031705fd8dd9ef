package subscriber

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xtding233/lootdraw/internal/account"
	"github.com/xtding233/lootdraw/internal/draw"
	"github.com/xtding233/lootdraw/internal/event"
	"github.com/xtding233/lootdraw/internal/gacha"
)

type fixedSampler gacha.CatalogEntry

func (f fixedSampler) Sample() gacha.CatalogEntry { return gacha.CatalogEntry(f) }

func TestHandlersAccumulateFromDraws(t *testing.T) {
	stats := NewMemoryStats(StoreConfig{})
	history := NewMemoryHistory(StoreConfig{})
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	bus := event.NewBus(nil, nil)
	Register(bus, NewStatsHandler(stats), NewHistoryHandler(history), NewLogHandler(logger))

	acct, err := account.New("acc-1", "Alice", 2000)
	require.NoError(t, err)
	ur := fixedSampler{ID: "ur1", Name: "Phoenix", Tier: gacha.TierUR, Weight: 1}

	for i := 0; i < 2; i++ {
		_, err := draw.DrawOnce(acct, ur, 100, draw.ModeSingle)
		require.NoError(t, err)
		require.NoError(t, bus.DispatchEntityEvents(context.Background(), acct))
	}

	s, ok := stats.Get("acc-1")
	require.True(t, ok)
	require.Equal(t, 2, s.Draws)
	require.Equal(t, 2, s.Rewards)
	require.EqualValues(t, 200, s.Spent)
	require.Equal(t, 1, s.FirstTimeGrants)
	require.Equal(t, 1, s.Duplicates)
	require.EqualValues(t, 5000, s.Salvaged)
	require.Equal(t, 2, s.ByTier[gacha.TierUR])
	require.False(t, s.LastDrawAt.IsZero())

	h := history.List("acc-1")
	require.Len(t, h, 2)
	require.True(t, h[0].FirstTime)
	require.False(t, h[1].FirstTime)
	require.EqualValues(t, 5000, h[1].Salvage)

	require.Contains(t, buf.String(), `"msg":"reward.granted"`)
	require.Contains(t, buf.String(), `"item":"ur1"`)
}

func TestRedeliveryCountedOnce(t *testing.T) {
	stats := NewMemoryStats(StoreConfig{})
	history := NewMemoryHistory(StoreConfig{})
	bus := event.NewBus(nil, nil)
	Register(bus, NewStatsHandler(stats), NewHistoryHandler(history), nil)

	boom := errors.New("notifier down")
	var failed atomic.Bool
	bus.Subscribe(event.KindRewardGranted, func(ctx context.Context, e event.Event) error {
		if failed.CompareAndSwap(false, true) {
			return boom
		}
		return nil
	})

	acct, err := account.New("acc-1", "Alice", 2000)
	require.NoError(t, err)
	ur := fixedSampler{ID: "ur1", Name: "Phoenix", Tier: gacha.TierUR, Weight: 1}
	_, err = draw.DrawOnce(acct, ur, 100, draw.ModeSingle)
	require.NoError(t, err)

	require.ErrorIs(t, bus.DispatchEntityEvents(context.Background(), acct), boom)
	// stats and history already saw RewardGranted; the retry hands it to them again
	require.NoError(t, bus.DispatchEntityEvents(context.Background(), acct))
	require.Empty(t, acct.PendingEvents())

	s, ok := stats.Get("acc-1")
	require.True(t, ok)
	require.Equal(t, 1, s.Draws)
	require.Equal(t, 1, s.Rewards)
	require.Equal(t, 1, s.FirstTimeGrants)
	require.EqualValues(t, 100, s.Spent)
	require.Equal(t, 1, s.ByTier[gacha.TierUR])
	require.Len(t, history.List("acc-1"), 1)
}

func TestStoresDropSeenEventIDs(t *testing.T) {
	stats := NewMemoryStats(StoreConfig{})
	require.True(t, stats.Update("a", "ev-1", func(s *Stats) { s.Draws++ }))
	require.False(t, stats.Update("a", "ev-1", func(s *Stats) { s.Draws++ }))
	require.True(t, stats.Update("a", "", func(s *Stats) { s.Draws++ }))
	require.True(t, stats.Update("a", "", func(s *Stats) { s.Draws++ }))
	got, _ := stats.Get("a")
	require.Equal(t, 3, got.Draws)

	history := NewMemoryHistory(StoreConfig{})
	require.True(t, history.Append("a", HistoryEntry{EventID: "ev-1", ItemID: "x"}))
	require.False(t, history.Append("a", HistoryEntry{EventID: "ev-1", ItemID: "x"}))
	require.True(t, history.Append("b", HistoryEntry{EventID: "ev-1", ItemID: "x"}))
	require.Len(t, history.List("a"), 1)
}

func TestStatsStoreIsolation(t *testing.T) {
	stats := NewMemoryStats(StoreConfig{})
	stats.Update("a", "", func(s *Stats) { s.ByTier[gacha.TierN] = 1 })

	got, ok := stats.Get("a")
	require.True(t, ok)
	got.ByTier[gacha.TierN] = 99

	again, _ := stats.Get("a")
	require.Equal(t, 1, again.ByTier[gacha.TierN])

	_, ok = stats.Get("b")
	require.False(t, ok)
}

func TestStatsIgnoresNonDrawDebits(t *testing.T) {
	stats := NewMemoryStats(StoreConfig{})
	h := NewStatsHandler(stats)
	require.NoError(t, h.Handle(context.Background(), event.New(event.BalanceDebited{Account: "a", Amount: 5, Reason: "fee"})))
	_, ok := stats.Get("a")
	require.False(t, ok)
}

func TestStoresAreBounded(t *testing.T) {
	stats := NewMemoryStats(StoreConfig{Capacity: 2})
	for _, id := range []string{"a", "b", "c"} {
		stats.Update(id, "", func(s *Stats) { s.Draws++ })
	}
	require.Equal(t, 2, stats.Len())
	_, ok := stats.Get("a")
	require.False(t, ok, "least recently used account is evicted")

	history := NewMemoryHistory(StoreConfig{Capacity: 1, PerAccountCap: 3})
	for i := 0; i < 5; i++ {
		history.Append("a", HistoryEntry{ItemID: string(rune('0' + i))})
	}
	list := history.List("a")
	require.Len(t, list, 3)
	require.Equal(t, "2", list[0].ItemID)
	require.Equal(t, "4", list[2].ItemID)

	require.True(t, history.Append("b", HistoryEntry{ItemID: "x"}))
	require.Equal(t, 1, history.Len())
	require.Empty(t, history.List("a"))
}

func TestStoresExpire(t *testing.T) {
	stats := NewMemoryStats(StoreConfig{TTL: 20 * time.Millisecond})
	stats.Update("a", "", func(s *Stats) { s.Draws++ })
	require.Eventually(t, func() bool {
		_, ok := stats.Get("a")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterSkipsNil(t *testing.T) {
	bus := event.NewBus(nil, nil)
	Register(bus, nil, NewHistoryHandler(NewMemoryHistory(StoreConfig{})), nil)
	require.Zero(t, bus.SubscriberCount(event.KindDrawExecuted))
	require.Equal(t, 1, bus.SubscriberCount(event.KindRewardGranted))
}
