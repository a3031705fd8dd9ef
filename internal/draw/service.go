package draw

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/xtding233/lootdraw/internal/account"
	"github.com/xtding233/lootdraw/internal/event"
	"github.com/xtding233/lootdraw/internal/gacha"
	"github.com/xtding233/lootdraw/internal/token"
)

// Catalog is the pool and pricing a Service draws against.
type Catalog struct {
	Pool    gacha.Sampler
	Token   token.Token
	Version string
}

// Outcome of Service.Draw. The draw itself is committed even when Delivery
// is non-nil; undelivered events stay queued on the account.
type Outcome struct {
	Rewards  []Reward
	Cost     int64
	Mode     Mode
	Delivery error
}

// Service prices a mode, runs the transaction and then delivers the
// account's events through the bus.
type Service struct {
	catalog atomic.Pointer[Catalog]
	bus     *event.Bus
	logger  *slog.Logger
}

func NewService(c Catalog, bus *event.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{bus: bus, logger: logger}
	s.SetCatalog(c)
	return s
}

// SetCatalog swaps the catalog for subsequent draws, e.g. after a config reload.
func (s *Service) SetCatalog(c Catalog) {
	s.catalog.Store(&c)
}

func (s *Service) Catalog() Catalog {
	return *s.catalog.Load()
}

// Draw charges the mode's price, draws and dispatches the resulting events.
func (s *Service) Draw(ctx context.Context, acct *account.Account, mode Mode) (Outcome, error) {
	n, err := mode.Draws()
	if err != nil {
		return Outcome{}, err
	}
	c := s.Catalog()
	if c.Pool == nil {
		return Outcome{}, ErrNoCatalog
	}
	cost := c.Token.Cost(n)

	rewards, err := DrawMulti(acct, c.Pool, cost, n, mode)
	if err != nil {
		s.logger.Info("draw rejected", "account", acct.ID(), "mode", mode, "cost", cost, "err", err)
		return Outcome{}, err
	}
	s.logger.Info("draw executed", "account", acct.ID(), "mode", mode, "cost", cost,
		"rewards", len(rewards), "balance", acct.Balance(), "catalog_version", c.Version)

	out := Outcome{Rewards: rewards, Cost: cost, Mode: mode}
	if s.bus != nil {
		if derr := s.bus.DispatchEntityEvents(ctx, acct); derr != nil {
			s.logger.Warn("draw events not fully delivered", "account", acct.ID(), "err", derr)
			out.Delivery = derr
		}
	}
	return out, nil
}
