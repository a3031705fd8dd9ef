package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xtding233/lootdraw/internal/account"
	"github.com/xtding233/lootdraw/internal/config"
	"github.com/xtding233/lootdraw/internal/draw"
	"github.com/xtding233/lootdraw/internal/event"
	"github.com/xtding233/lootdraw/internal/gacha"
	"github.com/xtding233/lootdraw/internal/game"
	"github.com/xtding233/lootdraw/internal/subscriber"
)

type accountResp struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Balance int64    `json:"balance"`
	Owned   []string `json:"owned"`
	Pending int      `json:"pending_events"`
}

type drawResp struct {
	Rewards  []draw.Reward `json:"rewards"`
	Cost     int64         `json:"cost"`
	Balance  int64         `json:"balance"`
	Delivery string        `json:"delivery_err,omitempty"`
}

type server struct {
	cfg     config.Config
	logger  *slog.Logger
	svc     *draw.Service
	bus     *event.Bus
	stats   *subscriber.MemoryStats
	history *subscriber.MemoryHistory

	mu       sync.RWMutex
	accounts map[string]*account.Account
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt64(r *http.Request, key string) (int64, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func (s *server) lookup(id string) (*account.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	return a, ok
}

func toAccountResp(a *account.Account) accountResp {
	return accountResp{
		ID:      a.ID(),
		Name:    a.Name(),
		Balance: a.Balance(),
		Owned:   a.OwnedItems(),
		Pending: len(a.PendingEvents()),
	}
}

// POST /accounts?id=&name=&balance=
func (s *server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	balance, ok, msg := parseInt64(r, "balance")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !ok {
		balance = s.cfg.StartBalance
	}
	a, err := account.New(q.Get("id"), q.Get("name"), balance)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[a.ID()]; exists {
		s.mu.Unlock()
		http.Error(w, "account already exists", http.StatusConflict)
		return
	}
	s.accounts[a.ID()] = a
	s.mu.Unlock()

	s.logger.Info("account created", "account", a.ID(), "balance", balance)
	writeJSON(w, http.StatusCreated, toAccountResp(a))
}

// GET /accounts/{id}
func (s *server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResp(a))
}

// POST /draw?account=&mode=single|ten
func (s *server) handleDraw(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(r.URL.Query().Get("account"))
	if !ok {
		http.Error(w, "missing/unknown param account", http.StatusNotFound)
		return
	}
	mode := draw.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = draw.ModeSingle
	}

	out, err := s.svc.Draw(r.Context(), a, mode)
	var aerr *draw.AffordabilityError
	switch {
	case errors.As(err, &aerr):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
		return
	case errors.Is(err, draw.ErrUnknownMode):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := drawResp{Rewards: out.Rewards, Cost: out.Cost, Balance: a.Balance()}
	if out.Delivery != nil {
		resp.Delivery = out.Delivery.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /accounts/{id}/redeliver retries events left queued by a failed dispatch.
func (s *server) handleRedeliver(w http.ResponseWriter, r *http.Request) {
	a, ok := s.lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := s.bus.DispatchEntityEvents(r.Context(), a); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResp(a))
}

// GET /accounts/{id}/stats
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, ok := s.stats.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GET /accounts/{id}/history
func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.history.List(r.PathValue("id")))
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	var rng gacha.RandomSource
	if cfg.Seed != 0 {
		rng = gacha.NewSeededRNG(cfg.Seed)
	}
	loader := game.NewLoader(cfg.ConfigDir)
	resolved, err := loader.Resolve(cfg.Game, cfg.Pool, rng)
	if err != nil {
		logger.Error("load catalog", "game", cfg.Game, "pool", cfg.Pool, "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	metrics, err := event.NewMetrics(reg)
	if err != nil {
		logger.Error("register metrics", "err", err)
		os.Exit(1)
	}
	bus := event.NewBus(logger, metrics)

	stats := subscriber.NewMemoryStats(subscriber.StoreConfig{Capacity: cfg.StatsCapacity, TTL: cfg.StatsTTL})
	history := subscriber.NewMemoryHistory(subscriber.StoreConfig{
		Capacity:      cfg.HistoryCapacity,
		TTL:           cfg.HistoryTTL,
		PerAccountCap: cfg.HistoryPerUser,
	})
	subscriber.Register(bus,
		subscriber.NewStatsHandler(stats),
		subscriber.NewHistoryHandler(history),
		subscriber.NewLogHandler(logger.With("component", "events")),
	)

	svc := draw.NewService(draw.Catalog{Pool: resolved.Pool, Token: resolved.Token, Version: resolved.Version}, bus, logger)

	if cfg.WatchInterval > 0 {
		w := game.WatchCatalog(loader, cfg.Game, cfg.Pool, cfg.WatchInterval, func() {
			next, err := loader.Resolve(cfg.Game, cfg.Pool, rng)
			if err != nil {
				logger.Warn("catalog reload rejected, keeping previous", "err", err)
				return
			}
			svc.SetCatalog(draw.Catalog{Pool: next.Pool, Token: next.Token, Version: next.Version})
			logger.Info("catalog reloaded", "version", next.Version)
		})
		defer w.Stop()
	}

	s := &server{
		cfg:      cfg,
		logger:   logger,
		svc:      svc,
		bus:      bus,
		stats:    stats,
		history:  history,
		accounts: make(map[string]*account.Account),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("POST /accounts/{id}/redeliver", s.handleRedeliver)
	mux.HandleFunc("GET /accounts/{id}/stats", s.handleStats)
	mux.HandleFunc("GET /accounts/{id}/history", s.handleHistory)
	mux.HandleFunc("POST /draw", s.handleDraw)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.Addr, "game", cfg.Game, "pool", cfg.Pool, "catalog_version", resolved.Version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve", "err", err)
		os.Exit(1)
	}
}
