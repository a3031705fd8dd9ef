package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/lootdraw/internal/gacha"
	"github.com/xtding233/lootdraw/internal/token"
)

// Paths helper for default/game/pool files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/config
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "games", "default.yaml")
}
func (p Paths) GamePath(game string) string {
	return filepath.Join(p.BaseDir, "games", game+".yaml")
}
func (p Paths) PoolPath(game, pool string) string {
	return filepath.Join(p.BaseDir, "games", game, "pools", pool+".yaml")
}

// Files lists every file that contributes to (game, pool), in merge order.
func (p Paths) Files(game, pool string) []string {
	files := []string{p.DefaultPath(), p.GamePath(game)}
	if pool != "" {
		files = append(files, p.PoolPath(game, pool))
	}
	return files
}

// Loader reads YAML configs and merges default → game → pool.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawConfig // key: "game" or "game/pool"
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawConfig),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

func cacheKey(game, pool string) string {
	if pool == "" {
		return game
	}
	return game + "/" + pool
}

// LoadMerged loads and merges default → game → pool (pool optional).
// It returns the merged RawConfig without validation.
func (l *Loader) LoadMerged(game, pool string) (RawConfig, error) {
	key := cacheKey(game, pool)
	l.mu.RLock()
	if cfg, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read default: %w", err)
	}
	gameCfg, err := readYAML(l.paths.GamePath(game)) // game file may not exist
	if err != nil {
		return RawConfig{}, fmt.Errorf("read game %s: %w", game, err)
	}
	var poolCfg RawConfig
	if pool != "" {
		poolCfg, err = readYAML(l.paths.PoolPath(game, pool)) // pool file optional
		if err != nil {
			return RawConfig{}, fmt.Errorf("read pool %s/%s: %w", game, pool, err)
		}
	}

	// Merge: default <- game <- pool
	merged := mergeRaw(mergeRaw(defCfg, gameCfg), poolCfg)

	l.mu.Lock()
	l.cache[key] = merged
	l.mu.Unlock()

	return merged, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawConfig)
}

// Resolved is a validated, ready-to-draw catalog.
type Resolved struct {
	Pool    *gacha.RewardPool
	Token   token.Token
	Version string
}

// Resolve loads, validates and builds the pool for (game, pool).
// rng may be nil for the crypto default.
func (l *Loader) Resolve(game, pool string, rng gacha.RandomSource) (Resolved, error) {
	raw, err := l.LoadMerged(game, pool)
	if err != nil {
		return Resolved{}, err
	}
	if err := ValidateRaw(raw); err != nil {
		return Resolved{}, fmt.Errorf("%s: %w", cacheKey(game, pool), err)
	}

	entries := make([]gacha.CatalogEntry, 0, len(raw.Catalog))
	for _, e := range raw.Catalog {
		tier, err := gacha.ParseTier(e.Tier)
		if err != nil {
			return Resolved{}, err
		}
		entries = append(entries, gacha.CatalogEntry{
			ID:          e.ID,
			Name:        e.Name,
			Tier:        tier,
			Weight:      *e.Weight,
			Description: e.Description,
		})
	}
	rp, err := gacha.NewRewardPool(entries, rng)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Pool: rp, Token: toToken(raw.Tokens), Version: raw.Version}, nil
}

func toToken(c *TokenConfig) token.Token {
	var t token.Token
	if c == nil {
		return t
	}
	t.Name = c.Name
	if c.PerDraw != nil {
		t.PerDraw = *c.PerDraw
	}
	if c.PerTenDraw != nil {
		t.PerTenDraw = *c.PerTenDraw
	}
	if c.PerNDraw != nil {
		t.PerNDraw = *c.PerNDraw
	}
	if c.N != nil {
		t.N = *c.N
	}
	return t
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// mergeRaw overlays b onto a: b's non-zero scalars win, a non-empty catalog
// in b replaces a's catalog wholesale.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if len(b.Catalog) > 0 {
		out.Catalog = append([]EntryConfig(nil), b.Catalog...)
	}

	// tokens
	switch {
	case out.Tokens == nil && b.Tokens != nil:
		c := *b.Tokens
		out.Tokens = &c
	case out.Tokens != nil && b.Tokens != nil:
		c := *out.Tokens
		if b.Tokens.Name != "" {
			c.Name = b.Tokens.Name
		}
		if b.Tokens.PerDraw != nil {
			c.PerDraw = b.Tokens.PerDraw
		}
		if b.Tokens.PerTenDraw != nil {
			c.PerTenDraw = b.Tokens.PerTenDraw
		}
		if b.Tokens.PerNDraw != nil {
			c.PerNDraw = b.Tokens.PerNDraw
		}
		if b.Tokens.N != nil {
			c.N = b.Tokens.N
		}
		out.Tokens = &c
	}

	return out
}
