package game

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xtding233/lootdraw/internal/gacha"
)

const defaultYAML = `
version: "1"
tokens:
  name: Gem
  per_draw: 100
  per_ten_draw: 900
catalog:
  - {id: n1, name: Slime, tier: N, weight: 25}
  - {id: n2, name: Bat, tier: N, weight: 25}
  - {id: r1, name: Wolf, tier: R, weight: 15}
  - {id: r2, name: Golem, tier: R, weight: 15}
  - {id: sr1, name: Knight, tier: SR, weight: 8}
  - {id: sr2, name: Mage, tier: SR, weight: 7}
  - {id: ssr1, name: Dragon, tier: SSR, weight: 4}
  - {id: ur1, name: Phoenix, tier: UR, weight: 1, description: reborn in flame}
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestResolveDefault(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	writeFile(t, l.Paths().DefaultPath(), defaultYAML)

	res, err := l.Resolve("default", "", gacha.NewSeededRNG(1))
	require.NoError(t, err)
	require.Equal(t, "1", res.Version)
	require.Equal(t, "Gem", res.Token.Name)
	require.EqualValues(t, 900, res.Token.Cost(10))
	require.InDelta(t, 100, res.Pool.TotalWeight(), 1e-9)

	ur, ok := res.Pool.Lookup("ur1")
	require.True(t, ok)
	require.Equal(t, gacha.TierUR, ur.Tier)
	require.Equal(t, "reborn in flame", ur.Description)
}

func TestMergeOrder(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	p := l.Paths()
	writeFile(t, p.DefaultPath(), defaultYAML)
	writeFile(t, p.GamePath("star"), `
version: "2"
tokens:
  per_draw: 160
`)
	writeFile(t, p.PoolPath("star", "limited"), `
notes: limited banner
catalog:
  - {id: ur9, name: Comet, tier: UR, weight: 3}
  - {id: n9, name: Pebble, tier: N, weight: 97}
`)

	raw, err := l.LoadMerged("star", "")
	require.NoError(t, err)
	require.Equal(t, "2", raw.Version)
	require.Equal(t, 160, *raw.Tokens.PerDraw)
	require.Equal(t, 900, *raw.Tokens.PerTenDraw, "unset fields keep the lower layer")
	require.Equal(t, "Gem", raw.Tokens.Name)
	require.Len(t, raw.Catalog, 8)

	raw, err = l.LoadMerged("star", "limited")
	require.NoError(t, err)
	require.Equal(t, "limited banner", raw.Notes)
	require.Len(t, raw.Catalog, 2)
	require.Equal(t, "ur9", raw.Catalog[0].ID)

	res, err := l.Resolve("star", "limited", nil)
	require.NoError(t, err)
	require.InDelta(t, 0.03, res.Pool.Probability("ur9"), 1e-9)
}

func TestLoadMissingDefaultIsEmpty(t *testing.T) {
	l := NewLoader(t.TempDir())
	raw, err := l.LoadMerged("none", "")
	require.NoError(t, err)
	require.Empty(t, raw.Catalog)

	_, err = l.Resolve("none", "", nil)
	require.ErrorContains(t, err, "catalog must contain at least one entry")
}

func TestLoadBadYAML(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	writeFile(t, l.Paths().DefaultPath(), "catalog: [unterminated")
	_, err := l.LoadMerged("default", "")
	require.ErrorContains(t, err, "read default")
}

func TestCacheAndInvalidate(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	writeFile(t, l.Paths().DefaultPath(), defaultYAML)

	raw, err := l.LoadMerged("default", "")
	require.NoError(t, err)
	require.Equal(t, "1", raw.Version)

	writeFile(t, l.Paths().DefaultPath(), "version: \"3\"\n")
	raw, err = l.LoadMerged("default", "")
	require.NoError(t, err)
	require.Equal(t, "1", raw.Version, "served from cache")

	l.Invalidate()
	raw, err = l.LoadMerged("default", "")
	require.NoError(t, err)
	require.Equal(t, "3", raw.Version)
}

func TestWatchCatalogReloads(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir)
	path := l.Paths().DefaultPath()
	writeFile(t, path, defaultYAML)

	var reloads atomic.Int32
	w := WatchCatalog(l, "default", "", 10*time.Millisecond, func() { reloads.Add(1) })
	defer w.Stop()

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	w.Stop()
}

func TestWatcherSeesNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.yaml")
	changed := make(chan string, 1)
	w := NewFileWatcher([]string{path}, 10*time.Millisecond, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	writeFile(t, path, "version: \"1\"\n")
	select {
	case p := <-changed:
		require.Equal(t, path, p)
	case <-time.After(2 * time.Second):
		t.Fatal("new file not reported")
	}
}
