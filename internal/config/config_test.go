package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := ParseFrom(map[string]string{})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, "default", cfg.Game)
	require.Equal(t, 24*time.Hour, cfg.StatsTTL)
	require.Equal(t, 24*time.Hour, cfg.HistoryTTL)
	require.EqualValues(t, 2000, cfg.StartBalance)
	require.Equal(t, 5*time.Second, cfg.WatchInterval)
	require.Zero(t, cfg.Seed)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := ParseFrom(map[string]string{
		"LOOTDRAW_ADDR":          ":9090",
		"LOOTDRAW_POOL":          "limited",
		"LOOTDRAW_STATS_TTL":     "1m",
		"LOOTDRAW_HISTORY_TTL":   "2h",
		"LOOTDRAW_START_BALANCE": "50",
		"LOOTDRAW_LOG_FORMAT":    "json",
		"LOOTDRAW_SEED":          "42",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, "limited", cfg.Pool)
	require.Equal(t, time.Minute, cfg.StatsTTL)
	require.Equal(t, 2*time.Hour, cfg.HistoryTTL)
	require.EqualValues(t, 50, cfg.StartBalance)
	require.Equal(t, "json", cfg.LogFormat)
	require.EqualValues(t, 42, cfg.Seed)
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := ParseFrom(map[string]string{"LOOTDRAW_START_BALANCE": "-1"})
	require.ErrorContains(t, err, "START_BALANCE")

	_, err = ParseFrom(map[string]string{"LOOTDRAW_LOG_FORMAT": "xml"})
	require.ErrorContains(t, err, "LOG_FORMAT")

	_, err = ParseFrom(map[string]string{"LOOTDRAW_STATS_TTL": "soon"})
	require.ErrorContains(t, err, "parse env")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", "json", &buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	NewLogger("debug", "text", &buf).Debug("dbg")
	require.Contains(t, buf.String(), "msg=dbg")
}
