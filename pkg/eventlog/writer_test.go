package eventlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memberAdded struct {
	UserID string `json:"user_id"`
}

func TestWriteStoresEventUnderTypeAndGuild(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, nil)
	w.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, w.Write("guild/../1", &memberAdded{UserID: "42"}))

	matches, err := filepath.Glob(filepath.Join(dir, "memberAdded", "guild_.._1", "20261015T120000Z-*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	raw, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Equal(t, "memberAdded", rec["event_type"])
	assert.Equal(t, "guild/../1", rec["guild_id"])
	assert.Equal(t, map[string]any{"user_id": "42"}, rec["payload"])
}

func TestNilWriterIsDisabled(t *testing.T) {
	w := NewWriter("  ", nil)
	assert.False(t, w.Enabled())
	assert.NoError(t, w.Write("g", struct{}{}))
	w.Journal("g", struct{}{})
}
