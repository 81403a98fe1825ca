package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetcharge/core/runlog"
)

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	rec := runlog.Record{
		Timestamp: base,
		RunID:     "r1",
		Mode:      "optimize",
		Vehicles:  4,
		Best:      "2xAC_22",
		Coverage:  0.75,
		Ranking:   []runlog.Entry{{Rank: 1, Label: "2xAC_22", Coverage: 0.75, CapitalCost: 6300}},
	}
	require.NoError(t, store.Append(context.Background(), rec))
	require.NoError(t, store.Append(context.Background(), runlog.Record{Timestamp: base.Add(time.Hour), RunID: "r2", Mode: "simulate"}))

	out, err := store.Query(context.Background(), runlog.Query{RunID: "r1"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 6300.0, out[0].Ranking[0].CapitalCost)
	assert.True(t, out[0].Timestamp.Equal(base))

	out, err = store.Query(context.Background(), runlog.Query{Start: base.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "r2", out[0].RunID)

	out, err = store.Query(context.Background(), runlog.Query{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(runlog.Config{})
	require.NoError(t, err)
	assert.IsType(t, runlog.NopStore{}, s)

	s, err = NewStore(runlog.Config{Backend: runlog.BackendJSONL, Path: filepath.Join(dir, "runs.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &runlog.JSONLStore{}, s)

	s, err = NewStore(runlog.Config{Backend: runlog.BackendSQLite, Path: filepath.Join(dir, "runs.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	_ = s.Close()

	_, err = NewStore(runlog.Config{Backend: "bogus"})
	assert.Error(t, err)
}
