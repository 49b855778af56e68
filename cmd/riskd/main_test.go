package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/safe-route/internal/config"
	"github.com/ukydev/safe-route/internal/db"
)

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "accidents.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Severity,Start_Lat,Start_Lng\n3,28.6,77.2\n"), 0o600))

	t.Run("csv", func(t *testing.T) {
		store, closeStore, err := openStore(context.Background(), config.Risk{AccidentSource: config.SourceCSV, AccidentCSV: csvPath})
		require.NoError(t, err)
		defer closeStore()
		accidents, err := store.LoadAccidents(context.Background())
		require.NoError(t, err)
		assert.Len(t, accidents, 1)
	})

	t.Run("sqlite seeded from csv", func(t *testing.T) {
		cfg := config.Risk{AccidentSource: config.SourceSQLite, SQLitePath: filepath.Join(dir, "accidents.db")}
		store, closeStore, err := openStore(context.Background(), cfg)
		require.NoError(t, err)
		defer closeStore()

		writer, ok := store.(db.AccidentWriter)
		require.True(t, ok)
		n, err := db.Seed(context.Background(), &db.CSVStore{Path: csvPath}, writer)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, _, err := openStore(context.Background(), config.Risk{AccidentSource: "parquet"})
		assert.Error(t, err)
	})
}
