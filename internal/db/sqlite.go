package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ukydev/safe-route/internal/models"
	_ "modernc.org/sqlite"
)

const accidentSchema = `
CREATE TABLE IF NOT EXISTS accidents (
	id        TEXT,
	start_lat REAL NOT NULL,
	start_lng REAL NOT NULL,
	severity  INTEGER NOT NULL
)`

// SQLiteAccidentStore keeps accident samples in a SQLite database.
type SQLiteAccidentStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteAccidentStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", accidentSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite %s: %w", path, err)
		}
	}
	return &SQLiteAccidentStore{db: db}, nil
}

func (s *SQLiteAccidentStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteAccidentStore) LoadAccidents(ctx context.Context) ([]models.Accident, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(id, ''), start_lat, start_lng, severity FROM accidents ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query accidents: %w", err)
	}
	defer rows.Close()

	var accidents []models.Accident
	for rows.Next() {
		var a models.Accident
		if err := rows.Scan(&a.ID, &a.Lat, &a.Lon, &a.Severity); err != nil {
			return nil, fmt.Errorf("scan accident: %w", err)
		}
		accidents = append(accidents, a)
	}
	return accidents, rows.Err()
}

// InsertAccidents inserts samples in a single transaction.
func (s *SQLiteAccidentStore) InsertAccidents(ctx context.Context, accidents []models.Accident) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO accidents (id, start_lat, start_lng, severity) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range accidents {
		if _, err := stmt.ExecContext(ctx, a.ID, a.Lat, a.Lon, a.Severity); err != nil {
			return fmt.Errorf("insert accident: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteAccidentStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM accidents`)
	return err
}
