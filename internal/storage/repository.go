package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vegledger/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.SnapshotStore = (*SQLiteRepository)(nil)

const (
	selectSnapshot = `SELECT payload FROM snapshots WHERE slot = ?`
	upsertSnapshot = `INSERT INTO snapshots (slot, payload, version, updated_at)
VALUES (?, ?, 1, ?)
ON CONFLICT(slot) DO UPDATE SET
    payload = excluded.payload,
    version = snapshots.version + 1,
    updated_at = excluded.updated_at`
	selectSnapshotInfo = `SELECT version, updated_at FROM snapshots WHERE slot = ?`
)

// SQLiteRepository persists slot snapshots in a single SQLite table.
type SQLiteRepository struct {
	db *sql.DB
}

// SnapshotInfo describes the last write of a slot.
type SnapshotInfo struct {
	Slot      string
	Version   int64
	UpdatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// The web process and the export worker share the file.
	dsn := dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateUp(dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Snapshot schema ready", "db_path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements store.SnapshotStore
func (r *SQLiteRepository) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, selectSnapshot, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select snapshot %s: %w", slot, err)
	}
	return []byte(payload), true, nil
}

// Save implements store.SnapshotStore
func (r *SQLiteRepository) Save(ctx context.Context, slot string, payload []byte) error {
	if _, err := r.db.ExecContext(ctx, upsertSnapshot, slot, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", slot, err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"slot", slot,
		"bytes", len(payload))

	return nil
}

// Info returns version metadata for slot.
func (r *SQLiteRepository) Info(ctx context.Context, slot string) (SnapshotInfo, error) {
	info := SnapshotInfo{Slot: slot}
	err := r.db.QueryRowContext(ctx, selectSnapshotInfo, slot).Scan(&info.Version, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("select snapshot info %s: %w", slot, err)
	}
	return info, nil
}
