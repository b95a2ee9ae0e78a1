package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/sqlite"

	"dlrouter/internal/config"
)

// DB records every download the router issued, plus interceptions it made.
// It is the daemon's download history.
type DB struct {
	SQL  *sql.DB
	Path string
}

func Open(cfg *config.Config) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if cfg.General.DataRoot == "" {
		return nil, errors.New("general.data_root required")
	}
	if err := os.MkdirAll(cfg.General.DataRoot, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.General.DataRoot, "state.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := initSchema(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &DB{SQL: sqldb, Path: path}, nil
}

func (db *DB) Close() error { return db.SQL.Close() }

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		handle TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		dest TEXT NOT NULL,
		size INTEGER DEFAULT 0,
		status TEXT,
		routed_by TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		last_error TEXT
	);`)
	return err
}

// Download statuses.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusComplete = "complete"
	StatusCanceled = "canceled"
	StatusError    = "error"
)

type DownloadRow struct {
	Handle    string
	URL       string
	Dest      string
	Size      int64
	Status    string
	RoutedBy  string
	UpdatedAt int64
	LastError string
}

func (db *DB) UpsertDownload(row DownloadRow) error {
	now := time.Now().Unix()
	_, err := db.SQL.Exec(`INSERT INTO downloads(handle, url, dest, size, status, routed_by, last_error, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)
		ON CONFLICT(handle) DO UPDATE SET url=excluded.url, dest=excluded.dest, size=excluded.size,
			status=excluded.status, routed_by=excluded.routed_by, last_error=excluded.last_error, updated_at=?`,
		row.Handle, row.URL, row.Dest, row.Size, row.Status, row.RoutedBy, row.LastError, now, now, now)
	return err
}

// SetStatus updates status, size, and last error for a handle.
func (db *DB) SetStatus(handle, status string, size int64, lastError string) error {
	_, err := db.SQL.Exec(`UPDATE downloads SET status=?, size=?, last_error=?, updated_at=strftime('%s','now') WHERE handle=?`,
		status, size, lastError, handle)
	return err
}

// DeleteDownload removes the history row for a handle. Unknown handles are a
// no-op, matching erase semantics elsewhere in the router.
func (db *DB) DeleteDownload(handle string) error {
	_, err := db.SQL.Exec(`DELETE FROM downloads WHERE handle=?`, handle)
	return err
}

// GetDownload returns the row for a handle.
func (db *DB) GetDownload(handle string) (DownloadRow, error) {
	var r DownloadRow
	err := db.SQL.QueryRow(`SELECT handle, url, dest, COALESCE(size,0), COALESCE(status,''),
		COALESCE(routed_by,''), updated_at, COALESCE(last_error,'')
		FROM downloads WHERE handle=?`, handle).
		Scan(&r.Handle, &r.URL, &r.Dest, &r.Size, &r.Status, &r.RoutedBy, &r.UpdatedAt, &r.LastError)
	return r, err
}

// ListDownloads returns a snapshot of the history, most recent first.
func (db *DB) ListDownloads() ([]DownloadRow, error) {
	rows, err := db.SQL.Query(`SELECT handle, url, dest, COALESCE(size,0), COALESCE(status,''),
		COALESCE(routed_by,''), updated_at, COALESCE(last_error,'')
		FROM downloads ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DownloadRow
	for rows.Next() {
		var r DownloadRow
		if err := rows.Scan(&r.Handle, &r.URL, &r.Dest, &r.Size, &r.Status, &r.RoutedBy, &r.UpdatedAt, &r.LastError); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
