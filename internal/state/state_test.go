package state

import (
	"database/sql"
	"errors"
	"testing"

	"dlrouter/internal/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.Config{Version: 1}
	cfg.General.DataRoot = t.TempDir()
	cfg.General.DownloadRoot = t.TempDir()
	db, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertAndGet(t *testing.T) {
	db := openTestDB(t)
	row := DownloadRow{Handle: "h1", URL: "https://x/a.bin", Dest: "/dl/a.bin", Status: StatusPending, RoutedBy: "auto"}
	if err := db.UpsertDownload(row); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetDownload("h1")
	if err != nil {
		t.Fatal(err)
	}
	if got.URL != row.URL || got.Status != StatusPending || got.RoutedBy != "auto" {
		t.Fatalf("got %+v", got)
	}

	if err := db.SetStatus("h1", StatusComplete, 1234, ""); err != nil {
		t.Fatal(err)
	}
	got, err = db.GetDownload("h1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusComplete || got.Size != 1234 {
		t.Fatalf("got %+v", got)
	}
}

func TestListAndDelete(t *testing.T) {
	db := openTestDB(t)
	for _, h := range []string{"a", "b"} {
		if err := db.UpsertDownload(DownloadRow{Handle: h, URL: "u", Dest: "d", Status: StatusActive}); err != nil {
			t.Fatal(err)
		}
	}
	rows, err := db.ListDownloads()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if err := db.DeleteDownload("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetDownload("a"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	// Deleting an unknown handle is a no-op.
	if err := db.DeleteDownload("nope"); err != nil {
		t.Fatal(err)
	}
}
