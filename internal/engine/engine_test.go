package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dlrouter/internal/config"
	"dlrouter/internal/logging"
	"dlrouter/internal/state"
)

func testEngine(t *testing.T) (*Engine, *state.DB, string) {
	t.Helper()
	cfg := &config.Config{Version: 1}
	cfg.General.DataRoot = t.TempDir()
	cfg.General.DownloadRoot = t.TempDir()
	st, err := state.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(cfg, logging.New("error", false), st), st, cfg.General.DownloadRoot
}

func TestIssueDownloadsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	e, st, root := testEngine(t)
	h, err := e.Issue(context.Background(), srv.URL+"/movie.mp4", "Video/movie.mp4", "auto")
	if err != nil {
		t.Fatal(err)
	}
	dest, err := e.Wait(h)
	if err != nil {
		t.Fatal(err)
	}
	if dest != filepath.Join(root, "Video", "movie.mp4") {
		t.Fatalf("dest %s", dest)
	}
	b, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload" {
		t.Fatalf("content %q", b)
	}
	row, err := st.GetDownload(h)
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != state.StatusComplete || row.Size != int64(len("payload")) {
		t.Fatalf("row %+v", row)
	}
}

func TestIssueUniquifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	e, _, root := testEngine(t)
	if err := os.MkdirAll(filepath.Join(root, "Video"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "Video", "movie.mp4"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := e.Issue(context.Background(), srv.URL+"/movie.mp4", "Video/movie.mp4", "auto")
	if err != nil {
		t.Fatal(err)
	}
	dest, err := e.Wait(h)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dest) != "movie (2).mp4" {
		t.Fatalf("dest %s", dest)
	}
	// The existing file is untouched.
	b, _ := os.ReadFile(filepath.Join(root, "Video", "movie.mp4"))
	if string(b) != "old" {
		t.Fatalf("original overwritten: %q", b)
	}
}

func TestIssueRejectsScheme(t *testing.T) {
	e, _, _ := testEngine(t)
	for _, u := range []string{"data:text/plain;base64,aGk=", "blob:abc", "ftp://x/y"} {
		if _, err := e.Issue(context.Background(), u, "f", "auto"); err == nil {
			t.Fatalf("expected scheme error for %s", u)
		}
	}
}

func TestIssueFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	e, st, _ := testEngine(t)
	h, err := e.Issue(context.Background(), srv.URL+"/x.bin", "x.bin", "default")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Wait(h); err == nil || !strings.Contains(err.Error(), "unexpected status") {
		t.Fatalf("expected status error, got %v", err)
	}
	row, err := st.GetDownload(h)
	if err != nil {
		t.Fatal(err)
	}
	if row.Status != state.StatusError {
		t.Fatalf("row %+v", row)
	}
}

func TestCancelUnknownHandle(t *testing.T) {
	e, _, _ := testEngine(t)
	if err := e.Cancel(context.Background(), "nope"); err != nil {
		t.Fatal(err)
	}
}

func TestEraseRemovesHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	e, st, _ := testEngine(t)
	h, err := e.Issue(context.Background(), srv.URL+"/a.bin", "a.bin", "auto")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Wait(h); err != nil {
		t.Fatal(err)
	}
	if err := e.Erase(context.Background(), h); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetDownload(h); err == nil {
		t.Fatal("history row survived erase")
	}
}
