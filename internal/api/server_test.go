package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"dlrouter/internal/logging"
	"dlrouter/internal/pending"
	"dlrouter/internal/router"
	"dlrouter/internal/settings"
)

type fakeEngine struct {
	mu     sync.Mutex
	issued []string
}

func (f *fakeEngine) Issue(ctx context.Context, url, relPath, routedBy string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, relPath)
	return "h1", nil
}
func (f *fakeEngine) Cancel(ctx context.Context, id string) error { return nil }
func (f *fakeEngine) Erase(ctx context.Context, id string) error  { return nil }

func testServer(t *testing.T) (*httptest.Server, *fakeEngine) {
	t.Helper()
	s := settings.Settings{
		Categories: []settings.Category{
			{ID: "c1", Name: "Video", Folder: "Video", Extensions: []string{".mp4"}},
		},
		DefaultFolder: "Downloads",
	}
	eng := &fakeEngine{}
	store := settings.NewMemStore(s)
	log := logging.New("error", false)
	rt := router.New(store, eng, pending.NewRegistry(nil), log, nil)
	srv := New(rt, log, store.Load())
	rt.SetChangeHook(srv.UpdateMenu)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, eng
}

func postJSON(t *testing.T, url string, body any, out any) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}

func TestMessageGetSettings(t *testing.T) {
	ts, _ := testServer(t)
	var resp router.Response
	postJSON(t, ts.URL+"/message", router.Request{Action: "getSettings"}, &resp)
	if !resp.OK || resp.Settings == nil || resp.Settings.DefaultFolder != "Downloads" {
		t.Fatalf("resp %+v", resp)
	}
}

func TestDownloadCreatedEvent(t *testing.T) {
	ts, eng := testServer(t)
	var res struct {
		router.Decision
		Error string `json:"error"`
	}
	postJSON(t, ts.URL+"/events/download-created", router.DownloadEvent{
		ID: "b1", URL: "https://x/y/movie.mp4",
	}, &res)
	if res.Action != router.ActionRedirected || res.Error != "" {
		t.Fatalf("result %+v", res)
	}
	if len(eng.issued) != 1 || eng.issued[0] != "Video/movie.mp4" {
		t.Fatalf("issued %v", eng.issued)
	}

	postJSON(t, ts.URL+"/events/download-created", router.DownloadEvent{
		ID: "b2", URL: "https://x/y/doc.pdf",
	}, &res)
	if res.Action != router.ActionPassthrough {
		t.Fatalf("result %+v", res)
	}
}

func TestMenuTracksSettings(t *testing.T) {
	ts, _ := testServer(t)

	get := func() []router.MenuItem {
		resp, err := http.Get(ts.URL + "/menu")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var items []router.MenuItem
		if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
			t.Fatal(err)
		}
		return items
	}

	if n := len(get()); n != 5 {
		t.Fatalf("initial menu has %d items", n)
	}

	var resp router.Response
	postJSON(t, ts.URL+"/message", router.Request{
		Action:   "saveCategory",
		Category: &settings.Category{ID: "c2", Name: "Music", Folder: "Music"},
	}, &resp)
	if !resp.OK {
		t.Fatalf("resp %+v", resp)
	}
	if n := len(get()); n != 6 {
		t.Fatalf("menu not rebuilt, %d items", n)
	}
}

func TestMessageRejectsBadBody(t *testing.T) {
	ts, _ := testServer(t)
	resp, err := http.Post(ts.URL+"/message", "application/json", bytes.NewReader([]byte("{")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestMethodGuards(t *testing.T) {
	ts, _ := testServer(t)
	resp, err := http.Get(ts.URL + "/message")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
