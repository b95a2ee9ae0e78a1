package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dlrouter/internal/config"
)

func TestNilManagerIsNoop(t *testing.T) {
	var m *Manager
	m.IncIntercepted()
	m.IncPassthrough()
	m.AddPendingExpired(3)
	if err := m.Write(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteTextfile(t *testing.T) {
	cfg := &config.Config{Version: 1}
	cfg.Metrics.PrometheusTextfile.Enabled = true
	cfg.Metrics.PrometheusTextfile.Path = filepath.Join(t.TempDir(), "dlrouter.prom")

	m := New(cfg)
	if m == nil {
		t.Fatal("manager not created")
	}
	m.IncIntercepted()
	m.IncIntercepted()
	m.IncIssued()
	m.AddPendingExpired(5)
	if err := m.Write(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(cfg.Metrics.PrometheusTextfile.Path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	for _, want := range []string{
		"dlrouter_intercepted_total 2",
		"dlrouter_downloads_issued_total 1",
		"dlrouter_pending_expired_total 5",
		"dlrouter_passthrough_total 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestDisabledConfigReturnsNil(t *testing.T) {
	cfg := &config.Config{Version: 1}
	if New(cfg) != nil {
		t.Fatal("expected nil manager when disabled")
	}
	if New(nil) != nil {
		t.Fatal("expected nil manager for nil config")
	}
}
