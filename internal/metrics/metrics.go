package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dlrouter/internal/config"
)

// Manager writes router counters in Prometheus textfile format. A nil Manager
// is valid and turns every method into a no-op, so callers never need to
// check whether metrics are enabled.
type Manager struct {
	path string
	mu   sync.Mutex

	intercepted    int64
	passthrough    int64
	pendingCreated int64
	pendingExpired int64
	issued         int64
	issueFailures  int64
}

func New(cfg *config.Config) *Manager {
	if cfg == nil || !cfg.Metrics.PrometheusTextfile.Enabled || cfg.Metrics.PrometheusTextfile.Path == "" {
		return nil
	}
	p := cfg.Metrics.PrometheusTextfile.Path
	_ = os.MkdirAll(filepath.Dir(p), 0o755)
	return &Manager{path: p}
}

func (m *Manager) IncIntercepted() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.intercepted++
	m.mu.Unlock()
}

func (m *Manager) IncPassthrough() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.passthrough++
	m.mu.Unlock()
}

func (m *Manager) IncPendingCreated() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.pendingCreated++
	m.mu.Unlock()
}

func (m *Manager) AddPendingExpired(n int64) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	m.pendingExpired += n
	m.mu.Unlock()
}

func (m *Manager) IncIssued() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.issued++
	m.mu.Unlock()
}

func (m *Manager) IncIssueFailures() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.issueFailures++
	m.mu.Unlock()
}

func (m *Manager) Write() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, err := os.CreateTemp(filepath.Dir(m.path), ".metrics.tmp.*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	counter := func(name, help string, v int64) {
		fmt.Fprintf(f, "# HELP dlrouter_%s %s\n", name, help)
		fmt.Fprintf(f, "# TYPE dlrouter_%s counter\n", name)
		fmt.Fprintf(f, "dlrouter_%s %d\n", name, v)
	}
	counter("intercepted_total", "Downloads auto-intercepted and reissued.", m.intercepted)
	counter("passthrough_total", "Observed downloads left alone.", m.passthrough)
	counter("pending_created_total", "Pending selections created.", m.pendingCreated)
	counter("pending_expired_total", "Pending selections reaped by the sweep.", m.pendingExpired)
	counter("downloads_issued_total", "Downloads issued by the router.", m.issued)
	counter("issue_failures_total", "Download issuance failures.", m.issueFailures)

	fmt.Fprintf(f, "# HELP dlrouter_metrics_timestamp_seconds UNIX timestamp when this file was written.\n")
	fmt.Fprintf(f, "# TYPE dlrouter_metrics_timestamp_seconds gauge\n")
	fmt.Fprintf(f, "dlrouter_metrics_timestamp_seconds %d\n", time.Now().Unix())

	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), m.path)
}
