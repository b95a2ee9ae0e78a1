// Package engine issues downloads decided by the router. Each issued download
// gets an opaque handle; transfers run in the background and land in
// download_root under the relative path the router resolved, uniquified so an
// existing file is never overwritten.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"dlrouter/internal/config"
	"dlrouter/internal/logging"
	"dlrouter/internal/state"
	"dlrouter/internal/util"
)

type Engine struct {
	cfg    *config.Config
	log    *logging.Logger
	st     *state.DB
	client *http.Client

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
	dest   string
	err    error
}

func New(cfg *config.Config, log *logging.Logger, st *state.DB) *Engine {
	timeout := time.Duration(cfg.Network.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Engine{
		cfg:    cfg,
		log:    log,
		st:     st,
		client: &http.Client{Timeout: timeout},
		jobs:   make(map[string]*job),
	}
}

// Issue starts a download of rawURL into download_root/relPath and returns a
// handle. The destination is uniquified against existing files. The transfer
// itself runs in the background; callers that need the outcome use Wait.
func (e *Engine) Issue(ctx context.Context, rawURL, relPath, routedBy string) (string, error) {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme: %s", u.Scheme)
	}
	full := filepath.Join(e.cfg.General.DownloadRoot, filepath.FromSlash(relPath))
	dir, base := filepath.Dir(full), filepath.Base(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest, err := util.UniquePath(dir, base)
	if err != nil {
		return "", err
	}

	handle := uuid.NewString()
	if err := e.st.UpsertDownload(state.DownloadRow{
		Handle: handle, URL: rawURL, Dest: dest, Status: state.StatusPending, RoutedBy: routedBy,
	}); err != nil {
		return "", err
	}

	// The transfer outlives the caller's request context.
	dctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel, done: make(chan struct{}), dest: dest}
	e.mu.Lock()
	e.jobs[handle] = j
	e.mu.Unlock()

	e.log.Infof("issuing download %s -> %s", logging.SanitizeURL(rawURL), dest)
	go e.fetch(dctx, handle, rawURL, j)
	return handle, nil
}

func (e *Engine) fetch(ctx context.Context, handle, rawURL string, j *job) {
	defer close(j.done)
	_ = e.st.SetStatus(handle, state.StatusActive, 0, "")

	err := e.transfer(ctx, rawURL, j.dest)
	switch {
	case err == nil:
		size := int64(0)
		if fi, serr := os.Stat(j.dest); serr == nil {
			size = fi.Size()
		}
		_ = e.st.SetStatus(handle, state.StatusComplete, size, "")
		e.log.Infof("download complete: %s", j.dest)
	case errors.Is(err, context.Canceled):
		j.err = err
		_ = e.st.SetStatus(handle, state.StatusCanceled, 0, "")
		e.log.Infof("download canceled: %s", j.dest)
	default:
		j.err = err
		_ = e.st.SetStatus(handle, state.StatusError, 0, err.Error())
		e.log.Errorf("download failed: %s: %v", logging.SanitizeURL(rawURL), err)
	}
}

func (e *Engine) transfer(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if e.cfg.Network.UserAgent != "" {
		req.Header.Set("User-Agent", e.cfg.Network.UserAgent)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	part := dest + ".part"
	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(part)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(part)
		return err
	}
	return os.Rename(part, dest)
}

// Cancel aborts an in-flight download. Unknown handles are a no-op.
func (e *Engine) Cancel(ctx context.Context, handle string) error {
	e.mu.Lock()
	j, ok := e.jobs[handle]
	e.mu.Unlock()
	if !ok {
		e.log.Debugf("cancel: unknown handle %s", handle)
		return nil
	}
	j.cancel()
	select {
	case <-j.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Erase cancels the download if still running and drops its history row.
// Partial files already on disk are left to the transfer's own cleanup.
func (e *Engine) Erase(ctx context.Context, handle string) error {
	if err := e.Cancel(ctx, handle); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.jobs, handle)
	e.mu.Unlock()
	return e.st.DeleteDownload(handle)
}

// Wait blocks until the transfer behind handle finishes and returns the final
// destination path and the transfer error, if any.
func (e *Engine) Wait(handle string) (string, error) {
	e.mu.Lock()
	j, ok := e.jobs[handle]
	e.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown handle: %s", handle)
	}
	<-j.done
	return j.dest, j.err
}
