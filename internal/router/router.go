// Package router decides what happens to every download the system sees: let
// it proceed, silently reissue it under a matched category's folder, or park
// it in the pending registry until a human picks a destination.
package router

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"dlrouter/internal/category"
	"dlrouter/internal/logging"
	"dlrouter/internal/metrics"
	"dlrouter/internal/pending"
	"dlrouter/internal/settings"
	"dlrouter/internal/util"
)

// Engine is the download-issuing collaborator. Issue resolves relPath under
// the download root with uniquify conflict handling and returns an opaque
// handle. Cancel and Erase act on previously observed or issued downloads;
// unknown ids are no-ops.
type Engine interface {
	Issue(ctx context.Context, url, relPath, routedBy string) (string, error)
	Cancel(ctx context.Context, id string) error
	Erase(ctx context.Context, id string) error
}

// SelectorNotifier is the interactive collaborator: it presents a pending
// selection to the user, who answers later via ResolveSelection or
// CancelSelection.
type SelectorNotifier interface {
	Present(requestID, filename string)
}

// ErrNotFound is returned when a pending selection id is unknown, expired,
// or already resolved.
var ErrNotFound = errors.New("download not found")

// DownloadEvent is one observation from the download feed.
type DownloadEvent struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Filename       string `json:"filename"`
	SelfOriginated bool   `json:"selfOriginated"`
}

// Action is the router's verdict on an observed download.
type Action string

const (
	ActionPassthrough Action = "passthrough"
	ActionRedirected  Action = "redirected"
)

// Decision reports what the router did with an observed download.
type Decision struct {
	Action     Action `json:"action"`
	CategoryID string `json:"categoryId,omitempty"`
	Path       string `json:"path,omitempty"`
	Handle     string `json:"handle,omitempty"`
}

type Router struct {
	store    settings.Store
	engine   Engine
	reg      *pending.Registry
	log      *logging.Logger
	met      *metrics.Manager
	selector SelectorNotifier
	onChange func(settings.Settings)
}

func New(store settings.Store, eng Engine, reg *pending.Registry, log *logging.Logger, met *metrics.Manager) *Router {
	return &Router{store: store, engine: eng, reg: reg, log: log, met: met}
}

// SetSelector wires the interactive collaborator. Without one, selection
// requests are still registered; they just wait for a message-surface answer.
func (r *Router) SetSelector(n SelectorNotifier) { r.selector = n }

// SetChangeHook registers a hook invoked with the fresh settings after every
// successful settings mutation (the original rebuilds its menus here).
func (r *Router) SetChangeHook(fn func(settings.Settings)) { r.onChange = fn }

// HandleDownloadCreated applies the interception rule to a newly observed
// download. The returned error is non-nil only for the one escalated failure
// mode: the original download was cancelled but the replacement could not be
// issued.
func (r *Router) HandleDownloadCreated(ctx context.Context, ev DownloadEvent) (Decision, error) {
	// Never re-intercept our own downloads; that would loop forever.
	if ev.SelfOriginated {
		r.met.IncPassthrough()
		return Decision{Action: ActionPassthrough}, nil
	}
	// blob: and data: URLs cannot be reissued by us.
	if ev.URL == "" || strings.HasPrefix(ev.URL, "blob:") || strings.HasPrefix(ev.URL, "data:") {
		r.met.IncPassthrough()
		return Decision{Action: ActionPassthrough}, nil
	}

	source := ev.Filename
	if source == "" {
		source = ev.URL
	}
	s := r.store.Load()
	cat := category.Match(util.ExtractExtension(source), s.Categories)
	if cat == nil {
		r.met.IncPassthrough()
		return Decision{Action: ActionPassthrough}, nil
	}

	// Intercept-and-reissue: abort the original, then start our own copy.
	if err := r.engine.Cancel(ctx, ev.ID); err != nil {
		r.log.Warnf("cancel of original download %s failed: %v", ev.ID, err)
	}
	if err := r.engine.Erase(ctx, ev.ID); err != nil {
		r.log.Warnf("erase of original download %s failed: %v", ev.ID, err)
	}

	filename := util.SanitizeFilename(source)
	relPath := joinFolder(cat.Folder, filename)
	handle, err := r.issue(ctx, ev.URL, relPath, "category:"+cat.ID)
	if err != nil {
		// The original is already gone; this failure loses the download.
		r.log.Errorf("auto-intercept of %s failed after cancelling the original: %v",
			logging.SanitizeURL(ev.URL), err)
		return Decision{Action: ActionRedirected, CategoryID: cat.ID, Path: relPath}, err
	}
	r.met.IncIntercepted()
	r.log.Infof("intercepted %s -> %s", logging.SanitizeURL(ev.URL), relPath)
	return Decision{Action: ActionRedirected, CategoryID: cat.ID, Path: relPath, Handle: handle}, nil
}

// DownloadWithCategoryID issues a download straight into the named category's
// folder (the "download to <category>" context-menu flow).
func (r *Router) DownloadWithCategoryID(ctx context.Context, url, categoryID string) (string, error) {
	s := r.store.Load()
	cat := s.FindCategory(categoryID)
	if cat == nil {
		return "", errors.New("category not found")
	}
	return r.issue(ctx, url, joinFolder(cat.Folder, util.SanitizeFilename(url)), "category:"+cat.ID)
}

// DownloadToDefault issues a download into the default folder.
func (r *Router) DownloadToDefault(ctx context.Context, url string) (string, error) {
	s := r.store.Load()
	return r.issue(ctx, url, joinFolder(s.DefaultFolder, util.SanitizeFilename(url)), "default")
}

// RequestSelection registers a pending selection for url and hands it to the
// interactive collaborator. Returns the selection id.
func (r *Router) RequestSelection(url, displayName string) string {
	if displayName == "" {
		displayName = url
	}
	filename := util.SanitizeFilename(displayName)
	id := r.reg.Create(url, filename)
	r.met.IncPendingCreated()
	r.log.Debugf("pending selection %s for %s", id, filename)
	if r.selector != nil {
		r.selector.Present(id, filename)
	}
	return id
}

// ResolveSelection completes a pending selection. An empty or unknown
// categoryID means the default folder. The stored filename is used, never one
// supplied at resolution time. The entry is consumed atomically up front, so
// of two resolutions (or a resolution and a cancellation) racing on the same
// id exactly one wins; the loser sees ErrNotFound.
func (r *Router) ResolveSelection(ctx context.Context, id, categoryID string) (string, error) {
	sel, ok := r.reg.Take(id)
	if !ok {
		return "", ErrNotFound
	}
	s := r.store.Load()
	folder := s.DefaultFolder
	routedBy := "choice:default"
	if categoryID != "" {
		if cat := s.FindCategory(categoryID); cat != nil {
			folder = cat.Folder
			routedBy = "choice:" + cat.ID
		}
	}
	return r.issue(ctx, sel.URL, joinFolder(folder, sel.Filename), routedBy)
}

// CancelSelection drops a pending selection without issuing anything.
// Unknown ids are a silent no-op.
func (r *Router) CancelSelection(id string) {
	r.reg.Delete(id)
}

// GetSelection is a read-only registry lookup; it never extends expiry.
func (r *Router) GetSelection(id string) (pending.Selection, bool) {
	return r.reg.Get(id)
}

// Sweep reaps expired pending selections. The serve loop calls this once a
// minute; tests pass a controlled now.
func (r *Router) Sweep(now time.Time) {
	if n := r.reg.SweepExpired(now); n > 0 {
		r.met.AddPendingExpired(int64(n))
		r.log.Infof("expired %d pending selection(s)", n)
	}
}

func (r *Router) issue(ctx context.Context, url, relPath, routedBy string) (string, error) {
	handle, err := r.engine.Issue(ctx, url, relPath, routedBy)
	if err != nil {
		r.met.IncIssueFailures()
		return "", err
	}
	r.met.IncIssued()
	return handle, nil
}

// joinFolder composes folder/filename; an empty folder yields the bare
// filename. Forward slashes throughout, the engine converts to native paths.
func joinFolder(folder, filename string) string {
	if folder == "" {
		return filename
	}
	return path.Join(folder, filename)
}
