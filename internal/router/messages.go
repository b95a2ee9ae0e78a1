package router

import (
	"context"
	"errors"
	"strings"

	"dlrouter/internal/pending"
	"dlrouter/internal/settings"
)

// Request is one message-surface call. Action selects the operation; the
// remaining fields are per-action payload.
type Request struct {
	Action     string             `json:"action"`
	Category   *settings.Category `json:"category,omitempty"`
	CategoryID string             `json:"categoryId,omitempty"`
	Folder     string             `json:"folder,omitempty"`
	Order      []string           `json:"order,omitempty"`
	DownloadID string             `json:"downloadId,omitempty"`
	URL        string             `json:"url,omitempty"`
	Settings   *ImportPayload     `json:"settings,omitempty"`
}

// ImportPayload is the importSettings body. Categories is a pointer so a
// missing list can be told apart from an empty one.
type ImportPayload struct {
	Categories    *[]settings.Category `json:"categories"`
	DefaultFolder string               `json:"defaultFolder"`
}

// Response is the single reply every action produces.
type Response struct {
	OK       bool               `json:"ok"`
	Error    string             `json:"error,omitempty"`
	Settings *settings.Settings `json:"settings,omitempty"`
	Pending  *pending.Selection `json:"pending,omitempty"`
	Handle   string             `json:"handle,omitempty"`
}

func ok() Response             { return Response{OK: true} }
func fail(msg string) Response { return Response{OK: false, Error: msg} }

// HandleMessage answers one message-surface request. Failures are structured
// results with short user-facing messages, never panics or raw internals.
func (r *Router) HandleMessage(ctx context.Context, req Request) Response {
	switch req.Action {
	case "getSettings", "exportSettings":
		s := r.store.Load()
		return Response{OK: true, Settings: &s}

	case "saveCategory":
		return r.saveCategory(req.Category)

	case "deleteCategory":
		return r.deleteCategory(req.CategoryID)

	case "setDefaultFolder":
		return r.setDefaultFolder(req.Folder)

	case "reorderCategories":
		return r.reorderCategories(req.Order)

	case "getPendingDownload":
		if sel, found := r.reg.Get(req.DownloadID); found {
			return Response{OK: true, Pending: &sel}
		}
		return Response{OK: true}

	case "downloadWithCategory":
		handle, err := r.ResolveSelection(ctx, req.DownloadID, req.CategoryID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return fail(ErrNotFound.Error())
			}
			return fail("download failed")
		}
		return Response{OK: true, Handle: handle}

	case "cancelDownload":
		r.CancelSelection(req.DownloadID)
		return ok()

	case "importSettings":
		return r.importSettings(req.Settings)

	case "refreshContextMenus":
		r.notifyChange(r.store.Load())
		return ok()

	default:
		return fail("unknown action")
	}
}

func (r *Router) saveCategory(cat *settings.Category) Response {
	if cat == nil || cat.ID == "" || strings.TrimSpace(cat.Name) == "" || strings.TrimSpace(cat.Folder) == "" {
		return fail("category id, name, and folder are required")
	}
	c := *cat
	c.Name = strings.TrimSpace(c.Name)
	c.Folder = strings.TrimSpace(c.Folder)
	c.Extensions = settings.NormalizeExtensions(c.Extensions)

	s := r.store.Load()
	for _, existing := range s.Categories {
		if existing.ID != c.ID && strings.EqualFold(existing.Name, c.Name) {
			return fail("a category with this name already exists")
		}
	}
	replaced := false
	for i := range s.Categories {
		if s.Categories[i].ID == c.ID {
			s.Categories[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		s.Categories = append(s.Categories, c)
	}
	if err := r.saveCategories(s.Categories); err != nil {
		return fail("could not save settings")
	}
	return ok()
}

func (r *Router) deleteCategory(id string) Response {
	if id == "" {
		return fail("category id is required")
	}
	s := r.store.Load()
	kept := s.Categories[:0:0]
	for _, c := range s.Categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if kept == nil {
		kept = []settings.Category{}
	}
	if err := r.saveCategories(kept); err != nil {
		return fail("could not save settings")
	}
	return ok()
}

func (r *Router) setDefaultFolder(folder string) Response {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return fail("folder is required")
	}
	if err := r.store.Save(settings.Partial{DefaultFolder: &folder}); err != nil {
		r.log.Warnf("settings save failed: %v", err)
		return fail("could not save settings")
	}
	r.notifyChange(r.store.Load())
	return ok()
}

// reorderCategories atomically replaces the category order. The given order
// must be a permutation of the current ids; anything else is rejected so a
// stale UI can never drop or duplicate a category.
func (r *Router) reorderCategories(order []string) Response {
	s := r.store.Load()
	if len(order) != len(s.Categories) {
		return fail("order must list every category exactly once")
	}
	byID := make(map[string]settings.Category, len(s.Categories))
	for _, c := range s.Categories {
		byID[c.ID] = c
	}
	reordered := make([]settings.Category, 0, len(order))
	for _, id := range order {
		c, found := byID[id]
		if !found {
			return fail("order must list every category exactly once")
		}
		delete(byID, id)
		reordered = append(reordered, c)
	}
	if err := r.saveCategories(reordered); err != nil {
		return fail("could not save settings")
	}
	return ok()
}

// importSettings replaces the configuration wholesale. A payload without a
// categories list is rejected before anything is written.
func (r *Router) importSettings(p *ImportPayload) Response {
	if p == nil || p.Categories == nil {
		return fail("invalid settings payload")
	}
	cats := make([]settings.Category, 0, len(*p.Categories))
	names := make(map[string]bool, len(*p.Categories))
	for _, c := range *p.Categories {
		if c.ID == "" || strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Folder) == "" {
			return fail("invalid settings payload")
		}
		c.Name = strings.TrimSpace(c.Name)
		c.Folder = strings.TrimSpace(c.Folder)
		c.Extensions = settings.NormalizeExtensions(c.Extensions)
		lower := strings.ToLower(c.Name)
		if names[lower] {
			return fail("invalid settings payload")
		}
		names[lower] = true
		cats = append(cats, c)
	}
	partial := settings.Partial{Categories: &cats}
	if f := strings.TrimSpace(p.DefaultFolder); f != "" {
		partial.DefaultFolder = &f
	}
	if err := r.store.Save(partial); err != nil {
		r.log.Warnf("settings save failed: %v", err)
		return fail("could not save settings")
	}
	r.notifyChange(r.store.Load())
	return ok()
}

func (r *Router) saveCategories(cats []settings.Category) error {
	if err := r.store.Save(settings.Partial{Categories: &cats}); err != nil {
		r.log.Warnf("settings save failed: %v", err)
		return err
	}
	r.notifyChange(r.store.Load())
	return nil
}

func (r *Router) notifyChange(s settings.Settings) {
	if r.onChange != nil {
		r.onChange(s)
	}
}
