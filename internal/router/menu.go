package router

import (
	"fmt"

	"dlrouter/internal/settings"
)

// MenuItem is one entry of the "Download to..." menu tree. This is only the
// data model; rendering belongs to whatever front end consumes it.
type MenuItem struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title,omitempty"`
	Type     string `json:"type,omitempty"` // "" (normal) or "separator"
}

const menuParentID = "download-to"

// BuildMenu derives the menu tree from settings: one entry per category (in
// priority order), a separator when any exist, then the default-folder entry
// and the category chooser. Pure function; callers rebuild it from the
// settings change hook.
func BuildMenu(s settings.Settings) []MenuItem {
	items := []MenuItem{{ID: menuParentID, Title: "Download to..."}}
	for _, c := range s.Categories {
		items = append(items, MenuItem{
			ID:       menuParentID + "-" + c.ID,
			ParentID: menuParentID,
			Title:    c.Name,
		})
	}
	if len(s.Categories) > 0 {
		items = append(items, MenuItem{
			ID:       menuParentID + "-separator",
			ParentID: menuParentID,
			Type:     "separator",
		})
	}
	items = append(items,
		MenuItem{
			ID:       menuParentID + "-default",
			ParentID: menuParentID,
			Title:    fmt.Sprintf("Default (%s)", s.DefaultFolder),
		},
		MenuItem{
			ID:       menuParentID + "-choose",
			ParentID: menuParentID,
			Title:    "Choose category...",
		},
	)
	return items
}
