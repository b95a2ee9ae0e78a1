package settings

import "strings"

// Category is a routing rule: files whose extension appears in Extensions are
// sent to Folder. The position of a category in Settings.Categories defines
// its match priority; earlier categories win.
type Category struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Folder     string   `yaml:"folder" json:"folder"`
	Extensions []string `yaml:"extensions" json:"extensions"`
}

// Settings holds the full routing configuration. Categories are ordered; the
// order is both the UI order and the match priority.
type Settings struct {
	Categories    []Category `yaml:"categories" json:"categories"`
	DefaultFolder string     `yaml:"default_folder" json:"defaultFolder"`
}

// Default returns the settings used when nothing has been configured yet or
// the store cannot be read.
func Default() Settings {
	return Settings{Categories: []Category{}, DefaultFolder: "Downloads"}
}

// Partial selects fields for a merge-save. Nil fields keep the stored value.
type Partial struct {
	Categories    *[]Category
	DefaultFolder *string
}

// NormalizeExtensions lowercases extensions, prepends the missing leading dot,
// and drops empty entries. Order is preserved.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// ParseExtensions splits a comma-separated extension list and normalizes it.
func ParseExtensions(s string) []string {
	return NormalizeExtensions(strings.Split(s, ","))
}

// FindCategory returns the category with the given id, or nil.
func (s Settings) FindCategory(id string) *Category {
	for i := range s.Categories {
		if s.Categories[i].ID == id {
			return &s.Categories[i]
		}
	}
	return nil
}
