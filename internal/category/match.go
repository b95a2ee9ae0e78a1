package category

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"dlrouter/internal/settings"
)

// Match returns the first category in list order whose extension set contains
// ext (compared case-insensitively, exact string equality). Returns nil when
// ext is empty, the list is empty, or nothing matches. List order is the only
// tie-breaker: when several categories claim the same extension, the earliest
// one wins.
func Match(ext string, categories []settings.Category) *settings.Category {
	if ext == "" || len(categories) == 0 {
		return nil
	}
	ext = strings.ToLower(ext)
	for i := range categories {
		for _, e := range categories[i].Extensions {
			if strings.ToLower(e) == ext {
				return &categories[i]
			}
		}
	}
	return nil
}

// Filter returns the categories whose name, folder, or any extension fuzzily
// matches term. An empty term returns the input unchanged.
func Filter(term string, categories []settings.Category) []settings.Category {
	if strings.TrimSpace(term) == "" {
		return categories
	}
	var out []settings.Category
	for _, c := range categories {
		if fuzzy.MatchFold(term, c.Name) || fuzzy.MatchFold(term, c.Folder) {
			out = append(out, c)
			continue
		}
		for _, e := range c.Extensions {
			if fuzzy.MatchFold(term, e) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
