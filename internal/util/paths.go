package util

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// reserved characters that are illegal in Windows filenames.
const reserved = `<>:"/\|?*`

// ExtractExtension returns the file extension of the last path segment of a
// URL or filename, including the leading dot and lowercased. Query strings and
// fragments are ignored. Returns "" when there is no segment, no dot, or the
// dot is the final character.
func ExtractExtension(urlOrName string) string {
	s := stripQueryFragment(urlOrName)
	seg := s
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		seg = s[i+1:]
	}
	dot := strings.LastIndexByte(seg, '.')
	if dot < 0 || dot == len(seg)-1 {
		return ""
	}
	return strings.ToLower(seg[dot:])
}

// SanitizeFilename derives a cross-platform-safe filename from a URL or path.
// It strips query/fragment, takes the last non-empty path segment (splitting
// on both slash styles), percent-decodes it best-effort, replaces reserved and
// control characters with '_', and trims leading/trailing whitespace and dots.
// Falls back to "download" when nothing usable remains. Total and idempotent.
func SanitizeFilename(urlOrPath string) string {
	s := stripQueryFragment(urlOrPath)
	name := "download"
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) > 0 {
		name = parts[len(parts)-1]
	}
	// Best-effort decode to a fixpoint so doubly-encoded names collapse in
	// one call; a malformed escape keeps the segment as is.
	for i := 0; i < 4; i++ {
		dec, err := url.PathUnescape(name)
		if err != nil || dec == name {
			break
		}
		name = dec
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case strings.ContainsRune(reserved, r):
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	name = strings.TrimFunc(b.String(), func(r rune) bool {
		return unicode.IsSpace(r) || r == '.'
	})
	if name == "" {
		name = "download"
	}
	return name
}

// UniquePath returns a path inside dir for base that does not collide with an
// existing file, appending " (2)", " (3)", ... before the extension as needed.
func UniquePath(dir, base string) (string, error) {
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	path := filepath.Join(dir, base)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	for i := 2; ; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, i, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, nil
		}
	}
}

func stripQueryFragment(s string) string {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return s
}
