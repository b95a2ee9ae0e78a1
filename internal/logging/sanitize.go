package logging

import (
	"net/url"
	"strings"
)

// SanitizeURL strips userinfo, query, and fragment from a URL before logging
// so signed or tokenized download links never reach the logs.
func SanitizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
