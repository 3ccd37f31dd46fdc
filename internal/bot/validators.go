package bot

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// NormalizeLink trims the submitted link and adds a scheme to bare t.me links.
func NormalizeLink(raw string) (string, bool) {
	link := strings.TrimSpace(raw)
	if link == "" || strings.ContainsAny(link, " \t\n") {
		return "", false
	}

	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "t.me/") || strings.HasPrefix(lower, "telegram.me/") {
		link = "https://" + link
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return link, true
}

func ParseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
