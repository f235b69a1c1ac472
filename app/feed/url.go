package feed

import (
	"net/url"
	"strings"
)

// Tracking parameters that vary between syndications of the same page.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_medium":   true,
	"utm_source":   true,
	"utm_term":     true,
}

// CanonicalURL normalizes an article URL so the same page always maps
// to the same string. It lowercases the scheme and host, drops the
// fragment and tracking parameters and trims a trailing slash. The
// canonical form is the dedup key, so two syndications of one page
// collapse to a single article.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		query := u.Query()
		for param := range query {
			if trackingParams[param] {
				query.Del(param)
			}
		}
		u.RawQuery = query.Encode()
	}

	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}
