// Package browser provides the scripted-browser acquisition strategy: it
// loads a page and reports the first outgoing request that looks like a
// media file.
package browser

import (
	"context"
	"strings"
	"time"
)

// Media file suffixes the collaborator (and the direct scraper) watch for
var MediaSuffixes = []string{".m3u8", ".mp4", ".mpd"}

// Watcher loads a page URL and observes its outgoing network requests
type Watcher interface {
	// LoadAndWatch loads url and returns the first outgoing request URL
	// matching a media suffix, or "" when the settle timeout elapses with
	// none. Transport errors are returned, not swallowed; the caller
	// decides how to degrade.
	LoadAndWatch(ctx context.Context, url string, timeout time.Duration) (string, error)
}

// IsMediaURL reports whether a request URL matches a known media-file
// suffix, with or without a query string.
func IsMediaURL(url string) bool {
	path := url
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	lower := strings.ToLower(path)
	for _, suffix := range MediaSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
