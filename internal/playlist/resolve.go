package playlist

import (
	"strings"
)

// ResolveURL resolves a segment or key reference against the playlist's own
// URL. Absolute references pass through; root-relative references keep the
// playlist's scheme and host; everything else is relative to the playlist's
// directory.
func ResolveURL(playlistURL, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	if strings.HasPrefix(ref, "/") {
		if origin := urlOrigin(playlistURL); origin != "" {
			return origin + ref
		}
		return ref
	}

	if idx := strings.LastIndex(playlistURL, "/"); idx > len("https://") {
		return playlistURL[:idx+1] + ref
	}
	return ref
}

// urlOrigin returns scheme://host of a URL, or "" when it cannot be derived
func urlOrigin(rawURL string) string {
	schemeEnd := strings.Index(rawURL, "://")
	if schemeEnd < 0 {
		return ""
	}
	hostStart := schemeEnd + len("://")
	rest := rawURL[hostStart:]
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rawURL[:hostStart+idx]
	}
	return rawURL
}
