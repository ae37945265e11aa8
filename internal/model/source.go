package model

import "time"

// SourceKind identifies which acquisition strategy produced a stream URL
type SourceKind string

const (
	// SourceKindCache means the URL came from the resolution cache or an explicit URL
	SourceKindCache SourceKind = "cache"

	// SourceKindDirectScrape means the URL was extracted from the item's detail page
	SourceKindDirectScrape SourceKind = "direct_scrape"

	// SourceKindScriptedBrowser means the URL was intercepted by the browser collaborator
	SourceKindScriptedBrowser SourceKind = "scripted_browser"

	// SourceKindPartFallback means the URL belongs to a constituent part of the item
	SourceKindPartFallback SourceKind = "part_fallback"

	// SourceKindNone means no strategy produced a URL
	SourceKindNone SourceKind = "none"
)

// String returns the string representation of SourceKind
func (sk SourceKind) String() string {
	return string(sk)
}

// ResolvedSource is the outcome of one resolution call. It is immutable and
// lives only as long as the caller needs it; the cache keeps its own entry.
type ResolvedSource struct {
	URL      string
	Kind     SourceKind
	Attempts int
	Elapsed  time.Duration
}
