package model

// PlaylistKind distinguishes a master manifest from a media manifest
type PlaylistKind string

const (
	// PlaylistKindMaster lists alternative renditions, never segments
	PlaylistKindMaster PlaylistKind = "master"

	// PlaylistKindMedia lists the ordered media segments of one rendition
	PlaylistKindMedia PlaylistKind = "media"
)

// Variant is one rendition entry of a master playlist
type Variant struct {
	Bandwidth int64
	URL       string
}

// Segment is one media chunk. Slice order defines the byte order of the
// merged artifact and must never be reshuffled.
type Segment struct {
	URL             string
	DurationSeconds float64
	EstimatedBytes  int64
}

// Playlist is a parsed streaming manifest. A master playlist has zero
// segments; a media playlist has zero variants.
type Playlist struct {
	Kind     PlaylistKind
	Variants []Variant
	Segments []Segment
	KeyURL   string // set when the media playlist declares AES-128 encryption
}

// IsMaster returns true if the playlist lists renditions instead of segments
func (p *Playlist) IsMaster() bool {
	return p.Kind == PlaylistKindMaster
}

// BestVariant returns the variant with the highest declared bandwidth.
// Ties resolve to first-seen order. Returns false when there are no variants.
func (p *Playlist) BestVariant() (Variant, bool) {
	if len(p.Variants) == 0 {
		return Variant{}, false
	}
	best := p.Variants[0]
	for _, v := range p.Variants[1:] {
		if v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best, true
}

// TotalDuration returns the summed nominal duration of all segments
func (p *Playlist) TotalDuration() float64 {
	var total float64
	for _, s := range p.Segments {
		total += s.DurationSeconds
	}
	return total
}
