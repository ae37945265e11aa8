package playlist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hlsget/hls-downloader/internal/model"
)

// Manifest tag markers
const (
	TagStreamInf = "#EXT-X-STREAM-INF"
	TagExtInf    = "#EXTINF"
	TagKey       = "#EXT-X-KEY"

	BandwidthAttr = "BANDWIDTH="
	MethodAttr    = "METHOD="
	URIAttr       = "URI="

	// MethodAES128 is the only key scheme this parser supports
	MethodAES128 = "AES-128"
)

// SegmentSizeEstimate is the per-segment byte estimate used to drive the
// progress bar when the real total size is unknown.
const SegmentSizeEstimate int64 = 512000

// Parse parses a streaming manifest into a structured playlist. A manifest
// containing a stream-variant marker is a master playlist; everything else
// is a media playlist. Malformed duration markers with no following URL
// line are skipped, not fatal.
func Parse(content string) (*model.Playlist, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil, fmt.Errorf("empty playlist content")
	}

	if strings.Contains(content, TagStreamInf) {
		return parseMaster(lines), nil
	}
	return parseMedia(lines), nil
}

// parseMaster extracts rendition variants. When no variant metadata is
// parseable the first non-comment line is kept as a zero-bandwidth variant.
func parseMaster(lines []string) *model.Playlist {
	playlist := &model.Playlist{Kind: model.PlaylistKindMaster}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, TagStreamInf) {
			continue
		}

		bandwidth := parseBandwidth(line)
		if url, next := nextURILine(lines, i+1); url != "" {
			playlist.Variants = append(playlist.Variants, model.Variant{
				Bandwidth: bandwidth,
				URL:       url,
			})
			i = next
		}
	}

	if len(playlist.Variants) == 0 {
		if url, _ := nextURILine(lines, 0); url != "" {
			playlist.Variants = append(playlist.Variants, model.Variant{URL: url})
		}
	}

	return playlist
}

// parseMedia walks lines pairwise: a duration marker followed by the next
// non-comment line is one segment.
func parseMedia(lines []string) *model.Playlist {
	playlist := &model.Playlist{Kind: model.PlaylistKindMedia}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if strings.HasPrefix(line, TagKey) {
			if keyURL := parseKeyURI(line); keyURL != "" {
				playlist.KeyURL = keyURL
			}
			continue
		}

		if !strings.HasPrefix(line, TagExtInf) {
			continue
		}

		duration := parseDuration(line)
		url, next := nextURILine(lines, i+1)
		if url == "" {
			// Dangling duration marker at end of manifest.
			continue
		}

		playlist.Segments = append(playlist.Segments, model.Segment{
			URL:             url,
			DurationSeconds: duration,
			EstimatedBytes:  SegmentSizeEstimate,
		})
		i = next
	}

	return playlist
}

// splitLines normalizes line endings and drops empty lines
func splitLines(content string) []string {
	raw := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// nextURILine returns the first non-comment line at or after index start,
// along with its index
func nextURILine(lines []string, start int) (string, int) {
	for i := start; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "#") {
			return lines[i], i
		}
	}
	return "", len(lines)
}

// parseBandwidth extracts the BANDWIDTH attribute from a stream-variant tag
func parseBandwidth(line string) int64 {
	idx := strings.Index(line, BandwidthAttr)
	if idx < 0 {
		return 0
	}
	value := line[idx+len(BandwidthAttr):]
	if end := strings.IndexAny(value, ","); end >= 0 {
		value = value[:end]
	}
	bandwidth, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return bandwidth
}

// parseDuration extracts the duration from an #EXTINF tag
func parseDuration(line string) float64 {
	value := strings.TrimPrefix(line, TagExtInf)
	value = strings.TrimPrefix(value, ":")
	if end := strings.Index(value, ","); end >= 0 {
		value = value[:end]
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return duration
}

// parseKeyURI extracts the key URI from an #EXT-X-KEY tag. Only the AES-128
// method is recognized; anything else is ignored.
func parseKeyURI(line string) string {
	if !strings.Contains(line, MethodAttr+MethodAES128) {
		return ""
	}
	idx := strings.Index(line, URIAttr)
	if idx < 0 {
		return ""
	}
	value := line[idx+len(URIAttr):]
	value = strings.TrimPrefix(value, `"`)
	if end := strings.Index(value, `"`); end >= 0 {
		value = value[:end]
	} else if end := strings.Index(value, ","); end >= 0 {
		value = value[:end]
	}
	return value
}
