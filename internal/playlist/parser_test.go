package playlist

import "testing"

const masterManifest = `#EXTM3U
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=500000,RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=1200000,RESOLUTION=1280x720
high/index.m3u8
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=900000,RESOLUTION=960x540
mid/index.m3u8
`

const mediaManifest = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.009,
segment0.ts
#EXTINF:9.010,
segment1.ts
#EXTINF:3.003,
segment2.ts
#EXT-X-ENDLIST
`

const encryptedManifest = `#EXTM3U
#EXT-X-KEY:METHOD=AES-128,URI="https://cdn.example/key.bin"
#EXTINF:10.0,
segment0.ts
#EXTINF:10.0,
segment1.ts
`

func TestParse_MasterSelectsHighestBandwidth(t *testing.T) {
	playlist, err := Parse(masterManifest)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if !playlist.IsMaster() {
		t.Fatal("expected master playlist")
	}
	if len(playlist.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(playlist.Variants))
	}
	if len(playlist.Segments) != 0 {
		t.Errorf("master playlist must not carry segments, got %d", len(playlist.Segments))
	}

	best, ok := playlist.BestVariant()
	if !ok {
		t.Fatal("expected a best variant")
	}
	if best.URL != "high/index.m3u8" {
		t.Errorf("BestVariant() = %s, expected high/index.m3u8", best.URL)
	}
	if best.Bandwidth != 1200000 {
		t.Errorf("BestVariant() bandwidth = %d, expected 1200000", best.Bandwidth)
	}
}

func TestParse_MasterWithoutBandwidthFallsBackToFirstLine(t *testing.T) {
	content := "#EXTM3U\n#EXT-X-STREAM-INF:CODECS=\"avc1\"\n#EXT-X-ENDLIST\nstream/index.m3u8\n"

	playlist, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	best, ok := playlist.BestVariant()
	if !ok {
		t.Fatal("expected a fallback variant")
	}
	if best.URL != "stream/index.m3u8" {
		t.Errorf("fallback variant = %s, expected stream/index.m3u8", best.URL)
	}
}

func TestParse_MediaSegments(t *testing.T) {
	playlist, err := Parse(mediaManifest)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if playlist.IsMaster() {
		t.Fatal("expected media playlist")
	}
	if len(playlist.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(playlist.Segments))
	}
	if playlist.Segments[0].URL != "segment0.ts" {
		t.Errorf("first segment = %s, expected segment0.ts", playlist.Segments[0].URL)
	}
	if playlist.Segments[1].DurationSeconds != 9.010 {
		t.Errorf("second segment duration = %f, expected 9.010", playlist.Segments[1].DurationSeconds)
	}
	if playlist.KeyURL != "" {
		t.Errorf("expected no key, got %s", playlist.KeyURL)
	}
}

func TestParse_MediaKeyExtraction(t *testing.T) {
	playlist, err := Parse(encryptedManifest)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if playlist.KeyURL != "https://cdn.example/key.bin" {
		t.Errorf("KeyURL = %s, expected https://cdn.example/key.bin", playlist.KeyURL)
	}
	if len(playlist.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(playlist.Segments))
	}
}

func TestParse_IgnoresUnsupportedKeyMethod(t *testing.T) {
	content := "#EXTM3U\n#EXT-X-KEY:METHOD=SAMPLE-AES,URI=\"skd://key\"\n#EXTINF:10.0,\nsegment0.ts\n"

	playlist, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if playlist.KeyURL != "" {
		t.Errorf("unsupported key method must be ignored, got %s", playlist.KeyURL)
	}
}

func TestParse_DanglingDurationMarkerIsSkipped(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:10.0,\nsegment0.ts\n#EXTINF:10.0,\n#EXT-X-ENDLIST\n"

	playlist, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(playlist.Segments) != 1 {
		t.Errorf("expected 1 segment, got %d", len(playlist.Segments))
	}
}

func TestParse_EmptyContent(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Error("expected error for empty content")
	}
	if _, err := Parse("  \n\n  "); err == nil {
		t.Error("expected error for blank content")
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://cdn.example/vod/abc/index.m3u8"

	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{"absolute passthrough", "https://other.example/seg.ts", "https://other.example/seg.ts"},
		{"root relative", "/keys/key.bin", "https://cdn.example/keys/key.bin"},
		{"relative", "segment0.ts", "https://cdn.example/vod/abc/segment0.ts"},
		{"relative subdir", "seg/part1.ts", "https://cdn.example/vod/abc/seg/part1.ts"},
		{"empty", "", ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := ResolveURL(base, test.ref)
			if result != test.expected {
				t.Errorf("ResolveURL(%s) = %s, expected %s", test.ref, result, test.expected)
			}
		})
	}
}
