package model

import "testing"

func TestDownloadTask_GetSpeedString(t *testing.T) {
	tests := []struct {
		name     string
		speedBps int64
		expected string
	}{
		{"zero", 0, "—"},
		{"bytes", 512, "512B/s"},
		{"kilobytes", 100 * 1024, "100.0KB/s"},
		{"megabytes", 3 * 1024 * 1024, "3.0MB/s"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			task := &DownloadTask{SpeedBps: test.speedBps}
			result := task.GetSpeedString()
			if result != test.expected {
				t.Errorf("GetSpeedString() = %s, expected %s", result, test.expected)
			}
		})
	}
}

func TestDownloadTask_GetDisplayTitle(t *testing.T) {
	tests := []struct {
		name     string
		task     DownloadTask
		expected string
	}{
		{
			name:     "prefers title",
			task:     DownloadTask{Title: "Episode 1", VideoID: "abc-123", SourceURL: "https://example.com/v/abc-123"},
			expected: "Episode 1",
		},
		{
			name:     "skips url-shaped title",
			task:     DownloadTask{Title: "https://example.com/x", VideoID: "abc-123"},
			expected: "abc-123",
		},
		{
			name:     "falls back to source url",
			task:     DownloadTask{SourceURL: "https://example.com/v/abc-123"},
			expected: "https://example.com/v/abc-123",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.task.GetDisplayTitle()
			if result != test.expected {
				t.Errorf("GetDisplayTitle() = %s, expected %s", result, test.expected)
			}
		})
	}
}

func TestPlaylist_BestVariant(t *testing.T) {
	playlist := &Playlist{
		Kind: PlaylistKindMaster,
		Variants: []Variant{
			{Bandwidth: 500000, URL: "low.m3u8"},
			{Bandwidth: 1200000, URL: "high.m3u8"},
			{Bandwidth: 900000, URL: "mid.m3u8"},
		},
	}

	best, ok := playlist.BestVariant()
	if !ok {
		t.Fatal("expected a best variant")
	}
	if best.URL != "high.m3u8" {
		t.Errorf("BestVariant() = %s, expected high.m3u8", best.URL)
	}

	empty := &Playlist{Kind: PlaylistKindMaster}
	if _, ok := empty.BestVariant(); ok {
		t.Error("expected no variant for empty playlist")
	}
}

func TestPlaylist_BestVariant_TieFirstSeen(t *testing.T) {
	playlist := &Playlist{
		Kind: PlaylistKindMaster,
		Variants: []Variant{
			{Bandwidth: 800000, URL: "first.m3u8"},
			{Bandwidth: 800000, URL: "second.m3u8"},
		},
	}

	best, _ := playlist.BestVariant()
	if best.URL != "first.m3u8" {
		t.Errorf("tie should resolve to first-seen, got %s", best.URL)
	}
}

func TestPlaylist_TotalDuration(t *testing.T) {
	playlist := &Playlist{
		Kind: PlaylistKindMedia,
		Segments: []Segment{
			{URL: "seg0.ts", DurationSeconds: 10.0},
			{URL: "seg1.ts", DurationSeconds: 9.5},
			{URL: "seg2.ts", DurationSeconds: 4.25},
		},
	}

	if got := playlist.TotalDuration(); got != 23.75 {
		t.Errorf("TotalDuration() = %f, expected 23.75", got)
	}

	empty := &Playlist{Kind: PlaylistKindMedia}
	if got := empty.TotalDuration(); got != 0 {
		t.Errorf("TotalDuration() on empty playlist = %f, expected 0", got)
	}
}
