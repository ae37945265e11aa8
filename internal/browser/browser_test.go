package browser

import "testing"

func TestIsMediaURL(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://cdn.example/v/index.m3u8", true},
		{"https://cdn.example/v/index.m3u8?token=abc", true},
		{"https://cdn.example/v/movie.mp4", true},
		{"https://cdn.example/v/movie.MP4", true},
		{"https://cdn.example/v/manifest.mpd", true},
		{"https://cdn.example/v/manifest.mpd#t=10", true},
		{"https://cdn.example/v/page.html", false},
		{"https://cdn.example/v/index.m3u8.bak", false},
		{"https://cdn.example/api/data.json?file=.mp4", false},
		{"", false},
	}

	for _, test := range tests {
		result := IsMediaURL(test.url)
		if result != test.expected {
			t.Errorf("IsMediaURL(%q) = %v, expected %v", test.url, result, test.expected)
		}
	}
}
