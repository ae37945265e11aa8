package model

import (
	"fmt"
	"strings"
	"time"
)

// DownloadTask represents a single download task
type DownloadTask struct {
	ID              string     `json:"id"`
	VideoID         string     `json:"video_id"`
	Title           string     `json:"title"`
	SourceURL       string     `json:"source_url"`
	DownloadURL     string     `json:"download_url,omitempty"` // resolved stream URL, may differ from SourceURL
	SavePath        string     `json:"save_path"`
	Status          TaskStatus `json:"status"`
	Progress        float64    `json:"progress"` // 0.0 to 100.0
	TotalBytes      int64      `json:"total_bytes"`
	DownloadedBytes int64      `json:"downloaded_bytes"`
	SpeedBps        int64      `json:"speed_bps"`
	DurationSeconds float64    `json:"duration_seconds"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
}

// GetSpeedString returns the download speed formatted for display
func (dt *DownloadTask) GetSpeedString() string {
	switch {
	case dt.SpeedBps >= 1024*1024:
		return fmt.Sprintf("%.1fMB/s", float64(dt.SpeedBps)/1024/1024)
	case dt.SpeedBps >= 1024:
		return fmt.Sprintf("%.1fKB/s", float64(dt.SpeedBps)/1024)
	case dt.SpeedBps > 0:
		return fmt.Sprintf("%dB/s", dt.SpeedBps)
	}
	return "—"
}

// GetDisplayTitle returns title or videoID in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}
	if dt.VideoID != "" {
		return dt.VideoID
	}
	return dt.SourceURL
}
