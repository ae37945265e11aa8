package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// MaxTaskDirNameLength bounds directory names derived from video titles.
const MaxTaskDirNameLength = 80

// CreateDirectoryIfNotExists creates dirPath and any missing parents.
func CreateDirectoryIfNotExists(dirPath string) error {
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user.
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}

// SanitizeDirName converts an arbitrary video title into a name safe to use
// as a directory on all supported filesystems.
func SanitizeDirName(title string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	name := replacer.Replace(title)
	name = strings.Trim(name, " .")
	if len(name) > MaxTaskDirNameLength {
		name = name[:MaxTaskDirNameLength]
	}
	if name == "" {
		name = "untitled"
	}
	return name
}

// TaskSavePath builds the per-task directory under the download root,
// keyed by sanitized title and video ID to avoid collisions.
func TaskSavePath(downloadDir, title, videoID string) string {
	return filepath.Join(downloadDir, SanitizeDirName(title)+"_"+videoID)
}
