package download

import (
	"time"

	"github.com/hlsget/hls-downloader/internal/model"
)

// Store is the narrow task-store API the engine writes progress and status
// through. The engine never assumes a particular storage technology.
// Lookups report a missing row with store.ErrTaskNotFound.
type Store interface {
	Insert(task *model.DownloadTask) error
	GetByID(id string) (*model.DownloadTask, error)
	GetByVideoID(videoID string) (*model.DownloadTask, error)
	UpdateStatus(id string, status model.TaskStatus) error
	UpdateProgress(id string, percent float64, downloadedBytes, speedBps, totalBytes int64) error
	SetDuration(id string, durationSeconds float64) error
	MarkCompleted(id string, completedAt time.Time) error
	MarkFailed(id, errorMessage string) error
	Delete(id string) error
	ListByStatus(statuses ...model.TaskStatus) ([]*model.DownloadTask, error)
}

// Downloader defines the interface for the segment download service
type Downloader interface {
	AddTask(videoID, title, sourceURL, downloadURL, savePath string) (*model.DownloadTask, error)
	Start(id string) error
	Pause(id string) error
	Resume(id string) error
	Cancel(id string) error
	GetTask(id string) (*model.DownloadTask, error)
	ActiveTasks() ([]*model.DownloadTask, error)
}
