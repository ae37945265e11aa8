package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/bbolt"

	"github.com/hlsget/hls-downloader/internal/model"
)

// Bucket names
const (
	TasksBucketName   = "tasks"
	VideoIDBucketName = "video_index"
)

// ErrTaskNotFound is returned when no task exists for the given key
var ErrTaskNotFound = errors.New("task not found")

// TaskStore persists download tasks in a bbolt database. One writer per
// task is assumed; bbolt's single-writer transactions make every write
// durable before the next read by this process observes it.
type TaskStore struct {
	db *bbolt.DB
}

// Open opens (or creates) the task database at path
func Open(path string) (*TaskStore, error) {
	db, err := bbolt.Open(path, 0o666, nil)
	if err != nil {
		slog.Error("failed to open task database", "db_path", path, "err", err)
		return nil, fmt.Errorf("failed to open task database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(TasksBucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(VideoIDBucketName))
		return err
	})
	if err != nil {
		db.Close()
		slog.Error("failed to create task buckets", "db_path", path, "err", err)
		return nil, fmt.Errorf("failed to create task buckets: %w", err)
	}

	slog.Info("task database opened", "db_path", path)
	return &TaskStore{db: db}, nil
}

// Close closes the underlying database
func (s *TaskStore) Close() error {
	return s.db.Close()
}

// Insert stores a new task and indexes it by video id
func (s *TaskStore) Insert(task *model.DownloadTask) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to encode task: %w", err)
		}
		if err := tx.Bucket([]byte(TasksBucketName)).Put([]byte(task.ID), data); err != nil {
			return err
		}
		if task.VideoID != "" {
			return tx.Bucket([]byte(VideoIDBucketName)).Put([]byte(task.VideoID), []byte(task.ID))
		}
		return nil
	})
}

// GetByID returns the task with the given id
func (s *TaskStore) GetByID(id string) (*model.DownloadTask, error) {
	var task *model.DownloadTask
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(TasksBucketName)).Get([]byte(id))
		if data == nil {
			return ErrTaskNotFound
		}
		task = &model.DownloadTask{}
		return json.Unmarshal(data, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetByVideoID returns the task for the given video id
func (s *TaskStore) GetByVideoID(videoID string) (*model.DownloadTask, error) {
	var taskID string
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket([]byte(VideoIDBucketName)).Get([]byte(videoID))
		if id == nil {
			return ErrTaskNotFound
		}
		taskID = string(id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(taskID)
}

// UpdateStatus transitions the task to status, enforcing the state machine.
// The error message is cleared when re-entering Pending.
func (s *TaskStore) UpdateStatus(id string, status model.TaskStatus) error {
	return s.update(id, func(task *model.DownloadTask) error {
		if !task.Status.CanTransition(status) {
			return fmt.Errorf("illegal transition %s -> %s for task %s", task.Status, status, id)
		}
		task.Status = status
		if status == model.TaskStatusPending {
			task.ErrorMessage = ""
		}
		return nil
	})
}

// UpdateProgress persists a progress snapshot for an active task
func (s *TaskStore) UpdateProgress(id string, percent float64, downloadedBytes, speedBps, totalBytes int64) error {
	return s.update(id, func(task *model.DownloadTask) error {
		task.Progress = percent
		task.DownloadedBytes = downloadedBytes
		task.SpeedBps = speedBps
		task.TotalBytes = totalBytes
		return nil
	})
}

// SetDuration records the summed nominal duration of the media, known once
// the playlist has been parsed.
func (s *TaskStore) SetDuration(id string, durationSeconds float64) error {
	return s.update(id, func(task *model.DownloadTask) error {
		task.DurationSeconds = durationSeconds
		return nil
	})
}

// MarkCompleted finalizes the task: terminal 100% and completion timestamp
func (s *TaskStore) MarkCompleted(id string, completedAt time.Time) error {
	return s.update(id, func(task *model.DownloadTask) error {
		if !task.Status.CanTransition(model.TaskStatusCompleted) {
			return fmt.Errorf("illegal transition %s -> %s for task %s", task.Status, model.TaskStatusCompleted, id)
		}
		task.Status = model.TaskStatusCompleted
		task.Progress = 100
		task.SpeedBps = 0
		task.CompletedAt = &completedAt
		return nil
	})
}

// MarkFailed transitions the task to Failed with a descriptive message
func (s *TaskStore) MarkFailed(id, errorMessage string) error {
	return s.update(id, func(task *model.DownloadTask) error {
		if !task.Status.CanTransition(model.TaskStatusFailed) {
			return fmt.Errorf("illegal transition %s -> %s for task %s", task.Status, model.TaskStatusFailed, id)
		}
		task.Status = model.TaskStatusFailed
		task.SpeedBps = 0
		task.ErrorMessage = errorMessage
		return nil
	})
}

// Delete removes the task row and its video-id index entry
func (s *TaskStore) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		tasks := tx.Bucket([]byte(TasksBucketName))
		data := tasks.Get([]byte(id))
		if data == nil {
			return ErrTaskNotFound
		}
		var task model.DownloadTask
		if err := json.Unmarshal(data, &task); err == nil && task.VideoID != "" {
			if err := tx.Bucket([]byte(VideoIDBucketName)).Delete([]byte(task.VideoID)); err != nil {
				return err
			}
		}
		return tasks.Delete([]byte(id))
	})
}

// ListByStatus returns every task currently in one of the given statuses.
// With no statuses given it returns all tasks.
func (s *TaskStore) ListByStatus(statuses ...model.TaskStatus) ([]*model.DownloadTask, error) {
	want := make(map[model.TaskStatus]bool, len(statuses))
	for _, status := range statuses {
		want[status] = true
	}

	var tasks []*model.DownloadTask
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(TasksBucketName)).ForEach(func(_, data []byte) error {
			var task model.DownloadTask
			if err := json.Unmarshal(data, &task); err != nil {
				return err
			}
			if len(want) == 0 || want[task.Status] {
				tasks = append(tasks, &task)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// update applies fn to the stored task inside one write transaction
func (s *TaskStore) update(id string, fn func(*model.DownloadTask) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		tasks := tx.Bucket([]byte(TasksBucketName))
		data := tasks.Get([]byte(id))
		if data == nil {
			return ErrTaskNotFound
		}
		var task model.DownloadTask
		if err := json.Unmarshal(data, &task); err != nil {
			return fmt.Errorf("failed to decode task %s: %w", id, err)
		}
		if err := fn(&task); err != nil {
			return err
		}
		updated, err := json.Marshal(&task)
		if err != nil {
			return fmt.Errorf("failed to encode task %s: %w", id, err)
		}
		return tasks.Put([]byte(id), updated)
	})
}
