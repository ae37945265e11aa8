package download

import (
	"fmt"
	"sync"
	"time"

	"github.com/hlsget/hls-downloader/internal/model"
	"github.com/hlsget/hls-downloader/internal/store"
)

// memStore is an in-memory Store for engine tests
type memStore struct {
	mu    sync.Mutex
	tasks map[string]*model.DownloadTask
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[string]*model.DownloadTask)}
}

func (m *memStore) ensure() {
	if m.tasks == nil {
		m.tasks = make(map[string]*model.DownloadTask)
	}
}

func (m *memStore) Insert(task *model.DownloadTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	copy := *task
	m.tasks[task.ID] = &copy
	return nil
}

func (m *memStore) GetByID(id string) (*model.DownloadTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	task, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	copy := *task
	return &copy, nil
}

func (m *memStore) GetByVideoID(videoID string) (*model.DownloadTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	for _, task := range m.tasks {
		if task.VideoID == videoID {
			copy := *task
			return &copy, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (m *memStore) UpdateStatus(id string, status model.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	task, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	if !task.Status.CanTransition(status) {
		return fmt.Errorf("illegal transition %s -> %s", task.Status, status)
	}
	task.Status = status
	if status == model.TaskStatusPending {
		task.ErrorMessage = ""
	}
	return nil
}

func (m *memStore) UpdateProgress(id string, percent float64, downloadedBytes, speedBps, totalBytes int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	task, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Progress = percent
	task.DownloadedBytes = downloadedBytes
	task.SpeedBps = speedBps
	task.TotalBytes = totalBytes
	return nil
}

func (m *memStore) SetDuration(id string, durationSeconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	task, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.DurationSeconds = durationSeconds
	return nil
}

func (m *memStore) MarkCompleted(id string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	task, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = model.TaskStatusCompleted
	task.Progress = 100
	task.SpeedBps = 0
	task.CompletedAt = &completedAt
	return nil
}

func (m *memStore) MarkFailed(id, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	task, ok := m.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = model.TaskStatusFailed
	task.SpeedBps = 0
	task.ErrorMessage = errorMessage
	return nil
}

func (m *memStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) ListByStatus(statuses ...model.TaskStatus) ([]*model.DownloadTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure()
	want := make(map[model.TaskStatus]bool, len(statuses))
	for _, status := range statuses {
		want[status] = true
	}
	var tasks []*model.DownloadTask
	for _, task := range m.tasks {
		if len(want) == 0 || want[task.Status] {
			copy := *task
			tasks = append(tasks, &copy)
		}
	}
	return tasks, nil
}
