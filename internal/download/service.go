package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hlsget/hls-downloader/internal/fetch"
	"github.com/hlsget/hls-downloader/internal/model"
	"github.com/hlsget/hls-downloader/internal/store"
)

// stopMode records why a running job's context was cancelled
type stopMode int32

const (
	stopNone stopMode = iota
	stopPause
	stopCancel
)

// job is one running download keyed by task id in the registry
type job struct {
	cancel context.CancelFunc

	mu   sync.Mutex
	mode stopMode
}

func (j *job) stop(mode stopMode) {
	j.mu.Lock()
	j.mode = mode
	j.mu.Unlock()
	j.cancel()
}

func (j *job) stopMode() stopMode {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.mode
}

// ErrDuplicateTask is returned by AddTask when the video already has a task.
var ErrDuplicateTask = errors.New("task already exists")

// Service handles segment download operations. It owns the registry of
// running jobs; pause, resume and cancel operate purely through that
// registry plus the task store.
type Service struct {
	store      Store
	fetcher    fetch.Fetcher
	ivProvider IVProvider

	jobs       map[string]*job
	jobsMutex  sync.Mutex
	jobsWG     sync.WaitGroup
	log        *slog.Logger
}

// NewService creates a new download service
func NewService(store Store, fetcher fetch.Fetcher) *Service {
	return &Service{
		store:      store,
		fetcher:    fetcher,
		ivProvider: ZeroIV,
		jobs:       make(map[string]*job),
		log:        slog.Default().With("component", "downloader"),
	}
}

// SetIVProvider overrides the initialization-vector convention used for
// segment decryption
func (s *Service) SetIVProvider(provider IVProvider) {
	s.ivProvider = provider
}

// AddTask creates a new pending download task. A second task for a video
// that already has an unfinished or completed one is rejected.
func (s *Service) AddTask(videoID, title, sourceURL, downloadURL, savePath string) (*model.DownloadTask, error) {
	existing, err := s.store.GetByVideoID(videoID)
	if err == nil {
		return nil, fmt.Errorf("%w for video %s (status %s)", ErrDuplicateTask, videoID, existing.Status)
	}
	if !errors.Is(err, store.ErrTaskNotFound) {
		return nil, fmt.Errorf("failed to check for existing task: %w", err)
	}

	task := &model.DownloadTask{
		ID:          generateTaskID(),
		VideoID:     videoID,
		Title:       title,
		SourceURL:   sourceURL,
		DownloadURL: downloadURL,
		SavePath:    savePath,
		Status:      model.TaskStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := s.store.Insert(task); err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return task, nil
}

// GetTask returns the task with the given id
func (s *Service) GetTask(id string) (*model.DownloadTask, error) {
	return s.store.GetByID(id)
}

// ActiveTasks returns tasks that are pending or downloading
func (s *Service) ActiveTasks() ([]*model.DownloadTask, error) {
	return s.store.ListByStatus(model.TaskStatusPending, model.TaskStatusDownloading)
}

// Start transitions a pending task to Downloading and launches its job
func (s *Service) Start(id string) error {
	task, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if task.Status != model.TaskStatusPending {
		return fmt.Errorf("cannot start task in status %s", task.Status)
	}
	if task.DownloadURL == "" {
		return fmt.Errorf("task %s has no resolved download URL", id)
	}

	s.jobsMutex.Lock()
	if _, running := s.jobs[id]; running {
		s.jobsMutex.Unlock()
		return fmt.Errorf("task %s is already running", id)
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel}
	s.jobs[id] = j
	s.jobsMutex.Unlock()

	if err := s.store.UpdateStatus(id, model.TaskStatusDownloading); err != nil {
		s.unregister(id)
		cancel()
		return err
	}

	s.jobsWG.Add(1)
	go s.run(ctx, j, task)
	return nil
}

// Pause stops a downloading task after its in-flight segment and keeps its
// row for a later resume
func (s *Service) Pause(id string) error {
	s.jobsMutex.Lock()
	j, running := s.jobs[id]
	s.jobsMutex.Unlock()
	if !running {
		return fmt.Errorf("task %s is not downloading", id)
	}
	j.stop(stopPause)
	return nil
}

// Resume transitions a paused or failed task back to Pending and starts it
// again. Downloads restart from the first segment; there is no partial
// checkpointing.
func (s *Service) Resume(id string) error {
	task, err := s.store.GetByID(id)
	if err != nil {
		return err
	}
	if !task.Status.CanResume() {
		return fmt.Errorf("cannot resume task in status %s", task.Status)
	}
	if err := s.store.UpdateStatus(id, model.TaskStatusPending); err != nil {
		return err
	}
	return s.Start(id)
}

// Cancel stops the task if running and removes its row and every on-disk
// artifact. Cancellation is a deliberate terminal action, not a failure.
func (s *Service) Cancel(id string) error {
	task, err := s.store.GetByID(id)
	if err != nil {
		return err
	}

	s.jobsMutex.Lock()
	j, running := s.jobs[id]
	s.jobsMutex.Unlock()
	if running {
		// The job goroutine performs the cleanup once its workers drain.
		j.stop(stopCancel)
		return nil
	}

	if err := removeArtifacts(task.SavePath); err != nil {
		return fmt.Errorf("failed to remove artifacts: %w", err)
	}
	return s.store.Delete(id)
}

// Wait blocks until every running job goroutine has exited. Intended for
// shutdown and tests.
func (s *Service) Wait() {
	s.jobsWG.Wait()
}

// run drives one download to a terminal state
func (s *Service) run(ctx context.Context, j *job, task *model.DownloadTask) {
	defer s.jobsWG.Done()
	defer s.unregister(task.ID)

	err := s.execute(ctx, task)

	// A cancel request wins even when the download managed to finish:
	// cancellation promises zero residual rows and files, never a
	// Completed task.
	if j.stopMode() == stopCancel {
		if err := removeArtifacts(task.SavePath); err != nil {
			s.log.Error("failed to remove artifacts", "task", task.ID, "err", err)
		}
		if err := s.store.Delete(task.ID); err != nil {
			s.log.Error("failed to delete cancelled task", "task", task.ID, "err", err)
		}
		s.log.Info("download cancelled", "task", task.ID)
		return
	}

	if err == nil {
		if err := s.store.MarkCompleted(task.ID, time.Now()); err != nil {
			s.log.Error("failed to mark task completed", "task", task.ID, "err", err)
		}
		s.log.Info("download completed", "task", task.ID, "video", task.VideoID)
		return
	}

	switch j.stopMode() {
	case stopPause:
		if err := s.store.UpdateStatus(task.ID, model.TaskStatusPaused); err != nil {
			s.log.Error("failed to pause task", "task", task.ID, "err", err)
		}
		s.log.Info("download paused", "task", task.ID)
	default:
		if markErr := s.store.MarkFailed(task.ID, err.Error()); markErr != nil {
			s.log.Error("failed to mark task failed", "task", task.ID, "err", markErr)
		}
		s.log.Warn("download failed", "task", task.ID, "err", err)
	}
}

func (s *Service) unregister(id string) {
	s.jobsMutex.Lock()
	delete(s.jobs, id)
	s.jobsMutex.Unlock()
}

// generateTaskID generates a unique task ID
func generateTaskID() string {
	return "task-" + uuid.New().String()
}
