package model

// TaskStatus represents the status of a download task
type TaskStatus string

const (
	// TaskStatusPending means the task is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusDownloading means the download is in progress
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusPaused means the task was paused by user
	TaskStatusPaused TaskStatus = "Paused"

	// TaskStatusCompleted means the task finished successfully
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusFailed means the task failed with an error
	TaskStatusFailed TaskStatus = "Failed"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the task is currently transferring bytes
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusDownloading
}

// IsFinished returns true if the task reached a terminal outcome
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusFailed
}

// CanResume returns true if the task may transition back to Pending
func (ts TaskStatus) CanResume() bool {
	return ts == TaskStatusPaused || ts == TaskStatusFailed
}

// CanTransition reports whether moving from ts to next is a legal step in
// the task state machine. Cancellation deletes the task outright and is not
// modeled as a status.
func (ts TaskStatus) CanTransition(next TaskStatus) bool {
	switch ts {
	case TaskStatusPending:
		return next == TaskStatusDownloading || next == TaskStatusFailed
	case TaskStatusDownloading:
		return next == TaskStatusCompleted || next == TaskStatusPaused || next == TaskStatusFailed
	case TaskStatusPaused, TaskStatusFailed:
		return next == TaskStatusPending
	case TaskStatusCompleted:
		return false
	}
	return false
}
