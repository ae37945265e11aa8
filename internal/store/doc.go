package store

// Package store persists download tasks in an embedded bbolt database:
// one JSON row per task plus a video-id index, with status transitions
// validated against the task state machine on every write.
