package model

// Package model defines domain data structures shared across the engines:
// download tasks, resolved sources, playlist entities, and status enums.
// Structures carry explicit state transitions and are persisted as-is by
// the task store.
