package platform

// Package platform contains filesystem helpers: download directory
// resolution and safe per-task directory naming.
