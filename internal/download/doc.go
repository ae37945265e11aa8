package download

// Package download implements the segmented download engine: it parses the
// resolved playlist, fans segment transfers out over a bounded worker pool,
// aggregates byte counters into smoothed progress reporting, decrypts keyed
// segments in place, and merges everything into a single artifact. Tasks
// are paused, resumed and cancelled through a per-task job registry backed
// by the task store.
