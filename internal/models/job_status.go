package models

// Job status constants for BackgroundJob.Status.
const (
	JobStatusEnqueued  = "enqueued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusSkipped   = "skipped"
)

// Related entity types for BackgroundJob records.
const (
	EntityTypeLink       = "link"
	EntityTypeCollection = "collection"
)
