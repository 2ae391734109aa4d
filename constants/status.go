package constants

// JobStatus is the canonical status for extraction job records.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // queued for processing
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOK      JobStatus = "OK"      // extraction completed
	JobStatusReview  JobStatus = "REVIEW"  // completed but requires human review
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// AttemptStatus is the outcome of one parse attempt within a job.
type AttemptStatus string

const (
	AttemptRunning AttemptStatus = "RUNNING"
	AttemptOK      AttemptStatus = "OK"
	AttemptFailed  AttemptStatus = "FAILED"
)
