package jobs

import "time"

// Status represents the lifecycle of a translation job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DaemonStopReason is the error message set on jobs left running by a daemon
// that exited before they finished.
const DaemonStopReason = "Daemon stopped before the job finished"

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusRunning, StatusCompleted, StatusFailed:
		return Status(value), true
	}
	return "", false
}

// Job is one translation request.
type Job struct {
	ID             string        `json:"id"`
	FileName       string        `json:"file_name"`
	Format         string        `json:"format"`
	SourceLanguage string        `json:"source_language"`
	TargetLanguage string        `json:"target_language"`
	Provider       string        `json:"provider"`
	Entries        int           `json:"entries"`
	Chunks         int           `json:"chunks"`
	Status         Status        `json:"status"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
	Attempts       int           `json:"attempts"`
	Retries        int           `json:"retries"`
	Duration       time.Duration `json:"duration"`
	OutputName     string        `json:"output_name,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsTerminal reports whether the job has finished.
func (j *Job) IsTerminal() bool {
	return j != nil && (j.Status == StatusCompleted || j.Status == StatusFailed)
}

// Outcome carries the final accounting of a job.
type Outcome struct {
	Entries    int
	Chunks     int
	Attempts   int
	Retries    int
	Duration   time.Duration
	OutputName string
	ErrorKind  string
	Err        error
}
