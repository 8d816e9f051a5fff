package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ServiceName is reported by the health endpoint.
const ServiceName = "TransSRT"

// Version is the service version reported by /health. Release builds override
// it with -ldflags "-X transsrt/internal/api.Version=...".
var Version = "1.0.0"

// Job describes a translation job in a transport-friendly format.
type Job struct {
	ID             string `json:"id"`
	FileName       string `json:"fileName"`
	Format         string `json:"format"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	Provider       string `json:"provider"`
	Status         string `json:"status"`
	Entries        int    `json:"entries"`
	Chunks         int    `json:"chunks"`
	Attempts       int    `json:"attempts"`
	Retries        int    `json:"retries"`
	DurationMS     int64  `json:"durationMs"`
	OutputName     string `json:"outputName,omitempty"`
	ErrorKind      string `json:"errorKind,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status   string         `json:"status"`
	Service  string         `json:"service"`
	Version  string         `json:"version"`
	Provider string         `json:"provider,omitempty"`
	Breaker  string         `json:"breaker,omitempty"`
	Jobs     map[string]int `json:"jobs,omitempty"`
}

// ErrorDetail is the body of an error reply.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorBody wraps ErrorDetail under the "error" key.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}
