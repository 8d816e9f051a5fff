package api

import (
	"time"

	"transsrt/internal/jobs"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:             job.ID,
		FileName:       job.FileName,
		Format:         job.Format,
		SourceLanguage: job.SourceLanguage,
		TargetLanguage: job.TargetLanguage,
		Provider:       job.Provider,
		Status:         string(job.Status),
		Entries:        job.Entries,
		Chunks:         job.Chunks,
		Attempts:       job.Attempts,
		Retries:        job.Retries,
		DurationMS:     job.Duration.Milliseconds(),
		OutputName:     job.OutputName,
		ErrorKind:      job.ErrorKind,
		ErrorMessage:   job.ErrorMessage,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		dto.UpdatedAt = job.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromJobs converts a slice of job records, skipping nil entries.
func FromJobs(list []*jobs.Job) []Job {
	if len(list) == 0 {
		return nil
	}
	out := make([]Job, 0, len(list))
	for _, job := range list {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job))
	}
	return out
}

// MergeJobStats returns counts for every status, including zeroes.
func MergeJobStats(stats map[jobs.Status]int) map[string]int {
	out := map[string]int{
		string(jobs.StatusRunning):   0,
		string(jobs.StatusCompleted): 0,
		string(jobs.StatusFailed):    0,
	}
	for status, count := range stats {
		out[string(status)] += count
	}
	return out
}

// ParseJobTime parses an API timestamp. The zero time is returned for empty
// or malformed values.
func ParseJobTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
