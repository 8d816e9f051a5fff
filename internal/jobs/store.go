package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLayout has a fixed-width fraction so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrAmbiguousID is returned by Get when an ID prefix matches several jobs.
var ErrAmbiguousID = errors.New("job id prefix is ambiguous")

const jobColumns = "id, file_name, format, source_language, target_language, provider, entries, chunks, status, error_kind, error_message, attempts, retries, duration_ms, output_name, created_at, updated_at"

// Start records a new running job and returns it with its assigned ID.
func (s *Store) Start(ctx context.Context, job Job) (*Job, error) {
	if strings.TrimSpace(job.FileName) == "" {
		return nil, errors.New("start job: file name required")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.Status = StatusRunning
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (id, file_name, format, source_language, target_language, provider, entries, chunks, status, attempts, retries, duration_ms, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)`,
		job.ID, job.FileName, job.Format, job.SourceLanguage, job.TargetLanguage, job.Provider,
		job.Entries, job.Chunks, job.Status,
		now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return &job, nil
}

// Finish moves a running job to completed, or to failed when out.Err is set.
// Finishing a job that is already terminal is an error.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) error {
	status := StatusCompleted
	var errMsg any
	var errKind any
	if out.Err != nil {
		status = StatusFailed
		errMsg = out.Err.Error()
		errKind = nullableString(out.ErrorKind)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, entries = ?, chunks = ?, attempts = ?, retries = ?, duration_ms = ?,
             output_name = ?, error_kind = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		status, out.Entries, out.Chunks, out.Attempts, out.Retries, out.Duration.Milliseconds(),
		nullableString(out.OutputName), errKind, errMsg, time.Now().UTC().Format(timeLayout),
		id, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish job %s: not found or already finished", id)
	}
	return nil
}

// Get returns the job with id, or nil when none exists. A unique ID prefix of
// at least 4 characters is accepted.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if len(id) < 4 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id LIKE ? LIMIT 2`, id+"%")
	if err != nil {
		return nil, fmt.Errorf("get job by prefix: %w", err)
	}
	defer rows.Close()
	var matches []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, id)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// List returns jobs newest first, filtered by status when statuses are given.
// A limit <= 0 returns every row.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Stats returns job counts by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()
	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// ResetRunning fails jobs left running by a previous process.
func (s *Store) ResetRunning(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_kind = 'canceled', error_message = ?, updated_at = ? WHERE status = ?`,
		StatusFailed, DaemonStopReason, time.Now().UTC().Format(timeLayout), StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("reset running jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes finished jobs created before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE status != ? AND created_at < ?`,
		StatusRunning, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job        Job
		status     string
		errKind    sql.NullString
		errMessage sql.NullString
		durationMS int64
		outputName sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.FileName,
		&job.Format,
		&job.SourceLanguage,
		&job.TargetLanguage,
		&job.Provider,
		&job.Entries,
		&job.Chunks,
		&status,
		&errKind,
		&errMessage,
		&job.Attempts,
		&job.Retries,
		&durationMS,
		&outputName,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.ErrorKind = errKind.String
	job.ErrorMessage = errMessage.String
	job.Duration = time.Duration(durationMS) * time.Millisecond
	job.OutputName = outputName.String
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
