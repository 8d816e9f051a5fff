package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"transsrt/internal/config"
	"transsrt/internal/language"
)

const userAgent = "TransSRT/1.0"

// JobSummary describes a finished translation job.
type JobSummary struct {
	JobID          string
	FileName       string
	OutputName     string
	SourceLanguage string
	TargetLanguage string
	Entries        int
	Chunks         int
	Duration       time.Duration
	ErrorKind      string
}

// Service is the notification surface used by the pipeline.
type Service interface {
	NotifyJobCompleted(ctx context.Context, job JobSummary) error
	NotifyJobFailed(ctx context.Context, job JobSummary, err error) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds an ntfy-backed service, or a no-op one when no topic is
// configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		notifySuccess: cfg.Notifications.NotifySuccess,
		client:        &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	notifySuccess bool
	client        *http.Client
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, job JobSummary) error {
	if !n.notifySuccess {
		return nil
	}
	message := fmt.Sprintf("Translated %s (%s)\n%s entries in %d chunks, %s\nOutput: %s",
		job.FileName,
		languagePair(job),
		humanize.Comma(int64(job.Entries)),
		job.Chunks,
		job.Duration.Round(time.Second),
		job.OutputName,
	)
	return n.send(ctx, payload{
		title:   "TransSRT - Translation Complete",
		message: message,
		tags:    []string{"transsrt", "completed"},
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, job JobSummary, err error) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Translation of %s (%s) failed", job.FileName, languagePair(job))
	if job.ErrorKind != "" {
		fmt.Fprintf(&builder, " [%s]", job.ErrorKind)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	if job.JobID != "" {
		fmt.Fprintf(&builder, "\nJob: %s", job.JobID)
	}

	return n.send(ctx, payload{
		title:    "TransSRT - Translation Failed",
		message:  builder.String(),
		tags:     []string{"transsrt", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "TransSRT - Test",
		message:  "Notification system test",
		tags:     []string{"transsrt", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func languagePair(job JobSummary) string {
	return language.DisplayName(job.SourceLanguage) + " to " + language.DisplayName(job.TargetLanguage)
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, JobSummary) error     { return nil }
func (noopService) NotifyJobFailed(context.Context, JobSummary, error) error { return nil }
func (noopService) TestNotification(context.Context) error                   { return nil }
func (noopService) Enabled() bool                                            { return false }
