// Package apiclient talks to a running TransSRT daemon over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"transsrt/internal/api"
)

// ErrAPIUnavailable reports that no daemon is configured or reachable.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// Client is a daemon API client.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// Error is a non-2xx daemon reply carrying the API error body.
type Error struct {
	Status int
	Code   string
	Msg    string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("daemon returned status %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// TranslateResult is a translated file returned by the daemon.
type TranslateResult struct {
	JobID    string
	FileName string
	Content  []byte
}

// New returns a client for bind ("host:port" or a URL). An empty bind
// returns a nil client whose methods report ErrAPIUnavailable.
func New(bind, token string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:  base,
		token: token,
		// No timeout: translations run as long as the engine needs.
		http: &http.Client{},
	}, nil
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (api.HealthResponse, error) {
	var payload api.HealthResponse
	err := c.getJSON(ctx, "/health", nil, &payload)
	return payload, err
}

// ListJobs fetches GET /api/jobs.
func (c *Client) ListJobs(ctx context.Context, limit int, statuses ...string) ([]api.Job, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	for _, status := range statuses {
		if strings.TrimSpace(status) != "" {
			values.Add("status", status)
		}
	}
	var payload api.JobListResponse
	if err := c.getJSON(ctx, "/api/jobs", values, &payload); err != nil {
		return nil, err
	}
	return payload.Jobs, nil
}

// GetJob fetches GET /api/jobs/{id}.
func (c *Client) GetJob(ctx context.Context, id string) (api.Job, error) {
	var payload api.JobResponse
	err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(id), nil, &payload)
	return payload.Job, err
}

// Translate uploads a subtitle file to POST /translate. Empty language
// arguments use the daemon's configured pair.
func (c *Client) Translate(ctx context.Context, fileName string, data []byte, source, target string) (TranslateResult, error) {
	if c == nil {
		return TranslateResult{}, ErrAPIUnavailable
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return TranslateResult{}, err
	}
	if _, err := part.Write(data); err != nil {
		return TranslateResult{}, err
	}
	for field, value := range map[string]string{"source_language": source, "target_language": target} {
		if value = strings.TrimSpace(value); value != "" {
			if err := mw.WriteField(field, value); err != nil {
				return TranslateResult{}, err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return TranslateResult{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/translate", nil, &body)
	if err != nil {
		return TranslateResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return TranslateResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return TranslateResult{}, decodeError(resp)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return TranslateResult{}, fmt.Errorf("read translated file: %w", err)
	}
	result := TranslateResult{JobID: resp.Header.Get("X-Job-ID"), Content: content}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		result.FileName = params["filename"]
	}
	return result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, values, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, values url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var payload api.ErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
		apiErr.Code = payload.Error.Code
		apiErr.Msg = payload.Error.Message
	}
	return apiErr
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
