package testsupport

import (
	"context"
	"testing"

	"transsrt/internal/config"
	"transsrt/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StartJob records a running job for tests using the provided store.
func StartJob(t testing.TB, store *jobs.Store, fileName string) *jobs.Job {
	t.Helper()

	job, err := store.Start(context.Background(), jobs.Job{
		FileName:       fileName,
		Format:         "srt",
		SourceLanguage: "ko",
		TargetLanguage: "en",
		Provider:       "mock",
	})
	if err != nil {
		t.Fatalf("store.Start: %v", err)
	}
	return job
}
