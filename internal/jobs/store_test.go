package jobs_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"transsrt/internal/jobs"
	"transsrt/internal/testsupport"
)

func TestStartAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job := testsupport.StartJob(t, store, "episode.srt")
	if job.ID == "" || job.Status != jobs.StatusRunning {
		t.Fatalf("unexpected job %+v", job)
	}
	if filepath.Base(store.Path()) != "jobs.db" {
		t.Fatalf("unexpected db path %s", store.Path())
	}

	fetched, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched == nil || fetched.FileName != "episode.srt" || fetched.Provider != "mock" {
		t.Fatalf("unexpected fetched job %+v", fetched)
	}

	byPrefix, err := store.Get(context.Background(), job.ID[:8])
	if err != nil || byPrefix == nil || byPrefix.ID != job.ID {
		t.Fatalf("prefix lookup = %+v, %v", byPrefix, err)
	}

	missing, err := store.Get(context.Background(), "does-not-exist")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v, %v", missing, err)
	}
}

func TestStartRequiresFileName(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Start(context.Background(), jobs.Job{}); err == nil {
		t.Fatal("expected error when file name missing")
	}
}

func TestFinishTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ok := testsupport.StartJob(t, store, "ok.srt")
	if err := store.Finish(ctx, ok.ID, jobs.Outcome{
		Entries: 120, Chunks: 3, Attempts: 5, Retries: 2,
		Duration: 1500 * time.Millisecond, OutputName: "ok_en.srt",
	}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	done, _ := store.Get(ctx, ok.ID)
	if done.Status != jobs.StatusCompleted || done.Attempts != 5 || done.Duration != 1500*time.Millisecond || done.OutputName != "ok_en.srt" {
		t.Fatalf("unexpected completed job %+v", done)
	}
	if !done.IsTerminal() {
		t.Fatal("completed job should be terminal")
	}

	bad := testsupport.StartJob(t, store, "bad.srt")
	if err := store.Finish(ctx, bad.ID, jobs.Outcome{ErrorKind: "validation", Err: errors.New("chunk 2/3 failed")}); err != nil {
		t.Fatalf("Finish failed job: %v", err)
	}
	failed, _ := store.Get(ctx, bad.ID)
	if failed.Status != jobs.StatusFailed || failed.ErrorKind != "validation" || failed.ErrorMessage != "chunk 2/3 failed" {
		t.Fatalf("unexpected failed job %+v", failed)
	}

	if err := store.Finish(ctx, bad.ID, jobs.Outcome{}); err == nil {
		t.Fatal("finishing a terminal job should fail")
	}
}

func TestListNewestFirstAndFilter(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.StartJob(t, store, "a.srt")
	second := testsupport.StartJob(t, store, "b.srt")
	third := testsupport.StartJob(t, store, "c.srt")
	if err := store.Finish(ctx, second.ID, jobs.Outcome{}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
		t.Fatalf("unexpected order: %v", ids(all))
	}

	running, err := store.List(ctx, 0, jobs.StatusRunning)
	if err != nil || len(running) != 2 {
		t.Fatalf("running = %v, %v", ids(running), err)
	}

	limited, err := store.List(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limited = %v, %v", ids(limited), err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[jobs.StatusRunning] != 2 || stats[jobs.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestResetRunning(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job := testsupport.StartJob(t, store, "stuck.srt")
	n, err := store.ResetRunning(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetRunning = %d, %v", n, err)
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != jobs.StatusFailed || got.ErrorMessage != jobs.DaemonStopReason {
		t.Fatalf("unexpected reset job %+v", got)
	}
}

func TestPrune(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	done := testsupport.StartJob(t, store, "done.srt")
	_ = store.Finish(ctx, done.ID, jobs.Outcome{})
	testsupport.StartJob(t, store, "running.srt")

	n, err := store.Prune(ctx, time.Now().Add(time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("Prune = %d, %v", n, err)
	}
	remaining, _ := store.List(ctx, 0)
	if len(remaining) != 1 || remaining[0].Status != jobs.StatusRunning {
		t.Fatalf("unexpected remaining %v", ids(remaining))
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.StartJob(t, store, "x.srt")
	_ = store.Close()

	reopened := testsupport.MustOpenStore(t, cfg)
	if err := reopened.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	list, _ := reopened.List(context.Background(), 0)
	if len(list) != 1 {
		t.Fatalf("expected persisted job, got %d", len(list))
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := jobs.ParseStatus("failed"); !ok || s != jobs.StatusFailed {
		t.Fatalf("ParseStatus = %q, %v", s, ok)
	}
	if _, ok := jobs.ParseStatus("pending"); ok {
		t.Fatal("unknown status accepted")
	}
}

func ids(list []*jobs.Job) []string {
	out := make([]string, len(list))
	for i, j := range list {
		out[i] = j.FileName
	}
	return out
}
