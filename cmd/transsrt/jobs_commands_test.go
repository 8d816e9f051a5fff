package main

import (
	"encoding/json"
	"testing"

	"transsrt/internal/api"
	"transsrt/internal/jobs"
	"transsrt/internal/testsupport"
)

func TestJobsListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	done := testsupport.StartJob(t, store, "done.srt")
	if err := store.Finish(t.Context(), done.ID, jobs.Outcome{Entries: 4, Chunks: 1, Attempts: 1, OutputName: "done_en.srt"}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	testsupport.StartJob(t, store, "pending.srt")

	out, _, err := runCLI(t, []string{"jobs", "list", "--status", "completed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	var list []api.Job
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode jobs list: %v\n%s", err, out)
	}
	if len(list) != 1 || list[0].FileName != "done.srt" || list[0].OutputName != "done_en.srt" {
		t.Fatalf("unexpected jobs %+v", list)
	}

	out, _, err = runCLI(t, []string{"jobs", "show", done.ID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, done.ID)
	requireContains(t, out, "done_en.srt")

	if _, _, err := runCLI(t, []string{"jobs", "show", "ffffffff"}, env.configPath); err == nil {
		t.Fatal("expected not-found error")
	}
	if _, _, err := runCLI(t, []string{"jobs", "list", "--status", "queued"}, env.configPath); err == nil {
		t.Fatal("expected invalid status error")
	}
}

func TestJobsListRemote(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startDaemon(t)

	out, _, err := runCLI(t, []string{"jobs", "list", "--remote"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list --remote: %v", err)
	}
	requireContains(t, out, "No jobs found")
}

func TestJobsPruneKeepsRecentJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	job := testsupport.StartJob(t, store, "recent.srt")
	if err := store.Finish(t.Context(), job.ID, jobs.Outcome{}); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "prune", "--older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs prune: %v", err)
	}
	requireContains(t, out, "Removed 0 finished job(s)")
}
