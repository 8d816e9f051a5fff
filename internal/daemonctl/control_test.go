package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"transsrt/internal/api"
	"transsrt/internal/apiclient"
	"transsrt/internal/testsupport"
)

func TestEnsureStartedAlreadyRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.HealthResponse{Status: "healthy", Service: api.ServiceName, Version: "9.9.9"})
	}))
	t.Cleanup(srv.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = strings.TrimPrefix(srv.URL, "http://")

	result, err := EnsureStarted(context.Background(), cfg, "/does/not/exist", LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != StartStateAlreadyRunning || result.Version != "9.9.9" {
		t.Fatalf("result = %+v", result)
	}
}

func TestWaitForHealthTimesOut(t *testing.T) {
	client, _ := apiclient.New("127.0.0.1:1", "")
	_, err := WaitForHealth(context.Background(), client, 300*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "failed to start") {
		t.Fatalf("err = %v", err)
	}
}

func TestStopWithoutPIDFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if _, err := Stop(cfg, time.Second); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("err = %v", err)
	}
}

func TestStopRejectsMalformedPIDFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.WriteFile(cfg.PIDPath(), []byte("nope\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := Stop(cfg, time.Second); err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Fatalf("err = %v", err)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch(" ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable")
	}
}
