package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig(url string) Config {
	return Config{
		URL:          url,
		Token:        "token",
		Timeout:      5 * time.Second,
		PollInterval: 10 * time.Millisecond,
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Token: "token"})
	if err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestSubmitTaskEmptyInstruction(t *testing.T) {
	t.Parallel()

	client, err := NewClient(testConfig("http://localhost:1"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.SubmitTask(context.Background(), Task{Instruction: "   "})
	if !errors.Is(err, ErrEmptyTask) {
		t.Fatalf("expected ErrEmptyTask, got %v", err)
	}
}

func TestRunPollsUntilSucceeded(t *testing.T) {
	t.Parallel()

	var polls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/tasks":
			var task Task
			if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
				t.Errorf("decode task: %v", err)
			}
			if task.Instruction != "find the opening hours" {
				t.Errorf("unexpected instruction: %q", task.Instruction)
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id":"task-1","status":"pending"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/tasks/task-1":
			if polls.Add(1) < 3 {
				fmt.Fprint(w, `{"id":"task-1","status":"running"}`)
				return
			}
			fmt.Fprint(w, `{"id":"task-1","status":"succeeded","output":"open 12:00-23:00"}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	result, err := client.Run(context.Background(), Task{Instruction: "find the opening hours"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Status != StatusSucceeded {
		t.Fatalf("Status = %s, want succeeded", result.Status)
	}
	if result.Output != "open 12:00-23:00" {
		t.Fatalf("Output = %q", result.Output)
	}
	if polls.Load() < 3 {
		t.Fatalf("expected at least 3 polls, got %d", polls.Load())
	}
}

func TestRunFailedTask(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			fmt.Fprint(w, `{"id":"task-2","status":"pending"}`)
		default:
			fmt.Fprint(w, `{"id":"task-2","status":"failed","error":"page not found"}`)
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Run(context.Background(), Task{Instruction: "do something"})
	if !errors.Is(err, ErrTaskFailed) {
		t.Fatalf("expected ErrTaskFailed, got %v", err)
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"task-3","status":"running"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Await(ctx, "task-3")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSubmitTaskServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "runner exploded", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.SubmitTask(context.Background(), Task{Instruction: "boom"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}
