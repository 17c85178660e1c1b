// Package browser submits one-shot navigation tasks to a headless browser
// runner over its REST API and waits for the terminal result.
package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	URL          string        `split_words:"true" required:"true"`
	Token        string        `split_words:"true" required:"true"`
	Timeout      time.Duration `split_words:"true" default:"10s"`
	PollInterval time.Duration `split_words:"true" default:"2s"`
}

// Task describes a single natural-language instruction for the runner.
type Task struct {
	Instruction string `json:"instruction"`
	StartURL    string `json:"start_url,omitempty"`
}

type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
)

type TaskResult struct {
	ID     string     `json:"id"`
	Status TaskStatus `json:"status"`
	Output string     `json:"output,omitempty"`
	Error  string     `json:"error,omitempty"`
}

var (
	ErrTaskFailed = errors.New("browser task failed")
	ErrEmptyTask  = errors.New("task instruction is empty")
)

type Client struct {
	baseURL      string
	token        string
	pollInterval time.Duration
	httpClient   *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("browser runner url is required")
	}

	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        strings.TrimSpace(cfg.Token),
		pollInterval: pollInterval,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	return client, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// SubmitTask enqueues the task and returns its runner-assigned id.
func (c *Client) SubmitTask(ctx context.Context, task Task) (string, error) {
	if strings.TrimSpace(task.Instruction) == "" {
		return "", ErrEmptyTask
	}

	body, err := json.Marshal(task)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tasks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("browser runner returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result TaskResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if result.ID == "" {
		return "", errors.New("browser runner returned no task id")
	}
	return result.ID, nil
}

// Await polls the task until it reaches a terminal status or ctx is done.
func (c *Client) Await(ctx context.Context, taskID string) (TaskResult, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		result, err := c.fetchTask(ctx, taskID)
		if err != nil {
			return TaskResult{}, err
		}

		switch result.Status {
		case StatusSucceeded:
			return result, nil
		case StatusFailed:
			return result, fmt.Errorf("%w: %s", ErrTaskFailed, result.Error)
		}

		select {
		case <-ctx.Done():
			return TaskResult{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Run submits the task and blocks until it finishes.
func (c *Client) Run(ctx context.Context, task Task) (TaskResult, error) {
	taskID, err := c.SubmitTask(ctx, task)
	if err != nil {
		return TaskResult{}, err
	}
	return c.Await(ctx, taskID)
}

func (c *Client) fetchTask(ctx context.Context, taskID string) (TaskResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/tasks/"+url.PathEscape(taskID), nil)
	if err != nil {
		return TaskResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TaskResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return TaskResult{}, fmt.Errorf("browser runner returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var result TaskResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return TaskResult{}, fmt.Errorf("decode task response: %w", err)
	}
	return result, nil
}
