package stt

import (
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

type DeepgramConfig struct {
	APIKey   string        `split_words:"true" required:"true"`
	BaseURL  string        `split_words:"true" default:"https://api.deepgram.com"`
	Model    string        `split_words:"true" default:"nova-3-general"`
	Language string        `split_words:"true" default:"en"`
	Timeout  time.Duration `split_words:"true" default:"30s"`
}

type DeepgramTranscriber struct {
	baseURL    string
	apiKey     string
	model      string
	language   string
	httpClient *http.Client
}

func NewDeepgram(cfg DeepgramConfig) (*DeepgramTranscriber, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("deepgram api key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.deepgram.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "nova-3-general"
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &DeepgramTranscriber{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		language: language,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *DeepgramTranscriber) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	if audio == nil {
		return "", ErrEmptyAudio
	}

	query := url.Values{}
	query.Set("model", d.model)
	query.Set("language", d.language)

	endpoint := d.baseURL + "/v1/listen?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, audio)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("deepgram returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode deepgram response: %w", err)
	}

	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", errors.New("deepgram returned no transcript")
	}
	return strings.TrimSpace(parsed.Results.Channels[0].Alternatives[0].Transcript), nil
}
