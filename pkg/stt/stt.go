// Package stt turns caller audio into text. Two providers are supported:
// Deepgram's REST listen endpoint and OpenAI Whisper.
package stt

import (
	"context"
	"errors"
	"io"
)

// Transcriber converts a single audio clip into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error)
}

var ErrEmptyAudio = errors.New("audio payload is empty")
