package stt

import (
	"context"
	"io"
	"strings"

	openaisdk "github.com/openai/openai-go"
)

type WhisperTranscriber struct {
	client *openaisdk.Client
	model  openaisdk.AudioModel
}

func NewWhisper(client *openaisdk.Client) *WhisperTranscriber {
	return &WhisperTranscriber{
		client: client,
		model:  openaisdk.AudioModelWhisper1,
	}
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, audio io.Reader, mimeType string) (string, error) {
	if audio == nil {
		return "", ErrEmptyAudio
	}

	transcription, err := w.client.Audio.Transcriptions.New(ctx, openaisdk.AudioTranscriptionNewParams{
		File:  openaisdk.File(audio, "utterance.wav", mimeType),
		Model: w.model,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(transcription.Text), nil
}
