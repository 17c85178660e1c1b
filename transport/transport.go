// Package transport carries utterances between the voice room and the
// dialogue service. The service never touches audio frames directly: the
// room gateway performs speech recognition and synthesis, and this package
// moves finished text both ways.
package transport

import (
	"context"
	"errors"
	"time"
)

// Utterance is one recognized caller turn delivered by the room.
type Utterance struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// Reply is one spoken response pushed back to the room.
type Reply struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Transport is a live connection to one voice room.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	// Utterances delivers recognized turns until the connection closes.
	Utterances() <-chan Utterance
	Send(ctx context.Context, reply Reply) error
}

var (
	ErrNotConnected     = errors.New("transport is not connected")
	ErrAlreadyConnected = errors.New("transport is already connected")
)
