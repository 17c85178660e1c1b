package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	logx "github.com/magalia-labs/concierge/pkg/logger"
	"github.com/magalia-labs/concierge/pkg/stt"
	"github.com/magalia-labs/concierge/pkg/tts"
)

const defaultUtteranceBuffer = 16

type RoomConfig struct {
	URL       string `split_words:"true" required:"true"`
	APIKey    string `split_words:"true" required:"true"`
	APISecret string `split_words:"true" required:"true"`
	Room      string `split_words:"true" required:"true"`
	Identity  string `split_words:"true" default:"concierge"`
	Buffer    int    `split_words:"true" default:"16"`
}

// roomEnvelope is the wire frame exchanged with the room gateway. Audio
// payloads travel base64-encoded inside the JSON frame.
type roomEnvelope struct {
	Type      string    `json:"type"`
	ID        string    `json:"id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Text      string    `json:"text,omitempty"`
	Audio     []byte    `json:"audio,omitempty"`
	Mime      string    `json:"mime,omitempty"`
	At        time.Time `json:"at,omitempty"`
}

const (
	frameUtterance = "utterance"
	frameAudio     = "audio"
	frameReply     = "reply"

	defaultAudioMime = "audio/wav"
)

// RoomTransport connects to the room gateway over a websocket and pumps
// recognized utterances into a bounded channel.
type RoomTransport struct {
	cfg RoomConfig

	// speech components run in-process: when set, raw audio frames from
	// the room are transcribed here and replies are synthesized here.
	transcriber stt.Transcriber
	synthesizer tts.Synthesizer

	mu     sync.Mutex
	ws     *websocket.Conn
	cancel context.CancelFunc

	utterances chan Utterance
	done       chan struct{}
}

type RoomOption func(*RoomTransport)

// WithTranscriber makes the transport transcribe audio frames itself
// instead of relying on the gateway to deliver recognized text.
func WithTranscriber(transcriber stt.Transcriber) RoomOption {
	return func(t *RoomTransport) {
		t.transcriber = transcriber
	}
}

// WithSynthesizer makes the transport attach synthesized audio to every
// reply it sends back to the room.
func WithSynthesizer(synthesizer tts.Synthesizer) RoomOption {
	return func(t *RoomTransport) {
		t.synthesizer = synthesizer
	}
}

func NewRoomTransport(cfg RoomConfig, opts ...RoomOption) (*RoomTransport, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("room url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, errors.New("room credentials are required")
	}
	if strings.TrimSpace(cfg.Room) == "" {
		return nil, errors.New("room name is required")
	}
	if strings.TrimSpace(cfg.Identity) == "" {
		cfg.Identity = "concierge"
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultUtteranceBuffer
	}

	t := &RoomTransport{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

func (t *RoomTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ws != nil {
		return ErrAlreadyConnected
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.cfg.APIKey+":"+t.cfg.APISecret)
	header.Set("X-Room", t.cfg.Room)
	header.Set("X-Identity", t.cfg.Identity)

	ws, _, err := websocket.Dial(ctx, t.cfg.URL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return fmt.Errorf("dial room gateway: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	t.ws = ws
	t.cancel = cancel
	t.utterances = make(chan Utterance, t.cfg.Buffer)
	t.done = make(chan struct{})

	go t.readLoop(readCtx, ws)

	transportLog := logx.Component("transport")
	transportLog.Info().
		Str("room", t.cfg.Room).
		Str("identity", t.cfg.Identity).
		Msg("connected to room gateway")
	return nil
}

func (t *RoomTransport) readLoop(ctx context.Context, ws *websocket.Conn) {
	log := logx.Component("transport")
	defer func() {
		close(t.utterances)
		close(t.done)
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("room read failed")
			}
			return
		}

		var frame roomEnvelope
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Msg("discarding malformed room frame")
			continue
		}

		switch frame.Type {
		case frameUtterance:
		case frameAudio:
			if t.transcriber == nil || len(frame.Audio) == 0 {
				continue
			}
			mime := frame.Mime
			if mime == "" {
				mime = defaultAudioMime
			}
			text, err := t.transcriber.Transcribe(ctx, bytes.NewReader(frame.Audio), mime)
			if err != nil {
				log.Warn().Err(err).Str("session_id", frame.SessionID).Msg("transcription failed")
				continue
			}
			frame.Text = text
		default:
			continue
		}

		if strings.TrimSpace(frame.Text) == "" {
			continue
		}

		if frame.ID == "" {
			frame.ID = uuid.NewString()
		}
		if frame.At.IsZero() {
			frame.At = time.Now().UTC()
		}

		utterance := Utterance{
			ID:        frame.ID,
			SessionID: frame.SessionID,
			Text:      frame.Text,
			At:        frame.At,
		}

		select {
		case t.utterances <- utterance:
		case <-ctx.Done():
			return
		}
	}
}

func (t *RoomTransport) Utterances() <-chan Utterance {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.utterances
}

func (t *RoomTransport) Send(ctx context.Context, reply Reply) error {
	t.mu.Lock()
	ws := t.ws
	t.mu.Unlock()

	if ws == nil {
		return ErrNotConnected
	}

	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}

	frame := roomEnvelope{
		Type:      frameReply,
		ID:        reply.ID,
		SessionID: reply.SessionID,
		Text:      reply.Text,
	}

	if t.synthesizer != nil {
		audio, err := t.synthesizer.Synthesize(ctx, reply.Text)
		if err != nil {
			transportLog := logx.Component("transport")
			transportLog.Warn().Err(err).
				Str("session_id", reply.SessionID).
				Msg("synthesis failed, sending text only")
		} else {
			frame.Audio = audio
			frame.Mime = "audio/mpeg"
		}
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

func (t *RoomTransport) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	ws := t.ws
	cancel := t.cancel
	done := t.done
	t.ws = nil
	t.cancel = nil
	t.mu.Unlock()

	if ws == nil {
		return ErrNotConnected
	}

	cancel()
	err := ws.Close(websocket.StatusNormalClosure, "session ended")

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err != nil && !errors.As(err, new(websocket.CloseError)) {
		return err
	}
	return nil
}
