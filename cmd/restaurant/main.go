package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	einocallbacks "github.com/cloudwego/eino/callbacks"

	rolesx "github.com/magalia-labs/concierge/agent/agents/roles"
	contractx "github.com/magalia-labs/concierge/agent/contract"
	llmx "github.com/magalia-labs/concierge/agent/llm"
	servicex "github.com/magalia-labs/concierge/agent/service"
	statex "github.com/magalia-labs/concierge/agent/state"
	toolx "github.com/magalia-labs/concierge/agent/tool"
	configx "github.com/magalia-labs/concierge/pkg/config"
	llmapix "github.com/magalia-labs/concierge/pkg/llmapi"
	logx "github.com/magalia-labs/concierge/pkg/logger"
	_ "github.com/magalia-labs/concierge/pkg/logger/autoload"
	sttx "github.com/magalia-labs/concierge/pkg/stt"
	ttsx "github.com/magalia-labs/concierge/pkg/tts"
	usagex "github.com/magalia-labs/concierge/pkg/usage"
	transportx "github.com/magalia-labs/concierge/transport"
)

const (
	collaboratorApology     = "I'm sorry, I'm having trouble with that right now. Could you say that again?"
	invalidTransitionNotice = "I can't transfer you there from here. Let's pick up where we left off."
)

type AppConfig struct {
	StateBackend string `envconfig:"STATE_BACKEND" default:"upstash"`
	WorkspaceID  string `envconfig:"WORKSPACE_ID" default:"magalia"`
	CustomerID   string `envconfig:"CUSTOMER_ID" default:"walk-in"`
	ChannelType  string `envconfig:"CHANNEL_TYPE" default:"voice"`

	// SpeechToText selects the in-process transcriber: "deepgram",
	// "whisper", or empty to rely on the gateway's recognized text.
	SpeechToText string `envconfig:"SPEECH_TO_TEXT" default:""`
	// TextToSpeech selects the in-process synthesizer: "elevenlabs" or
	// empty to send text-only replies.
	TextToSpeech string `envconfig:"TEXT_TO_SPEECH" default:""`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		restaurantLog := logx.Component("restaurant")
		restaurantLog.Error().Err(err).Msg("concierge stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logx.Component("restaurant")

	appCfg := configx.MustNew[AppConfig]("CONCIERGE")
	llmCfg := configx.MustNew[llmx.Config]("LLM")

	usageCollector := usagex.NewCollector()
	einocallbacks.AppendGlobalHandlers(usageCollector.Handler())
	defer usageCollector.LogSummary()

	registry, err := rolesx.NewRegistry(ctx, *llmCfg)
	if err != nil {
		return err
	}

	store, memory, closeStore, err := buildStores(ctx, appCfg.StateBackend)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := servicex.New(store, registry, toolx.NewGateway(), memory, servicex.Config{
		WorkspaceID: appCfg.WorkspaceID,
		CustomerID:  appCfg.CustomerID,
		ChannelType: appCfg.ChannelType,
	})
	if err != nil {
		return err
	}

	speechOpts, err := buildSpeechOptions(appCfg.SpeechToText, appCfg.TextToSpeech, *llmCfg)
	if err != nil {
		return err
	}

	roomCfg := configx.MustNew[transportx.RoomConfig]("ROOM")
	room, err := transportx.NewRoomTransport(*roomCfg, speechOpts...)
	if err != nil {
		return err
	}
	if err := room.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := room.Disconnect(context.Background()); err != nil && !errors.Is(err, transportx.ErrNotConnected) {
			log.Warn().Err(err).Msg("room disconnect failed")
		}
	}()

	log.Info().Str("backend", appCfg.StateBackend).Msg("concierge ready")
	return serve(ctx, svc, room)
}

func serve(ctx context.Context, svc *servicex.Concierge, room transportx.Transport) error {
	log := logx.Component("restaurant")

	for {
		select {
		case <-ctx.Done():
			return nil
		case utterance, ok := <-room.Utterances():
			if !ok {
				return errors.New("room connection closed")
			}

			reply, err := svc.HandleUtterance(ctx, utterance.SessionID, utterance.Text)
			if err != nil {
				msg, recovered := recoveryReply(err)
				if !recovered {
					if errors.Is(err, contractx.ErrSessionTerminated) {
						log.Info().Str("session_id", utterance.SessionID).Msg("utterance after session end")
					} else {
						log.Error().Err(err).Str("session_id", utterance.SessionID).Msg("dispatch failed")
					}
					continue
				}
				log.Warn().Err(err).Str("session_id", utterance.SessionID).Msg("recovered in place")
				reply = msg
			}

			if err := room.Send(ctx, transportx.Reply{
				SessionID: utterance.SessionID,
				Text:      reply,
			}); err != nil {
				return err
			}
		}
	}
}

// recoveryReply maps dispatch errors the session survives in place to the
// message spoken on the channel. Anything else drops the turn.
func recoveryReply(err error) (string, bool) {
	switch {
	case errors.Is(err, contractx.ErrCollaborator):
		return collaboratorApology, true
	case errors.Is(err, contractx.ErrInvalidTransition):
		return invalidTransitionNotice, true
	}
	return "", false
}

func buildSpeechOptions(sttProvider, ttsProvider string, llmCfg llmx.Config) ([]transportx.RoomOption, error) {
	var opts []transportx.RoomOption

	switch strings.ToLower(strings.TrimSpace(sttProvider)) {
	case "":
	case "deepgram":
		deepgramCfg := configx.MustNew[sttx.DeepgramConfig]("DEEPGRAM")
		transcriber, err := sttx.NewDeepgram(*deepgramCfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transportx.WithTranscriber(transcriber))
	case "whisper":
		client := llmapix.NewClient(llmCfg.For(statex.RoleAssistant))
		if client == nil {
			return nil, errors.New("whisper transcription requires an llm api key")
		}
		opts = append(opts, transportx.WithTranscriber(sttx.NewWhisper(client)))
	default:
		return nil, errors.New("unknown speech-to-text provider: " + sttProvider)
	}

	switch strings.ToLower(strings.TrimSpace(ttsProvider)) {
	case "":
	case "elevenlabs":
		elevenCfg := configx.MustNew[ttsx.ElevenLabsConfig]("ELEVENLABS")
		synthesizer, err := ttsx.NewElevenLabs(*elevenCfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transportx.WithSynthesizer(synthesizer))
	default:
		return nil, errors.New("unknown text-to-speech provider: " + ttsProvider)
	}

	return opts, nil
}

func buildStores(ctx context.Context, backend string) (statex.Store, contractx.MemoryStore, func(), error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "postgres":
		pgCfg := configx.MustNew[statex.PostgresConfig]("POSTGRES")
		pg, err := statex.NewPostgresStore(*pgCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, nil, err
		}
		return pg, nil, func() { _ = pg.Close() }, nil
	case "", "upstash":
		redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		redis, err := statex.NewUpstashRedisStore(*redisCfg)
		if err != nil {
			return nil, nil, nil, err
		}
		memory, err := statex.NewUpstashMemoryStore(redis)
		if err != nil {
			return nil, nil, nil, err
		}
		return redis, memory, func() {}, nil
	default:
		return nil, nil, nil, errors.New("unknown state backend: " + backend)
	}
}
