// The assistant binary runs the standalone single-persona voice agent: one
// role, native tool calling, no restaurant front desk.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	einocallbacks "github.com/cloudwego/eino/callbacks"

	rolesx "github.com/magalia-labs/concierge/agent/agents/roles"
	contractx "github.com/magalia-labs/concierge/agent/contract"
	llmx "github.com/magalia-labs/concierge/agent/llm"
	servicex "github.com/magalia-labs/concierge/agent/service"
	statex "github.com/magalia-labs/concierge/agent/state"
	toolx "github.com/magalia-labs/concierge/agent/tool"
	configx "github.com/magalia-labs/concierge/pkg/config"
	logx "github.com/magalia-labs/concierge/pkg/logger"
	_ "github.com/magalia-labs/concierge/pkg/logger/autoload"
	sttx "github.com/magalia-labs/concierge/pkg/stt"
	ttsx "github.com/magalia-labs/concierge/pkg/tts"
	usagex "github.com/magalia-labs/concierge/pkg/usage"
	transportx "github.com/magalia-labs/concierge/transport"
)

type AppConfig struct {
	WorkspaceID string `envconfig:"WORKSPACE_ID" default:"magalia"`
	CustomerID  string `envconfig:"CUSTOMER_ID" default:"walk-in"`
	ChannelType string `envconfig:"CHANNEL_TYPE" default:"voice"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		assistantLog := logx.Component("assistant")
		assistantLog.Error().Err(err).Msg("assistant stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logx.Component("assistant")

	appCfg := configx.MustNew[AppConfig]("CONCIERGE")
	llmCfg := configx.MustNew[llmx.Config]("LLM")

	usageCollector := usagex.NewCollector()
	einocallbacks.AppendGlobalHandlers(usageCollector.Handler())
	defer usageCollector.LogSummary()

	registry, err := rolesx.NewAssistantRegistry(ctx, *llmCfg)
	if err != nil {
		return err
	}

	redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	store, err := statex.NewUpstashRedisStore(*redisCfg)
	if err != nil {
		return err
	}
	memory, err := statex.NewUpstashMemoryStore(store)
	if err != nil {
		return err
	}

	svc, err := servicex.New(store, registry, toolx.NewGateway(), memory, servicex.Config{
		WorkspaceID: appCfg.WorkspaceID,
		CustomerID:  appCfg.CustomerID,
		ChannelType: appCfg.ChannelType,
		InitialRole: statex.RoleAssistant,
	})
	if err != nil {
		return err
	}

	// The assistant always runs its own speech loop: Deepgram in,
	// ElevenLabs out.
	deepgramCfg := configx.MustNew[sttx.DeepgramConfig]("DEEPGRAM")
	transcriber, err := sttx.NewDeepgram(*deepgramCfg)
	if err != nil {
		return err
	}
	elevenCfg := configx.MustNew[ttsx.ElevenLabsConfig]("ELEVENLABS")
	synthesizer, err := ttsx.NewElevenLabs(*elevenCfg)
	if err != nil {
		return err
	}

	roomCfg := configx.MustNew[transportx.RoomConfig]("ROOM")
	room, err := transportx.NewRoomTransport(*roomCfg,
		transportx.WithTranscriber(transcriber),
		transportx.WithSynthesizer(synthesizer),
	)
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

	log.Info().Msg("assistant ready")

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
				if errors.Is(err, contractx.ErrSessionTerminated) {
					log.Info().Str("session_id", utterance.SessionID).Msg("utterance after session end")
					continue
				}
				log.Error().Err(err).Str("session_id", utterance.SessionID).Msg("dispatch failed")
				continue
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
