package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	statex "github.com/magalia-labs/concierge/agent/state"
	llmapix "github.com/magalia-labs/concierge/pkg/llmapi"
)

// Config fans one provider configuration out to per-role model settings.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.4"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	ReceptionistModel string `envconfig:"RECEPTIONIST_MODEL" split_words:"true"`
	ReservationsModel string `envconfig:"RESERVATIONS_MODEL" split_words:"true"`
	TakeawayModel     string `envconfig:"TAKEAWAY_MODEL" split_words:"true"`
	PaymentModel      string `envconfig:"PAYMENT_MODEL" split_words:"true"`
	AssistantModel    string `envconfig:"ASSISTANT_MODEL" split_words:"true"`

	ReceptionistTemperature float32 `envconfig:"RECEPTIONIST_TEMPERATURE" split_words:"true" default:"-1"`
	ReservationsTemperature float32 `envconfig:"RESERVATIONS_TEMPERATURE" split_words:"true" default:"-1"`
	TakeawayTemperature     float32 `envconfig:"TAKEAWAY_TEMPERATURE" split_words:"true" default:"-1"`
	PaymentTemperature      float32 `envconfig:"PAYMENT_TEMPERATURE" split_words:"true" default:"-1"`
	AssistantTemperature    float32 `envconfig:"ASSISTANT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrConfiguration)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrConfiguration)
	}
	return nil
}

// For returns the model configuration used by a role, applying per-role
// model and temperature overrides when set.
func (c Config) For(role statex.RoleType) llmapix.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch role {
	case statex.RoleReceptionist:
		override(c.ReceptionistModel, c.ReceptionistTemperature)
	case statex.RoleReservations:
		override(c.ReservationsModel, c.ReservationsTemperature)
	case statex.RoleTakeaway:
		override(c.TakeawayModel, c.TakeawayTemperature)
	case statex.RolePayment:
		override(c.PaymentModel, c.PaymentTemperature)
	case statex.RoleAssistant:
		override(c.AssistantModel, c.AssistantTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return llmapix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}
