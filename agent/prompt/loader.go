package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/receptionist.txt
	receptionistRaw string

	//go:embed template/reservations.txt
	reservationsRaw string

	//go:embed template/takeaway.txt
	takeawayRaw string

	//go:embed template/payment.txt
	paymentRaw string

	//go:embed template/assistant.txt
	assistantRaw string
)

// PromptSet holds loaded prompt content, one system prompt per persona.
type PromptSet struct {
	Receptionist string
	Reservations string
	Takeaway     string
	Payment      string
	Assistant    string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// Safe to call concurrently; the embed is compile-time, trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Receptionist: strings.TrimSpace(receptionistRaw),
		Reservations: strings.TrimSpace(reservationsRaw),
		Takeaway:     strings.TrimSpace(takeawayRaw),
		Payment:      strings.TrimSpace(paymentRaw),
		Assistant:    strings.TrimSpace(assistantRaw),
	}
}
