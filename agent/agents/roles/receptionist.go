package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	statex "github.com/magalia-labs/concierge/agent/state"
)

const (
	intentReservation = "reservation"
	intentTakeaway    = "takeaway"
	intentEndSession  = "end_session"
	intentOther       = "other"
)

// receptionistLLMOutput is the intent classification the receptionist
// produces for every utterance.
type receptionistLLMOutput struct {
	Intent       string `json:"intent"`
	PartySize    int    `json:"party_size,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Reply        string `json:"reply"`
}

// receptionist greets callers and routes them by classified intent. It is
// the initial role of every session.
type receptionist struct {
	runner compose.Runnable[map[string]any, receptionistLLMOutput]
}

func newReceptionist(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (*receptionist, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: receptionist", contractx.ErrPromptMissing)
	}

	runner, err := compileStructuredGraph[receptionistLLMOutput](
		ctx, chatModel, systemPrompt, "receptionist.intent_graph",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: compile receptionist graph: %v", contractx.ErrModelInvoke, err)
	}
	return &receptionist{runner: runner}, nil
}

func (r *receptionist) Handle(ctx context.Context, req contractx.RoleRequest) (contractx.RoleResponse, error) {
	if req.Session == nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: session is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"utterance":      req.Utterance,
		"memory_summary": req.MemorySummary,
		"session":        req.Session.Summarize(),
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: marshal receptionist payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: receptionist invoke: %v", contractx.ErrModelInvoke, err)
	}

	reply := strings.TrimSpace(out.Reply)
	patch := contractx.ContextPatch{
		CustomerName: strings.TrimSpace(out.CustomerName),
	}
	if out.PartySize > 0 {
		patch.PartySize = out.PartySize
	}

	switch strings.ToLower(strings.TrimSpace(out.Intent)) {
	case intentReservation:
		if reply == "" {
			reply = "Of course, let me hand you over to reservations."
		}
		return contractx.RoleResponse{
			Message: reply,
			Handoff: &contractx.Handoff{
				Target: statex.RoleReservations,
				Patch:  patch,
				Reason: "caller wants to book a table",
			},
		}, nil
	case intentTakeaway:
		if reply == "" {
			reply = "Sure, let me take your order."
		}
		return contractx.RoleResponse{
			Message: reply,
			Handoff: &contractx.Handoff{
				Target: statex.RoleTakeaway,
				Patch:  patch,
				Reason: "caller wants a takeaway order",
			},
		}, nil
	case intentEndSession:
		if reply == "" {
			reply = "Thank you for calling Magalia. Goodbye!"
		}
		return contractx.RoleResponse{
			Message: reply,
			Handoff: &contractx.Handoff{
				Target: statex.RoleTerminated,
				Reason: "caller ended the session",
			},
		}, nil
	case intentOther:
		if reply == "" {
			return contractx.RoleResponse{}, fmt.Errorf("%w: receptionist reply is empty", contractx.ErrSchemaViolation)
		}
		return contractx.RoleResponse{
			Message: reply,
			Patch:   patch,
		}, nil
	default:
		return contractx.RoleResponse{}, fmt.Errorf("%w: unsupported intent %q", contractx.ErrSchemaViolation, out.Intent)
	}
}
