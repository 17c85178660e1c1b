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

// personaLLMOutput is the structured turn output shared by the restaurant
// personas. Tool requests come back through the same JSON envelope.
type personaLLMOutput struct {
	Message      string                  `json:"message"`
	Patch        contractx.ContextPatch  `json:"context_patch,omitempty"`
	Handoff      string                  `json:"handoff,omitempty"`
	EndSession   bool                    `json:"end_session,omitempty"`
	ToolRequests []contractx.ToolRequest `json:"tool_requests,omitempty"`
}

// guardFunc inspects the would-be session (patch already applied to a copy)
// and may veto the turn, returning the message spoken instead. target is the
// normalized handoff destination, empty when the turn stays in role.
type guardFunc func(next *statex.SessionContext, target statex.RoleType, out personaLLMOutput) (vetoMessage string)

type persona struct {
	role   statex.RoleType
	runner compose.Runnable[map[string]any, personaLLMOutput]
	guard  guardFunc
}

func newPersona(
	ctx context.Context,
	role statex.RoleType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	guard guardFunc,
) (*persona, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: persona %s", contractx.ErrPromptMissing, role)
	}

	runner, err := compileStructuredGraph[personaLLMOutput](
		ctx, chatModel, systemPrompt, fmt.Sprintf("%s.structured_graph", role),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: compile persona graph for %s: %v", contractx.ErrModelInvoke, role, err)
	}

	return &persona{
		role:   role,
		runner: runner,
		guard:  guard,
	}, nil
}

func (p *persona) Handle(ctx context.Context, req contractx.RoleRequest) (contractx.RoleResponse, error) {
	if req.Session == nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: session is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"utterance":      req.Utterance,
		"memory_summary": req.MemorySummary,
		"session":        req.Session.Summarize(),
		"tool_results":   req.ToolResults,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: marshal persona payload: %v", contractx.ErrValidation, err)
	}

	out, err := p.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: persona %s invoke: %v", contractx.ErrModelInvoke, p.role, err)
	}

	// A tool round never carries patches or handoffs; the follow-up
	// invocation with tool results produces those.
	if len(out.ToolRequests) > 0 {
		if len(req.ToolResults) > 0 {
			return contractx.RoleResponse{}, fmt.Errorf("%w: persona %s requested tools twice", contractx.ErrSchemaViolation, p.role)
		}
		for _, tr := range out.ToolRequests {
			if strings.TrimSpace(tr.Tool) == "" {
				return contractx.RoleResponse{}, fmt.Errorf("%w: tool request name is empty", contractx.ErrSchemaViolation)
			}
		}
		return contractx.RoleResponse{ToolRequests: out.ToolRequests}, nil
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		return contractx.RoleResponse{}, fmt.Errorf("%w: persona %s returned empty message", contractx.ErrSchemaViolation, p.role)
	}

	handoff, err := parseHandoff(out)
	if err != nil {
		return contractx.RoleResponse{}, err
	}

	if p.guard != nil {
		var target statex.RoleType
		if handoff != nil {
			target = handoff.Target
		}
		next := *req.Session
		out.Patch.Apply(&next)
		if veto := p.guard(&next, target, out); veto != "" {
			// Keep the patch minus the vetoed checkout flag, drop the
			// transition; the caller hears why.
			patch := out.Patch
			patch.CheckedOut = false
			return contractx.RoleResponse{
				Message: veto,
				Patch:   patch,
			}, nil
		}
	}

	return contractx.RoleResponse{
		Message: message,
		Patch:   out.Patch,
		Handoff: handoff,
	}, nil
}

func parseHandoff(out personaLLMOutput) (*contractx.Handoff, error) {
	target := statex.RoleType(strings.ToLower(strings.TrimSpace(out.Handoff)))
	if out.EndSession && target == "" {
		target = statex.RoleTerminated
	}
	if target == "" {
		return nil, nil
	}
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown handoff target %q", contractx.ErrSchemaViolation, out.Handoff)
	}
	return &contractx.Handoff{Target: target}, nil
}

/* ------------------------------- Guards ---------------------------------- */

// Guards reproduce the spoken refusals of the live concierge: a persona may
// not move the session forward before its prerequisites are met.

func reservationsGuard(next *statex.SessionContext, target statex.RoleType, out personaLLMOutput) string {
	if target != statex.RolePayment {
		return ""
	}
	if next.CustomerName == "" || next.CustomerPhone == "" {
		return "Please provide your name and phone number first."
	}
	if next.ReservationTime == "" {
		return "Please provide the reservation time first."
	}
	return ""
}

func takeawayGuard(next *statex.SessionContext, target statex.RoleType, out personaLLMOutput) string {
	if target != statex.RolePayment {
		return ""
	}
	if !next.OrderPlaced() {
		return "No takeaway order on file yet. Please order something first."
	}
	return ""
}

func paymentGuard(next *statex.SessionContext, target statex.RoleType, out personaLLMOutput) string {
	// Cancelling without charging is always allowed. The checkout check does
	// not depend on a handoff being present: a bare checked_out patch must
	// pass the same prerequisites.
	if !out.Patch.CheckedOut {
		return ""
	}
	if next.Expense <= 0 {
		return "Please confirm the amount first."
	}
	if next.CardNumber == "" || next.CardExpiry == "" || next.CardCVV == "" {
		return "Please provide the credit card details first."
	}
	return ""
}
