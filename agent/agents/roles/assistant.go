package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	statex "github.com/magalia-labs/concierge/agent/state"
	toolx "github.com/magalia-labs/concierge/agent/tool"
)

type assistantLLMOutput struct {
	Message    string `json:"message"`
	EndSession bool   `json:"end_session,omitempty"`
}

// assistant is the standalone single-persona voice agent. Unlike the
// restaurant personas it plans tool calls through the model's native
// tool-calling interface.
type assistant struct {
	structuredRunner compose.Runnable[map[string]any, assistantLLMOutput]
	toolRunner       compose.Runnable[map[string]any, *schema.Message]
	allowedTools     map[string]struct{}
}

// NewAssistant builds the weather-capable assistant persona.
func NewAssistant(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
) (contractx.Role, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: assistant", contractx.ErrPromptMissing)
	}

	structuredRunner, err := compileStructuredGraph[assistantLLMOutput](
		ctx, chatModel, systemPrompt, "assistant.structured_graph",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: compile assistant structured graph: %v", contractx.ErrModelInvoke, err)
	}

	tools := toolx.InfosForRole(statex.RoleAssistant)
	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind assistant tools: %v", contractx.ErrModelInvoke, err)
	}
	toolRunner, err := compileToolGraph(ctx, toolModel, systemPrompt, "assistant.tool_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile assistant tool graph: %v", contractx.ErrModelInvoke, err)
	}

	allowedTools := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowedTools[t.Name] = struct{}{}
	}

	return &assistant{
		structuredRunner: structuredRunner,
		toolRunner:       toolRunner,
		allowedTools:     allowedTools,
	}, nil
}

func (a *assistant) Handle(ctx context.Context, req contractx.RoleRequest) (contractx.RoleResponse, error) {
	if len(req.ToolResults) == 0 {
		return a.planTools(ctx, req)
	}
	return a.finalize(ctx, req)
}

// planTools lets the model either call a tool or answer directly.
func (a *assistant) planTools(ctx context.Context, req contractx.RoleRequest) (contractx.RoleResponse, error) {
	input, err := marshalAssistantPayload("act", req)
	if err != nil {
		return contractx.RoleResponse{}, err
	}

	msg, err := a.toolRunner.Invoke(ctx, map[string]any{
		"input": input,
	})
	if err != nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: assistant tool planning: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: empty tool planning response", contractx.ErrSchemaViolation)
	}

	toolRequests, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return contractx.RoleResponse{}, err
	}

	if len(toolRequests) == 0 {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			return contractx.RoleResponse{}, fmt.Errorf("%w: assistant returned neither tools nor content", contractx.ErrSchemaViolation)
		}
		return contractx.RoleResponse{Message: content}, nil
	}

	for _, tr := range toolRequests {
		if _, ok := a.allowedTools[tr.Tool]; !ok {
			return contractx.RoleResponse{}, fmt.Errorf("%w: tool=%s is not allowed for the assistant", contractx.ErrSchemaViolation, tr.Tool)
		}
	}

	return contractx.RoleResponse{ToolRequests: toolRequests}, nil
}

// finalize turns tool results into the spoken answer.
func (a *assistant) finalize(ctx context.Context, req contractx.RoleRequest) (contractx.RoleResponse, error) {
	input, err := marshalAssistantPayload("finalize", req)
	if err != nil {
		return contractx.RoleResponse{}, err
	}

	out, err := a.structuredRunner.Invoke(ctx, map[string]any{
		"input": input,
	})
	if err != nil {
		return contractx.RoleResponse{}, fmt.Errorf("%w: assistant finalize: %v", contractx.ErrModelInvoke, err)
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		return contractx.RoleResponse{}, fmt.Errorf("%w: assistant message is empty", contractx.ErrSchemaViolation)
	}

	resp := contractx.RoleResponse{Message: message}
	if out.EndSession {
		resp.Handoff = &contractx.Handoff{Target: statex.RoleTerminated}
	}
	return resp, nil
}

func marshalAssistantPayload(mode string, req contractx.RoleRequest) (string, error) {
	payload := map[string]any{
		"mode":           mode,
		"utterance":      req.Utterance,
		"memory_summary": req.MemorySummary,
		"tool_results":   req.ToolResults,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal assistant payload: %v", contractx.ErrValidation, err)
	}
	return string(input), nil
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		tool := strings.TrimSpace(call.Function.Name)
		if tool == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, tool, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool: tool,
			Args: args,
		})
	}
	return reqs, nil
}
