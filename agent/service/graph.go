package service

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	dialognode "github.com/magalia-labs/concierge/agent/nodes"
)

func (c *Concierge) compileHandleUtteranceGraph(
	ctx context.Context,
) (compose.Runnable[dialognode.GraphInput, dialognode.GraphOutput], error) {
	graph := compose.NewGraph[dialognode.GraphInput, dialognode.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in dialognode.GraphInput) (*dialognode.GraphState, error) {
			return dialognode.ValidateRequest(in, c.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_or_create_session",
		compose.InvokableLambda(func(ctx context.Context, in *dialognode.GraphState) (*dialognode.GraphState, error) {
			return dialognode.LoadOrCreateSession(ctx, in, c.store, c.workspaceID, c.customerID, c.channelType, c.initialRole)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_session: %w", err)
	}

	if err := graph.AddLambdaNode("read_memory",
		compose.InvokableLambda(func(ctx context.Context, in *dialognode.GraphState) (*dialognode.GraphState, error) {
			return dialognode.ReadMemory(ctx, in, c.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node read_memory: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_role",
		compose.InvokableLambda(func(ctx context.Context, in *dialognode.GraphState) (*dialognode.GraphState, error) {
			return dialognode.DispatchRole(ctx, in, c.roles, c.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_role: %w", err)
	}

	if err := graph.AddLambdaNode("validate_and_save_session",
		compose.InvokableLambda(func(ctx context.Context, in *dialognode.GraphState) (*dialognode.GraphState, error) {
			return dialognode.ValidateAndSaveSession(ctx, in, c.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_and_save_session: %w", err)
	}

	if err := graph.AddLambdaNode("write_memory",
		compose.InvokableLambda(func(ctx context.Context, in *dialognode.GraphState) (*dialognode.GraphState, error) {
			return dialognode.WriteMemory(ctx, in, c.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node write_memory: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *dialognode.GraphState) (dialognode.GraphOutput, error) {
			return dialognode.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_or_create_session"},
		{"load_or_create_session", "read_memory"},
		{"read_memory", "dispatch_role"},
		{"dispatch_role", "validate_and_save_session"},
		{"validate_and_save_session", "write_memory"},
		{"write_memory", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("concierge.handle_utterance"))
	if err != nil {
		return nil, fmt.Errorf("compile concierge graph: %w", err)
	}
	return runner, nil
}
