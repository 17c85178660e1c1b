package contract

import (
	"context"

	statex "github.com/magalia-labs/concierge/agent/state"
)

// Role is a conversational persona: a role identifier, its instructions and
// the actions it exposes, behind a single handler.
type Role interface {
	Handle(ctx context.Context, req RoleRequest) (RoleResponse, error)
}

// Registry resolves the handler for an active role.
type Registry interface {
	Role(role statex.RoleType) (Role, bool)
}

// ToolGateway executes the tool requests a role emitted, scoped per role.
type ToolGateway interface {
	Execute(ctx context.Context, role statex.RoleType, reqs []ToolRequest) ([]ToolResult, error)
}

// MemoryStore keeps a cross-session summary per customer.
type MemoryStore interface {
	ReadSummary(ctx context.Context, customerID string) (string, error)
	WriteSummary(ctx context.Context, customerID string, update string) error
}
