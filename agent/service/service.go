// Package service exposes the concierge entry point: it compiles the
// utterance pipeline into an eino graph and serializes turns per session.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/magalia-labs/concierge/agent/contract"
	dialognode "github.com/magalia-labs/concierge/agent/nodes"
	statex "github.com/magalia-labs/concierge/agent/state"
)

var (
	ErrInvalidMessage = dialognode.ErrInvalidMessage
	ErrInvalidSession = dialognode.ErrInvalidSession
)

type Config struct {
	WorkspaceID string
	CustomerID  string
	ChannelType string
	// InitialRole is the role new sessions start at. Defaults to the
	// receptionist front desk.
	InitialRole statex.RoleType
}

type Concierge struct {
	store  statex.Store
	roles  contractx.Registry
	tools  contractx.ToolGateway
	memory contractx.MemoryStore

	graphRunner compose.Runnable[dialognode.GraphInput, dialognode.GraphOutput]

	workspaceID string
	customerID  string
	channelType string
	initialRole statex.RoleType

	// one mutex per session id so concurrent utterances for the same
	// caller never interleave mid-turn
	sessionLocks sync.Map

	now func() time.Time
}

func New(
	store statex.Store,
	roles contractx.Registry,
	tools contractx.ToolGateway,
	memory contractx.MemoryStore,
	cfg Config,
) (*Concierge, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if roles == nil {
		return nil, errors.New("role registry is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if memory == nil {
		memory = noopMemoryStore{}
	}

	workspaceID := strings.TrimSpace(cfg.WorkspaceID)
	if workspaceID == "" {
		workspaceID = "default-workspace"
	}
	customerID := strings.TrimSpace(cfg.CustomerID)
	if customerID == "" {
		customerID = "default-customer"
	}
	channelType := strings.TrimSpace(cfg.ChannelType)
	if channelType == "" {
		channelType = "voice"
	}
	initialRole := cfg.InitialRole
	if initialRole == "" {
		initialRole = statex.RoleReceptionist
	}
	if !initialRole.Valid() || initialRole.Terminal() {
		return nil, errors.New("initial role must be a live role")
	}

	c := &Concierge{
		store:       store,
		roles:       roles,
		tools:       tools,
		memory:      memory,
		workspaceID: workspaceID,
		customerID:  customerID,
		channelType: channelType,
		initialRole: initialRole,
		now:         time.Now,
	}

	graphRunner, err := c.compileHandleUtteranceGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.graphRunner = graphRunner

	return c, nil
}

// HandleUtterance runs one dialogue turn: load the session, dispatch the
// active role, persist the updated session, and return the spoken reply.
func (c *Concierge) HandleUtterance(ctx context.Context, sessionID string, text string) (string, error) {
	mu := c.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	out, err := c.graphRunner.Invoke(ctx, dialognode.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Concierge) lockFor(sessionID string) *sync.Mutex {
	actual, _ := c.sessionLocks.LoadOrStore(strings.TrimSpace(sessionID), &sync.Mutex{})
	return actual.(*sync.Mutex)
}

type noopMemoryStore struct{}

func (noopMemoryStore) ReadSummary(context.Context, string) (string, error) {
	return "", nil
}

func (noopMemoryStore) WriteSummary(context.Context, string, string) error {
	return nil
}
