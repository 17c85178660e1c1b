// Package router owns the active role and the session context for one
// conversation, dispatching utterances to the active role's handler and
// applying handoff events against a static transition table.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	statex "github.com/magalia-labs/concierge/agent/state"
)

// transitions is the fixed handoff policy: which targets each role may
// hand off to. Any live role may also terminate the session.
var transitions = map[statex.RoleType][]statex.RoleType{
	statex.RoleReceptionist: {statex.RoleReservations, statex.RoleTakeaway, statex.RoleTerminated},
	statex.RoleReservations: {statex.RolePayment, statex.RoleReceptionist, statex.RoleTerminated},
	statex.RoleTakeaway:     {statex.RolePayment, statex.RoleReceptionist, statex.RoleTerminated},
	statex.RolePayment:      {statex.RoleReceptionist, statex.RoleTerminated},
	statex.RoleAssistant:    {statex.RoleTerminated},
	statex.RoleTerminated:   nil,
}

// AllowedTargets returns the handoff targets permitted from a role.
func AllowedTargets(from statex.RoleType) []statex.RoleType {
	return append([]statex.RoleType(nil), transitions[from]...)
}

// CanHandoff reports whether the from->to transition is in the policy.
func CanHandoff(from, to statex.RoleType) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

var (
	ErrEmptyUtterance = errors.New("utterance is empty")
	ErrUnknownRole    = errors.New("no handler registered for role")
)

const maxToolRounds = 1

// Router dispatches utterances for a single session. Dispatch is a critical
// section: one call runs to completion before the next mutates the context.
type Router struct {
	mu       sync.Mutex
	session  *statex.SessionContext
	registry contractx.Registry
	tools    contractx.ToolGateway

	memorySummary string

	now func() time.Time
}

// Result is the outcome of one dispatch.
type Result struct {
	Reply string
	// MemoryUpdate is a summary fragment the role wants persisted to the
	// customer's long-term memory. Empty when nothing changed.
	MemoryUpdate string
}

type Option func(*Router)

// WithClock overrides the router's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// WithToolGateway enables the single tool round between role invocations.
func WithToolGateway(tools contractx.ToolGateway) Option {
	return func(r *Router) {
		r.tools = tools
	}
}

// WithMemorySummary attaches the customer's long-term memory summary to
// every role request this router dispatches.
func WithMemorySummary(summary string) Option {
	return func(r *Router) {
		r.memorySummary = summary
	}
}

func New(session *statex.SessionContext, registry contractx.Registry, opts ...Option) (*Router, error) {
	if session == nil {
		return nil, statex.ErrNilSession
	}
	if registry == nil {
		return nil, errors.New("role registry is required")
	}
	if !session.ActiveRole.Valid() {
		return nil, fmt.Errorf("%w: %q", statex.ErrUnknownRole, session.ActiveRole)
	}

	r := &Router{
		session:  session,
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// CurrentRole is a read-only accessor for diagnostics and tests.
func (r *Router) CurrentRole() statex.RoleType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.ActiveRole
}

// Session returns the owned session context. Callers must not mutate it
// while dispatches are possible.
func (r *Router) Session() *statex.SessionContext {
	return r.session
}

// Dispatch routes the utterance to the active role, runs at most one tool
// round, applies context patches and the handoff (if any) atomically, and
// returns the role's reply. The active-role mutation becomes visible to the
// next Dispatch call, never mid-flight.
func (r *Router) Dispatch(ctx context.Context, utterance string) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Result{}, ErrEmptyUtterance
	}
	if r.session.Terminated() {
		return Result{}, contractx.ErrSessionTerminated
	}

	active := r.session.ActiveRole
	role, ok := r.registry.Role(active)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownRole, active)
	}

	req := contractx.RoleRequest{
		Utterance:     utterance,
		MemorySummary: r.memorySummary,
		Session:       r.session,
	}
	resp, err := role.Handle(ctx, req)
	if err != nil {
		return Result{}, err
	}

	for round := 0; len(resp.ToolRequests) > 0; round++ {
		if r.tools == nil {
			return Result{}, fmt.Errorf("%w: role %s requested tools but no gateway is wired", contractx.ErrValidation, active)
		}
		if round >= maxToolRounds {
			return Result{}, fmt.Errorf("%w: role %s exceeded tool round budget", contractx.ErrSchemaViolation, active)
		}
		results, err := r.tools.Execute(ctx, active, resp.ToolRequests)
		if err != nil {
			return Result{}, fmt.Errorf("%w: execute tools for role %s: %v", contractx.ErrCollaborator, active, err)
		}
		req.ToolResults = results
		resp, err = role.Handle(ctx, req)
		if err != nil {
			return Result{}, err
		}
	}

	// Validate the handoff before touching the context so a rejected
	// transition leaves the session exactly as it was.
	if resp.Handoff != nil {
		target := resp.Handoff.Target
		if !target.Valid() {
			return Result{}, fmt.Errorf("%w: %s -> %q", contractx.ErrInvalidTransition, active, target)
		}
		if !CanHandoff(active, target) {
			return Result{}, fmt.Errorf("%w: %s -> %s", contractx.ErrInvalidTransition, active, target)
		}
	}

	now := r.now()
	resp.Patch.Apply(r.session)
	if resp.Handoff != nil {
		resp.Handoff.Patch.Apply(r.session)
		if err := r.session.RecordHandoff(resp.Handoff.Target, now); err != nil {
			return Result{}, err
		}
	}
	r.session.Touch(now)

	result := Result{
		Reply:        strings.TrimSpace(resp.Message),
		MemoryUpdate: strings.TrimSpace(resp.Patch.MemoryUpdate),
	}
	if result.MemoryUpdate == "" && resp.Handoff != nil {
		result.MemoryUpdate = strings.TrimSpace(resp.Handoff.Patch.MemoryUpdate)
	}
	return result, nil
}
