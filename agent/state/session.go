package state

import (
	"errors"
	"fmt"
	"time"
)

// RoleType names a conversational persona. Exactly one role is active per
// session until the session reaches RoleTerminated.
type RoleType string

const (
	RoleReceptionist RoleType = "receptionist"
	RoleReservations RoleType = "reservations"
	RoleTakeaway     RoleType = "takeaway"
	RolePayment      RoleType = "payment"
	RoleTerminated   RoleType = "terminated"

	// RoleAssistant is the standalone single-persona agent; it never
	// participates in restaurant handoffs.
	RoleAssistant RoleType = "assistant"
)

func (r RoleType) Valid() bool {
	switch r {
	case RoleReceptionist, RoleReservations, RoleTakeaway, RolePayment, RoleTerminated, RoleAssistant:
		return true
	}
	return false
}

func (r RoleType) Terminal() bool {
	return r == RoleTerminated
}

// HandoffRecord is one applied role transition, kept for diagnostics.
type HandoffRecord struct {
	From RoleType  `json:"from"`
	To   RoleType  `json:"to"`
	At   time.Time `json:"at"`
}

// SessionContext is the single source of truth for cross-role state within
// one conversation. It is owned by the router and mutated only inside the
// dispatch critical section; handoffs never fork or duplicate it.
type SessionContext struct {
	// Identity
	SessionID   string `json:"session_id"`
	WorkspaceID string `json:"workspace_id"`
	CustomerID  string `json:"customer_id"`
	ChannelType string `json:"channel_type"`

	ActiveRole RoleType        `json:"active_role"`
	Handoffs   []HandoffRecord `json:"handoffs,omitempty"`

	// Customer
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	// Reservation
	PartySize       int    `json:"party_size,omitempty"`
	ReservationTime string `json:"reservation_time,omitempty"`

	// Takeaway order
	OrderItems []string `json:"order_items,omitempty"`

	// Payment
	Expense    float64 `json:"expense,omitempty"`
	CardNumber string  `json:"card_number,omitempty"`
	CardExpiry string  `json:"card_expiry,omitempty"`
	CardCVV    string  `json:"card_cvv,omitempty"`
	CheckedOut bool    `json:"checked_out,omitempty"`

	Version   int       `json:"version,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNilSession        = errors.New("session context is nil")
	ErrUnknownRole       = errors.New("unknown role")
	ErrSessionTerminated = errors.New("session is terminated")
)

func NewSessionContext(sessionID, workspaceID, customerID, channelType string, now time.Time) *SessionContext {
	return NewSessionContextWithRole(sessionID, workspaceID, customerID, channelType, RoleReceptionist, now)
}

// NewSessionContextWithRole starts a session at a specific role, for
// deployments that run a single persona instead of the restaurant front desk.
func NewSessionContextWithRole(sessionID, workspaceID, customerID, channelType string, role RoleType, now time.Time) *SessionContext {
	return &SessionContext{
		SessionID:   sessionID,
		WorkspaceID: workspaceID,
		CustomerID:  customerID,
		ChannelType: channelType,
		ActiveRole:  role,
		UpdatedAt:   now.UTC(),
	}
}

func (s *SessionContext) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Bump marks a persisted revision: Version counts saves, so a freshly created
// session carries 0 until its first save.
func (s *SessionContext) Bump(now time.Time) {
	s.Version++
	s.Touch(now)
}

func (s *SessionContext) Terminated() bool {
	return s != nil && s.ActiveRole.Terminal()
}

// RecordHandoff moves the session to a new active role and appends the
// transition to the handoff log. It does not check the transition policy;
// that is the router's job.
func (s *SessionContext) RecordHandoff(to RoleType, now time.Time) error {
	if s == nil {
		return ErrNilSession
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, to)
	}
	if s.Terminated() {
		return ErrSessionTerminated
	}
	s.Handoffs = append(s.Handoffs, HandoffRecord{
		From: s.ActiveRole,
		To:   to,
		At:   now.UTC(),
	})
	s.ActiveRole = to
	s.Touch(now)
	return nil
}

/* ------------------------- Completion predicates ------------------------- */

// ReservationComplete reports whether the reservation can be confirmed.
func (s *SessionContext) ReservationComplete() bool {
	return s != nil && s.CustomerName != "" && s.CustomerPhone != "" && s.ReservationTime != ""
}

// OrderPlaced reports whether a takeaway order exists.
func (s *SessionContext) OrderPlaced() bool {
	return s != nil && len(s.OrderItems) > 0
}

// PaymentReady reports whether the payment can be confirmed.
func (s *SessionContext) PaymentReady() bool {
	return s != nil && s.Expense > 0 &&
		s.CardNumber != "" && s.CardExpiry != "" && s.CardCVV != ""
}

/* ------------------------------ Validation ------------------------------- */

func (s *SessionContext) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if !s.ActiveRole.Valid() {
		return fmt.Errorf("%w: active_role=%q", ErrUnknownRole, s.ActiveRole)
	}
	if s.PartySize < 0 {
		return fmt.Errorf("party size must be >= 0, got %d", s.PartySize)
	}
	if s.Expense < 0 {
		return fmt.Errorf("expense must be >= 0, got %g", s.Expense)
	}
	if s.CheckedOut && s.Expense <= 0 {
		return errors.New("checked-out session must carry a positive expense")
	}
	if n := len(s.Handoffs); n > 0 && s.Handoffs[n-1].To != s.ActiveRole {
		return fmt.Errorf("handoff log tail %q does not match active role %q",
			s.Handoffs[n-1].To, s.ActiveRole)
	}
	return nil
}

// Summarize returns the context as a map for prompt payloads. Card details
// are masked; models never see the full number.
func (s *SessionContext) Summarize() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return map[string]any{
		"active_role":      s.ActiveRole,
		"customer_name":    orUnknown(s.CustomerName),
		"customer_phone":   orUnknown(s.CustomerPhone),
		"party_size":       s.PartySize,
		"reservation_time": orUnknown(s.ReservationTime),
		"order_items":      s.OrderItems,
		"expense":          s.Expense,
		"card_on_file":     s.CardNumber != "",
		"checked_out":      s.CheckedOut,
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
