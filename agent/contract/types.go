package contract

import (
	statex "github.com/magalia-labs/concierge/agent/state"
)

// RoleRequest is the input handed to the active role on each dispatch.
type RoleRequest struct {
	Utterance     string                 `json:"utterance"`
	MemorySummary string                 `json:"memory_summary"`
	Session       *statex.SessionContext `json:"session"`
	ToolResults   []ToolResult           `json:"tool_results,omitempty"`
}

// RoleResponse is what a role handler produces: a reply for the caller,
// optionally a context patch, a handoff request, or tool requests that the
// router executes before re-invoking the role.
type RoleResponse struct {
	Message      string        `json:"message"`
	Patch        ContextPatch  `json:"context_patch,omitempty"`
	Handoff      *Handoff      `json:"handoff,omitempty"`
	ToolRequests []ToolRequest `json:"tool_requests,omitempty"`
}

// Handoff asks the router to transfer control to a named target role,
// optionally carrying a context update applied with the transition.
type Handoff struct {
	Target statex.RoleType `json:"target"`
	Patch  ContextPatch    `json:"context_patch,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// ContextPatch is a partial SessionContext update. Zero-valued fields are
// left untouched; there is no way to clear a field once set, matching the
// append-only nature of the conversation.
type ContextPatch struct {
	CustomerName    string   `json:"customer_name,omitempty"`
	CustomerPhone   string   `json:"customer_phone,omitempty"`
	PartySize       int      `json:"party_size,omitempty"`
	ReservationTime string   `json:"reservation_time,omitempty"`
	OrderItems      []string `json:"order_items,omitempty"`
	Expense         float64  `json:"expense,omitempty"`
	CardNumber      string   `json:"card_number,omitempty"`
	CardExpiry      string   `json:"card_expiry,omitempty"`
	CardCVV         string   `json:"card_cvv,omitempty"`
	CheckedOut      bool     `json:"checked_out,omitempty"`
	MemoryUpdate    string   `json:"memory_update,omitempty"`
}

func (p ContextPatch) IsZero() bool {
	return p.CustomerName == "" && p.CustomerPhone == "" &&
		p.PartySize == 0 && p.ReservationTime == "" &&
		len(p.OrderItems) == 0 && p.Expense == 0 &&
		p.CardNumber == "" && p.CardExpiry == "" && p.CardCVV == "" &&
		!p.CheckedOut && p.MemoryUpdate == ""
}

// Apply merges the patch into the session context. MemoryUpdate is not a
// context field; it travels to the memory store separately.
func (p ContextPatch) Apply(sc *statex.SessionContext) {
	if sc == nil {
		return
	}
	if p.CustomerName != "" {
		sc.CustomerName = p.CustomerName
	}
	if p.CustomerPhone != "" {
		sc.CustomerPhone = p.CustomerPhone
	}
	if p.PartySize > 0 {
		sc.PartySize = p.PartySize
	}
	if p.ReservationTime != "" {
		sc.ReservationTime = p.ReservationTime
	}
	if len(p.OrderItems) > 0 {
		sc.OrderItems = append([]string(nil), p.OrderItems...)
	}
	if p.Expense > 0 {
		sc.Expense = p.Expense
	}
	if p.CardNumber != "" {
		sc.CardNumber = p.CardNumber
	}
	if p.CardExpiry != "" {
		sc.CardExpiry = p.CardExpiry
	}
	if p.CardCVV != "" {
		sc.CardCVV = p.CardCVV
	}
	if p.CheckedOut {
		sc.CheckedOut = true
	}
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
