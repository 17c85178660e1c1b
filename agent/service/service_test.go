package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	statex "github.com/magalia-labs/concierge/agent/state"
)

func testTime() time.Time {
	return time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
}

type fakeStore struct {
	loadSession *statex.SessionContext
	loadErr     error
	saveErr     error
	saved       []*statex.SessionContext
}

func (f *fakeStore) Load(ctx context.Context, sessionID string) (*statex.SessionContext, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.loadSession == nil {
		return nil, statex.ErrStateNotFound
	}
	return cloneSessionContext(f.loadSession), nil
}

func (f *fakeStore) Save(ctx context.Context, sc *statex.SessionContext) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, cloneSessionContext(sc))
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	return nil
}

type memoryWrite struct {
	customerID string
	update     string
}

type fakeMemory struct {
	summary  string
	readErr  error
	writeErr error
	writes   []memoryWrite
}

func (f *fakeMemory) ReadSummary(ctx context.Context, customerID string) (string, error) {
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.summary, nil
}

func (f *fakeMemory) WriteSummary(ctx context.Context, customerID string, update string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, memoryWrite{customerID: customerID, update: update})
	return nil
}

type fakeRole struct {
	responses []contractx.RoleResponse
	err       error
	calls     int
	lastReqs  []contractx.RoleRequest
}

func (f *fakeRole) Handle(ctx context.Context, req contractx.RoleRequest) (contractx.RoleResponse, error) {
	f.calls++
	f.lastReqs = append(f.lastReqs, req)
	if f.err != nil {
		return contractx.RoleResponse{}, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		return contractx.RoleResponse{}, fmt.Errorf("no role response left at call=%d", f.calls)
	}
	return f.responses[idx], nil
}

type fakeRegistry struct {
	roles map[statex.RoleType]contractx.Role
}

func (f *fakeRegistry) Role(role statex.RoleType) (contractx.Role, bool) {
	r, ok := f.roles[role]
	return r, ok
}

type fakeTools struct {
	results []contractx.ToolResult
	err     error
	calls   int
}

func (f *fakeTools) Execute(ctx context.Context, role statex.RoleType, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]contractx.ToolResult(nil), f.results...), nil
}

func TestHandleUtteranceInvalidInput(t *testing.T) {
	t.Parallel()

	c := newTestConcierge(t,
		&fakeStore{},
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{}},
		&fakeTools{},
		&fakeMemory{},
	)

	_, err := c.HandleUtterance(context.Background(), "   ", "hello")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	_, err = c.HandleUtterance(context.Background(), "s1", "    ")
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestHandleUtteranceFullTurn(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loadErr: statex.ErrStateNotFound}
	memory := &fakeMemory{summary: "regular customer"}
	receptionist := &fakeRole{
		responses: []contractx.RoleResponse{
			{
				Message: "Of course, reservations will take it from here.",
				Handoff: &contractx.Handoff{
					Target: statex.RoleReservations,
					Patch: contractx.ContextPatch{
						PartySize:    4,
						MemoryUpdate: "books for four",
					},
				},
			},
		},
	}

	c := newTestConcierge(t,
		store,
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{
			statex.RoleReceptionist: receptionist,
		}},
		&fakeTools{},
		memory,
	)

	reply, err := c.HandleUtterance(context.Background(), "session-1", "table for four please")
	if err != nil {
		t.Fatalf("HandleUtterance() error = %v", err)
	}
	if reply != "Of course, reservations will take it from here." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if receptionist.lastReqs[0].MemorySummary != "regular customer" {
		t.Fatalf("expected memory summary forwarded, got %q", receptionist.lastReqs[0].MemorySummary)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(store.saved))
	}
	saved := store.saved[0]
	if saved.ActiveRole != statex.RoleReservations {
		t.Fatalf("expected saved role reservations, got %s", saved.ActiveRole)
	}
	if saved.PartySize != 4 {
		t.Fatalf("expected saved party size 4, got %d", saved.PartySize)
	}
	if saved.Version != 1 {
		t.Fatalf("expected first saved revision to carry version 1, got %d", saved.Version)
	}
	if len(memory.writes) != 1 || memory.writes[0].update != "books for four" {
		t.Fatalf("unexpected memory writes: %#v", memory.writes)
	}
}

func TestHandleUtteranceSkipsMemoryWriteWithoutUpdate(t *testing.T) {
	t.Parallel()

	memory := &fakeMemory{}
	receptionist := &fakeRole{
		responses: []contractx.RoleResponse{
			{Message: "We open at noon."},
		},
	}

	c := newTestConcierge(t,
		&fakeStore{loadErr: statex.ErrStateNotFound},
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{
			statex.RoleReceptionist: receptionist,
		}},
		&fakeTools{},
		memory,
	)

	if _, err := c.HandleUtterance(context.Background(), "session-2", "when do you open?"); err != nil {
		t.Fatalf("HandleUtterance() error = %v", err)
	}
	if len(memory.writes) != 0 {
		t.Fatalf("expected no memory writes, got %#v", memory.writes)
	}
}

func TestHandleUtteranceResumesStoredSession(t *testing.T) {
	t.Parallel()

	stored := statex.NewSessionContext("session-3", "magalia", "caller", "voice", testTime())
	if err := stored.RecordHandoff(statex.RoleReservations, testTime()); err != nil {
		t.Fatalf("RecordHandoff() error = %v", err)
	}
	stored.CustomerName = "Ana"

	reservations := &fakeRole{
		responses: []contractx.RoleResponse{
			{Message: "What time would you like?"},
		},
	}

	c := newTestConcierge(t,
		&fakeStore{loadSession: stored},
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{
			statex.RoleReservations: reservations,
		}},
		&fakeTools{},
		&fakeMemory{},
	)

	if _, err := c.HandleUtterance(context.Background(), "session-3", "tonight"); err != nil {
		t.Fatalf("HandleUtterance() error = %v", err)
	}
	if reservations.calls != 1 {
		t.Fatalf("expected reservations role to handle the turn, got %d calls", reservations.calls)
	}
	if reservations.lastReqs[0].Session.CustomerName != "Ana" {
		t.Fatal("expected stored context visible to the role")
	}
}

func TestHandleUtteranceBumpsVersionPerSave(t *testing.T) {
	t.Parallel()

	stored := statex.NewSessionContext("session-9", "magalia", "caller", "voice", testTime())
	stored.Version = 3

	reservationsRole := &fakeRole{
		responses: []contractx.RoleResponse{
			{Message: "Noted."},
		},
	}

	store := &fakeStore{loadSession: stored}
	c := newTestConcierge(t,
		store,
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{
			statex.RoleReceptionist: reservationsRole,
		}},
		&fakeTools{},
		&fakeMemory{},
	)

	if _, err := c.HandleUtterance(context.Background(), "session-9", "noted?"); err != nil {
		t.Fatalf("HandleUtterance() error = %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(store.saved))
	}
	if got := store.saved[0].Version; got != 4 {
		t.Fatalf("Version = %d, want 4 after saving revision 3", got)
	}
}

func TestHandleUtteranceSaveErrorPropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("save failed")
	store := &fakeStore{loadErr: statex.ErrStateNotFound, saveErr: saveErr}
	memory := &fakeMemory{}

	c := newTestConcierge(t,
		store,
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{
			statex.RoleReceptionist: &fakeRole{
				responses: []contractx.RoleResponse{
					{Message: "ok", Patch: contractx.ContextPatch{MemoryUpdate: "note"}},
				},
			},
		}},
		&fakeTools{},
		memory,
	)

	_, err := c.HandleUtterance(context.Background(), "session-4", "hello")
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if len(memory.writes) != 0 {
		t.Fatalf("memory write must not run on save error, got %d", len(memory.writes))
	}
}

func TestHandleUtteranceWriteMemoryErrorPropagates(t *testing.T) {
	t.Parallel()

	writeErr := errors.New("write memory failed")
	store := &fakeStore{loadErr: statex.ErrStateNotFound}
	memory := &fakeMemory{writeErr: writeErr}

	c := newTestConcierge(t,
		store,
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{
			statex.RoleReceptionist: &fakeRole{
				responses: []contractx.RoleResponse{
					{Message: "ok", Patch: contractx.ContextPatch{MemoryUpdate: "note"}},
				},
			},
		}},
		&fakeTools{},
		memory,
	)

	_, err := c.HandleUtterance(context.Background(), "session-5", "hello")
	if !errors.Is(err, writeErr) {
		t.Fatalf("expected write memory error, got %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected session already saved before memory error, got %d", len(store.saved))
	}
}

func TestHandleUtteranceAssistantInitialRole(t *testing.T) {
	t.Parallel()

	assistant := &fakeRole{
		responses: []contractx.RoleResponse{
			{Message: "It's sunny, around 70 degrees."},
		},
	}
	store := &fakeStore{loadErr: statex.ErrStateNotFound}

	c, err := New(
		store,
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{
			statex.RoleAssistant: assistant,
		}},
		&fakeTools{},
		&fakeMemory{},
		Config{InitialRole: statex.RoleAssistant},
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := c.HandleUtterance(context.Background(), "session-6", "how's the weather?"); err != nil {
		t.Fatalf("HandleUtterance() error = %v", err)
	}
	if assistant.calls != 1 {
		t.Fatalf("expected assistant to handle the turn, got %d calls", assistant.calls)
	}
	if store.saved[0].ActiveRole != statex.RoleAssistant {
		t.Fatalf("expected assistant session saved, got %s", store.saved[0].ActiveRole)
	}
}

func TestNewRejectsTerminalInitialRole(t *testing.T) {
	t.Parallel()

	_, err := New(
		&fakeStore{},
		&fakeRegistry{roles: map[statex.RoleType]contractx.Role{}},
		&fakeTools{},
		&fakeMemory{},
		Config{InitialRole: statex.RoleTerminated},
	)
	if err == nil {
		t.Fatal("expected error for terminal initial role")
	}
}

func newTestConcierge(
	t *testing.T,
	store statex.Store,
	registry contractx.Registry,
	tools contractx.ToolGateway,
	memory contractx.MemoryStore,
) *Concierge {
	t.Helper()
	c, err := New(store, registry, tools, memory, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func cloneSessionContext(in *statex.SessionContext) *statex.SessionContext {
	if in == nil {
		return nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	var out statex.SessionContext
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}
