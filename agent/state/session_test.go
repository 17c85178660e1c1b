package state

import (
	"errors"
	"testing"
	"time"
)

func testNow() time.Time {
	return time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
}

func TestNewSessionContextStartsAtReceptionist(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	if sc.ActiveRole != RoleReceptionist {
		t.Fatalf("ActiveRole = %s, want receptionist", sc.ActiveRole)
	}
	if sc.Version != 0 {
		t.Fatalf("Version = %d, want 0 before the first save", sc.Version)
	}
	if sc.Terminated() {
		t.Fatal("new session must not be terminated")
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestBumpCountsPersistedRevisions(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())

	later := testNow().Add(time.Minute)
	sc.Bump(later)
	if sc.Version != 1 {
		t.Fatalf("Version = %d, want 1 after first save", sc.Version)
	}
	if !sc.UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt = %v, want %v", sc.UpdatedAt, later)
	}

	sc.Bump(later.Add(time.Minute))
	if sc.Version != 2 {
		t.Fatalf("Version = %d, want 2 after second save", sc.Version)
	}
}

func TestNewSessionContextWithRole(t *testing.T) {
	t.Parallel()

	sc := NewSessionContextWithRole("s1", "magalia", "caller", "voice", RoleAssistant, testNow())
	if sc.ActiveRole != RoleAssistant {
		t.Fatalf("ActiveRole = %s, want assistant", sc.ActiveRole)
	}
}

func TestRecordHandoff(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	if err := sc.RecordHandoff(RoleReservations, testNow()); err != nil {
		t.Fatalf("RecordHandoff() error = %v", err)
	}
	if sc.ActiveRole != RoleReservations {
		t.Fatalf("ActiveRole = %s, want reservations", sc.ActiveRole)
	}
	if len(sc.Handoffs) != 1 {
		t.Fatalf("expected one handoff record, got %d", len(sc.Handoffs))
	}
	if sc.Handoffs[0].From != RoleReceptionist || sc.Handoffs[0].To != RoleReservations {
		t.Fatalf("unexpected handoff record: %+v", sc.Handoffs[0])
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestRecordHandoffRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	err := sc.RecordHandoff(RoleType("barista"), testNow())
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestRecordHandoffRejectsTerminatedSession(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	if err := sc.RecordHandoff(RoleTerminated, testNow()); err != nil {
		t.Fatalf("RecordHandoff(terminated) error = %v", err)
	}
	err := sc.RecordHandoff(RoleReceptionist, testNow())
	if !errors.Is(err, ErrSessionTerminated) {
		t.Fatalf("expected ErrSessionTerminated, got %v", err)
	}
}

func TestValidateRejectsMismatchedHandoffTail(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	sc.Handoffs = []HandoffRecord{{From: RoleReceptionist, To: RoleTakeaway, At: testNow()}}
	sc.ActiveRole = RoleReservations

	if err := sc.Validate(); err == nil {
		t.Fatal("expected validation error for mismatched handoff tail")
	}
}

func TestValidateRejectsCheckedOutWithoutExpense(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	sc.CheckedOut = true

	if err := sc.Validate(); err == nil {
		t.Fatal("expected validation error for checked-out session without expense")
	}
}

func TestCompletionPredicates(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	if sc.ReservationComplete() || sc.OrderPlaced() || sc.PaymentReady() {
		t.Fatal("empty session must satisfy no predicate")
	}

	sc.CustomerName = "Ana"
	sc.CustomerPhone = "555-0100"
	sc.ReservationTime = "19:30"
	if !sc.ReservationComplete() {
		t.Fatal("expected reservation complete")
	}

	sc.OrderItems = []string{"Gazpacho"}
	if !sc.OrderPlaced() {
		t.Fatal("expected order placed")
	}

	sc.Expense = 7.25
	sc.CardNumber = "4242424242424242"
	sc.CardExpiry = "12/28"
	sc.CardCVV = "123"
	if !sc.PaymentReady() {
		t.Fatal("expected payment ready")
	}
}

func TestSummarizeMasksCardDetails(t *testing.T) {
	t.Parallel()

	sc := NewSessionContext("s1", "magalia", "caller", "voice", testNow())
	sc.CardNumber = "4242424242424242"
	sc.CardExpiry = "12/28"
	sc.CardCVV = "123"

	summary := sc.Summarize()
	if summary["card_on_file"] != true {
		t.Fatalf("card_on_file = %v, want true", summary["card_on_file"])
	}
	for k, v := range summary {
		if s, ok := v.(string); ok && s == sc.CardNumber {
			t.Fatalf("card number leaked through summary key %q", k)
		}
	}
	if summary["customer_name"] != "unknown" {
		t.Fatalf("customer_name = %v, want unknown", summary["customer_name"])
	}
}

func TestRoleTypeValidAndTerminal(t *testing.T) {
	t.Parallel()

	for _, role := range []RoleType{RoleReceptionist, RoleReservations, RoleTakeaway, RolePayment, RoleTerminated, RoleAssistant} {
		if !role.Valid() {
			t.Errorf("expected %s valid", role)
		}
	}
	if RoleType("barista").Valid() {
		t.Error("expected barista invalid")
	}
	if !RoleTerminated.Terminal() {
		t.Error("expected terminated terminal")
	}
	if RolePayment.Terminal() {
		t.Error("payment must not be terminal")
	}
}
