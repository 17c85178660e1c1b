package tool

import (
	"strings"
	"testing"
)

func TestEvaluateExpense(t *testing.T) {
	t.Parallel()

	cases := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"12.50 + 7.25", 19.75},
		{"2 * (3 + 4)", 14},
		{"10 - 2 - 3", 5},
		{"9 / 3", 3},
		{"-5 + 10", 5},
		{"2 * 12.50 + 6.50", 31.5},
	}
	for _, tc := range cases {
		got, err := evaluateExpense(tc.expr)
		if err != nil {
			t.Errorf("evaluateExpense(%q) error = %v", tc.expr, err)
			continue
		}
		if got != tc.want {
			t.Errorf("evaluateExpense(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluateExpenseDivisionByZero(t *testing.T) {
	t.Parallel()

	_, err := evaluateExpense("5 / 0")
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division-by-zero error, got %v", err)
	}
}

func TestValidateExpenseRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{
		"",
		"rm -rf",
		"1 + x",
		"(1 + 2",
		"1 + 2)",
		"2 ** 3 ; drop",
	} {
		if err := validateExpense(expr); err == nil {
			t.Errorf("validateExpense(%q) expected error", expr)
		}
	}
}

func TestExecuteExpenseToolMissingArgument(t *testing.T) {
	t.Parallel()

	res, err := executeExpenseTool(ToolExpenseEvaluate, map[string]any{})
	if err != nil {
		t.Fatalf("executeExpenseTool() error = %v", err)
	}
	if res.Error == "" {
		t.Fatal("expected error result for missing expression")
	}
}
