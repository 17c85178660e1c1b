package tool

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/magalia-labs/concierge/agent/contract"
)

// Accepts digits, whitespace, decimal points, the four basic operators, and
// parentheses. Enough to total an order; anything richer is rejected.
var expensePattern = regexp.MustCompile(`^[\d\s\+\-\*/\(\)\.]+$`)

type ExpenseEvaluateOutput struct {
	Expression string  `json:"expression"`
	Total      float64 `json:"total"`
}

func executeExpenseTool(tool string, args map[string]any) (contractx.ToolResult, error) {
	rawExpression, ok := args["expression"]
	if !ok {
		return contractx.ToolResult{
			Tool:  tool,
			Error: "expression is required",
		}, nil
	}

	expression, ok := rawExpression.(string)
	if !ok {
		return contractx.ToolResult{
			Tool:  tool,
			Error: "expression must be a string",
		}, nil
	}

	expression = strings.TrimSpace(expression)
	if err := validateExpense(expression); err != nil {
		return contractx.ToolResult{
			Tool:  tool,
			Error: err.Error(),
		}, nil
	}

	total, err := evaluateExpense(expression)
	if err != nil {
		return contractx.ToolResult{
			Tool:  tool,
			Error: err.Error(),
		}, nil
	}

	return contractx.ToolResult{
		Tool: tool,
		Result: ExpenseEvaluateOutput{
			Expression: expression,
			Total:      total,
		},
	}, nil
}

func validateExpense(expression string) error {
	if expression == "" {
		return fmt.Errorf("expression is empty")
	}
	if !expensePattern.MatchString(expression) {
		return fmt.Errorf("expression contains invalid characters")
	}

	balance := 0
	for _, ch := range expression {
		switch ch {
		case '(':
			balance++
		case ')':
			balance--
			if balance < 0 {
				return fmt.Errorf("expression has unbalanced parentheses")
			}
		}
	}
	if balance != 0 {
		return fmt.Errorf("expression has unbalanced parentheses")
	}
	return nil
}

func evaluateExpense(expression string) (float64, error) {
	p := &expenseParser{input: expression}
	value, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.hasNext() {
		return 0, fmt.Errorf("unexpected token at position %d", p.pos)
	}
	return value, nil
}

// expenseParser is a small recursive-descent evaluator over + - * / ( ).
type expenseParser struct {
	input string
	pos   int
}

func (p *expenseParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('+'):
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left += right
		case p.match('-'):
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *expenseParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('*'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.match('/'):
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *expenseParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.match('+') {
		return p.parseUnary()
	}
	if p.match('-') {
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return p.parsePrimary()
}

func (p *expenseParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.match('(') {
		value, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.match(')') {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		return value, nil
	}
	return p.parseNumber()
}

func (p *expenseParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	hasDigit := false
	hasDot := false

	for p.hasNext() {
		ch := p.peek()
		if ch >= '0' && ch <= '9' {
			hasDigit = true
			p.pos++
			continue
		}
		if ch == '.' {
			if hasDot {
				return 0, fmt.Errorf("invalid number format at position %d", p.pos)
			}
			hasDot = true
			p.pos++
			continue
		}
		break
	}

	if !hasDigit {
		return 0, fmt.Errorf("expected number at position %d", start)
	}

	raw := p.input[start:p.pos]
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return value, nil
}

func (p *expenseParser) skipSpaces() {
	for p.hasNext() && p.peek() == ' ' {
		p.pos++
	}
}

func (p *expenseParser) hasNext() bool {
	return p.pos < len(p.input)
}

func (p *expenseParser) peek() byte {
	return p.input[p.pos]
}

func (p *expenseParser) match(expected byte) bool {
	if p.hasNext() && p.peek() == expected {
		p.pos++
		return true
	}
	return false
}
