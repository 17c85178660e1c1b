package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	statex "github.com/magalia-labs/concierge/agent/state"
)

const (
	ToolMenuLookup      = "menu.lookup"
	ToolExpenseEvaluate = "expense.evaluate"
	ToolWeatherLookup   = "weather.lookup"
)

// InfosForRole returns the tool schemas exposed to a role's model. Handoffs
// are not tools; they travel in the role's structured output.
func InfosForRole(role statex.RoleType) []*schema.ToolInfo {
	switch role {
	case statex.RoleTakeaway:
		return []*schema.ToolInfo{menuLookupInfo(), expenseEvaluateInfo()}
	case statex.RolePayment:
		return []*schema.ToolInfo{expenseEvaluateInfo()}
	case statex.RoleAssistant:
		return []*schema.ToolInfo{weatherLookupInfo()}
	default:
		return nil
	}
}

func menuLookupInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolMenuLookup,
		Desc: "Look up menu items and prices, optionally filtered by a query.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "Dish name or category filter", Required: false},
		}),
	}
}

func expenseEvaluateInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolExpenseEvaluate,
		Desc: "Evaluate an arithmetic expression, e.g. to total an order.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"expression": {Type: schema.String, Desc: "Expression to evaluate", Required: true},
		}),
	}
}

func weatherLookupInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolWeatherLookup,
		Desc: "Look up current weather conditions for a location. Estimate latitude and longitude from the location; never ask the user for them.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"location":  {Type: schema.String, Desc: "Location the user asked about", Required: true},
			"latitude":  {Type: schema.String, Desc: "Estimated latitude", Required: false},
			"longitude": {Type: schema.String, Desc: "Estimated longitude", Required: false},
		}),
	}
}

// Gateway executes tool requests on behalf of the router, scoped to the
// tools the requesting role is allowed to use.
type Gateway struct{}

func NewGateway() *Gateway {
	return &Gateway{}
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func (g *Gateway) Execute(ctx context.Context, role statex.RoleType, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	allowed := make(map[string]struct{})
	for _, info := range InfosForRole(role) {
		allowed[info.Name] = struct{}{}
	}

	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := allowed[req.Tool]; !ok {
			results = append(results, contractx.ToolResult{
				Tool:  req.Tool,
				Error: fmt.Sprintf("tool=%s is unavailable for role=%s", req.Tool, role),
			})
			continue
		}

		var (
			res contractx.ToolResult
			err error
		)
		switch req.Tool {
		case ToolMenuLookup:
			res, err = executeMenuLookup(req.Tool, req.Args)
		case ToolExpenseEvaluate:
			res, err = executeExpenseTool(req.Tool, req.Args)
		case ToolWeatherLookup:
			res, err = executeWeatherLookup(req.Tool, req.Args)
		default:
			res = contractx.ToolResult{
				Tool:  req.Tool,
				Error: fmt.Sprintf("tool=%s has no executor", req.Tool),
			}
		}
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
