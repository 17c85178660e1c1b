package tool

import (
	"strings"

	contractx "github.com/magalia-labs/concierge/agent/contract"
)

// MenuItem is one dish on the house menu.
type MenuItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// houseMenu is the canned menu the concierge serves. A real deployment
// would load this from the restaurant's catalog service.
var houseMenu = []MenuItem{
	{Name: "Margherita Pizza", Price: 12.50},
	{Name: "Paella Valenciana", Price: 18.00},
	{Name: "Gazpacho", Price: 7.25},
	{Name: "Tortilla Espanola", Price: 9.00},
	{Name: "Pulpo a la Gallega", Price: 16.75},
	{Name: "Crema Catalana", Price: 6.50},
	{Name: "House Rioja (glass)", Price: 5.00},
}

type MenuLookupOutput struct {
	Items []MenuItem `json:"items"`
}

func executeMenuLookup(tool string, args map[string]any) (contractx.ToolResult, error) {
	query := ""
	if raw, ok := args["query"]; ok {
		if s, ok := raw.(string); ok {
			query = strings.ToLower(strings.TrimSpace(s))
		}
	}

	if query == "" {
		return contractx.ToolResult{
			Tool:   tool,
			Result: MenuLookupOutput{Items: houseMenu},
		}, nil
	}

	matched := make([]MenuItem, 0, len(houseMenu))
	for _, item := range houseMenu {
		if strings.Contains(strings.ToLower(item.Name), query) {
			matched = append(matched, item)
		}
	}
	if len(matched) == 0 {
		return contractx.ToolResult{
			Tool:  tool,
			Error: "no menu items match the query",
		}, nil
	}
	return contractx.ToolResult{
		Tool:   tool,
		Result: MenuLookupOutput{Items: matched},
	}, nil
}
