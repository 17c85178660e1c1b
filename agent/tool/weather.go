package tool

import (
	contractx "github.com/magalia-labs/concierge/agent/contract"
)

type WeatherLookupOutput struct {
	Location    string `json:"location"`
	Weather     string `json:"weather"`
	Temperature int    `json:"temperature"`
}

// executeWeatherLookup returns canned conditions; the assistant example
// only needs a deterministic payload to speak back.
func executeWeatherLookup(tool string, args map[string]any) (contractx.ToolResult, error) {
	location, _ := args["location"].(string)
	if location == "" {
		return contractx.ToolResult{
			Tool:  tool,
			Error: "location is required",
		}, nil
	}

	return contractx.ToolResult{
		Tool: tool,
		Result: WeatherLookupOutput{
			Location:    location,
			Weather:     "sunny",
			Temperature: 70,
		},
	}, nil
}
