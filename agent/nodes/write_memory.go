package dialognode

import (
	"context"
	"fmt"

	contractx "github.com/magalia-labs/concierge/agent/contract"
)

func WriteMemory(
	ctx context.Context,
	in *GraphState,
	memory contractx.MemoryStore,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.MemoryUpdate == "" {
		return in, nil
	}

	if err := memory.WriteSummary(ctx, in.Session.CustomerID, in.MemoryUpdate); err != nil {
		return nil, err
	}
	return in, nil
}
