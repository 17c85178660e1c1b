package dialognode

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/magalia-labs/concierge/agent/contract"
	routerx "github.com/magalia-labs/concierge/agent/router"
)

// DispatchRole runs the handoff router over the loaded session: the active
// role handles the utterance, tool rounds execute, and any handoff is
// applied before the node returns.
func DispatchRole(
	ctx context.Context,
	in *GraphState,
	registry contractx.Registry,
	tools contractx.ToolGateway,
) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	rt, err := routerx.New(in.Session, registry,
		routerx.WithToolGateway(tools),
		routerx.WithMemorySummary(in.MemorySummary),
		routerx.WithClock(func() time.Time { return in.Now }),
	)
	if err != nil {
		return nil, err
	}

	result, err := rt.Dispatch(ctx, in.Text)
	if err != nil {
		return nil, err
	}

	in.Reply = result.Reply
	in.MemoryUpdate = result.MemoryUpdate
	return in, nil
}
