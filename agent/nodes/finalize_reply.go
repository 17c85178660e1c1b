package dialognode

import (
	"fmt"
	"strings"

	contractx "github.com/magalia-labs/concierge/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: active role returned empty reply", contractx.ErrValidation)
	}
	return GraphOutput{Reply: reply}, nil
}
