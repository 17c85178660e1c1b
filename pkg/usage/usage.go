// Package usage aggregates model token usage across a process lifetime.
package usage

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"

	logx "github.com/magalia-labs/concierge/pkg/logger"
)

// Collector accumulates token usage reported by model callbacks. It logs one
// line per model call and a process summary on shutdown.
type Collector struct {
	mu               sync.Mutex
	calls            int
	promptTokens     int
	completionTokens int
	totalTokens      int
}

func NewCollector() *Collector {
	return &Collector{}
}

// Handler returns the callback handler to register with the graph runtime,
// typically via callbacks.AppendGlobalHandlers.
func (c *Collector) Handler() callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			out := einomodel.ConvCallbackOutput(output)
			if out == nil || out.TokenUsage == nil {
				return ctx
			}
			c.record(info, out.TokenUsage)
			return ctx
		}).
		Build()
}

func (c *Collector) record(info *callbacks.RunInfo, u *einomodel.TokenUsage) {
	c.mu.Lock()
	c.calls++
	c.promptTokens += u.PromptTokens
	c.completionTokens += u.CompletionTokens
	c.totalTokens += u.TotalTokens
	c.mu.Unlock()

	usageLog := logx.Component("usage")
	event := usageLog.Info().
		Int("prompt_tokens", u.PromptTokens).
		Int("completion_tokens", u.CompletionTokens).
		Int("total_tokens", u.TotalTokens)
	if info != nil {
		event = event.Str("node", info.Name)
	}
	event.Msg("model call usage")
}

// Totals reports the accumulated counters.
func (c *Collector) Totals() (calls, promptTokens, completionTokens, totalTokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.promptTokens, c.completionTokens, c.totalTokens
}

// LogSummary writes the accumulated totals; call once at shutdown.
func (c *Collector) LogSummary() {
	c.mu.Lock()
	defer c.mu.Unlock()
	usageLog := logx.Component("usage")
	usageLog.Info().
		Int("model_calls", c.calls).
		Int("prompt_tokens", c.promptTokens).
		Int("completion_tokens", c.completionTokens).
		Int("total_tokens", c.totalTokens).
		Msg("usage summary")
}
