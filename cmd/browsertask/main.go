// The browsertask binary submits one natural-language task to the headless
// browser runner and waits for the result. It exits 0 on success, 1 on
// failure, so callers can script it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	browserx "github.com/magalia-labs/concierge/browser"
	configx "github.com/magalia-labs/concierge/pkg/config"
	logx "github.com/magalia-labs/concierge/pkg/logger"
	_ "github.com/magalia-labs/concierge/pkg/logger/autoload"
)

var (
	instruction = flag.String("instruction", "", "natural-language task for the browser runner")
	startURL    = flag.String("start-url", "", "optional page to open before running the task")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		taskLog := logx.Component("browsertask")
		taskLog.Error().Err(err).Msg("task failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := configx.MustNew[browserx.Config]("BROWSER")
	client := browserx.MustNew(*cfg)

	task := browserx.Task{
		Instruction: *instruction,
		StartURL:    *startURL,
	}

	result, err := client.Run(ctx, task)
	if err != nil {
		return err
	}

	taskLog := logx.Component("browsertask")
	taskLog.Info().
		Str("task_id", result.ID).
		Str("status", string(result.Status)).
		Msg("task finished")
	fmt.Println(result.Output)
	return nil
}
