// Command accrue reads Messages API event streams and prints what they carry.
//
// Usage:
//
//	accrue events  [FILE]   print each classified event
//	accrue text    [FILE]   print text as it arrives
//	accrue tools   [FILE]   print tool input fragments and final inputs
//	accrue collect [FILE]   print the accumulated message as JSON
//
// FILE is a captured SSE response body; "-" or no argument reads stdin.
// With --request, the JSON body in that file is posted to the API instead:
//
//	ANTHROPIC_API_KEY=sk-... accrue collect --request body.json
//
// Environment:
//
//	ANTHROPIC_API_KEY    API key, required with --request
//	ANTHROPIC_BASE_URL   API base URL (default https://api.anthropic.com)
//	ACCRUE_LOG_LEVEL     trace, debug, info, warn, error (default info)
//	ACCRUE_HTTP_TIMEOUT  whole-request timeout, 0 for none (default 10m)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "accrue: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg.LogLevel, os.Stderr)

	return newRootCmd(cfg, logger).ExecuteContext(ctx)
}
