package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"opencodex/internal/agent"
	"opencodex/internal/config"
)

// runQuiet processes a single prompt without the TUI. Assistant text
// streams to stdout. There is no interactive fallback: actions the policy
// does not auto-approve are denied and reported on stderr, so quiet mode
// stays safe to pipe.
func runQuiet(cfg *config.Config, prompt string) error {
	a, cwd, err := buildAgent(cfg)
	if err != nil {
		return err
	}

	store, err := openSessionStore(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	var sessionID string
	if store != nil {
		defer store.Close()
		if sessionID, err = store.Begin(cfg.Model, cwd); err != nil {
			return err
		}
		_ = store.Append(sessionID, 0, "user", prompt)
	}

	var answer strings.Builder
	var runErr error

	for ev := range a.Run(ctx, prompt) {
		switch ev.Type {
		case agent.EventText:
			answer.WriteString(ev.Text)
			fmt.Print(ev.Text)
		case agent.EventToolStart:
			fmt.Fprintf(os.Stderr, "\n[tool] %s\n", ev.ToolName)
		case agent.EventToolEnd:
			if ev.Result != nil && ev.Result.Err != nil {
				fmt.Fprintf(os.Stderr, "[tool] %s failed: %v\n", ev.ToolName, ev.Result.Err)
			}
		case agent.EventApproval:
			ev.Request.Reply <- denyQuietApproval(os.Stderr, ev.Request)
		case agent.EventError:
			runErr = ev.Err
		}
	}
	fmt.Println()

	if store != nil && answer.Len() > 0 {
		_ = store.Append(sessionID, 1, "assistant", answer.String())
	}
	return runErr
}

// denyQuietApproval reports a non-approved action and denies it. Quiet
// mode never prompts; the policy alone decides what runs.
func denyQuietApproval(w io.Writer, req *agent.ApprovalRequest) agent.Decision {
	fmt.Fprintf(w, "\n[skipped] %s requires approval; run interactively or use --full-auto\n", req.ToolName)
	return agent.DecisionDeny
}
