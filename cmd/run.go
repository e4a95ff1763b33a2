package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hookwise/hookwise/internal/config"
	"github.com/hookwise/hookwise/internal/history"
	"github.com/hookwise/hookwise/internal/hook"
)

// cmdRun is the dispatcher entry, invoked by the generated scripts as
// `hookwise run <event> [args...]`. The exit code is the contract back to
// git: 0 proceeds, nonzero aborts the triggering operation.
func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	g := addGlobalFlags(fs)
	_ = fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "hookwise run: event name required")
		return 2
	}
	event, hookArgs := rest[0], rest[1:]

	a, err := newApp(g)
	if err != nil {
		// A broken installation must never abort the git operation.
		fmt.Fprintf(os.Stderr, "hookwise: %v\n", err)
		return 0
	}

	ctx := hook.NewContext(event, hookArgs, a.projectRoot)
	start := time.Now()
	result := a.registry.Dispatch(ctx)
	recordInvocation(a, ctx, result, time.Since(start))

	report(os.Stderr, result)
	return result.ExitCode()
}

// recordInvocation appends the audit row, best-effort.
func recordInvocation(a *app, ctx *hook.Context, result *hook.Result, elapsed time.Duration) {
	store, err := history.Open(config.HistoryPath(a.projectRoot))
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return
	}
	defer store.Close()

	hookID := ""
	if desc := a.registry.ByEvent(ctx.Event); desc != nil {
		hookID = desc.ID
	}
	channel, _ := ctx.Data["channel"].(string)
	model, _ := ctx.Data["model"].(string)
	store.Append(context.Background(), history.Record{
		Invocation:  ctx.InvocationID,
		Hook:        hookID,
		Event:       ctx.Event,
		Status:      string(result.Status),
		ShouldBlock: result.ShouldBlock,
		Channel:     channel,
		Model:       model,
		Duration:    elapsed,
	})
}

// report writes the outcome to stderr for the developer running the git
// command. Stdout stays untouched; some hooks' stdout is read by git.
func report(w io.Writer, result *hook.Result) {
	switch {
	case result.ShouldBlock:
		fmt.Fprintf(w, "hookwise: %s\n", result.Message)
	case result.Status == hook.StatusWarning:
		fmt.Fprintf(w, "hookwise: %s (not blocking)\n", result.Message)
	case result.Status == hook.StatusFailure:
		fmt.Fprintf(w, "hookwise: hook failed: %s (not blocking)\n", result.Message)
	}

	for _, issue := range result.Issues {
		location := ""
		if issue.File != "" {
			location = " " + issue.File
			if issue.Line > 0 {
				location = fmt.Sprintf("%s:%d", location, issue.Line)
			}
		}
		fmt.Fprintf(w, "  [%s]%s %s\n", issue.Severity, location, issue.Description)
	}

	if review, ok := result.Data["ai_review"].(string); ok && review != "" {
		fmt.Fprintf(w, "\n%s\n", review)
	}
	if suggestion, ok := result.Data["suggestion"].(string); ok && suggestion != "" {
		fmt.Fprintf(w, "  suggested name: %s\n", suggestion)
	}
}
