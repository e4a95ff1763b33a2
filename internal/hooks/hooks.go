// Package hooks holds the concrete hooks shipped with the dispatcher:
// commit-message review, staged-diff review, and branch naming policy.
//
// Every hook follows the same shape: deterministic rule-based checks that
// always run, plus an optional AI pass through the backend client. When
// the backend is unavailable the deterministic findings are the result;
// backend errors never escape a hook.
package hooks

import (
	"context"
	"fmt"

	"github.com/hookwise/hookwise/internal/backend"
	"github.com/hookwise/hookwise/internal/config"
	"github.com/hookwise/hookwise/internal/git"
	"github.com/hookwise/hookwise/internal/hook"
	"github.com/hookwise/hookwise/internal/prompt"
	"github.com/hookwise/hookwise/internal/registry"
)

// Hook IDs, one per event slot.
const (
	CommitMessageID = "commit-msg"
	DiffReviewID    = "diff-review"
	BranchPolicyID  = "branch-policy"
)

// Deps are the collaborators injected into every hook for one process
// run.
type Deps struct {
	Git      *git.Client
	Backend  *backend.Client
	Settings *config.Settings

	// PromptsDir holds user prompt-template overrides.
	PromptsDir string
}

// RegisterAll registers the shipped hooks on the registry. The staged-diff
// hook declares a dependency on the commit-message hook so batch setup
// orders them deterministically.
func RegisterAll(r *registry.Registry, deps *Deps) error {
	regs := []registry.Registration{
		{
			ID:          CommitMessageID,
			Name:        "commit message review",
			Description: "lints the commit message and optionally asks the AI backend for a quality review",
			Event:       "commit-msg",
			Hook:        NewCommitMessageHook(deps),
		},
		{
			ID:          DiffReviewID,
			Name:        "staged diff review",
			Description: "scans the staged diff for leftovers and optionally summarizes it",
			Event:       "pre-commit",
			DependsOn:   []string{CommitMessageID},
			Hook:        NewDiffReviewHook(deps),
		},
		{
			ID:          BranchPolicyID,
			Name:        "branch naming policy",
			Description: "enforces the branch naming pattern before a push",
			Event:       "pre-push",
			Hook:        NewBranchPolicyHook(deps),
		},
	}
	for _, reg := range regs {
		if _, err := r.Register(reg); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.ID, err)
		}
	}
	return nil
}

// generate renders the named prompt template and runs it through the
// backend client, honoring the hook's channel preference. The winning
// channel and model are recorded in the invocation's data bag for the
// audit trail.
//
// The error is one of the backend package's sentinels or a channel
// failure; callers fall back to their deterministic output on any of
// them.
func (d *Deps) generate(ctx *hook.Context, desc *hook.Descriptor, template string, vars map[string]string) (string, error) {
	if d.Backend == nil {
		return "", backend.ErrUnavailable
	}

	tpl, err := prompt.Load(d.PromptsDir, template)
	if err != nil {
		return "", err
	}

	model := tpl.Model
	if model == "" {
		model = d.Settings.Backend.Model
	}
	maxTokens := tpl.MaxTokens
	if maxTokens <= 0 {
		maxTokens = d.Settings.Backend.MaxTokens
	}

	resp, err := d.Backend.Invoke(context.Background(), backend.Request{
		Prompt:      tpl.Render(vars),
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: tpl.Temperature,
		Cache:       true,
		PreferCLI:   desc.PreferCLI,
	})
	if err != nil {
		return "", err
	}

	ctx.Data["channel"] = resp.Channel
	ctx.Data["model"] = model
	return resp.Text, nil
}

// gitContext is the context for git subprocess queries issued from
// middleware. The pipeline owns no cancellation layer; the timeout lives
// in the git client itself.
func gitContext(_ *hook.Context) context.Context { return context.Background() }

// severityFor grades a rule violation by the hook's strictness.
func severityFor(s hook.Strictness, base hook.Severity) hook.Severity {
	if s != hook.StrictnessHigh {
		return base
	}
	switch base {
	case hook.SeverityLow:
		return hook.SeverityMedium
	case hook.SeverityMedium:
		return hook.SeverityHigh
	default:
		return base
	}
}
