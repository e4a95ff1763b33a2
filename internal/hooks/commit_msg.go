package hooks

import (
	"fmt"
	"strings"

	"github.com/hookwise/hookwise/internal/git"
	"github.com/hookwise/hookwise/internal/hook"
)

// subject suffixes that suggest past tense rather than imperative mood.
// Deliberately crude; the AI pass catches what this misses.
var pastTenseSuffixes = []string{"ed", "ing"}

// imperativeExceptions are common subject openers the suffix heuristic
// would misfire on.
var imperativeExceptions = map[string]bool{
	"feed": true, "speed": true, "embed": true, "shed": true,
	"bring": true, "string": true, "ping": true,
}

// CommitMessageHook lints the commit message deterministically and, when
// a backend channel is available, asks for an AI quality review. The lint
// findings are the fallback whenever the backend cannot serve.
type CommitMessageHook struct {
	hook.Base
	deps *Deps
}

func NewCommitMessageHook(deps *Deps) *CommitMessageHook {
	return &CommitMessageHook{deps: deps}
}

func (h *CommitMessageHook) Schema() hook.Schema {
	return hook.BaseSchema().Merge(hook.Schema{
		"subject_max_length": {Type: hook.FieldNumber, Default: float64(72)},
		"body_wrap_column":   {Type: hook.FieldNumber, Default: float64(100)},
		"ai_review":          {Type: hook.FieldBool, Default: true},
	})
}

func (h *CommitMessageHook) Register(p *hook.Pipeline) {
	p.Use(hook.PhaseExecution, h.run)
}

func (h *CommitMessageHook) run(ctx *hook.Context) (hook.Decision, error) {
	if len(ctx.Args) == 0 {
		return hook.Decision{}, fmt.Errorf("commit-msg invoked without a message file argument")
	}

	message, err := git.CommitMessageFromFile(ctx.Args[0])
	if err != nil {
		return hook.Decision{}, err
	}
	if message == "" {
		// Git rejects empty messages on its own; nothing to review.
		return hook.Done(hook.Skipped("empty commit message")), nil
	}
	if isAutoMessage(message) {
		return hook.Done(hook.Skipped("merge/fixup commit, review skipped")), nil
	}

	issues := h.lint(message)

	result := hook.Success("commit message looks good")
	if len(issues) > 0 {
		result = hook.Warning(
			fmt.Sprintf("commit message review found %d issue(s)", len(issues)),
			issues...)
	}

	if h.wantAIReview() {
		review, err := h.deps.generate(ctx, h.Desc, "commit-msg", map[string]string{
			"message":         message,
			"recent_subjects": strings.Join(h.deps.Git.RecentSubjects(gitContext(ctx), 5), "\n"),
		})
		switch {
		case err != nil:
			// Deterministic findings stand in for the review.
			ctx.Logger.Debug().Err(err).Msg("backend review unavailable, using rule findings only")
		case !strings.EqualFold(strings.TrimSpace(review), "LGTM"):
			result.WithData("ai_review", strings.TrimSpace(review))
		}
	}

	return hook.Done(result), nil
}

func (h *CommitMessageHook) wantAIReview() bool {
	enabled, _ := h.Desc.Extra["ai_review"].(bool)
	return enabled
}

// lint runs the deterministic commit-message rules.
func (h *CommitMessageHook) lint(message string) []hook.Issue {
	var issues []hook.Issue
	strictness := h.Desc.Strictness

	lines := strings.Split(message, "\n")
	subject := strings.TrimSpace(lines[0])

	maxSubject := intField(h.Desc, "subject_max_length", 72)
	if len(subject) > maxSubject {
		issues = append(issues, hook.Issue{
			Severity:    severityFor(strictness, hook.SeverityMedium),
			Description: fmt.Sprintf("subject is %d characters, limit is %d", len(subject), maxSubject),
		})
	}
	if strings.HasSuffix(subject, ".") {
		issues = append(issues, hook.Issue{
			Severity:    severityFor(strictness, hook.SeverityLow),
			Description: "subject ends with a period",
		})
	}
	if word := firstWord(subject); word != "" && looksPastTense(word) {
		issues = append(issues, hook.Issue{
			Severity:    severityFor(strictness, hook.SeverityLow),
			Description: fmt.Sprintf("subject starts with %q; prefer the imperative mood", word),
		})
	}
	if len(lines) > 1 && strings.TrimSpace(lines[1]) != "" {
		issues = append(issues, hook.Issue{
			Severity:    severityFor(strictness, hook.SeverityLow),
			Description: "missing blank line between subject and body",
			Line:        2,
		})
	}

	wrap := intField(h.Desc, "body_wrap_column", 100)
	for i, line := range lines[1:] {
		if len(line) > wrap {
			issues = append(issues, hook.Issue{
				Severity:    severityFor(strictness, hook.SeverityLow),
				Description: fmt.Sprintf("body line exceeds %d characters", wrap),
				Line:        i + 2,
			})
		}
	}
	return issues
}

// isAutoMessage reports git-generated messages that should not be linted.
func isAutoMessage(message string) bool {
	return strings.HasPrefix(message, "Merge ") ||
		strings.HasPrefix(message, "Revert ") ||
		strings.HasPrefix(message, "fixup!") ||
		strings.HasPrefix(message, "squash!")
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	word := fields[0]
	// Conventional-commit prefixes wrap the verb; skip "type(scope):".
	if strings.HasSuffix(word, ":") && len(fields) > 1 {
		word = fields[1]
	}
	return strings.ToLower(word)
}

func looksPastTense(word string) bool {
	if imperativeExceptions[word] {
		return false
	}
	for _, suffix := range pastTenseSuffixes {
		if len(word) > len(suffix)+2 && strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}

// intField reads a numeric schema field, falling back when unset.
func intField(desc *hook.Descriptor, key string, fallback int) int {
	if v, ok := desc.Extra[key].(float64); ok && v > 0 {
		return int(v)
	}
	return fallback
}
