package hooks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hookwise/hookwise/internal/hook"
)

// defaultBranchPattern accepts the usual type/slug shape plus the
// long-lived branches.
const defaultBranchPattern = `^(main|master|develop)$|^(feature|fix|chore|docs|refactor|release|hotfix)/[a-z0-9._-]+$`

// slugChars strips everything a branch slug should not carry.
var slugChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// BranchPolicyHook checks the current branch name against a configurable
// pattern before a push. A violation carries a rename suggestion: rule
// derived by default, AI generated when enabled and servable.
type BranchPolicyHook struct {
	hook.Base
	deps *Deps
}

func NewBranchPolicyHook(deps *Deps) *BranchPolicyHook {
	return &BranchPolicyHook{deps: deps}
}

func (h *BranchPolicyHook) Schema() hook.Schema {
	return hook.BaseSchema().Merge(hook.Schema{
		"pattern":    {Type: hook.FieldString, Default: defaultBranchPattern},
		"protected":  {Type: hook.FieldArray, Default: []any{"main", "master"}},
		"ai_suggest": {Type: hook.FieldBool, Default: false},
	})
}

func (h *BranchPolicyHook) Register(p *hook.Pipeline) {
	p.Use(hook.PhaseExecution, h.run)
}

func (h *BranchPolicyHook) run(ctx *hook.Context) (hook.Decision, error) {
	branch := h.deps.Git.CurrentBranch(gitContext(ctx))
	if branch == "" {
		return hook.Done(hook.Skipped("detached HEAD, branch policy skipped")), nil
	}

	var issues []hook.Issue
	for _, p := range h.protected() {
		if branch == p {
			issues = append(issues, hook.Issue{
				Severity:    severityFor(h.Desc.Strictness, hook.SeverityMedium),
				Description: fmt.Sprintf("pushing directly to protected branch %q", branch),
			})
		}
	}

	patternSrc, _ := h.Desc.Extra["pattern"].(string)
	if patternSrc == "" {
		patternSrc = defaultBranchPattern
	}
	pattern, err := regexp.Compile(patternSrc)
	if err != nil {
		// Configuration error: reported, never blocks the push.
		ctx.Logger.Warn().Str("pattern", patternSrc).Err(err).Msg("invalid branch pattern configured")
		issues = append(issues, hook.Issue{
			Severity:    hook.SeverityLow,
			Description: fmt.Sprintf("configured branch pattern does not compile: %v", err),
		})
	} else if !pattern.MatchString(branch) {
		issue := hook.Issue{
			Severity:    hook.SeverityHigh,
			Description: fmt.Sprintf("branch %q does not match pattern %s", branch, patternSrc),
		}
		issues = append(issues, issue)
	}

	if len(issues) == 0 {
		return hook.Done(hook.Success(fmt.Sprintf("branch %q passes naming policy", branch))), nil
	}

	result := hook.Warning(
		fmt.Sprintf("branch policy found %d issue(s)", len(issues)),
		issues...)
	result.WithData("suggestion", h.suggest(ctx, branch, patternSrc))
	return hook.Done(result), nil
}

// protected returns the configured protected branch names.
func (h *BranchPolicyHook) protected() []string {
	raw, _ := h.Desc.Extra["protected"].([]any)
	branches := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			branches = append(branches, s)
		}
	}
	return branches
}

// suggest produces a compliant rename: the AI's when enabled and
// servable, the rule-derived slug otherwise.
func (h *BranchPolicyHook) suggest(ctx *hook.Context, branch, pattern string) string {
	fallback := ruleSuggestion(branch)

	if enabled, _ := h.Desc.Extra["ai_suggest"].(bool); !enabled {
		return fallback
	}

	text, err := h.deps.generate(ctx, h.Desc, "branch-policy", map[string]string{
		"branch":  branch,
		"pattern": pattern,
	})
	if err != nil {
		ctx.Logger.Debug().Err(err).Msg("backend suggestion unavailable, using rule-derived name")
		return fallback
	}
	if s := strings.TrimSpace(text); s != "" {
		return s
	}
	return fallback
}

// ruleSuggestion derives a compliant name deterministically: lowercase,
// slug the non-prefix part, default to the feature/ prefix.
func ruleSuggestion(branch string) string {
	prefix := "feature"
	name := strings.ToLower(branch)
	if before, after, ok := strings.Cut(name, "/"); ok {
		switch before {
		case "feature", "fix", "chore", "docs", "refactor", "release", "hotfix":
			prefix = before
			name = after
		}
	}
	slug := slugChars.ReplaceAllString(strings.ReplaceAll(name, " ", "-"), "-")
	slug = strings.Trim(slug, "-.")
	if slug == "" {
		slug = "update"
	}
	return prefix + "/" + slug
}
