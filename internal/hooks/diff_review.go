package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hookwise/hookwise/internal/hook"
	"github.com/hookwise/hookwise/internal/prompt"
)

// DiffReviewHook scans the staged diff for leftovers a developer rarely
// means to commit and, when a backend channel is available, attaches an
// AI summary of the change. The fallback summary is a plain file-stat
// line derived from the diff itself.
type DiffReviewHook struct {
	hook.Base
	deps *Deps
}

func NewDiffReviewHook(deps *Deps) *DiffReviewHook {
	return &DiffReviewHook{deps: deps}
}

func (h *DiffReviewHook) Schema() hook.Schema {
	return hook.BaseSchema().Merge(hook.Schema{
		"max_file_kb":  {Type: hook.FieldNumber, Default: float64(500)},
		"token_budget": {Type: hook.FieldNumber, Default: float64(6000)},
		"ai_summary":   {Type: hook.FieldBool, Default: true},
		"forbid_patterns": {Type: hook.FieldArray, Default: []any{
			"console.log(",
			"debugger;",
			"fmt.Println(",
			"binding.pry",
			"TODO remove",
		}},
	})
}

func (h *DiffReviewHook) Register(p *hook.Pipeline) {
	p.Use(hook.PhaseExecution, h.run)
}

func (h *DiffReviewHook) run(ctx *hook.Context) (hook.Decision, error) {
	gctx := gitContext(ctx)
	diff := h.deps.Git.StagedDiff(gctx)
	if diff == "" {
		return hook.Done(hook.Success("nothing staged")), nil
	}
	files := h.deps.Git.StagedFiles(gctx)

	issues := h.scan(diff)
	issues = append(issues, h.oversized(ctx.ProjectRoot, files)...)

	summary := h.summarize(ctx, diff, len(files))

	result := hook.Success(summary)
	if len(issues) > 0 {
		result = hook.Warning(
			fmt.Sprintf("staged diff review found %d issue(s)", len(issues)),
			issues...)
		result.WithData("summary", summary)
	}
	return hook.Done(result), nil
}

// scan walks the unified diff tracking the current file and new-side line
// number so findings point at real locations.
func (h *DiffReviewHook) scan(diff string) []hook.Issue {
	var issues []hook.Issue
	patterns := h.forbidPatterns()
	strictness := h.Desc.Strictness

	file := ""
	lineNo := 0
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			file = strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "@@"):
			lineNo = hunkStart(line)
		case strings.HasPrefix(line, "+"):
			added := line[1:]
			if marker := conflictMarker(added); marker != "" {
				issues = append(issues, hook.Issue{
					Severity:    hook.SeverityCritical,
					Description: fmt.Sprintf("merge conflict marker %q staged", marker),
					File:        file,
					Line:        lineNo,
				})
			}
			for _, p := range patterns {
				if strings.Contains(added, p) {
					issues = append(issues, hook.Issue{
						Severity:    severityFor(strictness, hook.SeverityMedium),
						Description: fmt.Sprintf("staged line contains %q", p),
						File:        file,
						Line:        lineNo,
					})
					break
				}
			}
			lineNo++
		case strings.HasPrefix(line, "-"):
			// Removed line, new-side counter unchanged.
		default:
			lineNo++
		}
	}
	return issues
}

// oversized flags staged files above the configured size limit.
func (h *DiffReviewHook) oversized(root string, files []string) []hook.Issue {
	maxKB := intField(h.Desc, "max_file_kb", 500)
	var issues []hook.Issue
	for _, f := range files {
		info, err := os.Stat(filepath.Join(root, f))
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() > int64(maxKB)*1024 {
			issues = append(issues, hook.Issue{
				Severity:    severityFor(h.Desc.Strictness, hook.SeverityMedium),
				Description: fmt.Sprintf("file is %d KB, limit is %d KB", info.Size()/1024, maxKB),
				File:        f,
			})
		}
	}
	return issues
}

// summarize produces the change summary: AI when enabled and servable,
// the deterministic stat line otherwise.
func (h *DiffReviewHook) summarize(ctx *hook.Context, diff string, fileCount int) string {
	fallback := statLine(diff, fileCount)

	if enabled, _ := h.Desc.Extra["ai_summary"].(bool); !enabled {
		return fallback
	}

	budget := intField(h.Desc, "token_budget", 6000)
	text, err := h.deps.generate(ctx, h.Desc, "diff-review", map[string]string{
		"diff":       prompt.TruncateToTokens(diff, budget),
		"file_count": strconv.Itoa(fileCount),
	})
	if err != nil {
		ctx.Logger.Debug().Err(err).Msg("backend summary unavailable, using stat line")
		return fallback
	}
	return strings.TrimSpace(text)
}

// statLine is the deterministic fallback summary.
func statLine(diff string, fileCount int) string {
	added, removed := 0, 0
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}
	return fmt.Sprintf("%d file(s) staged, +%d/-%d lines", fileCount, added, removed)
}

func (h *DiffReviewHook) forbidPatterns() []string {
	raw, _ := h.Desc.Extra["forbid_patterns"].([]any)
	patterns := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			patterns = append(patterns, s)
		}
	}
	return patterns
}

// conflictMarker returns the marker found at the start of an added line,
// "" when none is present.
func conflictMarker(line string) string {
	for _, marker := range []string{"<<<<<<< ", ">>>>>>> ", "======="} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(marker)
		}
	}
	return ""
}

// hunkStart parses the new-side start line out of a @@ -a,b +c,d @@ header.
func hunkStart(header string) int {
	plus := strings.Index(header, "+")
	if plus < 0 {
		return 0
	}
	rest := header[plus+1:]
	end := strings.IndexAny(rest, ", @")
	if end < 0 {
		end = len(rest)
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}
