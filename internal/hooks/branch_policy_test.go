package hooks

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hookwise/hookwise/internal/config"
	"github.com/hookwise/hookwise/internal/git"
	"github.com/hookwise/hookwise/internal/hook"
)

func checkoutBranch(t *testing.T, dir, name string) {
	t.Helper()
	cmd := exec.Command("git", "checkout", "-q", "-b", name)
	cmd.Dir = dir
	require.NoError(t, cmd.Run())
}

func newBranchHook(t *testing.T, dir string) *BranchPolicyHook {
	t.Helper()
	h := NewBranchPolicyHook(&Deps{Git: git.New(dir), Settings: config.Defaults()})
	desc := hook.NewDescriptor(BranchPolicyID, "branch naming policy", "", "pre-push", h.Schema())
	desc.Apply(nil)
	require.NoError(t, h.Configure(desc))
	return h
}

func runBranchHook(t *testing.T, h *BranchPolicyHook, dir string) *hook.Result {
	t.Helper()
	p := hook.NewPipeline()
	h.Register(p)
	return p.Run(hook.NewContext("pre-push", nil, dir), h.ShouldRun)
}

// ===== EXECUTION =====

func TestBranchPolicy_CompliantBranchPasses(t *testing.T) {
	dir := initRepo(t)
	checkoutBranch(t, dir, "feature/cache-ttl")
	h := newBranchHook(t, dir)

	res := runBranchHook(t, h, dir)
	assert.Equal(t, hook.StatusSuccess, res.Status)
}

func TestBranchPolicy_ViolationCarriesSuggestion(t *testing.T) {
	dir := initRepo(t)
	checkoutBranch(t, dir, "My_Messy_Branch")
	h := newBranchHook(t, dir)

	res := runBranchHook(t, h, dir)
	require.Equal(t, hook.StatusWarning, res.Status)
	require.NotEmpty(t, res.Issues)
	assert.Equal(t, hook.SeverityHigh, res.Issues[0].Severity)
	assert.Equal(t, "feature/my_messy_branch", res.Data["suggestion"])
}

func TestBranchPolicy_ProtectedBranchFlagged(t *testing.T) {
	dir := initRepo(t)
	h := newBranchHook(t, dir) // still on main

	res := runBranchHook(t, h, dir)
	require.Equal(t, hook.StatusWarning, res.Status)
	assert.Contains(t, res.Issues[0].Description, "protected branch")
}

func TestBranchPolicy_CustomPattern(t *testing.T) {
	dir := initRepo(t)
	checkoutBranch(t, dir, "task-123")
	h := newBranchHook(t, dir)
	h.Desc.Apply(map[string]any{"pattern": `^task-\d+$`})

	res := runBranchHook(t, h, dir)
	assert.Equal(t, hook.StatusSuccess, res.Status)
}

func TestBranchPolicy_BadPatternIsNonFatal(t *testing.T) {
	dir := initRepo(t)
	checkoutBranch(t, dir, "feature/ok")
	h := newBranchHook(t, dir)
	h.Desc.Apply(map[string]any{"pattern": `([unclosed`})

	res := runBranchHook(t, h, dir)
	require.Equal(t, hook.StatusWarning, res.Status)
	assert.Equal(t, hook.SeverityLow, res.Issues[0].Severity)
	assert.Equal(t, 0, res.ExitCode())
}

// ===== SUGGESTIONS =====

func TestRuleSuggestion(t *testing.T) {
	assert.Equal(t, "feature/my-branch", ruleSuggestion("My Branch"))
	assert.Equal(t, "fix/cache-bug", ruleSuggestion("Fix/Cache Bug"))
	assert.Equal(t, "feature/weird-foo", ruleSuggestion("weird/foo"))
	assert.Equal(t, "feature/update", ruleSuggestion("///"))
	assert.Equal(t, "hotfix/rollback", ruleSuggestion("hotfix/Rollback"))
}
