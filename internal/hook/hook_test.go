package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockingDescriptor(mode BlockingMode, threshold Severity) *Descriptor {
	d := NewDescriptor("test-hook", "Test Hook", "", "pre-commit", BaseSchema())
	d.BlockingMode = mode
	d.BlockOnSeverity = threshold
	return d
}

// ===== BLOCKING POLICY =====

// TestApplyPolicy_BlockModeHighSeverity verifies that block mode with
// a finding at the threshold severity sets shouldBlock and a nonzero exit.
func TestApplyPolicy_BlockModeHighSeverity(t *testing.T) {
	desc := blockingDescriptor(BlockingModeBlock, SeverityHigh)
	result := Warning("found issues", Issue{
		Severity:    SeverityHigh,
		Description: "hardcoded credential",
		File:        "main.go",
		Line:        42,
	})
	ApplyPolicy(desc, result)

	assert.True(t, result.ShouldBlock)
	assert.Equal(t, 1, result.ExitCode())
}

// TestApplyPolicy_WarnModeNeverBlocks verifies that warn mode forces
// shouldBlock false regardless of issue severity.
func TestApplyPolicy_WarnModeNeverBlocks(t *testing.T) {
	desc := blockingDescriptor(BlockingModeWarn, SeverityHigh)
	result := Warning("found issues", Issue{
		Severity:    SeverityCritical,
		Description: "hardcoded credential",
	})
	ApplyPolicy(desc, result)

	assert.False(t, result.ShouldBlock)
	assert.Equal(t, 0, result.ExitCode())
}

// TestApplyPolicy_NoneModeNeverBlocks verifies the none mode even when
// the hook itself asked for a block.
func TestApplyPolicy_NoneModeNeverBlocks(t *testing.T) {
	desc := blockingDescriptor(BlockingModeNone, SeverityLow)
	result := Warning("found issues", Issue{Severity: SeverityCritical, Description: "x"})
	result.ShouldBlock = true

	ApplyPolicy(desc, result)
	assert.False(t, result.ShouldBlock)
}

// TestApplyPolicy_BlockModeBelowThreshold verifies that findings below
// the threshold do not block.
func TestApplyPolicy_BlockModeBelowThreshold(t *testing.T) {
	desc := blockingDescriptor(BlockingModeBlock, SeverityHigh)
	result := Warning("found issues", Issue{
		Severity:    SeverityMedium,
		Description: "long line",
	})
	ApplyPolicy(desc, result)

	assert.False(t, result.ShouldBlock)
}

// TestApplyPolicy_NilResult verifies a nil result is tolerated.
func TestApplyPolicy_NilResult(t *testing.T) {
	assert.NotPanics(t, func() {
		ApplyPolicy(blockingDescriptor(BlockingModeBlock, SeverityLow), nil)
	})
}

// ===== GATE HELPERS =====

// TestBase_ShouldRunHonorsEnabled verifies the default gate follows the
// descriptor's enabled flag.
func TestBase_ShouldRunHonorsEnabled(t *testing.T) {
	desc := NewDescriptor("commit-msg", "Commit Message", "", "commit-msg", BaseSchema())
	b := &Base{}
	require.NoError(t, b.Configure(desc))

	ctx := NewContext("commit-msg", nil, t.TempDir())
	assert.True(t, b.ShouldRun(ctx))

	desc.Enabled = false
	assert.False(t, b.ShouldRun(ctx))
}

// TestSkippedByEnv verifies the HOOKWISE_SKIP comma list, including the
// "all" wildcard and case insensitivity.
func TestSkippedByEnv(t *testing.T) {
	ctx := NewContext("pre-commit", nil, t.TempDir())

	ctx.Env["HOOKWISE_SKIP"] = "commit-msg, branch-policy"
	assert.True(t, SkippedByEnv(ctx, "commit-msg"))
	assert.True(t, SkippedByEnv(ctx, "Branch-Policy"))
	assert.False(t, SkippedByEnv(ctx, "diff-review"))

	ctx.Env["HOOKWISE_SKIP"] = "all"
	assert.True(t, SkippedByEnv(ctx, "diff-review"))

	delete(ctx.Env, "HOOKWISE_SKIP")
	assert.False(t, SkippedByEnv(ctx, "commit-msg"))
}

// ===== RESULT CONTRACT =====

// TestResult_MaxSeverity verifies severity ranking across issues.
func TestResult_MaxSeverity(t *testing.T) {
	r := Warning("issues",
		Issue{Severity: SeverityLow, Description: "a"},
		Issue{Severity: SeverityCritical, Description: "b"},
		Issue{Severity: SeverityMedium, Description: "c"},
	)
	assert.Equal(t, SeverityCritical, r.MaxSeverity())

	assert.Equal(t, Severity(""), Success("clean").MaxSeverity())
}

// TestSeverity_AtLeast verifies threshold comparisons.
func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.True(t, SeverityHigh.AtLeast(SeverityHigh))
	assert.False(t, SeverityMedium.AtLeast(SeverityHigh))
	assert.False(t, Severity("bogus").AtLeast(SeverityLow))
}
