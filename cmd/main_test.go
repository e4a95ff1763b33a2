package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hookwise/hookwise/internal/hook"
)

// ===== CONFIG VALUE PARSING =====

func TestParseScalar(t *testing.T) {
	assert.Equal(t, true, parseScalar("true"))
	assert.Equal(t, false, parseScalar("false"))
	assert.Equal(t, float64(72), parseScalar("72"))
	assert.Equal(t, 0.25, parseScalar("0.25"))
	assert.Equal(t, "warn", parseScalar("warn"))
	// Bools git users might type are strings unless exact.
	assert.Equal(t, "True", parseScalar("True"))
	assert.Equal(t, "1.0.0", parseScalar("1.0.0"))
	assert.Equal(t, float64(1), parseScalar("1"))
}

// ===== RESULT REPORTING =====

func TestReport_BlockingResult(t *testing.T) {
	var buf bytes.Buffer
	result := hook.Warning("commit message review found 1 issue(s)",
		hook.Issue{Severity: hook.SeverityHigh, Description: "subject too long", File: "msg", Line: 1})
	result.ShouldBlock = true

	report(&buf, result)
	out := buf.String()
	assert.Contains(t, out, "commit message review found 1 issue(s)")
	assert.NotContains(t, out, "not blocking")
	assert.Contains(t, out, "[high] msg:1 subject too long")
}

func TestReport_WarningResult(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, hook.Warning("issues found", hook.Issue{Severity: hook.SeverityLow, Description: "x"}))
	out := buf.String()
	assert.Contains(t, out, "not blocking")
	assert.Contains(t, out, "[low] x")
}

func TestReport_SuccessIsSilent(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, hook.Success("all good"))
	assert.Empty(t, buf.String())
}

func TestReport_DataExtras(t *testing.T) {
	var buf bytes.Buffer
	result := hook.Warning("branch policy found 1 issue(s)",
		hook.Issue{Severity: hook.SeverityHigh, Description: "bad name"})
	result.WithData("suggestion", "feature/bad-name")

	report(&buf, result)
	assert.Contains(t, buf.String(), "suggested name: feature/bad-name")
}
