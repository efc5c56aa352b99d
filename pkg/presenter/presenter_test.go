package presenter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	presenter := New()
	assert.NotNil(t, presenter)
	assert.Equal(t, os.Stdout, presenter.output)
	assert.Equal(t, os.Stderr, presenter.errorOutput)
	assert.False(t, presenter.quiet)
}

func TestNewWithOptions(t *testing.T) {
	var output, errorOutput bytes.Buffer
	presenter := NewWithOptions(&output, &errorOutput, ColorNever)

	assert.Equal(t, &output, presenter.output)
	assert.Equal(t, &errorOutput, presenter.errorOutput)
	assert.Equal(t, ColorNever, presenter.colorMode)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name      string
		noColor   string
		skillMode string
		expected  ColorMode
	}{
		{"NO_COLOR set", "1", "always", ColorNever},
		{"SKILLCHECK_COLOR always", "", "always", ColorAlways},
		{"SKILLCHECK_COLOR force", "", "force", ColorAlways},
		{"SKILLCHECK_COLOR never", "", "never", ColorNever},
		{"SKILLCHECK_COLOR off", "", "off", ColorNever},
		{"SKILLCHECK_COLOR auto", "", "auto", ColorAuto},
		{"default", "", "", ColorAuto},
		{"invalid value", "", "rainbow", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("SKILLCHECK_COLOR", tt.skillMode)
			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"": ColorAuto, "AUTO": ColorAuto, "always": ColorAlways, "never": ColorNever, "off": ColorNever} {
		got, err := ParseColorMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestError(t *testing.T) {
	var errorOutput bytes.Buffer
	presenter := NewWithOptions(nil, &errorOutput, ColorNever)

	err := errors.New("skills root not found")
	presenter.Error(err, "setup failed")
	assert.Equal(t, "[ERROR] setup failed: skills root not found\n", errorOutput.String())

	errorOutput.Reset()
	presenter.Error(err, "")
	assert.Equal(t, "[ERROR] skills root not found\n", errorOutput.String())

	errorOutput.Reset()
	presenter.Error(nil, "context")
	assert.Empty(t, errorOutput.String())
}

func TestMessagesQuietMode(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Success("done")
	presenter.Warning("careful")
	presenter.Info("plain")
	result := output.String()
	assert.Contains(t, result, "✓ done")
	assert.Contains(t, result, "⚠ careful")
	assert.Contains(t, result, "plain\n")

	output.Reset()
	presenter.SetQuiet(true)
	assert.True(t, presenter.IsQuiet())
	presenter.Success("done")
	presenter.Warning("careful")
	presenter.Info("plain")
	presenter.Section("Title")
	presenter.Separator()
	presenter.OK("code/go")
	assert.Empty(t, output.String())
}

func TestSection(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.Section("Rules")

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Rules", lines[0])
	assert.Equal(t, "-----", lines[1])
}

func TestDiagnosticLines(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)
	presenter.SetQuiet(true)

	presenter.Diagnostic(diagnostics.New(diagnostics.Error, "license", "security/owasp", "license %q differs from %q", "GPL", "MIT"))
	presenter.Diagnostic(diagnostics.New(diagnostics.Warning, "execution-steps", "code/go", "steps"))
	presenter.Diagnostic(diagnostics.New(diagnostics.Info, "frontmatter-yaml", "code/go", "yaml"))
	presenter.Diagnostic(diagnostics.New(diagnostics.Error, "rules-directory", "", "rules directory rules does not exist"))

	assert.Equal(t, strings.Join([]string{
		`ERROR: security/owasp: license "GPL" differs from "MIT" [license]`,
		`WARNING: code/go: steps [execution-steps]`,
		`INFO: code/go: yaml [frontmatter-yaml]`,
		`ERROR: rules directory rules does not exist [rules-directory]`,
	}, "\n")+"\n", output.String())
}

func TestOK(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)

	presenter.OK("code/go")
	assert.Equal(t, "OK: code/go\n", output.String())
}

func TestSummaryAndVerdict(t *testing.T) {
	var output bytes.Buffer
	presenter := NewWithOptions(&output, nil, ColorNever)
	presenter.SetQuiet(true)

	presenter.Summary(diagnostics.Summary{Units: 3, Errors: 1, Warnings: 2})
	presenter.Verdict(false)

	result := output.String()
	assert.Contains(t, result, "Summary\n-------\n")
	assert.Contains(t, result, "Units checked: 3\n")
	assert.Contains(t, result, "Errors:        1\n")
	assert.Contains(t, result, "Warnings:      2\n")
	assert.NotContains(t, result, "Suppressed")
	assert.True(t, strings.HasSuffix(result, "FAILED\n"))

	output.Reset()
	presenter.Summary(diagnostics.Summary{Units: 1, Suppressed: 4})
	presenter.Verdict(true)
	assert.Contains(t, output.String(), "Suppressed:    4\n")
	assert.True(t, strings.HasSuffix(output.String(), "PASSED\n"))
}
