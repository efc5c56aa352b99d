package diagnostics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity(t *testing.T) {
	assert.Equal(t, "ERROR", Error.String())
	assert.Equal(t, "WARNING", Warning.String())
	assert.Equal(t, "INFO", Info.String())

	for _, tag := range []string{"error", "ERROR", " Error "} {
		s, err := ParseSeverity(tag)
		require.NoError(t, err)
		assert.Equal(t, Error, s)
	}
	s, err := ParseSeverity("warn")
	require.NoError(t, err)
	assert.Equal(t, Warning, s)

	_, err = ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestDiagnosticString(t *testing.T) {
	d := New(Error, "license", "security/owasp", "license is %q, expected %q", "GPL", "MIT")
	assert.Equal(t, `ERROR: security/owasp: license is "GPL", expected "MIT" [license]`, d.String())

	runLevel := New(Error, "rules-directory", "", "rules directory %s is missing", "rules")
	assert.Equal(t, "ERROR: rules directory rules is missing [rules-directory]", runLevel.String())
}

func TestDiagnosticJSON(t *testing.T) {
	d := New(Warning, "description-length", "code/go", "too long")
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"severity":"WARNING","rule":"description-length","unit":"code/go","message":"too long"}`, string(data))

	var decoded Diagnostic
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, d, decoded)
}

func TestRunCounts(t *testing.T) {
	r := NewRun()
	kept := r.Add(
		New(Error, "a", "x/y", "one"),
		New(Warning, "b", "x/y", "two"),
		New(Warning, "b", "x/z", "three"),
		New(Info, "c", "x/z", "four"),
	)
	r.UnitChecked()
	r.UnitChecked()

	assert.Len(t, kept, 4)
	assert.Equal(t, Summary{Units: 2, Errors: 1, Warnings: 2, Infos: 1}, r.Summary())
	assert.Equal(t, 1, r.Errors())
	assert.Equal(t, 2, r.Warnings())
	assert.False(t, r.Passed())
	assert.Equal(t, 1, r.ExitCode())

	msgs := []string{}
	for _, d := range r.Diagnostics() {
		msgs = append(msgs, d.Message)
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, msgs)
}

func TestRunExitCodeIgnoresWarnings(t *testing.T) {
	r := NewRun()
	assert.Equal(t, 0, r.ExitCode())

	r.Add(New(Warning, "credential-pattern", "security/a", "w"), New(Info, "frontmatter-yaml", "security/a", "i"))
	assert.True(t, r.Passed())
	assert.Equal(t, 0, r.ExitCode())
}

func TestRunNoDeduplication(t *testing.T) {
	r := NewRun()
	d := New(Error, "a", "x/y", "same")
	r.Add(d, d)
	assert.Equal(t, 2, r.Errors())
}

func TestRunConcurrentAdd(t *testing.T) {
	r := NewRun()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(New(Warning, "w", "a/b", "m"))
			r.UnitChecked()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Warnings())
	assert.Equal(t, 50, r.Summary().Units)
}

const suppressionsYAML = `version: 1
suppressions:
  - rule: execution-steps
    unit: meta/*
    reason: authoring guides describe their own process
  - rule: "*"
    unit: data/legacy-etl
    reason: scheduled for removal
  - rule: license
    unit: code/never-matches
    reason: stale entry
`

func TestParseSuppressions(t *testing.T) {
	s, err := ParseSuppressions([]byte(suppressionsYAML))
	require.NoError(t, err)
	require.Len(t, s.Entries, 3)

	assert.True(t, s.Match(New(Warning, "execution-steps", "meta/skill-authoring", "")))
	assert.False(t, s.Match(New(Warning, "execution-steps", "code/go", "")))
	assert.True(t, s.Match(New(Error, "license", "data/legacy-etl", "")))
	assert.False(t, s.Match(New(Error, "rules-directory", "", "")))

	unused := s.Unused()
	require.Len(t, unused, 1)
	assert.Equal(t, "code/never-matches", unused[0].Unit)
}

func TestParseSuppressionsWeakTyping(t *testing.T) {
	s, err := ParseSuppressions([]byte("version: \"1\"\nsuppressions: []\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Version)
}

func TestParseSuppressionsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"wrong version", "version: 2\n", "unsupported version 2"},
		{"missing version", "suppressions: []\n", "unsupported version 0"},
		{"missing reason", "version: 1\nsuppressions:\n  - rule: license\n    unit: a/b\n", "entry 1: reason is required"},
		{"missing rule and unit", "version: 1\nsuppressions:\n  - reason: because\n", "entry 1: rule is required"},
		{"bad pattern", "version: 1\nsuppressions:\n  - rule: license\n    unit: \"a/[b\"\n    reason: r\n", "is invalid"},
		{"unknown key", "version: 1\nsuppresions: []\n", "failed to decode suppressions"},
		{"not yaml", "version: [1\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuppressions([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSuppressions(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadSuppressions(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = LoadSuppressions("")
	require.NoError(t, err)
	assert.Nil(t, s)

	path := filepath.Join(dir, "suppressions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(suppressionsYAML), 0o644))
	s, err = LoadSuppressions(path)
	require.NoError(t, err)
	assert.Len(t, s.Entries, 3)

	require.NoError(t, os.WriteFile(path, []byte("version: 3\n"), 0o644))
	_, err = LoadSuppressions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid suppression file")
}

func TestRunWithSuppressions(t *testing.T) {
	s, err := ParseSuppressions([]byte(suppressionsYAML))
	require.NoError(t, err)

	r := NewRun(WithSuppressions(s))
	kept := r.Add(
		New(Warning, "execution-steps", "meta/skill-authoring", "steps"),
		New(Error, "license", "code/go", "license"),
	)

	require.Len(t, kept, 1)
	assert.Equal(t, "license", kept[0].RuleID)
	assert.Equal(t, Summary{Errors: 1, Suppressed: 1}, r.Summary())
}

func TestNilSuppressions(t *testing.T) {
	var s *Suppressions
	assert.False(t, s.Match(New(Error, "license", "a/b", "")))
	assert.Nil(t, s.Unused())
}
