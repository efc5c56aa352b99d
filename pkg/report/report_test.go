package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/config"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruleOrder = map[string]int{"rules-directory": 0, "primary-document": 1, "execution-steps": 2, "license": 3}

func index(id string) int {
	if i, ok := ruleOrder[id]; ok {
		return i
	}
	return -1
}

// feed replays a small run into r.
func feed(t *testing.T, r Reporter) *diagnostics.Run {
	t.Helper()
	run := diagnostics.NewRun()

	r.Report("", run.Add(diagnostics.New(diagnostics.Error, "rules-directory", "", "rules directory rules does not exist")))

	units := []struct {
		id    string
		diags []diagnostics.Diagnostic
	}{
		{"code/go", nil},
		{"data/sql", []diagnostics.Diagnostic{
			diagnostics.New(diagnostics.Warning, "execution-steps", "data/sql", "SKILL.md:9 describes execution steps"),
			diagnostics.New(diagnostics.Error, "license", "data/sql", `license "GPL" differs from "MIT"`),
		}},
		{"security/owasp", []diagnostics.Diagnostic{
			diagnostics.New(diagnostics.Error, "primary-document", "security/owasp", "missing primary document SKILL.md"),
		}},
	}
	for _, u := range units {
		kept := run.Add(u.diags...)
		run.UnitChecked()
		r.Report(u.id, kept)
	}

	require.NoError(t, r.Finish(run))
	return run
}

func TestTextStreamsInUnitOrder(t *testing.T) {
	var out bytes.Buffer
	p := presenter.NewWithOptions(&out, nil, presenter.ColorNever)

	feed(t, NewText(p))

	assert.Equal(t, `ERROR: rules directory rules does not exist [rules-directory]
OK: code/go
WARNING: data/sql: SKILL.md:9 describes execution steps [execution-steps]
ERROR: data/sql: license "GPL" differs from "MIT" [license]
ERROR: security/owasp: missing primary document SKILL.md [primary-document]

Summary
-------
Units checked: 3
Errors:        3
Warnings:      1
Infos:         0
FAILED
`, out.String())
}

func TestTextQuiet(t *testing.T) {
	var out bytes.Buffer
	p := presenter.NewWithOptions(&out, nil, presenter.ColorNever)
	p.SetQuiet(true)

	feed(t, NewText(p))

	assert.NotContains(t, out.String(), "OK:")
	assert.Contains(t, out.String(), "ERROR: security/owasp")
	assert.Contains(t, out.String(), "FAILED\n")
}

func TestTextGroupByRule(t *testing.T) {
	var out bytes.Buffer
	p := presenter.NewWithOptions(&out, nil, presenter.ColorNever)

	feed(t, NewText(p, WithGroupByRule(index)))

	assert.Equal(t, `rules-directory
---------------
ERROR: rules directory rules does not exist [rules-directory]

primary-document
----------------
ERROR: security/owasp: missing primary document SKILL.md [primary-document]

execution-steps
---------------
WARNING: data/sql: SKILL.md:9 describes execution steps [execution-steps]

license
-------
ERROR: data/sql: license "GPL" differs from "MIT" [license]

OK: code/go

Summary
-------
Units checked: 3
Errors:        3
Warnings:      1
Infos:         0
FAILED
`, out.String())
}

func TestJSONReport(t *testing.T) {
	var out bytes.Buffer
	run := feed(t, NewJSON(&out))

	var doc Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))

	assert.False(t, doc.Passed)
	assert.Equal(t, 1, doc.ExitCode)
	assert.Equal(t, run.Summary(), doc.Summary)
	assert.Equal(t, []UnitResult{
		{Unit: "code/go"},
		{Unit: "data/sql", Errors: 1, Warnings: 1},
		{Unit: "security/owasp", Errors: 1},
	}, doc.Units)
	assert.Equal(t, run.Diagnostics(), doc.Diagnostics)

	_, err := uuid.Parse(doc.Fingerprint)
	require.NoError(t, err)

	var again bytes.Buffer
	feed(t, NewJSON(&again))
	assert.Equal(t, out.String(), again.String())
}

func TestFingerprint(t *testing.T) {
	empty, err := Fingerprint(nil)
	require.NoError(t, err)
	same, err := Fingerprint([]diagnostics.Diagnostic{})
	require.NoError(t, err)
	assert.Equal(t, empty, same)

	a := diagnostics.New(diagnostics.Error, "license", "a/b", "x")
	b := diagnostics.New(diagnostics.Warning, "execution-steps", "a/b", "y")
	ab, err := Fingerprint([]diagnostics.Diagnostic{a, b})
	require.NoError(t, err)
	ba, err := Fingerprint([]diagnostics.Diagnostic{b, a})
	require.NoError(t, err)
	assert.NotEqual(t, ab, ba)
	assert.NotEqual(t, empty, ab)
}

func TestNew(t *testing.T) {
	cfg := config.Default()
	p := presenter.NewWithOptions(&bytes.Buffer{}, nil, presenter.ColorNever)

	r, err := New(&cfg, p, &bytes.Buffer{}, index)
	require.NoError(t, err)
	assert.IsType(t, &Text{}, r)
	assert.Nil(t, r.(*Text).index)

	cfg.GroupBy = config.GroupByRule
	r, err = New(&cfg, p, &bytes.Buffer{}, index)
	require.NoError(t, err)
	assert.NotNil(t, r.(*Text).index)

	cfg.Format = config.FormatJSON
	r, err = New(&cfg, p, &bytes.Buffer{}, index)
	require.NoError(t, err)
	assert.IsType(t, &JSON{}, r)

	cfg.Format = "xml"
	_, err = New(&cfg, p, &bytes.Buffer{}, index)
	assert.Error(t, err)
}
