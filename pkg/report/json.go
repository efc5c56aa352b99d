package report

import (
	"encoding/json"
	"io"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// fingerprintNamespace scopes report fingerprints.
var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/CorentinLumineau/x-devsecops/skillcheck"))

// Document is the JSON form of a run.
type Document struct {
	// Fingerprint identifies the diagnostic set. Two runs over the same
	// corpus produce the same fingerprint.
	Fingerprint string                   `json:"fingerprint"`
	Passed      bool                     `json:"passed"`
	ExitCode    int                      `json:"exitCode"`
	Summary     diagnostics.Summary      `json:"summary"`
	Units       []UnitResult             `json:"units"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
}

// UnitResult is the outcome of one unit.
type UnitResult struct {
	Unit     string `json:"unit"`
	Errors   int    `json:"errors"`
	Warnings int    `json:"warnings"`
	Infos    int    `json:"infos"`
}

// JSON collects the run and writes one Document on Finish.
type JSON struct {
	w     io.Writer
	units []UnitResult
}

// NewJSON creates a JSON reporter writing to w.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// Report implements Reporter.
func (j *JSON) Report(unit string, diags []diagnostics.Diagnostic) {
	if unit == "" {
		return
	}
	res := UnitResult{Unit: unit}
	for _, d := range diags {
		switch d.Severity {
		case diagnostics.Error:
			res.Errors++
		case diagnostics.Warning:
			res.Warnings++
		default:
			res.Infos++
		}
	}
	j.units = append(j.units, res)
}

// Finish implements Reporter.
func (j *JSON) Finish(run *diagnostics.Run) error {
	doc, err := Build(run, j.units)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "failed to write JSON report")
	}
	return nil
}

// Build assembles the JSON document of run.
func Build(run *diagnostics.Run, units []UnitResult) (*Document, error) {
	diags := run.Diagnostics()
	if units == nil {
		units = []UnitResult{}
	}

	fp, err := Fingerprint(diags)
	if err != nil {
		return nil, err
	}

	return &Document{
		Fingerprint: fp,
		Passed:      run.Passed(),
		ExitCode:    run.ExitCode(),
		Summary:     run.Summary(),
		Units:       units,
		Diagnostics: diags,
	}, nil
}

// Fingerprint derives a name-based UUID from the ordered diagnostics.
func Fingerprint(diags []diagnostics.Diagnostic) (string, error) {
	if diags == nil {
		diags = []diagnostics.Diagnostic{}
	}
	data, err := json.Marshal(diags)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode diagnostics")
	}
	return uuid.NewSHA1(fingerprintNamespace, data).String(), nil
}
