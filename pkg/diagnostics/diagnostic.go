// Package diagnostics defines validation findings and the per-run aggregate
// that collects and counts them.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Severity ranks a finding. Only Error affects the exit code.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// String returns the tag printed in front of a finding.
func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// MarshalJSON encodes the severity as its tag.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity tag.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	parsed, err := ParseSeverity(tag)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses a tag such as "error" or "WARNING".
func ParseSeverity(tag string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case "ERROR":
		return Error, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "INFO":
		return Info, nil
	}
	return Info, errors.Errorf("unknown severity %q", tag)
}

// Diagnostic is one rule outcome for a unit, or for the whole run when Unit is empty.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	RuleID   string   `json:"rule"`
	Unit     string   `json:"unit,omitempty"`
	Message  string   `json:"message"`
}

// New creates a diagnostic with a formatted message.
func New(severity Severity, ruleID, unit, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: severity,
		RuleID:   ruleID,
		Unit:     unit,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Text renders the finding without its severity tag.
func (d Diagnostic) Text() string {
	if d.Unit == "" {
		return fmt.Sprintf("%s [%s]", d.Message, d.RuleID)
	}
	return fmt.Sprintf("%s: %s [%s]", d.Unit, d.Message, d.RuleID)
}

// String renders the finding as a single output line.
func (d Diagnostic) String() string {
	return d.Severity.String() + ": " + d.Text()
}
