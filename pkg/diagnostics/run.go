package diagnostics

import "sync"

// Run is the state of one validation run. It keeps the diagnostics in the
// order they were added and the count per severity. Nothing survives
// between runs.
type Run struct {
	mu sync.Mutex

	suppressions *Suppressions

	diagnostics []Diagnostic
	units       int
	errors      int
	warnings    int
	infos       int
	suppressed  int
}

// RunOption configures a Run
type RunOption func(*Run)

// WithSuppressions drops diagnostics matched by s before they are counted.
func WithSuppressions(s *Suppressions) RunOption {
	return func(r *Run) {
		r.suppressions = s
	}
}

// NewRun starts an empty run
func NewRun(opts ...RunOption) *Run {
	r := &Run{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add appends diagnostics in order and returns the ones that were kept after
// suppression, so callers can stream exactly what was counted.
func (r *Run) Add(diags ...Diagnostic) []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if r.suppressions.Match(d) {
			r.suppressed++
			continue
		}
		switch d.Severity {
		case Error:
			r.errors++
		case Warning:
			r.warnings++
		default:
			r.infos++
		}
		r.diagnostics = append(r.diagnostics, d)
		kept = append(kept, d)
	}
	return kept
}

// UnitChecked records that one more unit was evaluated.
func (r *Run) UnitChecked() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units++
}

// Diagnostics returns a copy of every kept diagnostic in emission order.
func (r *Run) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Summary is the tally of a run.
type Summary struct {
	Units      int `json:"units"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
	Infos      int `json:"infos"`
	Suppressed int `json:"suppressed"`
}

// Summary returns the current counts.
func (r *Run) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Summary{
		Units:      r.units,
		Errors:     r.errors,
		Warnings:   r.warnings,
		Infos:      r.infos,
		Suppressed: r.suppressed,
	}
}

// Errors returns the number of ERROR diagnostics.
func (r *Run) Errors() int { return r.Summary().Errors }

// Warnings returns the number of WARNING diagnostics.
func (r *Run) Warnings() int { return r.Summary().Warnings }

// Passed reports whether the run has no ERROR diagnostics.
func (r *Run) Passed() bool { return r.Errors() == 0 }

// ExitCode is 0 when the run has no ERROR diagnostics and 1 otherwise.
func (r *Run) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}
