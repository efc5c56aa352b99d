package report

import (
	"sort"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
)

// Text streams diagnostic lines through a presenter. When grouped by rule
// the lines are held back until Finish.
type Text struct {
	p     presenter.Presenter
	index RuleIndex

	held  []diagnostics.Diagnostic
	clean []string
}

// TextOption configures a Text reporter
type TextOption func(*Text)

// WithGroupByRule groups diagnostics by rule in evaluation order.
func WithGroupByRule(index RuleIndex) TextOption {
	return func(t *Text) {
		t.index = index
	}
}

// NewText creates a text reporter writing through p.
func NewText(p presenter.Presenter, opts ...TextOption) *Text {
	t := &Text{p: p}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Report implements Reporter.
func (t *Text) Report(unit string, diags []diagnostics.Diagnostic) {
	if t.index != nil {
		t.held = append(t.held, diags...)
		if unit != "" && len(diags) == 0 {
			t.clean = append(t.clean, unit)
		}
		return
	}

	for _, d := range diags {
		t.p.Diagnostic(d)
	}
	if unit != "" && len(diags) == 0 {
		t.p.OK(unit)
	}
}

// Finish implements Reporter.
func (t *Text) Finish(run *diagnostics.Run) error {
	if t.index != nil {
		t.flushGroups()
	}
	t.p.Summary(run.Summary())
	t.p.Verdict(run.Passed())
	return nil
}

func (t *Text) flushGroups() {
	sort.SliceStable(t.held, func(i, j int) bool {
		return t.index(t.held[i].RuleID) < t.index(t.held[j].RuleID)
	})

	current := ""
	for _, d := range t.held {
		if d.RuleID != current {
			if current != "" {
				t.p.Info("")
			}
			current = d.RuleID
			t.p.Section(current)
		}
		t.p.Diagnostic(d)
	}

	if len(t.clean) > 0 && len(t.held) > 0 {
		t.p.Info("")
	}
	for _, unit := range t.clean {
		t.p.OK(unit)
	}
	t.held, t.clean = nil, nil
}
