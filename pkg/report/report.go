// Package report renders a validation run, either as streamed text lines or
// as a single JSON document.
package report

import (
	"io"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/config"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
	"github.com/pkg/errors"
)

// Reporter receives the results of a run in traversal order.
type Reporter interface {
	// Report is called once for the run-level rules, with an empty unit,
	// and then once per unit with the diagnostics kept for it.
	Report(unit string, diags []diagnostics.Diagnostic)
	// Finish is called after the last unit.
	Finish(run *diagnostics.Run) error
}

// RuleIndex returns the evaluation position of a rule, used to group output.
type RuleIndex func(ruleID string) int

// New returns the reporter selected by cfg.Format.
func New(cfg *config.Config, p presenter.Presenter, w io.Writer, index RuleIndex) (Reporter, error) {
	switch cfg.Format {
	case config.FormatText:
		var opts []TextOption
		if cfg.GroupBy == config.GroupByRule {
			opts = append(opts, WithGroupByRule(index))
		}
		return NewText(p, opts...), nil
	case config.FormatJSON:
		return NewJSON(w), nil
	}
	return nil, errors.Errorf("unknown output format %q", cfg.Format)
}
