// Package validator runs the rule set over a skill corpus: walk, parse,
// evaluate, aggregate and report.
package validator

import (
	"context"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/config"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/logger"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/report"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/rules"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/skills"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Validator checks one corpus. It holds no state between runs, so Run may
// be called repeatedly.
type Validator struct {
	cfg    *config.Config
	set    *rules.Set
	walker *skills.Walker
}

// Option configures a Validator
type Option func(*Validator)

// WithRules replaces the built-in rule set.
func WithRules(set *rules.Set) Option {
	return func(v *Validator) {
		v.set = set
	}
}

// New creates a validator for cfg.
func New(cfg *config.Config, opts ...Option) (*Validator, error) {
	walker, err := skills.NewWalker(
		cfg.SkillsRoot(),
		skills.WithPrimaryDocument(cfg.PrimaryDocument),
		skills.WithCategories(cfg.Categories...),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create skills walker")
	}

	v := &Validator{
		cfg:    cfg,
		set:    rules.Default(),
		walker: walker,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Rules returns the rule set in evaluation order.
func (v *Validator) Rules() *rules.Set {
	return v.set
}

// Run validates the corpus and streams results to rep in traversal order.
// An error is returned only for setup failures, before any unit is
// evaluated. Findings are reported through the returned run.
func (v *Validator) Run(ctx context.Context, rep report.Reporter) (*diagnostics.Run, error) {
	log := logger.G(ctx)

	suppressions, err := diagnostics.LoadSuppressions(v.cfg.SuppressionsPath())
	if err != nil {
		return nil, err
	}

	units, err := v.walker.Walk(ctx)
	if err != nil {
		return nil, err
	}
	log.WithField("units", len(units)).WithField("root", v.walker.Root()).Debug("walked skills root")

	inv := skills.ScanRules(v.cfg.RulesRoot(), v.cfg.RulesGlob)
	rc, err := rules.NewContext(v.cfg, inv)
	if err != nil {
		return nil, err
	}

	run := diagnostics.NewRun(diagnostics.WithSuppressions(suppressions))
	rep.Report("", run.Add(v.set.EvaluateRun(rc)...))

	v.evaluate(ctx, units, rc, func(u *skills.Unit, diags []diagnostics.Diagnostic) {
		kept := run.Add(diags...)
		run.UnitChecked()
		rep.Report(u.ID(), kept)
	})

	for _, s := range suppressions.Unused() {
		log.WithField("rule", s.Rule).WithField("unit", s.Unit).Warn("suppression matched no diagnostic")
	}

	if err := rep.Finish(run); err != nil {
		return run, err
	}
	return run, nil
}

// evaluate runs the unit rules and calls emit for every unit in traversal
// order, whatever the number of workers.
func (v *Validator) evaluate(ctx context.Context, units []*skills.Unit, rc *rules.Context, emit func(*skills.Unit, []diagnostics.Diagnostic)) {
	if v.cfg.Jobs <= 1 || len(units) < 2 {
		for _, u := range units {
			emit(u, v.check(ctx, u, rc))
		}
		return
	}

	results := make([]chan []diagnostics.Diagnostic, len(units))
	for i := range results {
		results[i] = make(chan []diagnostics.Diagnostic, 1)
	}

	var g errgroup.Group
	g.SetLimit(v.cfg.Jobs)
	go func() {
		for i, u := range units {
			i, u := i, u
			g.Go(func() error {
				results[i] <- v.check(ctx, u, rc)
				return nil
			})
		}
	}()

	for i, u := range units {
		emit(u, <-results[i])
	}
	_ = g.Wait()
}

func (v *Validator) check(ctx context.Context, u *skills.Unit, rc *rules.Context) []diagnostics.Diagnostic {
	diags := v.set.Evaluate(u, rc)

	entry := logger.G(ctx).WithField("unit", u.ID())
	for _, d := range diags {
		entry = entry.WithField(d.RuleID, d.Severity.String())
	}
	entry.WithField("diagnostics", len(diags)).Debug("evaluated unit")

	return diags
}
