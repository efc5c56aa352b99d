// Package rules holds the compliance checks run against every skill unit.
//
// A rule is a pure function over a unit (or, for run-level rules, the rules
// directory inventory) and the shared Context. Rules never look at each
// other's results: the diagnostics of a unit are the concatenation of every
// rule's output in registration order.
package rules

import (
	"regexp"
	"strconv"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/config"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/skills"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// Rule describes a check.
type Rule interface {
	ID() string
	Severity() diagnostics.Severity
	Description() string
}

// UnitRule checks one skill unit.
type UnitRule interface {
	Rule
	Check(u *skills.Unit, c *Context) []diagnostics.Diagnostic
}

// RunRule checks the repository once per run.
type RunRule interface {
	Rule
	CheckRun(c *Context) []diagnostics.Diagnostic
}

// Context is the read-only input shared by every rule in a run.
type Context struct {
	Config *config.Config
	Rules  skills.RulesInventory

	forbidden  *regexp.Regexp
	credential *regexp.Regexp
	mutating   []glob.Glob
}

// NewContext compiles the patterns derived from cfg.
func NewContext(cfg *config.Config, inv skills.RulesInventory) (*Context, error) {
	c := &Context{
		Config:     cfg,
		Rules:      inv,
		forbidden:  cfg.ForbiddenPattern(),
		credential: regexp.MustCompile(`[A-Za-z0-9]{` + strconv.Itoa(cfg.CredentialMinLength) + `,}`),
	}

	for _, pattern := range cfg.MutatingTools {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid mutating tool pattern %q", pattern)
		}
		c.mutating = append(c.mutating, g)
	}

	return c, nil
}

type unitRule struct {
	id          string
	severity    diagnostics.Severity
	description string
	check       func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic
}

func (r *unitRule) ID() string                     { return r.id }
func (r *unitRule) Severity() diagnostics.Severity { return r.severity }
func (r *unitRule) Description() string            { return r.description }

func (r *unitRule) Check(u *skills.Unit, c *Context) []diagnostics.Diagnostic {
	return r.check(r, u, c)
}

// report builds a diagnostic of this rule for unit u.
func (r *unitRule) report(u *skills.Unit, format string, args ...interface{}) diagnostics.Diagnostic {
	return diagnostics.New(r.severity, r.id, u.ID(), format, args...)
}

type runRule struct {
	id          string
	severity    diagnostics.Severity
	description string
	check       func(r *runRule, c *Context) []diagnostics.Diagnostic
}

func (r *runRule) ID() string                     { return r.id }
func (r *runRule) Severity() diagnostics.Severity { return r.severity }
func (r *runRule) Description() string            { return r.description }

func (r *runRule) CheckRun(c *Context) []diagnostics.Diagnostic {
	return r.check(r, c)
}

// Set is an ordered collection of rules.
type Set struct {
	run   []RunRule
	units []UnitRule
}

// NewSet builds a set from rules in the given order.
func NewSet(run []RunRule, units []UnitRule) *Set {
	return &Set{run: run, units: units}
}

// Default returns every built-in rule in its fixed evaluation order.
func Default() *Set {
	return NewSet(
		[]RunRule{
			RulesDirectory,
		},
		[]UnitRule{
			CategoryValid,
			PrimaryDocument,
			ForbiddenDependency,
			CredentialPattern,
			ExecutionSteps,
			FrontMatterPresent,
			NameMatchesDirectory,
			NameCategoryPrefix,
			NameReservedPrefix,
			CategoryMatchesDirectory,
			DescriptionPresent,
			DescriptionSingleLine,
			DescriptionLength,
			DescriptionColon,
			ReadOnlyTools,
			License,
			RequiredFields,
			VersionFormat,
			FrontMatterYAML,
		},
	)
}

// All returns every rule, run-level rules first.
func (s *Set) All() []Rule {
	all := make([]Rule, 0, len(s.run)+len(s.units))
	for _, r := range s.run {
		all = append(all, r)
	}
	for _, r := range s.units {
		all = append(all, r)
	}
	return all
}

// Index returns the position of the rule with id in All, or -1.
func (s *Set) Index(id string) int {
	for i, r := range s.All() {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

// EvaluateRun runs every run-level rule.
func (s *Set) EvaluateRun(c *Context) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for _, r := range s.run {
		out = append(out, r.CheckRun(c)...)
	}
	return out
}

// Evaluate runs every unit rule against u in order.
func (s *Set) Evaluate(u *skills.Unit, c *Context) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for _, r := range s.units {
		out = append(out, r.Check(u, c)...)
	}
	return out
}
