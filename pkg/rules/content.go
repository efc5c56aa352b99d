package rules

import (
	"regexp"
	"strings"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/markdown"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/skills"
	"github.com/bmatcuk/doublestar/v4"
)

var (
	angleToken  = regexp.MustCompile(`<[^<>\s]+>`)
	stepPattern = regexp.MustCompile(`(?i)^(?:step|phase)\s+\d+\b`)
)

// ForbiddenDependency reports documents referencing projects this corpus
// must not depend on. Lines carrying the allowed attribution are skipped.
var ForbiddenDependency UnitRule = &unitRule{
	id:          "forbidden-dependency",
	severity:    diagnostics.Error,
	description: "documents do not reference forbidden external projects",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if c.forbidden == nil || !u.HasPrimaryDocument {
			return nil
		}

		var out []diagnostics.Diagnostic
		for _, doc := range documents(u, c) {
			for i, line := range strings.Split(doc.Content, "\n") {
				if c.Config.AllowedAttribution != "" && strings.Contains(line, c.Config.AllowedAttribution) {
					continue
				}
				m := c.forbidden.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				out = append(out, r.report(u, "%s:%d references forbidden dependency %q", doc.Path, i+1, m[2]))
				break
			}
		}
		return out
	},
}

// CredentialPattern flags long alphanumeric runs in security skills that
// look like real secrets. The matched text is never echoed.
var CredentialPattern UnitRule = &unitRule{
	id:          "credential-pattern",
	severity:    diagnostics.Warning,
	description: "security skills do not contain credential-looking strings",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if !u.HasPrimaryDocument || !c.Config.IsSecurityCategory(u.Category) {
			return nil
		}

		var out []diagnostics.Diagnostic
		for _, doc := range documents(u, c) {
			for i, line := range strings.Split(doc.Content, "\n") {
				if !c.credential.MatchString(line) || hasPlaceholder(line, c.Config.PlaceholderMarkers) {
					continue
				}
				out = append(out, r.report(u, "%s:%d contains a possible credential (long alphanumeric string without a placeholder marker)", doc.Path, i+1))
				break
			}
		}
		return out
	},
}

// ExecutionSteps flags numbered procedures. Knowledge skills describe what
// to do, not a sequence of steps. Reference and example material is exempt.
var ExecutionSteps UnitRule = &unitRule{
	id:          "execution-steps",
	severity:    diagnostics.Warning,
	description: "documents do not prescribe numbered steps or phases",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if !u.HasPrimaryDocument {
			return nil
		}

		var out []diagnostics.Diagnostic
		for _, doc := range documents(u, c) {
			if stepExempt(doc.Path, c.Config.StepExemptPaths) {
				continue
			}
			for _, block := range markdown.Analyze([]byte(doc.Content)).Blocks {
				if m := stepPattern.FindString(block.Text); m != "" {
					out = append(out, r.report(u, "%s:%d describes execution steps (%q); describe what, not how", doc.Path, block.Line, m))
					break
				}
			}
		}
		return out
	},
}

// ReadOnlyTools flags mutating tools in allowed-tools.
var ReadOnlyTools UnitRule = &unitRule{
	id:          "read-only-tools",
	severity:    diagnostics.Warning,
	description: "allowed-tools lists only read-only tools",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil || len(c.mutating) == 0 {
			return nil
		}

		var found []string
		for _, token := range u.FrontMatter.AllowedTools() {
			base := token
			if i := strings.Index(base, "("); i > 0 {
				base = base[:i]
			}
			for _, g := range c.mutating {
				if g.Match(token) || g.Match(base) {
					found = append(found, token)
					break
				}
			}
		}

		if len(found) == 0 {
			return nil
		}
		return []diagnostics.Diagnostic{
			r.report(u, "%s includes mutating tools: %s", u.FrontMatter.AllowedToolsKey(), strings.Join(found, ", ")),
		}
	},
}

// FrontMatterYAML reports front matter that the line parser accepts but a
// strict YAML decoder rejects.
var FrontMatterYAML UnitRule = &unitRule{
	id:          "frontmatter-yaml",
	severity:    diagnostics.Info,
	description: "front matter decodes as strict YAML",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil {
			return nil
		}
		if err := markdown.Analyze([]byte(u.RawContent)).MetaErr; err != nil {
			return []diagnostics.Diagnostic{
				r.report(u, "front matter is not strict YAML: %s", firstLine(err.Error())),
			}
		}
		return nil
	},
}

// documents returns the primary document followed by the other markdown
// files of u.
func documents(u *skills.Unit, c *Context) []skills.Document {
	docs := make([]skills.Document, 0, len(u.Documents)+1)
	if u.HasPrimaryDocument {
		docs = append(docs, skills.Document{Path: c.Config.PrimaryDocument, Content: u.RawContent})
	}
	return append(docs, u.Documents...)
}

func hasPlaceholder(line string, markers []string) bool {
	lower := strings.ToLower(line)
	for _, marker := range markers {
		if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return angleToken.MatchString(line)
}

func stepExempt(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
