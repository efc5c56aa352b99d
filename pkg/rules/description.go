package rules

import (
	"strings"
	"unicode/utf8"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/frontmatter"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/skills"
)

// DescriptionPresent requires a non-empty description.
var DescriptionPresent UnitRule = &unitRule{
	id:          "description-present",
	severity:    diagnostics.Error,
	description: "front matter has a non-empty description",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil {
			return nil
		}
		if strings.TrimSpace(u.FrontMatter.Get("description")) == "" {
			return []diagnostics.Diagnostic{r.report(u, "front matter has no description")}
		}
		return nil
	},
}

// DescriptionSingleLine rejects block scalar descriptions.
var DescriptionSingleLine UnitRule = &unitRule{
	id:          "description-single-line",
	severity:    diagnostics.Error,
	description: "description is a single-line scalar",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		fm := u.FrontMatter
		if fm == nil || !fm.Has("description") {
			return nil
		}
		raw := fm.Raw("description")
		switch {
		case frontmatter.IsBlockIndicator(raw):
			return []diagnostics.Diagnostic{
				r.report(u, "description uses the block scalar indicator %q; keep it on one line", raw),
			}
		case fm.Continued("description"):
			return []diagnostics.Diagnostic{r.report(u, "description spans multiple lines; keep it on one line")}
		}
		return nil
	},
}

// DescriptionLength flags descriptions over the character budget.
var DescriptionLength UnitRule = &unitRule{
	id:          "description-length",
	severity:    diagnostics.Warning,
	description: "description fits the character budget",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		desc, ok := inlineDescription(u)
		if !ok {
			return nil
		}
		if n := utf8.RuneCountInString(desc); n > c.Config.DescriptionMaxLength {
			return []diagnostics.Diagnostic{
				r.report(u, "description is %d characters (budget %d)", n, c.Config.DescriptionMaxLength),
			}
		}
		return nil
	},
}

// DescriptionColon flags unquoted descriptions containing ": ", which YAML
// reads as a nested mapping.
var DescriptionColon UnitRule = &unitRule{
	id:          "description-colon",
	severity:    diagnostics.Warning,
	description: "unquoted description does not contain \": \"",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		desc, ok := inlineDescription(u)
		if !ok || u.FrontMatter.Quoted("description") {
			return nil
		}
		if strings.Contains(desc, ": ") || strings.HasSuffix(desc, ":") {
			return []diagnostics.Diagnostic{
				r.report(u, `unquoted description contains ": "; wrap it in quotes`),
			}
		}
		return nil
	},
}

// inlineDescription returns the description when it is a single-line scalar.
func inlineDescription(u *skills.Unit) (string, bool) {
	fm := u.FrontMatter
	if fm == nil {
		return "", false
	}
	raw := fm.Raw("description")
	if raw == "" || frontmatter.IsBlockIndicator(raw) || fm.Continued("description") {
		return "", false
	}
	return fm.Description(), true
}
