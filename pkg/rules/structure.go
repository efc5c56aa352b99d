package rules

import (
	"strings"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/frontmatter"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/skills"
	"github.com/pkg/errors"
)

// RulesDirectory requires a rules directory holding at least one rule file.
var RulesDirectory RunRule = &runRule{
	id:          "rules-directory",
	severity:    diagnostics.Error,
	description: "the rules directory exists and contains at least one rule file",
	check: func(r *runRule, c *Context) []diagnostics.Diagnostic {
		inv := c.Rules
		switch {
		case !inv.Exists:
			return []diagnostics.Diagnostic{
				diagnostics.New(r.severity, r.id, "", "rules directory %s does not exist", inv.Dir),
			}
		case !inv.IsDir:
			return []diagnostics.Diagnostic{
				diagnostics.New(r.severity, r.id, "", "rules path %s is not a directory", inv.Dir),
			}
		case len(inv.Files) == 0:
			return []diagnostics.Diagnostic{
				diagnostics.New(r.severity, r.id, "", "rules directory %s contains no rule files matching %q", inv.Dir, c.Config.RulesGlob),
			}
		}
		return nil
	},
}

// CategoryValid flags categories outside the allow-list.
var CategoryValid UnitRule = &unitRule{
	id:          "category-valid",
	severity:    diagnostics.Warning,
	description: "the category directory is one of the standard categories",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if u.StandardCategory {
			return nil
		}
		return []diagnostics.Diagnostic{
			r.report(u, "category %q is %s (expected one of: %s)",
				u.Category, u.CategoryLabel(), strings.Join(c.Config.Categories, ", ")),
		}
	},
}

// PrimaryDocument requires the primary document in every skill directory.
var PrimaryDocument UnitRule = &unitRule{
	id:          "primary-document",
	severity:    diagnostics.Error,
	description: "the skill directory contains the primary document",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if u.HasPrimaryDocument {
			return nil
		}
		if u.PrimaryDocumentErr != nil {
			return []diagnostics.Diagnostic{
				r.report(u, "primary document %s is unreadable: %s", c.Config.PrimaryDocument, errors.Cause(u.PrimaryDocumentErr)),
			}
		}
		return []diagnostics.Diagnostic{
			r.report(u, "missing primary document %s", c.Config.PrimaryDocument),
		}
	},
}

// FrontMatterPresent requires a terminated front matter block at the top of
// the primary document.
var FrontMatterPresent UnitRule = &unitRule{
	id:          "frontmatter-present",
	severity:    diagnostics.Error,
	description: "the primary document starts with a terminated front matter block",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if !u.HasPrimaryDocument || u.FrontMatter != nil {
			return nil
		}
		if errors.Is(u.FrontMatterErr, frontmatter.ErrUnterminated) {
			return []diagnostics.Diagnostic{
				r.report(u, "front matter block in %s has no closing %s", c.Config.PrimaryDocument, frontmatter.Delimiter),
			}
		}
		return []diagnostics.Diagnostic{
			r.report(u, "missing front matter: %s must start with a %s line", c.Config.PrimaryDocument, frontmatter.Delimiter),
		}
	},
}
