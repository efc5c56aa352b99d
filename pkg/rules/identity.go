package rules

import (
	"regexp"
	"strings"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/skills"
)

var semverPattern = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// NameMatchesDirectory requires the front matter name to equal the skill directory name.
var NameMatchesDirectory UnitRule = &unitRule{
	id:          "name-matches-directory",
	severity:    diagnostics.Error,
	description: "front matter name equals the skill directory name",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil {
			return nil
		}
		name := u.FrontMatter.Name()
		if name == "" {
			return []diagnostics.Diagnostic{r.report(u, "front matter has no name (expected %q)", u.Name)}
		}
		if name != u.Name {
			return []diagnostics.Diagnostic{r.report(u, "name %q does not match directory %q", name, u.Name)}
		}
		return nil
	},
}

// NameCategoryPrefix rejects names that repeat the category as a prefix.
var NameCategoryPrefix UnitRule = &unitRule{
	id:          "name-category-prefix",
	severity:    diagnostics.Error,
	description: "front matter name does not start with its category name",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil {
			return nil
		}
		name := u.FrontMatter.Name()
		if name != "" && strings.HasPrefix(name, u.Category+"-") {
			return []diagnostics.Diagnostic{
				r.report(u, "name %q carries the category prefix %q", name, u.Category+"-"),
			}
		}
		return nil
	},
}

// NameReservedPrefix rejects names using the prefix reserved for workflow skills.
var NameReservedPrefix UnitRule = &unitRule{
	id:          "name-reserved-prefix",
	severity:    diagnostics.Error,
	description: "front matter name does not use the reserved workflow prefix",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		prefix := c.Config.ReservedPrefix
		if u.FrontMatter == nil || prefix == "" {
			return nil
		}
		if name := u.FrontMatter.Name(); strings.HasPrefix(name, prefix) {
			return []diagnostics.Diagnostic{
				r.report(u, "name %q uses the reserved workflow prefix %q", name, prefix),
			}
		}
		return nil
	},
}

// CategoryMatchesDirectory requires metadata.category to equal the category directory.
var CategoryMatchesDirectory UnitRule = &unitRule{
	id:          "category-matches-directory",
	severity:    diagnostics.Error,
	description: "metadata.category equals the category directory name",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil {
			return nil
		}
		category := u.FrontMatter.Category()
		if category == "" {
			return []diagnostics.Diagnostic{r.report(u, "metadata.category is missing (expected %q)", u.Category)}
		}
		if category != u.Category {
			return []diagnostics.Diagnostic{
				r.report(u, "metadata.category %q does not match directory %q", category, u.Category),
			}
		}
		return nil
	},
}

// License requires the expected license literal.
var License UnitRule = &unitRule{
	id:          "license",
	severity:    diagnostics.Error,
	description: "license equals the expected literal",
	check: func(r *unitRule, u *skills.Unit, c *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil {
			return nil
		}
		license := u.FrontMatter.License()
		if license == "" {
			return []diagnostics.Diagnostic{r.report(u, "license is missing (expected %q)", c.Config.License)}
		}
		if license != c.Config.License {
			return []diagnostics.Diagnostic{r.report(u, "license %q differs from %q", license, c.Config.License)}
		}
		return nil
	},
}

// RequiredFields requires the fields not covered by a dedicated rule.
var RequiredFields UnitRule = &unitRule{
	id:          "frontmatter-required-fields",
	severity:    diagnostics.Error,
	description: "compatibility, allowed-tools, metadata.author and metadata.version are present",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		fm := u.FrontMatter
		if fm == nil {
			return nil
		}

		var missing []string
		if fm.Compatibility() == "" {
			missing = append(missing, "compatibility")
		}
		if len(fm.AllowedTools()) == 0 {
			missing = append(missing, "allowed-tools")
		}
		for _, key := range []string{"metadata.author", "metadata.version"} {
			if fm.Get(key) == "" {
				missing = append(missing, key)
			}
		}

		if len(missing) == 0 {
			return nil
		}
		return []diagnostics.Diagnostic{
			r.report(u, "front matter is missing required fields: %s", strings.Join(missing, ", ")),
		}
	},
}

// VersionFormat flags metadata.version values that are not semantic versions.
var VersionFormat UnitRule = &unitRule{
	id:          "version-format",
	severity:    diagnostics.Warning,
	description: "metadata.version is a semantic version",
	check: func(r *unitRule, u *skills.Unit, _ *Context) []diagnostics.Diagnostic {
		if u.FrontMatter == nil {
			return nil
		}
		version := u.FrontMatter.Get("metadata.version")
		if version == "" || semverPattern.MatchString(version) {
			return nil
		}
		return []diagnostics.Diagnostic{
			r.report(u, "metadata.version %q is not a semantic version (MAJOR.MINOR.PATCH)", version),
		}
	},
}
