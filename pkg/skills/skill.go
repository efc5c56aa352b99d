// Package skills builds the structural inventory of a skill corpus: the
// category directories under the skills root and the skill directories inside
// them, each expected to hold a SKILL.md file with front matter.
package skills

import (
	"path"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/frontmatter"
)

// NonStandardCategory is reported for categories outside the allow-list.
const NonStandardCategory = "non-standard"

// Unit is one category/skill directory. It is built once per run by the
// Walker and never modified afterwards.
type Unit struct {
	Category string // Category directory name
	Name     string // Skill directory name
	Dir      string // Full path to the skill directory

	// StandardCategory is false when Category is not in the allow-list.
	StandardCategory bool

	HasPrimaryDocument bool
	RawContent         string // Full content of the primary document, empty when missing
	// PrimaryDocumentErr is set when the primary document could not be
	// looked up or read, as opposed to simply not existing.
	PrimaryDocumentErr error

	// FrontMatter is nil when the primary document is missing or has no
	// terminated front matter block. FrontMatterErr tells the two apart.
	FrontMatter    *frontmatter.FrontMatter
	FrontMatterErr error

	// Documents are the other markdown files beneath the skill directory.
	Documents []Document
}

// Document is a markdown file beneath a skill directory other than the
// primary document.
type Document struct {
	Path    string // Slash-separated path relative to the skill directory
	Content string
}

// ID returns the "category/skill" identifier used in diagnostics.
func (u *Unit) ID() string {
	return path.Join(u.Category, u.Name)
}

// CategoryLabel returns the category name, or NonStandardCategory when it is
// not in the allow-list.
func (u *Unit) CategoryLabel() string {
	if !u.StandardCategory {
		return NonStandardCategory
	}
	return u.Category
}

// RulesInventory describes the top-level rules directory.
type RulesInventory struct {
	Dir    string
	Exists bool
	IsDir  bool
	Files  []string // Matching rule files, relative to Dir, sorted
}
