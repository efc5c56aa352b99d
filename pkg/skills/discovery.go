package skills

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/frontmatter"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/logger"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

const defaultPrimaryDocument = "SKILL.md"

// ErrRootNotFound is returned when the skills root does not exist or is not a directory.
var ErrRootNotFound = errors.New("skills root not found")

// Walker enumerates category and skill directories beneath a skills root
type Walker struct {
	root            string
	primaryDocument string
	categories      map[string]bool
}

// Option is a function that configures a Walker
type Option func(*Walker) error

// WithPrimaryDocument sets the exact, case-sensitive name of the primary document
func WithPrimaryDocument(name string) Option {
	return func(w *Walker) error {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return errors.Errorf("invalid primary document name %q", name)
		}
		w.primaryDocument = name
		return nil
	}
}

// WithCategories sets the category allow-list
func WithCategories(categories ...string) Option {
	return func(w *Walker) error {
		w.categories = make(map[string]bool, len(categories))
		for _, c := range categories {
			w.categories[c] = true
		}
		return nil
	}
}

// NewWalker creates a walker for the given skills root
func NewWalker(root string, opts ...Option) (*Walker, error) {
	w := &Walker{
		root:            root,
		primaryDocument: defaultPrimaryDocument,
		categories:      map[string]bool{},
	}

	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Root returns the skills root directory
func (w *Walker) Root() string {
	return w.root
}

// Walk returns every unit in lexicographic (category, skill) order. It fails
// only when the skills root itself cannot be listed.
func (w *Walker) Walk(ctx context.Context) ([]*Unit, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, errors.Wrapf(ErrRootNotFound, "%s: %v", w.root, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrRootNotFound, "%s is not a directory", w.root)
	}

	categories, err := listDirs(w.root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list skills root %s", w.root)
	}

	var units []*Unit
	for _, category := range categories {
		categoryDir := filepath.Join(w.root, category)
		names, err := listDirs(categoryDir)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("category", category).Debug("skipping unreadable category")
			continue
		}
		if len(names) == 0 {
			logger.G(ctx).WithField("category", category).Debug("category has no skills")
		}

		for _, name := range names {
			units = append(units, w.loadUnit(ctx, category, name))
		}
	}

	return units, nil
}

// loadUnit reads the primary document and the other markdown files of one skill
func (w *Walker) loadUnit(ctx context.Context, category, name string) *Unit {
	dir := filepath.Join(w.root, category, name)
	unit := &Unit{
		Category:         category,
		Name:             name,
		Dir:              dir,
		StandardCategory: w.categories[category],
	}

	log := logger.G(ctx).WithField("unit", unit.ID())

	content, found, err := readPrimary(dir, w.primaryDocument)
	if err != nil {
		log.WithError(err).Warn("failed to read primary document")
		unit.PrimaryDocumentErr = err
	}
	if found {
		unit.HasPrimaryDocument = true
		unit.RawContent = content
		unit.FrontMatter, unit.FrontMatterErr = frontmatter.ParseDetailed(content)
	}

	docs, err := readDocuments(dir, w.primaryDocument)
	if err != nil {
		log.WithError(err).Debug("failed to list skill documents")
	}
	unit.Documents = docs

	log.WithField("has_primary", unit.HasPrimaryDocument).
		WithField("documents", len(unit.Documents)).
		Debug("loaded skill unit")

	return unit
}

// readPrimary looks the primary document up by exact name. os.Stat alone is
// not enough on case-insensitive filesystems, so the directory listing decides.
func readPrimary(dir, name string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, errors.Wrap(err, "failed to list skill directory")
	}

	for _, entry := range entries {
		if entry.Name() != name {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return "", false, errors.Wrap(err, "failed to stat primary document")
		}
		if info.IsDir() {
			return "", false, nil
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", false, errors.Wrap(err, "failed to read primary document")
		}
		return string(content), true, nil
	}

	return "", false, nil
}

// readDocuments collects the markdown files beneath dir except the primary
// document at its top level.
func readDocuments(dir, primary string) ([]Document, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.md")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var docs []Document
	for _, match := range matches {
		if match == primary {
			continue
		}
		content, err := fs.ReadFile(os.DirFS(dir), match)
		if err != nil {
			return docs, errors.Wrapf(err, "failed to read %s", match)
		}
		docs = append(docs, Document{Path: match, Content: string(content)})
	}

	return docs, nil
}

// ScanRules inspects the rules directory and lists the files matching pattern
func ScanRules(dir, pattern string) RulesInventory {
	inv := RulesInventory{Dir: dir}

	info, err := os.Stat(dir)
	if err != nil {
		return inv
	}
	inv.Exists = true
	inv.IsDir = info.IsDir()
	if !inv.IsDir {
		return inv
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return inv
	}
	for _, match := range matches {
		fi, err := os.Stat(filepath.Join(dir, filepath.FromSlash(match)))
		if err != nil || fi.IsDir() {
			continue
		}
		inv.Files = append(inv.Files, match)
	}
	sort.Strings(inv.Files)

	return inv
}

// listDirs returns the sorted names of the visible subdirectories of dir.
// Symlinked directories are followed.
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}
