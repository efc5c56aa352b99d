// Package config holds the validator configuration. Values come from
// defaults, an optional .skillcheck.yaml file, SKILLCHECK_* environment
// variables and command line flags, merged by viper.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of every environment variable read by viper.
	EnvPrefix = "SKILLCHECK"
	// FileName is the base name of the optional configuration file.
	FileName = ".skillcheck"

	FormatText = "text"
	FormatJSON = "json"

	GroupByUnit = "unit"
	GroupByRule = "rule"
)

// Config is the full validator configuration.
type Config struct {
	Root            string `mapstructure:"root"`
	SkillsDir       string `mapstructure:"skills_dir"`
	RulesDir        string `mapstructure:"rules_dir"`
	RulesGlob       string `mapstructure:"rules_glob"`
	PrimaryDocument string `mapstructure:"primary_document"`

	Categories         []string `mapstructure:"categories"`
	SecurityCategories []string `mapstructure:"security_categories"`

	License              string `mapstructure:"license"`
	ReservedPrefix       string `mapstructure:"reserved_prefix"`
	DescriptionMaxLength int    `mapstructure:"description_max_length"`

	ForbiddenDependencies []string `mapstructure:"forbidden_dependencies"`
	AllowedAttribution    string   `mapstructure:"allowed_attribution"`
	PlaceholderMarkers    []string `mapstructure:"placeholder_markers"`
	CredentialMinLength   int      `mapstructure:"credential_min_length"`
	MutatingTools         []string `mapstructure:"mutating_tools"`
	StepExemptPaths       []string `mapstructure:"step_exempt_paths"`

	SuppressionsFile string `mapstructure:"suppressions_file"`

	Jobs    int    `mapstructure:"jobs"`
	Format  string `mapstructure:"format"`
	GroupBy string `mapstructure:"group_by"`
	Quiet   bool   `mapstructure:"quiet"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Root:            ".",
		SkillsDir:       "skills",
		RulesDir:        "rules",
		RulesGlob:       "*.md",
		PrimaryDocument: "SKILL.md",

		Categories:         []string{"code", "data", "delivery", "meta", "operations", "quality", "security"},
		SecurityCategories: []string{"security"},

		License:              "MIT",
		ReservedPrefix:       "x-",
		DescriptionMaxLength: 1024,

		ForbiddenDependencies: []string{"ccsetup", "x-workflows"},
		AllowedAttribution:    "Originally derived from ccsetup",
		PlaceholderMarkers:    []string{"placeholder", "example", "${", "your-"},
		CredentialMinLength:   32,
		MutatingTools:         []string{"Write*", "Edit*", "MultiEdit*", "NotebookEdit*"},
		StepExemptPaths:       []string{"references/**", "examples/**", "**/references/**", "**/examples/**"},

		SuppressionsFile: ".skillcheck-suppressions.yaml",

		Jobs:    1,
		Format:  FormatText,
		GroupBy: GroupByUnit,

		LogLevel:  "warn",
		LogFormat: "fmt",
	}
}

// SetDefaults registers every default on v so that AutomaticEnv can resolve
// keys that were never set explicitly.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("root", d.Root)
	v.SetDefault("skills_dir", d.SkillsDir)
	v.SetDefault("rules_dir", d.RulesDir)
	v.SetDefault("rules_glob", d.RulesGlob)
	v.SetDefault("primary_document", d.PrimaryDocument)
	v.SetDefault("categories", d.Categories)
	v.SetDefault("security_categories", d.SecurityCategories)
	v.SetDefault("license", d.License)
	v.SetDefault("reserved_prefix", d.ReservedPrefix)
	v.SetDefault("description_max_length", d.DescriptionMaxLength)
	v.SetDefault("forbidden_dependencies", d.ForbiddenDependencies)
	v.SetDefault("allowed_attribution", d.AllowedAttribution)
	v.SetDefault("placeholder_markers", d.PlaceholderMarkers)
	v.SetDefault("credential_min_length", d.CredentialMinLength)
	v.SetDefault("mutating_tools", d.MutatingTools)
	v.SetDefault("step_exempt_paths", d.StepExemptPaths)
	v.SetDefault("suppressions_file", d.SuppressionsFile)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("format", d.Format)
	v.SetDefault("group_by", d.GroupBy)
	v.SetDefault("quiet", d.Quiet)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
}

// NewViper returns a viper instance wired for SKILLCHECK_* environment
// variables, the optional config file and the defaults above.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.skillcheck")

	SetDefaults(v)
	return v
}

// ReadFile loads path, or searches the default locations when path is empty.
// A missing file is not an error when searching.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", path)
		}
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Root) == "" {
		result = multierror.Append(result, errors.New("root must not be empty"))
	}
	if strings.TrimSpace(c.SkillsDir) == "" {
		result = multierror.Append(result, errors.New("skills_dir must not be empty"))
	}
	if strings.TrimSpace(c.RulesDir) == "" {
		result = multierror.Append(result, errors.New("rules_dir must not be empty"))
	}
	if !doublestar.ValidatePattern(c.RulesGlob) {
		result = multierror.Append(result, errors.Errorf("rules_glob %q is not a valid pattern", c.RulesGlob))
	}
	if c.PrimaryDocument == "" || strings.ContainsAny(c.PrimaryDocument, `/\`) {
		result = multierror.Append(result, errors.Errorf("primary_document %q must be a plain file name", c.PrimaryDocument))
	}
	if len(c.Categories) == 0 {
		result = multierror.Append(result, errors.New("categories must list at least one category"))
	}
	if c.License == "" {
		result = multierror.Append(result, errors.New("license must not be empty"))
	}
	if c.DescriptionMaxLength <= 0 {
		result = multierror.Append(result, errors.Errorf("description_max_length must be positive, got %d", c.DescriptionMaxLength))
	}
	if c.CredentialMinLength < 8 {
		result = multierror.Append(result, errors.Errorf("credential_min_length must be at least 8, got %d", c.CredentialMinLength))
	}
	for _, name := range c.ForbiddenDependencies {
		if strings.TrimSpace(name) == "" {
			result = multierror.Append(result, errors.New("forbidden_dependencies must not contain empty names"))
			break
		}
	}
	for _, pattern := range c.MutatingTools {
		if _, err := glob.Compile(pattern); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "mutating_tools pattern %q", pattern))
		}
	}
	for _, pattern := range c.StepExemptPaths {
		if !doublestar.ValidatePattern(pattern) {
			result = multierror.Append(result, errors.Errorf("step_exempt_paths pattern %q is not valid", pattern))
		}
	}
	if c.Jobs < 1 {
		result = multierror.Append(result, errors.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		result = multierror.Append(result, errors.Errorf("format must be one of %s, %s; got %q", FormatText, FormatJSON, c.Format))
	}
	switch c.GroupBy {
	case GroupByUnit, GroupByRule:
	default:
		result = multierror.Append(result, errors.Errorf("group_by must be one of %s, %s; got %q", GroupByUnit, GroupByRule, c.GroupBy))
	}

	if result != nil {
		result.ErrorFormat = listFormat
	}
	return result.ErrorOrNil()
}

func listFormat(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  - " + err.Error()
	}
	return fmt.Sprintf("invalid configuration:\n%s", strings.Join(lines, "\n"))
}

// SkillsRoot is the directory holding the category directories.
func (c *Config) SkillsRoot() string {
	return resolve(c.Root, c.SkillsDir)
}

// RulesRoot is the directory holding the rule documents.
func (c *Config) RulesRoot() string {
	return resolve(c.Root, c.RulesDir)
}

// SuppressionsPath is the suppression file location, empty when disabled.
func (c *Config) SuppressionsPath() string {
	if c.SuppressionsFile == "" {
		return ""
	}
	return resolve(c.Root, c.SuppressionsFile)
}

// IsSecurityCategory reports whether name is a security-sensitive category.
func (c *Config) IsSecurityCategory(name string) bool {
	return contains(c.SecurityCategories, name)
}

// ForbiddenPattern compiles the forbidden dependency names into one
// case-insensitive, word-bounded expression. It returns nil when the list is empty.
func (c *Config) ForbiddenPattern() *regexp.Regexp {
	if len(c.ForbiddenDependencies) == 0 {
		return nil
	}
	quoted := make([]string, len(c.ForbiddenDependencies))
	for i, name := range c.ForbiddenDependencies {
		quoted[i] = regexp.QuoteMeta(name)
	}
	return regexp.MustCompile(`(?i)(^|[^A-Za-z0-9_-])(` + strings.Join(quoted, "|") + `)($|[^A-Za-z0-9_-])`)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
