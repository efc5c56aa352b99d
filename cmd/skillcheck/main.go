package main

import (
	"os"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/config"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/logger"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// v holds the merged configuration: defaults, config file, SKILLCHECK_*
// environment variables and flags.
var v = config.NewViper()

var rootCmd = &cobra.Command{
	Use:   "skillcheck",
	Short: "Validate a skill corpus against its authoring contract",
	Long: `skillcheck walks the category/skill directories of a skill corpus and checks
structure, front matter identity fields and content policy.

It prints one line per finding, a summary and a final PASSED or FAILED line,
and exits 1 when at least one ERROR was found.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	Args:              cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		validateCmd.Run(cmd, args)
	},
}

func init() {
	registerFlags(rootCmd.PersistentFlags())
	if err := bindFlags(v, rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// flagBindings maps configuration keys to the persistent flags overriding them.
var flagBindings = map[string]string{
	"root":              "root",
	"skills_dir":        "skills-dir",
	"rules_dir":         "rules-dir",
	"suppressions_file": "suppressions",
	"format":            "format",
	"group_by":          "group-by",
	"quiet":             "quiet",
	"jobs":              "jobs",
	"log_level":         "log-level",
	"log_format":        "log-format",
}

func registerFlags(flags *pflag.FlagSet) {
	defaults := config.Default()

	flags.String("config", "", "Path to a config file (default: ./.skillcheck.yaml or $HOME/.skillcheck/.skillcheck.yaml)")
	flags.String("root", defaults.Root, "Repository root")
	flags.String("skills-dir", defaults.SkillsDir, "Skills directory, relative to the root")
	flags.String("rules-dir", defaults.RulesDir, "Rules directory, relative to the root")
	flags.String("suppressions", defaults.SuppressionsFile, "Suppression file, relative to the root (empty to disable)")
	flags.StringP("format", "f", defaults.Format, "Output format (text or json)")
	flags.String("group-by", defaults.GroupBy, "Group text output by unit or rule")
	flags.BoolP("quiet", "q", defaults.Quiet, "Only print diagnostics and the summary")
	flags.IntP("jobs", "j", defaults.Jobs, "Number of units evaluated in parallel")
	flags.String("color", "auto", "Color output (auto, always or never)")
	flags.String("log-level", defaults.LogLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	flags.String("log-format", defaults.LogFormat, "Log format (fmt or json)")
}

// bindFlags makes every flag in flagBindings override its configuration key.
func bindFlags(vp *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagBindings {
		flag := flags.Lookup(name)
		if flag == nil {
			return errors.Errorf("flag --%s is not registered", name)
		}
		if err := vp.BindPFlag(key, flag); err != nil {
			return errors.Wrapf(err, "failed to bind --%s", name)
		}
	}
	return nil
}

// setup reads the config file and configures logging and terminal output
// before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if err := config.ReadFile(v, path); err != nil {
		return err
	}

	if err := logger.Configure(v.GetString("log_level"), v.GetString("log_format")); err != nil {
		return err
	}
	logger.SetLogOutput(cmd.ErrOrStderr())

	colorFlag, _ := cmd.Flags().GetString("color")
	if colorFlag != "auto" {
		mode, err := presenter.ParseColorMode(colorFlag)
		if err != nil {
			return err
		}
		presenter.SetColorMode(mode)
	}
	presenter.SetQuiet(v.GetBool("quiet"))

	if used := v.ConfigFileUsed(); used != "" {
		logger.L.WithField("file", used).Debug("loaded config file")
	}
	return nil
}

// loadConfig returns the validated configuration for the current invocation.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
