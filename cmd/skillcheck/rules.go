package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/diagnostics"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/rules"
	"github.com/spf13/cobra"
)

// RulesConfig holds configuration for the rules command
type RulesConfig struct {
	Severity string
}

// NewRulesConfig creates a new RulesConfig with default values
func NewRulesConfig() *RulesConfig {
	return &RulesConfig{}
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules in evaluation order",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := getRulesConfigFromFlags(cmd)
		if err := listRules(os.Stdout, rules.Default(), cfg); err != nil {
			presenter.Error(err, "Failed to list rules")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewRulesConfig()
	rulesCmd.Flags().StringP("severity", "s", defaults.Severity, "Only list rules of this severity (error, warning, info)")
}

func getRulesConfigFromFlags(cmd *cobra.Command) *RulesConfig {
	config := NewRulesConfig()
	if severity, err := cmd.Flags().GetString("severity"); err == nil {
		config.Severity = severity
	}
	return config
}

func listRules(w io.Writer, set *rules.Set, config *RulesConfig) error {
	var (
		filter    diagnostics.Severity
		hasFilter = config.Severity != ""
	)
	if hasFilter {
		s, err := diagnostics.ParseSeverity(config.Severity)
		if err != nil {
			return err
		}
		filter = s
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSEVERITY\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t--------\t-----------")
	for _, r := range set.All() {
		if hasFilter && r.Severity() != filter {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID(), r.Severity(), r.Description())
	}
	return tw.Flush()
}
