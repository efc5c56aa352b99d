package main

import (
	"context"
	"io"
	"os"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/config"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/report"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the skill corpus (default command)",
	Long: `Validate every category/skill unit under the skills directory and the
presence of the rules directory. Exits 0 when no ERROR was found, 1 otherwise.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		code, err := validate(cmd.Context(), cfg, presenter.Default(), os.Stdout)
		if err != nil {
			presenter.Error(err, "Validation could not start")
		}
		os.Exit(code)
	},
}

// validate runs one full validation and returns the process exit code.
// A setup failure returns exit code 1 with the error.
func validate(ctx context.Context, cfg *config.Config, p presenter.Presenter, w io.Writer) (int, error) {
	val, err := validator.New(cfg)
	if err != nil {
		return 1, err
	}

	rep, err := report.New(cfg, p, w, val.Rules().Index)
	if err != nil {
		return 1, err
	}

	run, err := val.Run(ctx, rep)
	if err != nil {
		return 1, err
	}
	return run.ExitCode(), nil
}
