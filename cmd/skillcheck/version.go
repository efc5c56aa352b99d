package main

import (
	"fmt"
	"os"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Long:  `Print the version information of skillcheck in JSON format.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out, err := version.Get().JSON()
		if err != nil {
			presenter.Error(err, "Error formatting version info")
			os.Exit(1)
		}
		fmt.Println(out)
	},
}
