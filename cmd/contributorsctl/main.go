// Package main implements contributorsctl, a command line tool loading
// contributors of a github organization with a chosen strategy.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	l := logrus.New()
	l.Out = os.Stderr

	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "contributorsctl",
		Short: "Load contributors of a github organization",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			l.Level = logrus.WarnLevel
			if verbose {
				l.Level = logrus.DebugLevel
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show log output")

	rootCmd.AddCommand(
		newLoadCmd(l),
		newRemoteCmd(),
		newVariantsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
