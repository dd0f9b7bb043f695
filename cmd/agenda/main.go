package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edwinbf09/daily-activities/cmd/agenda/ui"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		apiURL     string
		offline    bool
	)

	rootCmd := &cobra.Command{
		Use:           "agenda",
		Short:         "Track shared activities from the terminal",
		Long:          "Client for the Nuestra Agenda API. Keeps a local copy of your activities and queues changes while offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), configPath, apiURL, offline)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.agenda.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Work from the local cache and queue changes")

	rootCmd.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newResetCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newToggleCmd(a),
		newDeleteCmd(a),
		newSyncCmd(a),
		newReportCmd(a),
		newCategoriesCmd(),
	)

	return rootCmd
}
