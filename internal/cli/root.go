package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// RootCommand builds the watersafe command tree.
func RootCommand(version string) *cobra.Command {
	opts := &options{logOut: os.Stderr}
	var app *App

	rootCmd := &cobra.Command{
		Use:           "watersafe",
		Short:         "Drinking water compliance tasks and customer notification letters",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "json", "Log format: json or text")

	// config init runs without a config file
	needsApp := func(cmd *cobra.Command) bool {
		return cmd.Annotations["app"] != "none"
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if !needsApp(cmd) {
			return nil
		}
		var err error
		app, err = newApp(cmd.Context(), *opts)
		return err
	}
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		if app == nil {
			return nil
		}
		return app.Close()
	}

	getApp := func() *App { return app }
	rootCmd.AddCommand(
		serveCommand(getApp, version),
		tasksCommand(getApp),
		lettersCommand(getApp),
		signupCommand(getApp),
		configCommand(),
	)
	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context, version string) error {
	return RootCommand(version).ExecuteContext(ctx)
}
