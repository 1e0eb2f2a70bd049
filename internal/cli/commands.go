package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"watersafe/internal/config"
	"watersafe/internal/engine"
	"watersafe/internal/letters"
	"watersafe/internal/model"
	"watersafe/internal/signup"
)

func lookupSystem(app *App, cmd *cobra.Command, pwsid string) (model.WaterSystem, error) {
	ds, err := app.Loader.Load(cmd.Context())
	if err != nil {
		return model.WaterSystem{}, err
	}
	sys, ok := ds.System(pwsid)
	if !ok {
		return model.WaterSystem{}, fmt.Errorf("water system %s not found", pwsid)
	}
	return sys, nil
}

func tasksCommand(getApp func() *App) *cobra.Command {
	var (
		asCSV  bool
		status string
		search string
	)
	cmd := &cobra.Command{
		Use:   "tasks <pwsid>",
		Short: "List the compliance tasks derived for a water system",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			st, ok := engine.ParseStatus(status)
			if !ok {
				return fmt.Errorf("unknown status %q", status)
			}
			sys, err := lookupSystem(app, cmd, args[0])
			if err != nil {
				return err
			}
			tasks := engine.FilterTasks(app.Engine.Tasks(sys), engine.TaskFilter{Status: st, Search: search})
			out := cmd.OutOrStdout()
			if asCSV {
				if err := engine.WriteCSV(out, tasks); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out)
				return err
			}
			return printTasks(out, tasks)
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (overdue, due_soon, upcoming, on_track, completed)")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Only tasks whose name contains this text")
	return cmd
}

func printTasks(w io.Writer, tasks []model.ComplianceTask) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDUE\tDAYS LEFT\tSTATUS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Name, t.Due, t.DaysLeft, t.Status)
	}
	return tw.Flush()
}

func lettersCommand(getApp func() *App) *cobra.Command {
	var (
		outDir string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "letters <pwsid>",
		Short: "Generate every notification letter a water system needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			sys, err := lookupSystem(app, cmd, args[0])
			if err != nil {
				return err
			}
			session := letters.NewStore(app.Config.Get().Letters.SessionLimit)
			if dryRun {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(app.Engine.Candidates(session, sys))
			}
			report := app.Engine.AutoGenerate(cmd.Context(), session, sys)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			for _, l := range report.Generated {
				path := filepath.Join(outDir, l.ID+"-"+l.Document.Name)
				if err := os.WriteFile(path, l.Document.Bytes, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", l.TemplateID, l.EntityKey, path)
			}
			for _, f := range report.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed\t%s\t%s\t%s\n", f.TemplateID, f.Key, f.Error)
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d of %d letters failed", len(report.Failures), len(report.Failures)+len(report.Generated))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "letters", "Directory to write PDF letters into")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the classified candidates without rendering")
	return cmd
}

func signupCommand(getApp func() *App) *cobra.Command {
	var req signup.Request
	var endpoint string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Sign an address up for water quality alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getApp().Config.Get().Signup
			if endpoint == "" {
				endpoint = cfg.Endpoint
			}
			resp, err := signup.NewClient(endpoint, cfg.Timeout).Send(cmd.Context(), req)
			var sendErr *signup.SendError
			if errors.As(err, &sendErr) {
				return errors.New(sendErr.Message)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return err
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Address to notify")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Optional phone number")
	cmd.Flags().StringVar(&req.WaterSystem, "system", "", "Water system name")
	cmd.Flags().StringVar(&req.County, "county", "", "County served")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Signup endpoint, overrides signup.endpoint")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:         "init <path>",
		Short:       "Write the default configuration",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"app": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return err
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
