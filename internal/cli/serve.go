package cli

import (
	"github.com/spf13/cobra"

	"watersafe/internal/api"
	"watersafe/internal/config"
)

func serveCommand(getApp func() *App, version string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := getApp()
			ctx := cmd.Context()
			if addr != "" {
				cfg := *app.Config.Get()
				cfg.API.Addr = addr
				cfg.API.Enabled = true
				app.Config = config.NewStaticManager(&cfg)
				app.Engine.UpdateConfig(&cfg)
			}

			// warm the cache so a bad source fails loudly at startup
			if _, err := app.Loader.Load(ctx); err != nil {
				app.Logger.Warn("initial dataset load failed", "err", err)
			}

			srv := api.NewServer(api.Options{
				Config:     app.Config,
				Engine:     app.Engine,
				Dataset:    app.Loader,
				Summaries:  app.Summaries,
				Collectors: app.Collectors,
				Mailer:     app.Mailer,
				Logger:     app.Logger,
				Version:    version,
			})
			if api.Start(ctx, srv) == nil {
				app.Logger.Warn("nothing to serve, api is disabled")
				return nil
			}

			stop := make(chan struct{})
			go app.Config.Watch(0, func(cfg *config.Config) {
				app.Engine.UpdateConfig(cfg)
				app.Logger.Info("config reloaded", "path", app.Config.Path())
			}, func(err error) {
				app.Logger.Warn("config reload failed", "err", err)
			}, stop)

			<-ctx.Done()
			close(stop)
			app.Logger.Info("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides api.addr")
	return cmd
}
