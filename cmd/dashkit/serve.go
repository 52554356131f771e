package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/dashkit"
)

func serveCmd(c *cli) *cobra.Command {
	var (
		addr    string
		devMode bool
		tracing bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard gateway",
		Long: `Run the HTTP gateway: slice views under /api/slices, live feeds
under /live/{slice}, health on /healthz and metrics on /metrics.

Requires DASHKIT_SESSION_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if devMode {
				cfg.Session.DevLogin = true
			}
			opts := []dashkit.Option{dashkit.WithLogger(cfg.Logger(cmd.ErrOrStderr()))}
			if tracing {
				opts = append(opts, dashkit.WithTracing())
			}
			app, err := dashkit.New(cfg, opts...)
			if err != nil {
				return err
			}
			if cfg.Session.DevLogin {
				app.Logger().Warn("dev login enabled: POST /api/session issues sessions without credentials")
			}
			return app.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "Enable POST /api/session")
	cmd.Flags().BoolVar(&tracing, "trace", false, "Trace backend requests with OpenTelemetry")
	return cmd
}
