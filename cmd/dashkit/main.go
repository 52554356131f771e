package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dashkit"
	"github.com/vango-dev/dashkit/internal/config"
	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/dashboard"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		dasherrors.DisableColors()
	}
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// cli carries the global flags shared by every command.
type cli struct {
	configPath string
	baseURL    string
	token      string
	user       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "dashkit",
		Short: "Service-provider dashboard client",
		Long: `dashkit reads and updates a service provider's dashboard: zones,
wallet and payouts, gallery, bookings, coupons, checkout, support tickets,
stats and profile.

Configuration comes from dashkit.json, then DASHKIT_* environment
variables, then flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "Path to dashkit.json (default: search upward)")
	pf.StringVar(&c.baseURL, "base-url", "", "Backend base URL")
	pf.StringVar(&c.token, "token", "", "Backend bearer token")
	pf.StringVarP(&c.user, "user", "u", "", "User id to act as")
	pf.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		zonesCmd(c),
		walletCmd(c),
		payoutCmd(c),
		galleryCmd(c),
		bookingsCmd(c),
		sessionCmd(c),
		serveCmd(c),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads the configuration and applies flag overrides.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.baseURL != "" {
		cfg.API.BaseURL = c.baseURL
	}
	if c.token != "" {
		cfg.API.Token = c.token
	}
	if c.user != "" {
		cfg.User = c.user
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	return cfg, nil
}

func (c *cli) app(cmd *cobra.Command) (*dashkit.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return dashkit.New(cfg, dashkit.WithLogger(cfg.Logger(cmd.ErrOrStderr())))
}

// mount builds the dashboard of the configured user. The caller closes it.
func (c *cli) mount(cmd *cobra.Command) (context.Context, *dashboard.Dashboard, error) {
	app, err := c.app(cmd)
	if err != nil {
		return nil, nil, err
	}
	user := app.Config().User
	if user == "" {
		return nil, nil, fmt.Errorf("no user: pass --user or set DASHKIT_USER")
	}
	return app.Mount(cmd.Context(), session.Identity{UserID: user})
}

// failed renders a slice error and returns a short error for the exit status.
func failed(cmd *cobra.Command, err error, action string) error {
	fmt.Fprint(cmd.ErrOrStderr(), dasherrors.Format(err, action))
	return fmt.Errorf("%s failed", action)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
