package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dashkit/pkg/auth/session"
)

func sessionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session tokens",
	}

	var role, name string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Print a signed session token for --user",
		Long: `Print a signed session token for --user. Send it as the session
cookie or as an Authorization: Bearer header to the gateway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.User == "" {
				return fmt.Errorf("no user: pass --user or set DASHKIT_USER")
			}
			opts := []session.Option{session.WithTTL(cfg.Session.TTL.Std())}
			if cfg.Session.Issuer != "" {
				opts = append(opts, session.WithIssuer(cfg.Session.Issuer))
			}
			m := session.New([]byte(cfg.Session.Secret), opts...)
			token, err := m.Issue(session.Identity{UserID: cfg.User, Role: role, Name: name})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().StringVar(&role, "role", "provider", "Role claim")
	issue.Flags().StringVar(&name, "name", "", "Display name claim")

	cmd.AddCommand(issue)
	return cmd
}
