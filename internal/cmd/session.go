package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/courtside/client/internal/auth"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newLoginCommand(global *globalOptions) *cobra.Command {
	var refresh string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token for later runs",
		Long: `Store an access token issued by the backend. Admin tokens go to the
admin slots together with --refresh; any other role is stored as the
player token.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.load(cmd)
			if err != nil {
				return err
			}
			if cfg.API.Token == "" {
				return errors.New("login: --token is required")
			}
			claims, err := auth.ParseClaims(cfg.API.Token)
			if err != nil {
				return err
			}
			if claims.Expired(time.Now()) {
				return errors.New("login: token has expired")
			}
			role, err := auth.RequireRole(cfg.API.Token, client.RolePlayer, client.RoleOwner, client.RoleAdmin)
			if err != nil {
				return err
			}

			local, err := storage.OpenLocal(cfg.StateDir)
			if err != nil {
				return err
			}
			if role == client.RoleAdmin {
				err = local.SetAdminTokens(cfg.API.Token, refresh)
			} else {
				err = local.SetAccessToken(cfg.API.Token)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s).\n", claims.Subject, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&refresh, "refresh", "", "admin refresh token")
	return cmd
}

func newLogoutCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.load(cmd)
			if err != nil {
				return err
			}
			local, err := storage.OpenLocal(cfg.StateDir)
			if err != nil {
				return err
			}
			if local.AccessToken() == "" && local.AdminAccessToken() == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			s := auth.NewSession(local, storage.NewSessionStore(), zerolog.Nop())
			redirect := s.Logout()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out. Sign in again at %s.\n", redirect)
			return nil
		},
	}
}
