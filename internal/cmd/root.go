// Package cmd holds the courtside command tree.
package cmd

import (
	"fmt"

	"github.com/courtside/client/internal/auth"
	"github.com/courtside/client/internal/bridge"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/config"
	"github.com/courtside/client/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	apiURL     string
	token      string
	logLevel   string
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the TUI.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	tui := newTUICommand(opts)

	root := &cobra.Command{
		Use:   "courtside",
		Short: "Terminal client for Courtside",
		Long: `Courtside keeps a live view of playmate posts, chat and notifications
from the Courtside booking backend, reconnecting its sockets when the
network drops.`,
		SilenceUsage: true,
		RunE:         tui.RunE,
	}
	root.Flags().AddFlagSet(tui.Flags())

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/courtside/config.yaml)")
	pf.StringVar(&opts.apiURL, "api-url", "", "backend base URL")
	pf.StringVar(&opts.token, "token", "", "access token, overriding the stored one")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(tui, newWatchCommand(opts), newLoginCommand(opts), newLogoutCommand(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// load reads the config and applies flags that were set explicitly.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.API.URL = o.apiURL
	}
	if flags.Changed("token") {
		cfg.API.Token = o.token
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// deps is what the data commands share: stores, the REST client and the
// bridge provider, all reading the same token.
type deps struct {
	cfg      *config.Config
	local    *storage.Local
	session  *auth.Session
	api      *client.HTTPClient
	provider *bridge.Provider
}

func newDeps(cfg *config.Config, logger zerolog.Logger) (*deps, error) {
	local, err := storage.OpenLocal(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	session := auth.NewSession(local, storage.NewSessionStore(), logger)

	token := func() string {
		if cfg.API.Token != "" {
			return cfg.API.Token
		}
		return session.Token()
	}

	provider, err := bridge.NewProvider(bridge.Options{
		APIURL: cfg.API.URL,
		Token:  token,
		Policy: bridge.ReconnectPolicy{Attempts: cfg.Reconnect.Attempts, Delay: cfg.Reconnect.Delay},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating bridges: %w", err)
	}

	return &deps{
		cfg:      cfg,
		local:    local,
		session:  session,
		api:      client.NewHTTPClient(cfg.API.URL, token),
		provider: provider,
	}, nil
}
