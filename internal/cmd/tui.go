package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/courtside/client/internal/app"
	"github.com/courtside/client/internal/logging"
	"github.com/courtside/client/internal/notify"
	"github.com/spf13/cobra"
)

type tuiOptions struct {
	conversation string
	style        string
}

func newTUICommand(global *globalOptions) *cobra.Command {
	opts := &tuiOptions{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive client",
		Long: `Open the interactive client. Logs go to client.log in the state
directory since the terminal belongs to the UI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, global, opts)
		},
	}
	cmd.Flags().StringVar(&opts.conversation, "conversation", "", "conversation to open in the chat tab")
	cmd.Flags().StringVar(&opts.style, "style", "dark", "markdown style for chat messages (dark, light, notty)")
	return cmd
}

func runTUI(cmd *cobra.Command, global *globalOptions, opts *tuiOptions) error {
	cfg, err := global.load(cmd)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logFile, err := logging.OpenFile(cfg.StateDir)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.New(logFile, level)

	d, err := newDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer d.provider.Close()

	model := app.New(app.Options{
		Provider:          d.provider,
		API:               d.api,
		Session:           d.session,
		Poller:            notify.NewPoller(d.api, cfg.Notify.PollInterval, logger),
		Prefs:             d.local,
		ReconnectAttempts: cfg.Reconnect.Attempts,
		ConversationID:    opts.conversation,
		MarkdownStyle:     opts.style,
		Logger:            logger,
	})

	logger.Info().Str("api", cfg.API.URL).Msg("starting tui")
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}

	if d.session.JustLoggedOut() {
		fmt.Fprintln(cmd.OutOrStdout(), "Your session ended. Run `courtside login` to sign in again.")
	}
	return nil
}
