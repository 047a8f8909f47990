package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/courtside/client/internal/bridge"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/logging"
	"github.com/spf13/cobra"
)

func newWatchCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print live socket events as JSON lines",
		Long: `Connect both sockets and print every state change and server event
to stdout, one JSON object per line. Logs go to stderr. Stops on SIGINT
or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.load(cmd)
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			logger := logging.NewConsole(cmd.ErrOrStderr(), level)

			d, err := newDeps(cfg, logger)
			if err != nil {
				return err
			}
			defer d.provider.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(bridge.WithProvider(ctx, d.provider), cmd.OutOrStdout())
		},
	}
}

type watchLine struct {
	Time   time.Time `json:"time"`
	Bridge string    `json:"bridge"`
	Event  string    `json:"event"`
	Data   any       `json:"data,omitempty"`
}

type printer struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

func (p *printer) print(bridgeName, event string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// a closed stdout is not worth tearing the sockets down for
	_ = p.enc.Encode(watchLine{Time: p.now(), Bridge: bridgeName, Event: event, Data: data})
}

func follow[T any](p *printer, unsubs *[]func(), bridgeName, event string, s *bridge.Stream[T]) {
	sub := s.Subscribe(func(v T) { p.print(bridgeName, event, v) })
	*unsubs = append(*unsubs, sub.Unsubscribe)
}

// watch connects the provider carried by ctx and prints its streams to w
// until ctx ends.
func watch(ctx context.Context, w io.Writer) error {
	provider, ok := bridge.FromContext(ctx)
	if !ok {
		return errors.New("watch: no bridge provider in context")
	}
	p := &printer{enc: json.NewEncoder(w), now: time.Now}

	chatBridge, playmateBridge := provider.Chat(), provider.Playmate()
	var unsubs []func()
	for _, b := range []*bridge.Bridge{chatBridge.Bridge, playmateBridge.Bridge} {
		name := b.Name()
		sub := b.States().Subscribe(func(s bridge.ConnectionState) { p.print(name, "state", s.String()) })
		unsubs = append(unsubs, sub.Unsubscribe)
		follow(p, &unsubs, name, client.EventException, b.Exceptions())
	}
	follow(p, &unsubs, chatBridge.Name(), client.EventNewMessage, chatBridge.Messages())
	follow(p, &unsubs, chatBridge.Name(), client.EventSeenMessage, chatBridge.Seen())
	follow(p, &unsubs, chatBridge.Name(), client.EventNewNotification, chatBridge.Notifications())
	follow(p, &unsubs, playmateBridge.Name(), client.EventNewPlaymate, playmateBridge.Created())
	follow(p, &unsubs, playmateBridge.Name(), client.EventUpdatePlaymate, playmateBridge.Updated())
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	chatBridge.Connect()
	playmateBridge.Connect()
	<-ctx.Done()
	provider.Close()
	return nil
}
