package bridge

import (
	"context"
	"sync"

	"github.com/courtside/client/internal/client"
	"github.com/rs/zerolog"
)

// DialerFunc builds the dialer for a namespace.
type DialerFunc func(namespace string) (client.Dialer, error)

// Options configures a Provider.
type Options struct {
	APIURL string
	Token  client.TokenSource
	Policy ReconnectPolicy
	Logger zerolog.Logger

	// Dialer overrides the Socket.IO dialer, mostly for tests.
	Dialer DialerFunc
}

// Provider owns the application's bridges: each one is built at most once
// per Provider and disconnected by Close. Create one at startup and pass it
// (or a context carrying it) to whatever owns the UI.
type Provider struct {
	policy ReconnectPolicy
	logger zerolog.Logger

	chatDialer     client.Dialer
	playmateDialer client.Dialer

	mu       sync.Mutex
	chat     *Chat
	playmate *Playmate
	closed   bool
}

// NewProvider validates opts and prepares the dialers. No connection is
// opened until a bridge's Connect is called.
func NewProvider(opts Options) (*Provider, error) {
	dial := opts.Dialer
	if dial == nil {
		dial = func(namespace string) (client.Dialer, error) {
			return client.NewSocketDialer(opts.APIURL, namespace, opts.Token, opts.Logger)
		}
	}
	chatDialer, err := dial(client.NamespaceChat)
	if err != nil {
		return nil, err
	}
	playmateDialer, err := dial(client.NamespacePlaymate)
	if err != nil {
		return nil, err
	}
	return &Provider{
		policy:         opts.Policy,
		logger:         opts.Logger,
		chatDialer:     chatDialer,
		playmateDialer: playmateDialer,
	}, nil
}

// Chat returns the chat bridge, building it on first use.
func (p *Provider) Chat() *Chat {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chat == nil {
		p.chat = NewChat(p.chatDialer, p.policy, p.logger)
	}
	return p.chat
}

// Playmate returns the playmate bridge, building it on first use.
func (p *Provider) Playmate() *Playmate {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playmate == nil {
		p.playmate = NewPlaymate(p.playmateDialer, p.policy, p.logger)
	}
	return p.playmate
}

// Close disconnects every bridge built so far. Calling it again does nothing.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	var built []*Bridge
	if p.chat != nil {
		built = append(built, p.chat.Bridge)
	}
	if p.playmate != nil {
		built = append(built, p.playmate.Bridge)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, b := range built {
		wg.Add(1)
		go func(b *Bridge) {
			defer wg.Done()
			b.Disconnect()
		}(b)
	}
	wg.Wait()
	p.logger.Debug().Int("bridges", len(built)).Msg("provider closed")
}

type providerKey struct{}

// WithProvider returns a context carrying p for descendants.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the Provider carried by ctx, if any.
func FromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	return p, ok
}
