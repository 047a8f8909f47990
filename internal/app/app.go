// Package app is the root Bubble Tea model. It mounts hooks on the bridge
// streams, loads initial data over REST and routes keys to the views.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/courtside/client/internal/auth"
	"github.com/courtside/client/internal/bridge"
	"github.com/courtside/client/internal/client"
	"github.com/courtside/client/internal/notify"
	"github.com/courtside/client/internal/theme"
	"github.com/courtside/client/internal/views/chat"
	"github.com/courtside/client/internal/views/debug"
	"github.com/courtside/client/internal/views/feed"
	"github.com/courtside/client/internal/views/inbox"
	"github.com/courtside/client/internal/views/status"
	"github.com/rs/zerolog"
)

// Tab identifies the main pane.
type Tab int

const (
	TabFeed Tab = iota
	TabChat
	TabInbox
)

var tabNames = [...]string{"Playmates", "Chat", "Notifications"}

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDebug
	OverlayLoggedOut
)

const (
	nameChat     = "chat"
	namePlaymate = "playmate"

	historyLimit = 50
)

// API is the REST surface the TUI reads.
type API interface {
	ListPlaymates(ctx context.Context) ([]client.Playmate, error)
	ListNotifications(ctx context.Context) ([]client.Notification, error)
	ListMessages(ctx context.Context, conversationID string, limit int) ([]client.Message, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// Prefs persists UI preferences.
type Prefs interface {
	SidebarCollapsed() bool
	SetSidebarCollapsed(collapsed bool) error
}

// Options wires the model to its collaborators. Session, Poller and Prefs
// may be nil.
type Options struct {
	Provider          *bridge.Provider
	API               API
	Session           *auth.Session
	Poller            *notify.Poller
	Prefs             Prefs
	ReconnectAttempts int
	ConversationID    string
	MarkdownStyle     string
	Logger            zerolog.Logger
}

type (
	playmatesLoadedMsg struct {
		items []client.Playmate
		err   error
	}
	notificationsLoadedMsg struct {
		items []client.Notification
		err   error
	}
	messagesLoadedMsg struct {
		conversationID string
		items          []client.Message
		err            error
	}
	sentMsg struct {
		conversationID string
		clientID       string
		content        string
		err            error
	}
	markedReadMsg struct {
		id  string
		err error
	}
	emitFailedMsg     struct{ err error }
	pollStoppedMsg    struct{ err error }
	loopStoppedMsg    struct{ name string }
	providerClosedMsg struct{}
)

// hooks are shared by every copy of Model.
type hooks struct {
	chatState      *Hook[bridge.ConnectionState]
	playmateState  *Hook[bridge.ConnectionState]
	created        *Hook[client.Playmate]
	updated        *Hook[client.Playmate]
	notifications  *Hook[client.Notification]
	seen           *Hook[client.SeenReceipt]
	chatErrors     *Hook[client.Exception]
	playmateErrors *Hook[client.Exception]
	unread         *Hook[int]

	// mounted only while the chat tab is shown
	messages *Hook[client.Message]

	waiting map[string]bool
}

func (h *hooks) next() []tea.Cmd {
	return []tea.Cmd{
		h.chatState.Next(), h.playmateState.Next(),
		h.created.Next(), h.updated.Next(),
		h.notifications.Next(), h.seen.Next(),
		h.chatErrors.Next(), h.playmateErrors.Next(),
		h.unread.Next(), h.messages.Next(),
	}
}

func (h *hooks) closeAll() {
	h.chatState.Close()
	h.playmateState.Close()
	h.created.Close()
	h.updated.Close()
	h.notifications.Close()
	h.seen.Close()
	h.chatErrors.Close()
	h.playmateErrors.Close()
	h.unread.Close()
	h.messages.Close()
}

// Model is the root Bubble Tea model.
type Model struct {
	provider *bridge.Provider
	api      API
	session  *auth.Session
	poller   *notify.Poller
	prefs    Prefs
	logger   zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	userID   string

	keys      KeyMap
	width     int
	height    int
	tab       Tab
	overlay   Overlay
	collapsed bool
	composing bool
	input     textinput.Model
	flash     string
	redirect  string

	hooks *hooks

	statusBar status.Model
	feed      feed.Model
	chat      chat.Model
	inbox     inbox.Model
	debug     debug.Model
}

// New creates the root model and mounts its hooks. Nothing connects until
// the program runs Init.
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())

	ti := textinput.New()
	ti.Placeholder = "Message"
	ti.CharLimit = 2000

	m := Model{
		provider:  opts.Provider,
		api:       opts.API,
		session:   opts.Session,
		poller:    opts.Poller,
		prefs:     opts.Prefs,
		logger:    opts.Logger.With().Str("component", "tui").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		keys:      DefaultKeyMap(),
		input:     ti,
		statusBar: status.New(opts.ReconnectAttempts, nameChat, namePlaymate),
		feed:      feed.New(),
		chat:      chat.New(opts.MarkdownStyle),
		inbox:     inbox.New(),
		debug:     debug.New(),
	}
	m.chat.Active = opts.ConversationID
	if opts.Prefs != nil {
		m.collapsed = opts.Prefs.SidebarCollapsed()
	}
	if opts.Session != nil {
		if claims, err := auth.ParseClaims(opts.Session.Token()); err == nil {
			m.userID = claims.Subject
		}
	}

	chatBridge := opts.Provider.Chat()
	playmateBridge := opts.Provider.Playmate()
	m.hooks = &hooks{
		chatState:      Use(chatBridge.States()),
		playmateState:  Use(playmateBridge.States()),
		created:        Use(playmateBridge.Created()),
		updated:        Use(playmateBridge.Updated()),
		notifications:  Use(chatBridge.Notifications()),
		seen:           Use(chatBridge.Seen()),
		chatErrors:     Use(chatBridge.Exceptions()),
		playmateErrors: Use(playmateBridge.Exceptions()),
		waiting:        make(map[string]bool),
	}
	if opts.Poller != nil {
		m.hooks.unread = Use(opts.Poller.Counts())
	}
	return m
}

// Init connects both bridges and starts the initial loads.
func (m Model) Init() tea.Cmd {
	chatBridge, playmateBridge := m.provider.Chat(), m.provider.Playmate()
	cmds := append(m.hooks.next(),
		func() tea.Msg {
			chatBridge.Connect()
			playmateBridge.Connect()
			return nil
		},
		m.loadPlaymates(),
		m.loadNotifications(),
		m.runPoller(),
	)
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.chat.Width = msg.Width - m.sidebarWidth()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamMsg[bridge.ConnectionState]:
		return m.onState(msg)

	case StreamMsg[client.Playmate]:
		if p, ok := m.hooks.created.Accept(msg); ok {
			m.feed.Created(p)
			m.debug.Addf(debug.KindEvent, "new-playmate %s", p.ID)
			return m, m.hooks.created.Next()
		}
		if p, ok := m.hooks.updated.Accept(msg); ok {
			m.feed.Updated(p)
			m.debug.Addf(debug.KindEvent, "update-playmate %s %s", p.ID, p.Status)
			return m, m.hooks.updated.Next()
		}
		return m, nil

	case StreamMsg[client.Message]:
		v, ok := m.hooks.messages.Accept(msg)
		if !ok {
			return m, nil
		}
		m.chat.Add(v)
		m.debug.Addf(debug.KindEvent, "new-message %s", v.ID)
		return m, tea.Batch(m.hooks.messages.Next(), m.markSeen(v))

	case StreamMsg[client.SeenReceipt]:
		if r, ok := m.hooks.seen.Accept(msg); ok {
			m.chat.Seen(r)
			return m, m.hooks.seen.Next()
		}
		return m, nil

	case StreamMsg[client.Notification]:
		if n, ok := m.hooks.notifications.Accept(msg); ok {
			m.inbox.Add(n)
			m.debug.Addf(debug.KindEvent, "new-notification %s", n.Title)
			return m, m.hooks.notifications.Next()
		}
		return m, nil

	case StreamMsg[client.Exception]:
		for _, h := range []*Hook[client.Exception]{m.hooks.chatErrors, m.hooks.playmateErrors} {
			if e, ok := h.Accept(msg); ok {
				m.flash = e.Message
				m.debug.Addf(debug.KindError, "exception %s: %s", e.Status, e.Message)
				return m, h.Next()
			}
		}
		return m, nil

	case StreamMsg[int]:
		if n, ok := m.hooks.unread.Accept(msg); ok {
			m.statusBar.Unread = n
			return m, m.hooks.unread.Next()
		}
		return m, nil

	case loopStoppedMsg:
		m.hooks.waiting[msg.name] = false
		if !m.manager(msg.name).Active() {
			m.statusBar.SetStopped(msg.name)
			m.debug.Addf(debug.KindSocket, "%s gave up reconnecting", msg.name)
		}
		return m, nil

	case playmatesLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.feed.Set(msg.items)
		return m, nil

	case notificationsLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.inbox.Set(msg.items)
		return m, nil

	case messagesLoadedMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		for _, v := range msg.items {
			m.chat.Add(v)
		}
		return m, nil

	case sentMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrNotConnected) {
				m.flash = "Chat is offline. Message not sent."
				return m, nil
			}
			return m.fail(msg.err)
		}
		m.chat.Pending(msg.conversationID, msg.clientID, msg.content)
		return m, nil

	case markedReadMsg:
		if msg.err != nil {
			return m.fail(msg.err)
		}
		m.inbox.MarkRead(msg.id)
		return m, nil

	case emitFailedMsg:
		m.debug.Add(debug.KindError, msg.err.Error())
		return m, nil

	case pollStoppedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			return m.fail(msg.err)
		}
		return m, nil

	case providerClosedMsg:
		m.debug.Add(debug.KindSocket, "all bridges closed")
		return m, nil
	}

	if m.composing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) onState(msg StreamMsg[bridge.ConnectionState]) (tea.Model, tea.Cmd) {
	for _, name := range []string{nameChat, namePlaymate} {
		h := m.stateHook(name)
		v, ok := h.Accept(msg)
		if !ok {
			continue
		}
		mgr := m.manager(name)
		m.statusBar.SetState(name, v, mgr.ReconnectAttempts())
		m.debug.Addf(debug.KindSocket, "%s %s", name, v)

		cmds := []tea.Cmd{h.Next()}
		switch v {
		case bridge.Disconnected:
			cmds = append(cmds, m.watchLoop(name))
		case bridge.Connected:
			// events pushed while the socket was down are lost
			if name == nameChat && m.tab == TabChat {
				cmds = append(cmds, m.loadMessages(m.chat.Active))
			}
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

// watchLoop reports when name's run loop exits, once per outage.
func (m Model) watchLoop(name string) tea.Cmd {
	if m.hooks.waiting[name] {
		return nil
	}
	mgr := m.manager(name)
	done := mgr.Done()
	if done == nil {
		return nil
	}
	m.hooks.waiting[name] = true
	return func() tea.Msg {
		<-done
		return loopStoppedMsg{name: name}
	}
}

func (m Model) stateHook(name string) *Hook[bridge.ConnectionState] {
	if name == nameChat {
		return m.hooks.chatState
	}
	return m.hooks.playmateState
}

func (m Model) manager(name string) *bridge.Manager {
	if name == nameChat {
		return m.provider.Chat().Manager()
	}
	return m.provider.Playmate().Manager()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.overlay == OverlayLoggedOut {
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return m, nil
	}

	if m.composing {
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m.quit()
		case key.Matches(msg, m.keys.Escape):
			m.composing = false
			m.input.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			cmd := m.send()
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.overlay == OverlayDebug {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Tab):
		return m.setTab((m.tab + 1) % Tab(len(tabNames)))

	case key.Matches(msg, m.keys.Feed):
		return m.setTab(TabFeed)

	case key.Matches(msg, m.keys.Chat):
		return m.setTab(TabChat)

	case key.Matches(msg, m.keys.Inbox):
		return m.setTab(TabInbox)

	case key.Matches(msg, m.keys.Down):
		switch m.tab {
		case TabFeed:
			m.feed.Next()
		case TabInbox:
			m.inbox.Next()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		switch m.tab {
		case TabFeed:
			m.feed.Prev()
		case TabInbox:
			m.inbox.Prev()
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		switch m.tab {
		case TabInbox:
			return m, m.markRead()
		case TabChat:
			return m.compose()
		}
		return m, nil

	case key.Matches(msg, m.keys.Compose):
		if m.tab == TabChat {
			return m.compose()
		}
		return m, nil

	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		m.reconnect()
		return m, nil

	case key.Matches(msg, m.keys.Sidebar):
		m.collapsed = !m.collapsed
		m.chat.Width = m.width - m.sidebarWidth()
		if m.prefs != nil {
			if err := m.prefs.SetSidebarCollapsed(m.collapsed); err != nil {
				m.debug.Add(debug.KindError, err.Error())
			}
		}
		return m, nil
	}

	return m, nil
}

// setTab switches panes. The chat message hook lives only while the chat
// pane is shown.
func (m Model) setTab(t Tab) (tea.Model, tea.Cmd) {
	if t == m.tab {
		return m, nil
	}
	m.flash = ""
	if m.tab == TabChat {
		m.hooks.messages.Close()
		m.hooks.messages = nil
	}
	m.tab = t
	if t != TabChat {
		return m, nil
	}
	m.hooks.messages = Use(m.provider.Chat().Messages())
	return m, tea.Batch(m.hooks.messages.Next(), m.loadMessages(m.chat.Active))
}

func (m Model) compose() (tea.Model, tea.Cmd) {
	if m.chat.Active == "" {
		m.flash = "No conversation yet."
		return m, nil
	}
	m.composing = true
	return m, m.input.Focus()
}

func (m *Model) send() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	conv := m.chat.Active
	if content == "" || conv == "" {
		return nil
	}
	m.input.Reset()
	chatBridge := m.provider.Chat()
	return func() tea.Msg {
		id, err := chatBridge.Send(conv, content)
		return sentMsg{conversationID: conv, clientID: id, content: content, err: err}
	}
}

// markSeen acknowledges other people's messages in the open conversation.
func (m Model) markSeen(v client.Message) tea.Cmd {
	if v.ID == "" || v.ConversationID != m.chat.Active || (m.userID != "" && v.SenderID == m.userID) {
		return nil
	}
	chatBridge := m.provider.Chat()
	return func() tea.Msg {
		if err := chatBridge.MarkSeen(v.ConversationID, v.ID); err != nil {
			return emitFailedMsg{err: err}
		}
		return nil
	}
}

func (m Model) markRead() tea.Cmd {
	n, ok := m.inbox.Current()
	if !ok || n.IsRead || m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		return markedReadMsg{id: n.ID, err: api.MarkNotificationRead(ctx, n.ID)}
	}
}

// reconnect restarts bridges that gave up.
func (m *Model) reconnect() {
	for _, name := range []string{nameChat, namePlaymate} {
		mgr := m.manager(name)
		if !mgr.Active() {
			m.debug.Addf(debug.KindSocket, "%s reconnect requested", name)
			mgr.Connect()
		}
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.hooks.closeAll()
	m.cancel()
	m.provider.Close()
	return m, tea.Quit
}

// handleErr logs the user out on authorization failures and otherwise
// shows the backend's message.
func (m *Model) handleErr(err error) tea.Cmd {
	// requests started before the logout keep failing; the first one decided
	// where to send the user
	if m.overlay == OverlayLoggedOut {
		m.debug.Add(debug.KindAuth, err.Error())
		return nil
	}
	if m.session != nil {
		if redirect, ok := m.session.Handle(err); ok {
			m.redirect = redirect
			m.overlay = OverlayLoggedOut
			m.composing = false
			m.debug.Addf(debug.KindAuth, "logged out: %v", err)
			m.hooks.closeAll()
			m.cancel()
			p := m.provider
			return func() tea.Msg {
				p.Close()
				return providerClosedMsg{}
			}
		}
	}
	m.logger.Warn().Err(err).Msg("request failed")
	m.flash = client.UserMessage(err)
	m.debug.Add(debug.KindError, err.Error())
	return nil
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	cmd := m.handleErr(err)
	return m, cmd
}

func (m Model) loadPlaymates() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		items, err := api.ListPlaymates(ctx)
		return playmatesLoadedMsg{items: items, err: err}
	}
}

func (m Model) loadNotifications() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		items, err := api.ListNotifications(ctx)
		return notificationsLoadedMsg{items: items, err: err}
	}
}

func (m Model) loadMessages(conversationID string) tea.Cmd {
	if m.api == nil || conversationID == "" {
		return nil
	}
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		items, err := api.ListMessages(ctx, conversationID, historyLimit)
		return messagesLoadedMsg{conversationID: conversationID, items: items, err: err}
	}
}

func (m Model) runPoller() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	p, ctx := m.poller, m.ctx
	return func() tea.Msg {
		return pollStoppedMsg{err: p.Run(ctx)}
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	switch m.overlay {
	case OverlayLoggedOut:
		return m.renderLoggedOut()
	case OverlayDebug:
		return m.debug.View(m.width, m.height)
	}

	sections := []string{m.statusBar.View()}
	if stopped := m.statusBar.Stopped(); len(stopped) > 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.ColorDanger).Bold(true).
			Render("  DISCONNECTED ("+strings.Join(stopped, ", ")+") · press r to reconnect"))
	}

	bodyHeight := max(m.height-8, 3)
	var body string
	switch m.tab {
	case TabFeed:
		body = m.feed.View(bodyHeight)
	case TabChat:
		body = m.chat.View(bodyHeight)
		if m.composing {
			body = lipgloss.JoinVertical(lipgloss.Left, body, m.input.View())
		}
	case TabInbox:
		body = m.inbox.View(bodyHeight)
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body))

	if m.flash != "" {
		sections = append(sections, theme.StyleError.Render("  "+m.flash))
	}
	sections = append(sections, theme.StyleDimmed.Render("  1/2/3:tabs  j/k:move  enter:open  i:write  r:reconnect  s:sidebar  d:log  q:quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) sidebarWidth() int {
	if m.collapsed {
		return 5
	}
	return 18
}

func (m Model) renderSidebar() string {
	var lines []string
	for i, name := range tabNames {
		label := name
		if m.collapsed {
			label = name[:1]
		}
		style := theme.StyleTab
		if Tab(i) == m.tab {
			style = theme.StyleActiveTab
		}
		lines = append(lines, style.Render(label))
	}
	return lipgloss.NewStyle().
		Width(m.sidebarWidth()).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderLoggedOut() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		theme.StyleHeader.Render("SESSION ENDED"),
		"",
		"Your session is no longer valid.",
		"Log in again at "+m.redirect,
		"",
		theme.StyleDimmed.Render("q:quit"),
	)
	panel := theme.StyleBorder.Padding(1, 4).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
