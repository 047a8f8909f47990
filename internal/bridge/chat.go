package bridge

import (
	"fmt"
	"time"

	"github.com/courtside/client/internal/client"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Chat follows the chat namespace, which also carries notifications.
type Chat struct {
	*Bridge
	messages      *Stream[client.Message]
	seen          *Stream[client.SeenReceipt]
	notifications *Stream[client.Notification]
}

// NewChat creates a disconnected chat bridge.
func NewChat(dialer client.Dialer, policy ReconnectPolicy, logger zerolog.Logger) *Chat {
	c := &Chat{
		Bridge:        newBridge("chat", dialer, policy, logger),
		messages:      NewStream[client.Message](),
		seen:          NewStream[client.SeenReceipt](),
		notifications: NewStream[client.Notification](),
	}
	Route(c.demux, client.EventNewMessage, c.messages)
	Route(c.demux, client.EventSeenMessage, c.seen)
	Route(c.demux, client.EventNewNotification, c.notifications)
	return c
}

// Messages carries new-message events.
func (c *Chat) Messages() *Stream[client.Message] { return c.messages }

// Seen carries seen-message receipts.
func (c *Chat) Seen() *Stream[client.SeenReceipt] { return c.seen }

// Notifications carries new-notification events.
func (c *Chat) Notifications() *Stream[client.Notification] { return c.notifications }

// Send emits a chat message and returns the client id attached to it, which
// the server echoes back on the matching new-message event.
func (c *Chat) Send(conversationID, content string) (string, error) {
	msg := client.OutgoingMessage{
		ConversationID: conversationID,
		Content:        content,
		ClientID:       uuid.NewString(),
	}
	if err := c.Emit(client.EventSendMessage, msg); err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}
	return msg.ClientID, nil
}

// MarkSeen tells the server the conversation was read up to messageID.
func (c *Chat) MarkSeen(conversationID, messageID string) error {
	receipt := client.SeenReceipt{
		ConversationID: conversationID,
		MessageID:      messageID,
		SeenAt:         time.Now().UTC(),
	}
	if err := c.Emit(client.EventSeenMessage, receipt); err != nil {
		return fmt.Errorf("marking seen: %w", err)
	}
	return nil
}
