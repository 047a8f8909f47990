// Package client provides the Socket.IO and HTTP clients for the Courtside
// booking backend. Types mirror the backend wire contract; the backend owns
// their meaning and this package never validates them beyond decoding.
package client

import (
	"encoding/json"
	"time"
)

// Envelope is one server-pushed event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Server event names.
const (
	EventNewPlaymate     = "new-playmate"
	EventUpdatePlaymate  = "update-playmate"
	EventNewMessage      = "new-message"
	EventSeenMessage     = "seen-message"
	EventNewNotification = "new-notification"
	EventException       = "exception"
)

// Client event names.
const (
	EventSendMessage = "send-message"
)

// Namespaces served by the backend.
const (
	NamespaceChat     = "/ws/chat"
	NamespacePlaymate = "/ws/playmate"
)

// Role is the account role carried in access tokens.
type Role string

const (
	RolePlayer Role = "player"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// --- Realtime payloads ---

// Message is a chat message.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	SenderName     string     `json:"senderName,omitempty"`
	Content        string     `json:"content"`
	ClientID       string     `json:"clientId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	SeenAt         *time.Time `json:"seenAt,omitempty"`
}

// OutgoingMessage is what the client emits on send-message.
type OutgoingMessage struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	ClientID       string `json:"clientId"`
}

// SeenReceipt marks messages of a conversation as read up to MessageID.
type SeenReceipt struct {
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	UserID         string    `json:"userId,omitempty"`
	SeenAt         time.Time `json:"seenAt"`
}

// Notification is an in-app notification.
type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	IsRead    bool            `json:"isRead"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PlaymateStatus is the lifecycle of a playmate posting.
type PlaymateStatus string

const (
	PlaymateOpen      PlaymateStatus = "open"
	PlaymateFull      PlaymateStatus = "full"
	PlaymateCancelled PlaymateStatus = "cancelled"
	PlaymateFinished  PlaymateStatus = "finished"
)

// Playmate is a posting looking for co-players on a booked slot.
type Playmate struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	SportName       string         `json:"sportName"`
	FacilityName    string         `json:"facilityName,omitempty"`
	BookingID       string         `json:"bookingId,omitempty"`
	Status          PlaymateStatus `json:"status"`
	MinParticipants int            `json:"minParticipant"`
	MaxParticipants int            `json:"maxParticipant"`
	Participants    int            `json:"numberOfParticipants"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	Creator         UserSummary    `json:"creator"`
}

// Exception is the payload of the server's exception event.
type Exception struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// --- HTTP response types ---

// UserSummary identifies a user inside other resources.
type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatarUrl,omitempty"`
}

// User is an account as listed by the admin endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phoneNumber,omitempty"`
	Role      Role      `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Field is a bookable pitch/court of a facility.
type Field struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// FieldGroup groups fields of the same sport and price.
type FieldGroup struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Dimension     string   `json:"dimension,omitempty"`
	Surface       string   `json:"surface,omitempty"`
	BasePrice     int64    `json:"basePrice"`
	PeakStartTime string   `json:"peakStartTime,omitempty"`
	PeakEndTime   string   `json:"peakEndTime,omitempty"`
	PriceIncrease int64    `json:"priceIncrease,omitempty"`
	Sports        []string `json:"sports,omitempty"`
	Fields        []Field  `json:"fields,omitempty"`
}

// Facility is a sports venue.
type Facility struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Location    string       `json:"location"`
	OpenTime    string       `json:"openTime1"`
	CloseTime   string       `json:"closeTime1"`
	Status      string       `json:"status"`
	AvgRating   float64      `json:"avgRating"`
	NumReviews  int          `json:"numberOfRatings"`
	MinPrice    int64        `json:"minPrice"`
	MaxPrice    int64        `json:"maxPrice"`
	Owner       UserSummary  `json:"owner"`
	FieldGroups []FieldGroup `json:"fieldGroups,omitempty"`
}

// BookingSlot is one reserved field on one date.
type BookingSlot struct {
	FieldID string `json:"fieldId"`
	Date    string `json:"date"`
}

// Booking is a field reservation.
type Booking struct {
	ID         string        `json:"id"`
	StartTime  string        `json:"startTime"`
	EndTime    string        `json:"endTime"`
	Status     string        `json:"status"`
	SportID    int           `json:"sportId"`
	FieldGroup string        `json:"fieldGroupId,omitempty"`
	Slots      []BookingSlot `json:"bookingSlots"`
	TotalPrice int64         `json:"totalPrice,omitempty"`
	VoucherID  string        `json:"voucherId,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// BookingDraft is the body of POST /bookings.
type BookingDraft struct {
	StartTime string        `json:"startTime"`
	EndTime   string        `json:"endTime"`
	SportID   int           `json:"sportId"`
	Slots     []BookingSlot `json:"bookingSlots"`
}

// Voucher is a facility discount.
type Voucher struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	VoucherType string `json:"voucherType"`
	Discount    int64  `json:"discount"`
	MinPrice    int64  `json:"minPrice"`
	MaxDiscount int64  `json:"maxDiscount"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Amount      int    `json:"amount"`
	Remain      int    `json:"remain"`
}

// PaymentURL is returned by the VNPay checkout endpoint.
type PaymentURL struct {
	URL string `json:"paymentUrl"`
}

// Page wraps the paginated list responses.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
