package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TokenSource returns the bearer token to send, or "" for anonymous calls.
// It is consulted per request so a logout takes effect immediately.
type TokenSource func() string

// HTTPClient makes REST calls to the booking backend.
type HTTPClient struct {
	baseURL string
	token   TokenSource
	client  *http.Client
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "https://api.courtside.vn").
func NewHTTPClient(baseURL string, token TokenSource) *HTTPClient {
	if token == nil {
		token = func() string { return "" }
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// ListFacilities fetches GET /facilities.
func (c *HTTPClient) ListFacilities(ctx context.Context, query url.Values) (*Page[Facility], error) {
	var out Page[Facility]
	if err := c.do(ctx, http.MethodGet, withQuery("/facilities", query), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFacility fetches GET /facilities/{id}.
func (c *HTTPClient) GetFacility(ctx context.Context, id string) (*Facility, error) {
	var out Facility
	if err := c.do(ctx, http.MethodGet, "/facilities/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBookings fetches GET /bookings for the signed-in player.
func (c *HTTPClient) ListBookings(ctx context.Context) ([]Booking, error) {
	var out []Booking
	if err := c.do(ctx, http.MethodGet, "/bookings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBooking sends POST /bookings. Slot conflicts and pricing are decided
// by the backend and surface as an APIError.
func (c *HTTPClient) CreateBooking(ctx context.Context, draft BookingDraft) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVouchers fetches GET /vouchers for a facility.
func (c *HTTPClient) ListVouchers(ctx context.Context, facilityID string) ([]Voucher, error) {
	var out []Voucher
	q := url.Values{}
	if facilityID != "" {
		q.Set("facilityId", facilityID)
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/vouchers", q), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPlaymates fetches GET /playmates, the initial state the playmate
// socket keeps up to date.
func (c *HTTPClient) ListPlaymates(ctx context.Context) ([]Playmate, error) {
	var out []Playmate
	if err := c.do(ctx, http.MethodGet, "/playmates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListNotifications fetches GET /notifications.
func (c *HTTPClient) ListNotifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadNotifications fetches GET /notifications/unread-count.
func (c *HTTPClient) UnreadNotifications(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkNotificationRead sends PATCH /notifications/{id}/read.
func (c *HTTPClient) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// ListMessages fetches GET /chat/conversations/{id}/messages.
func (c *HTTPClient) ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	var out []Message
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := withQuery("/chat/conversations/"+url.PathEscape(conversationID)+"/messages", q)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsers fetches GET /admin/users. Requires an admin token.
func (c *HTTPClient) ListUsers(ctx context.Context, query url.Values) (*Page[User], error) {
	var out Page[User]
	if err := c.do(ctx, http.MethodGet, withQuery("/admin/users", query), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentURL asks the backend for a VNPay checkout URL for a booking.
// Reconciliation happens server-side on the VNPay callback.
func (c *HTTPClient) PaymentURL(ctx context.Context, bookingID string) (string, error) {
	body := map[string]string{"bookingId": bookingID}
	var out PaymentURL
	if err := c.do(ctx, http.MethodPost, "/payments/vnpay/url", body, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encoding body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: parseErrorBody(respBody),
		}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
