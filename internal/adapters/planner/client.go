// Package planner is the HTTP client for the remote planning service.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

// TokenSource supplies the bearer token attached to requests. A nil
// source sends unauthenticated requests.
type TokenSource func(ctx context.Context) (string, error)

// APIError is a non-2xx response from the planning service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("planner api: %d %s", e.Status, e.Message)
}

// ProtocolError means the service answered 2xx but the body did not
// match the expected shape.
type ProtocolError struct {
	Endpoint string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("planner protocol: %s: %s", e.Endpoint, e.Reason)
}

type Client struct {
	baseURL string
	http    *http.Client

	tokens TokenSource

	// onUnauthorized is invoked once per 401 so the host application
	// can clear credentials and route back to the entry screen.
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ─────────────────────────────────────────────
// Wire types
// ─────────────────────────────────────────────

type startSessionResponse struct {
	SessionID      string `json:"session_id"`
	AgentSessionID string `json:"agent_session_id"`
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
}

type sendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type sendMessageResponse struct {
	Response    string    `json:"response"`
	SessionID   string    `json:"session_id"`
	MessageID   string    `json:"message_id"`
	Timestamp   time.Time `json:"timestamp"`
	Suggestions []string  `json:"suggestions"`
}

type historyMessage struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsError   bool      `json:"is_error"`
}

type historyResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []historyMessage `json:"messages"`
}

// ItineraryRequest asks the service for a full day-by-day plan.
type ItineraryRequest struct {
	SessionID   string         `json:"session_id"`
	UserID      string         `json:"user_id"`
	Preferences map[string]any `json:"preferences"`
}

// ItineraryResponse is the generated plan.
type ItineraryResponse struct {
	ItineraryID string `json:"itinerary_id"`
	Content     string `json:"content"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

// BookingRequest finalizes a one-click checkout.
type BookingRequest struct {
	SessionID   string         `json:"session_id"`
	UserID      string         `json:"user_id"`
	ItineraryID string         `json:"itinerary_id"`
	PaymentInfo map[string]any `json:"payment_info"`
}

// BookingResponse confirms the checkout.
type BookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// LiveTripResponse is the current trip snapshot.
type LiveTripResponse struct {
	SessionID  string          `json:"session_id"`
	Status     string          `json:"status"`
	LastUpdate string          `json:"last_update"`
	Itinerary  json.RawMessage `json:"itinerary"`
	Booking    json.RawMessage `json:"booking"`
}

// ─────────────────────────────────────────────
// PlannerClient implementation
// ─────────────────────────────────────────────

func (c *Client) StartSession(ctx context.Context, userID domain.UserID) (domain.SessionID, error) {
	endpoint := "/api/v1/chat/session"
	q := url.Values{"user_id": {string(userID)}}

	var resp startSessionResponse
	if err := c.do(ctx, http.MethodPost, endpoint, q, nil, &resp); err != nil {
		return "", err
	}

	if resp.SessionID == "" {
		return "", &ProtocolError{Endpoint: endpoint, Reason: "missing session_id"}
	}

	return domain.SessionID(resp.SessionID), nil
}

func (c *Client) SendMessage(ctx context.Context, sessionID domain.SessionID, userID domain.UserID, text string) (*domain.AgentReply, error) {
	endpoint := "/api/v1/chat/message"

	req := sendMessageRequest{
		Message:   text,
		SessionID: string(sessionID),
		UserID:    string(userID),
	}

	var resp sendMessageResponse
	if err := c.do(ctx, http.MethodPost, endpoint, nil, req, &resp); err != nil {
		return nil, err
	}

	if resp.MessageID == "" {
		return nil, &ProtocolError{Endpoint: endpoint, Reason: "missing message_id"}
	}
	if resp.Response == "" {
		return nil, &ProtocolError{Endpoint: endpoint, Reason: "missing response"}
	}

	return &domain.AgentReply{
		MessageID:   domain.MessageID(resp.MessageID),
		Text:        resp.Response,
		Timestamp:   resp.Timestamp,
		Suggestions: resp.Suggestions,
	}, nil
}

func (c *Client) History(ctx context.Context, sessionID domain.SessionID) ([]*domain.Message, error) {
	endpoint := "/api/v1/chat/history/" + url.PathEscape(string(sessionID))

	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]*domain.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, &domain.Message{
			ID:        domain.MessageID(m.ID),
			SessionID: sessionID,
			Author:    domain.Role(m.Author),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			IsError:   m.IsError,
		})
	}
	return out, nil
}

// GenerateItinerary produces an itinerary document for the session.
func (c *Client) GenerateItinerary(ctx context.Context, req ItineraryRequest) (*ItineraryResponse, error) {
	endpoint := "/api/v1/itinerary/generate"

	var resp ItineraryResponse
	if err := c.do(ctx, http.MethodPost, endpoint, nil, req, &resp); err != nil {
		return nil, err
	}

	if resp.ItineraryID == "" {
		return nil, &ProtocolError{Endpoint: endpoint, Reason: "missing itinerary_id"}
	}
	return &resp, nil
}

// Checkout finalizes a booking for the session's itinerary.
func (c *Client) Checkout(ctx context.Context, req BookingRequest) (*BookingResponse, error) {
	endpoint := "/api/v1/booking/checkout"

	var resp BookingResponse
	if err := c.do(ctx, http.MethodPost, endpoint, nil, req, &resp); err != nil {
		return nil, err
	}

	if resp.BookingID == "" {
		return nil, &ProtocolError{Endpoint: endpoint, Reason: "missing booking_id"}
	}
	return &resp, nil
}

// LiveTrip retrieves live updates for an active trip.
func (c *Client) LiveTrip(ctx context.Context, sessionID domain.SessionID) (*LiveTripResponse, error) {
	endpoint := "/api/v1/trip/live/" + url.PathEscape(string(sessionID))

	var resp LiveTripResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ─────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("planner request %s: %w", endpoint, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		observability.LoggerFromContext(ctx).Warn("planner rejected credentials", "endpoint", endpoint)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{
			Status:  res.StatusCode,
			Message: readErrorMessage(res.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &ProtocolError{Endpoint: endpoint, Reason: "invalid JSON body: " + err.Error()}
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}
