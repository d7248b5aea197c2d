package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rsehgal/wayfarer/internal/app/trip"
	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

type Server struct {
	svc      *trip.Service
	verifier TokenVerifier
}

// NewServer builds the API router. verifier may be nil, in which case
// bearer tokens are not checked.
func NewServer(svc *trip.Service, verifier TokenVerifier) http.Handler {
	s := &Server{svc: svc, verifier: verifier}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(withCORS)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		if verifier != nil {
			r.Use(withBearerToken(verifier))
		}

		r.Post("/chat/session", s.handleStartSession)
		r.Post("/chat/message", s.handleSendMessage)
		r.Get("/chat/history/{sessionID}", s.handleHistory)
		r.Post("/itinerary/generate", s.handleGenerateItinerary)
		r.Post("/booking/checkout", s.handleCheckout)
		r.Get("/trip/live/{sessionID}", s.handleLiveTrip)
	})

	r.Get("/ws/{sessionID}", s.handleWebSocket)

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
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

type messageResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsError   bool      `json:"is_error"`
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []messageResponse `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
}

type itineraryRequest struct {
	SessionID   string         `json:"session_id"`
	UserID      string         `json:"user_id"`
	Preferences map[string]any `json:"preferences"`
}

type itineraryResponse struct {
	ItineraryID string `json:"itinerary_id"`
	Content     string `json:"content"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

type bookingRequest struct {
	SessionID   string         `json:"session_id"`
	UserID      string         `json:"user_id"`
	ItineraryID string         `json:"itinerary_id"`
	PaymentInfo map[string]any `json:"payment_info"`
}

type bookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type liveTripResponse struct {
	SessionID  string            `json:"session_id"`
	Status     string            `json:"status"`
	LastUpdate string            `json:"last_update"`
	Itinerary  *domain.Itinerary `json:"itinerary"`
	Booking    *domain.Booking   `json:"booking"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "healthy",
		"timestamp":       time.Now().Format(time.RFC3339),
		"agent_available": s.svc.AgentAvailable(),
		"active_sessions": s.svc.ActiveSessions(),
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	out, err := s.svc.StartSession(r.Context(), trip.StartSessionInput{
		UserID: domain.UserID(userID),
	})
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startSessionResponse{
		SessionID:      string(out.Session.ID),
		AgentSessionID: out.Session.AgentSessionID,
		UserID:         string(out.Session.UserID),
		Status:         "created",
		Timestamp:      out.Session.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}

	out, err := s.svc.SendMessage(r.Context(), trip.SendMessageInput{
		SessionID: domain.SessionID(req.SessionID),
		UserID:    domain.UserID(req.UserID),
		Text:      req.Message,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	suggestions := out.Suggestions
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Response:    out.AgentMessage.Text,
		SessionID:   string(out.SessionID),
		MessageID:   string(out.AgentMessage.ID),
		Timestamp:   out.AgentMessage.CreatedAt,
		Suggestions: suggestions,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := domain.SessionID(chi.URLParam(r, "sessionID"))

	session, msgs, err := s.svc.GetSessionTimeline(r.Context(), sessionID, 0)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Session not found")
			return
		}
		internalError(w, err)
		return
	}

	out := historyResponse{
		SessionID: string(session.ID),
		Messages:  make([]messageResponse, 0, len(msgs)),
		CreatedAt: session.CreatedAt,
	}
	for _, m := range msgs {
		out.Messages = append(out.Messages, messageResponse{
			ID:        string(m.ID),
			Author:    string(m.Author),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
			IsError:   m.IsError,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerateItinerary(w http.ResponseWriter, r *http.Request) {
	var req itineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.UserID == "" {
		badRequest(w, "session_id and user_id are required")
		return
	}

	out, err := s.svc.GenerateItinerary(r.Context(), trip.GenerateItineraryInput{
		SessionID:   domain.SessionID(req.SessionID),
		UserID:      domain.UserID(req.UserID),
		Preferences: req.Preferences,
	})
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Session not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itineraryResponse{
		ItineraryID: string(out.Itinerary.ID),
		Content:     out.Itinerary.Content,
		Status:      "generated",
		Timestamp:   out.Itinerary.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.SessionID == "" || req.UserID == "" {
		badRequest(w, "session_id and user_id are required")
		return
	}

	out, err := s.svc.Checkout(r.Context(), trip.CheckoutInput{
		SessionID:   domain.SessionID(req.SessionID),
		UserID:      domain.UserID(req.UserID),
		ItineraryID: domain.ItineraryID(req.ItineraryID),
		PaymentInfo: req.PaymentInfo,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			notFound(w, "Session not found")
		case errors.Is(err, trip.ErrNoItinerary):
			badRequest(w, "No itinerary found for booking")
		default:
			internalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, bookingResponse{
		BookingID: string(out.Booking.ID),
		Status:    string(out.Booking.Status),
		Message:   "Your trip has been successfully booked!",
		Timestamp: out.Booking.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleLiveTrip(w http.ResponseWriter, r *http.Request) {
	sessionID := domain.SessionID(chi.URLParam(r, "sessionID"))

	status, err := s.svc.LiveTripStatus(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			notFound(w, "Session not found")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, liveTripResponse{
		SessionID:  string(sessionID),
		Status:     "active",
		LastUpdate: time.Now().Format(time.RFC3339),
		Itinerary:  status.Itinerary,
		Booking:    status.Booking,
	})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	observability.Component("http").Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
