package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rsehgal/wayfarer/internal/adapters/llm"
	"github.com/rsehgal/wayfarer/internal/app/agentflow"
	"github.com/rsehgal/wayfarer/internal/app/tools"
	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

// ErrNoItinerary is returned by Checkout when nothing has been generated
// for the session yet.
var ErrNoItinerary = errors.New("no itinerary found for booking")

// Service owns the server-side lifecycle of planning sessions: chat,
// itinerary generation, booking, and live status.
type Service struct {
	llm          domain.LLMClient
	sessionStore domain.SessionStore
	messageStore domain.MessageStore
	tripStore    domain.TripStore

	// profiles is optional; stat updates are skipped when nil.
	profiles domain.ProfileStore

	now func() time.Time

	itineraryTool *tools.ItineraryTool
	orchestrator  *agentflow.Orchestrator
}

func NewService(
	llmClient domain.LLMClient,
	sessionStore domain.SessionStore,
	messageStore domain.MessageStore,
	tripStore domain.TripStore,
	profiles domain.ProfileStore,
) *Service {
	var itineraryTool *tools.ItineraryTool
	if tripStore != nil {
		itineraryTool = tools.NewItineraryTool(tripStore)
	}

	return &Service{
		llm:           llmClient,
		sessionStore:  sessionStore,
		messageStore:  messageStore,
		tripStore:     tripStore,
		profiles:      profiles,
		now:           time.Now,
		itineraryTool: itineraryTool,
		// The chat flow never persists drafts; only the explicit
		// itinerary endpoint does.
		orchestrator: agentflow.NewDefaultOrchestrator(llmClient, nil),
	}
}

type StartSessionInput struct {
	UserID domain.UserID
	Title  string
}

type StartSessionOutput struct {
	Session *domain.Session
}

func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	now := s.now()

	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)
	log.Info("starting new session")

	session := &domain.Session{
		ID:             domain.SessionID(uuid.NewString()),
		UserID:         in.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
		AgentSessionID: uuid.NewString(),
		Title:          in.Title,
	}

	if err := s.sessionStore.CreateSession(session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}

	log.Info("session started", "session_id", session.ID, "agent_session_id", session.AgentSessionID)

	return &StartSessionOutput{
		Session: session,
	}, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Text      string
}

type SendMessageOutput struct {
	SessionID    domain.SessionID
	UserMessage  *domain.Message
	AgentMessage *domain.Message
	Suggestions  []string
}

func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	session, err := s.getOrCreateSession(ctx, in.SessionID, in.UserID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", session.UserID,
	)
	log.Info("sending message", "text", in.Text)

	now := s.now()

	userMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: session.ID,
		Author:    domain.RoleUser,
		Text:      in.Text,
		CreatedAt: now,
	}

	if err := s.messageStore.AppendMessage(userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	history, err := s.messageStore.GetMessagesBySession(session.ID, 20)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	convCtx := domain.ConversationContext{
		SessionID:   session.ID,
		UserID:      session.UserID,
		Preferences: s.travelerPreferences(ctx, session.UserID),
		History:     history,
	}

	replyText, err := s.orchestrator.Run(ctx, in.Text, convCtx)
	if err != nil {
		log.Error("orchestrator failed", "error", err)
		return nil, err
	}

	agentMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: session.ID,
		Author:    domain.RoleAgent,
		Text:      replyText,
		CreatedAt: s.now(),
	}

	if err := s.messageStore.AppendMessage(agentMsg); err != nil {
		log.Error("failed to append agent message", "error", err)
		return nil, err
	}

	session.UpdatedAt = s.now()
	if err := s.sessionStore.UpdateSession(session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, err
	}

	// One user message plus one agent reply.
	s.bumpStat(ctx, session.UserID, "messagesExchanged", 2)

	log.Info("send message completed")

	return &SendMessageOutput{
		SessionID:    session.ID,
		UserMessage:  userMsg,
		AgentMessage: agentMsg,
		Suggestions:  SuggestionsFor(replyText),
	}, nil
}

// getOrCreateSession returns the referenced session, creating a fresh
// one when the id is empty or unknown (the planner accepts messages
// without an explicit session start).
func (s *Service) getOrCreateSession(ctx context.Context, id domain.SessionID, userID domain.UserID) (*domain.Session, error) {
	if id != "" {
		session, err := s.sessionStore.GetSession(id)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}

	out, err := s.StartSession(ctx, StartSessionInput{UserID: userID})
	if err != nil {
		return nil, err
	}
	return out.Session, nil
}

func (s *Service) GetSessionTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) (*domain.Session, []*domain.Message, error) {

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"limit", limit,
	)

	session, err := s.sessionStore.GetSession(sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return nil, nil, err
	}

	msgs, err := s.messageStore.GetMessagesBySession(sessionID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	log.Info("fetched session timeline", "message_count", len(msgs))

	return session, msgs, nil
}

type GenerateItineraryInput struct {
	SessionID   domain.SessionID
	UserID      domain.UserID
	Preferences map[string]any
}

type GenerateItineraryOutput struct {
	Itinerary *domain.Itinerary
}

func (s *Service) GenerateItinerary(ctx context.Context, in GenerateItineraryInput) (*GenerateItineraryOutput, error) {
	session, err := s.sessionStore.GetSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", session.UserID,
	)
	log.Info("generating itinerary")

	prefsJSON, err := json.MarshalIndent(in.Preferences, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding preferences: %w", err)
	}

	history, err := s.messageStore.GetMessagesBySession(session.ID, 20)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	convCtx := domain.ConversationContext{
		SessionID:   session.ID,
		UserID:      session.UserID,
		Preferences: s.travelerPreferences(ctx, session.UserID),
		History:     history,
	}

	content, err := s.llm.GenerateReply(ctx, llm.BuildItineraryPrompt(string(prefsJSON)), convCtx)
	if err != nil {
		log.Error("itinerary generation failed", "error", err)
		return nil, err
	}

	if s.itineraryTool == nil {
		return nil, fmt.Errorf("no trip store configured")
	}

	tctx := tools.ToolContext{
		UserID:    string(session.UserID),
		SessionID: string(session.ID),
		RequestID: observability.RequestIDFromContext(ctx),
	}
	result, err := s.itineraryTool.Call(ctx, tctx, map[string]any{
		"content":     content,
		"preferences": in.Preferences,
	})
	if err != nil {
		log.Error("failed to persist itinerary", "error", err)
		return nil, err
	}

	s.bumpStat(ctx, session.UserID, "itinerariesGenerated", 1)

	itineraryID, _ := result["itinerary_id"].(string)
	log.Info("itinerary generated", "itinerary_id", itineraryID)

	return &GenerateItineraryOutput{
		Itinerary: &domain.Itinerary{
			ID:          domain.ItineraryID(itineraryID),
			SessionID:   session.ID,
			UserID:      session.UserID,
			CreatedAt:   s.now(),
			Content:     content,
			Preferences: in.Preferences,
		},
	}, nil
}

type CheckoutInput struct {
	SessionID   domain.SessionID
	UserID      domain.UserID
	ItineraryID domain.ItineraryID
	PaymentInfo map[string]any
}

type CheckoutOutput struct {
	Booking *domain.Booking
}

func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutOutput, error) {
	session, err := s.sessionStore.GetSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", session.UserID,
	)

	if s.tripStore == nil {
		return nil, fmt.Errorf("no trip store configured")
	}

	if _, err := s.tripStore.GetItineraryBySession(session.ID); err != nil {
		if errors.Is(err, domain.ErrItineraryNotFound) {
			return nil, ErrNoItinerary
		}
		return nil, err
	}

	booking := &domain.Booking{
		ID:          domain.BookingID(uuid.NewString()),
		ItineraryID: in.ItineraryID,
		SessionID:   session.ID,
		UserID:      session.UserID,
		Status:      domain.BookingConfirmed,
		CreatedAt:   s.now(),
	}

	if err := s.tripStore.SaveBooking(booking); err != nil {
		log.Error("failed to save booking", "error", err)
		return nil, err
	}

	s.bumpStat(ctx, session.UserID, "bookingsCompleted", 1)

	log.Info("booking confirmed", "booking_id", booking.ID)

	return &CheckoutOutput{Booking: booking}, nil
}

type LiveStatus struct {
	Session   *domain.Session
	Itinerary *domain.Itinerary
	Booking   *domain.Booking
}

// LiveTripStatus returns the current trip snapshot for a session.
// Missing itinerary or booking is a normal state, not an error.
func (s *Service) LiveTripStatus(ctx context.Context, sessionID domain.SessionID) (*LiveStatus, error) {
	session, err := s.sessionStore.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	status := &LiveStatus{Session: session}

	if s.tripStore != nil {
		if it, err := s.tripStore.GetItineraryBySession(sessionID); err == nil {
			status.Itinerary = it
		} else if !errors.Is(err, domain.ErrItineraryNotFound) {
			return nil, err
		}

		if b, err := s.tripStore.GetBookingBySession(sessionID); err == nil {
			status.Booking = b
		} else if !errors.Is(err, domain.ErrBookingNotFound) {
			return nil, err
		}
	}

	return status, nil
}

// AgentAvailable reports whether an LLM backend is wired in.
func (s *Service) AgentAvailable() bool {
	return s.llm != nil
}

// ActiveSessions reports the session count for the health endpoint.
func (s *Service) ActiveSessions() int {
	n, err := s.sessionStore.CountSessions()
	if err != nil {
		return 0
	}
	return n
}

// travelerPreferences loads the stored preference record so the agent
// flow can personalize. Absence is fine; the agent just works without it.
func (s *Service) travelerPreferences(ctx context.Context, userID domain.UserID) *domain.Preferences {
	if s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil
	}
	prefs := profile.Preferences
	return &prefs
}

// bumpStat updates a lifetime counter. Stats are not critical, so
// failures are logged and swallowed.
func (s *Service) bumpStat(ctx context.Context, userID domain.UserID, stat string, delta int64) {
	if s.profiles == nil {
		return
	}
	if err := s.profiles.IncrementStat(ctx, userID, stat, delta); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to update stat",
			"stat", stat, "user_id", userID, "error", err)
	}
}
