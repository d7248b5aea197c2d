package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rsehgal/wayfarer/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (WAYFARER_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) usersCol() *firestore.CollectionRef {
	return s.client.Collection("users")
}

func (s *Store) userDoc(id domain.UserID) *firestore.DocumentRef {
	return s.usersCol().Doc(string(id))
}

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDoc(sessionID).Collection("messages")
}

func (s *Store) messageDoc(sessionID domain.SessionID, msgID domain.MessageID) *firestore.DocumentRef {
	return s.messagesCol(sessionID).Doc(string(msgID))
}

func (s *Store) itineraryDoc(sessionID domain.SessionID) *firestore.DocumentRef {
	return s.sessionDoc(sessionID).Collection("trip").Doc("itinerary")
}

func (s *Store) bookingDoc(sessionID domain.SessionID) *firestore.DocumentRef {
	return s.sessionDoc(sessionID).Collection("trip").Doc("booking")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type notificationPrefsDoc struct {
	Email bool `firestore:"email"`
	Push  bool `firestore:"push"`
	SMS   bool `firestore:"sms"`
}

type preferencesDoc struct {
	Budget              string               `firestore:"budget"`
	TravelStyle         string               `firestore:"travelStyle"`
	Interests           []string             `firestore:"interests"`
	DietaryRestrictions []string             `firestore:"dietaryRestrictions"`
	AccessibilityNeeds  []string             `firestore:"accessibilityNeeds"`
	DefaultGroupSize    int                  `firestore:"defaultGroupSize"`
	TravelingWith       string               `firestore:"travelingWith"`
	PreferredTransport  []string             `firestore:"preferredTransport"`
	AccommodationType   []string             `firestore:"accommodationType"`
	ActivityPace        string               `firestore:"activityPace"`
	Language            string               `firestore:"language"`
	Notifications       notificationPrefsDoc `firestore:"notificationPreferences"`
}

type statsDoc struct {
	TripsPlanned         int64   `firestore:"tripsPlanned"`
	TripsCompleted       int64   `firestore:"tripsCompleted"`
	DestinationsVisited  int64   `firestore:"destinationsVisited"`
	TotalSpent           float64 `firestore:"totalSpent"`
	MessagesExchanged    int64   `firestore:"messagesExchanged"`
	ItinerariesGenerated int64   `firestore:"itinerariesGenerated"`
	BookingsCompleted    int64   `firestore:"bookingsCompleted"`
}

type travelHistoryDoc struct {
	Destination string    `firestore:"destination"`
	StartDate   string    `firestore:"startDate"`
	EndDate     string    `firestore:"endDate"`
	AddedAt     time.Time `firestore:"addedAt"`
}

type userDoc struct {
	Email         string `firestore:"email"`
	DisplayName   string `firestore:"displayName"`
	PhotoURL      string `firestore:"photoURL"`
	AuthProvider  string `firestore:"authProvider"`
	EmailVerified bool   `firestore:"emailVerified"`

	CreatedAt   time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt   time.Time `firestore:"updatedAt,serverTimestamp"`
	LastLoginAt time.Time `firestore:"lastLoginAt,serverTimestamp"`

	Status string `firestore:"status"`

	Preferences   preferencesDoc     `firestore:"preferences"`
	Stats         statsDoc           `firestore:"stats"`
	TravelHistory []travelHistoryDoc `firestore:"travelHistory"`
}

type sessionDoc struct {
	UserID         string    `firestore:"user_id"`
	Title          string    `firestore:"title"`
	AgentSessionID string    `firestore:"agent_session_id"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	SessionID string    `firestore:"session_id"`
	Author    string    `firestore:"author"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"created_at"`
	IsError   bool      `firestore:"is_error"`
}

type itineraryDoc struct {
	UserID      string         `firestore:"user_id"`
	Content     string         `firestore:"content"`
	Preferences map[string]any `firestore:"preferences"`
	CreatedAt   time.Time      `firestore:"created_at"`
}

type bookingDoc struct {
	UserID      string    `firestore:"user_id"`
	ItineraryID string    `firestore:"itinerary_id"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"created_at"`
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) GetProfile(ctx context.Context, id domain.UserID) (*domain.UserProfile, error) {
	snap, err := s.userDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc userDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	return profileFromDoc(id, &doc), nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *domain.UserProfile) error {
	doc := userDoc{
		Email:         profile.Email,
		DisplayName:   profile.DisplayName,
		PhotoURL:      profile.PhotoURL,
		AuthProvider:  string(profile.AuthProvider),
		EmailVerified: profile.EmailVerified,
		Status:        string(profile.Status),
		Preferences:   preferencesToDoc(profile.Preferences),
		Stats:         statsDoc(profile.Stats),
		TravelHistory: []travelHistoryDoc{},
	}

	// Create, not Set: exactly one profile per identity id.
	if _, err := s.userDoc(profile.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateProfile: %w", err)
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id domain.UserID) error {
	_, err := s.userDoc(id).Update(ctx, []firestore.Update{
		{Path: "lastLoginAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("firestore UpdateLastLogin: %w", err)
	}
	return nil
}

func (s *Store) UpdatePreferences(ctx context.Context, id domain.UserID, prefs domain.Preferences) error {
	_, err := s.userDoc(id).Update(ctx, []firestore.Update{
		{Path: "preferences", Value: preferencesToDoc(prefs)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("firestore UpdatePreferences: %w", err)
	}
	return nil
}

func (s *Store) IncrementStat(ctx context.Context, id domain.UserID, stat string, delta int64) error {
	_, err := s.userDoc(id).Update(ctx, []firestore.Update{
		{Path: "stats." + stat, Value: firestore.Increment(delta)},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("firestore IncrementStat(%s): %w", stat, err)
	}
	return nil
}

func preferencesToDoc(p domain.Preferences) preferencesDoc {
	return preferencesDoc{
		Budget:              p.Budget,
		TravelStyle:         p.TravelStyle,
		Interests:           p.Interests,
		DietaryRestrictions: p.DietaryRestrictions,
		AccessibilityNeeds:  p.AccessibilityNeeds,
		DefaultGroupSize:    p.DefaultGroupSize,
		TravelingWith:       p.TravelingWith,
		PreferredTransport:  p.PreferredTransport,
		AccommodationType:   p.AccommodationType,
		ActivityPace:        p.ActivityPace,
		Language:            p.Language,
		Notifications:       notificationPrefsDoc(p.Notifications),
	}
}

func profileFromDoc(id domain.UserID, doc *userDoc) *domain.UserProfile {
	history := make([]domain.TravelHistoryEntry, 0, len(doc.TravelHistory))
	for _, h := range doc.TravelHistory {
		history = append(history, domain.TravelHistoryEntry(h))
	}

	return &domain.UserProfile{
		ID:            id,
		Email:         doc.Email,
		DisplayName:   doc.DisplayName,
		PhotoURL:      doc.PhotoURL,
		AuthProvider:  domain.AuthProviderKind(doc.AuthProvider),
		EmailVerified: doc.EmailVerified,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		LastLoginAt:   doc.LastLoginAt,
		Status:        domain.AccountStatus(doc.Status),
		Preferences: domain.Preferences{
			Budget:              doc.Preferences.Budget,
			TravelStyle:         doc.Preferences.TravelStyle,
			Interests:           doc.Preferences.Interests,
			DietaryRestrictions: doc.Preferences.DietaryRestrictions,
			AccessibilityNeeds:  doc.Preferences.AccessibilityNeeds,
			DefaultGroupSize:    doc.Preferences.DefaultGroupSize,
			TravelingWith:       doc.Preferences.TravelingWith,
			PreferredTransport:  doc.Preferences.PreferredTransport,
			AccommodationType:   doc.Preferences.AccommodationType,
			ActivityPace:        doc.Preferences.ActivityPace,
			Language:            doc.Preferences.Language,
			Notifications:       domain.NotificationPrefs(doc.Preferences.Notifications),
		},
		Stats:         domain.Stats(doc.Stats),
		TravelHistory: history,
	}
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(session *domain.Session) error {
	ctx := context.Background()

	doc := sessionDoc{
		UserID:         string(session.UserID),
		Title:          session.Title,
		AgentSessionID: session.AgentSessionID,
		CreatedAt:      session.CreatedAt,
		UpdatedAt:      session.UpdatedAt,
	}

	_, err := s.sessionDoc(session.ID).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(session *domain.Session) error {
	ctx := context.Background()

	doc := map[string]interface{}{
		"user_id":          string(session.UserID),
		"title":            session.Title,
		"agent_session_id": session.AgentSessionID,
		"created_at":       session.CreatedAt,
		"updated_at":       session.UpdatedAt,
	}

	_, err := s.sessionDoc(session.ID).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(id domain.SessionID) (*domain.Session, error) {
	ctx := context.Background()

	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}

	return &domain.Session{
		ID:             id,
		UserID:         domain.UserID(doc.UserID),
		Title:          doc.Title,
		AgentSessionID: doc.AgentSessionID,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

func (s *Store) ListSessionsByUser(userID domain.UserID, limit int) ([]*domain.Session, error) {
	ctx := context.Background()

	q := s.sessionsCol().Where("user_id", "==", string(userID)).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Session
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListSessionsByUser: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}

		out = append(out, &domain.Session{
			ID:             domain.SessionID(snap.Ref.ID),
			UserID:         domain.UserID(doc.UserID),
			Title:          doc.Title,
			AgentSessionID: doc.AgentSessionID,
			CreatedAt:      doc.CreatedAt,
			UpdatedAt:      doc.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) CountSessions() (int, error) {
	ctx := context.Background()

	// Document ids are enough here, skip field data.
	iter := s.sessionsCol().Select().Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return 0, fmt.Errorf("firestore CountSessions: %w", err)
		}
		count++
	}
	return count, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	ctx := context.Background()

	doc := messageDoc{
		SessionID: string(msg.SessionID),
		Author:    string(msg.Author),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
		IsError:   msg.IsError,
	}

	_, err := s.messageDoc(msg.SessionID, msg.ID).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) GetMessagesBySession(sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	ctx := context.Background()

	q := s.messagesCol(sessionID).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore GetMessagesBySession: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		out = append(out, &domain.Message{
			ID:        domain.MessageID(snap.Ref.ID),
			SessionID: sessionID,
			Author:    domain.Role(doc.Author),
			Text:      doc.Text,
			CreatedAt: doc.CreatedAt,
			IsError:   doc.IsError,
		})
	}
	return out, nil
}

// ─────────────────────────────────────────
// TripStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveItinerary(it *domain.Itinerary) error {
	ctx := context.Background()

	doc := itineraryDoc{
		UserID:      string(it.UserID),
		Content:     it.Content,
		Preferences: it.Preferences,
		CreatedAt:   it.CreatedAt,
	}

	data := map[string]interface{}{
		"id":          string(it.ID),
		"user_id":     doc.UserID,
		"content":     doc.Content,
		"preferences": doc.Preferences,
		"created_at":  doc.CreatedAt,
	}

	if _, err := s.itineraryDoc(it.SessionID).Set(ctx, data); err != nil {
		return fmt.Errorf("firestore SaveItinerary: %w", err)
	}
	return nil
}

func (s *Store) GetItineraryBySession(sessionID domain.SessionID) (*domain.Itinerary, error) {
	ctx := context.Background()

	snap, err := s.itineraryDoc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrItineraryNotFound
		}
		return nil, fmt.Errorf("firestore GetItineraryBySession: %w", err)
	}

	data := snap.Data()
	id, _ := data["id"].(string)
	var doc itineraryDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetItineraryBySession decode: %w", err)
	}

	return &domain.Itinerary{
		ID:          domain.ItineraryID(id),
		SessionID:   sessionID,
		UserID:      domain.UserID(doc.UserID),
		Content:     doc.Content,
		Preferences: doc.Preferences,
		CreatedAt:   doc.CreatedAt,
	}, nil
}

func (s *Store) SaveBooking(b *domain.Booking) error {
	ctx := context.Background()

	data := map[string]interface{}{
		"id":           string(b.ID),
		"user_id":      string(b.UserID),
		"itinerary_id": string(b.ItineraryID),
		"status":       string(b.Status),
		"created_at":   b.CreatedAt,
	}

	if _, err := s.bookingDoc(b.SessionID).Set(ctx, data); err != nil {
		return fmt.Errorf("firestore SaveBooking: %w", err)
	}
	return nil
}

func (s *Store) GetBookingBySession(sessionID domain.SessionID) (*domain.Booking, error) {
	ctx := context.Background()

	snap, err := s.bookingDoc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("firestore GetBookingBySession: %w", err)
	}

	data := snap.Data()
	id, _ := data["id"].(string)
	var doc bookingDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetBookingBySession decode: %w", err)
	}

	return &domain.Booking{
		ID:          domain.BookingID(id),
		ItineraryID: domain.ItineraryID(doc.ItineraryID),
		SessionID:   sessionID,
		UserID:      domain.UserID(doc.UserID),
		Status:      domain.BookingStatus(doc.Status),
		CreatedAt:   doc.CreatedAt,
	}, nil
}
