package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rsehgal/wayfarer/internal/domain"
)

// ItineraryTool uses a domain.TripStore to persist generated itineraries.
type ItineraryTool struct {
	store domain.TripStore
	now   func() time.Time
}

// NewItineraryTool creates a new ItineraryTool.
// store can be an in-memory or Firestore implementation.
func NewItineraryTool(store domain.TripStore) *ItineraryTool {
	return &ItineraryTool{
		store: store,
		now:   time.Now,
	}
}

func (t *ItineraryTool) Name() string {
	return "itinerary_store"
}

// Call expects an input with this shape:
//
//	{
//	  "content": "Day 1: ...",
//	  "preferences": {"destination": "Goa", "days": 4, ...}
//	}
//
// UserID and SessionID come in ToolContext.
func (t *ItineraryTool) Call(
	ctx context.Context,
	tctx ToolContext,
	input map[string]any,
) (map[string]any, error) {

	if tctx.UserID == "" || tctx.SessionID == "" {
		return nil, fmt.Errorf("itinerary_store: missing UserID or SessionID in ToolContext")
	}

	content := getString(input, "content")
	if content == "" {
		return nil, fmt.Errorf("itinerary_store: content is required")
	}

	it := &domain.Itinerary{
		ID:          domain.ItineraryID(uuid.NewString()),
		SessionID:   domain.SessionID(tctx.SessionID),
		UserID:      domain.UserID(tctx.UserID),
		CreatedAt:   t.now(),
		Content:     content,
		Preferences: getMap(input, "preferences"),
	}

	if err := t.store.SaveItinerary(it); err != nil {
		return nil, fmt.Errorf("itinerary_store: save failed: %w", err)
	}

	return map[string]any{
		"status":       "ok",
		"itinerary_id": string(it.ID),
		"session_id":   string(it.SessionID),
		"user_id":      string(it.UserID),
		"created_at":   it.CreatedAt,
	}, nil
}

// --- internal helpers --- //

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]any); ok {
			return mm
		}
	}
	return nil
}
