package domain

import "time"

// DefaultDisplayName is used when neither the identity provider nor the
// stored profile supplies a display name.
const DefaultDisplayName = "Traveler"

// Identity is what the identity provider knows about a signed-in user.
type Identity struct {
	UID           UserID
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	Provider      AuthProviderKind
}

// NotificationPrefs toggles per-channel notifications.
type NotificationPrefs struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	SMS   bool `json:"sms"`
}

// Preferences is the traveler's planning profile, editable from the profile screen.
type Preferences struct {
	Budget      string   `json:"budget"`      // "budget" | "moderate" | "luxury"
	TravelStyle string   `json:"travelStyle"` // "balanced" | "relaxed" | "adventurous" | "cultural"
	Interests   []string `json:"interests"`

	DietaryRestrictions []string `json:"dietaryRestrictions"`
	AccessibilityNeeds  []string `json:"accessibilityNeeds"`

	DefaultGroupSize int    `json:"defaultGroupSize"`
	TravelingWith    string `json:"travelingWith"` // "solo" | "partner" | "family" | "friends" | "group"

	PreferredTransport []string `json:"preferredTransport"`
	AccommodationType  []string `json:"accommodationType"`
	ActivityPace       string   `json:"activityPace"` // "slow" | "moderate" | "fast"

	Language      string            `json:"language"`
	Notifications NotificationPrefs `json:"notificationPreferences"`
}

// Stats are lifetime counters, only ever incremented.
type Stats struct {
	TripsPlanned         int64   `json:"tripsPlanned"`
	TripsCompleted       int64   `json:"tripsCompleted"`
	DestinationsVisited  int64   `json:"destinationsVisited"`
	TotalSpent           float64 `json:"totalSpent"`
	MessagesExchanged    int64   `json:"messagesExchanged"`
	ItinerariesGenerated int64   `json:"itinerariesGenerated"`
	BookingsCompleted    int64   `json:"bookingsCompleted"`
}

// TravelHistoryEntry is one past trip appended to the profile over time.
type TravelHistoryEntry struct {
	Destination string    `json:"destination"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	AddedAt     time.Time `json:"addedAt"`
}

// UserProfile is the users/{id} document. Exactly one per identity id,
// created lazily on first successful authentication, never deleted by
// client code.
type UserProfile struct {
	ID          UserID
	Email       string
	DisplayName string
	PhotoURL    string

	AuthProvider  AuthProviderKind
	EmailVerified bool

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt time.Time

	Status AccountStatus

	Preferences   Preferences
	Stats         Stats
	TravelHistory []TravelHistoryEntry
}

// DefaultPreferences returns the preference record a brand-new profile starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Budget:              "moderate",
		TravelStyle:         "balanced",
		Interests:           []string{},
		DietaryRestrictions: []string{},
		AccessibilityNeeds:  []string{},
		DefaultGroupSize:    1,
		TravelingWith:       "solo",
		PreferredTransport:  []string{},
		AccommodationType:   []string{},
		ActivityPace:        "moderate",
		Language:            "en",
		Notifications: NotificationPrefs{
			Email: true,
			Push:  true,
			SMS:   false,
		},
	}
}

// NewProfile builds the default profile document for a first sign-in,
// merged with whatever the identity provider supplied.
func NewProfile(ident Identity, now time.Time) *UserProfile {
	name := ident.DisplayName
	if name == "" {
		name = DefaultDisplayName
	}
	return &UserProfile{
		ID:            ident.UID,
		Email:         ident.Email,
		DisplayName:   name,
		PhotoURL:      ident.PhotoURL,
		AuthProvider:  ident.Provider,
		EmailVerified: ident.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastLoginAt:   now,
		Status:        StatusActive,
		Preferences:   DefaultPreferences(),
	}
}

// CurrentUser is the merged view published by the auth bootstrap:
// live identity-provider fields layered over the stored profile.
type CurrentUser struct {
	ID            UserID
	Email         string
	Name          string
	PhotoURL      string
	EmailVerified bool
	Token         string

	Profile *UserProfile
}

// MergeCurrentUser applies the precedence rules for the published user:
// provider name/photo win over stored fields unless absent, and the
// name falls back to the fixed placeholder.
func MergeCurrentUser(ident Identity, profile *UserProfile, token string) *CurrentUser {
	name := ident.DisplayName
	if name == "" && profile != nil {
		name = profile.DisplayName
	}
	if name == "" {
		name = DefaultDisplayName
	}

	photo := ident.PhotoURL
	if photo == "" && profile != nil {
		photo = profile.PhotoURL
	}

	return &CurrentUser{
		ID:            ident.UID,
		Email:         ident.Email,
		Name:          name,
		PhotoURL:      photo,
		EmailVerified: ident.EmailVerified,
		Token:         token,
		Profile:       profile,
	}
}
