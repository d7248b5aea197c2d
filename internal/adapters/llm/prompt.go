package llm

import (
	"fmt"
	"strings"

	"github.com/rsehgal/wayfarer/internal/domain"
)

const baseSystemPrompt = `
You are "Wayfarer", an AI travel concierge that creates hyper-personalized,
end-to-end trip itineraries tailored to individual budgets, interests, and
real-time conditions.

Your responsibilities:
- Extract key entities from the user's messages: theme (adventure, mountains,
  beaches...), duration in days, travel dates, interests, budget, origin city,
  number of travelers, and specific activity preferences.
- Suggest 3-5 destination or itinerary ideas matched to what you extracted.
- Once the user picks a direction, build an optimized day-by-day itinerary
  with activities, transport between locations, accommodation, and cost
  estimates.

How you operate:
- Greet new conversations warmly and give a quick overview of what you do.
- If the request is unclear, ask a small number of clarifying questions
  rather than guessing.
- Respect the traveler's stated constraints (dietary, accessibility, pace,
  group size) in every suggestion.
- Answer in the SAME LANGUAGE as the user.
- Be concise and practical; prefer short sections and bullet points over
  long prose.
`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildPrompt builds the system prompt and the user content
// (traveler profile + history + new message) from the conversation context.
func BuildPrompt(userMessage string, ctx domain.ConversationContext) Prompt {
	system := baseSystemPrompt
	if ctx.Preferences != nil {
		system += "\n" + travelerProfile(ctx.Preferences)
	}

	var historyParts []string
	for _, m := range ctx.History {
		role := "user"
		if m.Author == domain.RoleAgent {
			role = "assistant"
		}
		historyParts = append(historyParts, role+": "+m.Text)
	}

	historyText := strings.Join(historyParts, "\n")

	var userContent strings.Builder
	if historyText != "" {
		userContent.WriteString("Conversation so far:\n")
		userContent.WriteString(historyText)
		userContent.WriteString("\n\n")
	}
	userContent.WriteString("New user message:\n")
	userContent.WriteString(userMessage)

	return Prompt{
		System: system,
		User:   userContent.String(),
	}
}

func travelerProfile(p *domain.Preferences) string {
	var b strings.Builder
	b.WriteString("Known traveler profile:\n")
	fmt.Fprintf(&b, "- budget tier: %s\n", p.Budget)
	fmt.Fprintf(&b, "- travel style: %s, pace: %s\n", p.TravelStyle, p.ActivityPace)
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "- interests: %s\n", strings.Join(p.Interests, ", "))
	}
	if len(p.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "- dietary restrictions: %s\n", strings.Join(p.DietaryRestrictions, ", "))
	}
	if len(p.AccessibilityNeeds) > 0 {
		fmt.Fprintf(&b, "- accessibility needs: %s\n", strings.Join(p.AccessibilityNeeds, ", "))
	}
	fmt.Fprintf(&b, "- usually travels %s, group size %d\n", p.TravelingWith, p.DefaultGroupSize)
	if len(p.PreferredTransport) > 0 {
		fmt.Fprintf(&b, "- preferred transport: %s\n", strings.Join(p.PreferredTransport, ", "))
	}
	if len(p.AccommodationType) > 0 {
		fmt.Fprintf(&b, "- accommodation: %s\n", strings.Join(p.AccommodationType, ", "))
	}
	return b.String()
}

// BuildItineraryPrompt asks for a full day-by-day itinerary from the
// collected trip preferences.
func BuildItineraryPrompt(preferences string) string {
	return fmt.Sprintf(`Based on the user's preferences: %s
Please generate a detailed, day-by-day itinerary with:
1. Specific destinations and activities
2. Time schedules for each activity
3. Transportation options between locations
4. Accommodation recommendations
5. Cost estimates for each component
6. Booking links where applicable

Format the response as a structured JSON object.`, preferences)
}
