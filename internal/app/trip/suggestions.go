package trip

import "strings"

// SuggestionsFor derives short follow-up prompts from the agent's reply,
// keyed on what the reply talks about. At most three are returned; the
// list may be empty.
func SuggestionsFor(replyText string) []string {
	lower := strings.ToLower(replyText)
	var suggestions []string

	if strings.Contains(lower, "destination") || strings.Contains(lower, "place") {
		suggestions = append(suggestions,
			"Show me more destinations",
			"What's the best time to visit?",
			"Tell me about the local culture",
		)
	}

	if strings.Contains(lower, "budget") || strings.Contains(lower, "cost") {
		suggestions = append(suggestions,
			"Can you make it cheaper?",
			"What's included in this price?",
			"Show me luxury options",
		)
	}

	if strings.Contains(lower, "itinerary") || strings.Contains(lower, "plan") {
		suggestions = append(suggestions,
			"Generate full itinerary",
			"Book this trip",
			"Modify the schedule",
		)
	}

	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return suggestions
}
