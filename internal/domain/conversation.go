package domain

// Message represents any message in a session transcript (user or agent)
type Message struct {
	ID        MessageID
	SessionID SessionID
	Author    Role
	Text      string
	CreatedAt Timestamp

	// IsError marks synthetic agent messages inserted when a planner call failed.
	IsError bool
}

// Session represents one conversation between a traveler and the planning agent.
type Session struct {
	ID        SessionID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	// AgentSessionID is the upstream agent-engine handle backing this session.
	AgentSessionID string
	Title          string
}
