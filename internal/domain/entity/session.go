package entity

import "time"

// Session is one chat conversation.
type Session struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is one message of a session, with the answer metadata the
// assistant attaches to its replies.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      MessageRole
	Content   string
	Metadata  *AnswerMetadata
	CreatedAt time.Time
}

// AnswerMetadata records how an answer was produced.
type AnswerMetadata struct {
	Query          string    `json:"query"`
	Timestamp      time.Time `json:"timestamp"`
	Intents        []string  `json:"intents,omitempty"`
	Engine         string    `json:"engine"`
	WorkOrderCount int       `json:"work_orders"`
	DealCount      int       `json:"deals"`
}

// Answer engines.
const (
	EngineInsights      = "insights"
	EngineLLM           = "llm"
	EngineClarification = "clarification"
)

// SessionContext is the per-session conversational state used by the
// clarification flow.
type SessionContext struct {
	LastQuery string

	ClarificationNeeded   bool
	ClarificationQuestion string
	PendingQuery          string
	ClarificationAskedFor string
}
