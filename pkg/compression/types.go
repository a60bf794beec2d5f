package compression

// Message roles.
const (
	// RoleUser marks a message authored by the end user.
	RoleUser = "user"

	// RoleAssistant marks a message authored by the model.
	RoleAssistant = "assistant"

	// RoleSystem marks an instruction message.
	RoleSystem = "system"
)

// Message kinds.
const (
	// KindMessage marks an ordinary conversation turn.
	KindMessage = "message"

	// KindSystem marks a system instruction, including synthetic summary
	// messages produced by compression.
	KindSystem = "system"
)

// Message is one entry in a conversation history. Messages are immutable
// once constructed; compression builds new messages rather than editing
// existing ones.
type Message struct {
	// Role is one of RoleUser, RoleAssistant, or RoleSystem.
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Kind is KindMessage or KindSystem.
	Kind string `json:"kind,omitempty"`
}

// Compressed is the result of compressing a conversation history. It is a
// derived value and is never persisted.
type Compressed struct {
	// Original is the input history, unchanged.
	Original []Message

	// Messages is the possibly-shrunk history to send to the provider.
	// When the input already fit the budget, Messages equals Original.
	Messages []Message

	// Summary is the text of the synthetic summary message, if the
	// summarize path produced one. Empty otherwise.
	Summary string

	// EstimatedTokens is the token estimate recomputed over Messages.
	EstimatedTokens int
}
