package order

import "time"

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation log. Turns are append-only and
// never mutated after creation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	// State optionally snapshots the order state as of this turn.
	State map[string]any `json:"state,omitempty"`
}

// UserTurn builds a user turn stamped now.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text, CreatedAt: time.Now().UTC()}
}

// AssistantTurn builds an assistant turn with a state snapshot stamped now.
func AssistantTurn(text string, snapshot map[string]any) Turn {
	return Turn{Role: RoleAssistant, Text: text, CreatedAt: time.Now().UTC(), State: snapshot}
}
