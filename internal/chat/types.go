package chat

// Conversation roles accepted in history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation. The client owns the history and
// sends it back on every request.
type Turn struct {
	Role    string `json:"role" binding:"oneof=system user assistant"`
	Content string `json:"content"`
}

// Response is the payload returned for one chat turn. Audio is nil when
// synthesis was skipped or failed.
type Response struct {
	Text                string  `json:"text"`
	Audio               *string `json:"audio"`
	ConversationHistory []Turn  `json:"conversation_history"`
	Error               string  `json:"error,omitempty"`
}
