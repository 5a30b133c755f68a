package domain

// Message is one entry of a session history. Assistant messages carry either
// Text or ToolCalls; tool messages carry the result of exactly one call.
type Message struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Set on RoleTool messages only.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`

	CreatedAt Timestamp `json:"created_at"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// HasToolCalls reports whether the model asked for at least one tool.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ToolParam describes one argument of a tool exposed to the model.
type ToolParam struct {
	Name        string
	Type        string // "string", "integer" or "number"
	Description string
	Required    bool
}

// ToolSchema is the declaration of a tool as the model sees it.
type ToolSchema struct {
	Name        string
	Description string
	Params      []ToolParam
}

func SystemMessage(text string, at Timestamp) Message {
	return Message{Role: RoleSystem, Text: text, CreatedAt: at}
}

func UserMessage(text string, at Timestamp) Message {
	return Message{Role: RoleUser, Text: text, CreatedAt: at}
}

func AssistantMessage(text string, at Timestamp) Message {
	return Message{Role: RoleAssistant, Text: text, CreatedAt: at}
}

// ToolResultMessage answers the call identified by call.ID.
func ToolResultMessage(call ToolCall, text string, at Timestamp) Message {
	return Message{
		Role:       RoleTool,
		Text:       text,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		CreatedAt:  at,
	}
}

const (
	// HistoryTrimThreshold is the length above which a history is compacted.
	HistoryTrimThreshold = 12
	// HistoryKeepRecent is how many trailing messages survive compaction.
	HistoryKeepRecent = 10
)

// TrimHistory collapses histories longer than HistoryTrimThreshold to the
// first message plus the last HistoryKeepRecent. The result never aliases
// msgs when compaction happens.
func TrimHistory(msgs []Message) []Message {
	if len(msgs) <= HistoryTrimThreshold {
		return msgs
	}
	out := make([]Message, 0, 1+HistoryKeepRecent)
	out = append(out, msgs[0])
	out = append(out, msgs[len(msgs)-HistoryKeepRecent:]...)
	return out
}
