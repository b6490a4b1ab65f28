package entity

import "time"

// MessageRole identifies the sender of a chat message
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "SYSTEM"
	MessageRoleUser      MessageRole = "USER"
	MessageRoleAssistant MessageRole = "ASSISTANT"
	MessageRoleTool      MessageRole = "TOOL"
)

// ContentType discriminates message content parts
type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypeImage      ContentType = "image"
	ContentTypeJSON       ContentType = "json"
	ContentTypeToolResult ContentType = "tool_result"
)

// MessageContent is one ordered part of a chat message
type MessageContent struct {
	Type        ContentType    `json:"type"`
	Text        string         `json:"text,omitempty"`
	ImageBase64 string         `json:"imageBase64,omitempty"`
	JSON        map[string]any `json:"json,omitempty"`
	ToolCallID  string         `json:"toolCallId,omitempty"`
	ToolContent string         `json:"toolContent,omitempty"`
}

// TokenUsage records provider token consumption for one completion
type TokenUsage struct {
	Model           string `json:"model"`
	NumInputTokens  int    `json:"numInputTokens"`
	NumOutputTokens int    `json:"numOutputTokens"`
}

// ToolCallFunction describes the function invoked by a tool call
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall records a tool invocation requested by the model
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ChatMessage is one turn of a conversation. Treated as immutable once built.
type ChatMessage struct {
	Sender     MessageRole      `json:"sender"`
	Contents   []MessageContent `json:"contents"`
	SentAt     time.Time        `json:"sentAt,omitempty"`
	TokenUsage *TokenUsage      `json:"tokenUsage,omitempty"`
	ToolCalls  []ToolCall       `json:"toolCalls,omitempty"`
}

// NewTextMessage builds a single-part text message
func NewTextMessage(sender MessageRole, text string) ChatMessage {
	return ChatMessage{
		Sender: sender,
		Contents: []MessageContent{
			{Type: ContentTypeText, Text: text},
		},
	}
}

// FirstText returns the text of the first text content part, or "" if none exists
func (m ChatMessage) FirstText() string {
	for _, c := range m.Contents {
		if c.Type == ContentTypeText {
			return c.Text
		}
	}
	return ""
}
