// internal/domain/dialogue/message.go
package dialogue

// MessageType and Position mirror the fields the chat widgets render.
type MessageType string

type Position string

const (
	TypeText MessageType = "text"

	PositionLeft  Position = "left"  // bot
	PositionRight Position = "right" // user
)

// Message is one outbound bot message.
type Message struct {
	Type     MessageType `json:"type"`
	Content  string      `json:"content"`
	Position Position    `json:"position"`
	// Replies are suggested answers the transport may offer as buttons.
	Replies []string `json:"replies,omitempty"`
}

// Text builds a plain bot message.
func Text(content string) Message {
	return Message{Type: TypeText, Content: content, Position: PositionLeft}
}

// TextWithReplies builds a bot message carrying suggested answers.
func TextWithReplies(content string, replies []string) Message {
	m := Text(content)
	m.Replies = replies
	return m
}
