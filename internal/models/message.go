package models

// Message exposes the role and content of a conversation turn. Session
// transcripts arrive either as decoded JSON maps or as typed structs;
// the two adapters below cover both without runtime shape branching.
type Message interface {
	Role() string
	Content() string
}

// ChatMessage is the struct form of a conversation turn.
type ChatMessage struct {
	MsgRole    string `json:"role"`
	MsgContent string `json:"content"`
}

func (m ChatMessage) Role() string    { return m.MsgRole }
func (m ChatMessage) Content() string { return m.MsgContent }

// MapMessage adapts a decoded JSON object to the Message interface.
type MapMessage map[string]any

func (m MapMessage) Role() string    { return mapString(m, "role") }
func (m MapMessage) Content() string { return mapString(m, "content") }

func mapString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
