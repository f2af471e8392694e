package mapper

import (
	"strings"
	"time"

	"github.com/NextMind-AI/convo-qa/content"
	"github.com/NextMind-AI/convo-qa/jsonfield"
	"github.com/NextMind-AI/convo-qa/models"
)

const defaultOperatorName = "Agent"

// RawMessage is a whatsapp_messages row.
type RawMessage struct {
	ID             string
	MessageID      string
	ConversationID string
	Content        string
	CreatedAt      time.Time
	MessageType    string
	Direction      string
	AgentID        string
	Intent         string
	SubIntent      string
	TraceID        string
}

func (m *Mapper) Message(raw RawMessage) models.Message {
	body := content.Normalize(raw.Content)
	sender := Sender(raw.Direction, raw.AgentID)

	msg := models.Message{
		ID:             raw.ID,
		ConversationID: raw.ConversationID,
		Sender:         sender,
		Content:        body.Value,
		ContentFormat:  body.Format,
		Timestamp:      raw.CreatedAt,
		MessageType:    MessageType(raw.MessageType),
		Intent:         MessageIntent(raw.Intent),
		SubIntent:      SubIntent(raw.SubIntent),
	}

	if sender == models.SenderHuman {
		name := defaultOperatorName
		msg.OperatorName = &name
	}
	if trace := strings.TrimSpace(raw.TraceID); trace != "" {
		msg.TracePointer = &trace
	}
	return msg
}

// Sender follows the message direction. Without a direction the agent id is
// the only hint left: a message carrying one is human, anything else is the bot.
func Sender(direction, agentID string) models.Sender {
	hasAgent := strings.TrimSpace(agentID) != ""
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "inbound":
		return models.SenderUser
	case "outbound":
		if hasAgent {
			return models.SenderHuman
		}
		return models.SenderAI
	}
	if hasAgent {
		return models.SenderHuman
	}
	return models.SenderAI
}

func MessageType(raw string) models.MessageType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "interactive", "button", "template":
		return models.MessageTypeText
	case "image", "sticker":
		return models.MessageTypeImage
	case "system", "event", "notification":
		return models.MessageTypeSystem
	}
	return models.MessageTypeFile
}

// MessageIntent accepts a plain label, a JSON string, a JSON array of labels or
// a JSON object. Objects are flattened to "key=value" pairs.
func MessageIntent(raw string) models.Intent {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return models.Intent{}
	}

	v := jsonfield.ParseAny(trimmed)
	switch v.Kind() {
	case jsonfield.Absent:
		return models.SingleIntent(trimmed)
	case jsonfield.Null:
		return models.Intent{}
	case jsonfield.Array:
		var items []string
		for _, el := range v.Elements() {
			if s := render(el); s != "" {
				items = append(items, s)
			}
		}
		if len(items) == 0 {
			return models.Intent{}
		}
		return models.IntentList(items)
	}

	if s := render(v); s != "" {
		return models.SingleIntent(s)
	}
	return models.Intent{}
}

// SubIntent renders sub_intent for display, flattening nested objects into
// "a.b=value" entries joined by "; ".
func SubIntent(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	v := jsonfield.ParseAny(trimmed)
	var out string
	switch v.Kind() {
	case jsonfield.Absent:
		out = trimmed
	case jsonfield.Array:
		var parts []string
		for _, el := range v.Elements() {
			if s := render(el); s != "" {
				parts = append(parts, s)
			}
		}
		out = strings.Join(parts, "; ")
	default:
		out = render(v)
	}

	if out == "" {
		return nil
	}
	return &out
}

func render(v jsonfield.Value) string {
	switch v.Kind() {
	case jsonfield.Object:
		return strings.Join(Flatten(v), "; ")
	case jsonfield.Array:
		var parts []string
		for _, el := range v.Elements() {
			if s := render(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	s, _ := v.NonEmptyText()
	return s
}

// Flatten lists the leaves of an object as "dot.path=value", in document order.
// Nulls and blank strings are dropped.
func Flatten(v jsonfield.Value) []string {
	var out []string
	flatten(v, "", &out)
	return out
}

func flatten(v jsonfield.Value, prefix string, out *[]string) {
	v.ForEach(func(key string, child jsonfield.Value) bool {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch child.Kind() {
		case jsonfield.Object:
			flatten(child, path, out)
		default:
			if s := render(child); s != "" {
				*out = append(*out, path+"="+s)
			}
		}
		return true
	})
}
