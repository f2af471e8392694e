package models

import (
	"encoding/json"
	"time"
)

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAI    Sender = "ai"
	SenderHuman Sender = "human"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

type ContentFormat string

const (
	ContentText ContentFormat = "text"
	ContentHTML ContentFormat = "html"
)

type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	Sender         Sender        `json:"sender"`
	Content        string        `json:"content"`
	ContentFormat  ContentFormat `json:"contentFormat"`
	Timestamp      time.Time     `json:"timestamp"`
	MessageType    MessageType   `json:"messageType"`
	Intent         Intent        `json:"intent"`
	SubIntent      *string       `json:"subIntent,omitempty"`
	OperatorName   *string       `json:"operatorName,omitempty"`
	TracePointer   *string       `json:"tracePointer,omitempty"`
}

// Intent is a message level intent: nothing, a single label or an ordered list.
type Intent struct {
	Single string
	List   []string
}

func SingleIntent(s string) Intent { return Intent{Single: s} }
func IntentList(items []string) Intent { return Intent{List: items} }

func (i Intent) IsZero() bool { return i.Single == "" && len(i.List) == 0 }

// MarshalJSON encodes as null, a string or an array of strings.
func (i Intent) MarshalJSON() ([]byte, error) {
	switch {
	case len(i.List) > 0:
		return json.Marshal(i.List)
	case i.Single != "":
		return json.Marshal(i.Single)
	default:
		return []byte("null"), nil
	}
}

func (i *Intent) UnmarshalJSON(data []byte) error {
	*i = Intent{}
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &i.List)
	}
	return json.Unmarshal(data, &i.Single)
}
