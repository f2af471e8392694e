// Package mapper derives the canonical conversation and message models from
// warehouse rows. Every function is total: malformed or missing JSON resolves
// to a documented default and nothing here returns an error.
package mapper

import (
	"strings"
	"time"

	"github.com/NextMind-AI/convo-qa/jsonfield"
	"github.com/NextMind-AI/convo-qa/models"
)

// RawConversation is a whatsapp_conversations row joined with its message aggregate.
type RawConversation struct {
	ID                    string
	CreatedAt             time.Time
	LastMessageAt         *time.Time
	SourceDetails         string
	Evaluation            string
	Meta                  string
	ConversationIntent    string
	SalesIQConversationID string
	LeadID                string
	HelpdeskTicketID      string
	MessageCount          int
	LastMessageTime       *time.Time
}

type Mapper struct {
	links  LinkTemplates
	traces TraceLinker
}

func New(links LinkTemplates, traces TraceLinker) *Mapper {
	return &Mapper{links: links, traces: traces}
}

// Conversation builds the public view of a row. Each JSON column is parsed once.
func (m *Mapper) Conversation(raw RawConversation) models.Conversation {
	source := jsonfield.Parse(raw.SourceDetails)
	evaluation := jsonfield.Parse(raw.Evaluation)
	meta := jsonfield.Parse(raw.Meta)
	intent := jsonfield.Parse(raw.ConversationIntent)

	handover := HumanHandover(meta)

	lastMessage := raw.LastMessageTime
	if lastMessage == nil {
		lastMessage = raw.LastMessageAt
	}

	return models.Conversation{
		ID:              raw.ID,
		Channel:         Channel(source),
		StartTime:       raw.CreatedAt,
		EndTime:         raw.LastMessageAt,
		MessageCount:    raw.MessageCount,
		LastMessageTime: lastMessage,
		DetectedIntent:  DetectedIntent(intent, meta, evaluation),
		NeedsHuman:      NeedsHuman(intent),
		Outcome:         Outcome(evaluation),
		CSAT:            CSAT(evaluation),
		HumanHandover:   handover,
		InteractionType: Interaction(handover),
		AutoSummary:     AutoSummary(evaluation),
		LeadCreated:     LeadCreated(meta),
		StudentCSAT:     StudentCSAT(meta),
		LinkURLs: models.LinkURLs{
			SalesIQ:  m.links.SalesIQ.URL(raw.SalesIQConversationID),
			CRMLead:  m.links.CRMLead.URL(raw.LeadID),
			Helpdesk: m.links.Helpdesk.URL(raw.HelpdeskTicketID),
		},
	}
}

// Channel is whatsapp only for the literal "whatsapp" tag; everything else,
// including a missing channel, is website.
func Channel(sourceDetails jsonfield.Value) models.Channel {
	if ch, ok := sourceDetails.Get("channel").Str(); ok && ch == "whatsapp" {
		return models.ChannelWhatsApp
	}
	return models.ChannelWebsite
}

// CSAT bins evaluation.customer_satisfaction: 4 and 5 are good, 1 and 2 are
// bad. A neutral 3, an out of range score or an unreadable value is nil.
func CSAT(evaluation jsonfield.Value) *models.CSAT {
	score, ok := evaluation.Get("customer_satisfaction").Int()
	if !ok || score < 1 || score > 5 {
		return nil
	}
	var c models.CSAT
	switch {
	case score >= 4:
		c = models.CSATGood
	case score <= 2:
		c = models.CSATBad
	default:
		return nil
	}
	return &c
}

func Outcome(evaluation jsonfield.Value) models.Outcome {
	status, _ := evaluation.Get("resolution_status").Str()
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "resolved":
		return models.OutcomeQualified
	case "unresolved":
		return models.OutcomeDropped
	case "escalated":
		return models.OutcomeEscalated
	}
	return models.OutcomeOngoing
}

// DetectedIntent takes the first non-empty of conversation_intent.main_intent,
// meta.main_intent and evaluation.theme.main_theme.
func DetectedIntent(conversationIntent, meta, evaluation jsonfield.Value) *string {
	candidates := []jsonfield.Value{
		conversationIntent.Get("main_intent"),
		meta.Get("main_intent"),
		evaluation.Get("theme.main_theme"),
	}
	for _, c := range candidates {
		if s, ok := c.NonEmptyText(); ok {
			return &s
		}
	}
	return nil
}

func NeedsHuman(conversationIntent jsonfield.Value) *bool {
	return triState(conversationIntent.Get("needs_human"))
}

func HumanHandover(meta jsonfield.Value) bool {
	_, ok := meta.Get("agent_id").NonEmptyText()
	return ok
}

// Interaction only separates AI-only conversations from handovers; human_only
// and mixed have no signal in the raw data.
func Interaction(handover bool) models.InteractionType {
	if handover {
		return models.InteractionAIToHuman
	}
	return models.InteractionAIOnly
}

func AutoSummary(evaluation jsonfield.Value) *string {
	if s, ok := evaluation.Get("summary").NonEmptyText(); ok {
		return &s
	}
	return nil
}

// LeadCreated is nil when meta.able_to_create_lead is missing or not a boolean.
func LeadCreated(meta jsonfield.Value) *bool {
	return triState(meta.Get("able_to_create_lead"))
}

func StudentCSAT(meta jsonfield.Value) models.StudentCSAT {
	v, ok := meta.Get("feedback.value").Bool()
	switch {
	case !ok:
		return models.StudentCSATNoFeedback
	case v:
		return models.StudentCSATPositive
	default:
		return models.StudentCSATNegative
	}
}

func triState(v jsonfield.Value) *bool {
	b, ok := v.Bool()
	if !ok {
		return nil
	}
	return &b
}
