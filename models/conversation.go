package models

import "time"

type Channel string

const (
	ChannelWebsite  Channel = "website"
	ChannelWhatsApp Channel = "whatsapp"
)

type CSAT string

const (
	CSATGood CSAT = "good"
	CSATBad  CSAT = "bad"
)

type Outcome string

const (
	OutcomeQualified Outcome = "qualified"
	OutcomeDropped   Outcome = "dropped"
	OutcomeEscalated Outcome = "escalated"
	OutcomeOngoing   Outcome = "ongoing"
)

type InteractionType string

const (
	InteractionAIOnly    InteractionType = "ai_only"
	InteractionHumanOnly InteractionType = "human_only"
	InteractionAIToHuman InteractionType = "ai_to_human_handover"
	InteractionMixed     InteractionType = "mixed"
)

type StudentCSAT string

const (
	StudentCSATPositive   StudentCSAT = "positive"
	StudentCSATNegative   StudentCSAT = "negative"
	StudentCSATNoFeedback StudentCSAT = "no_feedback"
)

// LinkURLs point at the external systems a conversation touched.
type LinkURLs struct {
	SalesIQ  *string `json:"salesiq,omitempty"`
	CRMLead  *string `json:"crmLead,omitempty"`
	Helpdesk *string `json:"helpdesk,omitempty"`
}

// Conversation is derived on every read from a warehouse row and is never stored.
type Conversation struct {
	ID              string          `json:"id"`
	Channel         Channel         `json:"channel"`
	StartTime       time.Time       `json:"startTime"`
	EndTime         *time.Time      `json:"endTime"`
	MessageCount    int             `json:"messageCount"`
	LastMessageTime *time.Time      `json:"lastMessageTime"`
	DetectedIntent  *string         `json:"detectedIntent"`
	NeedsHuman      *bool           `json:"needsHuman"`
	Outcome         Outcome         `json:"outcome"`
	CSAT            *CSAT           `json:"csat"`
	HumanHandover   bool            `json:"humanHandover"`
	InteractionType InteractionType `json:"interactionType"`
	AutoSummary     *string         `json:"autoSummary"`
	LeadCreated     *bool           `json:"leadCreated"`
	StudentCSAT     StudentCSAT     `json:"studentCsat"`
	LinkURLs        LinkURLs        `json:"linkUrls"`
	Messages        []Message       `json:"messages,omitempty"`
}
