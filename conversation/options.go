package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/NextMind-AI/convo-qa/mapper"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/rs/zerolog/log"
)

// Option is one choice in a filter control. Value is nil for "no data".
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

type FilterOptions struct {
	CSATOptions        []Option `json:"csatOptions"`
	ChannelOptions     []Option `json:"channelOptions"`
	IntentOptions      []string `json:"intentOptions"`
	LeadCreatedOptions []Option `json:"leadCreatedOptions"`
	NeedsHumanOptions  []Option `json:"needsHumanOptions"`
	StudentCSATOptions []Option `json:"studentCsatOptions"`
	SortOptions        []Option `json:"sortOptions"`
}

// FilterOptions lists the values each filter accepts. Intents are read from
// the store; everything else is fixed.
func (r *Repository) FilterOptions(ctx context.Context) (FilterOptions, error) {
	intents, err := r.intentOptions(ctx)
	if err != nil {
		return FilterOptions{}, err
	}

	sorts := make([]Option, 0, len(filter.Sorts()))
	for _, s := range filter.Sorts() {
		sorts = append(sorts, Option{Value: string(s), Label: s.Label()})
	}

	return FilterOptions{
		CSATOptions: []Option{
			{Value: string(models.RatingGood), Label: "Good"},
			{Value: string(models.RatingOkay), Label: "Okay"},
			{Value: string(models.RatingBad), Label: "Bad"},
			{Value: nil, Label: "No Rating"},
		},
		ChannelOptions: []Option{
			{Value: string(models.ChannelWebsite), Label: "Website"},
			{Value: string(models.ChannelWhatsApp), Label: "WhatsApp"},
		},
		IntentOptions: intents,
		LeadCreatedOptions: []Option{
			{Value: true, Label: "Lead Created"},
			{Value: false, Label: "Lead Not Created"},
			{Value: nil, Label: "No Lead Data"},
		},
		NeedsHumanOptions: []Option{
			{Value: true, Label: "Needs Human"},
			{Value: false, Label: "No Human Needed"},
			{Value: nil, Label: "No Intent Data"},
		},
		StudentCSATOptions: []Option{
			{Value: string(models.StudentCSATPositive), Label: "Positive"},
			{Value: string(models.StudentCSATNegative), Label: "Negative"},
			{Value: string(models.StudentCSATNoFeedback), Label: "No Feedback"},
		},
		SortOptions: sorts,
	}, nil
}

func (r *Repository) intentOptions(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	preds := append(r.compiler.Scope(), filter.IsNull{Expr: filter.IntentExpr, Not: true})

	var b filter.Builder
	where := b.Where(preds)
	query := fmt.Sprintf(intentOptionsQuery, filter.IntentExpr, where, b.Bind(r.cfg.IntentOptionLimit))

	rows, err := r.exec.Query(ctx, query, b.Args()...)
	if err != nil {
		log.Error().Err(err).Str("op", "intent_options").Msg("Failed to load intent options")
		return nil, err
	}

	intents := make([]string, 0, len(rows))
	for _, row := range rows {
		if s := strings.TrimSpace(row.String("intent")); s != "" {
			intents = append(intents, s)
		}
	}
	return intents, nil
}

// MessageDebug links a message to its LangSmith trace.
type MessageDebug struct {
	ID             string        `json:"id"`
	MessageID      *string       `json:"messageId"`
	ConversationID string        `json:"conversationId"`
	Sender         models.Sender `json:"sender"`
	TraceID        *string       `json:"traceId"`
	LangSmithURL   *string       `json:"langsmithUrl"`
}

// MessageTrace finds a message by internal id or external message id, limited
// to conversations from the reviewed source.
func (r *Repository) MessageTrace(ctx context.Context, id string) (MessageDebug, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	preds := append(r.compiler.Scope(), filter.AnyOf{
		filter.Equals{Expr: "CAST(wm.id AS VARCHAR)", Value: id},
		filter.Equals{Expr: "wm.message_id", Value: id},
	})

	var b filter.Builder
	where := b.Where(preds)

	rows, err := r.exec.Query(ctx, fmt.Sprintf(messageTraceQuery, where), b.Args()...)
	if err != nil {
		log.Error().Err(err).Str("op", "message_trace").Str("message_id", id).Msg("Failed to load message debug info")
		return MessageDebug{}, false, err
	}
	if len(rows) == 0 {
		return MessageDebug{}, false, nil
	}

	row := rows[0]
	debug := MessageDebug{
		ID:             row.String("id"),
		ConversationID: row.String("conversation_id"),
		Sender:         mapper.Sender(row.String("direction"), row.String("agent_id")),
	}
	if s := strings.TrimSpace(row.String("message_id")); s != "" {
		debug.MessageID = &s
	}
	if s := strings.TrimSpace(row.String("trace_id")); s != "" {
		debug.TraceID = &s
		debug.LangSmithURL = r.mapper.TraceURL(s)
	}
	return debug, true, nil
}
