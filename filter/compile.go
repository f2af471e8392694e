package filter

import (
	"strings"
	"time"
)

// Column expressions over the aliases used by the conversation queries:
// wc (whatsapp_conversations), m (message aggregate) and qa (latest assessment).
const (
	ConversationIDExpr = "wc.conversation_id"
	CreatedAtExpr      = "wc.created_at"
	SourceDetailsExpr  = "wc.source_details"

	ChannelExpr     = "COALESCE(JSON_EXTRACT_PATH_TEXT(wc.source_details, 'channel', true), '')"
	AgentIDExpr     = "TRIM(COALESCE(JSON_EXTRACT_PATH_TEXT(wc.meta, 'agent_id', true), ''))"
	LeadCreatedExpr = "JSON_EXTRACT_PATH_TEXT(wc.meta, 'able_to_create_lead', true)"
	NeedsHumanExpr  = "JSON_EXTRACT_PATH_TEXT(wc.conversation_intent, 'needs_human', true)"
	FeedbackExpr    = "JSON_EXTRACT_PATH_TEXT(wc.meta, 'feedback', 'value', true)"
	SummaryExpr     = "COALESCE(JSON_EXTRACT_PATH_TEXT(wc.conversation_evaluation, 'summary', true), '')"

	// IntentExpr mirrors the mapper precedence: conversation_intent, then meta,
	// then the evaluation theme.
	IntentExpr = "COALESCE(" +
		"NULLIF(TRIM(JSON_EXTRACT_PATH_TEXT(wc.conversation_intent, 'main_intent', true)), ''), " +
		"NULLIF(TRIM(JSON_EXTRACT_PATH_TEXT(wc.meta, 'main_intent', true)), ''), " +
		"NULLIF(TRIM(JSON_EXTRACT_PATH_TEXT(wc.conversation_evaluation, 'theme', 'main_theme', true)), ''))"

	CSATScoreExpr = "CASE TRIM(JSON_EXTRACT_PATH_TEXT(wc.conversation_evaluation, 'customer_satisfaction', true)) " +
		"WHEN '5' THEN 5 WHEN '4' THEN 4 WHEN '3' THEN 3 WHEN '2' THEN 2 WHEN '1' THEN 1 END"

	MessageCountExpr  = "COALESCE(m.message_count, 0)"
	DurationExpr      = "DATEDIFF(second, wc.created_at, COALESCE(wc.last_message_at, wc.created_at))"
	RatingExpr        = "qa.rating"
	RatingUpdatedExpr = "qa.updated_at"
)

// Query is everything that shapes a conversation list apart from paging.
type Query struct {
	Filters Filters
	Search  string
	Sort    Sort
}

// Compiler turns a Query into predicates. SourcePattern is the LIKE pattern
// that keeps the console scoped to the reviewed integration.
type Compiler struct {
	SourcePattern string
}

type Compiled struct {
	Predicates []Predicate
	// NeedsAssessmentJoin is set when a predicate reads the qa alias.
	NeedsAssessmentJoin bool
}

// Scope returns the predicates every conversation query carries.
func (c Compiler) Scope() []Predicate {
	if c.SourcePattern == "" {
		return nil
	}
	return []Predicate{Like{Expr: SourceDetailsExpr, Pattern: c.SourcePattern}}
}

// Compile expects q.Filters to have passed Validate.
func (c Compiler) Compile(q Query) Compiled {
	f := q.Filters
	out := Compiled{Predicates: c.Scope()}
	add := func(p Predicate) { out.Predicates = append(out.Predicates, p) }

	if term := strings.TrimSpace(q.Search); term != "" {
		add(Match{Exprs: []string{ConversationIDExpr, SummaryExpr, "COALESCE(" + IntentExpr + ", '')"}, Term: term})
	}

	if p := ratingPredicate(f.CSAT); p != nil {
		add(p)
		out.NeedsAssessmentJoin = true
	}

	if len(f.Channel) == 1 {
		add(Equals{Expr: ChannelExpr, Value: "whatsapp", Not: f.Channel[0] != "whatsapp"})
	}

	if len(f.Intent) > 0 {
		values := make([]any, 0, len(f.Intent))
		for _, intent := range f.Intent {
			values = append(values, intent)
		}
		add(InList{Expr: IntentExpr, Values: values})
	}

	if from, _ := parseDate("dateFrom", f.DateFrom); from != nil {
		add(Range{Expr: CreatedAtExpr, From: *from})
	}
	if to, _ := parseDate("dateTo", f.DateTo); to != nil {
		add(Range{Expr: CreatedAtExpr, To: to.Add(24 * time.Hour)})
	}

	if f.HumanHandover != nil {
		add(Blank{Expr: AgentIDExpr, Not: *f.HumanHandover})
	}

	if f.LeadCreated != Unset {
		add(BoolText{Expr: LeadCreatedExpr, Value: f.LeadCreated})
	}
	if f.NeedsHuman != Unset {
		add(BoolText{Expr: NeedsHumanExpr, Value: f.NeedsHuman})
	}

	if p := studentCSATPredicate(f.StudentCSAT); p != nil {
		add(p)
	}

	return out
}

func ratingPredicate(values []string) Predicate {
	if len(values) == 0 || len(values) == len(csatValues) {
		return nil
	}
	var branches AnyOf
	var ratings []any
	for _, v := range values {
		if v != NoRating {
			ratings = append(ratings, v)
		}
	}
	if len(ratings) > 0 {
		branches = append(branches, InList{Expr: RatingExpr, Values: ratings})
	}
	if contains(values, NoRating) {
		branches = append(branches, IsNull{Expr: RatingExpr})
	}
	return branches
}

func studentCSATPredicate(values []string) Predicate {
	if len(values) == 0 || len(values) == len(studentCSATValues) {
		return nil
	}
	var branches AnyOf
	for _, v := range values {
		switch v {
		case "positive":
			branches = append(branches, BoolText{Expr: FeedbackExpr, Value: True})
		case "negative":
			branches = append(branches, BoolText{Expr: FeedbackExpr, Value: False})
		case "no_feedback":
			branches = append(branches, BoolText{Expr: FeedbackExpr, Value: NoData})
		}
	}
	return branches
}
