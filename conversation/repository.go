// Package conversation lists and loads conversations for the review console:
// it compiles filters, pages and counts through the store, and maps the rows.
package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/NextMind-AI/convo-qa/cache"
	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/NextMind-AI/convo-qa/mapper"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/NextMind-AI/convo-qa/store"
	"github.com/rs/zerolog/log"
)

type Config struct {
	SourcePattern     string
	QueryTimeout      time.Duration
	MaxMessages       int
	DefaultPageSize   int
	MaxPageSize       int
	IntentOptionLimit int
}

func DefaultConfig() Config {
	return Config{
		SourcePattern:     `%"source": "zoho"%`,
		QueryTimeout:      25 * time.Second,
		MaxMessages:       200,
		DefaultPageSize:   50,
		MaxPageSize:       200,
		IntentOptionLimit: 500,
	}
}

type Repository struct {
	exec     store.Executor
	counts   cache.CountCache
	mapper   *mapper.Mapper
	compiler filter.Compiler
	cfg      Config
}

func NewRepository(exec store.Executor, counts cache.CountCache, m *mapper.Mapper, cfg Config) *Repository {
	def := DefaultConfig()
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = def.QueryTimeout
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = def.MaxMessages
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = def.DefaultPageSize
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = def.MaxPageSize
	}
	if cfg.IntentOptionLimit <= 0 {
		cfg.IntentOptionLimit = def.IntentOptionLimit
	}

	return &Repository{
		exec:     exec,
		counts:   counts,
		mapper:   m,
		compiler: filter.Compiler{SourcePattern: cfg.SourcePattern},
		cfg:      cfg,
	}
}

type ListRequest struct {
	Query    filter.Query
	Page     int
	PageSize int
}

type ListResult struct {
	Conversations []models.Conversation `json:"conversations"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"pageSize"`
	TotalPages    int                   `json:"totalPages"`
}

// List returns one page of conversations plus the total for the same filters.
// The total may be up to one cache TTL stale.
func (r *Repository) List(ctx context.Context, req ListRequest) (ListResult, error) {
	if err := req.Query.Filters.Validate(); err != nil {
		return ListResult{}, err
	}
	if req.Query.Sort == "" {
		req.Query.Sort = filter.SortNewest
	}
	page, pageSize := r.clamp(req.Page, req.PageSize)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	compiled := r.compiler.Compile(req.Query)

	total, err := r.total(ctx, req.Query, compiled)
	if err != nil {
		return ListResult{}, err
	}

	var b filter.Builder
	where := b.Where(compiled.Predicates)

	qaJoin := ""
	if compiled.NeedsAssessmentJoin || req.Query.Sort.NeedsAssessment() {
		qaJoin = latestAssessmentJoin
	}

	query := fmt.Sprintf(pageQuery,
		conversationColumns,
		messageAggregateJoin,
		qaJoin,
		where,
		req.Query.Sort.OrderBy(),
		b.Bind(pageSize),
		b.Bind((page-1)*pageSize),
	)

	rows, err := r.exec.Query(ctx, query, b.Args()...)
	if err != nil {
		log.Error().Err(err).
			Str("op", "list_conversations").
			Int("page", page).
			Int("page_size", pageSize).
			Msg("Failed to query conversation page")
		return ListResult{}, err
	}

	conversations := make([]models.Conversation, 0, len(rows))
	for _, row := range dedupe(rows) {
		conversations = append(conversations, r.mapper.Conversation(rawConversation(row)))
	}

	return ListResult{
		Conversations: conversations,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages(total, pageSize),
	}, nil
}

func (r *Repository) total(ctx context.Context, q filter.Query, compiled filter.Compiled) (int64, error) {
	key := r.compiler.Fingerprint(q)
	if n, ok := r.counts.Get(ctx, key); ok {
		return n, nil
	}

	var b filter.Builder
	where := b.Where(compiled.Predicates)

	qaJoin := ""
	if compiled.NeedsAssessmentJoin {
		qaJoin = latestAssessmentJoin
	}

	rows, err := r.exec.Query(ctx, fmt.Sprintf(countQuery, qaJoin, where), b.Args()...)
	if err != nil {
		log.Error().Err(err).
			Str("op", "count_conversations").
			Str("fingerprint", key).
			Msg("Failed to count conversations")
		return 0, err
	}

	var n int64
	if len(rows) > 0 {
		n = rows[0].Int64("total")
	}
	r.counts.Set(ctx, key, n)
	return n, nil
}

func (r *Repository) clamp(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = r.cfg.DefaultPageSize
	}
	if pageSize > r.cfg.MaxPageSize {
		pageSize = r.cfg.MaxPageSize
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// dedupe keeps the first row seen for each conversation id. The page query
// already ranks duplicates away; this guards against a source that does not.
func dedupe(rows []store.Row) []store.Row {
	seen := make(map[string]bool, len(rows))
	out := make([]store.Row, 0, len(rows))
	for _, row := range rows {
		id := row.String("conversation_id")
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, row)
	}
	return out
}

// Get loads one conversation. found is false for an unknown id or one outside
// the reviewed source.
func (r *Repository) Get(ctx context.Context, id string, includeMessages bool) (models.Conversation, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	preds := append(r.compiler.Scope(), filter.Equals{Expr: filter.ConversationIDExpr, Value: id})

	var b filter.Builder
	where := b.Where(preds)

	rows, err := r.exec.Query(ctx, fmt.Sprintf(getQuery, conversationColumns, messageAggregateJoin, where), b.Args()...)
	if err != nil {
		log.Error().Err(err).
			Str("op", "get_conversation").
			Str("conversation_id", id).
			Msg("Failed to load conversation")
		return models.Conversation{}, false, err
	}
	if len(rows) == 0 {
		return models.Conversation{}, false, nil
	}

	conv := r.mapper.Conversation(rawConversation(rows[0]))
	if !includeMessages {
		return conv, true, nil
	}

	msgs, err := r.messages(ctx, id)
	if err != nil {
		return models.Conversation{}, false, err
	}
	conv.Messages = msgs
	return conv, true, nil
}

func (r *Repository) messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	rows, err := r.exec.Query(ctx, messagesQuery, conversationID, r.cfg.MaxMessages)
	if err != nil {
		log.Error().Err(err).
			Str("op", "list_messages").
			Str("conversation_id", conversationID).
			Msg("Failed to load messages")
		return nil, err
	}

	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, r.mapper.Message(rawMessage(row)))
	}
	return msgs, nil
}

// Ping checks the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()
	return r.exec.Ping(ctx)
}

// CountInScope counts every conversation from the reviewed source, uncached.
func (r *Repository) CountInScope(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	var b filter.Builder
	where := b.Where(r.compiler.Scope())

	rows, err := r.exec.Query(ctx, fmt.Sprintf(scopeCountQuery, where), b.Args()...)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int64("total"), nil
}

func rawConversation(row store.Row) mapper.RawConversation {
	created, _ := row.Time("created_at")
	return mapper.RawConversation{
		ID:                    row.String("conversation_id"),
		CreatedAt:             created,
		LastMessageAt:         row.TimePtr("last_message_at"),
		SourceDetails:         row.String("source_details"),
		Evaluation:            row.String("conversation_evaluation"),
		Meta:                  row.String("meta"),
		ConversationIntent:    row.String("conversation_intent"),
		SalesIQConversationID: row.String("salesiq_conversation_id"),
		LeadID:                row.String("lead_id"),
		HelpdeskTicketID:      row.String("zoho_ticket_id"),
		MessageCount:          row.Int("message_count"),
		LastMessageTime:       row.TimePtr("last_message_time"),
	}
}

func rawMessage(row store.Row) mapper.RawMessage {
	created, _ := row.Time("created_at")
	return mapper.RawMessage{
		ID:             row.String("id"),
		MessageID:      row.String("message_id"),
		ConversationID: row.String("conversation_id"),
		Content:        row.String("message_content"),
		CreatedAt:      created,
		MessageType:    row.String("message_type"),
		Direction:      row.String("direction"),
		AgentID:        row.String("agent_id"),
		Intent:         row.String("intent"),
		SubIntent:      row.String("sub_intent"),
		TraceID:        row.String("trace_id"),
	}
}
