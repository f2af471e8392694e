package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NextMind-AI/convo-qa/cache"
	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/NextMind-AI/convo-qa/mapper"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/NextMind-AI/convo-qa/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query string
	args  []any
}

// fakeExecutor answers by matching a marker substring of the query.
type fakeExecutor struct {
	mu        sync.Mutex
	calls     []call
	responses map[string][]store.Row
	err       error
	deadline  bool
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{responses: make(map[string][]store.Row)}
}

func (f *fakeExecutor) on(marker string, rows ...store.Row) {
	f.responses[marker] = rows
}

func (f *fakeExecutor) Query(ctx context.Context, query string, args ...any) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{query: query, args: args})
	if _, ok := ctx.Deadline(); ok {
		f.deadline = true
	}
	if f.err != nil {
		return nil, f.err
	}
	for marker, rows := range f.responses {
		if strings.Contains(query, marker) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeExecutor) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (f *fakeExecutor) Ping(context.Context) error { return f.err }
func (f *fakeExecutor) Close() error               { return nil }

func (f *fakeExecutor) queriesContaining(marker string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if strings.Contains(c.query, marker) {
			out = append(out, c)
		}
	}
	return out
}

const (
	countMarker   = "COUNT(DISTINCT wc.conversation_id)"
	pageMarker    = "OFFSET"
	getMarker     = "LIMIT 1"
	msgMarker     = "FROM whatsapp_messages wm\nWHERE"
	intentMarker  = "SELECT DISTINCT"
	traceMarker   = "wm.trace_id, wm.direction"
	scopeMarker   = "SELECT COUNT(*) AS total"
	zohoSourceLit = `%"source": "zoho"%`
)

func convRow(id string, created time.Time) store.Row {
	return store.Row{
		"conversation_id":         id,
		"created_at":              created,
		"last_message_at":         nil,
		"source_details":          `{"source":"zoho","channel":"whatsapp"}`,
		"conversation_evaluation": `{"customer_satisfaction":"5","resolution_status":"resolved"}`,
		"meta":                    `{"able_to_create_lead":"true","agent_id":"A1"}`,
		"conversation_intent":     nil,
		"salesiq_conversation_id": nil,
		"lead_id":                 "L1",
		"zoho_ticket_id":          nil,
		"message_count":           int64(4),
		"last_message_time":       created.Add(time.Minute),
	}
}

func newTestRepository(exec *fakeExecutor) *Repository {
	m := mapper.New(mapper.LinkTemplates{CRMLead: "https://crm.example.com/leads/"}, mapper.TraceLinker{Org: "org", Project: "proj"})
	return NewRepository(exec, cache.NewMemory(time.Minute), m, DefaultConfig())
}

func TestList_MapsAndCounts(t *testing.T) {
	exec := newFakeExecutor()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	exec.on(countMarker, store.Row{"total": int64(120)})
	exec.on(pageMarker, convRow("c1", created), convRow("c2", created))

	repo := newTestRepository(exec)
	res, err := repo.List(context.Background(), ListRequest{Page: 2, PageSize: 50})
	require.NoError(t, err)

	assert.Equal(t, int64(120), res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 50, res.PageSize)
	assert.Equal(t, 3, res.TotalPages)
	require.Len(t, res.Conversations, 2)

	c := res.Conversations[0]
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, models.ChannelWhatsApp, c.Channel)
	assert.Equal(t, 4, c.MessageCount)
	require.NotNil(t, c.LinkURLs.CRMLead)
	assert.Equal(t, "https://crm.example.com/leads/L1", *c.LinkURLs.CRMLead)

	pages := exec.queriesContaining(pageMarker)
	require.Len(t, pages, 1)
	assert.Equal(t, []any{zohoSourceLit, 50, 50}, pages[0].args)
	assert.Contains(t, pages[0].query, "ORDER BY wc.created_at DESC, wc.conversation_id ASC")
	assert.NotContains(t, pages[0].query, "qa_assessments")
	assert.True(t, exec.deadline)
}

func TestList_ClampsPaging(t *testing.T) {
	testCases := []struct {
		page, pageSize         int
		wantPage, wantPageSize int
		wantOffset             int
	}{
		{0, 0, 1, 50, 0},
		{-3, 10, 1, 10, 0},
		{3, 1000, 3, 200, 400},
	}

	for _, tc := range testCases {
		exec := newFakeExecutor()
		res, err := newTestRepository(exec).List(context.Background(), ListRequest{Page: tc.page, PageSize: tc.pageSize})
		require.NoError(t, err)

		assert.Equal(t, tc.wantPage, res.Page)
		assert.Equal(t, tc.wantPageSize, res.PageSize)

		pages := exec.queriesContaining(pageMarker)
		require.Len(t, pages, 1)
		args := pages[0].args
		assert.Equal(t, tc.wantPageSize, args[len(args)-2])
		assert.Equal(t, tc.wantOffset, args[len(args)-1])
	}
}

func TestList_DeduplicatesByID(t *testing.T) {
	exec := newFakeExecutor()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	exec.on(countMarker, store.Row{"total": "3"})
	exec.on(pageMarker,
		convRow("c1", created),
		convRow("c2", created),
		convRow("c1", created),
		convRow("c3", created),
		convRow("c2", created),
	)

	res, err := newTestRepository(exec).List(context.Background(), ListRequest{})
	require.NoError(t, err)

	var ids []string
	for _, c := range res.Conversations {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)
}

func TestList_CountIsCachedPerFingerprint(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(countMarker, store.Row{"total": int64(10)})
	repo := newTestRepository(exec)
	ctx := context.Background()

	_, err := repo.List(ctx, ListRequest{Query: filter.Query{Search: "abc"}})
	require.NoError(t, err)

	exec.on(countMarker, store.Row{"total": int64(99)})

	res, err := repo.List(ctx, ListRequest{Query: filter.Query{Search: " ABC ", Sort: filter.SortOldest}, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Total)
	assert.Len(t, exec.queriesContaining(countMarker), 1)

	res, err = repo.List(ctx, ListRequest{Query: filter.Query{Search: "other"}})
	require.NoError(t, err)
	assert.Equal(t, int64(99), res.Total)
	assert.Len(t, exec.queriesContaining(countMarker), 2)
}

func TestList_RatingFilterJoinsAssessments(t *testing.T) {
	exec := newFakeExecutor()

	_, err := newTestRepository(exec).List(context.Background(), ListRequest{
		Query: filter.Query{Filters: filter.Filters{CSAT: []string{"null", "bad"}}},
	})
	require.NoError(t, err)

	counts := exec.queriesContaining(countMarker)
	require.Len(t, counts, 1)
	assert.Contains(t, counts[0].query, "qa.rn = 1")
	assert.Contains(t, counts[0].query, "(qa.rating IN ($2) OR qa.rating IS NULL)")
	assert.Equal(t, []any{zohoSourceLit, "bad"}, counts[0].args)
}

func TestList_RecentlyReviewedJoinsOnlyPageQuery(t *testing.T) {
	exec := newFakeExecutor()

	_, err := newTestRepository(exec).List(context.Background(), ListRequest{
		Query: filter.Query{Sort: filter.SortRecentlyReviewed},
	})
	require.NoError(t, err)

	assert.NotContains(t, exec.queriesContaining(countMarker)[0].query, "qa_assessments")
	page := exec.queriesContaining(pageMarker)[0].query
	assert.Contains(t, page, "qa_assessments")
	assert.Contains(t, page, "ORDER BY qa.updated_at DESC NULLS LAST, wc.conversation_id ASC")
}

func TestList_ValidationErrorBeforeQuery(t *testing.T) {
	exec := newFakeExecutor()

	_, err := newTestRepository(exec).List(context.Background(), ListRequest{
		Query: filter.Query{Filters: filter.Filters{Channel: []string{"fax"}}},
	})

	var verr *filter.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, exec.calls)
}

func TestList_StoreErrorPropagates(t *testing.T) {
	exec := newFakeExecutor()
	exec.err = &store.Error{Op: "query", Err: errors.New("connection refused")}

	_, err := newTestRepository(exec).List(context.Background(), ListRequest{})

	var serr *store.Error
	require.ErrorAs(t, err, &serr)
	assert.True(t, serr.Retryable())
}

func TestGet(t *testing.T) {
	exec := newFakeExecutor()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	exec.on(getMarker, convRow("c1", created))
	exec.on(msgMarker,
		store.Row{"id": int64(1), "conversation_id": "c1", "message_content": "Hi", "created_at": created, "direction": "inbound"},
		store.Row{"id": int64(2), "conversation_id": "c1", "message_content": `[{"content":{"type":"text","data":"<p>Hello</p>"}}]`, "created_at": created.Add(time.Second), "direction": "outbound", "trace_id": "t-1"},
	)
	repo := newTestRepository(exec)

	conv, found, err := repo.Get(context.Background(), "c1", false)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "c1", conv.ID)
	assert.Nil(t, conv.Messages)
	assert.Empty(t, exec.queriesContaining(msgMarker))

	gets := exec.queriesContaining(getMarker)
	require.Len(t, gets, 1)
	assert.Equal(t, []any{zohoSourceLit, "c1"}, gets[0].args)

	conv, found, err = repo.Get(context.Background(), "c1", true)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "1", conv.Messages[0].ID)
	assert.Equal(t, models.SenderUser, conv.Messages[0].Sender)
	assert.Equal(t, models.SenderAI, conv.Messages[1].Sender)
	assert.Equal(t, models.ContentHTML, conv.Messages[1].ContentFormat)
	assert.Equal(t, "<p>Hello</p>", conv.Messages[1].Content)

	msgs := exec.queriesContaining(msgMarker)
	require.Len(t, msgs, 1)
	assert.Equal(t, []any{"c1", 200}, msgs[0].args)
	assert.Contains(t, msgs[0].query, "ORDER BY wm.created_at ASC")
}

func TestGet_NotFound(t *testing.T) {
	exec := newFakeExecutor()

	_, found, err := newTestRepository(exec).Get(context.Background(), "nope", true)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, exec.queriesContaining(msgMarker))
}

func TestFilterOptions(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(intentMarker, store.Row{"intent": "billing"}, store.Row{"intent": " "}, store.Row{"intent": "sales"})

	opts, err := newTestRepository(exec).FilterOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"billing", "sales"}, opts.IntentOptions)
	assert.Len(t, opts.CSATOptions, 4)
	assert.Nil(t, opts.CSATOptions[3].Value)
	assert.Len(t, opts.SortOptions, len(filter.Sorts()))

	q := exec.queriesContaining(intentMarker)
	require.Len(t, q, 1)
	assert.Equal(t, []any{zohoSourceLit, 500}, q[0].args)
}

func TestMessageTrace(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(traceMarker, store.Row{"id": int64(7), "message_id": "wamid.1", "conversation_id": "c1", "trace_id": "abc", "direction": "outbound"})

	debug, found, err := newTestRepository(exec).MessageTrace(context.Background(), "wamid.1")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "7", debug.ID)
	require.NotNil(t, debug.TraceID)
	assert.Equal(t, "abc", *debug.TraceID)
	require.NotNil(t, debug.LangSmithURL)
	assert.Contains(t, *debug.LangSmithURL, "peek=abc")
	assert.Equal(t, models.SenderAI, debug.Sender)

	q := exec.queriesContaining(traceMarker)
	require.Len(t, q, 1)
	assert.Contains(t, q[0].query, "(CAST(wm.id AS VARCHAR) = $2 OR wm.message_id = $3)")
	assert.Equal(t, []any{zohoSourceLit, "wamid.1", "wamid.1"}, q[0].args)
}

func TestMessageTrace_NoTrace(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(traceMarker, store.Row{"id": int64(7), "trace_id": nil})

	debug, found, err := newTestRepository(exec).MessageTrace(context.Background(), "7")
	require.NoError(t, err)
	require.True(t, found)
	assert.Nil(t, debug.TraceID)
	assert.Nil(t, debug.LangSmithURL)
}

func TestCountInScope(t *testing.T) {
	exec := newFakeExecutor()
	exec.on(scopeMarker, store.Row{"total": int64(42)})

	n, err := newTestRepository(exec).CountInScope(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}
