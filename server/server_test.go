package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NextMind-AI/convo-qa/conversation"
	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/NextMind-AI/convo-qa/qa"
	"github.com/NextMind-AI/convo-qa/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() (*Server, *mockConversations, *mockAssessments) {
	conv := &mockConversations{}
	assess := &mockAssessments{}
	return New(conv, assess, Config{}), conv, assess
}

func do(t *testing.T, s *Server, method, target, body string, headers ...string) (int, map[string]any) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	s, conv, _ := newTestServer()

	status, body := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	conv.pingErr = errors.New("down")
	status, body = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", body["status"])
}

func TestListConversations_ParsesQuery(t *testing.T) {
	s, conv, _ := newTestServer()
	conv.listResult = conversation.ListResult{
		Conversations: []models.Conversation{{ID: "c1"}},
		Total:         1,
		Page:          2,
		PageSize:      25,
		TotalPages:    1,
	}

	target := "/api/conversations?csat=good&csat=null,bad&channel=whatsapp&intent=billing,%20refunds&intent=sales" +
		"&dateFrom=2024-05-01&dateTo=2024-05-31&humanHandover=true&leadCreated=null&needsHuman=false" +
		"&studentCsat=positive&search=refund&sortBy=most_messages&page=2&pageSize=25"

	status, body := do(t, s, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, status)

	req := conv.listReq
	assert.Equal(t, []string{"good", "null", "bad"}, req.Query.Filters.CSAT)
	assert.Equal(t, []string{"whatsapp"}, req.Query.Filters.Channel)
	assert.Equal(t, []string{"billing, refunds", "sales"}, req.Query.Filters.Intent)
	assert.Equal(t, []string{"positive"}, req.Query.Filters.StudentCSAT)
	assert.Equal(t, "2024-05-01", req.Query.Filters.DateFrom)
	assert.Equal(t, "2024-05-31", req.Query.Filters.DateTo)
	require.NotNil(t, req.Query.Filters.HumanHandover)
	assert.True(t, *req.Query.Filters.HumanHandover)
	assert.Equal(t, filter.NoData, req.Query.Filters.LeadCreated)
	assert.Equal(t, filter.False, req.Query.Filters.NeedsHuman)
	assert.Equal(t, "refund", req.Query.Search)
	assert.Equal(t, filter.SortMostMessages, req.Query.Sort)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 25, req.PageSize)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])
	assert.Len(t, data["conversations"], 1)
}

func TestListConversations_RejectsBadParameters(t *testing.T) {
	testCases := []struct {
		query string
		field string
	}{
		{"humanHandover=maybe", "humanHandover"},
		{"leadCreated=perhaps", "leadCreated"},
		{"needsHuman=2", "needsHuman"},
		{"sortBy=random()", "sortBy"},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			s, _, _ := newTestServer()
			status, body := do(t, s, http.MethodGet, "/api/conversations?"+tc.query, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "INVALID_PARAMETER", errorCode(body))
			details := body["error"].(map[string]any)["details"].(map[string]any)
			assert.Equal(t, tc.field, details["field"])
		})
	}
}

func TestListConversations_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name      string
		err       error
		status    int
		code      string
		retryable bool
	}{
		{"validation", &filter.ValidationError{Field: "dateTo", Message: "before dateFrom"}, http.StatusBadRequest, "INVALID_PARAMETER", false},
		{"timeout", &store.Error{Op: "query", Err: fmt.Errorf("%w: deadline", store.ErrTimeout)}, http.StatusGatewayTimeout, "QUERY_TIMEOUT", true},
		{"store", &store.Error{Op: "query", Err: errors.New("connection refused")}, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", true},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, conv, _ := newTestServer()
			conv.listErr = tc.err

			status, body := do(t, s, http.MethodGet, "/api/conversations", "")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, errorCode(body))
			assert.Equal(t, tc.retryable, body["error"].(map[string]any)["retryable"])
		})
	}
}

func TestGetConversation(t *testing.T) {
	s, conv, _ := newTestServer()
	conv.conv = models.Conversation{ID: "c1"}
	conv.found = true

	status, body := do(t, s, http.MethodGet, "/api/conversations/c1?messages=true", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "c1", conv.getID)
	assert.True(t, conv.getMessages)
	assert.Equal(t, "c1", body["data"].(map[string]any)["id"])

	conv.found = false
	status, body = do(t, s, http.MethodGet, "/api/conversations/c2", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
	assert.False(t, conv.getMessages)
}

func TestFilterOptionsAndSchema(t *testing.T) {
	s, conv, _ := newTestServer()
	conv.options = conversation.FilterOptions{IntentOptions: []string{"billing"}}

	status, body := do(t, s, http.MethodGet, "/api/conversations/filters", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"billing"}, body["data"].(map[string]any)["intentOptions"])

	status, body = do(t, s, http.MethodGet, "/api/conversations/filters/schema", "")
	assert.Equal(t, http.StatusOK, status)
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sortBy")
	assert.Contains(t, string(raw), "leadCreated")
}

func TestMessageDebug(t *testing.T) {
	s, conv, _ := newTestServer()
	url := "https://smith.langchain.com/o/org/projects/p"
	conv.debug = conversation.MessageDebug{ID: "42", LangSmithURL: &url}
	conv.debugFound = true

	status, body := do(t, s, http.MethodGet, "/api/messages/42/debug", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, url, body["data"].(map[string]any)["langsmithUrl"])

	conv.debugFound = false
	status, _ = do(t, s, http.MethodGet, "/api/messages/43/debug", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAssessmentRoutes(t *testing.T) {
	s, _, assess := newTestServer()
	assess.assessment = models.QAAssessment{ID: "a1", ConversationID: "c1", Rating: models.RatingGood}

	status, body := do(t, s, http.MethodGet, "/api/qa-assessments/c1", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["data"])
	assert.Contains(t, body, "data")

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/c1/rating", `{"rating":"good"}`, reviewerHeader, "rev-7")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "rev-7", assess.reviewer)
	assert.Equal(t, models.RatingGood, assess.rating)

	status, body = do(t, s, http.MethodPost, "/api/qa-assessments/c1/rating", `{"rating":"great"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(body))

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/c1/tags", `{"tags":["pricing"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, qa.DefaultReviewerID, assess.reviewer)
	assert.Equal(t, []string{"pricing"}, assess.tags)

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/c1/tags", `{"tags":"pricing"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	assess.found = true
	status, body = do(t, s, http.MethodDelete, "/api/qa-assessments/c1/tags", `{"tags":["pricing"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a1", body["data"].(map[string]any)["id"])

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/c1/notes", `{"notes":"ok"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", assess.notes)

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/c1/notes", `{"notes":5}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, s, http.MethodPatch, "/api/qa-assessments/c1", `{"rating":"bad","tags":[]}`)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, assess.patch.Rating)
	assert.Equal(t, models.RatingBad, *assess.patch.Rating)
	require.NotNil(t, assess.patch.Tags)
	assert.Empty(t, *assess.patch.Tags)
	assert.Nil(t, assess.patch.Notes)
}

func TestAssessmentRoutes_StoreValidation(t *testing.T) {
	s, _, assess := newTestServer()
	assess.err = qa.ErrInvalidTag

	status, body := do(t, s, http.MethodPost, "/api/qa-assessments/c1/tags", `{"tags":["a,b"]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(body))
}

func TestBulkAndTagRoutes(t *testing.T) {
	s, _, assess := newTestServer()
	a := models.QAAssessment{ID: "a1", ConversationID: "c1"}
	assess.bulk = map[string]*models.QAAssessment{"c1": &a, "c2": nil}
	assess.allTags = []string{"bug", "pricing"}

	status, body := do(t, s, http.MethodPost, "/api/qa-assessments/bulk", `{"conversationIds":["c1","c2"]}`)
	assert.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.NotNil(t, data["c1"])
	assert.Nil(t, data["c2"])
	assert.Equal(t, []string{"c1", "c2"}, assess.ids)

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/bulk", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, s, http.MethodPost, "/api/qa-assessments/bulk/rating", `{"conversationIds":["c1","c2"],"rating":"okay"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)
	assert.Equal(t, models.RatingOkay, assess.rating)

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/bulk/rating", `{"conversationIds":["c1"]}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, s, http.MethodPost, "/api/qa-assessments/bulk/tags", `{"conversationIds":["c1"],"tags":["x"]}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"x"}, assess.tags)

	status, body = do(t, s, http.MethodGet, "/api/qa-assessments/tags", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"bug", "pricing"}, body["data"])

	status, body = do(t, s, http.MethodDelete, "/api/qa-assessments/tags", `{"tag":"bug"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bug", assess.deletedTag)
	assert.Equal(t, float64(3), body["data"].(map[string]any)["updated"])
}

func TestUnknownRoute(t *testing.T) {
	s, _, _ := newTestServer()

	status, body := do(t, s, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}
