package server

import (
	"github.com/NextMind-AI/convo-qa/filter"
	"github.com/NextMind-AI/convo-qa/models"
)

// DataResponse wraps every successful payload.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

// ListParams documents the query string of GET /api/conversations. Multi-select
// fields may be repeated or comma separated.
type ListParams struct {
	filter.Filters
	Search   string `json:"search,omitempty" jsonschema:"description=Case-insensitive match on summary, intent, conversation id and feedback"`
	SortBy   string `json:"sortBy,omitempty" jsonschema:"enum=newest,enum=oldest,enum=most_messages,enum=fewest_messages,enum=longest,enum=shortest,enum=csat_high,enum=csat_low,enum=recently_reviewed,default=newest"`
	Page     int    `json:"page,omitempty" jsonschema:"minimum=1,default=1"`
	PageSize int    `json:"pageSize,omitempty" jsonschema:"minimum=1,default=50"`
}

type RatingRequest struct {
	Rating models.QARating `json:"rating"`
}

type TagsRequest struct {
	Tags []string `json:"tags"`
}

type TagRequest struct {
	Tag string `json:"tag"`
}

type NotesRequest struct {
	Notes *string `json:"notes"`
}

type BulkRequest struct {
	ConversationIDs []string        `json:"conversationIds"`
	Rating          models.QARating `json:"rating,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type DeleteTagResponse struct {
	Tag     string `json:"tag"`
	Updated int    `json:"updated"`
}
