package server

import (
	"context"

	"github.com/NextMind-AI/convo-qa/conversation"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/NextMind-AI/convo-qa/qa"
)

type mockConversations struct {
	listReq     conversation.ListRequest
	listResult  conversation.ListResult
	listErr     error
	conv        models.Conversation
	found       bool
	getID       string
	getMessages bool
	options     conversation.FilterOptions
	debug       conversation.MessageDebug
	debugFound  bool
	err         error
	pingErr     error
}

func (m *mockConversations) List(_ context.Context, req conversation.ListRequest) (conversation.ListResult, error) {
	m.listReq = req
	return m.listResult, m.listErr
}

func (m *mockConversations) Get(_ context.Context, id string, includeMessages bool) (models.Conversation, bool, error) {
	m.getID = id
	m.getMessages = includeMessages
	return m.conv, m.found, m.err
}

func (m *mockConversations) FilterOptions(context.Context) (conversation.FilterOptions, error) {
	return m.options, m.err
}

func (m *mockConversations) MessageTrace(context.Context, string) (conversation.MessageDebug, bool, error) {
	return m.debug, m.debugFound, m.err
}

func (m *mockConversations) Ping(context.Context) error {
	return m.pingErr
}

type mockAssessments struct {
	reviewer   string
	convID     string
	rating     models.QARating
	tags       []string
	notes      string
	patch      qa.Patch
	ids        []string
	deletedTag string

	assessment models.QAAssessment
	found      bool
	bulk       map[string]*models.QAAssessment
	allTags    []string
	err        error
}

func (m *mockAssessments) Get(_ context.Context, conversationID string) (models.QAAssessment, bool, error) {
	m.convID = conversationID
	return m.assessment, m.found, m.err
}

func (m *mockAssessments) SetRating(_ context.Context, reviewerID, conversationID string, rating models.QARating) (models.QAAssessment, error) {
	m.reviewer, m.convID, m.rating = reviewerID, conversationID, rating
	return m.assessment, m.err
}

func (m *mockAssessments) AddTags(_ context.Context, reviewerID, conversationID string, tags []string) (models.QAAssessment, error) {
	m.reviewer, m.convID, m.tags = reviewerID, conversationID, tags
	return m.assessment, m.err
}

func (m *mockAssessments) RemoveTags(_ context.Context, reviewerID, conversationID string, tags []string) (models.QAAssessment, bool, error) {
	m.reviewer, m.convID, m.tags = reviewerID, conversationID, tags
	return m.assessment, m.found, m.err
}

func (m *mockAssessments) SetNotes(_ context.Context, reviewerID, conversationID, notes string) (models.QAAssessment, error) {
	m.reviewer, m.convID, m.notes = reviewerID, conversationID, notes
	return m.assessment, m.err
}

func (m *mockAssessments) Update(_ context.Context, reviewerID, conversationID string, p qa.Patch) (models.QAAssessment, error) {
	m.reviewer, m.convID, m.patch = reviewerID, conversationID, p
	return m.assessment, m.err
}

func (m *mockAssessments) GetBulk(_ context.Context, conversationIDs []string) (map[string]*models.QAAssessment, error) {
	m.ids = conversationIDs
	return m.bulk, m.err
}

func (m *mockAssessments) GetAllTags(context.Context) ([]string, error) {
	return m.allTags, m.err
}

func (m *mockAssessments) DeleteTag(_ context.Context, tag string) (int, error) {
	m.deletedTag = tag
	return 3, m.err
}

func (m *mockAssessments) SetBulkRating(_ context.Context, reviewerID string, conversationIDs []string, rating models.QARating) (map[string]models.QAAssessment, error) {
	m.reviewer, m.ids, m.rating = reviewerID, conversationIDs, rating
	out := make(map[string]models.QAAssessment, len(conversationIDs))
	for _, id := range conversationIDs {
		out[id] = models.QAAssessment{ConversationID: id, Rating: rating}
	}
	return out, m.err
}

func (m *mockAssessments) AddBulkTags(_ context.Context, reviewerID string, conversationIDs []string, tags []string) error {
	m.reviewer, m.ids, m.tags = reviewerID, conversationIDs, tags
	return m.err
}
