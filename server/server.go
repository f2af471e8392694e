// Package server exposes the review console API over fiber.
package server

import (
	"context"

	"github.com/NextMind-AI/convo-qa/conversation"
	"github.com/NextMind-AI/convo-qa/models"
	"github.com/NextMind-AI/convo-qa/qa"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// Conversations is the read side of the console, backed by the warehouse.
type Conversations interface {
	List(ctx context.Context, req conversation.ListRequest) (conversation.ListResult, error)
	Get(ctx context.Context, id string, includeMessages bool) (models.Conversation, bool, error)
	FilterOptions(ctx context.Context) (conversation.FilterOptions, error)
	MessageTrace(ctx context.Context, id string) (conversation.MessageDebug, bool, error)
	Ping(ctx context.Context) error
}

// Assessments is the reviewer write side.
type Assessments interface {
	Get(ctx context.Context, conversationID string) (models.QAAssessment, bool, error)
	SetRating(ctx context.Context, reviewerID, conversationID string, rating models.QARating) (models.QAAssessment, error)
	AddTags(ctx context.Context, reviewerID, conversationID string, tags []string) (models.QAAssessment, error)
	RemoveTags(ctx context.Context, reviewerID, conversationID string, tags []string) (models.QAAssessment, bool, error)
	SetNotes(ctx context.Context, reviewerID, conversationID, notes string) (models.QAAssessment, error)
	Update(ctx context.Context, reviewerID, conversationID string, p qa.Patch) (models.QAAssessment, error)
	GetBulk(ctx context.Context, conversationIDs []string) (map[string]*models.QAAssessment, error)
	GetAllTags(ctx context.Context) ([]string, error)
	DeleteTag(ctx context.Context, tag string) (int, error)
	SetBulkRating(ctx context.Context, reviewerID string, conversationIDs []string, rating models.QARating) (map[string]models.QAAssessment, error)
	AddBulkTags(ctx context.Context, reviewerID string, conversationIDs []string, tags []string) error
}

type Config struct {
	CORSOrigins []string
}

type Server struct {
	app           *fiber.App
	conversations Conversations
	assessments   Assessments
	cfg           Config
}

func New(conversations Conversations, assessments Assessments, cfg Config) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "convo-qa",
		ErrorHandler: errorHandler,
	})

	server := &Server{
		app:           app,
		conversations: conversations,
		assessments:   assessments,
		cfg:           cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start(port string) error {
	log.Info().Str("port", port).Msg("Starting review console API")

	return s.app.Listen(":"+port, fiber.ListenConfig{
		DisableStartupMessage: true,
	})
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
