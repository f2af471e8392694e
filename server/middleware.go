package server

import (
	"time"

	"github.com/NextMind-AI/convo-qa/qa"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/rs/zerolog/log"
)

const reviewerHeader = "X-Reviewer-ID"

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.app.Use(requestLogger)
	s.app.Use(recover.New())

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", reviewerHeader},
		AllowCredentials: true,
	}))
}

// requestLogger writes one zerolog event per request.
func requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		// let the error handler set the status before we read it
		if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	event := log.Info()
	if status >= fiber.StatusInternalServerError {
		event = log.Error()
	} else if status >= fiber.StatusBadRequest {
		event = log.Warn()
	}

	event.
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("reviewer_id", reviewerID(c)).
		Msg("Handled request")

	return nil
}

// reviewerID is set by the auth proxy in front of the API.
func reviewerID(c fiber.Ctx) string {
	if id := c.Get(reviewerHeader); id != "" {
		return id
	}
	return qa.DefaultReviewerID
}
