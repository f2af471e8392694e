package server

import (
	"github.com/gofiber/fiber/v3"
	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog/log"
)

var listSchema = jsonschema.Reflect(&ListParams{})

func (s *Server) healthHandler(c fiber.Ctx) error {
	if err := s.conversations.Ping(c.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{Status: "unavailable"})
	}
	return c.JSON(HealthResponse{Status: "ok"})
}

// listConversationsHandler handles GET /api/conversations
func (s *Server) listConversationsHandler(c fiber.Ctx) error {
	req, err := listRequest(c)
	if err != nil {
		return err
	}

	log.Debug().
		Int("page", req.Page).
		Int("page_size", req.PageSize).
		Str("sort", string(req.Query.Sort)).
		Msg("Listing conversations")

	result, err := s.conversations.List(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: result})
}

func (s *Server) filterOptionsHandler(c fiber.Ctx) error {
	options, err := s.conversations.FilterOptions(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: options})
}

func (s *Server) filterSchemaHandler(c fiber.Ctx) error {
	return c.JSON(listSchema)
}

// getConversationHandler handles GET /api/conversations/:id?messages=true
func (s *Server) getConversationHandler(c fiber.Ctx) error {
	id := c.Params("id")
	includeMessages := c.Query("messages") == "true"

	conv, found, err := s.conversations.Get(c.Context(), id, includeMessages)
	if err != nil {
		return err
	}
	if !found {
		return notFound(c, "Conversation not found")
	}
	return c.JSON(DataResponse{Data: conv})
}

func (s *Server) messageDebugHandler(c fiber.Ctx) error {
	id := c.Params("id")

	debug, found, err := s.conversations.MessageTrace(c.Context(), id)
	if err != nil {
		return err
	}
	if !found {
		return notFound(c, "Message not found")
	}
	return c.JSON(DataResponse{Data: debug})
}
