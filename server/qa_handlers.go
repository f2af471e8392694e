package server

import (
	"github.com/NextMind-AI/convo-qa/qa"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

func (s *Server) getAssessmentHandler(c fiber.Ctx) error {
	a, found, err := s.assessments.Get(c.Context(), c.Params("conversationId"))
	if err != nil {
		return err
	}
	if !found {
		return c.JSON(DataResponse{Data: nil})
	}
	return c.JSON(DataResponse{Data: a})
}

func (s *Server) setRatingHandler(c fiber.Ctx) error {
	var req RatingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return invalidParameter("body", "expected {\"rating\": \"good|okay|bad\"}")
	}
	if !req.Rating.Valid() {
		return invalidParameter("rating", "must be good, okay or bad")
	}

	a, err := s.assessments.SetRating(c.Context(), reviewerID(c), c.Params("conversationId"), req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: a})
}

func (s *Server) addTagsHandler(c fiber.Ctx) error {
	var req TagsRequest
	if err := c.Bind().JSON(&req); err != nil || req.Tags == nil {
		return invalidParameter("tags", "must be an array")
	}

	a, err := s.assessments.AddTags(c.Context(), reviewerID(c), c.Params("conversationId"), req.Tags)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: a})
}

func (s *Server) removeTagsHandler(c fiber.Ctx) error {
	var req TagsRequest
	if err := c.Bind().JSON(&req); err != nil || req.Tags == nil {
		return invalidParameter("tags", "must be an array")
	}

	a, found, err := s.assessments.RemoveTags(c.Context(), reviewerID(c), c.Params("conversationId"), req.Tags)
	if err != nil {
		return err
	}
	if !found {
		return c.JSON(DataResponse{Data: nil})
	}
	return c.JSON(DataResponse{Data: a})
}

func (s *Server) setNotesHandler(c fiber.Ctx) error {
	var req NotesRequest
	if err := c.Bind().JSON(&req); err != nil || req.Notes == nil {
		return invalidParameter("notes", "must be a string")
	}

	a, err := s.assessments.SetNotes(c.Context(), reviewerID(c), c.Params("conversationId"), *req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: a})
}

// updateAssessmentHandler handles PATCH /api/qa-assessments/:conversationId
func (s *Server) updateAssessmentHandler(c fiber.Ctx) error {
	var patch qa.Patch
	if err := c.Bind().JSON(&patch); err != nil {
		return invalidParameter("body", "expected any of rating, tags, notes")
	}

	a, err := s.assessments.Update(c.Context(), reviewerID(c), c.Params("conversationId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: a})
}

func (s *Server) bulkAssessmentsHandler(c fiber.Ctx) error {
	var req BulkRequest
	if err := c.Bind().JSON(&req); err != nil || req.ConversationIDs == nil {
		return invalidParameter("conversationIds", "must be an array")
	}

	assessments, err := s.assessments.GetBulk(c.Context(), req.ConversationIDs)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: assessments})
}

func (s *Server) bulkRatingHandler(c fiber.Ctx) error {
	var req BulkRequest
	if err := c.Bind().JSON(&req); err != nil || req.ConversationIDs == nil {
		return invalidParameter("conversationIds", "must be an array")
	}
	if !req.Rating.Valid() {
		return invalidParameter("rating", "must be good, okay or bad")
	}

	log.Info().
		Int("count", len(req.ConversationIDs)).
		Str("rating", string(req.Rating)).
		Str("reviewer_id", reviewerID(c)).
		Msg("Bulk rating conversations")

	results, err := s.assessments.SetBulkRating(c.Context(), reviewerID(c), req.ConversationIDs, req.Rating)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: results})
}

func (s *Server) bulkTagsHandler(c fiber.Ctx) error {
	var req BulkRequest
	if err := c.Bind().JSON(&req); err != nil || req.ConversationIDs == nil {
		return invalidParameter("conversationIds", "must be an array")
	}
	if req.Tags == nil {
		return invalidParameter("tags", "must be an array")
	}

	if err := s.assessments.AddBulkTags(c.Context(), reviewerID(c), req.ConversationIDs, req.Tags); err != nil {
		return err
	}

	assessments, err := s.assessments.GetBulk(c.Context(), req.ConversationIDs)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: assessments})
}

func (s *Server) allTagsHandler(c fiber.Ctx) error {
	tags, err := s.assessments.GetAllTags(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: tags})
}

// deleteTagHandler handles DELETE /api/qa-assessments/tags with {"tag": "..."}
func (s *Server) deleteTagHandler(c fiber.Ctx) error {
	var req TagRequest
	if err := c.Bind().JSON(&req); err != nil || req.Tag == "" {
		return invalidParameter("tag", "is required")
	}

	n, err := s.assessments.DeleteTag(c.Context(), req.Tag)
	if err != nil {
		return err
	}
	return c.JSON(DataResponse{Data: DeleteTagResponse{Tag: req.Tag, Updated: n}})
}
