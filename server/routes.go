package server

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthHandler)

	api := s.app.Group("/api")

	conversations := api.Group("/conversations")
	conversations.Get("/", s.listConversationsHandler)
	conversations.Get("/filters", s.filterOptionsHandler)
	conversations.Get("/filters/schema", s.filterSchemaHandler)
	conversations.Get("/:id", s.getConversationHandler)

	api.Get("/messages/:id/debug", s.messageDebugHandler)

	// static segments are registered before /:conversationId
	assessments := api.Group("/qa-assessments")
	assessments.Get("/tags", s.allTagsHandler)
	assessments.Delete("/tags", s.deleteTagHandler)
	assessments.Post("/bulk", s.bulkAssessmentsHandler)
	assessments.Post("/bulk/rating", s.bulkRatingHandler)
	assessments.Post("/bulk/tags", s.bulkTagsHandler)
	assessments.Get("/:conversationId", s.getAssessmentHandler)
	assessments.Patch("/:conversationId", s.updateAssessmentHandler)
	assessments.Post("/:conversationId/rating", s.setRatingHandler)
	assessments.Post("/:conversationId/tags", s.addTagsHandler)
	assessments.Delete("/:conversationId/tags", s.removeTagsHandler)
	assessments.Post("/:conversationId/notes", s.setNotesHandler)
}
