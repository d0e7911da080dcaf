package server

import (
	"thoughtnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListThoughts handles GET /api/thoughts
// @Summary List thoughts
// @Tags thoughts
// @Produce json
// @Param limit query int false "Page size (all when omitted)"
// @Param offset query int false "Offset"
// @Success 200 {array} presenter.ThoughtView
// @Router /thoughts [get]
func (s *Server) ListThoughts(c *fiber.Ctx) error {
	page := parsePagination(c)
	thoughts, err := s.thoughtService.ListThoughts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thoughts)
}

// GetThought handles GET /api/thoughts/:id
// @Summary Get a thought
// @Tags thoughts
// @Produce json
// @Param id path string true "Thought ID"
// @Success 200 {object} presenter.ThoughtView
// @Failure 404 {object} models.ErrorResponse
// @Router /thoughts/{id} [get]
func (s *Server) GetThought(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "thought ID")
	if err != nil {
		return nil
	}
	thought, err := s.thoughtService.GetThought(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thought)
}

// CreateThought handles POST /api/thoughts
// @Summary Create a thought and attach it to its user
// @Tags thoughts
// @Accept json
// @Produce json
// @Param request body service.CreateThoughtInput true "Thought"
// @Success 201 {object} presenter.ThoughtView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /thoughts [post]
func (s *Server) CreateThought(c *fiber.Ctx) error {
	var req service.CreateThoughtInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	thought, err := s.thoughtService.CreateThought(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(thought)
}

// UpdateThought handles PUT /api/thoughts/:id
// @Summary Replace a thought's text
// @Tags thoughts
// @Accept json
// @Produce json
// @Param id path string true "Thought ID"
// @Param request body service.UpdateThoughtInput true "Text"
// @Success 200 {object} presenter.ThoughtView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /thoughts/{id} [put]
func (s *Server) UpdateThought(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "thought ID")
	if err != nil {
		return nil
	}
	var req service.UpdateThoughtInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	thought, err := s.thoughtService.UpdateThoughtText(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thought)
}

// DeleteThought handles DELETE /api/thoughts/:id
// @Summary Delete a thought
// @Tags thoughts
// @Produce json
// @Param id path string true "Thought ID"
// @Success 200 {object} service.MessageResult
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /thoughts/{id} [delete]
func (s *Server) DeleteThought(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "thought ID")
	if err != nil {
		return nil
	}
	res, err := s.thoughtService.DeleteThought(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// AddReaction handles POST /api/thoughts/:id/reactions
// @Summary Add a reaction
// @Tags reactions
// @Accept json
// @Produce json
// @Param id path string true "Thought ID"
// @Param request body service.AddReactionInput true "Reaction"
// @Success 200 {object} presenter.ThoughtView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /thoughts/{id}/reactions [post]
func (s *Server) AddReaction(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "thought ID")
	if err != nil {
		return nil
	}
	var req service.AddReactionInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	thought, err := s.thoughtService.AddReaction(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thought)
}

// DeleteReaction handles DELETE /api/thoughts/:id/reactions/:reactionId
// @Summary Remove a reaction
// @Tags reactions
// @Produce json
// @Param id path string true "Thought ID"
// @Param reactionId path string true "Reaction ID"
// @Success 200 {object} presenter.ThoughtView
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /thoughts/{id}/reactions/{reactionId} [delete]
func (s *Server) DeleteReaction(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "thought ID")
	if err != nil {
		return nil
	}
	reactionID, err := parseID(c, "reactionId", "")
	if err != nil {
		return nil
	}
	thought, err := s.thoughtService.DeleteReaction(c.UserContext(), id, reactionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thought)
}
