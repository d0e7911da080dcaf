package server

import (
	"thoughtnet/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size (all when omitted)"
// @Param offset query int false "Offset"
// @Success 200 {array} presenter.UserSummary
// @Failure 500 {object} models.ErrorResponse
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page := parsePagination(c)
	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUser handles GET /api/users/:id
// @Summary Get a user with populated thoughts and friends
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} presenter.UserView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// CreateUser handles POST /api/users
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.CreateUserInput true "User"
// @Success 201 {object} presenter.UserSummary
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.CreateUser(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser handles PUT /api/users/:id
// @Summary Update username and email
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body service.UpdateUserInput true "User"
// @Success 200 {object} presenter.UserSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}
	var req service.UpdateUserInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateUser(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:id
// @Summary Delete a user and the thoughts it owns
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} service.DeleteUserResult
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}
	res, err := s.userService.DeleteUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// AddFriend handles POST /api/users/:id/friends/:friendId
// @Summary Add a friend (one-directional)
// @Tags friends
// @Produce json
// @Param id path string true "User ID"
// @Param friendId path string true "Friend ID"
// @Success 200 {object} service.MessageResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/friends/{friendId} [post]
func (s *Server) AddFriend(c *fiber.Ctx) error {
	userID, friendID, err := friendParams(c)
	if err != nil {
		return nil
	}
	res, err := s.userService.AddFriend(c.UserContext(), userID, friendID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// RemoveFriend handles DELETE /api/users/:id/friends/:friendId
// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Param id path string true "User ID"
// @Param friendId path string true "Friend ID"
// @Success 200 {object} service.MessageResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/friends/{friendId} [delete]
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	userID, friendID, err := friendParams(c)
	if err != nil {
		return nil
	}
	res, err := s.userService.RemoveFriend(c.UserContext(), userID, friendID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func friendParams(c *fiber.Ctx) (string, string, error) {
	userID, err := parseID(c, "id", "user ID")
	if err != nil {
		return "", "", err
	}
	friendID, err := parseID(c, "friendId", "")
	if err != nil {
		return "", "", err
	}
	return userID, friendID, nil
}
