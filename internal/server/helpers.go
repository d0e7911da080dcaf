package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten indicates a helper already committed the response.
// Handlers must return nil, not this error, so the ErrorHandler leaves it alone.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters. A zero limit lists
// everything.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

func parsePagination(c *fiber.Ctx) Pagination {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		limit = 0
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID reads a route parameter that must be a document id. On failure it
// writes a 400 response and returns errResponseWritten.
// The message names the parameter ("id" -> "Invalid ID", "friendId" ->
// "Invalid friend ID").
func parseID(c *fiber.Ctx, param, label string) (string, error) {
	id := c.Params(param)
	if !models.IsValidID(id) {
		if label == "" {
			label = humanizeParam(param)
		}
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+label))
		return "", errResponseWritten
	}
	return id, nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parseBody decodes the JSON body into dst, writing a 400 on malformed input.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation, models.CodeConflict:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Server-side failures are
// logged with the request context.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.Int("status", status),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}
