package server

import (
	"errors"
	"log/slog"

	"jobfinder/internal/middleware"
	"jobfinder/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 100

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
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

// parseID extracts a route parameter as a positive uint. On failure it writes
// a 400 JSON response and returns errResponseWritten; callers should check:
// if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// identity returns the resolved request user, or nil for anonymous requests.
func identity(c *fiber.Ctx) *models.User {
	if u, ok := c.Locals(identityKey).(*models.User); ok {
		return u
	}
	return nil
}

// respondError maps the error's taxonomy code to an HTTP status and writes
// the standard error body.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}

// logWarn records a non-fatal handler problem with request correlation.
func (s *Server) logWarn(c *fiber.Ctx, msg string, err error) {
	fields := []any{slog.String("path", c.Path()), slog.String("error", err.Error())}
	if rid := c.Locals("requestid"); rid != nil {
		fields = append(fields, slog.Any("request_id", rid))
	}
	middleware.Logger.Warn(msg, fields...)
}
