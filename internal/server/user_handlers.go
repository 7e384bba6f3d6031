package server

import (
	"jobfinder/internal/models"
	"jobfinder/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users (admin)
func (s *Server) GetUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	users, err := s.userRepo.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": users})
}

// GetUser handles GET /api/users/:id. Accounts whose status blocks
// authentication read as absent to non-admin viewers.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	viewer := identity(c)
	if !policy.IsAdmin(viewer) && viewer.ID != user.ID {
		switch user.StatusCode {
		case models.StatusBanned, models.StatusSuspended, models.StatusInactive:
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("User", id))
		}
	}
	return c.JSON(user)
}

// SetUserStatus handles POST /api/users/:id/set-status (admin)
func (s *Server) SetUserStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("status", "Status is required"))
	}
	if err := s.userRepo.SetStatus(c.Context(), id, req.Status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": id, "status": req.Status})
}
