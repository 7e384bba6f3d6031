package server

import (
	"jobfinder/internal/cache"
	"jobfinder/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetPendingLookups handles GET /api/pending-lookups (admin). By default
// only unreviewed proposals are returned; ?include_reviewed=true shows the
// full history.
func (s *Server) GetPendingLookups(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	proposals, err := s.pendingRepo.List(c.Context(), c.QueryBool("include_reviewed", false), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": proposals})
}

// ApprovePendingLookup handles POST /api/pending-lookups/:id/approve
// (admin). The proposal's text becomes a first-class lookup value in its
// category.
func (s *Server) ApprovePendingLookup(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reviewer := identity(c)

	proposal, err := s.pendingRepo.Approve(c.Context(), id, reviewer.ID)
	if err != nil {
		return respondError(c, err)
	}

	middleware.ModerationDecisions.WithLabelValues("proposal", "approved").Inc()
	cache.InvalidateLookup(c.Context(), string(proposal.Category))
	return c.JSON(proposal)
}
