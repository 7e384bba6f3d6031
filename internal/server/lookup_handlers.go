package server

import (
	"jobfinder/internal/cache"
	"jobfinder/internal/models"
	"jobfinder/internal/policy"
	"jobfinder/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// Lookup handlers are free generic functions rather than Server methods
// because methods cannot carry type parameters. Each category gets its own
// route group with the same shape.
func registerLookupRoutes[T models.LookupValue](s *Server, api fiber.Router, category models.LookupCategory, repo repository.LookupRepository[T]) {
	g := api.Group("/lookups/" + string(category))
	g.Get("/", listLookups(s, category, repo))

	admin := g.Group("", s.AuthRequired(), s.AdminRequired())
	admin.Post("/", createLookup(s, category, repo))
	// /update-order must precede the generic /:code routes.
	admin.Post("/update-order", reorderLookups(s, category, repo))
	admin.Put("/:code", updateLookup(s, category, repo))
	admin.Delete("/:code", deleteLookup(s, category, repo))
}

// listLookups serves the public category list: active rows, name-ascending,
// sentinel last. Admins may pass ?include_inactive=true to see everything.
// Only the public variant is cached.
func listLookups[T models.LookupValue](s *Server, category models.LookupCategory, repo repository.LookupRepository[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		includeInactive := c.QueryBool("include_inactive", false)
		if includeInactive {
			user, appErr := s.resolveIdentity(c)
			if appErr != nil || !policy.IsAdmin(user) {
				return models.RespondWithError(c, fiber.StatusForbidden,
					models.NewPermissionError("Admin access required to view inactive values"))
			}
			items, err := repo.List(c.Context(), true)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(fiber.Map{"items": items})
		}

		var items []T
		err := cache.Aside(c.Context(), cache.LookupKey(string(category)), &items, cache.LookupTTL, func() error {
			fetched, err := repo.List(c.Context(), false)
			if err != nil {
				return err
			}
			items = fetched
			return nil
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"items": items})
	}
}

func createLookup[T models.LookupValue](s *Server, category models.LookupCategory, repo repository.LookupRepository[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		item := new(T)
		if err := c.BodyParser(item); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		if err := repo.Create(c.Context(), item); err != nil {
			return respondError(c, err)
		}
		cache.InvalidateLookup(c.Context(), string(category))
		return c.Status(fiber.StatusCreated).JSON(item)
	}
}

// lookupUpdatableFields are the body keys an admin may change on a lookup
// row. Code is immutable; use delete+create to recode.
var lookupUpdatableFields = map[string]string{
	"name":        "name",
	"description": "description",
	"website":     "website",
	"symbol":      "symbol",
	"is_active":   "is_active",
	"order":       "sort_order",
}

func updateLookup[T models.LookupValue](s *Server, category models.LookupCategory, repo repository.LookupRepository[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		fields := make(map[string]any, len(body))
		for key, value := range body {
			if column, ok := lookupUpdatableFields[key]; ok {
				fields[column] = value
			}
		}
		if err := repo.UpdateFields(c.Context(), code, fields); err != nil {
			return respondError(c, err)
		}
		cache.InvalidateLookup(c.Context(), string(category))
		item, err := repo.GetByCode(c.Context(), code)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(item)
	}
}

func deleteLookup[T models.LookupValue](s *Server, category models.LookupCategory, repo repository.LookupRepository[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")
		if err := repo.Delete(c.Context(), code); err != nil {
			return respondError(c, err)
		}
		cache.InvalidateLookup(c.Context(), string(category))
		return c.JSON(fiber.Map{"message": "Deleted"})
	}
}

func reorderLookups[T models.LookupValue](s *Server, category models.LookupCategory, repo repository.LookupRepository[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Items []repository.OrderUpdate `json:"items"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		if err := repo.Reorder(c.Context(), req.Items); err != nil {
			return respondError(c, err)
		}
		cache.InvalidateLookup(c.Context(), string(category))
		return c.JSON(fiber.Map{"message": "Order updated"})
	}
}
