package server

import (
	"time"

	"jobfinder/internal/middleware"
	"jobfinder/internal/models"
	"jobfinder/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// formPayload is the write shape of a listing. Lookups are referenced by
// code; the matching *_other field carries the free text when the code is
// the "other" sentinel.
type formPayload struct {
	Title string `json:"title"`

	VerifiedCompanyCode *string `json:"verified_company"`
	WorkFormatCode      *string `json:"work_format"`
	JobTypeCode         *string `json:"job_type"`
	SalaryCurrencyCode  *string `json:"salary_currency"`

	VerifiedCompanyOther string `json:"verified_company_other"`
	WorkFormatOther      string `json:"work_format_other"`
	JobTypeOther         string `json:"job_type_other"`
	SalaryCurrencyOther  string `json:"salary_currency_other"`

	ContactEmail     string `json:"contact_email"`
	ApplicationEmail string `json:"application_email"`
	ApplicationURL   string `json:"application_url"`
	Address          string `json:"address"`

	SalaryFrom        *float64 `json:"salary_from"`
	SalaryTo          *float64 `json:"salary_to"`
	NumberOfPositions int      `json:"number_of_positions"`

	Description        string `json:"description"`
	Responsibilities   string `json:"responsibilities"`
	Requirements       string `json:"requirements"`
	RequiredExperience string `json:"required_experience"`
	Benefits           string `json:"benefits"`

	ExpiresAt *time.Time `json:"expires_at"`
}

// applyPayload copies the payload onto the form, resolving lookup codes to
// rows. An unknown code is a field-naming validation error.
func (s *Server) applyPayload(c *fiber.Ctx, form *models.Form, req *formPayload) error {
	form.Title = req.Title
	form.VerifiedCompanyOther = req.VerifiedCompanyOther
	form.WorkFormatOther = req.WorkFormatOther
	form.JobTypeOther = req.JobTypeOther
	form.SalaryCurrencyOther = req.SalaryCurrencyOther
	form.ContactEmail = req.ContactEmail
	form.ApplicationEmail = req.ApplicationEmail
	form.ApplicationURL = req.ApplicationURL
	form.Address = req.Address
	form.SalaryFrom = req.SalaryFrom
	form.SalaryTo = req.SalaryTo
	if req.NumberOfPositions > 0 {
		form.NumberOfPositions = req.NumberOfPositions
	}
	form.Description = req.Description
	form.Responsibilities = req.Responsibilities
	form.Requirements = req.Requirements
	form.RequiredExperience = req.RequiredExperience
	form.Benefits = req.Benefits
	form.ExpiresAt = req.ExpiresAt

	ctx := c.Context()

	form.VerifiedCompanyID, form.VerifiedCompany = nil, nil
	if req.VerifiedCompanyCode != nil && *req.VerifiedCompanyCode != "" {
		item, err := s.companyRepo.GetByCode(ctx, *req.VerifiedCompanyCode)
		if err != nil {
			return err
		}
		if item == nil {
			return models.NewFieldValidationError("verified_company", "Unknown company code")
		}
		form.VerifiedCompanyID, form.VerifiedCompany = &item.ID, item
	}

	form.WorkFormatID, form.WorkFormat = nil, nil
	if req.WorkFormatCode != nil && *req.WorkFormatCode != "" {
		item, err := s.workFormatRepo.GetByCode(ctx, *req.WorkFormatCode)
		if err != nil {
			return err
		}
		if item == nil {
			return models.NewFieldValidationError("work_format", "Unknown work format code")
		}
		form.WorkFormatID, form.WorkFormat = &item.ID, item
	}

	form.JobTypeID, form.JobType = nil, nil
	if req.JobTypeCode != nil && *req.JobTypeCode != "" {
		item, err := s.jobTypeRepo.GetByCode(ctx, *req.JobTypeCode)
		if err != nil {
			return err
		}
		if item == nil {
			return models.NewFieldValidationError("job_type", "Unknown job type code")
		}
		form.JobTypeID, form.JobType = &item.ID, item
	}

	form.SalaryCurrencyID, form.SalaryCurrency = nil, nil
	if req.SalaryCurrencyCode != nil && *req.SalaryCurrencyCode != "" {
		item, err := s.currencyRepo.GetByCode(ctx, *req.SalaryCurrencyCode)
		if err != nil {
			return err
		}
		if item == nil {
			return models.NewFieldValidationError("salary_currency", "Unknown currency code")
		}
		form.SalaryCurrencyID, form.SalaryCurrency = &item.ID, item
	}

	return nil
}

// GetForms handles GET /api/forms
func (s *Server) GetForms(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	forms, err := s.formRepo.List(c.Context(), identity(c), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": forms})
}

// GetHiddenForms handles GET /api/forms/hidden (admin)
func (s *Server) GetHiddenForms(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	forms, err := s.formRepo.ListHidden(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"items": forms})
}

// GetForm handles GET /api/forms/:id. Listings that are not publicly
// visible read as absent to everyone but their owner and admins.
func (s *Server) GetForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	form, err := s.formRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if !form.PubliclyVisible(time.Now()) && !policy.IsOwnerOrAdmin(identity(c), form.CreatedByID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Listing", id))
	}
	return c.JSON(form)
}

// CreateForm handles POST /api/forms
func (s *Server) CreateForm(c *fiber.Ctx) error {
	user := identity(c)

	var req formPayload
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Title == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("title", "Title is required"))
	}

	form := &models.Form{
		CreatedByID:       &user.ID,
		Status:            models.FormStatusPending,
		Active:            true,
		NumberOfPositions: 1,
	}
	if err := s.applyPayload(c, form, &req); err != nil {
		return respondError(c, err)
	}
	if err := s.formRepo.Create(c.Context(), form); err != nil {
		return respondError(c, err)
	}

	form.Decorate()
	return c.Status(fiber.StatusCreated).JSON(form)
}

// UpdateForm handles PUT /api/forms/:id (owner or admin)
func (s *Server) UpdateForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	form, err := s.formRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if !policy.IsOwnerOrAdmin(identity(c), form.CreatedByID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionError("You do not have permission to edit this listing"))
	}

	var req formPayload
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Title == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("title", "Title is required"))
	}

	if err := s.applyPayload(c, form, &req); err != nil {
		return respondError(c, err)
	}
	if err := s.formRepo.Update(c.Context(), form); err != nil {
		return respondError(c, err)
	}

	form.Decorate()
	return c.JSON(form)
}

// ApproveForm handles POST /api/forms/:id/approve (admin)
func (s *Server) ApproveForm(c *fiber.Ctx) error {
	return s.moderateForm(c, models.FormStatusApproved, "approved")
}

// RejectForm handles POST /api/forms/:id/reject (admin)
func (s *Server) RejectForm(c *fiber.Ctx) error {
	return s.moderateForm(c, models.FormStatusRejected, "rejected")
}

func (s *Server) moderateForm(c *fiber.Ctx, status models.FormStatus, outcome string) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.formRepo.SetStatus(c.Context(), id, status); err != nil {
		return respondError(c, err)
	}
	middleware.ModerationDecisions.WithLabelValues("listing", outcome).Inc()
	return c.JSON(fiber.Map{"id": id, "status": status})
}

// DeleteForm handles DELETE /api/forms/:id: soft delete, status untouched.
func (s *Server) DeleteForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	form, err := s.formRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if !policy.IsOwnerOrAdmin(identity(c), form.CreatedByID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewPermissionError("You do not have permission to delete this listing"))
	}
	if err := s.formRepo.SetActive(c.Context(), id, false); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Listing hidden"})
}

// RestoreForm handles POST /api/forms/:id/restore (admin): reactivates a
// soft-deleted listing with its moderation status intact.
func (s *Server) RestoreForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.formRepo.SetActive(c.Context(), id, true); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Listing restored"})
}
