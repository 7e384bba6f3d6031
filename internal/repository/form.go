package repository

import (
	"context"
	"errors"
	"time"

	"jobfinder/internal/models"
	"jobfinder/internal/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FormRepository defines persistence operations for job listings.
type FormRepository interface {
	// GetByID loads a listing with its lookups and owner, display fields
	// resolved.
	GetByID(ctx context.Context, id uint) (*models.Form, error)
	// List returns listings visible to the viewer: anonymous callers see
	// approved, active, unexpired listings only; authenticated users
	// additionally see their own active listings in any moderation state;
	// admins see every active listing.
	List(ctx context.Context, viewer *models.User, limit, offset int) ([]models.Form, error)
	// ListHidden returns soft-deleted listings, newest first.
	ListHidden(ctx context.Context, limit, offset int) ([]models.Form, error)
	Create(ctx context.Context, form *models.Form) error
	Update(ctx context.Context, form *models.Form) error
	SetStatus(ctx context.Context, id uint, status models.FormStatus) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type formRepository struct {
	db *gorm.DB
}

// NewFormRepository returns a new FormRepository implementation.
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func withFormPreloads(q *gorm.DB) *gorm.DB {
	return q.
		Preload("VerifiedCompany").
		Preload("WorkFormat").
		Preload("JobType").
		Preload("SalaryCurrency")
}

func (r *formRepository) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	var form models.Form
	if err := withFormPreloads(r.db.WithContext(ctx)).
		Preload("CreatedBy").
		First(&form, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}
	form.Decorate()
	return &form, nil
}

func (r *formRepository) List(ctx context.Context, viewer *models.User, limit, offset int) ([]models.Form, error) {
	now := time.Now()
	q := withFormPreloads(r.db.WithContext(ctx)).
		Where("is_active = ?", true)

	public := r.db.Where("status = ?", models.FormStatusApproved).
		Where("expires_at IS NULL OR expires_at > ?", now)

	switch {
	case viewer == nil:
		q = q.Where(public)
	case policy.IsAdmin(viewer):
		// No moderation filter for admins.
	default:
		q = q.Where(public.Or("created_by_id = ?", viewer.ID))
	}

	var forms []models.Form
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&forms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range forms {
		forms[i].Decorate()
	}
	return forms, nil
}

func (r *formRepository) ListHidden(ctx context.Context, limit, offset int) ([]models.Form, error) {
	var forms []models.Form
	if err := withFormPreloads(r.db.WithContext(ctx)).
		Where("is_active = ?", false).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&forms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range forms {
		forms[i].Decorate()
	}
	return forms, nil
}

func (r *formRepository) Create(ctx context.Context, form *models.Form) error {
	if err := form.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(form).Error; err != nil {
			return models.NewInternalError(err)
		}
		return recordPendingForOthers(tx, form)
	})
	return asAppError(err)
}

func (r *formRepository) Update(ctx context.Context, form *models.Form) error {
	if err := form.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Omit(clause.Associations).Save(form)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		return recordPendingForOthers(tx, form)
	})
	return asAppError(err)
}

func (r *formRepository) SetStatus(ctx context.Context, id uint, status models.FormStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Form{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	return nil
}

func (r *formRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&models.Form{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	return nil
}

// recordPendingForOthers creates one pending proposal per category where the
// listing selected the "other" sentinel and supplied a non-empty override.
// FirstOrCreate makes resubmission of the same (category, text, listing)
// triple a no-op.
func recordPendingForOthers(tx *gorm.DB, form *models.Form) error {
	type candidate struct {
		category models.LookupCategory
		lookup   models.LookupValue
		text     string
	}
	candidates := []candidate{
		{models.CategoryCompany, valueOrNil(form.VerifiedCompany), form.VerifiedCompanyOther},
		{models.CategoryWorkFormat, valueOrNil(form.WorkFormat), form.WorkFormatOther},
		{models.CategoryJobType, valueOrNil(form.JobType), form.JobTypeOther},
		{models.CategoryCurrency, valueOrNil(form.SalaryCurrency), form.SalaryCurrencyOther},
	}
	for _, cand := range candidates {
		if cand.lookup == nil || !models.IsOtherCode(cand.lookup.GetCode()) || cand.text == "" {
			continue
		}
		proposal := models.PendingLookup{
			Category:      cand.category,
			ProposedValue: cand.text,
			FormID:        &form.ID,
			SubmittedByID: form.CreatedByID,
		}
		if err := tx.Where(models.PendingLookup{
			Category:      cand.category,
			ProposedValue: cand.text,
			FormID:        &form.ID,
		}).FirstOrCreate(&proposal).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Raced with an identical submission; nothing to record.
				continue
			}
			return models.NewInternalError(err)
		}
	}
	return nil
}

// valueOrNil converts a typed nil lookup pointer into a nil interface.
func valueOrNil[T any, PT interface {
	*T
	models.LookupValue
}](p PT) models.LookupValue {
	if p == nil {
		return nil
	}
	return p
}

// asAppError passes AppErrors through and wraps anything else.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
