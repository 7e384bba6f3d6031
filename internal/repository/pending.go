package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobfinder/internal/models"

	"gorm.io/gorm"
)

// PendingLookupRepository defines read and review operations for pending
// lookup proposals. Proposals are only ever created as a side effect of
// listing writes (see FormRepository).
type PendingLookupRepository interface {
	List(ctx context.Context, includeReviewed bool, limit, offset int) ([]models.PendingLookup, error)
	GetByID(ctx context.Context, id uint) (*models.PendingLookup, error)
	// Approve materializes the proposed text as a lookup row and marks the
	// proposal reviewed, in one transaction. Returns NotFound when the
	// proposal is absent or already reviewed.
	Approve(ctx context.Context, id uint, reviewerID uint) (*models.PendingLookup, error)
}

type pendingLookupRepository struct {
	db *gorm.DB
}

// NewPendingLookupRepository returns a new PendingLookupRepository implementation.
func NewPendingLookupRepository(db *gorm.DB) PendingLookupRepository {
	return &pendingLookupRepository{db: db}
}

func (r *pendingLookupRepository) List(ctx context.Context, includeReviewed bool, limit, offset int) ([]models.PendingLookup, error) {
	var proposals []models.PendingLookup
	q := r.db.WithContext(ctx).Model(&models.PendingLookup{})
	if !includeReviewed {
		q = q.Where("is_approved = ? AND reviewed_at IS NULL", false)
	}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&proposals).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return proposals, nil
}

func (r *pendingLookupRepository) GetByID(ctx context.Context, id uint) (*models.PendingLookup, error) {
	var proposal models.PendingLookup
	if err := r.db.WithContext(ctx).First(&proposal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Pending lookup", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &proposal, nil
}

func (r *pendingLookupRepository) Approve(ctx context.Context, id uint, reviewerID uint) (*models.PendingLookup, error) {
	var proposal models.PendingLookup
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_approved = ?", id, false).
			First(&proposal).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Pending lookup", id)
			}
			return models.NewInternalError(err)
		}

		name := strings.TrimSpace(proposal.ProposedValue)
		code, err := deriveLookupCode(tx, proposal.Category, name)
		if err != nil {
			return err
		}
		if err := upsertLookup(tx, proposal.Category, code, name); err != nil {
			return err
		}

		now := time.Now()
		proposal.Approved = true
		proposal.ReviewedAt = &now
		proposal.ReviewedByID = &reviewerID
		if err := tx.Save(&proposal).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}
	return &proposal, nil
}

// deriveLookupCode slugifies the proposed text within the category's code
// length limit. An empty slug, or one that collides with the reserved
// "other" sentinel, falls back to "other-2" (probing upward past rows that
// already hold the candidate code under a different name).
func deriveLookupCode(tx *gorm.DB, category models.LookupCategory, name string) (string, error) {
	code := models.SlugifyCode(name, category.MaxCodeLen())
	if code != "" && !models.IsOtherCode(code) {
		return code, nil
	}
	for n := 2; n < 100; n++ {
		candidate := fmt.Sprintf("%s-%d", models.OtherCode, n)
		existingName, found, err := lookupNameByCode(tx, category, candidate)
		if err != nil {
			return "", err
		}
		if !found || existingName == name {
			return candidate, nil
		}
	}
	return "", models.NewInternalError(errors.New("exhausted fallback codes for proposal"))
}

// lookupNameByCode fetches the display name stored under a code in the
// category's table.
func lookupNameByCode(tx *gorm.DB, category models.LookupCategory, code string) (string, bool, error) {
	var row struct{ Name string }
	var err error
	switch category {
	case models.CategoryCompany:
		err = tx.Model(&models.VerifiedCompany{}).Select("name").Where("code = ?", code).First(&row).Error
	case models.CategoryWorkFormat:
		err = tx.Model(&models.WorkFormat{}).Select("name").Where("code = ?", code).First(&row).Error
	case models.CategoryJobType:
		err = tx.Model(&models.JobType{}).Select("name").Where("code = ?", code).First(&row).Error
	case models.CategoryCurrency:
		err = tx.Model(&models.Currency{}).Select("name").Where("code = ?", code).First(&row).Error
	default:
		return "", false, models.NewValidationError(fmt.Sprintf("Unknown lookup category %q", category))
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, models.NewInternalError(err)
	}
	return row.Name, true, nil
}

// upsertLookup creates the lookup row for the derived code if it does not
// exist yet. A pre-existing row under the same code is fetched, not
// modified.
func upsertLookup(tx *gorm.DB, category models.LookupCategory, code, name string) error {
	var err error
	switch category {
	case models.CategoryCompany:
		row := models.VerifiedCompany{Code: code, Name: name, Active: true}
		err = tx.Where(models.VerifiedCompany{Code: code}).FirstOrCreate(&row).Error
	case models.CategoryWorkFormat:
		row := models.WorkFormat{Code: code, Name: name, Active: true}
		err = tx.Where(models.WorkFormat{Code: code}).FirstOrCreate(&row).Error
	case models.CategoryJobType:
		row := models.JobType{Code: code, Name: name, Active: true}
		err = tx.Where(models.JobType{Code: code}).FirstOrCreate(&row).Error
	case models.CategoryCurrency:
		row := models.Currency{Code: code, Name: name, Active: true}
		err = tx.Where(models.Currency{Code: code}).FirstOrCreate(&row).Error
	default:
		return models.NewValidationError(fmt.Sprintf("Unknown lookup category %q", category))
	}
	if err != nil {
		if isUniqueConstraintError(err) {
			// The proposed display name is already taken under another code.
			return models.NewConflictError(fmt.Sprintf("A lookup value named %q already exists", name))
		}
		return models.NewInternalError(err)
	}
	return nil
}
