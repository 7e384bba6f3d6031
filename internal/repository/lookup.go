package repository

import (
	"context"
	"errors"
	"fmt"

	"jobfinder/internal/models"

	"gorm.io/gorm"
)

// OrderUpdate is one (code, order) pair of a bulk reorder request.
type OrderUpdate struct {
	Code  string `json:"code"`
	Order int    `json:"order"`
}

// LookupRepository defines persistence operations shared by all four lookup
// categories. T is the concrete row type (VerifiedCompany, WorkFormat, ...).
type LookupRepository[T models.LookupValue] interface {
	// List returns rows ordered name-ascending with the "other" sentinel
	// forced last regardless of its name or insertion time.
	List(ctx context.Context, includeInactive bool) ([]T, error)
	GetByCode(ctx context.Context, code string) (*T, error)
	Create(ctx context.Context, item *T) error
	UpdateFields(ctx context.Context, code string, fields map[string]any) error
	Delete(ctx context.Context, code string) error
	// Reorder applies all (code, order) pairs atomically; an unknown code
	// rolls the whole batch back.
	Reorder(ctx context.Context, updates []OrderUpdate) error
}

type lookupRepository[T models.LookupValue] struct {
	db       *gorm.DB
	category models.LookupCategory
}

// NewLookupRepository returns a LookupRepository for one category's table.
func NewLookupRepository[T models.LookupValue](db *gorm.DB, category models.LookupCategory) LookupRepository[T] {
	return &lookupRepository[T]{db: db, category: category}
}

// sentinelLastOrder sorts the reserved "other" row after everything else,
// then by display name.
const sentinelLastOrder = "CASE WHEN code = '" + models.OtherCode + "' THEN 1 ELSE 0 END, name ASC"

func (r *lookupRepository[T]) List(ctx context.Context, includeInactive bool) ([]T, error) {
	var items []T
	q := r.db.WithContext(ctx).Model(new(T))
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order(sentinelLastOrder).Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *lookupRepository[T]) GetByCode(ctx context.Context, code string) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *lookupRepository[T]) Create(ctx context.Context, item *T) error {
	code := (*item).GetCode()
	if code == "" {
		return models.NewFieldValidationError("code", "Code is required")
	}
	if len(code) > r.category.MaxCodeLen() {
		return models.NewFieldValidationError("code",
			fmt.Sprintf("Code must be at most %d characters", r.category.MaxCodeLen()))
	}
	if (*item).GetName() == "" {
		return models.NewFieldValidationError("name", "Name is required")
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("A value with this code or name already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *lookupRepository[T]) UpdateFields(ctx context.Context, code string, fields map[string]any) error {
	if models.IsOtherCode(code) {
		return models.NewValidationError(`The reserved "other" entry cannot be modified`)
	}
	if len(fields) == 0 {
		return models.NewValidationError("No fields to update")
	}
	res := r.db.WithContext(ctx).Model(new(T)).Where("code = ?", code).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("A value with this name already exists")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(string(r.category), code)
	}
	return nil
}

func (r *lookupRepository[T]) Delete(ctx context.Context, code string) error {
	if models.IsOtherCode(code) {
		return models.NewValidationError(`The reserved "other" entry cannot be deleted`)
	}
	res := r.db.WithContext(ctx).Where("code = ?", code).Delete(new(T))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(string(r.category), code)
	}
	return nil
}

func (r *lookupRepository[T]) Reorder(ctx context.Context, updates []OrderUpdate) error {
	if len(updates) == 0 {
		return models.NewValidationError("No items provided")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(new(T)).Where("code = ?", u.Code).Update("sort_order", u.Order)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewFieldValidationError("code",
					fmt.Sprintf("Unknown code %q", u.Code))
			}
		}
		return nil
	})
	return asAppError(err)
}
