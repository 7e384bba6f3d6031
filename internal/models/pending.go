package models

import (
	"time"
)

// PendingLookup records a user-submitted free-text value awaiting admin
// conversion into a first-class lookup row. Rows are created automatically
// when a listing is saved with an "other" override; submitters can never
// create or mutate them directly. The composite unique index absorbs
// concurrent duplicate submissions.
type PendingLookup struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Category      LookupCategory `gorm:"size:32;not null;uniqueIndex:idx_pending_dedup" json:"category"`
	ProposedValue string         `gorm:"size:255;not null;uniqueIndex:idx_pending_dedup" json:"proposed_value"`
	FormID        *uint          `gorm:"uniqueIndex:idx_pending_dedup" json:"form_id,omitempty"`
	SubmittedByID *uint          `json:"submitted_by,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Approved      bool           `gorm:"column:is_approved;default:false" json:"is_approved"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	ReviewedByID  *uint          `json:"reviewed_by,omitempty"`
}
