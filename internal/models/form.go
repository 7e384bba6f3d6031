package models

import (
	"time"
)

// FormStatus is the moderation status of a listing.
type FormStatus string

const (
	FormStatusPending  FormStatus = "pending"
	FormStatusApproved FormStatus = "approved"
	FormStatusRejected FormStatus = "rejected"
)

// Form is a job listing. It is created pending and active; moderation flips
// the status, soft delete flips the active flag, and the two never touch
// each other.
type Form struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	CreatedByID *uint  `json:"created_by,omitempty"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"-"`

	VerifiedCompanyID *uint            `json:"-"`
	VerifiedCompany   *VerifiedCompany `gorm:"foreignKey:VerifiedCompanyID" json:"verified_company,omitempty"`
	WorkFormatID      *uint            `json:"-"`
	WorkFormat        *WorkFormat      `gorm:"foreignKey:WorkFormatID" json:"work_format,omitempty"`
	JobTypeID         *uint            `json:"-"`
	JobType           *JobType         `gorm:"foreignKey:JobTypeID" json:"job_type,omitempty"`
	SalaryCurrencyID  *uint            `json:"-"`
	SalaryCurrency    *Currency        `gorm:"foreignKey:SalaryCurrencyID" json:"salary_currency,omitempty"`

	// Free-text overrides, required when the paired lookup is the sentinel.
	VerifiedCompanyOther string `gorm:"size:255" json:"verified_company_other"`
	WorkFormatOther      string `gorm:"size:255" json:"work_format_other"`
	JobTypeOther         string `gorm:"size:255" json:"job_type_other"`
	SalaryCurrencyOther  string `gorm:"size:50" json:"salary_currency_other"`

	ContactEmail     string `json:"contact_email"`
	ApplicationEmail string `json:"application_email"`
	ApplicationURL   string `json:"application_url"`
	Address          string `gorm:"size:255" json:"address"`

	SalaryFrom        *float64 `json:"salary_from,omitempty"`
	SalaryTo          *float64 `json:"salary_to,omitempty"`
	NumberOfPositions int      `gorm:"default:1" json:"number_of_positions"`

	Description        string `json:"description"`
	Responsibilities   string `json:"responsibilities"`
	Requirements       string `json:"requirements"`
	RequiredExperience string `gorm:"size:255" json:"required_experience"`
	Benefits           string `json:"benefits"`

	Status    FormStatus `gorm:"size:20;default:pending;index:idx_forms_status_created" json:"status"`
	Active    bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time  `gorm:"index:idx_forms_status_created" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// Computed display fields; resolved at read time, never persisted.
	DisplayCompany        *string `gorm:"-" json:"display_company"`
	DisplayWorkFormatName *string `gorm:"-" json:"display_work_format"`
	DisplayJobTypeName    *string `gorm:"-" json:"display_job_type"`
	DisplayCurrencyName   *string `gorm:"-" json:"display_salary_currency"`
}

// DisplayVerifiedCompany resolves the company display value.
func (f *Form) DisplayVerifiedCompany() DisplayField {
	return ResolveDisplay(lookupOrNil(f.VerifiedCompany), f.VerifiedCompanyOther)
}

// DisplayWorkFormat resolves the work format display value.
func (f *Form) DisplayWorkFormat() DisplayField {
	return ResolveDisplay(lookupOrNil(f.WorkFormat), f.WorkFormatOther)
}

// DisplayJobType resolves the job type display value.
func (f *Form) DisplayJobType() DisplayField {
	return ResolveDisplay(lookupOrNil(f.JobType), f.JobTypeOther)
}

// DisplaySalaryCurrency resolves the salary currency display value.
func (f *Form) DisplaySalaryCurrency() DisplayField {
	return ResolveDisplay(lookupOrNil(f.SalaryCurrency), f.SalaryCurrencyOther)
}

// Decorate fills the computed display fields for serialization.
func (f *Form) Decorate() {
	f.DisplayCompany = f.DisplayVerifiedCompany().StringOrNil()
	f.DisplayWorkFormatName = f.DisplayWorkFormat().StringOrNil()
	f.DisplayJobTypeName = f.DisplayJobType().StringOrNil()
	f.DisplayCurrencyName = f.DisplaySalaryCurrency().StringOrNil()
}

// lookupOrNil converts a typed nil pointer into a nil interface.
func lookupOrNil[T any, PT interface {
	*T
	LookupValue
}](p PT) LookupValue {
	if p == nil {
		return nil
	}
	return p
}

// Validate enforces the other-text pairing rule for all four categories and
// the salary range rule. The loaded lookup structs are consulted, not the
// raw IDs.
func (f *Form) Validate() error {
	type pairing struct {
		lookup LookupValue
		other  string
		field  string
		label  string
	}
	pairs := []pairing{
		{lookupOrNil(f.VerifiedCompany), f.VerifiedCompanyOther, "verified_company_other", "company name"},
		{lookupOrNil(f.WorkFormat), f.WorkFormatOther, "work_format_other", "work format"},
		{lookupOrNil(f.JobType), f.JobTypeOther, "job_type_other", "job type"},
		{lookupOrNil(f.SalaryCurrency), f.SalaryCurrencyOther, "salary_currency_other", "currency text"},
	}
	for _, p := range pairs {
		if p.lookup != nil && IsOtherCode(p.lookup.GetCode()) && p.other == "" {
			return NewFieldValidationError(p.field,
				`Provide a custom `+p.label+` when "Other" is selected`)
		}
	}

	if f.SalaryFrom != nil && *f.SalaryFrom < 0 {
		return NewFieldValidationError("salary_from", "Salary must not be negative")
	}
	if f.SalaryTo != nil && *f.SalaryTo < 0 {
		return NewFieldValidationError("salary_to", "Salary must not be negative")
	}
	if f.SalaryFrom != nil && f.SalaryTo != nil && *f.SalaryFrom >= *f.SalaryTo {
		return NewFieldValidationError("salary_from", "Minimum salary must be less than maximum salary")
	}
	return nil
}

// PubliclyVisible reports whether the listing is visible to anonymous
// callers at the given instant.
func (f *Form) PubliclyVisible(now time.Time) bool {
	if !f.Active || f.Status != FormStatusApproved {
		return false
	}
	if f.ExpiresAt != nil && !now.Before(*f.ExpiresAt) {
		return false
	}
	return true
}
