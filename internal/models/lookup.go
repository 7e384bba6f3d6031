package models

import (
	"strings"
)

// OtherCode is the reserved sentinel code meaning "none of the enumerated
// options; see the free-text override". Exactly one row per category carries
// it; it is never deleted and its display data is never used as a real value.
const OtherCode = "other"

// LookupCategory identifies one of the four listing lookup tables.
type LookupCategory string

const (
	CategoryCompany    LookupCategory = "verified_company"
	CategoryWorkFormat LookupCategory = "work_format"
	CategoryJobType    LookupCategory = "job_type"
	CategoryCurrency   LookupCategory = "currency"
)

// MaxCodeLen returns the maximum code length of the category's table.
func (c LookupCategory) MaxCodeLen() int {
	if c == CategoryCurrency {
		return 10
	}
	return 20
}

// LookupValue is implemented by every lookup row type.
type LookupValue interface {
	GetCode() string
	GetName() string
}

// IsOtherCode reports whether a code is the reserved sentinel.
func IsOtherCode(code string) bool {
	return strings.EqualFold(code, OtherCode)
}

// VerifiedCompany is a company a listing may reference.
type VerifiedCompany struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Name        string `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Active      bool   `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder   int    `gorm:"column:sort_order" json:"order"`
}

func (v VerifiedCompany) GetCode() string { return v.Code }
func (v VerifiedCompany) GetName() string { return v.Name }

// WorkFormat is a listing work format (remote, on-site, ...).
type WorkFormat struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `json:"description"`
	Active      bool   `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder   int    `gorm:"column:sort_order" json:"order"`
}

func (w WorkFormat) GetCode() string { return w.Code }
func (w WorkFormat) GetName() string { return w.Name }

// JobType is a listing job type (full-time, internship, ...).
type JobType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `json:"description"`
	Active      bool   `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder   int    `gorm:"column:sort_order" json:"order"`
}

func (j JobType) GetCode() string { return j.Code }
func (j JobType) GetName() string { return j.Name }

// Currency is a salary currency.
type Currency struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Code      string `gorm:"uniqueIndex;size:10;not null" json:"code"`
	Name      string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Symbol    string `gorm:"size:10" json:"symbol"`
	Active    bool   `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder int    `gorm:"column:sort_order" json:"order"`
}

func (c Currency) GetCode() string { return c.Code }
func (c Currency) GetName() string { return c.Name }

// DisplayKind tags the variants of a resolved display field.
type DisplayKind int

const (
	// DisplayAbsent means neither a linked lookup nor an override is present.
	DisplayAbsent DisplayKind = iota
	// DisplayLinked means the field resolves to a linked lookup's name.
	DisplayLinked
	// DisplayOverride means the field resolves to user-supplied free text.
	DisplayOverride
)

// DisplayField is the tagged union produced when resolving a lookup
// reference together with its free-text override.
type DisplayField struct {
	Kind DisplayKind
	Text string
}

// StringOrNil returns the display text, or nil when absent.
func (d DisplayField) StringOrNil() *string {
	if d.Kind == DisplayAbsent {
		return nil
	}
	t := d.Text
	return &t
}

// ResolveDisplay resolves a lookup reference and its override into a
// DisplayField. The sentinel's own display data is never used.
func ResolveDisplay(v LookupValue, override string) DisplayField {
	if v != nil && !IsOtherCode(v.GetCode()) {
		return DisplayField{Kind: DisplayLinked, Text: v.GetName()}
	}
	if override != "" {
		return DisplayField{Kind: DisplayOverride, Text: override}
	}
	return DisplayField{Kind: DisplayAbsent}
}

// SlugifyCode derives a lookup code from free text: lowercased, runs of
// non-alphanumerics collapsed to single hyphens, truncated to max bytes.
// Returns "" when nothing slug-worthy remains.
func SlugifyCode(text string, max int) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(text) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	s := strings.Trim(b.String(), "-")
	if max > 0 && len(s) > max {
		s = strings.Trim(s[:max], "-")
	}
	return s
}
