package models

import (
	"time"
)

// Role codes.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Account status codes. BANNED and SUSPENDED block credential issuance;
// the rest only restrict later actions.
const (
	StatusActive              = "ACTIVE"
	StatusInactive            = "INACTIVE"
	StatusLocked              = "LOCKED"
	StatusSuspended           = "SUSPENDED"
	StatusBanned              = "BANNED"
	StatusPendingVerification = "PENDING_VERIFICATION"
)

// Role is an enumerable user role (USER, ADMIN).
type Role struct {
	Code        string `gorm:"primaryKey;size:20" json:"code"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `json:"description"`
	Active      bool   `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder   int    `gorm:"column:sort_order" json:"order"`
}

// Status is an enumerable account status (ACTIVE, BANNED, ...).
type Status struct {
	Code        string `gorm:"primaryKey;size:20" json:"code"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `json:"description"`
	Active      bool   `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder   int    `gorm:"column:sort_order" json:"order"`
}

// Gender is an enumerable profile gender.
type Gender struct {
	Code      string `gorm:"primaryKey;size:10" json:"code"`
	Name      string `gorm:"uniqueIndex;size:20;not null" json:"name"`
	Active    bool   `gorm:"column:is_active;default:true" json:"is_active"`
	SortOrder int    `gorm:"column:sort_order" json:"order"`
}

// User represents an account on the platform.
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Username   string     `gorm:"uniqueIndex;not null" json:"username"`
	Email      string     `gorm:"uniqueIndex;not null" json:"email"`
	Password   string     `gorm:"not null" json:"-"`
	Phone      string     `gorm:"size:15" json:"phone"`
	FirstName  string     `gorm:"size:150" json:"first_name"`
	LastName   string     `gorm:"size:150" json:"last_name"`
	Avatar     string     `gorm:"size:500" json:"avatar"`
	IsStaff    bool       `json:"is_staff"`
	RoleCode   string     `gorm:"column:role_code;size:20" json:"role"`
	Role       *Role      `gorm:"foreignKey:RoleCode;references:Code" json:"-"`
	StatusCode string     `gorm:"column:status_code;size:20" json:"status"`
	Status     *Status    `gorm:"foreignKey:StatusCode;references:Code" json:"-"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Profile    *Profile   `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// Profile holds the optional profile sub-record of a user.
type Profile struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	DOB        *time.Time `gorm:"column:dob" json:"dob,omitempty"`
	GenderCode string     `gorm:"column:gender_code;size:10" json:"gender"`
	Gender     *Gender    `gorm:"foreignKey:GenderCode;references:Code" json:"-"`
	Bio        string     `json:"bio"`
	CV         string     `gorm:"column:cv;size:500" json:"cv"`
	CVFilename string     `gorm:"column:cv_filename;size:255" json:"cv_filename"`
}

// SocialLink ties an external OAuth identity to a local user. A provider/uid
// pair maps to at most one user.
type SocialLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"size:32;not null;uniqueIndex:idx_social_identity" json:"provider"`
	UID       string    `gorm:"column:uid;size:255;not null;uniqueIndex:idx_social_identity" json:"uid"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
