// Package seed provides helpers to create fixture and demo data for the
// application database. Fixtures (roles, statuses, lookup values with their
// sentinels) are safe to run on every boot; demo data is for development
// only.
package seed

import (
	"fmt"
	"log"

	"jobfinder/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Fixtures creates the enumerable rows the application cannot run without:
// roles, statuses, genders, and the four lookup categories with their
// reserved "other" sentinels. Idempotent.
func Fixtures(db *gorm.DB) error {
	for _, role := range []models.Role{
		{Code: models.RoleUser, Name: "User", Active: true, SortOrder: 1},
		{Code: models.RoleAdmin, Name: "Administrator", Active: true, SortOrder: 2},
	} {
		if err := firstOrCreate(db, &models.Role{Code: role.Code}, &role); err != nil {
			return fmt.Errorf("seeding role %s: %w", role.Code, err)
		}
	}

	for i, status := range []struct{ code, name string }{
		{models.StatusActive, "Active"},
		{models.StatusInactive, "Inactive"},
		{models.StatusLocked, "Locked"},
		{models.StatusSuspended, "Suspended"},
		{models.StatusBanned, "Banned"},
		{models.StatusPendingVerification, "Pending verification"},
	} {
		row := models.Status{Code: status.code, Name: status.name, Active: true, SortOrder: i + 1}
		if err := firstOrCreate(db, &models.Status{Code: status.code}, &row); err != nil {
			return fmt.Errorf("seeding status %s: %w", status.code, err)
		}
	}

	for i, gender := range []struct{ code, name string }{
		{"M", "Male"},
		{"F", "Female"},
		{"O", "Other"},
	} {
		row := models.Gender{Code: gender.code, Name: gender.name, Active: true, SortOrder: i + 1}
		if err := firstOrCreate(db, &models.Gender{Code: gender.code}, &row); err != nil {
			return fmt.Errorf("seeding gender %s: %w", gender.code, err)
		}
	}

	return Lookups(db)
}

// Lookups creates a starter set of lookup values for every category,
// including the mandatory "other" sentinel rows. Idempotent.
func Lookups(db *gorm.DB) error {
	for _, company := range []models.VerifiedCompany{
		{Code: models.OtherCode, Name: "Other", Active: true},
	} {
		if err := firstOrCreate(db, &models.VerifiedCompany{Code: company.Code}, &company); err != nil {
			return fmt.Errorf("seeding company %s: %w", company.Code, err)
		}
	}

	for i, wf := range []struct{ code, name string }{
		{"remote", "Remote"},
		{"on-site", "On-site"},
		{"hybrid", "Hybrid"},
		{models.OtherCode, "Other"},
	} {
		row := models.WorkFormat{Code: wf.code, Name: wf.name, Active: true, SortOrder: i + 1}
		if err := firstOrCreate(db, &models.WorkFormat{Code: wf.code}, &row); err != nil {
			return fmt.Errorf("seeding work format %s: %w", wf.code, err)
		}
	}

	for i, jt := range []struct{ code, name string }{
		{"full-time", "Full-time"},
		{"part-time", "Part-time"},
		{"contract", "Contract"},
		{"internship", "Internship"},
		{models.OtherCode, "Other"},
	} {
		row := models.JobType{Code: jt.code, Name: jt.name, Active: true, SortOrder: i + 1}
		if err := firstOrCreate(db, &models.JobType{Code: jt.code}, &row); err != nil {
			return fmt.Errorf("seeding job type %s: %w", jt.code, err)
		}
	}

	for i, cur := range []struct{ code, name, symbol string }{
		{"usd", "US Dollar", "$"},
		{"eur", "Euro", "€"},
		{"gbp", "Pound Sterling", "£"},
		{models.OtherCode, "Other", ""},
	} {
		row := models.Currency{Code: cur.code, Name: cur.name, Symbol: cur.symbol, Active: true, SortOrder: i + 1}
		if err := firstOrCreate(db, &models.Currency{Code: cur.code}, &row); err != nil {
			return fmt.Errorf("seeding currency %s: %w", cur.code, err)
		}
	}

	return nil
}

// Admin creates (or finds) the bootstrap admin account and returns it.
func Admin(db *gorm.DB, email, password string) (*models.User, error) {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := models.User{
		Username:   "admin",
		Email:      email,
		Password:   string(hashed),
		IsStaff:    true,
		RoleCode:   models.RoleAdmin,
		StatusCode: models.StatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	log.Printf("✓ Created admin account %s", email)
	return &admin, nil
}

// ClearAll truncates demo-data tables. Fixture tables (roles, statuses,
// genders, lookups) are left alone.
func ClearAll(db *gorm.DB) error {
	for _, model := range []any{
		&models.PendingLookup{},
		&models.Form{},
		&models.SocialLink{},
		&models.Profile{},
		&models.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	log.Println("✓ Cleared demo data")
	return nil
}

func firstOrCreate[T any](db *gorm.DB, cond *T, row *T) error {
	return db.Where(cond).FirstOrCreate(row).Error
}
