package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"jobfinder/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a demo user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:   gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:      gofakeit.Email(),
		Password:   string(hashed),
		Phone:      gofakeit.Phone(),
		FirstName:  gofakeit.FirstName(),
		LastName:   gofakeit.LastName(),
		Avatar:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		RoleCode:   models.RoleUser,
		StatusCode: models.StatusActive,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateForm constructs and persists a demo listing owned by the given user.
// Lookup references are picked at random from the active rows of each
// category; roughly one in five listings selects the "other" sentinel with a
// generated override, which exercises the proposal pipeline.
func (f *Factory) CreateForm(owner *models.User, overrides ...func(*models.Form)) (*models.Form, error) {
	salaryFrom := float64(gofakeit.Number(40, 90)) * 1000
	salaryTo := salaryFrom + float64(gofakeit.Number(10, 60))*1000

	form := &models.Form{
		Title:              gofakeit.JobTitle(),
		CreatedByID:        &owner.ID,
		ContactEmail:       gofakeit.Email(),
		ApplicationEmail:   gofakeit.Email(),
		Address:            gofakeit.City(),
		SalaryFrom:         &salaryFrom,
		SalaryTo:           &salaryTo,
		NumberOfPositions:  gofakeit.Number(1, 5),
		Description:        gofakeit.Paragraph(2, 4, 8, "\n"),
		Responsibilities:   gofakeit.Paragraph(1, 3, 8, "\n"),
		Requirements:       gofakeit.Paragraph(1, 3, 8, "\n"),
		RequiredExperience: fmt.Sprintf("%d+ years", gofakeit.Number(1, 8)),
		Benefits:           gofakeit.Paragraph(1, 2, 6, "\n"),
		Status:             models.FormStatusPending,
		Active:             true,
	}

	// Backdate for a realistic created_at spread.
	daysBack := f.rand.Intn(60)
	form.CreatedAt = time.Now().Add(-time.Duration(daysBack) * 24 * time.Hour)

	if err := f.pickWorkFormat(form); err != nil {
		return nil, err
	}
	if err := f.pickJobType(form); err != nil {
		return nil, err
	}
	if err := f.pickCurrency(form); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(form)
	}

	if err := f.db.Create(form).Error; err != nil {
		return nil, err
	}
	return form, nil
}

func (f *Factory) pickWorkFormat(form *models.Form) error {
	var rows []models.WorkFormat
	if err := f.db.Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	row := rows[f.rand.Intn(len(rows))]
	form.WorkFormatID = &row.ID
	if models.IsOtherCode(row.Code) {
		form.WorkFormatOther = gofakeit.BuzzWord() + " schedule"
	}
	return nil
}

func (f *Factory) pickJobType(form *models.Form) error {
	var rows []models.JobType
	if err := f.db.Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	row := rows[f.rand.Intn(len(rows))]
	form.JobTypeID = &row.ID
	if models.IsOtherCode(row.Code) {
		form.JobTypeOther = gofakeit.BuzzWord() + " engagement"
	}
	return nil
}

func (f *Factory) pickCurrency(form *models.Form) error {
	var rows []models.Currency
	if err := f.db.Where("is_active = ?", true).Find(&rows).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	row := rows[f.rand.Intn(len(rows))]
	form.SalaryCurrencyID = &row.ID
	if models.IsOtherCode(row.Code) {
		form.SalaryCurrencyOther = gofakeit.CurrencyShort()
	}
	return nil
}

// DemoData populates users and listings for local development. A portion of
// the listings is pre-approved so the public browse view is not empty.
func DemoData(db *gorm.DB, numUsers, formsPerUser int) error {
	factory := NewFactory(db)

	for i := 0; i < numUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("creating demo user: %w", err)
		}
		for j := 0; j < formsPerUser; j++ {
			form, err := factory.CreateForm(user)
			if err != nil {
				return fmt.Errorf("creating demo listing: %w", err)
			}
			if factory.rand.Intn(3) != 0 {
				if err := db.Model(form).Update("status", models.FormStatusApproved).Error; err != nil {
					return err
				}
			}
		}
	}

	log.Printf("✓ Created %d users with %d listings each", numUsers, formsPerUser)
	return nil
}
