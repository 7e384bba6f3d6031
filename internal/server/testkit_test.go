package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobfinder/internal/config"
	"jobfinder/internal/database"
	"jobfinder/internal/models"
	"jobfinder/internal/repository"
	"jobfinder/internal/seed"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer builds a Server against an in-memory sqlite database with
// fixtures seeded and all routes registered. Redis and external clients are
// absent; the code under test degrades accordingly.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	require.NoError(t, database.Migrate(db), "migrate sqlite")
	require.NoError(t, seed.Fixtures(db), "seed fixtures")

	s := &Server{
		config:         &config.Config{JWTSecret: "test_secret", Env: "test"},
		db:             db,
		userRepo:       repository.NewUserRepository(db),
		formRepo:       repository.NewFormRepository(db),
		pendingRepo:    repository.NewPendingLookupRepository(db),
		companyRepo:    repository.NewLookupRepository[models.VerifiedCompany](db, models.CategoryCompany),
		workFormatRepo: repository.NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat),
		jobTypeRepo:    repository.NewLookupRepository[models.JobType](db, models.CategoryJobType),
		currencyRepo:   repository.NewLookupRepository[models.Currency](db, models.CategoryCurrency),
	}

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

// createTestUser persists a user with a bcrypt-hashed password.
func createTestUser(t *testing.T, s *Server, username, roleCode, statusCode string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:   username,
		Email:      strings.ToLower(username) + "@example.com",
		Password:   string(hashed),
		RoleCode:   roleCode,
		StatusCode: statusCode,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

// tokenFor issues a valid bearer token for the user.
func tokenFor(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return token
}

// doJSON performs a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decodeBody unmarshals a response body into a generic map.
func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
