package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobfinder/internal/models"
	"jobfinder/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}
	if len(req.Password) < 8 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("password", "Password must be at least 8 characters"))
	}

	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	if existing == nil {
		existing, err = s.userRepo.GetByUsername(c.Context(), req.Username)
		if err != nil {
			return respondError(c, err)
		}
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("A user with this username or email already exists"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user := &models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   string(hashedPassword),
		RoleCode:   models.RoleUser,
		StatusCode: models.StatusPendingVerification,
	}
	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return respondError(c, createErr)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthenticationError("Invalid credentials"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthenticationError("Invalid credentials"))
	}

	// Status gate runs only after the password check so the messages leak
	// nothing to guessers.
	if gateErr := policy.CanAuthenticate(user); gateErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, gateErr)
	}

	s.userRepo.TouchLastLogin(c.Context(), user.ID)

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// GoogleLogin handles POST /api/auth/google. It exchanges an authorization
// code, trusts the verified Google email, finds or creates the local
// account, then applies the same status gate as password login.
func (s *Server) GoogleLogin(c *fiber.Ctx) error {
	if !s.google.Configured() {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewIntegrationError("Google login is not configured", nil))
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Authorization code is required"))
	}

	accessToken, err := s.google.Exchange(c.Context(), req.Code)
	if err != nil {
		return respondError(c, err)
	}
	profile, err := s.google.FetchProfile(c.Context(), accessToken)
	if err != nil {
		return respondError(c, err)
	}
	if !profile.EmailVerified {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthenticationError("Google account email is not verified"))
	}

	email := strings.ToLower(profile.Email)
	user, err := s.userRepo.GetByEmail(c.Context(), email)
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		user, err = s.createGoogleUser(c, email, profile.GivenName, profile.FamilyName, profile.Picture)
		if err != nil {
			return respondError(c, err)
		}
	}

	if gateErr := policy.CanAuthenticate(user); gateErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, gateErr)
	}

	// Social-link bookkeeping is best-effort; a conflict here must not block
	// an otherwise valid login.
	if linkErr := s.userRepo.LinkSocial(c.Context(), &models.SocialLink{
		Provider: "google",
		UID:      profile.Subject,
		UserID:   user.ID,
		Email:    email,
	}); linkErr != nil {
		s.logWarn(c, "social link bookkeeping failed", linkErr)
	}

	s.userRepo.TouchLastLogin(c.Context(), user.ID)

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// createGoogleUser provisions a local account for a first-time Google login.
// The account starts ACTIVE (the email is already verified) with an unusable
// random password.
func (s *Server) createGoogleUser(c *fiber.Ctx, email, firstName, lastName, avatar string) (*models.User, error) {
	randomSecret := uuid.New().String() + uuid.New().String()
	hashed, err := bcrypt.GenerateFromPassword([]byte(randomSecret), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	username := usernameFromEmail(email)
	user := &models.User{
		Username:   username,
		Email:      email,
		Password:   string(hashed),
		FirstName:  firstName,
		LastName:   lastName,
		Avatar:     avatar,
		RoleCode:   models.RoleUser,
		StatusCode: models.StatusActive,
	}
	createErr := s.userRepo.Create(c.Context(), user)
	if createErr == nil {
		return user, nil
	}

	// Username collision with an unrelated account: retry once with a
	// uniquified name.
	var appErr *models.AppError
	if errors.As(createErr, &appErr) && appErr.Code == models.CodeConflict {
		user.Username = fmt.Sprintf("%s-%s", username, uuid.New().String()[:8])
		if retryErr := s.userRepo.Create(c.Context(), user); retryErr != nil {
			return nil, retryErr
		}
		return user, nil
	}
	return nil, createErr
}

func usernameFromEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at > 0 {
		return email[:at]
	}
	return email
}

// ChangePassword handles POST /api/auth/change-password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	user := identity(c)

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.NewPassword == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("new_password", "New password is required"))
	}
	if len(req.NewPassword) < 8 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("new_password", "Password must be at least 8 characters"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewAuthenticationError("Current password is incorrect"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	user.Password = string(hashed)
	if updateErr := s.userRepo.Update(c.Context(), user); updateErr != nil {
		return respondError(c, updateErr)
	}

	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(time.Hour * 24 * 7).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
