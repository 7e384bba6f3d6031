package server

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime/multipart"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"jobfinder/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	maxAvatarSize = 5 * 1024 * 1024
	maxCVSize     = 10 * 1024 * 1024
)

// GetMyProfile handles GET /api/profiles/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user := identity(c)
	profile, err := s.userRepo.GetProfile(c.Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	if profile == nil {
		profile = &models.Profile{UserID: user.ID}
	}
	return c.JSON(fiber.Map{
		"user":    user,
		"profile": profile,
	})
}

// UpdateMyProfile handles PUT /api/profiles/me. The profile row is created
// on first write.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	user := identity(c)

	var req struct {
		FirstName *string    `json:"first_name"`
		LastName  *string    `json:"last_name"`
		Phone     *string    `json:"phone"`
		DOB       *time.Time `json:"dob"`
		Gender    *string    `json:"gender"`
		Bio       *string    `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondError(c, err)
	}

	profile, err := s.getOrCreateProfile(c, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	if req.DOB != nil {
		profile.DOB = req.DOB
	}
	if req.Gender != nil {
		profile.GenderCode = *req.Gender
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if err := s.userRepo.SaveProfile(c.Context(), profile); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":    user,
		"profile": profile,
	})
}

func (s *Server) getOrCreateProfile(c *fiber.Ctx, userID uint) (*models.Profile, error) {
	profile, err := s.userRepo.GetProfile(c.Context(), userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.Profile{UserID: userID}
	}
	return profile, nil
}

// readUpload pulls the named multipart file, enforcing the size cap before
// buffering.
func readUpload(c *fiber.Ctx, field string, maxSize int64) (*multipart.FileHeader, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, models.NewFieldValidationError(field, "File is required")
	}
	if header.Size > maxSize {
		return nil, nil, models.NewFieldValidationError(field,
			fmt.Sprintf("File exceeds the %dMB limit", maxSize/(1024*1024)))
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	defer f.Close()

	buf := make([]byte, 0, header.Size)
	b := bytes.NewBuffer(buf)
	if _, err := b.ReadFrom(f); err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return header, b.Bytes(), nil
}

// UploadAvatar handles POST /api/profiles/me/avatar. The image is sniffed,
// never trusted by extension: JPEG, PNG, GIF or WebP up to 5MB.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	if s.assets == nil {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewIntegrationError("Asset storage is not configured", nil))
	}
	user := identity(c)

	_, data, err := readUpload(c, "avatar", maxAvatarSize)
	if err != nil {
		return respondError(c, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("avatar", "File is not a valid image"))
	}
	switch format {
	case "jpeg", "png", "gif", "webp":
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("avatar", "Only JPEG, PNG, GIF and WebP images are allowed"))
	}

	url, err := s.assets.Upload(c.Context(), bytes.NewReader(data),
		"avatars", fmt.Sprintf("user-%d", user.ID), "image")
	if err != nil {
		return respondError(c, err)
	}

	user.Avatar = url
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"avatar": url})
}

// DeleteAvatar handles DELETE /api/profiles/me/avatar
func (s *Server) DeleteAvatar(c *fiber.Ctx) error {
	user := identity(c)
	if user.Avatar == "" {
		return c.JSON(fiber.Map{"message": "No avatar set"})
	}

	if s.assets != nil {
		if err := s.assets.Delete(c.Context(), "avatars", fmt.Sprintf("user-%d", user.ID), "image"); err != nil {
			s.logWarn(c, "avatar deletion at asset host failed", err)
		}
	}

	user.Avatar = ""
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Avatar removed"})
}

// cvContentOK sniffs the CV bytes: PDF, legacy DOC (OLE2) or DOCX (zip).
func cvContentOK(data []byte, filename string) bool {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return strings.HasSuffix(strings.ToLower(filename), ".pdf")
	case bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		return strings.HasSuffix(strings.ToLower(filename), ".doc")
	case bytes.HasPrefix(data, []byte("PK")):
		return strings.HasSuffix(strings.ToLower(filename), ".docx")
	default:
		return false
	}
}

// UploadCV handles POST /api/profiles/me/cv: PDF, DOC or DOCX up to 10MB.
func (s *Server) UploadCV(c *fiber.Ctx) error {
	if s.assets == nil {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewIntegrationError("Asset storage is not configured", nil))
	}
	user := identity(c)

	header, data, err := readUpload(c, "cv", maxCVSize)
	if err != nil {
		return respondError(c, err)
	}
	if !cvContentOK(data, header.Filename) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError("cv", "Only PDF, DOC and DOCX files are allowed"))
	}

	url, err := s.assets.Upload(c.Context(), bytes.NewReader(data),
		"cvs", fmt.Sprintf("user-%d", user.ID), "raw")
	if err != nil {
		return respondError(c, err)
	}

	profile, err := s.getOrCreateProfile(c, user.ID)
	if err != nil {
		return respondError(c, err)
	}
	profile.CV = url
	profile.CVFilename = header.Filename
	if err := s.userRepo.SaveProfile(c.Context(), profile); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"cv": url, "cv_filename": header.Filename})
}

// DeleteCV handles DELETE /api/profiles/me/cv
func (s *Server) DeleteCV(c *fiber.Ctx) error {
	user := identity(c)
	profile, err := s.userRepo.GetProfile(c.Context(), user.ID)
	if err != nil {
		return respondError(c, err)
	}
	if profile == nil || profile.CV == "" {
		return c.JSON(fiber.Map{"message": "No CV uploaded"})
	}

	if s.assets != nil {
		if err := s.assets.Delete(c.Context(), "cvs", fmt.Sprintf("user-%d", user.ID), "raw"); err != nil {
			s.logWarn(c, "cv deletion at asset host failed", err)
		}
	}

	profile.CV = ""
	profile.CVFilename = ""
	if err := s.userRepo.SaveProfile(c.Context(), profile); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "CV removed"})
}
