package server

import (
	"fmt"
	"net/http"
	"testing"

	"jobfinder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedListing(t *testing.T, s *Server, owner *models.User, title string) *models.Form {
	t.Helper()
	form := &models.Form{
		Title:       title,
		CreatedByID: &owner.ID,
		Status:      models.FormStatusApproved,
		Active:      true,
	}
	require.NoError(t, s.db.Create(form).Error)
	return form
}

func TestCreateForm(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	owner := createTestUser(t, s, "poster", models.RoleUser, models.StatusActive)
	token := tokenFor(t, s, owner)

	t.Run("requires authentication", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/forms", "", map[string]any{"title": "Nope"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("created pending and active", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/forms", token, map[string]any{
			"title":       "Backend engineer",
			"work_format": "remote",
			"salary_from": 50000,
			"salary_to":   70000,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, string(models.FormStatusPending), body["status"])
		assert.Equal(t, true, body["is_active"])
		assert.Equal(t, "Remote", *strPtr(body["display_work_format"]))
	})

	t.Run("unknown lookup code names the field", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/forms", token, map[string]any{
			"title":    "Bad lookup",
			"job_type": "does-not-exist",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "job_type", body["field"])
	})

	t.Run("other without text names the field", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/forms", token, map[string]any{
			"title":       "Needs override",
			"work_format": "other",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "work_format_other", body["field"])
	})

	t.Run("other with text records a proposal", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/forms", token, map[string]any{
			"title":             "Custom format",
			"work_format":       "other",
			"work_format_other": "Seasonal rotation",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var proposal models.PendingLookup
		require.NoError(t, s.db.Where("proposed_value = ?", "Seasonal rotation").First(&proposal).Error)
		assert.Equal(t, models.CategoryWorkFormat, proposal.Category)
	})

	t.Run("inverted salary range", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/forms", token, map[string]any{
			"title":       "Pay cut",
			"salary_from": 90000,
			"salary_to":   40000,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "salary_from", body["field"])
	})
}

func TestGetFormsAnonymousScope(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	owner := createTestUser(t, s, "lister", models.RoleUser, models.StatusActive)

	visible := approvedListing(t, s, owner, "Visible")
	pending := &models.Form{Title: "Pending", CreatedByID: &owner.ID, Status: models.FormStatusPending, Active: true}
	require.NoError(t, s.db.Create(pending).Error)

	t.Run("anonymous sees approved only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/forms", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		items := body["items"].([]any)
		require.Len(t, items, 1)
		first := items[0].(map[string]any)
		assert.Equal(t, "Visible", first["title"])
	})

	t.Run("owner also sees own pending", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/forms", tokenFor(t, s, owner), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Len(t, body["items"].([]any), 2)
	})

	t.Run("anonymous detail of hidden listing is 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/forms/%d", pending.ID), "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("owner detail of own pending listing works", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/forms/%d", pending.ID), tokenFor(t, s, owner), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("anonymous detail of visible listing works", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/forms/%d", visible.ID), "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestFormModeration(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	owner := createTestUser(t, s, "mod_owner", models.RoleUser, models.StatusActive)
	admin := createTestUser(t, s, "mod_admin", models.RoleAdmin, models.StatusActive)

	pending := &models.Form{Title: "Awaiting", CreatedByID: &owner.ID, Status: models.FormStatusPending, Active: true}
	require.NoError(t, s.db.Create(pending).Error)

	t.Run("non-admin approve is forbidden", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/forms/%d/approve", pending.ID), tokenFor(t, s, owner), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin approve flips status only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/forms/%d/approve", pending.ID), tokenFor(t, s, admin), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Form
		require.NoError(t, s.db.First(&got, pending.ID).Error)
		assert.Equal(t, models.FormStatusApproved, got.Status)
		assert.True(t, got.Active)
	})

	t.Run("admin reject", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/forms/%d/reject", pending.ID), tokenFor(t, s, admin), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got models.Form
		require.NoError(t, s.db.First(&got, pending.ID).Error)
		assert.Equal(t, models.FormStatusRejected, got.Status)
	})

	t.Run("moderating a missing listing is 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/forms/99999/approve", tokenFor(t, s, admin), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestFormSoftDeleteAndRestore(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	owner := createTestUser(t, s, "del_owner", models.RoleUser, models.StatusActive)
	stranger := createTestUser(t, s, "del_stranger", models.RoleUser, models.StatusActive)
	admin := createTestUser(t, s, "del_admin", models.RoleAdmin, models.StatusActive)

	form := approvedListing(t, s, owner, "Deletable")
	path := fmt.Sprintf("/api/forms/%d", form.ID)

	t.Run("stranger cannot delete", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, path, tokenFor(t, s, stranger), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("owner soft deletes", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, path, tokenFor(t, s, owner), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Form
		require.NoError(t, s.db.First(&got, form.ID).Error)
		assert.False(t, got.Active)
		assert.Equal(t, models.FormStatusApproved, got.Status)
	})

	t.Run("hidden view is admin-only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/forms/hidden", tokenFor(t, s, owner), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doJSON(t, app, http.MethodGet, "/api/forms/hidden", tokenFor(t, s, admin), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Len(t, body["items"].([]any), 1)
	})

	t.Run("restore is admin-only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, path+"/restore", tokenFor(t, s, owner), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doJSON(t, app, http.MethodPost, path+"/restore", tokenFor(t, s, admin), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.Form
		require.NoError(t, s.db.First(&got, form.ID).Error)
		assert.True(t, got.Active)
		assert.Equal(t, models.FormStatusApproved, got.Status)
	})
}

// strPtr converts a decoded JSON value to *string for assertions.
func strPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}
