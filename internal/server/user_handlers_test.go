package server

import (
	"fmt"
	"net/http"
	"testing"

	"jobfinder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUsers(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	admin := createTestUser(t, s, "ul_admin", models.RoleAdmin, models.StatusActive)
	user := createTestUser(t, s, "ul_user", models.RoleUser, models.StatusActive)

	t.Run("listing is admin-only", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/users", tokenFor(t, s, user), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin lists accounts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/users", tokenFor(t, s, admin), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Len(t, body["items"].([]any), 2)
	})
}

func TestGetUserStatusVisibility(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	admin := createTestUser(t, s, "uv_admin", models.RoleAdmin, models.StatusActive)
	viewer := createTestUser(t, s, "uv_viewer", models.RoleUser, models.StatusActive)
	banned := createTestUser(t, s, "uv_banned", models.RoleUser, models.StatusBanned)
	active := createTestUser(t, s, "uv_active", models.RoleUser, models.StatusActive)

	path := func(u *models.User) string { return fmt.Sprintf("/api/users/%d", u.ID) }

	t.Run("active accounts are visible to any member", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, path(active), tokenFor(t, s, viewer), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "uv_active", body["username"])
	})

	t.Run("banned accounts read as absent to members", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, path(banned), tokenFor(t, s, viewer), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("banned accounts can still see themselves", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, path(banned), tokenFor(t, s, banned), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("admins see every account", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, path(banned), tokenFor(t, s, admin), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestSetUserStatus(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	admin := createTestUser(t, s, "us_admin", models.RoleAdmin, models.StatusActive)
	target := createTestUser(t, s, "us_target", models.RoleUser, models.StatusActive)
	path := fmt.Sprintf("/api/users/%d/set-status", target.ID)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, path, tokenFor(t, s, target), map[string]string{
			"status": models.StatusBanned,
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin changes the status", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, path, tokenFor(t, s, admin), map[string]string{
			"status": models.StatusSuspended,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got models.User
		require.NoError(t, s.db.First(&got, target.ID).Error)
		assert.Equal(t, models.StatusSuspended, got.StatusCode)
	})

	t.Run("missing status is a validation error", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, path, tokenFor(t, s, admin), map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown user is 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/users/99999/set-status", tokenFor(t, s, admin), map[string]string{
			"status": models.StatusActive,
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
