package server

import (
	"net/http"
	"testing"

	"jobfinder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listCodes(t *testing.T, body map[string]any) []string {
	t.Helper()
	items, ok := body["items"].([]any)
	require.True(t, ok, "response must carry an items array")
	codes := make([]string, 0, len(items))
	for _, item := range items {
		codes = append(codes, item.(map[string]any)["code"].(string))
	}
	return codes
}

func TestListLookups(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	admin := createTestUser(t, s, "lk_admin", models.RoleAdmin, models.StatusActive)
	user := createTestUser(t, s, "lk_user", models.RoleUser, models.StatusActive)

	require.NoError(t, s.db.Create(&models.WorkFormat{Code: "shift", Name: "Shift work", Active: false}).Error)

	t.Run("public list is name-ascending with the sentinel last", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/lookups/work_format", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		codes := listCodes(t, decodeBody(t, resp))
		assert.Equal(t, []string{"hybrid", "on-site", "remote", models.OtherCode}, codes)
	})

	t.Run("include_inactive requires an admin", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/lookups/work_format?include_inactive=true", "", nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp = doJSON(t, app, http.MethodGet, "/api/lookups/work_format?include_inactive=true", tokenFor(t, s, user), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin sees inactive rows", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodGet, "/api/lookups/work_format?include_inactive=true", tokenFor(t, s, admin), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		codes := listCodes(t, decodeBody(t, resp))
		assert.Contains(t, codes, "shift")
		assert.Equal(t, models.OtherCode, codes[len(codes)-1])
	})
}

func TestLookupAdminWrites(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	admin := createTestUser(t, s, "lw_admin", models.RoleAdmin, models.StatusActive)
	user := createTestUser(t, s, "lw_user", models.RoleUser, models.StatusActive)
	adminToken := tokenFor(t, s, admin)

	t.Run("writes are admin-only", func(t *testing.T) {
		payload := map[string]any{"code": "freelance", "name": "Freelance"}
		resp := doJSON(t, app, http.MethodPost, "/api/lookups/job_type", "", payload)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = doJSON(t, app, http.MethodPost, "/api/lookups/job_type", tokenFor(t, s, user), payload)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("create then list", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/lookups/job_type", adminToken, map[string]any{
			"code": "freelance", "name": "Freelance", "is_active": true,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = doJSON(t, app, http.MethodGet, "/api/lookups/job_type", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, listCodes(t, decodeBody(t, resp)), "freelance")
	})

	t.Run("duplicate code conflicts", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/lookups/job_type", adminToken, map[string]any{
			"code": "full-time", "name": "Another full time",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("code length is bounded per category", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/lookups/currency", adminToken, map[string]any{
			"code": "way-too-long-for-a-currency", "name": "Long",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "code", body["field"])
	})

	t.Run("update changes name but never code", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPut, "/api/lookups/job_type/freelance", adminToken, map[string]any{
			"name": "Freelance / gig", "code": "renamed",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "freelance", body["code"])
		assert.Equal(t, "Freelance / gig", body["name"])
	})

	t.Run("update of a missing code is 404", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPut, "/api/lookups/job_type/ghost", adminToken, map[string]any{
			"name": "Ghost",
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("sentinel is write-protected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPut, "/api/lookups/job_type/"+models.OtherCode, adminToken, map[string]any{
			"name": "Something else",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = doJSON(t, app, http.MethodDelete, "/api/lookups/job_type/"+models.OtherCode, adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodDelete, "/api/lookups/job_type/freelance", adminToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var count int64
		s.db.Model(&models.JobType{}).Where("code = ?", "freelance").Count(&count)
		assert.EqualValues(t, 0, count)
	})
}

func TestLookupReorder(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)
	admin := createTestUser(t, s, "ro_admin", models.RoleAdmin, models.StatusActive)
	adminToken := tokenFor(t, s, admin)

	t.Run("applies all pairs", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/lookups/currency/update-order", adminToken, map[string]any{
			"items": []map[string]any{
				{"code": "eur", "order": 1},
				{"code": "usd", "order": 2},
			},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var eur models.Currency
		require.NoError(t, s.db.Where("code = ?", "eur").First(&eur).Error)
		assert.Equal(t, 1, eur.SortOrder)
	})

	t.Run("unknown code rolls the batch back", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/lookups/currency/update-order", adminToken, map[string]any{
			"items": []map[string]any{
				{"code": "gbp", "order": 9},
				{"code": "nope", "order": 10},
			},
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var gbp models.Currency
		require.NoError(t, s.db.Where("code = ?", "gbp").First(&gbp).Error)
		assert.NotEqual(t, 9, gbp.SortOrder, "partial batch must not apply")
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		resp := doJSON(t, app, http.MethodPost, "/api/lookups/currency/update-order", adminToken, map[string]any{
			"items": []map[string]any{},
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
