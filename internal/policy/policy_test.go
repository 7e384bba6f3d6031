package policy

import (
	"testing"

	"jobfinder/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{"nil user", nil, false},
		{"plain user", &models.User{RoleCode: models.RoleUser}, false},
		{"admin role", &models.User{RoleCode: models.RoleAdmin}, true},
		{"staff flag", &models.User{IsStaff: true, RoleCode: models.RoleUser}, true},
		{"no role", &models.User{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAdmin(tt.user))
		})
	}
}

func TestIsOwnerOrAdmin(t *testing.T) {
	owner := uint(7)
	other := uint(8)

	user := &models.User{ID: 7, RoleCode: models.RoleUser}
	admin := &models.User{ID: 1, RoleCode: models.RoleAdmin}

	assert.True(t, IsOwnerOrAdmin(user, &owner))
	assert.False(t, IsOwnerOrAdmin(user, &other))
	assert.False(t, IsOwnerOrAdmin(user, nil))
	assert.True(t, IsOwnerOrAdmin(admin, &other))
	assert.True(t, IsOwnerOrAdmin(admin, nil))
	assert.False(t, IsOwnerOrAdmin(nil, &owner))
}

func TestCanAuthenticate(t *testing.T) {
	blocked := map[string]bool{
		models.StatusBanned:    true,
		models.StatusSuspended: true,
	}
	statuses := []string{
		models.StatusActive,
		models.StatusInactive,
		models.StatusLocked,
		models.StatusSuspended,
		models.StatusBanned,
		models.StatusPendingVerification,
	}

	for _, status := range statuses {
		t.Run(status, func(t *testing.T) {
			err := CanAuthenticate(&models.User{StatusCode: status})
			if blocked[status] {
				assert.NotNil(t, err)
				assert.Equal(t, models.CodeAuthentication, err.Code)
			} else {
				assert.Nil(t, err)
			}
		})
	}

	// The two refusals carry distinct user-facing messages.
	banned := CanAuthenticate(&models.User{StatusCode: models.StatusBanned})
	suspended := CanAuthenticate(&models.User{StatusCode: models.StatusSuspended})
	assert.NotEqual(t, banned.Message, suspended.Message)
}
