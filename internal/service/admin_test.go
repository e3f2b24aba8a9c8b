package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nordmail/backend/internal/auth/jwt"
	"nordmail/backend/internal/storage/memory"
)

func newTestAdminService(t *testing.T) *AdminService {
	t.Helper()
	manager := jwt.NewManager("test-secret-key-32-chars-long-minimum!!", "nordmail", 15*time.Minute, 24*time.Hour)
	svc := NewAdminService(memory.NewStore(), manager, nil)
	require.NoError(t, svc.EnsureDefaults("admin-password"))
	return svc
}

func TestAdminService_Login(t *testing.T) {
	svc := newTestAdminService(t)

	pair, err := svc.Login("admin", "admin-password")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	_, err = svc.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("root", "admin-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminService_EnsureDefaultsIsIdempotent(t *testing.T) {
	svc := newTestAdminService(t)

	// A second call must not overwrite the existing password
	require.NoError(t, svc.EnsureDefaults("other-password"))

	_, err := svc.Login("admin", "admin-password")
	assert.NoError(t, err)
}

func TestAdminService_UpdateSettings(t *testing.T) {
	svc := newTestAdminService(t)

	newPassword := "rotated-secret"
	timeout := 30
	settings, err := svc.UpdateSettings(UpdateSettingsInput{
		Password:              &newPassword,
		SessionTimeoutMinutes: &timeout,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, settings.SessionTimeoutMinutes)

	// Old password no longer works
	_, err = svc.Login("admin", "admin-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("admin", newPassword)
	assert.NoError(t, err)

	// Out-of-range timeout rejected
	bad := 2
	_, err = svc.UpdateSettings(UpdateSettingsInput{SessionTimeoutMinutes: &bad})
	assert.Error(t, err)
}

func TestAdminService_StatsAndActivity(t *testing.T) {
	manager := jwt.NewManager("test-secret-key-32-chars-long-minimum!!", "nordmail", 15*time.Minute, 24*time.Hour)
	store := memory.NewStore()
	svc := NewAdminService(store, manager, nil)
	require.NoError(t, svc.EnsureDefaults("admin-password"))

	accounts := NewAccountService(store, nil, nil)
	_, err := accounts.Register("alice", "secret123")
	require.NoError(t, err)
	_, err = accounts.Register("bob", "secret123")
	require.NoError(t, err)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.AccountCount)
	assert.Equal(t, 0, stats.EmailAddressCount)
	assert.Equal(t, 0, stats.MessageCount)

	activity, err := svc.Activity(10)
	require.NoError(t, err)
	assert.Len(t, activity.RecentAccounts, 2)
	assert.Empty(t, activity.RecentEmailAddresses)
}
