package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nordmail/backend/internal/domain"
	"nordmail/backend/internal/storage"
	"nordmail/backend/internal/storage/memory"
)

func TestAccountService_RegisterAndLogin(t *testing.T) {
	svc := NewAccountService(memory.NewStore(), nil, nil)

	account, err := svc.Register("alice_01", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.Equal(t, "alice_01", account.Username)

	// Login with correct credentials
	got, err := svc.Login("alice_01", "secret123")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	// Wrong password and unknown user look identical
	_, err = svc.Login("alice_01", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login("nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAccountService_RegisterValidation(t *testing.T) {
	svc := NewAccountService(memory.NewStore(), nil, nil)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"username too short", "ab", "secret123"},
		{"username with uppercase", "Alice", "secret123"},
		{"password too short", "alice", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.username, tt.password)
			_, ok := domain.AsValidationError(err)
			assert.True(t, ok, "expected validation error, got %v", err)
		})
	}
}

func TestAccountService_DuplicateUsername(t *testing.T) {
	svc := NewAccountService(memory.NewStore(), nil, nil)

	_, err := svc.Register("alice", "secret123")
	require.NoError(t, err)

	_, err = svc.Register("alice", "other456")
	assert.ErrorIs(t, err, storage.ErrUsernameTaken)
}

func TestAccountService_Update(t *testing.T) {
	svc := NewAccountService(memory.NewStore(), nil, nil)

	account, err := svc.Register("alice", "secret123")
	require.NoError(t, err)

	// Partial update keeps untouched fields
	personal := "alice@example.com"
	updated, err := svc.Update(account.ID, &domain.AccountUpdate{PersonalEmail: &personal})
	require.NoError(t, err)
	require.NotNil(t, updated.PersonalEmail)
	assert.Equal(t, personal, *updated.PersonalEmail)
	assert.Equal(t, "alice", updated.Username)

	// Empty update is a no-op
	same, err := svc.Update(account.ID, &domain.AccountUpdate{})
	require.NoError(t, err)
	assert.Equal(t, personal, *same.PersonalEmail)

	// Invalid personal email rejected
	bad := "not-an-email"
	_, err = svc.Update(account.ID, &domain.AccountUpdate{PersonalEmail: &bad})
	_, ok := domain.AsValidationError(err)
	assert.True(t, ok)
}
