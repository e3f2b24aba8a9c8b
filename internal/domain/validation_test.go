package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"Valid username", "testuser", nil},
		{"Valid with digits", "user123", nil},
		{"Valid with underscore", "test_user", nil},
		{"Valid minimum length", "abc", nil},
		{"Valid maximum length", "abcdefghijklmnopqrstuvwxyz123456", nil},
		{"Invalid - too short", "ab", ErrUsernameTooShort},
		{"Invalid - too long", "abcdefghijklmnopqrstuvwxyz1234567", ErrUsernameTooLong},
		{"Invalid - empty", "", ErrUsernameTooShort},
		{"Invalid - uppercase", "TestUser", ErrInvalidUsername},
		{"Invalid - spaces", "test user", ErrInvalidUsername},
		{"Invalid - special characters", "test@user", ErrInvalidUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"Valid password", "secret1", nil},
		{"Valid minimum length", "abcdef", nil},
		{"Invalid - too short", "abc12", ErrPasswordTooShort},
		{"Invalid - empty", "", ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestNormalizeLocalPart(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"Valid local part", "alex.smith42", "alex.smith42", nil},
		{"Uppercase is lowered", "Alex.Smith", "alex.smith", nil},
		{"Whitespace trimmed", "  alex  ", "alex", nil},
		{"Invalid - empty", "", "", ErrInvalidLocalPart},
		{"Invalid - leading dot", ".alex", "", ErrInvalidLocalPart},
		{"Invalid - double dot", "a..b", "", ErrInvalidLocalPart},
		{"Invalid - at sign", "alex@x", "", ErrInvalidLocalPart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeLocalPart(tt.input)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePersonalEmail(t *testing.T) {
	require.NoError(t, ValidatePersonalEmail(""))
	require.NoError(t, ValidatePersonalEmail("me@example.com"))
	assert.Equal(t, ErrInvalidPersonalEmail, ValidatePersonalEmail("not-an-email"))
	assert.Equal(t, ErrInvalidPersonalEmail, ValidatePersonalEmail("a@b"))
}

func TestSeenFlagAndBody(t *testing.T) {
	text := "hello"
	m := &Message{}
	assert.False(t, m.HasBody())
	m.Text = &text
	assert.True(t, m.HasBody())
}

func TestMailDomainUsable(t *testing.T) {
	assert.True(t, MailDomain{IsActive: true, IsPrivate: false}.Usable())
	assert.False(t, MailDomain{IsActive: false, IsPrivate: false}.Usable())
	assert.False(t, MailDomain{IsActive: true, IsPrivate: true}.Usable())
}
