package domain

import (
	"regexp"
	"strings"
)

// 校验相关的错误定义
var (
	ErrUsernameTooShort  = &ValidationError{Field: "username", Reason: "too short (min 3 chars)"}
	ErrUsernameTooLong   = &ValidationError{Field: "username", Reason: "too long (max 32 chars)"}
	ErrInvalidUsername   = &ValidationError{Field: "username", Reason: "only lowercase letters, digits and underscore allowed"}
	ErrPasswordTooShort  = &ValidationError{Field: "password", Reason: "too short (min 6 chars)"}
	ErrPasswordTooLong   = &ValidationError{Field: "password", Reason: "too long (max 128 chars)"}
	ErrInvalidLocalPart  = &ValidationError{Field: "localPart", Reason: "only lowercase letters, digits, dot, underscore and hyphen allowed"}
	ErrLocalPartTooLong  = &ValidationError{Field: "localPart", Reason: "too long (max 64 chars)"}
	ErrInvalidPersonalEmail = &ValidationError{Field: "personalEmail", Reason: "invalid email format"}
)

// 校验常量
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32

	MinPasswordLength = 6
	MaxPasswordLength = 128

	// RFC 5321 本地部分长度上限
	MaxLocalPartLength = 64
)

var (
	usernameRegex  = regexp.MustCompile(`^[a-z0-9_]+$`)
	localPartRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	emailRegex     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername 校验用户名。
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword 校验密码长度。
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// NormalizeLocalPart 规整并校验自定义的邮箱本地部分。
//
// 输入统一转为小写；返回规整后的值。
func NormalizeLocalPart(localPart string) (string, error) {
	localPart = strings.ToLower(strings.TrimSpace(localPart))
	if localPart == "" || !localPartRegex.MatchString(localPart) {
		return "", ErrInvalidLocalPart
	}
	if len(localPart) > MaxLocalPartLength {
		return "", ErrLocalPartTooLong
	}
	if strings.Contains(localPart, "..") {
		return "", ErrInvalidLocalPart
	}
	return localPart, nil
}

// ValidatePersonalEmail 校验可选的个人邮箱。空字符串合法，表示清空。
func ValidatePersonalEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return ErrInvalidPersonalEmail
	}
	return nil
}
