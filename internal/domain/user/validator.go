package user

import (
	"fmt"
	"net/mail"
	"unicode"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 8
	MaxPasswordLen = 72 // предел bcrypt
)

// Validator - интерфейс для валидации пользовательских данных
type Validator interface {
	ValidateCreate(in CreateInput) error
	ValidateUpdate(in UpdateInput) error
	ValidateUsername(username string) error
	ValidateEmail(email string) error
	ValidatePassword(password string) error
}

type RuleValidator struct {
	requireSpecialChar bool
	requireDigit       bool
	requireUpper       bool
	requireLower       bool
}

// NewValidator создает валидатор с базовыми правилами: только длина пароля
func NewValidator() *RuleValidator {
	return &RuleValidator{}
}

// NewStrictValidator дополнительно требует разные классы символов в пароле
func NewStrictValidator() *RuleValidator {
	return &RuleValidator{
		requireSpecialChar: true,
		requireDigit:       true,
		requireUpper:       true,
		requireLower:       true,
	}
}

// ValidateCreate валидирует данные для регистрации
func (v *RuleValidator) ValidateCreate(in CreateInput) error {
	if err := v.ValidateEmail(in.Email); err != nil {
		return fmt.Errorf("email validation failed: %w", err)
	}

	if err := v.ValidateUsername(in.Username); err != nil {
		return fmt.Errorf("username validation failed: %w", err)
	}

	if err := v.ValidatePassword(in.Password); err != nil {
		return fmt.Errorf("password validation failed: %w", err)
	}

	return nil
}

// ValidateUpdate проверяет только переданные поля
func (v *RuleValidator) ValidateUpdate(in UpdateInput) error {
	if in.Email != nil {
		if err := v.ValidateEmail(*in.Email); err != nil {
			return fmt.Errorf("email validation failed: %w", err)
		}
	}

	if in.Username != nil {
		if err := v.ValidateUsername(*in.Username); err != nil {
			return fmt.Errorf("username validation failed: %w", err)
		}
	}

	if in.Password != nil {
		if err := v.ValidatePassword(*in.Password); err != nil {
			return fmt.Errorf("password validation failed: %w", err)
		}
	}

	return nil
}

// ValidateUsername валидирует имя пользователя
func (v *RuleValidator) ValidateUsername(username string) error {
	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLen)
	}

	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("username must contain only alphanumeric characters")
		}
	}

	return nil
}

func (v *RuleValidator) ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address: %q", email)
	}
	return nil
}

// ValidatePassword валидирует пароль
func (v *RuleValidator) ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	}

	if len(password) > MaxPasswordLen {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordLen)
	}

	hasLower := false
	hasUpper := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if v.requireLower && !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	if v.requireUpper && !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	if v.requireDigit && !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}

	if v.requireSpecialChar && !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}

	return nil
}
