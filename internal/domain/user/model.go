package user

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FullName     *string   `json:"full_name"`
	PasswordHash string    `json:"-"` // хэш, наружу не отдаём
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInput - данные для регистрации пользователя
type CreateInput struct {
	Email       string
	Username    string
	Password    string
	FullName    *string
	IsActive    bool
	IsSuperuser bool
}

// UpdateInput - частичное обновление, nil означает "не менять"
type UpdateInput struct {
	Email       *string
	Username    *string
	FullName    *string
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
}
