package auth

import (
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrTokenInvalid       = errors.New("auth: invalid or expired token")
	ErrUserNotFound       = errors.New("auth: user not found")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PhoneNumber  string    `json:"phoneNumber"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is what register/login hand back to the client.
type Session struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Principal is the resolved caller attached to request context.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
