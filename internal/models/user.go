package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	MobileNumber string    `json:"mobileNumber"`
	Email        string    `json:"email"`
	Password     string    `json:"-"` // bcrypt hash, never serialized
	CreatedAt    time.Time `json:"createdAt"`
}

// SignupRequest is the JSON body for POST /api/users/signup.
type SignupRequest struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the JSON body for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse confirms a successful login. No token is issued.
type LoginResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}
