package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendOtpRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=10,max=15"`
}

type SendOtpResponse struct {
	ExpiresIn int `json:"expires_in"` // seconds
}

type VerifyOtpRequest struct {
	Phone string `json:"phone" validate:"required,numeric,min=10,max=15"`
	Otp   string `json:"otp" validate:"required,len=6,numeric"`
}

type UserResponse struct {
	Id         uuid.UUID `json:"id"`
	Phone      string    `json:"phone"`
	Name       *string   `json:"name"`
	Email      *string   `json:"email"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

type VerifyOtpResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}
