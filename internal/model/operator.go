package model

import "time"

// OperatorRole limits what an operator may change.
type OperatorRole string

const (
	RoleAdmin  OperatorRole = "ADMIN"
	RoleGrader OperatorRole = "GRADER"
)

// Operator is a staff account that manages tests and uploads sheets.
type Operator struct {
	ID           int          `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	Role         OperatorRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// LoginRequest is the payload for operator authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}
