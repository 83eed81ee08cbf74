package domain

import (
	"time"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsVerified   bool      `json:"isVerified"`
	IsBanned     bool      `json:"isBanned"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
