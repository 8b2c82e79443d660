package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHandler Role = "handler"
)

// User is a staff account allowed to operate counters and the admin view.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
