// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. Email is stored normalized (lower-cased) and unique.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	CreatedAt    time.Time
}
