package models

import "time"

// Token is the server-side record behind a bearer string. One per user.
type Token struct {
	Key       string
	UserID    int64
	CreatedAt time.Time
}
