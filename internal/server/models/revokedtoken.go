package models

import "time"

type RevokedToken struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
}
