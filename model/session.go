package model

import (
	"time"

	"gorm.io/gorm"
)

// Session records an issued token so it can be revoked without Redis.
type Session struct {
	gorm.Model
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	TokenID   string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"token_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	ClientIP  string     `gorm:"type:varchar(45)" json:"client_ip"`
	Browser   string     `gorm:"type:varchar(512)" json:"browser"`
}
