package models

import (
	"time"
)

// Linkage maps a verified NEAR account to the Discourse user it may act as.
// ActingCredential is the AES-GCM-encrypted Discourse user API key; it is
// never serialized into API responses.
type Linkage struct {
	ExternalAccountID string    `gorm:"primaryKey;size:255" json:"external_account_id"`
	ForumUsername     string    `gorm:"size:255;not null" json:"forum_username"`
	ForumUserID       int       `gorm:"not null" json:"forum_user_id"`
	ActingCredential  string    `gorm:"type:text;not null" json:"-"`
	VerifiedAt        time.Time `json:"verified_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Linkage) TableName() string {
	return "linkages"
}
