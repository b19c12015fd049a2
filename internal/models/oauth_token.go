package models

import (
	"time"
)

// OAuthToken is one issued machine-client access token. UserID is a string
// pointer because the OAuth2 library hands user ids around as strings and
// client_credentials tokens may carry none.
type OAuthToken struct {
	ID           uint   `gorm:"primaryKey"`
	ClientID     string `gorm:"index;not null"`
	UserID       *string
	AccessToken  string `gorm:"uniqueIndex;not null"`
	RefreshToken *string
	Scopes       string
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
