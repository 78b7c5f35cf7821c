package models

import "time"

type PlatformAccount struct {
	ID             int64     `db:"id" json:"id"`
	ClientID       int64     `db:"client_id" json:"client_id"`
	Platform       string    `db:"platform" json:"platform"`
	AccountID      string    `db:"account_id" json:"account_id"`
	AccountName    string    `db:"account_name" json:"account_name"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	AccountStatusActive      = "active"
	AccountStatusAuthExpired = "auth_expired"
)

// Supported delivery targets.
const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTwitter   = "twitter"
	PlatformLinkedin  = "linkedin"
	PlatformYoutube   = "youtube"
	PlatformWordpress = "wordpress"
	PlatformTelegram  = "telegram"
	PlatformWhatsapp  = "whatsapp"
)

var supportedPlatforms = map[string]struct{}{
	PlatformFacebook:  {},
	PlatformInstagram: {},
	PlatformTwitter:   {},
	PlatformLinkedin:  {},
	PlatformYoutube:   {},
	PlatformWordpress: {},
	PlatformTelegram:  {},
	PlatformWhatsapp:  {},
}

func SupportedPlatform(name string) bool {
	_, ok := supportedPlatforms[name]
	return ok
}
