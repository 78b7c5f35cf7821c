package transfer

import "time"

// AccountConnection carries credentials obtained by the external OAuth
// layer; the core stores them, it does not run the token exchange.
type AccountConnection struct {
	Platform       string    `json:"platform"`
	AccountID      string    `json:"account_id"`
	AccountName    string    `json:"account_name"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

// GraphErrorResponse is the error envelope shared by the Meta Graph APIs
// (Facebook, Instagram, WhatsApp).
type GraphErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
