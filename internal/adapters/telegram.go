package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/models"
)

type telegramAdapter struct {
	botToken string
	baseURL  string
}

func NewTelegramAdapter(cfg config.Config) Publisher {
	return &telegramAdapter{
		botToken: cfg.TelegramBotToken,
		baseURL:  "https://api.telegram.org",
	}
}

func (a *telegramAdapter) Platform() string {
	return models.PlatformTelegram
}

// Publish sends to the channel/chat stored as the account id via the bot
// API. The bot token is app-level config, not a per-client credential.
func (a *telegramAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	method := "sendMessage"
	payload := map[string]interface{}{
		"chat_id": req.AccountID,
		"text":    req.Body,
	}
	if req.MediaURL != "" {
		method = "sendPhoto"
		payload = map[string]interface{}{
			"chat_id": req.AccountID,
			"photo":   req.MediaURL,
			"caption": req.Body,
		}
	}

	url := fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.botToken, method)

	respBody, err := postJSON(ctx, url, payload, nil, classifyTelegramError)
	if err != nil {
		return nil, err
	}

	var result struct {
		Ok     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, Permanentf("error parsing telegram response: %v", err)
	}
	if !result.Ok || result.Result.MessageID == 0 {
		return nil, Permanentf("no message ID returned from telegram")
	}

	return &PublishResult{PlatformPostID: fmt.Sprintf("%d", result.Result.MessageID)}, nil
}

func classifyTelegramError(status int, body []byte) error {
	var envelope struct {
		Description string `json:"description"`
		ErrorCode   int    `json:"error_code"`
		Parameters  struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Description != "" {
		msg := fmt.Sprintf("telegram: %s", envelope.Description)
		switch {
		case envelope.ErrorCode == http.StatusUnauthorized:
			return &AdapterError{Kind: AuthExpired, Message: msg}
		case envelope.Parameters.RetryAfter > 0 || envelope.ErrorCode == http.StatusTooManyRequests:
			return &AdapterError{Kind: Transient, Message: msg}
		}
	}
	return statusError(models.PlatformTelegram, status, body)
}
