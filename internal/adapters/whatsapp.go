package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/models"
)

type whatsappAdapter struct {
	apiVersion    string
	phoneNumberID string
}

func NewWhatsappAdapter(cfg config.Config) Publisher {
	return &whatsappAdapter{
		apiVersion:    cfg.WhatsappAPIVersion,
		phoneNumberID: cfg.WhatsappPhoneNumberID,
	}
}

func (a *whatsappAdapter) Platform() string {
	return models.PlatformWhatsapp
}

// Publish delivers through the WhatsApp Cloud API. The business phone
// number is app-level config; the account id holds the destination
// (a group or broadcast recipient the client registered).
func (a *whatsappAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                req.AccountID,
		"type":              "text",
		"text": map[string]interface{}{
			"body": req.Body,
		},
	}
	if req.MediaURL != "" {
		payload["type"] = "image"
		delete(payload, "text")
		payload["image"] = map[string]interface{}{
			"link":    req.MediaURL,
			"caption": req.Body,
		}
	}

	url := fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", a.apiVersion, a.phoneNumberID)
	headers := map[string]string{
		"Authorization": "Bearer " + req.AccessToken,
	}

	respBody, err := postJSON(ctx, url, payload, headers, func(status int, body []byte) error {
		return graphError(models.PlatformWhatsapp, status, body)
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, Permanentf("error parsing whatsapp response: %v", err)
	}
	if len(result.Messages) == 0 || result.Messages[0].ID == "" {
		return nil, Permanentf("no message ID returned from whatsapp")
	}

	return &PublishResult{PlatformPostID: result.Messages[0].ID}, nil
}
