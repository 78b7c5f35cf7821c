package adapters

import (
	"context"
	"encoding/json"

	"github.com/postcaldev/postcal/internal/models"
)

type twitterAdapter struct{}

func NewTwitterAdapter() Publisher {
	return &twitterAdapter{}
}

func (a *twitterAdapter) Platform() string {
	return models.PlatformTwitter
}

// Publish creates a tweet via the v2 API. Media upload is a separate
// chunked endpoint; a media URL is appended to the text instead.
func (a *twitterAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	text := req.Body
	if req.MediaURL != "" {
		text = text + " " + req.MediaURL
	}

	payload := map[string]interface{}{
		"text": text,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + req.AccessToken,
	}

	respBody, err := postJSON(ctx, "https://api.twitter.com/2/tweets", payload, headers, func(status int, body []byte) error {
		return statusError(models.PlatformTwitter, status, body)
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, Permanentf("error parsing twitter response: %v", err)
	}
	if result.Data.ID == "" {
		return nil, Permanentf("no tweet ID returned from twitter")
	}

	return &PublishResult{PlatformPostID: result.Data.ID}, nil
}
