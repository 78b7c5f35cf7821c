package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/models"
)

type facebookAdapter struct {
	apiVersion string
}

func NewFacebookAdapter(cfg config.Config) Publisher {
	return &facebookAdapter{apiVersion: cfg.FacebookAPIVersion}
}

func (a *facebookAdapter) Platform() string {
	return models.PlatformFacebook
}

// Publish posts to a Facebook page feed; with media it goes through the
// photos edge instead so the image is attached rather than linked.
func (a *facebookAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	edge := "feed"
	payload := map[string]interface{}{
		"message":      req.Body,
		"access_token": req.AccessToken,
	}
	if req.MediaURL != "" {
		edge = "photos"
		payload["url"] = req.MediaURL
		payload["caption"] = req.Body
		delete(payload, "message")
	}

	url := fmt.Sprintf("https://graph.facebook.com/%s/%s/%s", a.apiVersion, req.AccountID, edge)

	respBody, err := postJSON(ctx, url, payload, nil, func(status int, body []byte) error {
		return graphError(models.PlatformFacebook, status, body)
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, Permanentf("error parsing facebook response: %v", err)
	}

	id := result.PostID
	if id == "" {
		id = result.ID
	}
	if id == "" {
		return nil, Permanentf("no post ID returned from facebook")
	}

	return &PublishResult{PlatformPostID: id}, nil
}
