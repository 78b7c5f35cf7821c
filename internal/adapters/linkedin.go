package adapters

import (
	"context"
	"encoding/json"

	"github.com/postcaldev/postcal/internal/models"
)

type linkedinAdapter struct{}

func NewLinkedinAdapter() Publisher {
	return &linkedinAdapter{}
}

func (a *linkedinAdapter) Platform() string {
	return models.PlatformLinkedin
}

// Publish creates a UGC post for the member URN stored as the account id.
func (a *linkedinAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	media := []map[string]interface{}{}
	category := "NONE"
	if req.MediaURL != "" {
		category = "ARTICLE"
		media = append(media, map[string]interface{}{
			"status":      "READY",
			"originalUrl": req.MediaURL,
		})
	}

	payload := map[string]interface{}{
		"author":         req.AccountID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]interface{}{
					"text": req.Body,
				},
				"shareMediaCategory": category,
				"media":              media,
			},
		},
		"visibility": map[string]interface{}{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	headers := map[string]string{
		"Authorization":             "Bearer " + req.AccessToken,
		"X-Restli-Protocol-Version": "2.0.0",
	}

	respBody, err := postJSON(ctx, "https://api.linkedin.com/v2/ugcPosts", payload, headers, func(status int, body []byte) error {
		return statusError(models.PlatformLinkedin, status, body)
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, Permanentf("error parsing linkedin response: %v", err)
	}
	if result.ID == "" {
		return nil, Permanentf("no post URN returned from linkedin")
	}

	return &PublishResult{PlatformPostID: result.ID}, nil
}
