package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/postcaldev/postcal/internal/models"
)

type instagramAdapter struct{}

func NewInstagramAdapter() Publisher {
	return &instagramAdapter{}
}

func (a *instagramAdapter) Platform() string {
	return models.PlatformInstagram
}

// Publish runs the two-step Instagram flow: create a media container for
// the image, then publish the container. Instagram requires media; a
// text-only post is rejected up front.
func (a *instagramAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	if req.MediaURL == "" {
		return nil, Permanentf("instagram requires a media attachment")
	}

	containerID, err := a.createContainer(ctx, req)
	if err != nil {
		return nil, err
	}

	return a.publishContainer(ctx, req, containerID)
}

func (a *instagramAdapter) createContainer(ctx context.Context, req *PublishRequest) (string, error) {
	url := fmt.Sprintf("https://graph.instagram.com/v21.0/%s/media", req.AccountID)
	payload := map[string]interface{}{
		"image_url":    req.MediaURL,
		"caption":      req.Body,
		"access_token": req.AccessToken,
	}

	respBody, err := postJSON(ctx, url, payload, nil, func(status int, body []byte) error {
		return graphError(models.PlatformInstagram, status, body)
	})
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", Permanentf("error parsing instagram response: %v", err)
	}
	if result.ID == "" {
		return "", Permanentf("no media container ID returned from instagram")
	}

	return result.ID, nil
}

func (a *instagramAdapter) publishContainer(ctx context.Context, req *PublishRequest, containerID string) (*PublishResult, error) {
	url := fmt.Sprintf("https://graph.instagram.com/v21.0/%s/media_publish", req.AccountID)
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": req.AccessToken,
	}

	respBody, err := postJSON(ctx, url, payload, nil, func(status int, body []byte) error {
		return graphError(models.PlatformInstagram, status, body)
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, Permanentf("error parsing instagram publish response: %v", err)
	}
	if result.ID == "" {
		return nil, Permanentf("no media ID returned from instagram publish")
	}

	return &PublishResult{PlatformPostID: result.ID}, nil
}
