package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/postcaldev/postcal/internal/models"
)

type wordpressAdapter struct{}

func NewWordpressAdapter() Publisher {
	return &wordpressAdapter{}
}

func (a *wordpressAdapter) Platform() string {
	return models.PlatformWordpress
}

// Publish creates a post through the WP REST API. The account id holds the
// site base URL; the access token is an application password already
// combined with the username (base64 of user:password).
func (a *wordpressAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	site := strings.TrimRight(req.AccountID, "/")
	if site == "" {
		return nil, Permanentf("wordpress site URL is not set on the account")
	}

	content := req.Body
	if req.MediaURL != "" {
		content = fmt.Sprintf(`<img src="%s" /><p>%s</p>`, req.MediaURL, req.Body)
	}

	payload := map[string]interface{}{
		"title":   req.Title,
		"content": content,
		"status":  "publish",
	}
	headers := map[string]string{
		"Authorization": "Basic " + req.AccessToken,
	}

	respBody, err := postJSON(ctx, site+"/wp-json/wp/v2/posts", payload, headers, func(status int, body []byte) error {
		return statusError(models.PlatformWordpress, status, body)
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, Permanentf("error parsing wordpress response: %v", err)
	}
	if result.ID == 0 {
		return nil, Permanentf("no post ID returned from wordpress")
	}

	return &PublishResult{PlatformPostID: strconv.FormatInt(result.ID, 10)}, nil
}
