package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/transfer"
)

// PublishRequest is the normalized publish call every platform adapter
// accepts: the composed content, an optional media URL and the credentials
// resolved from the platform account registry.
type PublishRequest struct {
	Title       string
	Body        string
	MediaURL    string
	AccountID   string // platform-side target: page id, ig user id, channel, person URN, site, chat id, phone number id
	AccessToken string
}

type PublishResult struct {
	PlatformPostID string
}

type Publisher interface {
	Platform() string
	Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error)
}

type ErrorKind int

const (
	// Transient failures (timeouts, 5xx, rate limits) are retried with backoff.
	Transient ErrorKind = iota
	// Permanent failures (rejected content, bad request) are never retried.
	Permanent
	// AuthExpired is permanent for the task and marks the account as
	// needing reconnection.
	AuthExpired
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case AuthExpired:
		return "auth_expired"
	default:
		return "unknown"
	}
}

type AdapterError struct {
	Kind    ErrorKind
	Message string
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func Transientf(format string, args ...any) error {
	return &AdapterError{Kind: Transient, Message: fmt.Sprintf(format, args...)}
}

func Permanentf(format string, args ...any) error {
	return &AdapterError{Kind: Permanent, Message: fmt.Sprintf(format, args...)}
}

func AuthExpiredf(format string, args ...any) error {
	return &AdapterError{Kind: AuthExpired, Message: fmt.Sprintf(format, args...)}
}

// KindOf maps any publish error onto the retry taxonomy. Untyped errors
// (network failures, context timeouts) are treated as transient.
func KindOf(err error) ErrorKind {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Transient
}

// statusError classifies a non-2xx HTTP response by status code alone.
func statusError(platform string, status int, body []byte) error {
	msg := fmt.Sprintf("%s returned status %d: %s", platform, status, truncate(body, 256))
	switch {
	case status == http.StatusUnauthorized:
		return &AdapterError{Kind: AuthExpired, Message: msg}
	case status == http.StatusTooManyRequests || status >= 500:
		return &AdapterError{Kind: Transient, Message: msg}
	default:
		return &AdapterError{Kind: Permanent, Message: msg}
	}
}

// graphError classifies a Meta Graph API error envelope. Code 190 is the
// documented expired/invalid token code; 4, 17 and 32 are rate limits.
func graphError(platform string, status int, body []byte) error {
	var envelope transfer.GraphErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg := fmt.Sprintf("%s: %s (code %d)", platform, envelope.Error.Message, envelope.Error.Code)
		switch {
		case envelope.Error.Code == 190:
			return &AdapterError{Kind: AuthExpired, Message: msg}
		case envelope.Error.IsTransient, envelope.Error.Code == 4, envelope.Error.Code == 17, envelope.Error.Code == 32:
			return &AdapterError{Kind: Transient, Message: msg}
		}
	}
	return statusError(platform, status, body)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// postJSON sends a JSON POST and returns the response body, classifying
// non-2xx responses with the supplied classifier.
func postJSON(ctx context.Context, url string, payload any, headers map[string]string, classify func(status int, body []byte) error) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, Permanentf("error marshalling payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, Permanentf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, Transientf("HTTP request error: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Transientf("error reading response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// Set maps a platform name to its adapter.
type Set map[string]Publisher

func NewSet(cfg config.Config) Set {
	publishers := []Publisher{
		NewFacebookAdapter(cfg),
		NewInstagramAdapter(),
		NewTwitterAdapter(),
		NewLinkedinAdapter(),
		NewYoutubeAdapter(),
		NewWordpressAdapter(),
		NewTelegramAdapter(cfg),
		NewWhatsappAdapter(cfg),
	}

	set := make(Set, len(publishers))
	for _, p := range publishers {
		set[p.Platform()] = p
	}
	return set
}

func (s Set) For(platform string) (Publisher, bool) {
	p, ok := s[platform]
	return p, ok
}
