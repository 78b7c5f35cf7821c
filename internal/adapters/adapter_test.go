package adapters

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/models"
)

func TestKindOf(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Transient, KindOf(Transientf("rate limited")))
	assert.Equal(Permanent, KindOf(Permanentf("rejected")))
	assert.Equal(AuthExpired, KindOf(AuthExpiredf("token expired")))

	// Untyped errors (network failures, context deadlines) retry.
	assert.Equal(Transient, KindOf(errors.New("connection reset")))
	assert.Equal(Transient, KindOf(context.DeadlineExceeded))
}

func TestStatusError(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(AuthExpired, KindOf(statusError("x", http.StatusUnauthorized, nil)))
	assert.Equal(Transient, KindOf(statusError("x", http.StatusTooManyRequests, nil)))
	assert.Equal(Transient, KindOf(statusError("x", http.StatusBadGateway, nil)))
	assert.Equal(Permanent, KindOf(statusError("x", http.StatusBadRequest, nil)))
	assert.Equal(Permanent, KindOf(statusError("x", http.StatusForbidden, nil)))
}

func TestGraphError(t *testing.T) {
	assert := assert.New(t)

	expired := []byte(`{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`)
	assert.Equal(AuthExpired, KindOf(graphError("facebook", http.StatusBadRequest, expired)))

	rateLimited := []byte(`{"error":{"message":"Application request limit reached","code":4}}`)
	assert.Equal(Transient, KindOf(graphError("facebook", http.StatusBadRequest, rateLimited)))

	transientFlag := []byte(`{"error":{"message":"Please retry","code":2,"is_transient":true}}`)
	assert.Equal(Transient, KindOf(graphError("facebook", http.StatusBadRequest, transientFlag)))

	rejected := []byte(`{"error":{"message":"Invalid parameter","code":100}}`)
	assert.Equal(Permanent, KindOf(graphError("facebook", http.StatusBadRequest, rejected)))

	// Unparseable bodies fall back to status classification.
	assert.Equal(Transient, KindOf(graphError("facebook", http.StatusInternalServerError, []byte("<html>"))))
}

func newTestTelegram(serverURL string) *telegramAdapter {
	a := NewTelegramAdapter(config.Config{TelegramBotToken: "bot-token"}).(*telegramAdapter)
	a.baseURL = serverURL
	return a
}

func TestTelegramPublish(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("/botbot-token/sendMessage", r.URL.Path)
			w.Write([]byte(`{"ok":true,"result":{"message_id":4242}}`))
		}))
		defer server.Close()

		result, err := newTestTelegram(server.URL).Publish(ctx, &PublishRequest{
			AccountID: "@mychannel",
			Body:      "Launch day!",
		})
		assert.Nil(err)
		assert.Equal("4242", result.PlatformPostID)
	})

	t.Run("media switches to sendPhoto", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal("/botbot-token/sendPhoto", r.URL.Path)
			w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
		}))
		defer server.Close()

		_, err := newTestTelegram(server.URL).Publish(ctx, &PublishRequest{
			AccountID: "@mychannel",
			Body:      "caption",
			MediaURL:  "https://cdn.example.com/pic.jpg",
		})
		assert.Nil(err)
	})

	t.Run("rate limit is transient", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":5}}`))
		}))
		defer server.Close()

		_, err := newTestTelegram(server.URL).Publish(ctx, &PublishRequest{AccountID: "@c", Body: "x"})
		assert.Equal(Transient, KindOf(err))
	})

	t.Run("revoked bot token expires auth", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		}))
		defer server.Close()

		_, err := newTestTelegram(server.URL).Publish(ctx, &PublishRequest{AccountID: "@c", Body: "x"})
		assert.Equal(AuthExpired, KindOf(err))
	})
}

func TestYoutubePublish(t *testing.T) {
	assert := assert.New(t)

	t.Run("requires media", func(t *testing.T) {
		_, err := NewYoutubeAdapter().Publish(context.Background(), &PublishRequest{Body: "no video"})
		assert.Equal(Permanent, KindOf(err))
	})

	t.Run("hung upload honors the deadline", func(t *testing.T) {
		media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("video-bytes"))
		}))
		defer media.Close()

		upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Drain the body so the server notices the client abort;
			// otherwise r.Context() is never canceled and Close deadlocks.
			io.Copy(io.Discard, r.Body)
			// Hangs until the caller gives up.
			<-r.Context().Done()
		}))
		defer upload.Close()

		a := NewYoutubeAdapter().(*youtubeAdapter)
		a.endpoint = upload.URL

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := a.Publish(ctx, &PublishRequest{
			Title:       "clip",
			Body:        "description",
			MediaURL:    media.URL + "/clip.mp4",
			AccessToken: "tok",
		})
		assert.NotNil(err)
		assert.Equal(Transient, KindOf(err), "a timed-out upload must retry")
		assert.Less(time.Since(start), 3*time.Second, "the upload call must carry the deadline")
	})
}

func TestSetCoversAllPlatforms(t *testing.T) {
	assert := assert.New(t)

	set := NewSet(config.Config{})
	for _, platform := range []string{
		models.PlatformFacebook, models.PlatformInstagram, models.PlatformTwitter,
		models.PlatformLinkedin, models.PlatformYoutube, models.PlatformWordpress,
		models.PlatformTelegram, models.PlatformWhatsapp,
	} {
		p, ok := set.For(platform)
		assert.True(ok, platform)
		assert.Equal(platform, p.Platform())
	}

	_, ok := set.For("myspace")
	assert.False(ok)
}
