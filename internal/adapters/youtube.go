package adapters

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/postcaldev/postcal/internal/models"
)

type youtubeAdapter struct {
	endpoint string
}

func NewYoutubeAdapter() Publisher {
	return &youtubeAdapter{}
}

func (a *youtubeAdapter) Platform() string {
	return models.PlatformYoutube
}

// Publish uploads the post's media as a video. The media URL points at
// object storage, so the file is staged through a temp file first.
func (a *youtubeAdapter) Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error) {
	if req.MediaURL == "" {
		return nil, Permanentf("youtube requires a video attachment")
	}

	token := &oauth2.Token{AccessToken: req.AccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if a.endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, Transientf("error creating youtube service: %v", err)
	}

	tempFile, err := downloadMedia(ctx, req.MediaURL)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		return nil, Transientf("error opening staged video: %v", err)
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Title,
			Description: req.Body,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	// The call has to carry the dispatcher's per-task deadline, or a hung
	// upload keeps the task in flight forever.
	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Context(ctx).Do()
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	return &PublishResult{PlatformPostID: response.Id}, nil
}

func classifyGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return statusError(models.PlatformYoutube, gerr.Code, []byte(gerr.Message))
	}
	return Transientf("youtube upload error: %v", err)
}

func downloadMedia(ctx context.Context, mediaURL string) (string, error) {
	tempFile, err := os.CreateTemp("", "upload-*.mp4")
	if err != nil {
		return "", Transientf("error creating temporary file: %v", err)
	}
	defer tempFile.Close()

	req, err := http.NewRequestWithContext(ctx, "GET", mediaURL, nil)
	if err != nil {
		return "", Permanentf("error creating media request: %v", err)
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		os.Remove(tempFile.Name())
		return "", Transientf("error downloading media: %v", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		os.Remove(tempFile.Name())
		return "", Transientf("unexpected status %d fetching media", response.StatusCode)
	}

	if _, err = io.Copy(tempFile, response.Body); err != nil {
		os.Remove(tempFile.Name())
		return "", Transientf("error staging media: %v", err)
	}

	return tempFile.Name(), nil
}
