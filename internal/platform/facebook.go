package platform

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/markaz-center/markazbot/internal/models"
)

// FacebookPublisher posts to a Facebook page through the Graph API.
// Text-only posts go to the feed edge, photo posts to the photos edge.
type FacebookPublisher struct {
	client      *http.Client
	baseURL     string
	pageID      string
	accessToken string
}

func NewFacebookPublisher(pageID, accessToken string, timeout time.Duration) *FacebookPublisher {
	return &FacebookPublisher{
		client:      &http.Client{Timeout: timeout},
		baseURL:     graphAPIBase,
		pageID:      pageID,
		accessToken: accessToken,
	}
}

func (p *FacebookPublisher) Name() models.Platform {
	return models.PlatformFacebook
}

func (p *FacebookPublisher) Publish(ctx context.Context, job models.PostJob) (PublishResult, error) {
	var (
		url     string
		payload map[string]interface{}
	)

	if job.HasImage() {
		url = fmt.Sprintf("%s/%s/photos", p.baseURL, p.pageID)
		payload = map[string]interface{}{
			"url":          job.ImageURL,
			"caption":      job.Content,
			"access_token": p.accessToken,
		}
	} else {
		url = fmt.Sprintf("%s/%s/feed", p.baseURL, p.pageID)
		payload = map[string]interface{}{
			"message":      job.Content,
			"access_token": p.accessToken,
		}
	}

	gr, status, err := postGraph(ctx, p.client, url, payload)
	if err != nil {
		return PublishResult{}, transportError(models.PlatformFacebook, err)
	}
	if err := checkGraph(models.PlatformFacebook, gr, status); err != nil {
		return PublishResult{}, err
	}

	return PublishResult{PlatformPostID: gr.ID}, nil
}
