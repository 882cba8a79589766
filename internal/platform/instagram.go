package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/markaz-center/markazbot/internal/models"
)

// InstagramPublisher posts to an Instagram business account through the Graph
// API two-step flow: create a media container, then publish it. Instagram has
// no text-only posts; a job without an image cannot be published here.
type InstagramPublisher struct {
	client      *http.Client
	baseURL     string
	accountID   string
	accessToken string
}

func NewInstagramPublisher(accountID, accessToken string, timeout time.Duration) *InstagramPublisher {
	return &InstagramPublisher{
		client:      &http.Client{Timeout: timeout},
		baseURL:     graphAPIBase,
		accountID:   accountID,
		accessToken: accessToken,
	}
}

func (p *InstagramPublisher) Name() models.Platform {
	return models.PlatformInstagram
}

func (p *InstagramPublisher) Publish(ctx context.Context, job models.PostJob) (PublishResult, error) {
	if !job.HasImage() {
		return PublishResult{}, &PublishError{
			Platform: models.PlatformInstagram,
			Kind:     KindMediaFetch,
			Err:      errors.New("instagram posts require an image_url"),
		}
	}

	containerID, err := p.createContainer(ctx, job)
	if err != nil {
		return PublishResult{}, err
	}
	return p.publishContainer(ctx, containerID)
}

func (p *InstagramPublisher) createContainer(ctx context.Context, job models.PostJob) (string, error) {
	url := fmt.Sprintf("%s/%s/media", p.baseURL, p.accountID)
	payload := map[string]interface{}{
		"image_url":    job.ImageURL,
		"caption":      job.Content,
		"access_token": p.accessToken,
	}

	gr, status, err := postGraph(ctx, p.client, url, payload)
	if err != nil {
		return "", transportError(models.PlatformInstagram, err)
	}
	if err := checkGraph(models.PlatformInstagram, gr, status); err != nil {
		return "", err
	}
	return gr.ID, nil
}

func (p *InstagramPublisher) publishContainer(ctx context.Context, containerID string) (PublishResult, error) {
	url := fmt.Sprintf("%s/%s/media_publish", p.baseURL, p.accountID)
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": p.accessToken,
	}

	gr, status, err := postGraph(ctx, p.client, url, payload)
	if err != nil {
		return PublishResult{}, transportError(models.PlatformInstagram, err)
	}
	if err := checkGraph(models.PlatformInstagram, gr, status); err != nil {
		return PublishResult{}, err
	}
	return PublishResult{PlatformPostID: gr.ID}, nil
}
