package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	cfg "github.com/markaz-center/markazbot/configs"
	"github.com/markaz-center/markazbot/internal/logger"
)

// maxImageSize caps downloads from feed-supplied URLs.
const maxImageSize = 25 * 1024 * 1024

// MediaMirror copies a feed-referenced image into storage the platforms can
// fetch from, returning the public URL to publish with.
type MediaMirror interface {
	MirrorImage(ctx context.Context, srcURL string) (string, error)
}

// R2MediaService mirrors images into Cloudflare R2. Instagram only accepts
// publicly reachable image URLs, and feed rows may point anywhere, so every
// image is re-hosted before publishing.
type R2MediaService struct {
	config     cfg.Config
	s3Client   *s3.Client
	httpClient *http.Client
}

func NewR2MediaService(c cfg.Config) (*R2MediaService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.R2.AccessKey, c.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID))
	})

	return &R2MediaService{
		config:     c,
		s3Client:   client,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *R2MediaService) MirrorImage(ctx context.Context, srcURL string) (string, error) {
	data, err := s.download(ctx, srcURL)
	if err != nil {
		return "", err
	}

	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return "", fmt.Errorf("source is not an image: %s", srcURL)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("posts/%s.%s", id, kind.Extension)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(kind.MIME.Value),
	}

	if _, err := s.s3Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload to r2: %w", err)
	}

	publicURL := strings.TrimRight(s.config.R2.PublicBaseURL, "/") + "/" + key
	logger.Log.WithField("key", key).Debug("mirrored feed image")
	return publicURL, nil
}

func (s *R2MediaService) download(ctx context.Context, srcURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image %s: status %d", srcURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image too large: %s", srcURL)
	}
	return data, nil
}
