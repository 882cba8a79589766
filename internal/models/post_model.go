package models

import (
	"fmt"
	"strings"
	"time"
)

// Platform is the publishing target declared on a feed row.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformBoth      Platform = "both"
)

func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformFacebook:
		return PlatformFacebook, nil
	case PlatformInstagram:
		return PlatformInstagram, nil
	case PlatformBoth:
		return PlatformBoth, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Targets expands the platform value into the concrete platforms to publish to.
func (p Platform) Targets() []Platform {
	if p == PlatformBoth {
		return []Platform{PlatformFacebook, PlatformInstagram}
	}
	return []Platform{p}
}

type PostStatus string

const (
	PostStatusPending   PostStatus = "pending"
	PostStatusPublished PostStatus = "published"
)

func ParsePostStatus(s string) (PostStatus, error) {
	switch PostStatus(strings.ToLower(strings.TrimSpace(s))) {
	case PostStatusPending:
		return PostStatusPending, nil
	case PostStatusPublished:
		return PostStatusPublished, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// PostJob is one candidate post derived from a feed row. It is rebuilt from
// the feed on every pass; the feed's status column is the only persisted state.
type PostJob struct {
	Content     string
	ImageURL    string // optional; required for Instagram
	ScheduledAt time.Time
	Platform    Platform
	Status      PostStatus
}

func (j PostJob) HasImage() bool {
	return strings.TrimSpace(j.ImageURL) != ""
}
