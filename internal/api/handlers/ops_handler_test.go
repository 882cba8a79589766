package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/feed"
	"github.com/markaz-center/markazbot/internal/jobs"
	"github.com/markaz-center/markazbot/internal/models"
	"github.com/markaz-center/markazbot/internal/transfer"
)

type stubFeed struct {
	rows      []feed.Row
	parseErrs []feed.RowParseError
	fetchErr  error
}

func (f *stubFeed) FetchCandidates(context.Context) ([]feed.Row, []feed.RowParseError, error) {
	return f.rows, f.parseErrs, f.fetchErr
}

func (f *stubFeed) MarkPublished(context.Context, feed.RowRef) error { return nil }

func (f *stubFeed) AnnotateError(context.Context, feed.RowRef, string) error { return nil }

type stubPass struct{ err error }

func (p *stubPass) RunOnce(context.Context) error { return p.err }

func pendingJob(content string, scheduledAt time.Time) models.PostJob {
	return models.PostJob{
		Content:     content,
		ScheduledAt: scheduledAt,
		Platform:    models.PlatformFacebook,
		Status:      models.PostStatusPending,
	}
}

func TestListPending(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	f := &stubFeed{
		rows: []feed.Row{
			{Ref: 2, Job: pendingJob("due row", now.Add(-time.Hour))},
			{Ref: 3, Job: pendingJob("future row", now.Add(time.Hour))},
			// Unset schedule: the due check refuses it, the scheduler will keep
			// skipping it, and the API must surface it as an issue.
			{Ref: 4, Job: pendingJob("broken row", time.Time{})},
			{Ref: 5, Job: models.PostJob{
				Content:     "already out",
				ScheduledAt: now.Add(-time.Hour),
				Platform:    models.PlatformFacebook,
				Status:      models.PostStatusPublished,
			}},
		},
		parseErrs: []feed.RowParseError{{Ref: 6, Reason: `bad platform "twitter"`}},
	}
	h := NewOpsHandler(f, clock.Fixed{Instant: now}, nil)

	app := fiber.New()
	app.Get("/posts/pending", h.ListPending)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/posts/pending", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body transfer.PendingPostsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Pending, 2)
	assert.Equal(t, 2, body.Pending[0].Row)
	assert.True(t, body.Pending[0].Due)
	assert.Equal(t, 3, body.Pending[1].Row)
	assert.False(t, body.Pending[1].Due)

	require.Len(t, body.Issues, 2)
	assert.Equal(t, 4, body.Issues[0].Row)
	assert.Contains(t, body.Issues[0].Reason, "due check refused")
	assert.Equal(t, 6, body.Issues[1].Row)
	assert.Contains(t, body.Issues[1].Reason, "bad platform")
}

func TestListPendingFeedUnreachable(t *testing.T) {
	h := NewOpsHandler(&stubFeed{fetchErr: errors.New("quota exceeded")},
		clock.Fixed{Instant: time.Now()}, nil)

	app := fiber.New()
	app.Get("/posts/pending", h.ListPending)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/posts/pending", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}

func TestTriggerRun(t *testing.T) {
	h := NewOpsHandler(&stubFeed{}, clock.Fixed{Instant: time.Now()}, map[string]Pass{
		"posts":  &stubPass{},
		"busy":   &stubPass{err: jobs.ErrPassInProgress},
		"broken": &stubPass{err: errors.New("feed unreachable")},
	})

	app := fiber.New()
	app.Post("/run/:pass", h.TriggerRun)

	tests := []struct {
		name       string
		pass       string
		wantStatus int
	}{
		{name: "known pass runs", pass: "posts", wantStatus: fiber.StatusOK},
		{name: "in-flight pass conflicts", pass: "busy", wantStatus: fiber.StatusConflict},
		{name: "failing pass reported", pass: "broken", wantStatus: fiber.StatusInternalServerError},
		{name: "unknown pass", pass: "nope", wantStatus: fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/run/"+tt.pass, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
