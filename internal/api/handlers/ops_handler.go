package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/feed"
	"github.com/markaz-center/markazbot/internal/jobs"
	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/models"
	"github.com/markaz-center/markazbot/internal/transfer"
)

// Pass is a scheduler pass the ops API can trigger out of band. The pass's
// own single-flight guard protects against overlap with cron ticks.
type Pass interface {
	RunOnce(ctx context.Context) error
}

type OpsHandler struct {
	feed   feed.Feed
	clk    clock.Clock
	passes map[string]Pass
}

func NewOpsHandler(f feed.Feed, clk clock.Clock, passes map[string]Pass) *OpsHandler {
	return &OpsHandler{feed: f, clk: clk, passes: passes}
}

func (h *OpsHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// ListPending returns the feed's pending rows with their due state, plus any
// rows the parser rejected.
func (h *OpsHandler) ListPending(c *fiber.Ctx) error {
	rows, parseErrs, err := h.feed.FetchCandidates(c.Context())
	if err != nil {
		logger.Log.Errorf("ops pending fetch failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "feed unreachable",
		})
	}

	now := h.clk.Now()
	resp := transfer.PendingPostsResponse{}
	for _, row := range rows {
		if row.Job.Status != models.PostStatusPending {
			continue
		}
		due, err := clock.Due(row.Job.ScheduledAt, now)
		if err != nil {
			// A pending row the due check refuses is a contract violation the
			// scheduler will keep skipping; operators need to see it.
			resp.Issues = append(resp.Issues, transfer.FeedIssue{
				Row:    int(row.Ref),
				Reason: fmt.Sprintf("due check refused: %v", err),
			})
			continue
		}
		resp.Pending = append(resp.Pending, transfer.PendingPost{
			Row:         int(row.Ref),
			Content:     row.Job.Content,
			ImageURL:    row.Job.ImageURL,
			ScheduledAt: row.Job.ScheduledAt.Format("2006-01-02 15:04"),
			Platform:    string(row.Job.Platform),
			Due:         due,
		})
	}
	for _, perr := range parseErrs {
		resp.Issues = append(resp.Issues, transfer.FeedIssue{
			Row:    int(perr.Ref),
			Reason: perr.Reason,
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// TriggerRun runs one named pass immediately instead of waiting for the next
// tick.
func (h *OpsHandler) TriggerRun(c *fiber.Ctx) error {
	name := c.Params("pass")
	pass, ok := h.passes[name]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "unknown pass",
		})
	}

	logger.Log.WithFields(map[string]interface{}{
		"pass":  name,
		"admin": c.Locals("admin_id"),
	}).Info("manual pass triggered")

	if err := pass.RunOnce(c.Context()); err != nil {
		if errors.Is(err, jobs.ErrPassInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "pass already running",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "pass completed",
	})
}
