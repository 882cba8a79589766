package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/feed"
	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/models"
	"github.com/markaz-center/markazbot/internal/platform"
	"github.com/markaz-center/markazbot/internal/service"
)

// PostPublishJob is the scheduler pass over the feed: fetch candidates, pick
// the due pending rows, publish each to its targeted platforms, and commit
// the outcome back to the feed. The feed's status column is the only retry
// ledger; anything not marked published is retried on the next tick.
type PostPublishJob struct {
	feed        feed.Feed
	publishers  map[models.Platform]platform.Publisher
	media       service.MediaMirror
	clk         clock.Clock
	alerts      AdminAlerter
	concurrency int
	tickTimeout time.Duration

	mu sync.Mutex
}

func NewPostPublishJob(
	f feed.Feed,
	publishers []platform.Publisher,
	media service.MediaMirror,
	clk clock.Clock,
	alerts AdminAlerter,
	concurrency int,
	tickTimeout time.Duration,
) *PostPublishJob {
	byName := make(map[models.Platform]platform.Publisher, len(publishers))
	for _, p := range publishers {
		byName[p.Name()] = p
	}
	return &PostPublishJob{
		feed:        f,
		publishers:  byName,
		media:       media,
		clk:         clk,
		alerts:      alerts,
		concurrency: concurrency,
		tickTimeout: tickTimeout,
	}
}

// Run is the cron entrypoint.
func (j *PostPublishJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.tickTimeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil && !errors.Is(err, ErrPassInProgress) {
		logger.Log.Errorf("post publish pass failed: %v", err)
	}
}

// RunOnce executes a single pass. A pass never overlaps its previous run;
// the status column has exactly one writer at a time.
func (j *PostPublishJob) RunOnce(ctx context.Context) error {
	if !j.mu.TryLock() {
		logger.Log.Warn("post publish pass still running, skipping tick")
		return ErrPassInProgress
	}
	defer j.mu.Unlock()

	rows, parseErrs, err := j.feed.FetchCandidates(ctx)
	if err != nil {
		// Feed unreachable: abort this tick only, the next one retries.
		logger.Log.Errorf("feed fetch failed: %v", err)
		j.alerts.Alert(ctx, SeverityWarning, fmt.Sprintf("feed fetch failed: %v", err))
		return err
	}

	for i := range parseErrs {
		logger.Log.WithField("row", int(parseErrs[i].Ref)).Warnf("skipping malformed feed row: %s", parseErrs[i].Reason)
	}

	due := j.dueRows(rows)
	if len(due) == 0 {
		return nil
	}
	logger.Log.WithField("due", len(due)).Info("dispatching due posts")

	// Bounded fan-out across jobs; one slow row must not stall the rest.
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, j.concurrency)
	for _, row := range due {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(row feed.Row) {
			defer wg.Done()
			defer func() { <-semaphore }()
			j.processRow(ctx, row)
		}(row)
	}
	wg.Wait()

	return nil
}

// dueRows keeps pending rows whose scheduled instant has passed, preserving
// feed order.
func (j *PostPublishJob) dueRows(rows []feed.Row) []feed.Row {
	now := j.clk.Now()

	var due []feed.Row
	for _, row := range rows {
		if row.Job.Status != models.PostStatusPending {
			continue
		}
		isDue, err := clock.Due(row.Job.ScheduledAt, now)
		if err != nil {
			logger.Log.WithField("row", int(row.Ref)).Errorf("due check refused: %v", err)
			continue
		}
		if isDue {
			due = append(due, row)
		}
	}
	return due
}

// processRow publishes one due row to every targeted platform and commits the
// outcome. All targeted platforms must succeed before the row is marked
// published; on any failure the row stays pending and is retried next tick,
// which may re-submit to a platform that already succeeded (accepted
// at-least-once behavior).
func (j *PostPublishJob) processRow(ctx context.Context, row feed.Row) {
	job := row.Job
	log := logger.Log.WithField("row", int(row.Ref))

	targets, skippedInstagram := j.targetsFor(job)
	if skippedInstagram {
		log.Warn("post targets both platforms but has no image, publishing to facebook only")
	}
	if len(targets) == 0 {
		log.Warn("instagram post has no image_url, cannot publish")
		j.annotate(ctx, row.Ref, "instagram requires an image_url")
		return
	}

	if job.HasImage() {
		mirrored, err := j.media.MirrorImage(ctx, job.ImageURL)
		if err != nil {
			log.Warnf("media mirror failed: %v", err)
			j.annotate(ctx, row.Ref, fmt.Sprintf("media fetch failed: %v", err))
			j.alerts.Alert(ctx, SeverityWarning, fmt.Sprintf("row %d: media fetch failed: %v", row.Ref, err))
			return
		}
		job.ImageURL = mirrored
	}

	var failures []string
	for _, pub := range targets {
		res, err := pub.Publish(ctx, job)
		if err != nil {
			kind := platform.KindTransient
			var perr *platform.PublishError
			if errors.As(err, &perr) {
				kind = perr.Kind
			}
			log.WithFields(map[string]interface{}{
				"platform": string(pub.Name()),
				"kind":     string(kind),
			}).Warnf("publish failed: %v", err)
			failures = append(failures, fmt.Sprintf("%s: %v", pub.Name(), err))
			continue
		}
		log.WithFields(map[string]interface{}{
			"platform": string(pub.Name()),
			"post_id":  res.PlatformPostID,
		}).Info("published")
	}

	if len(failures) > 0 {
		// Leave status=pending so the next tick retries the whole row.
		msg := strings.Join(failures, "; ")
		j.annotate(ctx, row.Ref, msg)
		j.alerts.Alert(ctx, SeverityWarning, fmt.Sprintf("row %d publish failed: %s", row.Ref, msg))
		return
	}

	if err := j.feed.MarkPublished(ctx, row.Ref); err != nil {
		// The post went out but the ledger still says pending: the next tick
		// will publish it again. Loudest failure in the engine.
		log.Errorf("write-back failed after successful publish, duplicate post likely next tick: %v", err)
		j.alerts.Alert(ctx, SeverityCritical,
			fmt.Sprintf("row %d published but write-back failed: %v", row.Ref, err))
		return
	}
	log.Info("row marked published")
}

// targetsFor resolves the adapters implied by the row's platform value. A
// "both" post without an image degrades to Facebook only; an Instagram-only
// post without an image has no viable target.
func (j *PostPublishJob) targetsFor(job models.PostJob) (targets []platform.Publisher, skippedInstagram bool) {
	for _, name := range job.Platform.Targets() {
		if name == models.PlatformInstagram && !job.HasImage() {
			if job.Platform == models.PlatformBoth {
				skippedInstagram = true
			}
			continue
		}
		if pub, ok := j.publishers[name]; ok {
			targets = append(targets, pub)
		}
	}
	return targets, skippedInstagram
}

func (j *PostPublishJob) annotate(ctx context.Context, ref feed.RowRef, note string) {
	if err := j.feed.AnnotateError(ctx, ref, note); err != nil {
		logger.Log.WithField("row", int(ref)).Warnf("failed to annotate row: %v", err)
	}
}
