// Package feed reads candidate posts from the external spreadsheet feed and
// writes publish outcomes back to it. The feed is both job queue and status
// ledger; this package never reorders, deletes, or rewrites rows — only the
// status cell (and an optional error note) are ever touched, in place.
package feed

import (
	"context"
	"fmt"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/models"
)

// RowRef is the 1-based spreadsheet row index. It is the job's only identity;
// write-backs always address this exact row, never a content match.
type RowRef int

// Row is one successfully parsed feed row.
type Row struct {
	Ref RowRef
	Job models.PostJob
}

// RowParseError records one malformed row. A bad row never aborts the batch.
type RowParseError struct {
	Ref    RowRef
	Reason string
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Ref, e.Reason)
}

// Feed is the external spreadsheet-shaped system of record.
type Feed interface {
	// FetchCandidates returns all parseable rows in feed order, plus one
	// RowParseError per malformed row.
	FetchCandidates(ctx context.Context) ([]Row, []RowParseError, error)

	// MarkPublished sets the status cell of the given row to published.
	// This is the single commit point for a post.
	MarkPublished(ctx context.Context, ref RowRef) error

	// AnnotateError writes a note into the row's error column for operators.
	AnnotateError(ctx context.Context, ref RowRef, note string) error
}

// Column order of the feed: content | image_url | date | time | platform | status.
const (
	colContent = iota
	colImageURL
	colDate
	colTime
	colPlatform
	colStatus

	columnCount
)

// parseRow validates one raw row. Temporal cells are interpreted in the
// business timezone.
func parseRow(ref RowRef, cells []string, clk *clock.BusinessClock) (Row, *RowParseError) {
	if len(cells) < columnCount {
		padded := make([]string, columnCount)
		copy(padded, cells)
		cells = padded
	}

	fail := func(format string, args ...any) (Row, *RowParseError) {
		return Row{}, &RowParseError{Ref: ref, Reason: fmt.Sprintf(format, args...)}
	}

	content := cells[colContent]
	if content == "" {
		return fail("missing content")
	}

	scheduledAt, err := clk.Parse(cells[colDate], cells[colTime])
	if err != nil {
		return fail("bad date/time %q %q", cells[colDate], cells[colTime])
	}

	platform, err := models.ParsePlatform(cells[colPlatform])
	if err != nil {
		return fail("bad platform %q", cells[colPlatform])
	}

	status, err := models.ParsePostStatus(cells[colStatus])
	if err != nil {
		return fail("bad status %q", cells[colStatus])
	}

	return Row{
		Ref: ref,
		Job: models.PostJob{
			Content:     content,
			ImageURL:    cells[colImageURL],
			ScheduledAt: scheduledAt,
			Platform:    platform,
			Status:      status,
		},
	}, nil
}
