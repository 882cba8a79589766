package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/models"
)

func TestParseRow(t *testing.T) {
	clk, err := clock.NewBusinessClock("Asia/Damascus")
	require.NoError(t, err)

	tests := []struct {
		name       string
		cells      []string
		wantErr    string
		wantStatus models.PostStatus
		wantPlat   models.Platform
	}{
		{
			name:       "valid facebook row",
			cells:      []string{"New course open!", "", "2024-01-15", "14:30", "facebook", "pending"},
			wantStatus: models.PostStatusPending,
			wantPlat:   models.PlatformFacebook,
		},
		{
			name:       "valid both row with image",
			cells:      []string{"Photo day", "https://example.com/a.jpg", "2024-01-15", "14:30", "both", "published"},
			wantStatus: models.PostStatusPublished,
			wantPlat:   models.PlatformBoth,
		},
		{
			name:       "mixed case enums tolerated",
			cells:      []string{"hello", "", "2024-01-15", "08:00", "Instagram", "Pending"},
			wantStatus: models.PostStatusPending,
			wantPlat:   models.PlatformInstagram,
		},
		{
			name:    "day-first date rejected",
			cells:   []string{"hello", "", "15-01-2024", "14:30", "facebook", "pending"},
			wantErr: "bad date/time",
		},
		{
			name:    "unknown platform rejected",
			cells:   []string{"hello", "", "2024-01-15", "14:30", "twitter", "pending"},
			wantErr: "bad platform",
		},
		{
			name:    "unknown status rejected",
			cells:   []string{"hello", "", "2024-01-15", "14:30", "facebook", "done"},
			wantErr: "bad status",
		},
		{
			name:    "empty content rejected",
			cells:   []string{"", "", "2024-01-15", "14:30", "facebook", "pending"},
			wantErr: "missing content",
		},
		{
			name:    "short row rejected",
			cells:   []string{"hello", "", "2024-01-15"},
			wantErr: "bad date/time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, perr := parseRow(7, tt.cells, clk)

			if tt.wantErr != "" {
				require.NotNil(t, perr)
				assert.Equal(t, RowRef(7), perr.Ref)
				assert.Contains(t, perr.Error(), tt.wantErr)
				return
			}

			require.Nil(t, perr)
			assert.Equal(t, RowRef(7), row.Ref)
			assert.Equal(t, tt.wantStatus, row.Job.Status)
			assert.Equal(t, tt.wantPlat, row.Job.Platform)
			assert.Equal(t, clk.Location(), row.Job.ScheduledAt.Location())
		})
	}
}

func TestPlatformTargets(t *testing.T) {
	assert.Equal(t, []models.Platform{models.PlatformFacebook}, models.PlatformFacebook.Targets())
	assert.Equal(t, []models.Platform{models.PlatformInstagram}, models.PlatformInstagram.Targets())
	assert.Equal(t,
		[]models.Platform{models.PlatformFacebook, models.PlatformInstagram},
		models.PlatformBoth.Targets(),
	)
}
