package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReminderOffsets(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]time.Duration
		wantErr bool
	}{
		{
			name: "two offsets",
			raw:  "course_start_24h:24h,course_start_1h:1h",
			want: map[string]time.Duration{
				"course_start_24h": 24 * time.Hour,
				"course_start_1h":  time.Hour,
			},
		},
		{
			name: "spaces tolerated",
			raw:  " course_start_1h : 60m ",
			want: map[string]time.Duration{"course_start_1h": time.Hour},
		},
		{
			name:    "missing colon",
			raw:     "course_start_24h",
			wantErr: true,
		},
		{
			name:    "unparsable duration",
			raw:     "course_start_24h:oneday",
			wantErr: true,
		},
		{
			name:    "negative duration",
			raw:     "course_start_24h:-1h",
			wantErr: true,
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseReminderOffsets(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseChatIDs(t *testing.T) {
	ids, err := parseChatIDs("123, -100456,789")
	require.NoError(t, err)
	assert.Equal(t, []int64{123, -100456, 789}, ids)

	ids, err = parseChatIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseChatIDs("abc")
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Damascus", cfg.BusinessTimezone)
	assert.Equal(t, 5*time.Minute, cfg.TickInterval)
	assert.Equal(t, 10, cfg.PublishConcurrency)
	assert.Contains(t, cfg.ReminderOffsets, "course_start_24h")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL", "1m")
	t.Setenv("ADMIN_CHAT_IDS", "42")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.TickInterval)
	assert.Equal(t, []int64{42}, cfg.AdminChatIDs)
}
