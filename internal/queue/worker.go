package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/notify"
)

func (q *Queue) HandleAdminAlertTask(ctx context.Context, task *asynq.Task) error {
	var payload AdminAlertPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	params := map[string]string{
		"severity": payload.Severity,
		"message":  payload.Message,
	}

	var lastErr error
	for _, chatID := range q.adminChatIDs {
		if err := q.n.Send(ctx, chatID, notify.TemplateAdminAlert, params); err != nil {
			logger.Log.WithField("chat_id", chatID).Warnf("admin alert delivery failed: %v", err)
			lastErr = err
		}
	}
	// Returning the error lets asynq retry delivery to admins that failed.
	return lastErr
}
