package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/markaz-center/markazbot/internal/logger"
)

func EnqueueAlert(ctx context.Context, asynqClient *asynq.Client, payload AdminAlertPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeAdminAlert, taskPayload)

	_, err = asynqClient.EnqueueContext(ctx, task, asynq.MaxRetry(5))
	if err != nil {
		return err
	}

	return nil
}

// Alerter is the producer side of the admin-alert queue. Scheduler passes
// hand alerts off here so a slow Telegram API never extends a tick.
type Alerter struct {
	client *asynq.Client
}

func NewAlerter(client *asynq.Client) *Alerter {
	return &Alerter{client: client}
}

func (a *Alerter) Alert(ctx context.Context, severity, message string) {
	err := EnqueueAlert(ctx, a.client, AdminAlertPayload{Severity: severity, Message: message})
	if err != nil {
		// Alert delivery is best effort; the log line is the fallback channel.
		logger.Log.Errorf("failed to enqueue admin alert (%s): %v", severity, err)
	}
}
