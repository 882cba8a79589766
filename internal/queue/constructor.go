package queue

import (
	"github.com/markaz-center/markazbot/internal/notify"
)

// Queue holds the worker-side dependencies for background tasks.
type Queue struct {
	n            notify.Notifier
	adminChatIDs []int64
}

func NewQueue(n notify.Notifier, adminChatIDs []int64) *Queue {
	return &Queue{
		n:            n,
		adminChatIDs: adminChatIDs,
	}
}

const TaskTypeAdminAlert = "admin:alert"

type AdminAlertPayload struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}
