// Package notify delivers user-facing and operator-facing messages. The
// scheduling engine only depends on the Notifier contract; delivery transport
// is an implementation detail.
package notify

import "context"

type TemplateKind string

const (
	// TemplateCourseReminder is the student-facing "course starts soon" message.
	TemplateCourseReminder TemplateKind = "course_reminder"
	// TemplateAdminAlert carries operational failures to administrators.
	TemplateAdminAlert TemplateKind = "admin_alert"
)

type Notifier interface {
	Send(ctx context.Context, recipientID int64, kind TemplateKind, params map[string]string) error
}
