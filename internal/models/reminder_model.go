package models

import "time"

// ReminderType names one configured time-relative reminder, e.g. a message
// sent 24 hours before a course starts.
type ReminderType string

const (
	ReminderCourseStart24h ReminderType = "course_start_24h"
	ReminderCourseStart1h  ReminderType = "course_start_1h"
)

// ReminderMarker is the create-once proof that a reminder already fired for a
// registration. Its absence is the only signal that the reminder is pending.
type ReminderMarker struct {
	ID             string       `db:"id"`
	RegistrationID string       `db:"registration_id"`
	ReminderType   ReminderType `db:"reminder_type"`
	FiredAt        time.Time    `db:"fired_at"`
}
