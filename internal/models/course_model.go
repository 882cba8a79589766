package models

import "time"

type Course struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Instructor string    `db:"instructor"`
	StartAt    time.Time `db:"start_at"`
	EndAt      time.Time `db:"end_at"`
	Price      float64   `db:"price"`
	Status     string    `db:"status"` // draft, published, ongoing, completed
	CreatedAt  time.Time `db:"created_at"`
}

// Registration links a student to a course. Owned by the registration
// workflow; the reminder pass only ever reads these rows.
type Registration struct {
	ID             string    `db:"id"`
	CourseID       string    `db:"course_id"`
	StudentID      string    `db:"student_id"`
	StudentName    string    `db:"student_name"`
	TelegramChatID int64     `db:"telegram_chat_id"`
	Status         string    `db:"status"`         // pending, approved, rejected
	PaymentStatus  string    `db:"payment_status"` // unpaid, partial, paid
	CreatedAt      time.Time `db:"created_at"`
}

const (
	CourseStatusPublished = "published"
	CourseStatusOngoing   = "ongoing"

	RegistrationStatusApproved = "approved"
)
