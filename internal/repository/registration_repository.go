package repository

import (
	"context"
	"database/sql"

	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/models"
)

// RegistrationRepository is read-only for the scheduling engine; rows are
// created and mutated by the registration workflow.
type RegistrationRepository interface {
	GetByID(ctx context.Context, id string) (*models.Registration, error)
	ListApprovedByCourse(ctx context.Context, courseID string) ([]*models.Registration, error)
}

type registrationRepository struct {
	db *sql.DB
}

func NewRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

const registrationColumns = `id, course_id, student_id, student_name, telegram_chat_id, status, payment_status, created_at`

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.CourseID, &reg.StudentID, &reg.StudentName, &reg.TelegramChatID, &reg.Status, &reg.PaymentStatus, &reg.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Log.Warn(err.Error())
		return nil, err
	}

	return &reg, nil
}

func (r *registrationRepository) ListApprovedByCourse(ctx context.Context, courseID string) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE course_id = $1 AND status = $2 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, courseID, models.RegistrationStatusApproved)
	if err != nil {
		logger.Log.Warn(err.Error())
		return nil, err
	}
	defer rows.Close()

	var regs []*models.Registration
	for rows.Next() {
		var reg models.Registration
		err := rows.Scan(&reg.ID, &reg.CourseID, &reg.StudentID, &reg.StudentName, &reg.TelegramChatID, &reg.Status, &reg.PaymentStatus, &reg.CreatedAt)
		if err != nil {
			logger.Log.Warn(err.Error())
			return nil, err
		}
		regs = append(regs, &reg)
	}
	return regs, rows.Err()
}
