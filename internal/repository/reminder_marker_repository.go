package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/models"
)

// ErrDuplicateMarker means a marker already exists for the
// (registration, reminder type) key. Callers treat it as "reminder already
// fired".
var ErrDuplicateMarker = errors.New("reminder marker already exists")

type ReminderMarkerRepository interface {
	Exists(ctx context.Context, registrationID string, reminderType models.ReminderType) (bool, error)
	// Create persists the marker, generating its id. Fails with
	// ErrDuplicateMarker on a second create for the same key.
	Create(ctx context.Context, marker *models.ReminderMarker) error
}

type reminderMarkerRepository struct {
	db *sql.DB
}

func NewReminderMarkerRepository(db *sql.DB) ReminderMarkerRepository {
	return &reminderMarkerRepository{db: db}
}

func (r *reminderMarkerRepository) Exists(ctx context.Context, registrationID string, reminderType models.ReminderType) (bool, error) {
	query := `SELECT 1 FROM reminder_markers WHERE registration_id = $1 AND reminder_type = $2`

	var one int
	err := r.db.QueryRowContext(ctx, query, registrationID, reminderType).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Log.Warn(err.Error())
		return false, err
	}
	return true, nil
}

func (r *reminderMarkerRepository) Create(ctx context.Context, marker *models.ReminderMarker) error {
	if marker.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return err
		}
		marker.ID = id
	}

	query := `
		INSERT INTO reminder_markers (id, registration_id, reminder_type, fired_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, marker.ID, marker.RegistrationID, marker.ReminderType, marker.FiredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateMarker
		}
		logger.Log.Warn(err.Error())
		return err
	}

	return nil
}
