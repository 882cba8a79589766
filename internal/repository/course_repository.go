package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/models"
)

type CourseRepository interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// ListStartingBefore returns published or ongoing courses whose start
	// instant lies in (now, until]. Courses that already started are excluded;
	// reminders never fire after the fact.
	ListStartingBefore(ctx context.Context, now, until time.Time) ([]*models.Course, error)
}

type courseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT id, name, instructor, start_at, end_at, price, status, created_at FROM courses WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var c models.Course
	err := row.Scan(&c.ID, &c.Name, &c.Instructor, &c.StartAt, &c.EndAt, &c.Price, &c.Status, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Log.Warn(err.Error())
		return nil, err
	}

	return &c, nil
}

func (r *courseRepository) ListStartingBefore(ctx context.Context, now, until time.Time) ([]*models.Course, error) {
	query := `
		SELECT id, name, instructor, start_at, end_at, price, status, created_at
		FROM courses
		WHERE start_at > $1 AND start_at <= $2 AND status IN ($3, $4)
		ORDER BY start_at
	`

	rows, err := r.db.QueryContext(ctx, query, now, until, models.CourseStatusPublished, models.CourseStatusOngoing)
	if err != nil {
		logger.Log.Warn(err.Error())
		return nil, err
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		var c models.Course
		err := rows.Scan(&c.ID, &c.Name, &c.Instructor, &c.StartAt, &c.EndAt, &c.Price, &c.Status, &c.CreatedAt)
		if err != nil {
			logger.Log.Warn(err.Error())
			return nil, err
		}
		courses = append(courses, &c)
	}
	return courses, rows.Err()
}
