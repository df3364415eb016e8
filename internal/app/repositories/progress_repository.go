package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/logger"
)

var progressColumns = []string{
	"id", "student_id", "course_id", "status", "grade", "grade_point::float8", "semester_completed", "teacher", "notes",
	"created_at", "updated_at",
}

// ProgressRepository handles student_course_progress
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func progressDest(p *models.CourseProgress) []interface{} {
	return []interface{}{&p.ID, &p.StudentID, &p.CourseID, &p.Status, &p.Grade, &p.GradePoint, &p.SemesterCompleted,
		&p.Teacher, &p.Notes, &p.CreatedAt, &p.UpdatedAt}
}

// Get returns the progress row for courseID held by one of studentIDs, preferring studentIDs[0]
func (r *ProgressRepository) Get(ctx context.Context, studentIDs []uuid.UUID, courseID uuid.UUID) (*models.CourseProgress, error) {
	if len(studentIDs) == 0 {
		return nil, apperrors.ErrProgressNotFound
	}

	sql, args, err := psql.Select(progressColumns...).
		From("student_course_progress").
		Where(squirrel.Eq{"student_id": studentIDs, "course_id": courseID}).
		OrderByClause("(student_id = ?) DESC, updated_at DESC", studentIDs[0]).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get progress query: %w", err)
	}

	p := &models.CourseProgress{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(progressDest(p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProgressNotFound
		}
		logger.Error().Err(err).Str("courseID", courseID.String()).Msg("Error getting course progress")
		return nil, fmt.Errorf("error getting course progress: %w", err)
	}
	return p, nil
}

// ListByStudents returns every progress row held by the given profile ids
func (r *ProgressRepository) ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]models.CourseProgress, error) {
	sql, args, err := psql.Select(progressColumns...).
		From("student_course_progress").
		Where(squirrel.Eq{"student_id": studentIDs}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list progress query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list progress query")
		return nil, fmt.Errorf("error querying course progress: %w", err)
	}
	defer rows.Close()

	out := []models.CourseProgress{}
	for rows.Next() {
		var p models.CourseProgress
		if err := rows.Scan(progressDest(&p)...); err != nil {
			return nil, fmt.Errorf("error scanning course progress: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course progress: %w", err)
	}
	return out, nil
}

// Update writes every mutable field of p
func (r *ProgressRepository) Update(ctx context.Context, p *models.CourseProgress) error {
	sql, args, err := psql.Update("student_course_progress").
		SetMap(map[string]interface{}{
			"status":             p.Status,
			"grade":              p.Grade,
			"grade_point":        p.GradePoint,
			"semester_completed": p.SemesterCompleted,
			"teacher":            p.Teacher,
			"notes":              p.Notes,
			"updated_at":         squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"id": p.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update progress query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrProgressNotFound
		}
		logger.Error().Err(err).Str("progressID", p.ID.String()).Msg("Error updating course progress")
		return fmt.Errorf("error updating course progress: %w", err)
	}
	return nil
}
