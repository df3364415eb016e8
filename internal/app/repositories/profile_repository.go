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
	"github.com/yigit/curricula/internal/pkg/dberrors"
	"github.com/yigit/curricula/internal/pkg/logger"
)

var profileColumns = []string{
	"id", "user_id", "full_name", "class_name", "major", "status", "merged_into_id", "created_at", "updated_at",
}

// ProfileRepository handles student_profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func scanProfile(row pgx.Row, p *models.StudentProfile) error {
	return row.Scan(&p.ID, &p.UserID, &p.FullName, &p.ClassName, &p.Major, &p.Status, &p.MergedIntoID,
		&p.CreatedAt, &p.UpdatedAt)
}

// ListByUserID returns every profile row of a user, canonical first, then aliases newest first
func (r *ProfileRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.StudentProfile, error) {
	sql, args, err := psql.Select(profileColumns...).
		From("student_profiles").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("(merged_into_id IS NULL) DESC", "updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list profiles query: %w", err)
	}
	return r.query(ctx, sql, args...)
}

// ListAliases returns the profiles merged into canonicalID
func (r *ProfileRepository) ListAliases(ctx context.Context, canonicalID uuid.UUID) ([]models.StudentProfile, error) {
	sql, args, err := psql.Select(profileColumns...).
		From("student_profiles").
		Where(squirrel.Eq{"merged_into_id": canonicalID}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list aliases query: %w", err)
	}
	return r.query(ctx, sql, args...)
}

func (r *ProfileRepository) query(ctx context.Context, sql string, args ...interface{}) ([]models.StudentProfile, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying student profiles")
		return nil, fmt.Errorf("error querying student profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.StudentProfile{}
	for rows.Next() {
		var p models.StudentProfile
		if err := scanProfile(rows, &p); err != nil {
			return nil, fmt.Errorf("error scanning student profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student profiles: %w", err)
	}
	return profiles, nil
}

// GetByID retrieves a profile by its own id, canonical or not
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error) {
	sql, args, err := psql.Select(profileColumns...).
		From("student_profiles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}

	p := &models.StudentProfile{}
	if err := scanProfile(r.db.QueryRow(ctx, sql, args...), p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Str("profileID", id.String()).Msg("Error getting student profile")
		return nil, fmt.Errorf("error getting student profile: %w", err)
	}
	return p, nil
}

// CreateCanonical inserts an empty canonical profile for userID unless one already exists.
// It reports whether a row was created; concurrent callers converge on a single row.
func (r *ProfileRepository) CreateCanonical(ctx context.Context, userID uuid.UUID) (bool, error) {
	sql, args, err := psql.Insert("student_profiles").
		Columns("user_id").
		Values(userID).
		Suffix("ON CONFLICT (user_id) WHERE merged_into_id IS NULL DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build create profile query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return false, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Str("userID", userID.String()).Msg("Error creating student profile")
		return false, fmt.Errorf("error creating student profile: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
