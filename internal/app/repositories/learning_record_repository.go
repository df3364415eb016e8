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

var (
	tagColumns = []string{"id", "student_id", "tag_name", "tag_category", "proficiency_level", "description",
		"course_name", "course_id", "status", "created_at", "updated_at"}
	achievementColumns = []string{"id", "student_id", "title", "content", "achievement_type", "achievement_date",
		"course_name", "course_id", "created_at", "updated_at"}
	outcomeColumns = []string{"id", "student_id", "outcome_title", "outcome_description", "start_date", "end_date",
		"course_name", "course_id", "created_at", "updated_at"}
)

// LearningRecordRepository handles technical tags, learning achievements and learning outcomes
type LearningRecordRepository struct {
	db *pgxpool.Pool
}

// NewLearningRecordRepository creates a new LearningRecordRepository
func NewLearningRecordRepository(db *pgxpool.Pool) *LearningRecordRepository {
	return &LearningRecordRepository{db: db}
}

// courseMatch selects records attached to ref. A known course id also matches legacy
// rows that only carry the same label.
func courseMatch(ref models.CourseRef) squirrel.Sqlizer {
	switch {
	case ref.CourseID != nil && ref.CourseName != nil:
		return squirrel.Or{
			squirrel.Eq{"course_id": *ref.CourseID},
			squirrel.And{squirrel.Eq{"course_id": nil}, squirrel.Eq{"course_name": *ref.CourseName}},
		}
	case ref.CourseID != nil:
		return squirrel.Eq{"course_id": *ref.CourseID}
	case ref.CourseName != nil:
		return squirrel.Eq{"course_name": *ref.CourseName}
	default:
		return squirrel.Eq{"course_id": nil, "course_name": nil}
	}
}

// translateRecordError maps a unique violation on the per-course indexes to exists
func translateRecordError(err error, what string, exists error) error {
	switch {
	case dberrors.IsDuplicateConstraintError(err, ""):
		return exists
	case dberrors.IsForeignKeyError(err):
		return apperrors.NewValidationError(what + " references an unknown student or course")
	}
	return fmt.Errorf("error saving %s: %w", what, err)
}

func tagDest(t *models.TechnicalTag) []interface{} {
	return []interface{}{&t.ID, &t.StudentID, &t.TagName, &t.TagCategory, &t.ProficiencyLevel, &t.Description,
		&t.CourseName, &t.CourseID, &t.Status, &t.CreatedAt, &t.UpdatedAt}
}

func achievementDest(a *models.LearningAchievement) []interface{} {
	return []interface{}{&a.ID, &a.StudentID, &a.Title, &a.Content, &a.AchievementType, &a.AchievementDate,
		&a.CourseName, &a.CourseID, &a.CreatedAt, &a.UpdatedAt}
}

func outcomeDest(o *models.LearningOutcome) []interface{} {
	return []interface{}{&o.ID, &o.StudentID, &o.OutcomeTitle, &o.OutcomeDescription, &o.StartDate, &o.EndDate,
		&o.CourseName, &o.CourseID, &o.CreatedAt, &o.UpdatedAt}
}

// queryRecords runs sql and scans every row into a fresh T via dest
func queryRecords[T any](ctx context.Context, db *pgxpool.Pool, sql string, args []interface{}, dest func(*T) []interface{}) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying learning records")
		return nil, fmt.Errorf("error querying learning records: %w", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var rec T
		if err := rows.Scan(dest(&rec)...); err != nil {
			return nil, fmt.Errorf("error scanning learning record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning records: %w", err)
	}
	return out, nil
}

// --- technical tags ---

// CreateTag inserts an active tag
func (r *LearningRecordRepository) CreateTag(ctx context.Context, t *models.TechnicalTag) error {
	sql, args, err := psql.Insert("student_technical_tags").
		Columns("student_id", "tag_name", "tag_category", "proficiency_level", "description", "course_name", "course_id", "status").
		Values(t.StudentID, t.TagName, t.TagCategory, t.ProficiencyLevel, t.Description, t.CourseName, t.CourseID, models.TagActive).
		Suffix("RETURNING id, status, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create tag query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&t.ID, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return translateRecordError(err, "technical tag", apperrors.ErrTagAlreadyExists)
	}
	return nil
}

func findTagQuery(studentIDs []uuid.UUID, name string, ref *models.CourseRef) squirrel.SelectBuilder {
	q := psql.Select(tagColumns...).
		From("student_technical_tags").
		Where(squirrel.Eq{"student_id": studentIDs, "status": models.TagActive}).
		Where(squirrel.Expr("LOWER(tag_name) = LOWER(?)", name)).
		OrderBy("created_at ASC").
		Limit(1)
	if ref != nil {
		q = q.Where(courseMatch(*ref))
	}
	return q
}

// FindActiveTag returns the active tag called name (case-insensitive), or nil.
// A nil ref matches the tag under any course.
func (r *LearningRecordRepository) FindActiveTag(ctx context.Context, studentIDs []uuid.UUID, name string, ref *models.CourseRef) (*models.TechnicalTag, error) {
	sql, args, err := findTagQuery(studentIDs, name, ref).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find tag query: %w", err)
	}

	t := &models.TechnicalTag{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(tagDest(t)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding technical tag: %w", err)
	}
	return t, nil
}

// ListTags returns a student's active tags
func (r *LearningRecordRepository) ListTags(ctx context.Context, studentIDs []uuid.UUID) ([]models.TechnicalTag, error) {
	sql, args, err := psql.Select(tagColumns...).
		From("student_technical_tags").
		Where(squirrel.Eq{"student_id": studentIDs, "status": models.TagActive}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list tags query: %w", err)
	}
	return queryRecords(ctx, r.db, sql, args, tagDest)
}

// --- learning achievements ---

// CreateAchievement inserts an achievement
func (r *LearningRecordRepository) CreateAchievement(ctx context.Context, a *models.LearningAchievement) error {
	sql, args, err := psql.Insert("student_learning_achievements").
		Columns("student_id", "title", "content", "achievement_type", "achievement_date", "course_name", "course_id").
		Values(a.StudentID, a.Title, a.Content, a.AchievementType, a.AchievementDate, a.CourseName, a.CourseID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create achievement query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return translateRecordError(err, "learning achievement", apperrors.ErrAchievementExists)
	}
	return nil
}

// FindAchievement returns the achievement recorded for ref, or nil
func (r *LearningRecordRepository) FindAchievement(ctx context.Context, studentIDs []uuid.UUID, ref models.CourseRef) (*models.LearningAchievement, error) {
	sql, args, err := psql.Select(achievementColumns...).
		From("student_learning_achievements").
		Where(squirrel.Eq{"student_id": studentIDs}).
		Where(courseMatch(ref)).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find achievement query: %w", err)
	}

	a := &models.LearningAchievement{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(achievementDest(a)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding learning achievement: %w", err)
	}
	return a, nil
}

// UpdateAchievement rewrites the content and course link of an achievement in place
func (r *LearningRecordRepository) UpdateAchievement(ctx context.Context, a *models.LearningAchievement) error {
	sql, args, err := psql.Update("student_learning_achievements").
		Set("title", a.Title).
		Set("content", a.Content).
		Set("course_name", a.CourseName).
		Set("course_id", a.CourseID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": a.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update achievement query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewResourceNotFoundError("learning achievement not found")
		}
		return translateRecordError(err, "learning achievement", apperrors.ErrAchievementExists)
	}
	return nil
}

// ListAchievements returns a student's achievements
func (r *LearningRecordRepository) ListAchievements(ctx context.Context, studentIDs []uuid.UUID) ([]models.LearningAchievement, error) {
	sql, args, err := psql.Select(achievementColumns...).
		From("student_learning_achievements").
		Where(squirrel.Eq{"student_id": studentIDs}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list achievements query: %w", err)
	}
	return queryRecords(ctx, r.db, sql, args, achievementDest)
}

// --- learning outcomes ---

// CreateOutcome inserts an outcome
func (r *LearningRecordRepository) CreateOutcome(ctx context.Context, o *models.LearningOutcome) error {
	sql, args, err := psql.Insert("student_learning_outcomes").
		Columns("student_id", "outcome_title", "outcome_description", "start_date", "end_date", "course_name", "course_id").
		Values(o.StudentID, o.OutcomeTitle, o.OutcomeDescription, o.StartDate, o.EndDate, o.CourseName, o.CourseID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create outcome query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return translateRecordError(err, "learning outcome", apperrors.ErrOutcomeExists)
	}
	return nil
}

// FindOutcome returns the outcome recorded for ref, or nil
func (r *LearningRecordRepository) FindOutcome(ctx context.Context, studentIDs []uuid.UUID, ref models.CourseRef) (*models.LearningOutcome, error) {
	sql, args, err := psql.Select(outcomeColumns...).
		From("student_learning_outcomes").
		Where(squirrel.Eq{"student_id": studentIDs}).
		Where(courseMatch(ref)).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build find outcome query: %w", err)
	}

	o := &models.LearningOutcome{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(outcomeDest(o)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding learning outcome: %w", err)
	}
	return o, nil
}

// UpdateOutcome rewrites an outcome in place
func (r *LearningRecordRepository) UpdateOutcome(ctx context.Context, o *models.LearningOutcome) error {
	sql, args, err := psql.Update("student_learning_outcomes").
		SetMap(map[string]interface{}{
			"outcome_title":       o.OutcomeTitle,
			"outcome_description": o.OutcomeDescription,
			"start_date":          o.StartDate,
			"end_date":            o.EndDate,
			"course_name":         o.CourseName,
			"course_id":           o.CourseID,
			"updated_at":          squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"id": o.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update outcome query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewResourceNotFoundError("learning outcome not found")
		}
		return translateRecordError(err, "learning outcome", apperrors.ErrOutcomeExists)
	}
	return nil
}

// ListOutcomes returns a student's outcomes
func (r *LearningRecordRepository) ListOutcomes(ctx context.Context, studentIDs []uuid.UUID) ([]models.LearningOutcome, error) {
	sql, args, err := psql.Select(outcomeColumns...).
		From("student_learning_outcomes").
		Where(squirrel.Eq{"student_id": studentIDs}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list outcomes query: %w", err)
	}
	return queryRecords(ctx, r.db, sql, args, outcomeDest)
}
