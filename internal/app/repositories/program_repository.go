package repositories

import (
	"context"
	"encoding/json"
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

var programColumns = []string{
	"p.id", "p.program_code", "p.program_name", "p.department", "p.total_credits", "p.status", "p.created_at", "p.updated_at",
}

var courseColumns = []string{
	"c.id", "c.program_id", "c.course_number", "c.course_name", "c.credits", "c.recommended_grade",
	"c.recommended_semester", "c.exam_method", "c.course_nature", "c.course_type", "c.sequence_order", "c.status",
	"c.created_at", "c.updated_at",
}

// ProgramRepository handles training programs, their courses and import audit rows
type ProgramRepository struct {
	db *pgxpool.Pool
}

// NewProgramRepository creates a new ProgramRepository
func NewProgramRepository(db *pgxpool.Pool) *ProgramRepository {
	return &ProgramRepository{db: db}
}

func programDest(p *models.TrainingProgram) []interface{} {
	return []interface{}{&p.ID, &p.ProgramCode, &p.ProgramName, &p.Department, &p.TotalCredits, &p.Status,
		&p.CreatedAt, &p.UpdatedAt}
}

func courseDest(c *models.ProgramCourse) []interface{} {
	return []interface{}{&c.ID, &c.ProgramID, &c.CourseNumber, &c.CourseName, &c.Credits, &c.RecommendedGrade,
		&c.RecommendedSemester, &c.ExamMethod, &c.CourseNature, &c.CourseType, &c.SequenceOrder, &c.Status,
		&c.CreatedAt, &c.UpdatedAt}
}

// listProgramsQuery counts active courses per program in one grouped join
func listProgramsQuery() squirrel.SelectBuilder {
	return psql.Select(append(programColumns, "COUNT(c.id) AS course_count")...).
		From("training_programs p").
		LeftJoin("program_courses c ON c.program_id = p.id AND c.status = 'active'").
		GroupBy("p.id").
		OrderBy("p.program_code ASC")
}

// ListWithCourseCount returns every program annotated with its active course count
func (r *ProgramRepository) ListWithCourseCount(ctx context.Context) ([]models.ProgramWithCourseCount, error) {
	sql, args, err := listProgramsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list programs query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list programs query")
		return nil, fmt.Errorf("error querying programs: %w", err)
	}
	defer rows.Close()

	programs := []models.ProgramWithCourseCount{}
	for rows.Next() {
		var p models.ProgramWithCourseCount
		dest := append(programDest(&p.TrainingProgram), &p.CourseCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning program row: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating program rows: %w", err)
	}
	return programs, nil
}

func (r *ProgramRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.TrainingProgram, error) {
	sql, args, err := psql.Select(programColumns...).
		From("training_programs p").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get program query: %w", err)
	}

	p := &models.TrainingProgram{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(programDest(p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProgramNotFound
		}
		logger.Error().Err(err).Msg("Error getting training program")
		return nil, fmt.Errorf("error getting training program: %w", err)
	}
	return p, nil
}

// GetByID retrieves a program by ID regardless of status
func (r *ProgramRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingProgram, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id})
}

// GetByCode retrieves a program by its business code
func (r *ProgramRepository) GetByCode(ctx context.Context, code string) (*models.TrainingProgram, error) {
	return r.getOne(ctx, squirrel.Eq{"p.program_code": code})
}

// EnsureByCode returns the program with code, creating it when missing
func (r *ProgramRepository) EnsureByCode(ctx context.Context, program *models.TrainingProgram) (*models.TrainingProgram, bool, error) {
	existing, err := r.GetByCode(ctx, program.ProgramCode)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrProgramNotFound) {
		return nil, false, err
	}

	sql, args, err := psql.Insert("training_programs").
		Columns("program_code", "program_name", "department", "status").
		Values(program.ProgramCode, program.ProgramName, program.Department, models.StatusActive).
		Suffix("RETURNING id, program_code, program_name, department, total_credits, status, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build create program query: %w", err)
	}

	created := &models.TrainingProgram{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(programDest(created)...); err != nil {
		// lost a race with a concurrent import of the same code
		if dberrors.IsDuplicateConstraintError(err, "training_programs_program_code_key") {
			existing, getErr := r.GetByCode(ctx, program.ProgramCode)
			return existing, false, getErr
		}
		logger.Error().Err(err).Str("programCode", program.ProgramCode).Msg("Error creating training program")
		return nil, false, fmt.Errorf("error creating training program: %w", err)
	}
	return created, true, nil
}

// SetStatus flips a program between active and inactive
func (r *ProgramRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.RecordStatus) error {
	sql, args, err := psql.Update("training_programs").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build set program status query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("programID", id.String()).Msg("Error updating program status")
		return fmt.Errorf("error updating program status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProgramNotFound
	}
	return nil
}

func listCoursesQuery(programID uuid.UUID, activeOnly bool) squirrel.SelectBuilder {
	q := psql.Select(courseColumns...).
		From("program_courses c").
		Where(squirrel.Eq{"c.program_id": programID}).
		OrderBy("c.sequence_order ASC", "c.course_number ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"c.status": models.StatusActive})
	}
	return q
}

// ListCourses returns the courses of a program in sequence order
func (r *ProgramRepository) ListCourses(ctx context.Context, programID uuid.UUID, activeOnly bool) ([]models.ProgramCourse, error) {
	sql, args, err := listCoursesQuery(programID, activeOnly).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("programID", programID.String()).Msg("Error executing list courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []models.ProgramCourse{}
	for rows.Next() {
		var c models.ProgramCourse
		if err := rows.Scan(courseDest(&c)...); err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

func upsertCourseQuery(c *models.ProgramCourse) squirrel.InsertBuilder {
	return psql.Insert("program_courses").
		Columns("program_id", "course_number", "course_name", "credits", "recommended_grade", "recommended_semester",
			"exam_method", "course_nature", "course_type", "sequence_order", "status").
		Values(c.ProgramID, c.CourseNumber, c.CourseName, c.Credits, c.RecommendedGrade, c.RecommendedSemester,
			c.ExamMethod, c.CourseNature, c.CourseType, c.SequenceOrder, models.StatusActive).
		Suffix(`ON CONFLICT ON CONSTRAINT program_courses_program_number_key DO UPDATE SET
			course_name = EXCLUDED.course_name,
			credits = EXCLUDED.credits,
			recommended_grade = EXCLUDED.recommended_grade,
			recommended_semester = EXCLUDED.recommended_semester,
			exam_method = EXCLUDED.exam_method,
			course_nature = EXCLUDED.course_nature,
			course_type = EXCLUDED.course_type,
			sequence_order = EXCLUDED.sequence_order,
			status = 'active',
			updated_at = now()
		RETURNING id, created_at, updated_at`)
}

// UpsertCourse inserts a course or replaces the row with the same (program, course number)
func (r *ProgramRepository) UpsertCourse(ctx context.Context, c *models.ProgramCourse) error {
	sql, args, err := upsertCourseQuery(c).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert course query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		logger.Warn().Err(err).Str("courseNumber", c.CourseNumber).Msg("Error upserting program course")
		return fmt.Errorf("error upserting course %s: %w", c.CourseNumber, err)
	}
	c.Status = models.StatusActive
	return nil
}

func retireCoursesQuery(programID uuid.UUID, keep []string) squirrel.UpdateBuilder {
	return psql.Update("program_courses").
		Set("status", models.StatusInactive).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"program_id": programID, "status": models.StatusActive}).
		Where(squirrel.NotEq{"course_number": keep})
}

// RetireCoursesExcept marks every active course of a program whose number is not in keep as inactive
func (r *ProgramRepository) RetireCoursesExcept(ctx context.Context, programID uuid.UUID, keep []string) (int64, error) {
	if len(keep) == 0 {
		return 0, fmt.Errorf("refusing to retire every course of program %s", programID)
	}
	sql, args, err := retireCoursesQuery(programID, keep).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build retire courses query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("programID", programID.String()).Msg("Error retiring dropped courses")
		return 0, fmt.Errorf("error retiring dropped courses: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecalculateTotalCredits sets a program's total to the sum of its active course credits
func (r *ProgramRepository) RecalculateTotalCredits(ctx context.Context, programID uuid.UUID) error {
	sql, args, err := psql.Update("training_programs").
		Set("total_credits", squirrel.Expr(
			"(SELECT COALESCE(SUM(credits), 0) FROM program_courses WHERE program_id = ? AND status = 'active')", programID)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": programID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build recalculate credits query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error recalculating total credits: %w", err)
	}
	return nil
}

// CreateImportBatch writes the audit row for one import
func (r *ProgramRepository) CreateImportBatch(ctx context.Context, b *models.ImportBatch) error {
	rowErrors := b.Errors
	if rowErrors == nil {
		rowErrors = []models.ImportRowError{}
	}
	errorsJSON, err := json.Marshal(rowErrors)
	if err != nil {
		return fmt.Errorf("failed to encode import errors: %w", err)
	}

	sql, args, err := psql.Insert("program_import_batches").
		Columns("program_id", "batch_name", "imported_by", "success_count", "failed_count", "errors").
		Values(b.ProgramID, b.BatchName, b.ImportedBy, b.SuccessCount, b.FailedCount, errorsJSON).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create import batch query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		logger.Error().Err(err).Str("programID", b.ProgramID.String()).Msg("Error recording import batch")
		return fmt.Errorf("error recording import batch: %w", err)
	}
	return nil
}
