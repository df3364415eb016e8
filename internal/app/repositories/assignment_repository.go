package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/db"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/dberrors"
	"github.com/yigit/curricula/internal/pkg/logger"
)

const assignmentReturning = "RETURNING id, student_id, program_id, teacher_id, enrollment_date, status, notes, created_at, updated_at"

// AssignmentRepository handles student_training_programs and the progress rows they materialize
type AssignmentRepository struct {
	db *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func assignmentDest(a *models.Assignment) []interface{} {
	return []interface{}{&a.ID, &a.StudentID, &a.ProgramID, &a.TeacherID, &a.EnrollmentDate, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt}
}

func upsertAssignmentQuery(a *models.Assignment) squirrel.InsertBuilder {
	return psql.Insert("student_training_programs").
		Columns("student_id", "program_id", "teacher_id", "enrollment_date", "status", "notes").
		Values(a.StudentID, a.ProgramID, a.TeacherID, squirrel.Expr("CURRENT_DATE"), models.AssignmentActive, a.Notes).
		Suffix(`ON CONFLICT ON CONSTRAINT student_training_programs_student_program_key DO UPDATE SET
			status = 'active',
			enrollment_date = CURRENT_DATE,
			notes = COALESCE(EXCLUDED.notes, student_training_programs.notes),
			teacher_id = COALESCE(EXCLUDED.teacher_id, student_training_programs.teacher_id),
			updated_at = now()
		` + assignmentReturning)
}

// materializeProgressQuery creates a not_started row for every active course the student lacks one for
func materializeProgressQuery(studentID, programID uuid.UUID) squirrel.InsertBuilder {
	courses := squirrel.Select().
		Column(squirrel.Expr("?::uuid", studentID)).
		Column("c.id").
		Column("'not_started'").
		From("program_courses c").
		Where(squirrel.Eq{"c.program_id": programID, "c.status": models.StatusActive})

	return psql.Insert("student_course_progress").
		Columns("student_id", "course_id", "status").
		Select(courses).
		Suffix("ON CONFLICT ON CONSTRAINT student_course_progress_student_course_key DO NOTHING")
}

// Assign upserts the assignment and materializes its progress rows in one transaction.
// It returns the number of progress rows created; existing rows are never touched.
func (r *AssignmentRepository) Assign(ctx context.Context, a *models.Assignment) (int64, error) {
	var created int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := upsertAssignmentQuery(a).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build upsert assignment query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(assignmentDest(a)...); err != nil {
			return fmt.Errorf("error upserting assignment: %w", err)
		}

		sql, args, err = materializeProgressQuery(a.StudentID, a.ProgramID).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build materialize progress query: %w", err)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("error creating progress rows: %w", err)
		}
		created = tag.RowsAffected()
		return nil
	})
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return 0, apperrors.NewResourceNotFoundError("student or training program no longer exists")
		}
		logger.Error().Err(err).
			Str("studentID", a.StudentID.String()).
			Str("programID", a.ProgramID.String()).
			Msg("Error assigning training program")
		return 0, err
	}
	return created, nil
}

// ListByStudents returns the assignments held by any of the given profile ids
func (r *AssignmentRepository) ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]models.AssignmentWithProgram, error) {
	sql, args, err := psql.Select("a.id", "a.student_id", "a.program_id", "a.teacher_id", "a.enrollment_date", "a.status",
		"a.notes", "a.created_at", "a.updated_at", "p.program_code", "p.program_name").
		From("student_training_programs a").
		Join("training_programs p ON p.id = a.program_id").
		Where(squirrel.Eq{"a.student_id": studentIDs}).
		OrderBy("a.status ASC", "a.enrollment_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list assignments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list assignments query")
		return nil, fmt.Errorf("error querying assignments: %w", err)
	}
	defer rows.Close()

	out := []models.AssignmentWithProgram{}
	for rows.Next() {
		var a models.AssignmentWithProgram
		dest := append(assignmentDest(&a.Assignment), &a.ProgramCode, &a.ProgramName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning assignment row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment rows: %w", err)
	}
	return out, nil
}

// Withdraw marks the student's assignment to programID as withdrawn. Rows are kept.
func (r *AssignmentRepository) Withdraw(ctx context.Context, studentIDs []uuid.UUID, programID uuid.UUID) (*models.Assignment, error) {
	sql, args, err := psql.Update("student_training_programs").
		Set("status", models.AssignmentWithdrawn).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"student_id": studentIDs, "program_id": programID, "status": models.AssignmentActive}).
		Suffix(assignmentReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build withdraw query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("programID", programID.String()).Msg("Error withdrawing assignment")
		return nil, fmt.Errorf("error withdrawing assignment: %w", err)
	}
	defer rows.Close()

	var withdrawn *models.Assignment
	for rows.Next() {
		a := &models.Assignment{}
		if err := rows.Scan(assignmentDest(a)...); err != nil {
			return nil, fmt.Errorf("error scanning withdrawn assignment: %w", err)
		}
		if withdrawn == nil {
			withdrawn = a
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawn assignments: %w", err)
	}
	if withdrawn == nil {
		return nil, apperrors.ErrAssignmentMissing
	}
	return withdrawn, nil
}

// coursesForStudentQuery joins active assignments to active courses and, optionally, progress.
// Rows for the preferred (canonical) profile sort ahead of alias rows for the same course.
func coursesForStudentQuery(studentIDs []uuid.UUID, preferred uuid.UUID) squirrel.SelectBuilder {
	cols := append([]string{}, courseColumns...)
	cols = append(cols,
		"p.program_code", "p.program_name",
		"cp.id", "COALESCE(cp.status, 'not_started')", "cp.grade", "cp.grade_point::float8",
		"cp.semester_completed", "cp.teacher", "cp.notes")

	return psql.Select(cols...).
		From("student_training_programs a").
		Join("training_programs p ON p.id = a.program_id").
		Join("program_courses c ON c.program_id = p.id AND c.status = 'active'").
		LeftJoin("student_course_progress cp ON cp.course_id = c.id AND cp.student_id = a.student_id").
		Where(squirrel.Eq{"a.student_id": studentIDs, "a.status": models.AssignmentActive}).
		OrderByClause("p.program_code ASC, c.sequence_order ASC, c.course_number ASC, (a.student_id = ?) DESC", preferred)
}

// ListCoursesForStudent returns the courses of every active assignment held by the given profile ids,
// each annotated with the student's progress. studentIDs[0] is the canonical profile.
func (r *AssignmentRepository) ListCoursesForStudent(ctx context.Context, studentIDs []uuid.UUID) ([]models.CourseWithProgress, error) {
	if len(studentIDs) == 0 {
		return []models.CourseWithProgress{}, nil
	}

	sql, args, err := coursesForStudentQuery(studentIDs, studentIDs[0]).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing student courses query")
		return nil, fmt.Errorf("error querying student courses: %w", err)
	}
	defer rows.Close()

	courses := []models.CourseWithProgress{}
	seen := make(map[uuid.UUID]bool)
	for rows.Next() {
		var c models.CourseWithProgress
		dest := append(courseDest(&c.ProgramCourse),
			&c.ProgramCode, &c.ProgramName,
			&c.ProgressID, &c.ProgressStatus, &c.Grade, &c.GradePoint,
			&c.SemesterCompleted, &c.Teacher, &c.ProgressNotes)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error scanning student course row: %w", err)
		}
		// a course reached through both a canonical and an alias assignment is listed once
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student course rows: %w", err)
	}
	return courses, nil
}
