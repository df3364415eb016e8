package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/curricula/internal/app/auth"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/curricula/internal/pkg/auth"
	"github.com/yigit/curricula/internal/pkg/helpers"
	"github.com/yigit/curricula/internal/pkg/validation"
	"golang.org/x/sync/errgroup"
)

const defaultBatchConcurrency = 4

// BatchDetail is the failure entry of one student in a batch assignment
type BatchDetail struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

// BatchResult aggregates a batch assignment. Details lists failed students in request order.
type BatchResult struct {
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	TotalCount   int           `json:"total_count"`
	Details      []BatchDetail `json:"details"`
}

// AssignmentService links students to training programs
type AssignmentService interface {
	AssignOne(ctx context.Context, studentID, programID string, teacherID, notes *string) (*models.Assignment, error)
	AssignBatch(ctx context.Context, teacherID, programID string, studentIDs []string, notes *string) (*BatchResult, error)
	ListCoursesForStudent(ctx context.Context, studentID string) ([]models.CourseWithProgress, error)
	ListAssignments(ctx context.Context, studentID string) ([]models.AssignmentWithProgram, error)
	WithdrawAssignment(ctx context.Context, studentID, programID string) (*models.Assignment, error)
}

type assignmentServiceImpl struct {
	assignments      AssignmentStore
	programs         ProgramStore
	profileService   ProfileService
	authzService     *auth.AuthorizationService
	batchConcurrency int
	logger           zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService. batchConcurrency bounds the number of
// students assigned in parallel by AssignBatch.
func NewAssignmentService(
	assignments AssignmentStore,
	programs ProgramStore,
	profileService ProfileService,
	authzService *auth.AuthorizationService,
	batchConcurrency int,
	logger zerolog.Logger,
) AssignmentService {
	if batchConcurrency <= 0 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &assignmentServiceImpl{
		assignments:      assignments,
		programs:         programs,
		profileService:   profileService,
		authzService:     authzService,
		batchConcurrency: batchConcurrency,
		logger:           logger,
	}
}

func validateNotes(notes *string) (*string, error) {
	notes = helpers.NilIfBlank(notes)
	if notes != nil && utf8.RuneCountInString(*notes) > validation.NotesMaxLength {
		return nil, apperrors.NewValidationError("notes are too long")
	}
	return notes, nil
}

// activeProgram loads a program that can take new assignments
func (s *assignmentServiceImpl) activeProgram(ctx context.Context, programID string) (*models.TrainingProgram, error) {
	id, err := parseProgramID(programID)
	if err != nil {
		return nil, err
	}
	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if program.Status != models.StatusActive {
		return nil, apperrors.ErrProgramInactive
	}
	return program, nil
}

// assign resolves one student and writes the assignment under the canonical profile id
func (s *assignmentServiceImpl) assign(ctx context.Context, rawStudentID string, program *models.TrainingProgram, teacherID *uuid.UUID, notes *string) (*models.Assignment, error) {
	id, ok := validation.ParseUUID(rawStudentID)
	if !ok {
		return nil, apperrors.ErrInvalidStudentID
	}
	profile, err := s.profileService.ResolveByProfileIDOrUserID(ctx, id)
	if err != nil {
		return nil, err
	}

	a := &models.Assignment{
		StudentID: profile.ID,
		ProgramID: program.ID,
		TeacherID: teacherID,
		Notes:     notes,
	}
	created, err := s.assignments.Assign(ctx, a)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("studentID", profile.ID.String()).
		Str("programCode", program.ProgramCode).
		Int64("progressRowsCreated", created).
		Msg("Training program assigned")
	return a, nil
}

// AssignOne assigns a program to a student and materializes a not_started progress row for
// every active course. Repeating the call reactivates the assignment without touching progress.
func (s *assignmentServiceImpl) AssignOne(ctx context.Context, studentID, programID string, teacherID, notes *string) (*models.Assignment, error) {
	if err := s.authzService.RequireStaff(ctx); err != nil {
		return nil, err
	}
	if !validation.IsUUID(studentID) {
		return nil, apperrors.ErrInvalidStudentID
	}

	var teacher *uuid.UUID
	if raw := helpers.TrimmedOrEmpty(teacherID); raw != "" {
		id, ok := validation.ParseUUID(raw)
		if !ok {
			return nil, apperrors.NewValidationError("invalid teacher ID format")
		}
		teacher = &id
	} else if actor, ok := auth.ActorFromContext(ctx); ok && actor.Role == pkgAuth.RoleTeacher {
		teacher = &actor.UserID
	}

	notes, err := validateNotes(notes)
	if err != nil {
		return nil, err
	}
	program, err := s.activeProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	return s.assign(ctx, studentID, program, teacher, notes)
}

// AssignBatch assigns one program to many students. The program is checked once; after that
// every student succeeds or fails on its own and failures never abort the others.
func (s *assignmentServiceImpl) AssignBatch(ctx context.Context, teacherID, programID string, studentIDs []string, notes *string) (*BatchResult, error) {
	teacher, ok := validation.ParseUUID(teacherID)
	if !ok {
		return nil, apperrors.NewValidationError("invalid teacher ID format")
	}
	if err := s.authzService.RequireTeacher(ctx, teacher); err != nil {
		return nil, err
	}
	if len(studentIDs) == 0 {
		return nil, apperrors.NewValidationError("studentIds must contain at least one id")
	}
	if len(studentIDs) > validation.MaxBatchStudentCount {
		return nil, apperrors.NewValidationError(fmt.Sprintf("at most %d students can be assigned at once", validation.MaxBatchStudentCount))
	}
	notes, err := validateNotes(notes)
	if err != nil {
		return nil, err
	}
	program, err := s.activeProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	errs := make([]error, len(studentIDs))
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i, raw := range studentIDs {
		i, raw := i, raw
		g.Go(func() error {
			_, errs[i] = s.assign(ctx, strings.TrimSpace(raw), program, &teacher, notes)
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{TotalCount: len(studentIDs), Details: []BatchDetail{}}
	for i, err := range errs {
		if err == nil {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		result.Details = append(result.Details, BatchDetail{
			StudentID: studentIDs[i],
			Error:     apperrors.Message(err, "assignment failed"),
		})
		if !apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrResourceNotFound) {
			s.logger.Error().Err(err).Str("studentID", studentIDs[i]).Msg("Batch assignment failed for student")
		}
	}

	s.logger.Info().
		Str("teacherID", teacher.String()).
		Str("programCode", program.ProgramCode).
		Int("success", result.SuccessCount).
		Int("failed", result.FailureCount).
		Msg("Batch assignment finished")
	return result, nil
}

// ListCoursesForStudent returns the courses of every active assignment with progress.
// A student without assignments gets an empty list.
func (s *assignmentServiceImpl) ListCoursesForStudent(ctx context.Context, studentID string) ([]models.CourseWithProgress, error) {
	_, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	courses, err := s.assignments.ListCoursesForStudent(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing courses for student: %w", err)
	}
	return courses, nil
}

func (s *assignmentServiceImpl) ListAssignments(ctx context.Context, studentID string) ([]models.AssignmentWithProgram, error) {
	_, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByStudents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing assignments: %w", err)
	}
	return assignments, nil
}

// WithdrawAssignment marks an assignment withdrawn. Progress rows are kept.
func (s *assignmentServiceImpl) WithdrawAssignment(ctx context.Context, studentID, programID string) (*models.Assignment, error) {
	if err := s.authzService.RequireStaff(ctx); err != nil {
		return nil, err
	}
	pid, err := parseProgramID(programID)
	if err != nil {
		return nil, err
	}
	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	a, err := s.assignments.Withdraw(ctx, ids, pid)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("studentID", profile.ID.String()).Str("programID", pid.String()).Msg("Training program withdrawn")
	return a, nil
}
