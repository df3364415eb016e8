package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/yigit/curricula/internal/app/auth"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/validation"
)

const (
	minGradePoint = 0.0
	maxGradePoint = 5.0
)

// ProgressService tracks each student's state per course
type ProgressService interface {
	UpdateProgress(ctx context.Context, studentID, courseID string, update models.ProgressUpdate, override bool) (*models.CourseProgress, error)
	GetProgress(ctx context.Context, studentID string) ([]models.CourseProgress, error)
}

type progressServiceImpl struct {
	progress       ProgressStore
	profileService ProfileService
	authzService   *auth.AuthorizationService
	logger         zerolog.Logger
}

// NewProgressService creates a new ProgressService
func NewProgressService(progress ProgressStore, profileService ProfileService, authzService *auth.AuthorizationService, logger zerolog.Logger) ProgressService {
	return &progressServiceImpl{
		progress:       progress,
		profileService: profileService,
		authzService:   authzService,
		logger:         logger,
	}
}

func normalizeUpdate(u *models.ProgressUpdate) error {
	if u.IsEmpty() {
		return apperrors.NewValidationError("no progress fields to update")
	}
	if u.Status != nil && !u.Status.Valid() {
		return apperrors.NewValidationError("status must be one of not_started, in_progress, completed")
	}
	if u.GradePoint != nil && (*u.GradePoint < minGradePoint || *u.GradePoint > maxGradePoint) {
		return apperrors.NewValidationError("grade_point must be between 0 and 5")
	}
	if u.Notes != nil && utf8.RuneCountInString(*u.Notes) > validation.NotesMaxLength {
		return apperrors.NewValidationError("notes are too long")
	}
	for _, f := range []*string{u.Grade, u.SemesterCompleted, u.Teacher} {
		if f != nil && utf8.RuneCountInString(*f) > validation.NameMaxLength {
			return apperrors.NewValidationError("progress field is too long")
		}
	}
	return nil
}

// UpdateProgress applies a partial update. Status changes must move forward through
// not_started, in_progress, completed; staff may pass override to move any other way.
func (s *progressServiceImpl) UpdateProgress(ctx context.Context, studentID, courseID string, update models.ProgressUpdate, override bool) (*models.CourseProgress, error) {
	cid, ok := validation.ParseUUID(courseID)
	if !ok {
		return nil, apperrors.NewValidationError("invalid course ID format")
	}
	if err := normalizeUpdate(&update); err != nil {
		return nil, err
	}
	if update.Notes != nil {
		notes := strings.TrimSpace(*update.Notes)
		update.Notes = &notes
	}

	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}

	current, err := s.progress.Get(ctx, ids, cid)
	if err != nil {
		return nil, err
	}

	if update.Status != nil && !current.Status.CanTransitionTo(*update.Status) {
		if !override {
			return nil, apperrors.NewValidationError(fmt.Sprintf("cannot change status from %s to %s", current.Status, *update.Status))
		}
		if !s.authzService.IsStaff(ctx) {
			return nil, apperrors.NewForbiddenError("only teachers and admins can override the progress state")
		}
		s.logger.Warn().
			Str("studentID", profile.ID.String()).
			Str("courseID", cid.String()).
			Str("from", string(current.Status)).
			Str("to", string(*update.Status)).
			Msg("Progress status overridden")
	}

	update.Apply(current)
	if err := s.progress.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// GetProgress returns every progress row of the student
func (s *progressServiceImpl) GetProgress(ctx context.Context, studentID string) ([]models.CourseProgress, error) {
	_, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListByStudents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing course progress: %w", err)
	}
	return rows, nil
}
