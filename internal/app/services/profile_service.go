package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/curricula/internal/app/auth"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/curricula/internal/pkg/auth"
	"github.com/yigit/curricula/internal/pkg/validation"
)

// ProfileService resolves user ids and legacy profile ids to the canonical student profile
type ProfileService interface {
	Resolve(ctx context.Context, userID uuid.UUID) ([]models.StudentProfile, error)
	ResolveByProfileIDOrUserID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error)
	ProfileIDs(ctx context.Context, profile *models.StudentProfile) ([]uuid.UUID, error)
	GetProfile(ctx context.Context, studentID string) (*models.StudentProfile, error)
}

type profileServiceImpl struct {
	users        UserStore
	profiles     ProfileStore
	authzService *auth.AuthorizationService
	logger       zerolog.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(users UserStore, profiles ProfileStore, authzService *auth.AuthorizationService, logger zerolog.Logger) ProfileService {
	return &profileServiceImpl{
		users:        users,
		profiles:     profiles,
		authzService: authzService,
		logger:       logger,
	}
}

// Resolve returns every profile of userID, canonical first. A user with no profile gets an
// empty canonical one created lazily.
func (s *profileServiceImpl) Resolve(ctx context.Context, userID uuid.UUID) ([]models.StudentProfile, error) {
	profiles, err := s.profiles.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(profiles) > 0 && profiles[0].IsCanonical() {
		return profiles, nil
	}

	created, err := s.profiles.CreateCanonical(ctx, userID)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info().Str("userID", userID.String()).Msg("Created student profile on first use")
	}

	profiles, err = s.profiles.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 || !profiles[0].IsCanonical() {
		return nil, fmt.Errorf("no canonical profile for user %s after create", userID)
	}
	return profiles, nil
}

// ResolveByProfileIDOrUserID accepts either id space. A profile id wins; a merged profile id
// resolves to the profile it was merged into. Otherwise id is looked up as a student user, whose
// profile is created on first use only when the actor may access that user.
func (s *profileServiceImpl) ResolveByProfileIDOrUserID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	switch {
	case err == nil:
		if profile.IsCanonical() {
			return profile, nil
		}
		return s.profiles.GetByID(ctx, profile.CanonicalID())
	case !errors.Is(err, apperrors.ErrStudentNotFound):
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, err
	}
	if user.Role != pkgAuth.RoleStudent {
		return nil, apperrors.ErrStudentNotFound
	}
	if err := s.authzService.CanAccessUser(ctx, user.ID); err != nil {
		return nil, err
	}

	profiles, err := s.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

// ProfileIDs returns the canonical id of profile followed by the ids merged into it
func (s *profileServiceImpl) ProfileIDs(ctx context.Context, profile *models.StudentProfile) ([]uuid.UUID, error) {
	canonical := profile.CanonicalID()
	aliases, err := s.profiles.ListAliases(ctx, canonical)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(aliases)+1)
	ids = append(ids, canonical)
	for _, a := range aliases {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// GetProfile resolves studentID for the current actor
func (s *profileServiceImpl) GetProfile(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	profile, _, err := resolveStudent(ctx, s, s.authzService, studentID)
	return profile, err
}

// resolveStudent validates a raw student id, resolves it to the canonical profile, checks that
// the actor may access it and returns the profile ids its rows may live under. Students get the
// same permission error for unknown ids as for other students' ids.
func resolveStudent(ctx context.Context, profiles ProfileService, authz *auth.AuthorizationService, raw string) (*models.StudentProfile, []uuid.UUID, error) {
	id, ok := validation.ParseUUID(raw)
	if !ok {
		return nil, nil, apperrors.ErrInvalidStudentID
	}
	profile, err := profiles.ResolveByProfileIDOrUserID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) && !authz.IsStaff(ctx) {
			return nil, nil, authz.CanAccessStudent(ctx, nil)
		}
		return nil, nil, err
	}
	if err := authz.CanAccessStudent(ctx, profile); err != nil {
		return nil, nil, err
	}
	ids, err := profiles.ProfileIDs(ctx, profile)
	if err != nil {
		return nil, nil, err
	}
	return profile, ids, nil
}
