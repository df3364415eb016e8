package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	pkgAuth "github.com/yigit/curricula/internal/pkg/auth"
)

// Actor is the authenticated caller of a request
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// IsStaff reports whether the actor is a teacher or an admin
func (a Actor) IsStaff() bool {
	return a.Role == pkgAuth.RoleTeacher || a.Role == pkgAuth.RoleAdmin
}

func (a Actor) IsAdmin() bool {
	return a.Role == pkgAuth.RoleAdmin
}

type actorKey struct{}

// WithActor returns a context carrying a
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the actor stored by WithActor
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// SystemActor is used by background work that acts on behalf of the service itself
func SystemActor() Actor {
	return Actor{Role: pkgAuth.RoleAdmin}
}

var (
	errNoActor       = apperrors.NewCustomError(apperrors.ErrPermissionDenied, "authentication required").WithCode("NO_ACTOR")
	errStaffOnly     = apperrors.NewCustomError(apperrors.ErrPermissionDenied, "only teachers and admins can perform this action").WithCode("STAFF_ONLY")
	errNotTeacher    = apperrors.NewCustomError(apperrors.ErrPermissionDenied, "you can only act as yourself").WithCode("NOT_TEACHER")
	errNotOwnProfile = apperrors.NewCustomError(apperrors.ErrPermissionDenied, "you can only access your own student records").WithCode("NOT_OWNER")
)

// AuthorizationService decides whether the actor in a context may act on a target
type AuthorizationService struct{}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService() *AuthorizationService {
	return &AuthorizationService{}
}

func (s *AuthorizationService) actor(ctx context.Context) (Actor, error) {
	a, ok := ActorFromContext(ctx)
	if !ok {
		return Actor{}, errNoActor
	}
	return a, nil
}

// RequireStaff allows teachers and admins
func (s *AuthorizationService) RequireStaff(ctx context.Context) error {
	a, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if !a.IsStaff() {
		return errStaffOnly
	}
	return nil
}

// RequireTeacher allows the teacher identified by teacherID, and admins
func (s *AuthorizationService) RequireTeacher(ctx context.Context, teacherID uuid.UUID) error {
	a, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if a.IsAdmin() {
		return nil
	}
	if a.Role != pkgAuth.RoleTeacher {
		return errStaffOnly
	}
	if a.UserID != teacherID {
		return errNotTeacher
	}
	return nil
}

// CanAccessStudent allows staff, and the student who owns profile
func (s *AuthorizationService) CanAccessStudent(ctx context.Context, profile *models.StudentProfile) error {
	a, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if a.IsStaff() {
		return nil
	}
	if a.Role == pkgAuth.RoleStudent && profile != nil && profile.UserID == a.UserID {
		return nil
	}
	return errNotOwnProfile
}

// CanAccessUser allows staff, and a student acting on their own user id
func (s *AuthorizationService) CanAccessUser(ctx context.Context, userID uuid.UUID) error {
	a, err := s.actor(ctx)
	if err != nil {
		return err
	}
	if a.IsStaff() {
		return nil
	}
	if a.Role == pkgAuth.RoleStudent && a.UserID == userID {
		return nil
	}
	return errNotOwnProfile
}

// IsStaff reports whether the actor in ctx is a teacher or admin
func (s *AuthorizationService) IsStaff(ctx context.Context) bool {
	a, ok := ActorFromContext(ctx)
	return ok && a.IsStaff()
}
