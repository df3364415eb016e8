package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/curricula/internal/app/models"
)

// The stores below are the persistence operations the services need.
// The repositories package satisfies them against Postgres.

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type ProfileStore interface {
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.StudentProfile, error)
	ListAliases(ctx context.Context, canonicalID uuid.UUID) ([]models.StudentProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error)
	CreateCanonical(ctx context.Context, userID uuid.UUID) (bool, error)
}

type ProgramStore interface {
	ListWithCourseCount(ctx context.Context) ([]models.ProgramWithCourseCount, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingProgram, error)
	GetByCode(ctx context.Context, code string) (*models.TrainingProgram, error)
	EnsureByCode(ctx context.Context, program *models.TrainingProgram) (*models.TrainingProgram, bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.RecordStatus) error
	ListCourses(ctx context.Context, programID uuid.UUID, activeOnly bool) ([]models.ProgramCourse, error)
	UpsertCourse(ctx context.Context, c *models.ProgramCourse) error
	RetireCoursesExcept(ctx context.Context, programID uuid.UUID, keep []string) (int64, error)
	RecalculateTotalCredits(ctx context.Context, programID uuid.UUID) error
	CreateImportBatch(ctx context.Context, b *models.ImportBatch) error
}

type AssignmentStore interface {
	Assign(ctx context.Context, a *models.Assignment) (int64, error)
	ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]models.AssignmentWithProgram, error)
	Withdraw(ctx context.Context, studentIDs []uuid.UUID, programID uuid.UUID) (*models.Assignment, error)
	ListCoursesForStudent(ctx context.Context, studentIDs []uuid.UUID) ([]models.CourseWithProgress, error)
}

type ProgressStore interface {
	Get(ctx context.Context, studentIDs []uuid.UUID, courseID uuid.UUID) (*models.CourseProgress, error)
	ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]models.CourseProgress, error)
	Update(ctx context.Context, p *models.CourseProgress) error
}

type LearningRecordStore interface {
	CreateTag(ctx context.Context, t *models.TechnicalTag) error
	FindActiveTag(ctx context.Context, studentIDs []uuid.UUID, name string, ref *models.CourseRef) (*models.TechnicalTag, error)
	ListTags(ctx context.Context, studentIDs []uuid.UUID) ([]models.TechnicalTag, error)
	CreateAchievement(ctx context.Context, a *models.LearningAchievement) error
	FindAchievement(ctx context.Context, studentIDs []uuid.UUID, ref models.CourseRef) (*models.LearningAchievement, error)
	UpdateAchievement(ctx context.Context, a *models.LearningAchievement) error
	ListAchievements(ctx context.Context, studentIDs []uuid.UUID) ([]models.LearningAchievement, error)
	CreateOutcome(ctx context.Context, o *models.LearningOutcome) error
	FindOutcome(ctx context.Context, studentIDs []uuid.UUID, ref models.CourseRef) (*models.LearningOutcome, error)
	UpdateOutcome(ctx context.Context, o *models.LearningOutcome) error
	ListOutcomes(ctx context.Context, studentIDs []uuid.UUID) ([]models.LearningOutcome, error)
}

type AnalysisJobStore interface {
	Create(ctx context.Context, j *models.AnalysisJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error)
	ClaimNext(ctx context.Context) (*models.AnalysisJob, error)
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error
	FailStale(ctx context.Context, cutoff time.Time) (int64, error)
	CountQueued(ctx context.Context) (int, error)
}

// AnalysisPoster delivers an analysis payload and returns the generated result
type AnalysisPoster interface {
	Configured() bool
	Post(ctx context.Context, payload any) (json.RawMessage, error)
}
