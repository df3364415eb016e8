// Package seed loads the starter catalog and, for local development, demo accounts
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/auth"
	"github.com/yigit/curricula/internal/pkg/helpers"
)

// CatalogStore is the part of the program repository seeding needs
type CatalogStore interface {
	ListWithCourseCount(ctx context.Context) ([]models.ProgramWithCourseCount, error)
	EnsureByCode(ctx context.Context, program *models.TrainingProgram) (*models.TrainingProgram, bool, error)
	UpsertCourse(ctx context.Context, c *models.ProgramCourse) error
	RecalculateTotalCredits(ctx context.Context, programID uuid.UUID) error
}

type UserStore interface {
	Upsert(ctx context.Context, u *models.User) error
}

type ProfileStore interface {
	CreateCanonical(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Fixed ids so demo tokens survive restarts
var (
	DemoTeacherID = uuid.MustParse("8c1f3a52-6d0e-4b7a-9f21-3e5d7c9b0a11")
	DemoStudentID = uuid.MustParse("2b7e9d14-5a3c-4f86-b0e2-9c1d4a6f8e22")
)

var starterProgram = models.TrainingProgram{
	ProgramCode: "CS_2024",
	ProgramName: "Computer Science 2024",
	Department:  "Computer Science",
}

var starterCourses = []models.ProgramCourse{
	{CourseNumber: "CS101", CourseName: "Introduction to Programming", Credits: 4, RecommendedGrade: "1", RecommendedSemester: "1", ExamMethod: "exam", CourseNature: "required", CourseType: "core", SequenceOrder: 1},
	{CourseNumber: "CS102", CourseName: "Data Structures", Credits: 4, RecommendedGrade: "1", RecommendedSemester: "2", ExamMethod: "exam", CourseNature: "required", CourseType: "core", SequenceOrder: 2},
	{CourseNumber: "MATH101", CourseName: "Calculus I", Credits: 3, RecommendedGrade: "1", RecommendedSemester: "1", ExamMethod: "exam", CourseNature: "required", CourseType: "foundation", SequenceOrder: 3},
}

// CreateDefaultData loads the starter program when the catalog is empty
func CreateDefaultData(ctx context.Context, catalog CatalogStore, lgr zerolog.Logger) error {
	programs, err := catalog.ListWithCourseCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if len(programs) > 0 {
		lgr.Debug().Int("programs", len(programs)).Msg("Catalog already populated, skipping starter data")
		return nil
	}

	lgr.Info().Str("programCode", starterProgram.ProgramCode).Msg("Creating starter training program")
	seedProgram := starterProgram
	program, _, err := catalog.EnsureByCode(ctx, &seedProgram)
	if err != nil {
		return fmt.Errorf("failed to create starter program: %w", err)
	}

	var finalErr error // collect course errors without stopping
	for _, c := range starterCourses {
		course := c
		course.ProgramID = program.ID
		if err := catalog.UpsertCourse(ctx, &course); err != nil {
			lgr.Error().Err(err).Str("courseNumber", course.CourseNumber).Msg("Error creating starter course")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if err := catalog.RecalculateTotalCredits(ctx, program.ID); err != nil {
		finalErr = errors.Join(finalErr, err)
	}
	return finalErr
}

// CreateDemoUsers upserts one teacher and one student and prints tokens for them
func CreateDemoUsers(ctx context.Context, users UserStore, profiles ProfileStore, jwtService *auth.JWTService, lgr zerolog.Logger) error {
	demo := []models.User{
		{ID: DemoTeacherID, DisplayName: "Demo Teacher", Role: auth.RoleTeacher},
		{ID: DemoStudentID, DisplayName: "Demo Student", Role: auth.RoleStudent, ExternalNumber: helpers.Ptr("S0001")},
	}

	for i := range demo {
		u := &demo[i]
		if err := users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("failed to create demo user %s: %w", u.DisplayName, err)
		}
		if u.Role == auth.RoleStudent {
			if _, err := profiles.CreateCanonical(ctx, u.ID); err != nil {
				return fmt.Errorf("failed to create demo student profile: %w", err)
			}
		}

		token, err := jwtService.GenerateToken(u.ID, u.Role)
		if err != nil {
			return fmt.Errorf("failed to sign demo token: %w", err)
		}
		lgr.Info().Str("userID", u.ID.String()).Str("role", u.Role).Str("token", token).Msg("Demo user ready")
	}
	return nil
}
