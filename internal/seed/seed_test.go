package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/auth"
)

type fakeCatalog struct {
	programs     []models.ProgramWithCourseCount
	courses      []models.ProgramCourse
	failCourse   string
	recalculated int
}

func (f *fakeCatalog) ListWithCourseCount(context.Context) ([]models.ProgramWithCourseCount, error) {
	return f.programs, nil
}

func (f *fakeCatalog) EnsureByCode(_ context.Context, p *models.TrainingProgram) (*models.TrainingProgram, bool, error) {
	created := *p
	created.ID = uuid.New()
	f.programs = append(f.programs, models.ProgramWithCourseCount{TrainingProgram: created})
	return &created, true, nil
}

func (f *fakeCatalog) UpsertCourse(_ context.Context, c *models.ProgramCourse) error {
	if c.CourseNumber == f.failCourse {
		return errors.New("insert failed")
	}
	f.courses = append(f.courses, *c)
	return nil
}

func (f *fakeCatalog) RecalculateTotalCredits(context.Context, uuid.UUID) error {
	f.recalculated++
	return nil
}

func TestCreateDefaultData_EmptyCatalog(t *testing.T) {
	catalog := &fakeCatalog{}
	require.NoError(t, CreateDefaultData(context.Background(), catalog, zerolog.Nop()))

	require.Len(t, catalog.programs, 1)
	assert.Equal(t, "CS_2024", catalog.programs[0].ProgramCode)
	require.Len(t, catalog.courses, 3)
	for i, number := range []string{"CS101", "CS102", "MATH101"} {
		assert.Equal(t, number, catalog.courses[i].CourseNumber)
		assert.Equal(t, catalog.programs[0].ID, catalog.courses[i].ProgramID)
	}
	assert.Equal(t, 1, catalog.recalculated)

	// second run sees a populated catalog
	require.NoError(t, CreateDefaultData(context.Background(), catalog, zerolog.Nop()))
	assert.Len(t, catalog.courses, 3)
}

func TestCreateDefaultData_CourseFailureIsReported(t *testing.T) {
	catalog := &fakeCatalog{failCourse: "CS102"}
	err := CreateDefaultData(context.Background(), catalog, zerolog.Nop())
	assert.Error(t, err)
	assert.Len(t, catalog.courses, 2)
	assert.Equal(t, 1, catalog.recalculated)
}

type fakeUsers struct{ users []models.User }

func (f *fakeUsers) Upsert(_ context.Context, u *models.User) error {
	f.users = append(f.users, *u)
	return nil
}

type fakeProfiles struct{ created []uuid.UUID }

func (f *fakeProfiles) CreateCanonical(_ context.Context, userID uuid.UUID) (bool, error) {
	f.created = append(f.created, userID)
	return true, nil
}

func TestCreateDemoUsers(t *testing.T) {
	users, profiles := &fakeUsers{}, &fakeProfiles{}
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "seed-secret"})

	require.NoError(t, CreateDemoUsers(context.Background(), users, profiles, jwtService, zerolog.Nop()))
	require.Len(t, users.users, 2)
	assert.Equal(t, auth.RoleTeacher, users.users[0].Role)
	assert.Equal(t, []uuid.UUID{DemoStudentID}, profiles.created)
}
