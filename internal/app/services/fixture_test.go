package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/curricula/internal/app/auth"
	"github.com/yigit/curricula/internal/app/models"
	pkgAuth "github.com/yigit/curricula/internal/pkg/auth"
)

type fixture struct {
	db     *memDB
	poster *fakePoster

	profiles    ProfileService
	programs    ProgramService
	assignments AssignmentService
	progress    ProgressService
	learning    LearningService
	analysis    AnalysisService

	teacherID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()
	authz := auth.NewAuthorizationService()
	lgr := zerolog.Nop()

	f := &fixture{db: db, poster: &fakePoster{configured: true, result: []byte(`{"summary":"ok"}`)}}
	f.profiles = NewProfileService(memUsers{db}, memProfiles{db}, authz, lgr)
	f.programs = NewProgramService(memPrograms{db}, authz, lgr)
	f.assignments = NewAssignmentService(memAssignments{db}, memPrograms{db}, f.profiles, authz, 3, lgr)
	f.progress = NewProgressService(memProgress{db}, f.profiles, authz, lgr)
	f.learning = NewLearningService(memRecords{db}, memAssignments{db}, f.profiles, authz, lgr)
	f.analysis = NewAnalysisService(memJobs{db}, f.learning, f.profiles, authz, f.poster, AnalysisOptions{Workers: 1}, lgr)

	f.teacherID = f.addUser(t, pkgAuth.RoleTeacher)
	return f
}

func (f *fixture) addUser(t *testing.T, role string) uuid.UUID {
	t.Helper()
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u := models.User{ID: uuid.New(), DisplayName: role, Role: role, CreatedAt: f.db.now()}
	f.db.users[u.ID] = u
	return u.ID
}

// addStudent creates a student user with a canonical profile and returns both
func (f *fixture) addStudent(t *testing.T, name string) (uuid.UUID, models.StudentProfile) {
	t.Helper()
	userID := f.addUser(t, pkgAuth.RoleStudent)
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	now := f.db.now()
	p := models.StudentProfile{ID: uuid.New(), UserID: userID, FullName: name, Status: "active", CreatedAt: now, UpdatedAt: now}
	f.db.profiles[p.ID] = p
	return userID, p
}

// addAlias adds a legacy duplicate profile merged into canonical
func (f *fixture) addAlias(t *testing.T, canonical models.StudentProfile) models.StudentProfile {
	t.Helper()
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	now := f.db.now()
	merged := canonical.ID
	p := models.StudentProfile{ID: uuid.New(), UserID: canonical.UserID, Status: "merged", MergedIntoID: &merged, CreatedAt: now, UpdatedAt: now}
	f.db.profiles[p.ID] = p
	return p
}

// seedProgram stores an active program with the given course numbers in order
func (f *fixture) seedProgram(t *testing.T, code string, courses ...string) models.TrainingProgram {
	t.Helper()
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	now := f.db.now()
	p := models.TrainingProgram{ID: uuid.New(), ProgramCode: code, ProgramName: code, Status: models.StatusActive, CreatedAt: now, UpdatedAt: now}
	f.db.programs[p.ID] = p
	// stored in reverse to prove ordering comes from sequence_order
	for i := len(courses) - 1; i >= 0; i-- {
		c := models.ProgramCourse{
			ID: uuid.New(), ProgramID: p.ID, CourseNumber: courses[i], CourseName: courses[i] + " course",
			Credits: 3, SequenceOrder: i + 1, Status: models.StatusActive, CreatedAt: now, UpdatedAt: now,
		}
		f.db.courses[c.ID] = c
	}
	return p
}

func (f *fixture) courseID(t *testing.T, programID uuid.UUID, number string) uuid.UUID {
	t.Helper()
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, c := range f.db.courses {
		if c.ProgramID == programID && c.CourseNumber == number {
			return c.ID
		}
	}
	require.FailNow(t, "course not seeded", number)
	return uuid.Nil
}

func (f *fixture) progressRows(studentID uuid.UUID) []models.CourseProgress {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []models.CourseProgress
	for _, p := range f.db.progress {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out
}

func (f *fixture) teacherCtx() context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserID: f.teacherID, Role: pkgAuth.RoleTeacher})
}

func studentCtx(userID uuid.UUID) context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserID: userID, Role: pkgAuth.RoleStudent})
}
