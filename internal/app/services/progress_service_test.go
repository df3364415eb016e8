package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/helpers"
)

type progressFixture struct {
	*fixture
	userID  uuid.UUID
	student models.StudentProfile
	course  uuid.UUID
}

func newProgressFixture(t *testing.T) *progressFixture {
	f := newFixture(t)
	program := f.seedProgram(t, "CS_2024", "CS101", "CS102")
	userID, s1 := f.addStudent(t, "S1")
	_, err := f.assignments.AssignOne(f.teacherCtx(), s1.ID.String(), program.ID.String(), nil, nil)
	require.NoError(t, err)
	return &progressFixture{fixture: f, userID: userID, student: s1, course: f.courseID(t, program.ID, "CS101")}
}

func (pf *progressFixture) setStatus(t *testing.T, status models.ProgressStatus) {
	t.Helper()
	_, err := pf.progress.UpdateProgress(pf.teacherCtx(), pf.student.ID.String(), pf.course.String(),
		models.ProgressUpdate{Status: &status}, true)
	require.NoError(t, err)
}

func TestUpdateProgress_StateMachine(t *testing.T) {
	tests := []struct {
		from, to models.ProgressStatus
		allowed  bool
	}{
		{models.ProgressNotStarted, models.ProgressInProgress, true},
		{models.ProgressNotStarted, models.ProgressCompleted, true},
		{models.ProgressInProgress, models.ProgressCompleted, true},
		{models.ProgressInProgress, models.ProgressInProgress, true},
		{models.ProgressCompleted, models.ProgressCompleted, true},
		{models.ProgressInProgress, models.ProgressNotStarted, false},
		{models.ProgressCompleted, models.ProgressInProgress, false},
		{models.ProgressCompleted, models.ProgressNotStarted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			pf := newProgressFixture(t)
			pf.setStatus(t, tt.from)

			to := tt.to
			got, err := pf.progress.UpdateProgress(studentCtx(pf.userID), pf.student.ID.String(), pf.course.String(),
				models.ProgressUpdate{Status: &to}, false)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, got.Status)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			}
		})
	}
}

func TestUpdateProgress_Override(t *testing.T) {
	pf := newProgressFixture(t)
	pf.setStatus(t, models.ProgressCompleted)
	back := models.ProgressInProgress

	_, err := pf.progress.UpdateProgress(studentCtx(pf.userID), pf.student.ID.String(), pf.course.String(),
		models.ProgressUpdate{Status: &back}, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	got, err := pf.progress.UpdateProgress(pf.teacherCtx(), pf.student.ID.String(), pf.course.String(),
		models.ProgressUpdate{Status: &back}, true)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressInProgress, got.Status)
}

func TestUpdateProgress_PartialFields(t *testing.T) {
	pf := newProgressFixture(t)
	completed := models.ProgressCompleted

	got, err := pf.progress.UpdateProgress(pf.teacherCtx(), pf.student.ID.String(), pf.course.String(),
		models.ProgressUpdate{Status: &completed, Grade: helpers.Ptr("A"), GradePoint: helpers.Ptr(4.0)}, false)
	require.NoError(t, err)
	assert.Nil(t, got.SemesterCompleted)

	got, err = pf.progress.UpdateProgress(pf.teacherCtx(), pf.student.ID.String(), pf.course.String(),
		models.ProgressUpdate{Notes: helpers.Ptr("  retook the final  ")}, false)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressCompleted, got.Status)
	assert.Equal(t, "A", *got.Grade)
	assert.Equal(t, "retook the final", *got.Notes)
}

func TestUpdateProgress_BlankNotesClearNotes(t *testing.T) {
	pf := newProgressFixture(t)

	got, err := pf.progress.UpdateProgress(pf.teacherCtx(), pf.student.ID.String(), pf.course.String(),
		models.ProgressUpdate{Notes: helpers.Ptr("needs a retake")}, false)
	require.NoError(t, err)
	require.NotNil(t, got.Notes)

	got, err = pf.progress.UpdateProgress(pf.teacherCtx(), pf.student.ID.String(), pf.course.String(),
		models.ProgressUpdate{Notes: helpers.Ptr("  ")}, false)
	require.NoError(t, err)
	assert.Nil(t, got.Notes)

	rows, err := pf.progress.GetProgress(pf.teacherCtx(), pf.student.ID.String())
	require.NoError(t, err)
	for _, row := range rows {
		assert.Nil(t, row.Notes)
	}
}

func TestUpdateProgress_Validation(t *testing.T) {
	pf := newProgressFixture(t)
	bogus := models.ProgressStatus("paused")

	tests := []struct {
		name     string
		courseID string
		update   models.ProgressUpdate
		wantErr  error
	}{
		{name: "empty update", courseID: pf.course.String(), wantErr: apperrors.ErrValidationFailed},
		{name: "unknown status", courseID: pf.course.String(), update: models.ProgressUpdate{Status: &bogus}, wantErr: apperrors.ErrValidationFailed},
		{name: "grade point above 5", courseID: pf.course.String(), update: models.ProgressUpdate{GradePoint: helpers.Ptr(5.5)}, wantErr: apperrors.ErrValidationFailed},
		{name: "negative grade point", courseID: pf.course.String(), update: models.ProgressUpdate{GradePoint: helpers.Ptr(-1.0)}, wantErr: apperrors.ErrValidationFailed},
		{name: "malformed course", courseID: "CS101", update: models.ProgressUpdate{Grade: helpers.Ptr("B")}, wantErr: apperrors.ErrValidationFailed},
		{name: "course without progress", courseID: uuid.NewString(), update: models.ProgressUpdate{Grade: helpers.Ptr("B")}, wantErr: apperrors.ErrResourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pf.progress.UpdateProgress(pf.teacherCtx(), pf.student.ID.String(), tt.courseID, tt.update, false)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetProgress(t *testing.T) {
	pf := newProgressFixture(t)
	rows, err := pf.progress.GetProgress(studentCtx(pf.userID), pf.student.ID.String())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
