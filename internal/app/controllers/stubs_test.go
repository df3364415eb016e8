package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/app/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Each stub embeds the service interface so only the methods a test needs are implemented.

type stubAssignmentService struct {
	services.AssignmentService
	assignOne   func(studentID, programID string, teacherID, notes *string) (*models.Assignment, error)
	assignBatch func(teacherID, programID string, studentIDs []string) (*services.BatchResult, error)
	listCourses func(studentID string) ([]models.CourseWithProgress, error)
}

func (s *stubAssignmentService) AssignOne(_ context.Context, studentID, programID string, teacherID, notes *string) (*models.Assignment, error) {
	return s.assignOne(studentID, programID, teacherID, notes)
}

func (s *stubAssignmentService) AssignBatch(_ context.Context, teacherID, programID string, studentIDs []string, _ *string) (*services.BatchResult, error) {
	return s.assignBatch(teacherID, programID, studentIDs)
}

func (s *stubAssignmentService) ListCoursesForStudent(_ context.Context, studentID string) ([]models.CourseWithProgress, error) {
	return s.listCourses(studentID)
}

type stubProgramService struct {
	services.ProgramService
	importCourses func(req services.CourseImport) (*models.ImportResult, error)
	importExcel   func(r io.Reader, req services.CourseImport) (*models.ImportResult, error)
	byCode        func(code string) (*models.TrainingProgram, error)
}

func (s *stubProgramService) GetProgramByCode(_ context.Context, code string) (*models.TrainingProgram, error) {
	return s.byCode(code)
}

func (s *stubProgramService) ImportCourses(_ context.Context, req services.CourseImport) (*models.ImportResult, error) {
	return s.importCourses(req)
}

func (s *stubProgramService) ImportCoursesFromExcel(_ context.Context, r io.Reader, req services.CourseImport) (*models.ImportResult, error) {
	return s.importExcel(r, req)
}

type stubLearningService struct {
	services.LearningService
	syncTags        func(studentID string, course services.CourseSelector, names []string) ([]models.TagSyncResult, error)
	syncAchievement func(studentID string, course services.CourseSelector, content string) (*models.AchievementSyncResult, error)
	addTag          func(in services.TagInput) (*models.TechnicalTag, error)
}

func (s *stubLearningService) SyncTagsForCourse(_ context.Context, studentID string, course services.CourseSelector, names []string) ([]models.TagSyncResult, error) {
	return s.syncTags(studentID, course, names)
}

func (s *stubLearningService) SyncAchievementForCourse(_ context.Context, studentID string, course services.CourseSelector, content string) (*models.AchievementSyncResult, error) {
	return s.syncAchievement(studentID, course, content)
}

func (s *stubLearningService) AddTag(_ context.Context, in services.TagInput) (*models.TechnicalTag, error) {
	return s.addTag(in)
}

type stubProgressService struct {
	services.ProgressService
	update func(studentID, courseID string, u models.ProgressUpdate, override bool) (*models.CourseProgress, error)
}

func (s *stubProgressService) UpdateProgress(_ context.Context, studentID, courseID string, u models.ProgressUpdate, override bool) (*models.CourseProgress, error) {
	return s.update(studentID, courseID, u, override)
}

type stubAnalysisService struct {
	services.AnalysisService
	submit func(studentID string) (*models.AnalysisJob, error)
}

func (s *stubAnalysisService) Submit(_ context.Context, studentID string) (*models.AnalysisJob, error) {
	return s.submit(studentID)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope decodes the common response fields; Data stays raw for per-test decoding
type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	AssignmentID string          `json:"assignment_id"`
	Data         json.RawMessage `json:"data"`
	Error        *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
