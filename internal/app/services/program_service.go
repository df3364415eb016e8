package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/curricula/internal/app/auth"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/excel"
	"github.com/yigit/curricula/internal/pkg/validation"
)

const courseNumberMaxLength = 64

// CourseInput is one course line of an import
type CourseInput struct {
	Row                 int
	CourseNumber        string
	CourseName          string
	Credits             float64
	RecommendedGrade    string
	RecommendedSemester string
	ExamMethod          string
	CourseNature        string
	CourseType          string
	SequenceOrder       int
}

// CourseImport is a request to import courses into the program identified by ProgramCode.
// ProgramName and Department are only used when the program has to be created.
type CourseImport struct {
	ProgramCode string
	ProgramName string
	Department  string
	BatchName   string
	ImportedBy  *uuid.UUID
	Courses     []CourseInput
}

// ProgramService manages the training-program catalog
type ProgramService interface {
	GetPrograms(ctx context.Context) ([]models.ProgramWithCourseCount, error)
	GetProgram(ctx context.Context, programID string) (*models.TrainingProgram, error)
	GetProgramByCode(ctx context.Context, code string) (*models.TrainingProgram, error)
	GetCourses(ctx context.Context, programID string) ([]models.ProgramCourse, error)
	ImportCourses(ctx context.Context, req CourseImport) (*models.ImportResult, error)
	ImportCoursesFromExcel(ctx context.Context, r io.Reader, req CourseImport) (*models.ImportResult, error)
	SetProgramStatus(ctx context.Context, programID string, status models.RecordStatus) (*models.TrainingProgram, error)
}

type programServiceImpl struct {
	programs     ProgramStore
	authzService *auth.AuthorizationService
	logger       zerolog.Logger
}

// NewProgramService creates a new ProgramService
func NewProgramService(programs ProgramStore, authzService *auth.AuthorizationService, logger zerolog.Logger) ProgramService {
	return &programServiceImpl{
		programs:     programs,
		authzService: authzService,
		logger:       logger,
	}
}

func parseProgramID(raw string) (uuid.UUID, error) {
	id, ok := validation.ParseUUID(raw)
	if !ok {
		return uuid.Nil, apperrors.ErrInvalidProgramID
	}
	return id, nil
}

func (s *programServiceImpl) GetPrograms(ctx context.Context) ([]models.ProgramWithCourseCount, error) {
	programs, err := s.programs.ListWithCourseCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing training programs: %w", err)
	}
	return programs, nil
}

func (s *programServiceImpl) GetProgram(ctx context.Context, programID string) (*models.TrainingProgram, error) {
	id, err := parseProgramID(programID)
	if err != nil {
		return nil, err
	}
	return s.programs.GetByID(ctx, id)
}

func (s *programServiceImpl) GetProgramByCode(ctx context.Context, code string) (*models.TrainingProgram, error) {
	code = strings.TrimSpace(code)
	if !validation.CompiledPatterns.ProgramCode.MatchString(code) {
		return nil, apperrors.NewValidationError("invalid program code")
	}
	return s.programs.GetByCode(ctx, code)
}

// GetCourses returns the active courses of an active program in sequence order
func (s *programServiceImpl) GetCourses(ctx context.Context, programID string) ([]models.ProgramCourse, error) {
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
	return s.programs.ListCourses(ctx, id, true)
}

func (s *programServiceImpl) validateImport(req *CourseImport) error {
	req.ProgramCode = strings.TrimSpace(req.ProgramCode)
	if !validation.NewStringValidation(req.ProgramCode).WithPattern(validation.CompiledPatterns.ProgramCode).Validate() {
		return apperrors.NewValidationError("programCode must be 2-64 letters, digits, '_' or '-'")
	}
	for field, value := range map[string]string{"batchName": req.BatchName, "programName": req.ProgramName, "department": req.Department} {
		if !validation.NewStringValidation(value).WithRequired(false).WithMaxLength(validation.NameMaxLength).Validate() {
			return apperrors.NewValidationError(field + " is too long")
		}
	}

	req.BatchName = strings.TrimSpace(req.BatchName)
	if req.BatchName == "" {
		req.BatchName = req.ProgramCode + " import"
	}
	req.ProgramName = strings.TrimSpace(req.ProgramName)
	if req.ProgramName == "" {
		req.ProgramName = req.ProgramCode
	}
	req.Department = strings.TrimSpace(req.Department)
	return nil
}

// validateCourse returns the reason a course line cannot be imported, or ""
func validateCourse(c *CourseInput) string {
	c.CourseNumber = strings.TrimSpace(c.CourseNumber)
	c.CourseName = strings.TrimSpace(c.CourseName)
	switch {
	case c.CourseNumber == "":
		return "course number is required"
	case utf8.RuneCountInString(c.CourseNumber) > courseNumberMaxLength:
		return "course number is too long"
	case c.CourseName == "":
		return "course name is required"
	case utf8.RuneCountInString(c.CourseName) > validation.NameMaxLength:
		return "course name is too long"
	case c.Credits < 0:
		return "credits cannot be negative"
	}
	return ""
}

// ImportCourses upserts each course on its own. A bad row is recorded and the import moves on.
func (s *programServiceImpl) ImportCourses(ctx context.Context, req CourseImport) (*models.ImportResult, error) {
	if err := s.authzService.RequireStaff(ctx); err != nil {
		return nil, err
	}
	if err := s.validateImport(&req); err != nil {
		return nil, err
	}
	if len(req.Courses) == 0 {
		return nil, apperrors.NewValidationError("courses must contain at least one course")
	}
	return s.importRows(ctx, req, nil)
}

// ImportCoursesFromExcel parses an .xlsx workbook and imports its rows. Rows that cannot be
// parsed are reported as failed alongside rows that fail to import.
func (s *programServiceImpl) ImportCoursesFromExcel(ctx context.Context, r io.Reader, req CourseImport) (*models.ImportResult, error) {
	if err := s.authzService.RequireStaff(ctx); err != nil {
		return nil, err
	}
	if err := s.validateImport(&req); err != nil {
		return nil, err
	}

	parsed, err := excel.Parse(r)
	if err != nil {
		if errors.Is(err, excel.ErrMissingHeader) {
			return nil, apperrors.NewValidationError(err.Error())
		}
		return nil, apperrors.NewValidationError(fmt.Sprintf("could not read workbook: %v", err))
	}
	if len(parsed.Rows) == 0 && len(parsed.Errors) == 0 {
		return nil, apperrors.NewValidationError("workbook contains no course rows")
	}

	req.Courses = make([]CourseInput, 0, len(parsed.Rows))
	for i, row := range parsed.Rows {
		req.Courses = append(req.Courses, CourseInput{
			Row:                 row.Row,
			CourseNumber:        row.CourseNumber,
			CourseName:          row.CourseName,
			Credits:             row.Credits,
			RecommendedGrade:    row.RecommendedGrade,
			RecommendedSemester: row.RecommendedSemester,
			ExamMethod:          row.ExamMethod,
			CourseNature:        row.CourseNature,
			CourseType:          row.CourseType,
			SequenceOrder:       i + 1,
		})
	}

	parseFailures := make([]models.ImportRowError, 0, len(parsed.Errors))
	for _, e := range parsed.Errors {
		parseFailures = append(parseFailures, models.ImportRowError{Row: e.Row, Error: e.Reason})
	}

	s.logger.Info().
		Str("programCode", req.ProgramCode).
		Str("sheet", parsed.Sheet).
		Int("rows", len(parsed.Rows)).
		Int("unreadable", len(parsed.Errors)).
		Msg("Parsed course workbook")

	return s.importRows(ctx, req, parseFailures)
}

func (s *programServiceImpl) importRows(ctx context.Context, req CourseImport, failures []models.ImportRowError) (*models.ImportResult, error) {
	program, created, err := s.programs.EnsureByCode(ctx, &models.TrainingProgram{
		ProgramCode: req.ProgramCode,
		ProgramName: req.ProgramName,
		Department:  strings.TrimSpace(req.Department),
	})
	if err != nil {
		return nil, fmt.Errorf("error resolving program %s: %w", req.ProgramCode, err)
	}
	if created {
		s.logger.Info().Str("programCode", program.ProgramCode).Msg("Created training program from import")
	}

	result := &models.ImportResult{
		ProgramID: program.ID,
		Total:     len(req.Courses) + len(failures),
		Errors:    append([]models.ImportRowError{}, failures...),
	}
	result.Failed = len(failures)

	seen := make(map[string]int, len(req.Courses))
	for i := range req.Courses {
		c := req.Courses[i]
		if c.Row == 0 {
			c.Row = i + 1
		}
		if c.SequenceOrder <= 0 {
			c.SequenceOrder = i + 1
		}

		if reason := validateCourse(&c); reason != "" {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{Row: c.Row, CourseNumber: c.CourseNumber, Error: reason})
			continue
		}
		if first, dup := seen[c.CourseNumber]; dup {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:          c.Row,
				CourseNumber: c.CourseNumber,
				Error:        fmt.Sprintf("duplicate course number, already imported from row %d", first),
			})
			continue
		}

		course := &models.ProgramCourse{
			ProgramID:           program.ID,
			CourseNumber:        c.CourseNumber,
			CourseName:          c.CourseName,
			Credits:             c.Credits,
			RecommendedGrade:    strings.TrimSpace(c.RecommendedGrade),
			RecommendedSemester: strings.TrimSpace(c.RecommendedSemester),
			ExamMethod:          strings.TrimSpace(c.ExamMethod),
			CourseNature:        strings.TrimSpace(c.CourseNature),
			CourseType:          strings.TrimSpace(c.CourseType),
			SequenceOrder:       c.SequenceOrder,
			Status:              models.StatusActive,
		}
		if err := s.programs.UpsertCourse(ctx, course); err != nil {
			s.logger.Warn().Err(err).Int("row", c.Row).Str("courseNumber", c.CourseNumber).Msg("Course row failed to import")
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:          c.Row,
				CourseNumber: c.CourseNumber,
				Error:        apperrors.Message(err, "could not save course"),
			})
			continue
		}
		seen[c.CourseNumber] = c.Row
		result.Success++
	}

	// A clean import is the full curriculum. Courses it no longer lists are retired, never deleted.
	if result.Success > 0 && result.Failed == 0 {
		keep := make([]string, 0, len(seen))
		for number := range seen {
			keep = append(keep, number)
		}
		retired, err := s.programs.RetireCoursesExcept(ctx, program.ID, keep)
		if err != nil {
			return nil, fmt.Errorf("error retiring courses dropped from program %s: %w", program.ProgramCode, err)
		}
		result.Retired = int(retired)
		if retired > 0 {
			s.logger.Info().Str("programCode", program.ProgramCode).Int64("retired", retired).Msg("Retired courses dropped by import")
		}
	} else if result.Failed > 0 {
		s.logger.Warn().Str("programCode", program.ProgramCode).Msg("Import had failed rows, keeping courses it did not list")
	}

	if result.Success > 0 {
		if err := s.programs.RecalculateTotalCredits(ctx, program.ID); err != nil {
			s.logger.Error().Err(err).Str("programID", program.ID.String()).Msg("Failed to recalculate total credits")
		}
	}

	batch := &models.ImportBatch{
		ProgramID:    program.ID,
		BatchName:    req.BatchName,
		ImportedBy:   req.ImportedBy,
		SuccessCount: result.Success,
		FailedCount:  result.Failed,
		Errors:       result.Errors,
	}
	if batch.ImportedBy == nil {
		if actor, ok := auth.ActorFromContext(ctx); ok && actor.UserID != uuid.Nil {
			batch.ImportedBy = &actor.UserID
		}
	}
	if err := s.programs.CreateImportBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("courses imported but the import batch could not be recorded: %w", err)
	}
	result.BatchID = batch.ID

	s.logger.Info().
		Str("programCode", program.ProgramCode).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("total", result.Total).
		Int("retired", result.Retired).
		Msg("Course import finished")

	return result, nil
}

// SetProgramStatus retires or reactivates a program
func (s *programServiceImpl) SetProgramStatus(ctx context.Context, programID string, status models.RecordStatus) (*models.TrainingProgram, error) {
	if err := s.authzService.RequireStaff(ctx); err != nil {
		return nil, err
	}
	id, err := parseProgramID(programID)
	if err != nil {
		return nil, err
	}
	if status != models.StatusActive && status != models.StatusInactive {
		return nil, apperrors.NewValidationError("status must be active or inactive")
	}
	if err := s.programs.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	s.logger.Info().Str("programID", id.String()).Str("status", string(status)).Msg("Training program status changed")
	return s.programs.GetByID(ctx, id)
}
