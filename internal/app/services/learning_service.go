package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/curricula/internal/app/auth"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/coursename"
	"github.com/yigit/curricula/internal/pkg/helpers"
	"github.com/yigit/curricula/internal/pkg/validation"
)

const defaultAchievementTitle = "Learning achievement"

// CourseSelector names the course a record is about, by id, by name, or both
type CourseSelector struct {
	CourseID   *string
	CourseName *string
}

type TagInput struct {
	StudentID        string
	TagName          string
	TagCategory      string
	ProficiencyLevel string
	Description      *string
	Course           CourseSelector
}

type AchievementInput struct {
	StudentID       string
	Title           string
	Content         string
	AchievementType string
	AchievementDate *string
	Course          CourseSelector
}

type OutcomeInput struct {
	StudentID          string
	OutcomeTitle       string
	OutcomeDescription string
	StartDate          *string
	EndDate            *string
	Course             CourseSelector
}

// LearningService stores the tags, achievements and outcomes students report
type LearningService interface {
	AddTag(ctx context.Context, in TagInput) (*models.TechnicalTag, error)
	AddAchievement(ctx context.Context, in AchievementInput) (*models.LearningAchievement, error)
	AddOutcome(ctx context.Context, in OutcomeInput) (*models.LearningOutcome, error)
	SyncTagsForCourse(ctx context.Context, studentID string, course CourseSelector, tagNames []string) ([]models.TagSyncResult, error)
	SyncAchievementForCourse(ctx context.Context, studentID string, course CourseSelector, content string) (*models.AchievementSyncResult, error)
	SyncOutcomeForCourse(ctx context.Context, studentID string, course CourseSelector, description string, startDate, endDate *string) (*models.OutcomeSyncResult, error)
	GetSummary(ctx context.Context, studentProfileID string) (*models.LearningSummary, error)
	GetCourseRecords(ctx context.Context, studentID string) (*models.CourseRecords, error)
}

type learningServiceImpl struct {
	records        LearningRecordStore
	assignments    AssignmentStore
	profileService ProfileService
	authzService   *auth.AuthorizationService
	logger         zerolog.Logger
}

// NewLearningService creates a new LearningService
func NewLearningService(
	records LearningRecordStore,
	assignments AssignmentStore,
	profileService ProfileService,
	authzService *auth.AuthorizationService,
	logger zerolog.Logger,
) LearningService {
	return &learningServiceImpl{
		records:        records,
		assignments:    assignments,
		profileService: profileService,
		authzService:   authzService,
		logger:         logger,
	}
}

func checkLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperrors.NewValidationError(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// findCourseByLabel looks label up among courses by name or number, exact first, then normalized
func findCourseByLabel(courses []models.CourseWithProgress, label string) *models.CourseWithProgress {
	for i := range courses {
		if courses[i].CourseName == label || courses[i].CourseNumber == label {
			return &courses[i]
		}
	}
	for i := range courses {
		if coursename.Equal(courses[i].CourseName, label) || coursename.Equal(courses[i].CourseNumber, label) {
			return &courses[i]
		}
	}
	return nil
}

// resolveCourse turns a selector into the stored reference. A name that matches one of the
// student's assigned courses gains that course's id; the caller's name is kept as the label.
func (s *learningServiceImpl) resolveCourse(ctx context.Context, ids []uuid.UUID, sel CourseSelector, required bool) (models.CourseRef, error) {
	name := helpers.NilIfBlank(sel.CourseName)
	rawID := helpers.TrimmedOrEmpty(sel.CourseID)
	if name == nil && rawID == "" {
		if required {
			return models.CourseRef{}, apperrors.NewValidationError("courseName or courseId is required")
		}
		return models.CourseRef{}, nil
	}
	if name != nil {
		if err := checkLength("courseName", *name, validation.NameMaxLength); err != nil {
			return models.CourseRef{}, err
		}
	}

	ref := models.CourseRef{CourseName: name}
	if rawID != "" {
		id, ok := validation.ParseUUID(rawID)
		if !ok {
			return models.CourseRef{}, apperrors.NewValidationError("invalid course ID format")
		}
		ref.CourseID = &id
		if name != nil {
			return ref, nil
		}
	}

	courses, err := s.assignments.ListCoursesForStudent(ctx, ids)
	if err != nil {
		return models.CourseRef{}, fmt.Errorf("error loading assigned courses: %w", err)
	}

	if ref.CourseID != nil {
		for _, c := range courses {
			if c.ID == *ref.CourseID {
				label := c.CourseName
				ref.CourseName = &label
				break
			}
		}
		return ref, nil
	}

	if c := findCourseByLabel(courses, *name); c != nil {
		id := c.ID
		ref.CourseID = &id
	}
	return ref, nil
}

// collapseTagNames trims names and drops blanks and case-insensitive repeats, keeping first spelling
func collapseTagNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if err := checkLength("tag name", n, validation.TagNameMaxLength); err != nil {
			return nil, err
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out, nil
}

// AddTag records a tag, rejecting a second active tag with the same name for the same course
func (s *learningServiceImpl) AddTag(ctx context.Context, in TagInput) (*models.TechnicalTag, error) {
	name := strings.TrimSpace(in.TagName)
	if name == "" {
		return nil, apperrors.NewValidationError("tag_name is required")
	}
	if err := checkLength("tag_name", name, validation.TagNameMaxLength); err != nil {
		return nil, err
	}
	description := helpers.NilIfBlank(in.Description)
	if description != nil {
		if err := checkLength("description", *description, validation.RecordTextMaxLength); err != nil {
			return nil, err
		}
	}

	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, in.StudentID)
	if err != nil {
		return nil, err
	}
	ref, err := s.resolveCourse(ctx, ids, in.Course, false)
	if err != nil {
		return nil, err
	}

	existing, err := s.records.FindActiveTag(ctx, ids, name, &ref)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrTagAlreadyExists.WithDetails(map[string]interface{}{"tag_id": existing.ID.String()})
	}

	tag := &models.TechnicalTag{
		StudentID:        profile.ID,
		TagName:          name,
		TagCategory:      strings.TrimSpace(in.TagCategory),
		ProficiencyLevel: strings.TrimSpace(in.ProficiencyLevel),
		Description:      description,
		CourseName:       ref.CourseName,
		CourseID:         ref.CourseID,
	}
	if err := s.records.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *learningServiceImpl) AddAchievement(ctx context.Context, in AchievementInput) (*models.LearningAchievement, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required")
	}
	if err := checkLength("content", content, validation.RecordTextMaxLength); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if err := checkLength("title", title, validation.NameMaxLength); err != nil {
		return nil, err
	}
	date, err := helpers.ParseDate(in.AchievementDate)
	if err != nil {
		return nil, apperrors.NewValidationError("achievement_date must be a YYYY-MM-DD date")
	}

	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, in.StudentID)
	if err != nil {
		return nil, err
	}
	ref, err := s.resolveCourse(ctx, ids, in.Course, false)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = achievementTitle(ref)
	}

	a := &models.LearningAchievement{
		StudentID:       profile.ID,
		Title:           title,
		Content:         content,
		AchievementType: strings.TrimSpace(in.AchievementType),
		AchievementDate: date,
		CourseName:      ref.CourseName,
		CourseID:        ref.CourseID,
	}
	if err := s.records.CreateAchievement(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func achievementTitle(ref models.CourseRef) string {
	if ref.CourseName != nil {
		return *ref.CourseName
	}
	return defaultAchievementTitle
}

// parseDateRange parses optional start and end dates and rejects an end before the start
func parseDateRange(startDate, endDate *string) (*time.Time, *time.Time, error) {
	start, err := helpers.ParseDate(startDate)
	if err != nil {
		return nil, nil, apperrors.NewValidationError("start_date must be a YYYY-MM-DD date")
	}
	end, err := helpers.ParseDate(endDate)
	if err != nil {
		return nil, nil, apperrors.NewValidationError("end_date must be a YYYY-MM-DD date")
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, apperrors.NewValidationError("end_date cannot be before start_date")
	}
	return start, end, nil
}

func (s *learningServiceImpl) AddOutcome(ctx context.Context, in OutcomeInput) (*models.LearningOutcome, error) {
	description := strings.TrimSpace(in.OutcomeDescription)
	if description == "" {
		return nil, apperrors.NewValidationError("outcome_description is required")
	}
	if err := checkLength("outcome_description", description, validation.RecordTextMaxLength); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.OutcomeTitle)
	if err := checkLength("outcome_title", title, validation.NameMaxLength); err != nil {
		return nil, err
	}
	start, end, err := parseDateRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, in.StudentID)
	if err != nil {
		return nil, err
	}
	ref, err := s.resolveCourse(ctx, ids, in.Course, false)
	if err != nil {
		return nil, err
	}
	if title == "" && ref.CourseName != nil {
		title = *ref.CourseName
	}

	o := &models.LearningOutcome{
		StudentID:          profile.ID,
		OutcomeTitle:       title,
		OutcomeDescription: description,
		StartDate:          start,
		EndDate:            end,
		CourseName:         ref.CourseName,
		CourseID:           ref.CourseID,
	}
	if err := s.records.CreateOutcome(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// SyncTagsForCourse makes sure each named tag exists once for the course. Tags already
// present are reported as existing and left untouched.
func (s *learningServiceImpl) SyncTagsForCourse(ctx context.Context, studentID string, course CourseSelector, tagNames []string) ([]models.TagSyncResult, error) {
	names, err := collapseTagNames(tagNames)
	if err != nil {
		return nil, err
	}

	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	ref, err := s.resolveCourse(ctx, ids, course, true)
	if err != nil {
		return nil, err
	}

	results := make([]models.TagSyncResult, 0, len(names))
	for _, name := range names {
		existing, err := s.records.FindActiveTag(ctx, ids, name, &ref)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			results = append(results, models.TagSyncResult{Action: models.SyncExisting, Tag: existing})
			continue
		}

		tag := &models.TechnicalTag{
			StudentID:  profile.ID,
			TagName:    name,
			CourseName: ref.CourseName,
			CourseID:   ref.CourseID,
		}
		if err := s.records.CreateTag(ctx, tag); err != nil {
			if !errors.Is(err, apperrors.ErrConflict) {
				return nil, err
			}
			// a concurrent save created the same tag first
			existing, err := s.records.FindActiveTag(ctx, ids, name, &ref)
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, fmt.Errorf("tag %q conflicted but could not be re-read", name)
			}
			results = append(results, models.TagSyncResult{Action: models.SyncExisting, Tag: existing})
			continue
		}
		results = append(results, models.TagSyncResult{Action: models.SyncCreated, Tag: tag})
	}

	s.logger.Debug().Str("studentID", profile.ID.String()).Int("tags", len(results)).Msg("Synced technical tags")
	return results, nil
}

// SyncAchievementForCourse keeps one achievement per student and course. Empty content is a no-op.
func (s *learningServiceImpl) SyncAchievementForCourse(ctx context.Context, studentID string, course CourseSelector, content string) (*models.AchievementSyncResult, error) {
	content = strings.TrimSpace(content)
	if err := checkLength("content", content, validation.RecordTextMaxLength); err != nil {
		return nil, err
	}

	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	ref, err := s.resolveCourse(ctx, ids, course, true)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return &models.AchievementSyncResult{Action: models.SyncSkipped}, nil
	}

	existing, err := s.records.FindAchievement(ctx, ids, ref)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.updateAchievement(ctx, existing, ref, content)
	}

	a := &models.LearningAchievement{
		StudentID:  profile.ID,
		Title:      achievementTitle(ref),
		Content:    content,
		CourseName: ref.CourseName,
		CourseID:   ref.CourseID,
	}
	if err := s.records.CreateAchievement(ctx, a); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		// lost a race with a concurrent save: update the row it created
		existing, err := s.records.FindAchievement(ctx, ids, ref)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("achievement conflicted but could not be re-read: %w", apperrors.ErrAchievementExists)
		}
		return s.updateAchievement(ctx, existing, ref, content)
	}
	return &models.AchievementSyncResult{Action: models.SyncCreated, Record: a}, nil
}

func (s *learningServiceImpl) updateAchievement(ctx context.Context, existing *models.LearningAchievement, ref models.CourseRef, content string) (*models.AchievementSyncResult, error) {
	existing.Content = content
	if ref.CourseID != nil {
		existing.CourseID = ref.CourseID
	}
	if ref.CourseName != nil {
		existing.CourseName = ref.CourseName
	}
	if err := s.records.UpdateAchievement(ctx, existing); err != nil {
		return nil, err
	}
	return &models.AchievementSyncResult{Action: models.SyncUpdated, Record: existing}, nil
}

// SyncOutcomeForCourse keeps one outcome per student and course. An empty description is a no-op;
// dates left out of an update keep their stored values.
func (s *learningServiceImpl) SyncOutcomeForCourse(ctx context.Context, studentID string, course CourseSelector, description string, startDate, endDate *string) (*models.OutcomeSyncResult, error) {
	description = strings.TrimSpace(description)
	if err := checkLength("description", description, validation.RecordTextMaxLength); err != nil {
		return nil, err
	}
	start, end, err := parseDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	ref, err := s.resolveCourse(ctx, ids, course, true)
	if err != nil {
		return nil, err
	}
	if description == "" {
		return &models.OutcomeSyncResult{Action: models.SyncSkipped}, nil
	}

	existing, err := s.records.FindOutcome(ctx, ids, ref)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.updateOutcome(ctx, existing, ref, description, start, end)
	}

	o := &models.LearningOutcome{
		StudentID:          profile.ID,
		OutcomeDescription: description,
		StartDate:          start,
		EndDate:            end,
		CourseName:         ref.CourseName,
		CourseID:           ref.CourseID,
	}
	if ref.CourseName != nil {
		o.OutcomeTitle = *ref.CourseName
	}
	if err := s.records.CreateOutcome(ctx, o); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		existing, err := s.records.FindOutcome(ctx, ids, ref)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("outcome conflicted but could not be re-read: %w", apperrors.ErrOutcomeExists)
		}
		return s.updateOutcome(ctx, existing, ref, description, start, end)
	}
	return &models.OutcomeSyncResult{Action: models.SyncCreated, Record: o}, nil
}

// updateOutcome applies a sync to the stored outcome; dates left out keep their stored values
func (s *learningServiceImpl) updateOutcome(ctx context.Context, existing *models.LearningOutcome, ref models.CourseRef, description string, start, end *time.Time) (*models.OutcomeSyncResult, error) {
	existing.OutcomeDescription = description
	if start != nil {
		existing.StartDate = start
	}
	if end != nil {
		existing.EndDate = end
	}
	if existing.StartDate != nil && existing.EndDate != nil && existing.EndDate.Before(*existing.StartDate) {
		return nil, apperrors.NewValidationError("end_date cannot be before start_date")
	}
	if ref.CourseID != nil {
		existing.CourseID = ref.CourseID
	}
	if ref.CourseName != nil {
		existing.CourseName = ref.CourseName
	}
	if err := s.records.UpdateOutcome(ctx, existing); err != nil {
		return nil, err
	}
	return &models.OutcomeSyncResult{Action: models.SyncUpdated, Record: existing}, nil
}

type studentRecords struct {
	tags         []models.TechnicalTag
	achievements []models.LearningAchievement
	outcomes     []models.LearningOutcome
}

func (s *learningServiceImpl) loadRecords(ctx context.Context, ids []uuid.UUID) (*studentRecords, error) {
	tags, err := s.records.ListTags(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing technical tags: %w", err)
	}
	achievements, err := s.records.ListAchievements(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing learning achievements: %w", err)
	}
	outcomes, err := s.records.ListOutcomes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing learning outcomes: %w", err)
	}
	return &studentRecords{tags: tags, achievements: achievements, outcomes: outcomes}, nil
}

// GetSummary returns everything the student has recorded. Nothing recorded yields empty lists.
func (s *learningServiceImpl) GetSummary(ctx context.Context, studentProfileID string) (*models.LearningSummary, error) {
	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentProfileID)
	if err != nil {
		return nil, err
	}
	recs, err := s.loadRecords(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &models.LearningSummary{
		StudentInfo:          profile,
		TechnicalTags:        nonNil(recs.tags),
		LearningAchievements: nonNil(recs.achievements),
		LearningOutcomes:     nonNil(recs.outcomes),
	}, nil
}

// GetCourseRecords groups the student's records under the assigned courses they belong to
func (s *learningServiceImpl) GetCourseRecords(ctx context.Context, studentID string) (*models.CourseRecords, error) {
	profile, ids, err := resolveStudent(ctx, s.profileService, s.authzService, studentID)
	if err != nil {
		return nil, err
	}
	courses, err := s.assignments.ListCoursesForStudent(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error listing courses for student: %w", err)
	}
	recs, err := s.loadRecords(ctx, ids)
	if err != nil {
		return nil, err
	}
	return groupByCourse(profile, courses, recs), nil
}

func groupByCourse(profile *models.StudentProfile, courses []models.CourseWithProgress, recs *studentRecords) *models.CourseRecords {
	out := &models.CourseRecords{
		StudentInfo: profile,
		Courses:     make([]models.CourseRecordGroup, len(courses)),
		Unassigned: models.UnassignedRecords{
			Tags:         []models.TechnicalTag{},
			Achievements: []models.LearningAchievement{},
			Outcomes:     []models.LearningOutcome{},
		},
	}

	byID := make(map[uuid.UUID]int, len(courses))
	names := make([]string, len(courses))
	for i, c := range courses {
		out.Courses[i] = models.CourseRecordGroup{
			Course:       c,
			Tags:         []models.TechnicalTag{},
			Achievements: []models.LearningAchievement{},
			Outcomes:     []models.LearningOutcome{},
		}
		byID[c.ID] = i
		names[i] = c.CourseName
	}

	locate := func(courseID *uuid.UUID, courseName *string) int {
		if courseID != nil {
			if i, ok := byID[*courseID]; ok {
				return i
			}
		}
		if courseName == nil {
			return -1
		}
		for i, c := range courses {
			if coursename.Equal(c.CourseName, *courseName) || coursename.Equal(c.CourseNumber, *courseName) {
				return i
			}
		}
		return coursename.Match(*courseName, names)
	}

	for _, t := range recs.tags {
		if i := locate(t.CourseID, t.CourseName); i >= 0 {
			out.Courses[i].Tags = append(out.Courses[i].Tags, t)
		} else {
			out.Unassigned.Tags = append(out.Unassigned.Tags, t)
		}
	}
	for _, a := range recs.achievements {
		if i := locate(a.CourseID, a.CourseName); i >= 0 {
			out.Courses[i].Achievements = append(out.Courses[i].Achievements, a)
		} else {
			out.Unassigned.Achievements = append(out.Unassigned.Achievements, a)
		}
	}
	for _, o := range recs.outcomes {
		if i := locate(o.CourseID, o.CourseName); i >= 0 {
			out.Courses[i].Outcomes = append(out.Courses[i].Outcomes, o)
		} else {
			out.Unassigned.Outcomes = append(out.Unassigned.Outcomes, o)
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
