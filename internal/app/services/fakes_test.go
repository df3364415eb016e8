package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
)

// memDB is an in-memory stand-in for the Postgres schema. The store views below share it and
// return copies, so services see the same aliasing they would against the database.
type memDB struct {
	mu sync.Mutex

	users        map[uuid.UUID]models.User
	profiles     map[uuid.UUID]models.StudentProfile
	programs     map[uuid.UUID]models.TrainingProgram
	courses      map[uuid.UUID]models.ProgramCourse
	batches      []models.ImportBatch
	assignments  map[uuid.UUID]models.Assignment
	progress     map[uuid.UUID]models.CourseProgress
	tags         []models.TechnicalTag
	achievements []models.LearningAchievement
	outcomes     []models.LearningOutcome
	jobs         map[uuid.UUID]models.AnalysisJob
	jobOrder     []uuid.UUID

	failCourseNumbers map[string]bool
	failAssign        map[uuid.UUID]error
	clock             time.Time

	// beforeRecordInsert runs under the lock just before a learning record is inserted
	beforeRecordInsert func(db *memDB)
}

func newMemDB() *memDB {
	return &memDB{
		users:             map[uuid.UUID]models.User{},
		profiles:          map[uuid.UUID]models.StudentProfile{},
		programs:          map[uuid.UUID]models.TrainingProgram{},
		courses:           map[uuid.UUID]models.ProgramCourse{},
		assignments:       map[uuid.UUID]models.Assignment{},
		progress:          map[uuid.UUID]models.CourseProgress{},
		jobs:              map[uuid.UUID]models.AnalysisJob{},
		failCourseNumbers: map[string]bool{},
		failAssign:        map[uuid.UUID]error{},
		clock:             time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC),
	}
}

// now advances a fake clock so updated_at ordering is deterministic
func (db *memDB) now() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func indexOfID(ids []uuid.UUID, id uuid.UUID) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return len(ids)
}

// --- users ---

type memUsers struct{ db *memDB }

func (s memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("user not found")
	}
	return &u, nil
}

// --- profiles ---

type memProfiles struct{ db *memDB }

func (s memProfiles) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.StudentProfile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.StudentProfile{}
	for _, p := range s.db.profiles {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsCanonical() != out[j].IsCanonical() {
			return out[i].IsCanonical()
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s memProfiles) ListAliases(ctx context.Context, canonicalID uuid.UUID) ([]models.StudentProfile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.StudentProfile{}
	for _, p := range s.db.profiles {
		if p.MergedIntoID != nil && *p.MergedIntoID == canonicalID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s memProfiles) GetByID(ctx context.Context, id uuid.UUID) (*models.StudentProfile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.profiles[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return &p, nil
}

func (s memProfiles) CreateCanonical(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[userID]; !ok {
		return false, apperrors.ErrStudentNotFound
	}
	for _, p := range s.db.profiles {
		if p.UserID == userID && p.IsCanonical() {
			return false, nil
		}
	}
	now := s.db.now()
	p := models.StudentProfile{ID: uuid.New(), UserID: userID, Status: "active", CreatedAt: now, UpdatedAt: now}
	s.db.profiles[p.ID] = p
	return true, nil
}

// --- programs ---

type memPrograms struct{ db *memDB }

func (s memPrograms) ListWithCourseCount(ctx context.Context) ([]models.ProgramWithCourseCount, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.ProgramWithCourseCount{}
	for _, p := range s.db.programs {
		n := 0
		for _, c := range s.db.courses {
			if c.ProgramID == p.ID && c.Status == models.StatusActive {
				n++
			}
		}
		out = append(out, models.ProgramWithCourseCount{TrainingProgram: p, CourseCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramCode < out[j].ProgramCode })
	return out, nil
}

func (s memPrograms) GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingProgram, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.programs[id]
	if !ok {
		return nil, apperrors.ErrProgramNotFound
	}
	return &p, nil
}

func (s memPrograms) GetByCode(ctx context.Context, code string) (*models.TrainingProgram, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.programs {
		if p.ProgramCode == code {
			return &p, nil
		}
	}
	return nil, apperrors.ErrProgramNotFound
}

func (s memPrograms) EnsureByCode(ctx context.Context, program *models.TrainingProgram) (*models.TrainingProgram, bool, error) {
	if existing, err := s.GetByCode(ctx, program.ProgramCode); err == nil {
		return existing, false, nil
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := s.db.now()
	p := *program
	p.ID = uuid.New()
	p.Status = models.StatusActive
	p.CreatedAt, p.UpdatedAt = now, now
	s.db.programs[p.ID] = p
	return &p, true, nil
}

func (s memPrograms) SetStatus(ctx context.Context, id uuid.UUID, status models.RecordStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.programs[id]
	if !ok {
		return apperrors.ErrProgramNotFound
	}
	p.Status = status
	s.db.programs[id] = p
	return nil
}

func (s memPrograms) ListCourses(ctx context.Context, programID uuid.UUID, activeOnly bool) ([]models.ProgramCourse, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.coursesOf(programID, activeOnly), nil
}

func (db *memDB) coursesOf(programID uuid.UUID, activeOnly bool) []models.ProgramCourse {
	out := []models.ProgramCourse{}
	for _, c := range db.courses {
		if c.ProgramID == programID && (!activeOnly || c.Status == models.StatusActive) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SequenceOrder != out[j].SequenceOrder {
			return out[i].SequenceOrder < out[j].SequenceOrder
		}
		return out[i].CourseNumber < out[j].CourseNumber
	})
	return out
}

func (s memPrograms) UpsertCourse(ctx context.Context, c *models.ProgramCourse) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failCourseNumbers[c.CourseNumber] {
		return errors.New("connection reset by peer")
	}
	now := s.db.now()
	for id, existing := range s.db.courses {
		if existing.ProgramID == c.ProgramID && existing.CourseNumber == c.CourseNumber {
			c.ID, c.CreatedAt, c.UpdatedAt = id, existing.CreatedAt, now
			s.db.courses[id] = *c
			return nil
		}
	}
	c.ID, c.CreatedAt, c.UpdatedAt = uuid.New(), now, now
	s.db.courses[c.ID] = *c
	return nil
}

func (s memPrograms) RetireCoursesExcept(ctx context.Context, programID uuid.UUID, keep []string) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	kept := make(map[string]bool, len(keep))
	for _, n := range keep {
		kept[n] = true
	}
	var n int64
	for id, c := range s.db.courses {
		if c.ProgramID == programID && c.Status == models.StatusActive && !kept[c.CourseNumber] {
			c.Status = models.StatusInactive
			s.db.courses[id] = c
			n++
		}
	}
	return n, nil
}

func (s memPrograms) RecalculateTotalCredits(ctx context.Context, programID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p := s.db.programs[programID]
	p.TotalCredits = 0
	for _, c := range s.db.coursesOf(programID, true) {
		p.TotalCredits += c.Credits
	}
	s.db.programs[programID] = p
	return nil
}

func (s memPrograms) CreateImportBatch(ctx context.Context, b *models.ImportBatch) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b.ID, b.CreatedAt = uuid.New(), s.db.now()
	s.db.batches = append(s.db.batches, *b)
	return nil
}

// --- assignments ---

type memAssignments struct{ db *memDB }

func (s memAssignments) Assign(ctx context.Context, a *models.Assignment) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.failAssign[a.StudentID]; err != nil {
		return 0, err
	}
	if _, ok := s.db.profiles[a.StudentID]; !ok {
		return 0, apperrors.NewResourceNotFoundError("student or training program no longer exists")
	}
	if _, ok := s.db.programs[a.ProgramID]; !ok {
		return 0, apperrors.NewResourceNotFoundError("student or training program no longer exists")
	}

	now := s.db.now()
	var stored *models.Assignment
	for id, existing := range s.db.assignments {
		if existing.StudentID == a.StudentID && existing.ProgramID == a.ProgramID {
			existing.Status = models.AssignmentActive
			existing.EnrollmentDate = now
			if a.Notes != nil {
				existing.Notes = a.Notes
			}
			if a.TeacherID != nil {
				existing.TeacherID = a.TeacherID
			}
			existing.UpdatedAt = now
			s.db.assignments[id] = existing
			stored = &existing
			break
		}
	}
	if stored == nil {
		n := *a
		n.ID, n.Status, n.EnrollmentDate, n.CreatedAt, n.UpdatedAt = uuid.New(), models.AssignmentActive, now, now, now
		s.db.assignments[n.ID] = n
		stored = &n
	}
	*a = *stored

	var created int64
	for _, c := range s.db.coursesOf(a.ProgramID, true) {
		exists := false
		for _, p := range s.db.progress {
			if p.StudentID == a.StudentID && p.CourseID == c.ID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		p := models.CourseProgress{ID: uuid.New(), StudentID: a.StudentID, CourseID: c.ID, Status: models.ProgressNotStarted, CreatedAt: now, UpdatedAt: now}
		s.db.progress[p.ID] = p
		created++
	}
	return created, nil
}

func (s memAssignments) ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]models.AssignmentWithProgram, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.AssignmentWithProgram{}
	for _, a := range s.db.assignments {
		if containsID(studentIDs, a.StudentID) {
			p := s.db.programs[a.ProgramID]
			out = append(out, models.AssignmentWithProgram{Assignment: a, ProgramCode: p.ProgramCode, ProgramName: p.ProgramName})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramCode < out[j].ProgramCode })
	return out, nil
}

func (s memAssignments) Withdraw(ctx context.Context, studentIDs []uuid.UUID, programID uuid.UUID) (*models.Assignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var withdrawn *models.Assignment
	for id, a := range s.db.assignments {
		a := a
		if containsID(studentIDs, a.StudentID) && a.ProgramID == programID && a.Status == models.AssignmentActive {
			a.Status = models.AssignmentWithdrawn
			s.db.assignments[id] = a
			if withdrawn == nil {
				withdrawn = &a
			}
		}
	}
	if withdrawn == nil {
		return nil, apperrors.ErrAssignmentMissing
	}
	return withdrawn, nil
}

func (s memAssignments) ListCoursesForStudent(ctx context.Context, studentIDs []uuid.UUID) ([]models.CourseWithProgress, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	type row struct {
		models.CourseWithProgress
		rank int
	}
	rows := []row{}
	for _, a := range s.db.assignments {
		if !containsID(studentIDs, a.StudentID) || a.Status != models.AssignmentActive {
			continue
		}
		p := s.db.programs[a.ProgramID]
		for _, c := range s.db.coursesOf(a.ProgramID, true) {
			cw := models.CourseWithProgress{ProgramCourse: c, ProgramCode: p.ProgramCode, ProgramName: p.ProgramName, ProgressStatus: models.ProgressNotStarted}
			for _, pr := range s.db.progress {
				if pr.StudentID == a.StudentID && pr.CourseID == c.ID {
					id := pr.ID
					cw.ProgressID, cw.ProgressStatus, cw.Grade, cw.GradePoint = &id, pr.Status, pr.Grade, pr.GradePoint
					cw.SemesterCompleted, cw.Teacher, cw.ProgressNotes = pr.SemesterCompleted, pr.Teacher, pr.Notes
				}
			}
			rows = append(rows, row{CourseWithProgress: cw, rank: indexOfID(studentIDs, a.StudentID)})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ProgramCode != b.ProgramCode {
			return a.ProgramCode < b.ProgramCode
		}
		if a.SequenceOrder != b.SequenceOrder {
			return a.SequenceOrder < b.SequenceOrder
		}
		if a.CourseNumber != b.CourseNumber {
			return a.CourseNumber < b.CourseNumber
		}
		return a.rank < b.rank
	})

	out := []models.CourseWithProgress{}
	seen := map[uuid.UUID]bool{}
	for _, r := range rows {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r.CourseWithProgress)
	}
	return out, nil
}

// --- progress ---

type memProgress struct{ db *memDB }

func (s memProgress) Get(ctx context.Context, studentIDs []uuid.UUID, courseID uuid.UUID) (*models.CourseProgress, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var best *models.CourseProgress
	for _, p := range s.db.progress {
		if p.CourseID != courseID || !containsID(studentIDs, p.StudentID) {
			continue
		}
		if best == nil || indexOfID(studentIDs, p.StudentID) < indexOfID(studentIDs, best.StudentID) {
			p := p
			best = &p
		}
	}
	if best == nil {
		return nil, apperrors.ErrProgressNotFound
	}
	return best, nil
}

func (s memProgress) ListByStudents(ctx context.Context, studentIDs []uuid.UUID) ([]models.CourseProgress, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.CourseProgress{}
	for _, p := range s.db.progress {
		if containsID(studentIDs, p.StudentID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s memProgress) Update(ctx context.Context, p *models.CourseProgress) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.progress[p.ID]; !ok {
		return apperrors.ErrProgressNotFound
	}
	p.UpdatedAt = s.db.now()
	s.db.progress[p.ID] = *p
	return nil
}

// --- learning records ---

// matchRef mirrors the repository's course matching rule
func matchRef(courseID *uuid.UUID, courseName *string, ref models.CourseRef) bool {
	switch {
	case ref.CourseID != nil && ref.CourseName != nil:
		return (courseID != nil && *courseID == *ref.CourseID) ||
			(courseID == nil && courseName != nil && *courseName == *ref.CourseName)
	case ref.CourseID != nil:
		return courseID != nil && *courseID == *ref.CourseID
	case ref.CourseName != nil:
		return courseName != nil && *courseName == *ref.CourseName
	default:
		return courseID == nil && courseName == nil
	}
}

// sameCourseKey mirrors the per-course unique indexes on the learning record tables
func sameCourseKey(aID *uuid.UUID, aName *string, bID *uuid.UUID, bName *string) bool {
	switch {
	case aID != nil:
		return bID != nil && *aID == *bID
	case aName != nil:
		return bID == nil && bName != nil && *aName == *bName
	}
	return false
}

func (db *memDB) runBeforeRecordInsert() {
	if hook := db.beforeRecordInsert; hook != nil {
		db.beforeRecordInsert = nil
		hook(db)
	}
}

type memRecords struct{ db *memDB }

func (s memRecords) CreateTag(ctx context.Context, t *models.TechnicalTag) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.runBeforeRecordInsert()
	for _, x := range s.db.tags {
		noCourse := t.CourseID == nil && t.CourseName == nil && x.CourseID == nil && x.CourseName == nil
		if x.StudentID == t.StudentID && x.Status == models.TagActive && strings.EqualFold(x.TagName, t.TagName) &&
			(noCourse || sameCourseKey(t.CourseID, t.CourseName, x.CourseID, x.CourseName)) {
			return apperrors.ErrTagAlreadyExists
		}
	}
	now := s.db.now()
	t.ID, t.Status, t.CreatedAt, t.UpdatedAt = uuid.New(), models.TagActive, now, now
	s.db.tags = append(s.db.tags, *t)
	return nil
}

func (s memRecords) FindActiveTag(ctx context.Context, studentIDs []uuid.UUID, name string, ref *models.CourseRef) (*models.TechnicalTag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tags {
		if containsID(studentIDs, t.StudentID) && t.Status == models.TagActive && strings.EqualFold(t.TagName, name) &&
			(ref == nil || matchRef(t.CourseID, t.CourseName, *ref)) {
			return &t, nil
		}
	}
	return nil, nil
}

func (s memRecords) ListTags(ctx context.Context, studentIDs []uuid.UUID) ([]models.TechnicalTag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.TechnicalTag{}
	for _, t := range s.db.tags {
		if containsID(studentIDs, t.StudentID) && t.Status == models.TagActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s memRecords) CreateAchievement(ctx context.Context, a *models.LearningAchievement) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.runBeforeRecordInsert()
	for _, x := range s.db.achievements {
		if x.StudentID == a.StudentID && sameCourseKey(a.CourseID, a.CourseName, x.CourseID, x.CourseName) {
			return apperrors.ErrAchievementExists
		}
	}
	now := s.db.now()
	a.ID, a.CreatedAt, a.UpdatedAt = uuid.New(), now, now
	s.db.achievements = append(s.db.achievements, *a)
	return nil
}

func (s memRecords) FindAchievement(ctx context.Context, studentIDs []uuid.UUID, ref models.CourseRef) (*models.LearningAchievement, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.achievements {
		if containsID(studentIDs, a.StudentID) && matchRef(a.CourseID, a.CourseName, ref) {
			return &a, nil
		}
	}
	return nil, nil
}

func (s memRecords) UpdateAchievement(ctx context.Context, a *models.LearningAchievement) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.achievements {
		if s.db.achievements[i].ID == a.ID {
			a.UpdatedAt = s.db.now()
			s.db.achievements[i] = *a
			return nil
		}
	}
	return apperrors.NewResourceNotFoundError("learning achievement not found")
}

func (s memRecords) ListAchievements(ctx context.Context, studentIDs []uuid.UUID) ([]models.LearningAchievement, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.LearningAchievement{}
	for _, a := range s.db.achievements {
		if containsID(studentIDs, a.StudentID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s memRecords) CreateOutcome(ctx context.Context, o *models.LearningOutcome) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.runBeforeRecordInsert()
	for _, x := range s.db.outcomes {
		if x.StudentID == o.StudentID && sameCourseKey(o.CourseID, o.CourseName, x.CourseID, x.CourseName) {
			return apperrors.ErrOutcomeExists
		}
	}
	now := s.db.now()
	o.ID, o.CreatedAt, o.UpdatedAt = uuid.New(), now, now
	s.db.outcomes = append(s.db.outcomes, *o)
	return nil
}

func (s memRecords) FindOutcome(ctx context.Context, studentIDs []uuid.UUID, ref models.CourseRef) (*models.LearningOutcome, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, o := range s.db.outcomes {
		if containsID(studentIDs, o.StudentID) && matchRef(o.CourseID, o.CourseName, ref) {
			return &o, nil
		}
	}
	return nil, nil
}

func (s memRecords) UpdateOutcome(ctx context.Context, o *models.LearningOutcome) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for i := range s.db.outcomes {
		if s.db.outcomes[i].ID == o.ID {
			o.UpdatedAt = s.db.now()
			s.db.outcomes[i] = *o
			return nil
		}
	}
	return apperrors.NewResourceNotFoundError("learning outcome not found")
}

func (s memRecords) ListOutcomes(ctx context.Context, studentIDs []uuid.UUID) ([]models.LearningOutcome, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []models.LearningOutcome{}
	for _, o := range s.db.outcomes {
		if containsID(studentIDs, o.StudentID) {
			out = append(out, o)
		}
	}
	return out, nil
}

// --- analysis jobs ---

type memJobs struct{ db *memDB }

func (s memJobs) Create(ctx context.Context, j *models.AnalysisJob) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	j.ID, j.Status, j.CreatedAt = uuid.New(), models.JobQueued, s.db.now()
	s.db.jobs[j.ID] = *j
	s.db.jobOrder = append(s.db.jobOrder, j.ID)
	return nil
}

func (s memJobs) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	j, ok := s.db.jobs[id]
	if !ok {
		return nil, apperrors.ErrJobNotFound
	}
	return &j, nil
}

func (s memJobs) ClaimNext(ctx context.Context) (*models.AnalysisJob, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, id := range s.db.jobOrder {
		j := s.db.jobs[id]
		if j.Status != models.JobQueued {
			continue
		}
		now := s.db.now()
		j.Status, j.StartedAt = models.JobRunning, &now
		j.Attempts++
		s.db.jobs[id] = j
		return &j, nil
	}
	return nil, nil
}

func (s memJobs) finish(id uuid.UUID, fn func(j *models.AnalysisJob)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	j, ok := s.db.jobs[id]
	if !ok || j.Status != models.JobRunning {
		return apperrors.ErrJobNotFound
	}
	now := s.db.now()
	j.FinishedAt = &now
	fn(&j)
	s.db.jobs[id] = j
	return nil
}

func (s memJobs) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	return s.finish(id, func(j *models.AnalysisJob) {
		j.Status, j.Result = models.JobSucceeded, result
	})
}

func (s memJobs) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return s.finish(id, func(j *models.AnalysisJob) {
		j.Status, j.Error = models.JobFailed, &reason
	})
}

func (s memJobs) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var n int64
	for id, j := range s.db.jobs {
		if j.Status == models.JobRunning && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
			reason := "analysis timed out"
			j.Status, j.Error = models.JobFailed, &reason
			s.db.jobs[id] = j
			n++
		}
	}
	return n, nil
}

func (s memJobs) CountQueued(ctx context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, j := range s.db.jobs {
		if j.Status == models.JobQueued {
			n++
		}
	}
	return n, nil
}

// fakePoster records payloads and replies with a canned result or error
type fakePoster struct {
	mu         sync.Mutex
	configured bool
	result     json.RawMessage
	err        error
	payloads   []AnalysisPayload
}

func (p *fakePoster) Configured() bool { return p.configured }

func (p *fakePoster) Post(ctx context.Context, payload any) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ap, ok := payload.(AnalysisPayload)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", payload)
	}
	p.payloads = append(p.payloads, ap)
	return p.result, p.err
}
