package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressStatus is the completion state of one course for one student
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not_started"
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
)

var progressTransitions = map[ProgressStatus][]ProgressStatus{
	ProgressNotStarted: {ProgressInProgress, ProgressCompleted},
	ProgressInProgress: {ProgressCompleted},
}

// Valid reports whether s is a known status
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressNotStarted, ProgressInProgress, ProgressCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next follows the forward state machine.
// Staying in the same state is always allowed.
func (s ProgressStatus) CanTransitionTo(next ProgressStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range progressTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CourseProgress is a student's state for one course
type CourseProgress struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	StudentID         uuid.UUID      `json:"student_id" db:"student_id"`
	CourseID          uuid.UUID      `json:"course_id" db:"course_id"`
	Status            ProgressStatus `json:"status" db:"status"`
	Grade             *string        `json:"grade,omitempty" db:"grade"`
	GradePoint        *float64       `json:"grade_point,omitempty" db:"grade_point"`
	SemesterCompleted *string        `json:"semester_completed,omitempty" db:"semester_completed"`
	Teacher           *string        `json:"teacher,omitempty" db:"teacher"`
	Notes             *string        `json:"notes,omitempty" db:"notes"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// ProgressUpdate carries the fields of a partial progress update; nil means unchanged
type ProgressUpdate struct {
	Status            *ProgressStatus
	Grade             *string
	GradePoint        *float64
	SemesterCompleted *string
	Teacher           *string
	Notes             *string
}

// Apply copies the set fields of u onto p. Empty notes clear the stored notes.
func (u ProgressUpdate) Apply(p *CourseProgress) {
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Grade != nil {
		p.Grade = u.Grade
	}
	if u.GradePoint != nil {
		p.GradePoint = u.GradePoint
	}
	if u.SemesterCompleted != nil {
		p.SemesterCompleted = u.SemesterCompleted
	}
	if u.Teacher != nil {
		p.Teacher = u.Teacher
	}
	if u.Notes != nil {
		if *u.Notes == "" {
			p.Notes = nil
		} else {
			p.Notes = u.Notes
		}
	}
}

// IsEmpty reports whether the update changes nothing
func (u ProgressUpdate) IsEmpty() bool {
	return u.Status == nil && u.Grade == nil && u.GradePoint == nil &&
		u.SemesterCompleted == nil && u.Teacher == nil && u.Notes == nil
}
