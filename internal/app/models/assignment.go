package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment links a student profile to a training program
type Assignment struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	StudentID      uuid.UUID        `json:"student_id" db:"student_id"`
	ProgramID      uuid.UUID        `json:"program_id" db:"program_id"`
	TeacherID      *uuid.UUID       `json:"teacher_id,omitempty" db:"teacher_id"`
	EnrollmentDate time.Time        `json:"enrollment_date" db:"enrollment_date"`
	Status         AssignmentStatus `json:"status" db:"status"`
	Notes          *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// AssignmentWithProgram is an assignment joined with its program for listings
type AssignmentWithProgram struct {
	Assignment
	ProgramCode string `json:"program_code"`
	ProgramName string `json:"program_name"`
}

// CourseWithProgress is a course of an assigned program together with the student's progress on it.
// A course without a progress row reads as not_started.
type CourseWithProgress struct {
	ProgramCourse
	ProgramCode       string         `json:"program_code"`
	ProgramName       string         `json:"program_name"`
	ProgressID        *uuid.UUID     `json:"progress_id,omitempty"`
	ProgressStatus    ProgressStatus `json:"status"`
	Grade             *string        `json:"grade,omitempty"`
	GradePoint        *float64       `json:"grade_point,omitempty"`
	SemesterCompleted *string        `json:"semester_completed,omitempty"`
	Teacher           *string        `json:"teacher,omitempty"`
	ProgressNotes     *string        `json:"notes,omitempty"`
}
