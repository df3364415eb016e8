package models

import (
	"time"

	"github.com/google/uuid"
)

// TrainingProgram is a named curriculum identified by its program code
type TrainingProgram struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	ProgramCode  string       `json:"program_code" db:"program_code" example:"CS_2024"`
	ProgramName  string       `json:"program_name" db:"program_name"`
	Department   string       `json:"department" db:"department"`
	TotalCredits float64      `json:"total_credits" db:"total_credits"`
	Status       RecordStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// ProgramWithCourseCount annotates a program with its number of active courses
type ProgramWithCourseCount struct {
	TrainingProgram
	CourseCount int `json:"course_count"`
}

// ProgramCourse is one course of a training program
type ProgramCourse struct {
	ID                  uuid.UUID    `json:"id" db:"id"`
	ProgramID           uuid.UUID    `json:"program_id" db:"program_id"`
	CourseNumber        string       `json:"course_number" db:"course_number" example:"CS101"`
	CourseName          string       `json:"course_name" db:"course_name"`
	Credits             float64      `json:"credits" db:"credits"`
	RecommendedGrade    string       `json:"recommended_grade" db:"recommended_grade"`
	RecommendedSemester string       `json:"recommended_semester" db:"recommended_semester"`
	ExamMethod          string       `json:"exam_method" db:"exam_method"`
	CourseNature        string       `json:"course_nature" db:"course_nature"`
	CourseType          string       `json:"course_type" db:"course_type"`
	SequenceOrder       int          `json:"sequence_order" db:"sequence_order"`
	Status              RecordStatus `json:"status" db:"status"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}

// ImportRowError describes one course row that could not be imported
type ImportRowError struct {
	Row          int    `json:"row"`
	CourseNumber string `json:"course_number,omitempty"`
	Error        string `json:"error"`
}

// ImportResult is the aggregate outcome of a course import
type ImportResult struct {
	ProgramID uuid.UUID        `json:"program_id"`
	BatchID   uuid.UUID        `json:"batch_id"`
	Success   int              `json:"success"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Retired   int              `json:"retired"`
	Errors    []ImportRowError `json:"errors"`
}

// ImportBatch is the audit row written for every import
type ImportBatch struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	ProgramID    uuid.UUID        `json:"program_id" db:"program_id"`
	BatchName    string           `json:"batch_name" db:"batch_name"`
	ImportedBy   *uuid.UUID       `json:"imported_by,omitempty" db:"imported_by"`
	SuccessCount int              `json:"success_count" db:"success_count"`
	FailedCount  int              `json:"failed_count" db:"failed_count"`
	Errors       []ImportRowError `json:"errors" db:"errors"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}
