package models

import (
	"time"

	"github.com/google/uuid"
)

// CourseRef identifies the course a learning record belongs to.
// CourseID is authoritative when set; CourseName is kept as a display label.
type CourseRef struct {
	CourseID   *uuid.UUID `json:"course_id,omitempty"`
	CourseName *string    `json:"course_name,omitempty"`
}

// TechnicalTag is a self-reported skill
type TechnicalTag struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	StudentID        uuid.UUID  `json:"student_id" db:"student_id"`
	TagName          string     `json:"tag_name" db:"tag_name"`
	TagCategory      string     `json:"tag_category" db:"tag_category"`
	ProficiencyLevel string     `json:"proficiency_level" db:"proficiency_level"`
	Description      *string    `json:"description,omitempty" db:"description"`
	CourseName       *string    `json:"course_name,omitempty" db:"course_name"`
	CourseID         *uuid.UUID `json:"course_id,omitempty" db:"course_id"`
	Status           TagStatus  `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// LearningAchievement is a free-text account of what a student achieved
type LearningAchievement struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	StudentID       uuid.UUID  `json:"student_id" db:"student_id"`
	Title           string     `json:"title" db:"title"`
	Content         string     `json:"content" db:"content"`
	AchievementType string     `json:"achievement_type" db:"achievement_type"`
	AchievementDate *time.Time `json:"achievement_date,omitempty" db:"achievement_date"`
	CourseName      *string    `json:"course_name,omitempty" db:"course_name"`
	CourseID        *uuid.UUID `json:"course_id,omitempty" db:"course_id"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// LearningOutcome is a dated learning outcome
type LearningOutcome struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	StudentID          uuid.UUID  `json:"student_id" db:"student_id"`
	OutcomeTitle       string     `json:"outcome_title" db:"outcome_title"`
	OutcomeDescription string     `json:"outcome_description" db:"outcome_description"`
	StartDate          *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate            *time.Time `json:"end_date,omitempty" db:"end_date"`
	CourseName         *string    `json:"course_name,omitempty" db:"course_name"`
	CourseID           *uuid.UUID `json:"course_id,omitempty" db:"course_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// SyncAction reports what a sync call did to a record
type SyncAction string

const (
	SyncCreated  SyncAction = "created"
	SyncExisting SyncAction = "existing"
	SyncUpdated  SyncAction = "updated"
	SyncSkipped  SyncAction = "skipped"
)

// TagSyncResult is the per-name outcome of a tag sync
type TagSyncResult struct {
	Action SyncAction    `json:"action"`
	Tag    *TechnicalTag `json:"tag"`
}

// AchievementSyncResult is the outcome of an achievement sync
type AchievementSyncResult struct {
	Action SyncAction           `json:"action"`
	Record *LearningAchievement `json:"record,omitempty"`
}

// OutcomeSyncResult is the outcome of an outcome sync
type OutcomeSyncResult struct {
	Action SyncAction       `json:"action"`
	Record *LearningOutcome `json:"record,omitempty"`
}

// LearningSummary is everything a student has recorded
type LearningSummary struct {
	StudentInfo          *StudentProfile       `json:"student_info"`
	TechnicalTags        []TechnicalTag        `json:"technical_tags"`
	LearningAchievements []LearningAchievement `json:"learning_achievements"`
	LearningOutcomes     []LearningOutcome     `json:"learning_outcomes"`
}

// CourseRecordGroup is one course with the records attached to it
type CourseRecordGroup struct {
	Course       CourseWithProgress    `json:"course"`
	Tags         []TechnicalTag        `json:"technical_tags"`
	Achievements []LearningAchievement `json:"learning_achievements"`
	Outcomes     []LearningOutcome     `json:"learning_outcomes"`
}

// UnassignedRecords holds records that matched no assigned course
type UnassignedRecords struct {
	Tags         []TechnicalTag        `json:"technical_tags"`
	Achievements []LearningAchievement `json:"learning_achievements"`
	Outcomes     []LearningOutcome     `json:"learning_outcomes"`
}

// CourseRecords is the per-course export view of a student's records
type CourseRecords struct {
	StudentInfo *StudentProfile     `json:"student_info"`
	Courses     []CourseRecordGroup `json:"courses"`
	Unassigned  UnassignedRecords   `json:"unassigned"`
}
