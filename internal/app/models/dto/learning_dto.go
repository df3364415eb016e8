package dto

// AddTechnicalTagRequest records one technical tag
type AddTechnicalTagRequest struct {
	StudentID        string  `json:"studentId" binding:"required"`
	TagName          string  `json:"tagName" binding:"required" example:"Go"`
	TagCategory      string  `json:"tagCategory,omitempty" example:"language"`
	ProficiencyLevel string  `json:"proficiencyLevel,omitempty" example:"intermediate"`
	Description      *string `json:"description,omitempty"`
	CourseName       *string `json:"courseName,omitempty" example:"CS101"`
	CourseID         *string `json:"courseId,omitempty"`
}

// AddLearningAchievementRequest records one learning achievement
type AddLearningAchievementRequest struct {
	StudentID       string  `json:"studentId" binding:"required"`
	Title           string  `json:"title,omitempty"`
	Content         string  `json:"content" binding:"required"`
	AchievementType string  `json:"achievementType,omitempty" example:"course"`
	AchievementDate *string `json:"achievementDate,omitempty" example:"2024-12-20"`
	CourseName      *string `json:"courseName,omitempty"`
	CourseID        *string `json:"courseId,omitempty"`
}

// AddLearningOutcomeRequest records one learning outcome
type AddLearningOutcomeRequest struct {
	StudentID          string  `json:"studentId" binding:"required"`
	OutcomeTitle       string  `json:"outcomeTitle,omitempty"`
	OutcomeDescription string  `json:"outcomeDescription" binding:"required"`
	StartDate          *string `json:"startDate,omitempty" example:"2024-09-01"`
	EndDate            *string `json:"endDate,omitempty" example:"2025-01-15"`
	CourseName         *string `json:"courseName,omitempty"`
	CourseID           *string `json:"courseId,omitempty"`
}

// SyncTechnicalTagsRequest makes the student's tags for a course include TagNames
type SyncTechnicalTagsRequest struct {
	StudentID  string   `json:"studentId" binding:"required"`
	CourseName *string  `json:"courseName,omitempty" example:"CS101"`
	CourseID   *string  `json:"courseId,omitempty"`
	TagNames   []string `json:"tagNames" binding:"required" example:"Java,SQL"`
}

// SyncLearningAchievementRequest upserts the achievement of a course
type SyncLearningAchievementRequest struct {
	StudentID  string  `json:"studentId" binding:"required"`
	CourseName *string `json:"courseName,omitempty"`
	CourseID   *string `json:"courseId,omitempty"`
	Content    string  `json:"content"`
}

// SyncLearningOutcomeRequest upserts the outcome of a course
type SyncLearningOutcomeRequest struct {
	StudentID   string  `json:"studentId" binding:"required"`
	CourseName  *string `json:"courseName,omitempty"`
	CourseID    *string `json:"courseId,omitempty"`
	Description string  `json:"description"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
}

// SyncResponse is the data of a sync response
type SyncResponse struct {
	Action string      `json:"action" example:"created"`
	Record interface{} `json:"record,omitempty"`
}

// TagSyncResponse is the data of a tag sync response.
// Action is created when at least one tag was inserted, existing otherwise.
type TagSyncResponse struct {
	Action   string      `json:"action" example:"created"`
	Created  int         `json:"created" example:"1"`
	Existing int         `json:"existing" example:"2"`
	Tags     interface{} `json:"tags"`
}
