package dto

import "github.com/yigit/curricula/internal/app/models"

// UpdateProgressRequest is a partial update of one course progress row.
// Override lets staff move the status backwards.
type UpdateProgressRequest struct {
	Status            *string  `json:"status,omitempty" example:"in_progress"`
	Grade             *string  `json:"grade,omitempty" example:"A-"`
	GradePoint        *float64 `json:"grade_point,omitempty" example:"3.7"`
	SemesterCompleted *string  `json:"semester_completed,omitempty" example:"2024-fall"`
	Teacher           *string  `json:"teacher,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	Override          bool     `json:"override,omitempty"`
}

// ToUpdate converts the request into the model update
func (r UpdateProgressRequest) ToUpdate() models.ProgressUpdate {
	u := models.ProgressUpdate{
		Grade:             r.Grade,
		GradePoint:        r.GradePoint,
		SemesterCompleted: r.SemesterCompleted,
		Teacher:           r.Teacher,
		Notes:             r.Notes,
	}
	if r.Status != nil {
		status := models.ProgressStatus(*r.Status)
		u.Status = &status
	}
	return u
}
