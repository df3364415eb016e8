package dto

import "github.com/yigit/curricula/internal/app/models"

// ImportCourseItem is one course line of a JSON import
type ImportCourseItem struct {
	CourseNumber        string  `json:"course_number" example:"CS101"`
	CourseName          string  `json:"course_name" example:"Introduction to Programming"`
	Credits             float64 `json:"credits" example:"4"`
	RecommendedGrade    string  `json:"recommended_grade,omitempty" example:"1"`
	RecommendedSemester string  `json:"recommended_semester,omitempty" example:"1"`
	ExamMethod          string  `json:"exam_method,omitempty" example:"exam"`
	CourseNature        string  `json:"course_nature,omitempty" example:"required"`
	CourseType          string  `json:"course_type,omitempty" example:"core"`
	SequenceOrder       int     `json:"sequence_order,omitempty" example:"1"`
}

// ImportCoursesRequest imports courses into the program named by ProgramCode, creating it if needed
type ImportCoursesRequest struct {
	Courses     []ImportCourseItem `json:"courses" binding:"required,min=1,dive"`
	ProgramCode string             `json:"programCode" binding:"required" example:"CS_2024"`
	ProgramName string             `json:"programName,omitempty" example:"Computer Science 2024"`
	Department  string             `json:"department,omitempty" example:"Computer Science"`
	BatchName   string             `json:"batchName,omitempty" example:"2024 fall import"`
	ImportedBy  *string            `json:"importedBy,omitempty" binding:"omitempty,uuid"`
}

// ImportCoursesResponse is the data of an import response
type ImportCoursesResponse struct {
	Success int                     `json:"success" example:"3"`
	Failed  int                     `json:"failed" example:"0"`
	Total   int                     `json:"total" example:"3"`
	Retired int                     `json:"retired" example:"0"`
	Program string                  `json:"program_id,omitempty"`
	BatchID string                  `json:"batch_id,omitempty"`
	Errors  []models.ImportRowError `json:"errors"`
}

// NewImportCoursesResponse flattens an import result into its response body
func NewImportCoursesResponse(res *models.ImportResult) ImportCoursesResponse {
	rowErrors := res.Errors
	if rowErrors == nil {
		rowErrors = []models.ImportRowError{}
	}
	return ImportCoursesResponse{
		Success: res.Success,
		Failed:  res.Failed,
		Total:   res.Total,
		Retired: res.Retired,
		Program: res.ProgramID.String(),
		BatchID: res.BatchID.String(),
		Errors:  rowErrors,
	}
}

// UpdateProgramStatusRequest activates or deactivates a program
type UpdateProgramStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive" example:"inactive"`
}
