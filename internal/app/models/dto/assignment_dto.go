package dto

// AssignProgramRequest assigns one student to a program
type AssignProgramRequest struct {
	ProgramID string  `json:"programId" binding:"required" example:"7d5a2c1e-3b4f-4a6d-8e9f-0a1b2c3d4e5f"`
	TeacherID *string `json:"teacherId,omitempty"`
	Notes     *string `json:"notes,omitempty" example:"fall intake"`
}

// BatchAssignProgramRequest assigns many students to a program on behalf of a teacher
type BatchAssignProgramRequest struct {
	ProgramID  string   `json:"programId" binding:"required"`
	StudentIDs []string `json:"studentIds" binding:"required,min=1"`
	Notes      *string  `json:"notes,omitempty"`
}

// WithdrawProgramRequest ends a student's assignment to a program
type WithdrawProgramRequest struct {
	ProgramID string `json:"programId" binding:"required"`
}
