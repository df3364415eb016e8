package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/curricula/internal/app/models/dto"
	"github.com/yigit/curricula/internal/app/services"
	"github.com/yigit/curricula/internal/middleware"
)

// AssignmentController handles assigning students to training programs
type AssignmentController struct {
	assignmentService services.AssignmentService
}

// NewAssignmentController creates a new AssignmentController
func NewAssignmentController(assignmentService services.AssignmentService) *AssignmentController {
	return &AssignmentController{assignmentService: assignmentService}
}

// AssignTrainingProgram assigns one student to a program
// @Summary Assign a training program to a student
// @Description Idempotent. Creates the assignment if missing and a not_started progress row for each active course.
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Param request body dto.AssignProgramRequest true "Assignment"
// @Success 200 {object} dto.AssignResponse "Program assigned"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID or invalid request"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - teachers and admins only"
// @Failure 404 {object} dto.ErrorResponse "Student or program not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/{studentId}/assign-training-program [post]
func (c *AssignmentController) AssignTrainingProgram(ctx *gin.Context) {
	var req dto.AssignProgramRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	assignment, err := c.assignmentService.AssignOne(ctx.Request.Context(), ctx.Param("studentId"), req.ProgramID, req.TeacherID, req.Notes)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.AssignResponse{
		Success:      true,
		Message:      "Training program assigned successfully",
		AssignmentID: assignment.ID.String(),
		Timestamp:    time.Now(),
	})
}

// BatchAssignTrainingProgram assigns many students to a program
// @Summary Batch assign a training program
// @Description Each student succeeds or fails on its own. success is true when at least one student was assigned.
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param teacherId path string true "Teacher user ID (UUID)"
// @Param request body dto.BatchAssignProgramRequest true "Students to assign"
// @Success 200 {object} dto.APIResponse{data=services.BatchResult} "Batch processed"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID or invalid request"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - not this teacher"
// @Failure 404 {object} dto.ErrorResponse "Program not found or inactive"
// @Router /teacher/{teacherId}/batch-assign-training-program [post]
func (c *AssignmentController) BatchAssignTrainingProgram(ctx *gin.Context) {
	var req dto.BatchAssignProgramRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.assignmentService.AssignBatch(ctx.Request.Context(), ctx.Param("teacherId"), req.ProgramID, req.StudentIDs, req.Notes)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.NewAPIResponse(result, fmt.Sprintf("Assigned %d of %d students", result.SuccessCount, result.TotalCount))
	resp.Success = result.SuccessCount > 0
	ctx.JSON(http.StatusOK, resp)
}

// GetTrainingProgramCourses lists the student's courses with their progress
// @Summary List a student's program courses
// @Description Returns an empty list when the student has no active assignment.
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=[]models.CourseWithProgress} "Courses retrieved"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /student/{studentId}/training-program-courses [get]
func (c *AssignmentController) GetTrainingProgramCourses(ctx *gin.Context) {
	courses, err := c.assignmentService.ListCoursesForStudent(ctx.Request.Context(), ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(courses, "Training program courses retrieved successfully"))
}

// GetAssignments lists the student's assignments
// @Summary List a student's assignments
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=[]models.AssignmentWithProgram} "Assignments retrieved"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /student/{studentId}/assignments [get]
func (c *AssignmentController) GetAssignments(ctx *gin.Context) {
	assignments, err := c.assignmentService.ListAssignments(ctx.Request.Context(), ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(assignments, "Assignments retrieved successfully"))
}

// WithdrawTrainingProgram ends a student's assignment
// @Summary Withdraw a student from a training program
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Param request body dto.WithdrawProgramRequest true "Program to withdraw from"
// @Success 200 {object} dto.APIResponse{data=models.Assignment} "Assignment withdrawn"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - teachers and admins only"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /student/{studentId}/withdraw-training-program [post]
func (c *AssignmentController) WithdrawTrainingProgram(ctx *gin.Context) {
	var req dto.WithdrawProgramRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	assignment, err := c.assignmentService.WithdrawAssignment(ctx.Request.Context(), ctx.Param("studentId"), req.ProgramID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(assignment, "Training program withdrawn"))
}
