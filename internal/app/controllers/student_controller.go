package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/curricula/internal/app/models/dto"
	"github.com/yigit/curricula/internal/app/services"
	"github.com/yigit/curricula/internal/middleware"
)

// StudentController serves student profiles and course progress
type StudentController struct {
	profileService  services.ProfileService
	progressService services.ProgressService
}

// NewStudentController creates a new StudentController
func NewStudentController(profileService services.ProfileService, progressService services.ProgressService) *StudentController {
	return &StudentController{
		profileService:  profileService,
		progressService: progressService,
	}
}

// GetProfile returns the canonical profile of a student
// @Summary Get student profile
// @Description Accepts a profile ID or the student's user ID. Merged profiles resolve to the surviving one.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=models.StudentProfile} "Profile retrieved"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /student/{studentId}/profile [get]
func (c *StudentController) GetProfile(ctx *gin.Context) {
	profile, err := c.profileService.GetProfile(ctx.Request.Context(), ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile, "Student profile retrieved successfully"))
}

// GetCourseProgress lists the student's progress rows
// @Summary List course progress
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=[]models.CourseProgress} "Progress retrieved"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /student/{studentId}/course-progress [get]
func (c *StudentController) GetCourseProgress(ctx *gin.Context) {
	rows, err := c.progressService.GetProgress(ctx.Request.Context(), ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(rows, "Course progress retrieved successfully"))
}

// UpdateCourseProgress updates one course progress row
// @Summary Update course progress
// @Description Status only moves forward (not_started, in_progress, completed) unless a teacher or admin sets override.
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Param courseId path string true "Course ID (UUID)"
// @Param request body dto.UpdateProgressRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.CourseProgress} "Progress updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid update or transition"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "No progress row for this course"
// @Router /student/{studentId}/course-progress/{courseId} [patch]
func (c *StudentController) UpdateCourseProgress(ctx *gin.Context) {
	var req dto.UpdateProgressRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	row, err := c.progressService.UpdateProgress(ctx.Request.Context(), ctx.Param("studentId"), ctx.Param("courseId"), req.ToUpdate(), req.Override)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(row, "Course progress updated successfully"))
}
