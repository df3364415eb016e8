package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/curricula/internal/app/models/dto"
	"github.com/yigit/curricula/internal/app/services"
	"github.com/yigit/curricula/internal/middleware"
)

// AnalysisController submits and polls profile analysis jobs
type AnalysisController struct {
	analysisService services.AnalysisService
}

// NewAnalysisController creates a new AnalysisController
func NewAnalysisController(analysisService services.AnalysisService) *AnalysisController {
	return &AnalysisController{analysisService: analysisService}
}

// SubmitAnalysis queues a profile analysis for the student
// @Summary Request a profile analysis
// @Description Queues a job and returns immediately. Poll /profile-analysis/{jobId} for the result.
// @Tags profile-analysis
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student profile ID or user ID (UUID)"
// @Success 202 {object} dto.APIResponse{data=dto.AnalysisJobResponse} "Job queued"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /student/{studentId}/profile-analysis [post]
func (c *AnalysisController) SubmitAnalysis(ctx *gin.Context) {
	job, err := c.analysisService.Submit(ctx.Request.Context(), ctx.Param("studentId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusAccepted, dto.NewAPIResponse(dto.NewAnalysisJobResponse(job), "Profile analysis queued"))
}

// GetAnalysis returns the state of an analysis job
// @Summary Poll a profile analysis job
// @Tags profile-analysis
// @Produce json
// @Security BearerAuth
// @Param jobId path string true "Job ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=dto.AnalysisJobResponse} "Job state"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Job not found"
// @Router /profile-analysis/{jobId} [get]
func (c *AnalysisController) GetAnalysis(ctx *gin.Context) {
	job, err := c.analysisService.Get(ctx.Request.Context(), ctx.Param("jobId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewAnalysisJobResponse(job), "Profile analysis retrieved"))
}
