package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/app/models/dto"
	"github.com/yigit/curricula/internal/app/services"
	"github.com/yigit/curricula/internal/middleware"
)

// LearningController handles technical tags, learning achievements and learning outcomes
type LearningController struct {
	learningService services.LearningService
}

// NewLearningController creates a new LearningController
func NewLearningController(learningService services.LearningService) *LearningController {
	return &LearningController{learningService: learningService}
}

func selector(courseID, courseName *string) services.CourseSelector {
	return services.CourseSelector{CourseID: courseID, CourseName: courseName}
}

// AddTechnicalTag records a technical tag
// @Summary Add a technical tag
// @Description Rejects a tag the student already has for the same course.
// @Tags student-learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddTechnicalTagRequest true "Tag"
// @Success 201 {object} dto.APIResponse{data=models.TechnicalTag} "Tag added"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or duplicate tag"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Router /student-learning/add-technical-tag [post]
func (c *LearningController) AddTechnicalTag(ctx *gin.Context) {
	var req dto.AddTechnicalTagRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	tag, err := c.learningService.AddTag(ctx.Request.Context(), services.TagInput{
		StudentID:        req.StudentID,
		TagName:          req.TagName,
		TagCategory:      req.TagCategory,
		ProficiencyLevel: req.ProficiencyLevel,
		Description:      req.Description,
		Course:           selector(req.CourseID, req.CourseName),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(tag, "Technical tag added successfully"))
}

// AddLearningAchievement records a learning achievement
// @Summary Add a learning achievement
// @Tags student-learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddLearningAchievementRequest true "Achievement"
// @Success 201 {object} dto.APIResponse{data=models.LearningAchievement} "Achievement added"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Router /student-learning/add-learning-achievement [post]
func (c *LearningController) AddLearningAchievement(ctx *gin.Context) {
	var req dto.AddLearningAchievementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	achievement, err := c.learningService.AddAchievement(ctx.Request.Context(), services.AchievementInput{
		StudentID:       req.StudentID,
		Title:           req.Title,
		Content:         req.Content,
		AchievementType: req.AchievementType,
		AchievementDate: req.AchievementDate,
		Course:          selector(req.CourseID, req.CourseName),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(achievement, "Learning achievement added successfully"))
}

// AddLearningOutcome records a learning outcome
// @Summary Add a learning outcome
// @Tags student-learning
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddLearningOutcomeRequest true "Outcome"
// @Success 201 {object} dto.APIResponse{data=models.LearningOutcome} "Outcome added"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or date range"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Router /student-learning/add-learning-outcome [post]
func (c *LearningController) AddLearningOutcome(ctx *gin.Context) {
	var req dto.AddLearningOutcomeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	outcome, err := c.learningService.AddOutcome(ctx.Request.Context(), services.OutcomeInput{
		StudentID:          req.StudentID,
		OutcomeTitle:       req.OutcomeTitle,
		OutcomeDescription: req.OutcomeDescription,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Course:             selector(req.CourseID, req.CourseName),
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(outcome, "Learning outcome added successfully"))
}

// SyncTechnicalTags makes the student's tags for a course include every given name
// @Summary Sync technical tags for a course
// @Description Creates missing tags and leaves existing ones untouched. Never creates duplicates.
// @Tags sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SyncTechnicalTagsRequest true "Tags"
// @Success 200 {object} dto.APIResponse{data=dto.TagSyncResponse} "Tags synced"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Router /sync-technical-tags [post]
func (c *LearningController) SyncTechnicalTags(ctx *gin.Context) {
	var req dto.SyncTechnicalTagsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	results, err := c.learningService.SyncTagsForCourse(ctx.Request.Context(), req.StudentID, selector(req.CourseID, req.CourseName), req.TagNames)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	data := dto.TagSyncResponse{Action: string(models.SyncExisting), Tags: results}
	for _, r := range results {
		if r.Action == models.SyncCreated {
			data.Created++
		} else {
			data.Existing++
		}
	}
	if data.Created > 0 {
		data.Action = string(models.SyncCreated)
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(data, "Technical tags synced successfully"))
}

// SyncLearningAchievement upserts the achievement for a course
// @Summary Sync the learning achievement of a course
// @Description Updates the existing achievement for the course or creates one. Empty content is skipped.
// @Tags sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SyncLearningAchievementRequest true "Achievement"
// @Success 200 {object} dto.APIResponse{data=dto.SyncResponse} "Achievement synced"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Router /sync-learning-achievement [post]
func (c *LearningController) SyncLearningAchievement(ctx *gin.Context) {
	var req dto.SyncLearningAchievementRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	res, err := c.learningService.SyncAchievementForCourse(ctx.Request.Context(), req.StudentID, selector(req.CourseID, req.CourseName), req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	data := dto.SyncResponse{Action: string(res.Action)}
	if res.Record != nil {
		data.Record = res.Record
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(data, "Learning achievement synced successfully"))
}

// SyncLearningOutcome upserts the outcome for a course
// @Summary Sync the learning outcome of a course
// @Description Updates the existing outcome for the course or creates one. An empty description is skipped.
// @Tags sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SyncLearningOutcomeRequest true "Outcome"
// @Success 200 {object} dto.APIResponse{data=dto.SyncResponse} "Outcome synced"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or date range"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Router /sync-learning-outcome [post]
func (c *LearningController) SyncLearningOutcome(ctx *gin.Context) {
	var req dto.SyncLearningOutcomeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	res, err := c.learningService.SyncOutcomeForCourse(ctx.Request.Context(), req.StudentID, selector(req.CourseID, req.CourseName),
		req.Description, req.StartDate, req.EndDate)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	data := dto.SyncResponse{Action: string(res.Action)}
	if res.Record != nil {
		data.Record = res.Record
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(data, "Learning outcome synced successfully"))
}

// GetSummary returns the student's profile and all learning records
// @Summary Get learning summary
// @Tags student-learning
// @Produce json
// @Security BearerAuth
// @Param studentProfileId path string true "Student profile ID or user ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=models.LearningSummary} "Summary retrieved"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /student-learning/get-summary/{studentProfileId} [get]
func (c *LearningController) GetSummary(ctx *gin.Context) {
	summary, err := c.learningService.GetSummary(ctx.Request.Context(), ctx.Param("studentProfileId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(summary, "Learning summary retrieved successfully"))
}

// GetCourseRecords returns the student's learning records grouped by assigned course
// @Summary Get learning records by course
// @Tags student-learning
// @Produce json
// @Security BearerAuth
// @Param studentProfileId path string true "Student profile ID or user ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=models.CourseRecords} "Records retrieved"
// @Failure 400 {object} dto.ErrorResponse "Malformed ID"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /student-learning/course-records/{studentProfileId} [get]
func (c *LearningController) GetCourseRecords(ctx *gin.Context) {
	records, err := c.learningService.GetCourseRecords(ctx.Request.Context(), ctx.Param("studentProfileId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(records, "Course records retrieved successfully"))
}
