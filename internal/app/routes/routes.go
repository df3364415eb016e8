package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/curricula/internal/app/controllers"
	"github.com/yigit/curricula/internal/middleware"
	"github.com/yigit/curricula/internal/pkg/auth"
)

// Controllers groups every HTTP handler the router mounts
type Controllers struct {
	Program    *controllers.ProgramController
	Assignment *controllers.AssignmentController
	Student    *controllers.StudentController
	Learning   *controllers.LearningController
	Analysis   *controllers.AnalysisController
	Health     *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", c.Health.Health)

	api := router.Group("/api")
	api.Use(authMiddleware.JWTAuth())

	staffOnly := authMiddleware.RoleRequired(auth.RoleTeacher, auth.RoleAdmin)

	// --- Training program catalog ---
	api.GET("/training-programs", c.Program.GetPrograms)
	api.GET("/training-programs/by-code/:programCode", c.Program.GetProgramByCode)
	program := api.Group("/training-program")
	{
		program.GET("/:programId", c.Program.GetProgram)
		program.GET("/:programId/courses", c.Program.GetCourses)
		program.PATCH("/:programId/status", staffOnly, c.Program.UpdateProgramStatus)
		program.POST("/import", staffOnly, c.Program.ImportCourses)
		program.POST("/import-excel", staffOnly, c.Program.ImportCoursesFromExcel)
	}

	// --- Assignments, progress and profiles ---
	student := api.Group("/student/:studentId")
	{
		student.POST("/assign-training-program", staffOnly, c.Assignment.AssignTrainingProgram)
		student.POST("/withdraw-training-program", staffOnly, c.Assignment.WithdrawTrainingProgram)
		student.GET("/training-program-courses", c.Assignment.GetTrainingProgramCourses)
		student.GET("/assignments", c.Assignment.GetAssignments)
		student.GET("/profile", c.Student.GetProfile)
		student.GET("/course-progress", c.Student.GetCourseProgress)
		student.PATCH("/course-progress/:courseId", c.Student.UpdateCourseProgress)
		student.POST("/profile-analysis", c.Analysis.SubmitAnalysis)
	}
	api.POST("/teacher/:teacherId/batch-assign-training-program", staffOnly, c.Assignment.BatchAssignTrainingProgram)

	// --- Learning records ---
	learning := api.Group("/student-learning")
	{
		learning.POST("/add-technical-tag", c.Learning.AddTechnicalTag)
		learning.POST("/add-learning-achievement", c.Learning.AddLearningAchievement)
		learning.POST("/add-learning-outcome", c.Learning.AddLearningOutcome)
		learning.GET("/get-summary/:studentProfileId", c.Learning.GetSummary)
		learning.GET("/course-records/:studentProfileId", c.Learning.GetCourseRecords)
	}
	api.POST("/sync-technical-tags", c.Learning.SyncTechnicalTags)
	api.POST("/sync-learning-achievement", c.Learning.SyncLearningAchievement)
	api.POST("/sync-learning-outcome", c.Learning.SyncLearningOutcome)

	api.GET("/profile-analysis/:jobId", c.Analysis.GetAnalysis)
}
