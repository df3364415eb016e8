package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/app/models/dto"
	"github.com/yigit/curricula/internal/app/services"
	"github.com/yigit/curricula/internal/middleware"
)

// ProgramController handles the training program catalog
type ProgramController struct {
	programService services.ProgramService
}

// NewProgramController creates a new ProgramController
func NewProgramController(programService services.ProgramService) *ProgramController {
	return &ProgramController{programService: programService}
}

// GetPrograms lists all training programs
// @Summary List training programs
// @Description Lists every training program with its active course count
// @Tags training-programs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.ProgramWithCourseCount} "Programs retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /training-programs [get]
func (c *ProgramController) GetPrograms(ctx *gin.Context) {
	programs, err := c.programService.GetPrograms(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(programs, "Training programs retrieved successfully"))
}

// GetProgram retrieves one training program
// @Summary Get training program
// @Tags training-programs
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=models.TrainingProgram} "Program retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid program ID"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Router /training-program/{programId} [get]
func (c *ProgramController) GetProgram(ctx *gin.Context) {
	program, err := c.programService.GetProgram(ctx.Request.Context(), ctx.Param("programId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(program, "Training program retrieved successfully"))
}

// GetProgramByCode retrieves a training program by its unique code
// @Summary Get training program by code
// @Tags training-programs
// @Produce json
// @Security BearerAuth
// @Param programCode path string true "Program code" example(CS_2024)
// @Success 200 {object} dto.APIResponse{data=models.TrainingProgram} "Program retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid program code"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Router /training-programs/by-code/{programCode} [get]
func (c *ProgramController) GetProgramByCode(ctx *gin.Context) {
	program, err := c.programService.GetProgramByCode(ctx.Request.Context(), ctx.Param("programCode"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(program, "Training program retrieved successfully"))
}

// GetCourses lists the active courses of a program in sequence order
// @Summary List program courses
// @Tags training-programs
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID (UUID)"
// @Success 200 {object} dto.APIResponse{data=[]models.ProgramCourse} "Courses retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid program ID"
// @Failure 404 {object} dto.ErrorResponse "Program not found or inactive"
// @Router /training-program/{programId}/courses [get]
func (c *ProgramController) GetCourses(ctx *gin.Context) {
	courses, err := c.programService.GetCourses(ctx.Request.Context(), ctx.Param("programId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(courses, "Courses retrieved successfully"))
}

func importFromRequest(req *dto.ImportCoursesRequest) services.CourseImport {
	in := services.CourseImport{
		ProgramCode: req.ProgramCode,
		ProgramName: req.ProgramName,
		Department:  req.Department,
		BatchName:   req.BatchName,
		Courses:     make([]services.CourseInput, len(req.Courses)),
	}
	if req.ImportedBy != nil {
		// format already checked by the uuid binding rule
		if id, err := uuid.Parse(*req.ImportedBy); err == nil {
			in.ImportedBy = &id
		}
	}
	for i, item := range req.Courses {
		in.Courses[i] = services.CourseInput{
			Row:                 i + 1,
			CourseNumber:        item.CourseNumber,
			CourseName:          item.CourseName,
			Credits:             item.Credits,
			RecommendedGrade:    item.RecommendedGrade,
			RecommendedSemester: item.RecommendedSemester,
			ExamMethod:          item.ExamMethod,
			CourseNature:        item.CourseNature,
			CourseType:          item.CourseType,
			SequenceOrder:       item.SequenceOrder,
		}
	}
	return in
}

func importMessage(res *models.ImportResult) string {
	if res.Failed == 0 {
		return "Courses imported successfully"
	}
	return "Courses imported with errors"
}

// ImportCourses imports a JSON list of courses into a program
// @Summary Import program courses
// @Description Creates the program if needed and upserts each course by course number. Rows fail independently.
// @Tags training-programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ImportCoursesRequest true "Courses to import"
// @Success 200 {object} dto.APIResponse{data=dto.ImportCoursesResponse} "Import finished"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - teachers and admins only"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /training-program/import [post]
func (c *ProgramController) ImportCourses(ctx *gin.Context) {
	var req dto.ImportCoursesRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	res, err := c.programService.ImportCourses(ctx.Request.Context(), importFromRequest(&req))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewImportCoursesResponse(res), importMessage(res)))
}

// ImportCoursesFromExcel imports courses from an uploaded workbook
// @Summary Import program courses from Excel
// @Tags training-programs
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Workbook (.xlsx)"
// @Param programCode formData string true "Program code"
// @Param programName formData string false "Program name, used when the program is created"
// @Param department formData string false "Department, used when the program is created"
// @Param batchName formData string false "Import batch name"
// @Success 200 {object} dto.APIResponse{data=dto.ImportCoursesResponse} "Import finished"
// @Failure 400 {object} dto.ErrorResponse "Invalid workbook or form data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - teachers and admins only"
// @Router /training-program/import-excel [post]
func (c *ProgramController) ImportCoursesFromExcel(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "file is required").
			WithField("file").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer file.Close()

	req := services.CourseImport{
		ProgramCode: ctx.PostForm("programCode"),
		ProgramName: ctx.PostForm("programName"),
		Department:  ctx.PostForm("department"),
		BatchName:   ctx.PostForm("batchName"),
	}
	res, err := c.programService.ImportCoursesFromExcel(ctx.Request.Context(), file, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewImportCoursesResponse(res), importMessage(res)))
}

// UpdateProgramStatus activates or deactivates a program
// @Summary Update program status
// @Tags training-programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param programId path string true "Program ID (UUID)"
// @Param request body dto.UpdateProgramStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=models.TrainingProgram} "Status updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - teachers and admins only"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Router /training-program/{programId}/status [patch]
func (c *ProgramController) UpdateProgramStatus(ctx *gin.Context) {
	var req dto.UpdateProgramStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	program, err := c.programService.SetProgramStatus(ctx.Request.Context(), ctx.Param("programId"), models.RecordStatus(req.Status))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(program, "Training program status updated"))
}
