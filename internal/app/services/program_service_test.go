package services

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yigit/curricula/internal/app/models"
	"github.com/yigit/curricula/internal/pkg/apperrors"
)

func TestImportCourses_PartialFailure(t *testing.T) {
	f := newFixture(t)
	f.db.failCourseNumbers["NET301"] = true

	res, err := f.programs.ImportCourses(f.teacherCtx(), CourseImport{
		ProgramCode: "CS_2024",
		ProgramName: "Computer Science 2024",
		Courses: []CourseInput{
			{CourseNumber: "CS101", CourseName: "Programming", Credits: 4},
			{CourseNumber: "CS102", CourseName: "Data Structures", Credits: 3},
			{CourseNumber: "", CourseName: "No number"},
			{CourseNumber: "CS101", CourseName: "Programming again", Credits: 4},
			{CourseNumber: "NET301", CourseName: "Networks", Credits: 3},
			{CourseNumber: "MATH101", CourseName: "Calculus", Credits: -1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 4, res.Failed)
	assert.Equal(t, 6, res.Total)
	require.Len(t, res.Errors, 4)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, 4, res.Errors[1].Row)
	assert.Contains(t, res.Errors[1].Error, "duplicate")
	assert.Equal(t, "NET301", res.Errors[2].CourseNumber)
	assert.Equal(t, "MATH101", res.Errors[3].CourseNumber)

	program, err := f.programs.GetProgramByCode(f.teacherCtx(), "CS_2024")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science 2024", program.ProgramName)
	assert.Equal(t, 7.0, program.TotalCredits)
	assert.Equal(t, program.ID, res.ProgramID)

	require.Len(t, f.db.batches, 1)
	batch := f.db.batches[0]
	assert.Equal(t, res.BatchID, batch.ID)
	assert.Equal(t, 2, batch.SuccessCount)
	assert.Equal(t, 4, batch.FailedCount)
	assert.Equal(t, "CS_2024 import", batch.BatchName)
	require.NotNil(t, batch.ImportedBy)
	assert.Equal(t, f.teacherID, *batch.ImportedBy)
}

func TestImportCourses_UpsertsExistingProgram(t *testing.T) {
	f := newFixture(t)
	program := f.seedProgram(t, "CS_2024", "CS101", "CS102", "MATH101")

	res, err := f.programs.ImportCourses(f.teacherCtx(), CourseImport{
		ProgramCode: "CS_2024",
		Courses: []CourseInput{
			{CourseNumber: "CS101", CourseName: "Programming I", Credits: 5, SequenceOrder: 1},
			{CourseNumber: "CS201", CourseName: "Algorithms", Credits: 4, SequenceOrder: 4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, program.ID, res.ProgramID)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 2, res.Retired)

	courses, err := f.programs.GetCourses(f.teacherCtx(), program.ID.String())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Programming I", courses[0].CourseName)
	assert.Equal(t, "CS201", courses[1].CourseNumber)
}

func TestImportCourses_ReimportRetiresDroppedCourses(t *testing.T) {
	f := newFixture(t)
	ctx := f.teacherCtx()
	full := []CourseInput{
		{CourseNumber: "CS101", CourseName: "Programming", Credits: 4},
		{CourseNumber: "CS102", CourseName: "Data Structures", Credits: 3},
		{CourseNumber: "OLD1", CourseName: "Legacy Seminar", Credits: 2},
	}

	res, err := f.programs.ImportCourses(ctx, CourseImport{ProgramCode: "CS_2024", Courses: full})
	require.NoError(t, err)
	assert.Zero(t, res.Retired)

	res, err = f.programs.ImportCourses(ctx, CourseImport{ProgramCode: "CS_2024", Courses: full[:2]})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Retired)

	courses, err := f.programs.GetCourses(ctx, res.ProgramID.String())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "CS101", courses[0].CourseNumber)
	assert.Equal(t, "CS102", courses[1].CourseNumber)

	program, err := f.programs.GetProgram(ctx, res.ProgramID.String())
	require.NoError(t, err)
	assert.Equal(t, 7.0, program.TotalCredits)

	// a re-import that lists the course again brings it back
	_, err = f.programs.ImportCourses(ctx, CourseImport{ProgramCode: "CS_2024", Courses: full})
	require.NoError(t, err)
	courses, err = f.programs.GetCourses(ctx, res.ProgramID.String())
	require.NoError(t, err)
	assert.Len(t, courses, 3)
}

func TestImportCourses_FailedRowsKeepUnlistedCourses(t *testing.T) {
	f := newFixture(t)
	program := f.seedProgram(t, "CS_2024", "CS101", "CS102", "MATH101")

	res, err := f.programs.ImportCourses(f.teacherCtx(), CourseImport{
		ProgramCode: "CS_2024",
		Courses: []CourseInput{
			{CourseNumber: "CS101", CourseName: "Programming", Credits: 4},
			{CourseNumber: "MATH101", CourseName: "", Credits: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Retired)

	courses, err := f.programs.GetCourses(f.teacherCtx(), program.ID.String())
	require.NoError(t, err)
	assert.Len(t, courses, 3)
}

func TestImportCourses_RequestErrors(t *testing.T) {
	f := newFixture(t)
	userID, _ := f.addStudent(t, "S1")
	courses := []CourseInput{{CourseNumber: "CS101", CourseName: "Programming"}}

	_, err := f.programs.ImportCourses(studentCtx(userID), CourseImport{ProgramCode: "CS_2024", Courses: courses})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = f.programs.ImportCourses(f.teacherCtx(), CourseImport{ProgramCode: "CS 2024!", Courses: courses})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.programs.ImportCourses(f.teacherCtx(), CourseImport{ProgramCode: "CS_2024"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	assert.Empty(t, f.db.programs)
}

func TestImportCoursesFromExcel(t *testing.T) {
	f := newFixture(t)

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	rows := [][]interface{}{
		{"课程编号", "课程名称", "学分", "建议修读学期"},
		{"CS101", "程序设计基础", 4, "1"},
		{"CS102", "数据结构", "many", "2"},
		{"MATH101", "高等数学", "5", "1"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	res, err := f.programs.ImportCoursesFromExcel(f.teacherCtx(), buf, CourseImport{ProgramCode: "CS_2024", BatchName: "fall intake"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, "fall intake", f.db.batches[0].BatchName)

	_, err = f.programs.ImportCoursesFromExcel(f.teacherCtx(), bytes.NewReader([]byte("not a workbook")), CourseImport{ProgramCode: "CS_2024"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestGetCourses(t *testing.T) {
	f := newFixture(t)
	program := f.seedProgram(t, "CS_2024", "CS101", "CS102", "MATH101")
	ctx := f.teacherCtx()

	courses, err := f.programs.GetCourses(ctx, program.ID.String())
	require.NoError(t, err)
	require.Len(t, courses, 3)
	assert.Equal(t, []string{"CS101", "CS102", "MATH101"},
		[]string{courses[0].CourseNumber, courses[1].CourseNumber, courses[2].CourseNumber})

	_, err = f.programs.GetCourses(ctx, "CS_2024")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.programs.GetCourses(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperrors.ErrProgramNotFound)

	_, err = f.programs.SetProgramStatus(ctx, program.ID.String(), models.StatusInactive)
	require.NoError(t, err)
	_, err = f.programs.GetCourses(ctx, program.ID.String())
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestGetProgram_ByIDAndCode(t *testing.T) {
	f := newFixture(t)
	program := f.seedProgram(t, "CS_2024", "CS101")
	ctx := f.teacherCtx()

	got, err := f.programs.GetProgram(ctx, program.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "CS_2024", got.ProgramCode)

	got, err = f.programs.GetProgramByCode(ctx, " CS_2024 ")
	require.NoError(t, err)
	assert.Equal(t, program.ID, got.ID)

	_, err = f.programs.GetProgramByCode(ctx, "no spaces allowed")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.programs.GetProgramByCode(ctx, "EE_2024")
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestGetPrograms_CourseCount(t *testing.T) {
	f := newFixture(t)
	f.seedProgram(t, "CS_2024", "CS101", "CS102", "MATH101")
	f.seedProgram(t, "EE_2024")

	programs, err := f.programs.GetPrograms(f.teacherCtx())
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, 3, programs[0].CourseCount)
	assert.Equal(t, 0, programs[1].CourseCount)
}

func TestSetProgramStatus_Validation(t *testing.T) {
	f := newFixture(t)
	program := f.seedProgram(t, "CS_2024")

	_, err := f.programs.SetProgramStatus(f.teacherCtx(), program.ID.String(), "archived")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.programs.SetProgramStatus(f.teacherCtx(), uuid.NewString(), models.StatusActive)
	assert.ErrorIs(t, err, apperrors.ErrProgramNotFound)
}
