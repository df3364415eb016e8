// Package excel reads training-program course lists from .xlsx workbooks.
package excel

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yigit/curricula/internal/pkg/coursename"
)

// ErrMissingHeader is returned when a required column cannot be found in the header row
var ErrMissingHeader = errors.New("required column missing from header row")

// Column identifies a field of a course row
type Column string

const (
	ColCourseNumber        Column = "course_number"
	ColCourseName          Column = "course_name"
	ColCredits             Column = "credits"
	ColRecommendedGrade    Column = "recommended_grade"
	ColRecommendedSemester Column = "recommended_semester"
	ColExamMethod          Column = "exam_method"
	ColCourseNature        Column = "course_nature"
	ColCourseType          Column = "course_type"
)

// headerAliases maps accepted header texts (normalized) to columns.
// Chinese headers come from the registrar's export template.
var headerAliases = map[string]Column{
	"course number": ColCourseNumber, "course_number": ColCourseNumber, "course no": ColCourseNumber,
	"course code": ColCourseNumber, "课程编号": ColCourseNumber, "课程代码": ColCourseNumber, "课程号": ColCourseNumber,

	"course name": ColCourseName, "course_name": ColCourseName, "name": ColCourseName, "课程名称": ColCourseName,

	"credits": ColCredits, "credit": ColCredits, "学分": ColCredits,

	"recommended grade": ColRecommendedGrade, "recommended_grade": ColRecommendedGrade, "grade": ColRecommendedGrade,
	"推荐年级": ColRecommendedGrade, "建议修读年级": ColRecommendedGrade,

	"recommended semester": ColRecommendedSemester, "recommended_semester": ColRecommendedSemester,
	"semester": ColRecommendedSemester, "推荐学期": ColRecommendedSemester, "建议修读学期": ColRecommendedSemester,
	"开课学期": ColRecommendedSemester,

	"exam method": ColExamMethod, "exam_method": ColExamMethod, "考核方式": ColExamMethod, "考试方式": ColExamMethod,

	"course nature": ColCourseNature, "course_nature": ColCourseNature, "课程性质": ColCourseNature,

	"course type": ColCourseType, "course_type": ColCourseType, "课程类别": ColCourseType, "课程类型": ColCourseType,
}

// CourseRow is one parsed course line
type CourseRow struct {
	Row                 int
	CourseNumber        string
	CourseName          string
	Credits             float64
	RecommendedGrade    string
	RecommendedSemester string
	ExamMethod          string
	CourseNature        string
	CourseType          string
}

// RowError reports a sheet row that could not be parsed. Row is 1-based as shown in spreadsheet tools.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result holds the parsed rows and the rows that were rejected
type Result struct {
	Sheet  string
	Rows   []CourseRow
	Errors []RowError
}

// Parse reads the first sheet of the workbook in r. The first non-empty row is the header.
func Parse(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return parseSheet(f, sheets[0])
}

func parseSheet(f *excelize.File, sheet string) (*Result, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	res := &Result{Sheet: sheet}

	headerIdx := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return res, nil
	}

	columns := mapHeader(rows[headerIdx])
	for _, required := range []Column{ColCourseNumber, ColCourseName} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingHeader, required)
		}
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		course, rowErr := parseRow(row, columns, i+1)
		if rowErr != nil {
			res.Errors = append(res.Errors, *rowErr)
			continue
		}
		res.Rows = append(res.Rows, course)
	}

	return res, nil
}

func mapHeader(header []string) map[Column]int {
	columns := make(map[Column]int, len(header))
	for i, cell := range header {
		col, ok := headerAliases[coursename.Normalize(cell)]
		if !ok {
			continue
		}
		if _, seen := columns[col]; !seen {
			columns[col] = i
		}
	}
	return columns
}

func parseRow(row []string, columns map[Column]int, rowNumber int) (CourseRow, *RowError) {
	cell := func(c Column) string {
		idx, ok := columns[c]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	course := CourseRow{
		Row:                 rowNumber,
		CourseNumber:        cell(ColCourseNumber),
		CourseName:          cell(ColCourseName),
		RecommendedGrade:    cell(ColRecommendedGrade),
		RecommendedSemester: cell(ColRecommendedSemester),
		ExamMethod:          cell(ColExamMethod),
		CourseNature:        cell(ColCourseNature),
		CourseType:          cell(ColCourseType),
	}

	if course.CourseNumber == "" {
		return course, &RowError{Row: rowNumber, Reason: "course number is empty"}
	}
	if course.CourseName == "" {
		return course, &RowError{Row: rowNumber, Reason: "course name is empty"}
	}

	if raw := cell(ColCredits); raw != "" {
		credits, err := strconv.ParseFloat(raw, 64)
		if err != nil || credits < 0 {
			return course, &RowError{Row: rowNumber, Reason: fmt.Sprintf("invalid credits %q", raw)}
		}
		course.Credits = credits
	}

	return course, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
