package apperrors

import "errors"

// Error categories. Every error returned by a service wraps exactly one of these.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDependency       = errors.New("dependency unavailable")
)

// Authentication errors
var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")
)

// Student errors
var (
	ErrInvalidStudentID = NewCustomError(ErrValidationFailed, "invalid student ID format").WithCode("INVALID_STUDENT_ID")
	ErrStudentNotFound  = NewCustomError(ErrResourceNotFound, "student profile not found").WithCode("STUDENT_NOT_FOUND")
)

// Training program errors
var (
	ErrInvalidProgramID  = NewCustomError(ErrValidationFailed, "invalid training program ID format").WithCode("INVALID_PROGRAM_ID")
	ErrProgramNotFound   = NewCustomError(ErrResourceNotFound, "training program not found").WithCode("PROGRAM_NOT_FOUND")
	ErrProgramInactive   = NewCustomError(ErrResourceNotFound, "training program is not active").WithCode("PROGRAM_INACTIVE")
	ErrCourseNotFound    = NewCustomError(ErrResourceNotFound, "course not found").WithCode("COURSE_NOT_FOUND")
	ErrProgressNotFound  = NewCustomError(ErrResourceNotFound, "no progress record for this student and course").WithCode("PROGRESS_NOT_FOUND")
	ErrAssignmentMissing = NewCustomError(ErrResourceNotFound, "assignment not found").WithCode("ASSIGNMENT_NOT_FOUND")
)

// Learning record errors
var (
	ErrTagAlreadyExists  = NewCustomError(ErrConflict, "tag already exists").WithCode("TAG_EXISTS")
	ErrAchievementExists = NewCustomError(ErrConflict, "an achievement is already recorded for this course").WithCode("ACHIEVEMENT_EXISTS")
	ErrOutcomeExists     = NewCustomError(ErrConflict, "an outcome is already recorded for this course").WithCode("OUTCOME_EXISTS")
)

// Analysis job errors
var (
	ErrJobNotFound          = NewCustomError(ErrResourceNotFound, "analysis job not found").WithCode("JOB_NOT_FOUND")
	ErrWebhookNotConfigured = NewCustomError(ErrDependency, "analysis webhook not configured").WithCode("WEBHOOK_NOT_CONFIGURED")
)

func NewResourceNotFoundError(message string) error {
	return &CustomError{Err: ErrResourceNotFound, Message: message}
}

func NewConflictError(message string) error {
	return &CustomError{Err: ErrConflict, Message: message}
}

func NewForbiddenError(message string) error {
	return &CustomError{Err: ErrPermissionDenied, Message: message}
}

func NewValidationError(message string) error {
	return &CustomError{Err: ErrValidationFailed, Message: message}
}

func NewDependencyError(message string, cause error) error {
	return &CustomError{Err: ErrDependency, Message: message, cause: cause}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Message returns the most specific user-facing message carried by err, or fallback.
func Message(err error, fallback string) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}

// CustomError carries a category (Err), a user-facing message and optional details.
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}

	cause error
}

func (e *CustomError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes both the category and the underlying cause
func (e *CustomError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func NewCustomError(err error, message string) *CustomError {
	return &CustomError{Err: err, Message: message}
}

// WithDetails returns a copy carrying details, so package-level errors are never mutated.
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	c := *e
	c.Details = details
	return &c
}

func (e *CustomError) WithCode(code string) *CustomError {
	c := *e
	c.Code = code
	return &c
}

// Code returns the machine-readable code carried by err, if any
func Code(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
