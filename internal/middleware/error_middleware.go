package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/curricula/internal/app/models/dto"
	"github.com/yigit/curricula/internal/pkg/apperrors"
	"github.com/yigit/curricula/internal/pkg/logger"
)

// HandleAPIError maps a service error onto its HTTP status and error envelope.
// Conflicts are reported as 400 since they are caller mistakes like adding a duplicate tag.
func HandleAPIError(c *gin.Context, err error) {
	status, code, fallback := classify(err)

	var detail *dto.ErrorDetail
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Str("requestID", c.GetString(ContextRequestID)).
			Msg("Unhandled API error")
		detail = dto.NewErrorDetail(code, fallback)
	} else {
		detail = dto.NewErrorDetail(code, apperrors.Message(err, fallback)).WithReason(apperrors.Code(err))
		if details := customDetails(err); details != nil {
			detail.WithDetails(details)
		}
	}

	c.JSON(status, dto.NewErrorResponse(detail))
}

func classify(err error) (int, dto.ErrorCode, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusBadRequest, dto.ErrorCodeConflict, "Resource already exists"
	case errors.Is(err, apperrors.ErrPermissionDenied):
		return http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"
	case errors.Is(err, apperrors.ErrTokenInvalid), errors.Is(err, apperrors.ErrInvalidFormat):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"
	case errors.Is(err, apperrors.ErrDependency):
		return http.StatusInternalServerError, dto.ErrorCodeExternalServiceError, "A required service is unavailable, please try again later"
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}

func customDetails(err error) map[string]interface{} {
	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		return ce.Details
	}
	return nil
}

// RecoveryHandler turns a panic into a logged 500 response
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Str("requestID", c.GetString(ContextRequestID)).
			Msg("Recovered from panic")
		detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(detail))
	})
}
