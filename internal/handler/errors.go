package handler

import (
	"errors"
	"net/http"

	"oficina/internal/apperror"
	"oficina/internal/service"
	"oficina/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP status codes:
// not-found (including cross-company reads) -> 404, role failures -> 403,
// business rule violations -> 422, double bookings -> 409, failed
// outbound calls -> 502, everything else -> 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Resource not found"))
	case errors.Is(err, apperror.ErrForbidden):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	default:
		var validationErr *apperror.ValidationError
		var conflictErr *apperror.ConflictError
		var externalErr *apperror.ExternalServiceError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusUnprocessableEntity,
				response.Invalid(http.StatusUnprocessableEntity, "Validation failed", validationErr.Errors))
		case errors.As(err, &conflictErr):
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, conflictErr.Message))
		case errors.As(err, &externalErr):
			c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, externalErr.Error()))
		case errors.Is(err, service.ErrInvalidCredentials),
			errors.Is(err, service.ErrRegistrationPending),
			errors.Is(err, service.ErrCompanyInactive):
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
	}
}
