package middleware

import (
	"errors"
	"net/http"
	"strings"

	"starmatch/internal/domain"
	"starmatch/internal/logger"
	"starmatch/internal/view"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ValidationErrorResponse represents validation error response
type ValidationErrorResponse struct {
	Code    string                   `json:"code"`
	Message string                   `json:"message"`
	Status  int                      `json:"status"`
	Errors  []domain.ValidationError `json:"errors"`
}

// ErrorPage is the data of the HTML error page.
type ErrorPage struct {
	Code    string
	Message string
	Status  int
}

// ErrorHandler is the centralized error handler. Browsers get the error
// page; clients asking for JSON get an ErrorResponse.
func ErrorHandler(pages *view.Pages) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get()

		var resp ErrorResponse
		var validationErrs domain.ValidationErrors
		var domainErr *domain.DomainError
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &validationErrs):
			log.Warn("Validation errors occurred",
				zap.String("path", c.Path()),
				zap.Int("error_count", len(validationErrs)),
			)
			if wantsJSON(c) {
				return c.Status(http.StatusBadRequest).JSON(ValidationErrorResponse{
					Code:    string(domain.ErrValidation),
					Message: "Request validation failed",
					Status:  http.StatusBadRequest,
					Errors:  validationErrs,
				})
			}
			resp = ErrorResponse{Code: string(domain.ErrValidation), Message: validationErrs.Error(), Status: http.StatusBadRequest}

		case errors.As(err, &domainErr):
			status := mapDomainErrorToHTTPStatus(domainErr)
			log.Error("Domain error occurred",
				zap.String("path", c.Path()),
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", status),
				zap.Error(domainErr.Err),
			)
			resp = ErrorResponse{Code: string(domainErr.Code), Message: domainErr.Message, Status: status}

		case errors.As(err, &fiberErr):
			log.Warn("Fiber error occurred",
				zap.String("path", c.Path()),
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			resp = ErrorResponse{Code: "HTTP_ERROR", Message: fiberErr.Message, Status: fiberErr.Code}

		default:
			log.Error("Unknown error occurred",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			resp = ErrorResponse{Code: string(domain.ErrInternal), Message: "Internal server error", Status: http.StatusInternalServerError}
		}

		if wantsJSON(c) || pages == nil {
			return c.Status(resp.Status).JSON(resp)
		}
		if renderErr := pages.Render(c, resp.Status, "error", ErrorPage(resp)); renderErr != nil {
			log.Error("Failed to render error page", zap.Error(renderErr))
			return c.Status(resp.Status).SendString(resp.Message)
		}
		return nil
	}
}

// mapDomainErrorToHTTPStatus maps domain errors to HTTP status codes
func mapDomainErrorToHTTPStatus(err *domain.DomainError) int {
	switch err.Code {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrInvalidInput, domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrPermission:
		return http.StatusForbidden
	case domain.ErrNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
