package server

import (
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// statusForCode maps application error codes onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeAuthRequired:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// respondAppError writes a service-layer error as JSON. Services leave the
// sign-in URL blank, so the transport fills it in for anonymous callers.
func (s *Server) respondAppError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if appErr.Code == models.CodeAuthRequired && appErr.LoginURL == "" {
		appErr.LoginURL = s.config.LoginURL
	}
	return models.RespondWithError(c, statusForCode(appErr.Code), appErr)
}

// errorHandler is Fiber's last-resort error handler for errors that escape a
// handler unrendered.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return models.RespondWithError(c, fiberErr.Code, fiberErr)
	}
	return s.respondAppError(c, err)
}

// parseID extracts a route parameter by name as a positive uint. On failure it
// writes a 400 JSON response and returns errResponseWritten; callers should
// check: if err != nil { return nil }.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parsePage extracts page/per_page query parameters for the post listings.
func parsePage(c *fiber.Ctx) service.ListPostsInput {
	return service.ListPostsInput{
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", service.DefaultPageSize),
	}
}

// currentUserID returns the authenticated user's ID from the request locals,
// or 0 for anonymous requests.
func currentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}
