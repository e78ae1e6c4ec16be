package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyAccount handles GET /api/users/me
// @Summary Get the signed-in account
// @Description The current user with its profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyAccount(c *fiber.Ctx) error {
	user, err := s.accounts.GetAccount(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyAccount handles PUT /api/users/me
// @Summary Update account settings
// @Description Change username, email or bio. Omitted fields are untouched.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,email=string,bio=string} true "Settings"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyAccount(c *fiber.Ctx) error {
	var req struct {
		Username string  `json:"username"`
		Email    string  `json:"email"`
		Bio      *string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accounts.UpdateAccount(c.UserContext(), service.UpdateAccountInput{
		UserID:   currentUserID(c),
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	})
	if err != nil {
		return s.respondAppError(c, err)
	}
	return c.JSON(user)
}

// UploadAvatar handles POST /api/users/me/avatar
// @Summary Upload an avatar
// @Description Accepts an image file, scales it down and stores it as WebP
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} object{avatar_url=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{
				"avatar": "an image file is required",
			}))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string]string{
				"avatar": "could not read the uploaded file",
			}))
	}
	defer func() { _ = file.Close() }()

	url, err := s.avatars.SetAvatar(c.UserContext(), currentUserID(c), file)
	if err != nil {
		return s.respondAppError(c, err)
	}

	return c.JSON(fiber.Map{"avatar_url": url})
}

// DeleteMyAccount handles DELETE /api/users/me
// @Summary Delete the signed-in account
// @Description Remove the account with its profile, posts and comments
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{deleted=bool}
// @Router /users/me [delete]
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	if err := s.accounts.DeleteAccount(c.UserContext(), currentUserID(c)); err != nil {
		return s.respondAppError(c, err)
	}

	// The account is gone; its token should not outlive it.
	s.blacklistCurrentToken(c)

	return c.JSON(fiber.Map{"deleted": true})
}
