package server

import (
	"putevoditel/internal/models"
	"putevoditel/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/user/form
// @Summary Get the Putevoditel form
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProfileView
// @Failure 401 {object} models.ErrorResponse
// @Router /user/form [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	view, err := s.userService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(view)
}

// ReplaceProfile handles PUT /api/user/form
// @Summary Update the Putevoditel form
// @Description first_name and last_name are required
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProfileInput true "Profile form"
// @Success 200 {object} models.ProfileView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user/form [put]
func (s *Server) ReplaceProfile(c *fiber.Ctx) error {
	return s.updateProfile(c, false)
}

// PatchProfile handles PATCH /api/user/form
// @Summary Partially update the Putevoditel form
// @Description Only fields present in the body change; null clears a score
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ProfileInput true "Profile fields"
// @Success 200 {object} models.ProfileView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user/form [patch]
func (s *Server) PatchProfile(c *fiber.Ctx) error {
	return s.updateProfile(c, true)
}

func (s *Server) updateProfile(c *fiber.Ctx, partial bool) error {
	var req service.ProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	view, err := s.userService.UpdateProfile(c.UserContext(), currentUserID(c), req, partial)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(view)
}

// UploadFormImage handles POST /api/user/form/image
// @Summary Attach an image to the Putevoditel form
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image (JPEG, PNG, GIF or WebP)"
// @Success 201 {object} object{id=int,image=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user/form/image [post]
func (s *Server) UploadFormImage(c *fiber.Ctx) error {
	upload, err := readUpload(c, "image")
	if err != nil {
		return respondServiceError(c, err)
	}

	assoc, err := s.mediaService.AddImage(c.UserContext(), currentUserID(c), upload)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    assoc.ID,
		"image": s.store.URL(assoc.Image),
	})
}
