package server

import (
	"putevoditel/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetSubscribers handles GET /api/user/:slug/subscribers
// @Summary List subscribers of a user
// @Tags subscribers
// @Produce json
// @Param slug path string true "User slug"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.AuthorPage
// @Failure 404 {object} models.ErrorResponse
// @Router /user/{slug}/subscribers [get]
func (s *Server) GetSubscribers(c *fiber.Ctx) error {
	return s.respondAuthorPage(c, fiber.StatusOK)
}

// Subscribe handles POST /api/user/:slug/subscribers
// @Summary Subscribe to an inspirer
// @Description Subscribing twice is not an error and leaves the counter unchanged
// @Tags subscribers
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Inspirer slug"
// @Success 201 {object} models.AuthorPage
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user/{slug}/subscribers [post]
func (s *Server) Subscribe(c *fiber.Ctx) error {
	if _, err := s.subscriptionService.Subscribe(c.UserContext(), currentUserID(c), c.Params("slug")); err != nil {
		return respondServiceError(c, err)
	}
	return s.respondAuthorPage(c, fiber.StatusCreated)
}

// Unsubscribe handles DELETE /api/user/:slug/subscribers
// @Summary Unsubscribe from a user
// @Tags subscribers
// @Security BearerAuth
// @Param slug path string true "User slug"
// @Success 200
// @Failure 401 {object} models.ErrorResponse
// @Router /user/{slug}/subscribers [delete]
func (s *Server) Unsubscribe(c *fiber.Ctx) error {
	if err := s.subscriptionService.Unsubscribe(c.UserContext(), currentUserID(c), c.Params("slug")); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// GetUserAims handles GET /api/user/:slug/aims
// @Summary List aims of a user
// @Tags goals
// @Produce json
// @Param slug path string true "User slug"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.Aim]
// @Failure 404 {object} models.ErrorResponse
// @Router /user/{slug}/aims [get]
func (s *Server) GetUserAims(c *fiber.Ctx) error {
	page, err := s.goalService.ListAimsBySlug(c.UserContext(), c.Params("slug"), parsePage(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

func (s *Server) respondAuthorPage(c *fiber.Ctx, status int) error {
	author, subs, err := s.subscriptionService.ListSubscribers(c.UserContext(), c.Params("slug"), parsePage(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(status).JSON(models.NewAuthorPage(author, subs))
}
