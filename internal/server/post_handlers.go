package server

import (
	"putevoditel/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description All posts, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.PostView]
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), parsePage(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// CreatePost handles POST /api/posts
// @Summary Publish a post
// @Description Only inspirers may publish
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Post name"
// @Param description formData string true "Post description"
// @Param video formData file true "Video file"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	video, err := readUpload(c, "video")
	if err != nil {
		return respondServiceError(c, err)
	}

	view, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		CreatorID:   currentUserID(c),
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Video:       video,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}
