package server

import (
	"time"

	"putevoditel/internal/models"
	"putevoditel/internal/service"

	"github.com/gofiber/fiber/v2"
)

func parseGoalInput(c *fiber.Ctx) (service.GoalInput, error) {
	var req service.GoalInput
	if err := c.BodyParser(&req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return req, errResponseWritten
	}
	return req, nil
}

// GetAims handles GET /api/goals/aim
// @Summary List own aims
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.Aim]
// @Failure 401 {object} models.ErrorResponse
// @Router /goals/aim [get]
func (s *Server) GetAims(c *fiber.Ctx) error {
	page, err := s.goalService.ListAims(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// CreateAim handles POST /api/goals/aim
// @Summary Create an aim
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,description=string,deadline=string} true "Aim"
// @Success 201 {object} models.Aim
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /goals/aim [post]
func (s *Server) CreateAim(c *fiber.Ctx) error {
	req, err := parseGoalInput(c)
	if err != nil {
		return nil
	}
	aim, err := s.goalService.CreateAim(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(aim)
}

// GetAim handles GET /api/goals/aim/:id
// @Summary Get an aim
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Aim ID"
// @Success 200 {object} models.Aim
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/aim/{id} [get]
func (s *Server) GetAim(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	aim, err := s.goalService.GetAim(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(aim)
}

// ReplaceAim handles PUT /api/goals/aim/:id
// @Summary Update an aim
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Aim ID"
// @Param request body object{name=string,description=string,deadline=string} true "Aim"
// @Success 200 {object} models.Aim
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/aim/{id} [put]
func (s *Server) ReplaceAim(c *fiber.Ctx) error {
	return s.updateAim(c, false)
}

// PatchAim handles PATCH /api/goals/aim/:id
// @Summary Partially update an aim
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Aim ID"
// @Param request body object{name=string,description=string,deadline=string} true "Aim fields"
// @Success 200 {object} models.Aim
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/aim/{id} [patch]
func (s *Server) PatchAim(c *fiber.Ctx) error {
	return s.updateAim(c, true)
}

func (s *Server) updateAim(c *fiber.Ctx, partial bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := parseGoalInput(c)
	if err != nil {
		return nil
	}
	aim, err := s.goalService.UpdateAim(c.UserContext(), currentUserID(c), id, req, partial)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(aim)
}

// DeleteAim handles DELETE /api/goals/aim/:id
// @Summary Delete an aim
// @Tags goals
// @Security BearerAuth
// @Param id path int true "Aim ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/aim/{id} [delete]
func (s *Server) DeleteAim(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.goalService.DeleteAim(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetDreams handles GET /api/goals/dream
// @Summary List own dreams
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} models.Page[models.Dream]
// @Failure 401 {object} models.ErrorResponse
// @Router /goals/dream [get]
func (s *Server) GetDreams(c *fiber.Ctx) error {
	page, err := s.goalService.ListDreams(c.UserContext(), currentUserID(c), parsePage(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// CreateDream handles POST /api/goals/dream
// @Summary Create a dream
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string,description=string} true "Dream"
// @Success 201 {object} models.Dream
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /goals/dream [post]
func (s *Server) CreateDream(c *fiber.Ctx) error {
	req, err := parseGoalInput(c)
	if err != nil {
		return nil
	}
	dream, err := s.goalService.CreateDream(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dream)
}

// GetDream handles GET /api/goals/dream/:id
// @Summary Get a dream
// @Tags goals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dream ID"
// @Success 200 {object} models.Dream
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/dream/{id} [get]
func (s *Server) GetDream(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	dream, err := s.goalService.GetDream(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(dream)
}

// ReplaceDream handles PUT /api/goals/dream/:id
// @Summary Update a dream
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dream ID"
// @Param request body object{name=string,description=string} true "Dream"
// @Success 200 {object} models.Dream
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/dream/{id} [put]
func (s *Server) ReplaceDream(c *fiber.Ctx) error {
	return s.updateDream(c, false)
}

// PatchDream handles PATCH /api/goals/dream/:id
// @Summary Partially update a dream
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dream ID"
// @Param request body object{name=string,description=string} true "Dream fields"
// @Success 200 {object} models.Dream
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/dream/{id} [patch]
func (s *Server) PatchDream(c *fiber.Ctx) error {
	return s.updateDream(c, true)
}

func (s *Server) updateDream(c *fiber.Ctx, partial bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, err := parseGoalInput(c)
	if err != nil {
		return nil
	}
	dream, err := s.goalService.UpdateDream(c.UserContext(), currentUserID(c), id, req, partial)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(dream)
}

// DeleteDream handles DELETE /api/goals/dream/:id
// @Summary Delete a dream
// @Tags goals
// @Security BearerAuth
// @Param id path int true "Dream ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/dream/{id} [delete]
func (s *Server) DeleteDream(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.goalService.DeleteDream(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ConvertDreamToAim handles POST /api/goals/dream/:id/dream_to_aim
// @Summary Convert a dream into an aim
// @Description The new aim keeps the dream's name, description and creation time. The dream is deleted.
// @Tags goals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Dream ID"
// @Param request body object{deadline=string} true "Deadline (RFC 3339)"
// @Success 201 {object} models.Aim
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /goals/dream/{id}/dream_to_aim [post]
func (s *Server) ConvertDreamToAim(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	// ownership is reported before any complaint about the body
	if _, err := s.goalService.GetDream(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}

	var req struct {
		Deadline *time.Time `json:"deadline"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	aim, err := s.goalService.ConvertDreamToAim(c.UserContext(), currentUserID(c), id, req.Deadline)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(aim)
}
