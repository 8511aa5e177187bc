package service

import (
	"context"
	"strings"
	"time"

	"putevoditel/internal/featureflags"
	"putevoditel/internal/models"
	"putevoditel/internal/observability"
	"putevoditel/internal/repository"
	"putevoditel/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// GoalInput is the body of dream and aim writes. Deadline is ignored for dreams.
type GoalInput struct {
	Name        models.Optional[string]    `json:"name"`
	Description models.Optional[string]    `json:"description"`
	Deadline    models.Optional[time.Time] `json:"deadline"`
}

func (in GoalInput) validate(partial, withDeadline bool) error {
	if !partial {
		if !in.Name.Set || !in.Description.Set {
			return models.NewValidationError("name and description are required")
		}
		if withDeadline && !in.Deadline.Set {
			return models.NewValidationError("deadline is required")
		}
	}
	if in.Name.Set {
		if err := validation.ValidateRequired("name", in.Name.Value, maxNameLen); err != nil {
			return models.NewValidationError(err.Error())
		}
	}
	if in.Description.Set && in.Description.Value == "" {
		return models.NewValidationError("description is required")
	}
	if withDeadline && in.Deadline.Set && (in.Deadline.Null || in.Deadline.Value.IsZero()) {
		return models.NewValidationError("deadline is required")
	}
	return nil
}

// GoalService manages the dreams and aims of their owners.
type GoalService struct {
	goalRepo repository.GoalRepository
	userRepo repository.UserRepository
	flags    *featureflags.Manager
}

// NewGoalService returns a new GoalService. flags may be nil.
func NewGoalService(goalRepo repository.GoalRepository, userRepo repository.UserRepository, flags *featureflags.Manager) *GoalService {
	return &GoalService{goalRepo: goalRepo, userRepo: userRepo, flags: flags}
}

func requireOwner(ownerID uint) error {
	if ownerID == 0 {
		return models.NewUnauthorizedError("User is not authenticated")
	}
	return nil
}

// foreign is the error for a goal that exists but belongs to someone else.
func (s *GoalService) foreign(resource string, id uint) error {
	if s.flags.Enabled(featureflags.MaskForeignGoals) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewForbiddenError("You can't change " + strings.ToLower(resource) + " of other user")
}

func (s *GoalService) ownDream(ctx context.Context, ownerID, id uint) (*models.Dream, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	dream, err := s.goalRepo.GetDream(ctx, id)
	if err != nil {
		return nil, err
	}
	if dream.UserID != ownerID {
		return nil, s.foreign("Dream", id)
	}
	return dream, nil
}

func (s *GoalService) ownAim(ctx context.Context, ownerID, id uint) (*models.Aim, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	aim, err := s.goalRepo.GetAim(ctx, id)
	if err != nil {
		return nil, err
	}
	if aim.UserID != ownerID {
		return nil, s.foreign("Aim", id)
	}
	return aim, nil
}

func (s *GoalService) CreateDream(ctx context.Context, ownerID uint, in GoalInput) (*models.Dream, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := in.validate(false, false); err != nil {
		return nil, err
	}
	dream := &models.Dream{UserID: ownerID, Name: in.Name.Value, Description: in.Description.Value}
	if err := s.goalRepo.CreateDream(ctx, dream); err != nil {
		return nil, err
	}
	return dream, nil
}

func (s *GoalService) CreateAim(ctx context.Context, ownerID uint, in GoalInput) (*models.Aim, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := in.validate(false, true); err != nil {
		return nil, err
	}
	aim := &models.Aim{
		UserID:      ownerID,
		Name:        in.Name.Value,
		Description: in.Description.Value,
		Deadline:    in.Deadline.Value,
	}
	if err := s.goalRepo.CreateAim(ctx, aim); err != nil {
		return nil, err
	}
	return aim, nil
}

func (s *GoalService) GetDream(ctx context.Context, ownerID, id uint) (*models.Dream, error) {
	return s.ownDream(ctx, ownerID, id)
}

func (s *GoalService) GetAim(ctx context.Context, ownerID, id uint) (*models.Aim, error) {
	return s.ownAim(ctx, ownerID, id)
}

func (s *GoalService) ListDreams(ctx context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Dream], error) {
	if err := requireOwner(ownerID); err != nil {
		return models.Page[models.Dream]{}, err
	}
	return s.goalRepo.ListDreams(ctx, ownerID, page)
}

func (s *GoalService) ListAims(ctx context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Aim], error) {
	if err := requireOwner(ownerID); err != nil {
		return models.Page[models.Aim]{}, err
	}
	return s.goalRepo.ListAims(ctx, ownerID, page)
}

// ListAimsBySlug is the public listing of a user's aims.
func (s *GoalService) ListAimsBySlug(ctx context.Context, slug string, page models.PageRequest) (models.Page[models.Aim], error) {
	if err := validation.ValidateSlug(slug); err != nil {
		return models.Page[models.Aim]{}, models.NewNotFoundError("User", slug)
	}
	user, err := s.userRepo.GetBySlug(ctx, slug)
	if err != nil {
		return models.Page[models.Aim]{}, err
	}
	return s.goalRepo.ListAims(ctx, user.ID, page)
}

func (s *GoalService) UpdateDream(ctx context.Context, ownerID, id uint, in GoalInput, partial bool) (*models.Dream, error) {
	dream, err := s.ownDream(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(partial, false); err != nil {
		return nil, err
	}
	if in.Name.Set {
		dream.Name = in.Name.Value
	}
	if in.Description.Set {
		dream.Description = in.Description.Value
	}
	if err := s.goalRepo.UpdateDream(ctx, dream); err != nil {
		return nil, err
	}
	return dream, nil
}

func (s *GoalService) UpdateAim(ctx context.Context, ownerID, id uint, in GoalInput, partial bool) (*models.Aim, error) {
	aim, err := s.ownAim(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(partial, true); err != nil {
		return nil, err
	}
	if in.Name.Set {
		aim.Name = in.Name.Value
	}
	if in.Description.Set {
		aim.Description = in.Description.Value
	}
	if in.Deadline.Set {
		aim.Deadline = in.Deadline.Value
	}
	if err := s.goalRepo.UpdateAim(ctx, aim); err != nil {
		return nil, err
	}
	return aim, nil
}

func (s *GoalService) DeleteDream(ctx context.Context, ownerID, id uint) error {
	if _, err := s.ownDream(ctx, ownerID, id); err != nil {
		return err
	}
	return s.goalRepo.DeleteDream(ctx, id)
}

func (s *GoalService) DeleteAim(ctx context.Context, ownerID, id uint) error {
	if _, err := s.ownAim(ctx, ownerID, id); err != nil {
		return err
	}
	return s.goalRepo.DeleteAim(ctx, id)
}

// ConvertDreamToAim turns the owner's dream into an aim with deadline. The
// dream is gone afterwards; nothing changes when any step fails.
func (s *GoalService) ConvertDreamToAim(ctx context.Context, ownerID, dreamID uint, deadline *time.Time) (aim *models.Aim, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "GoalService", "ConvertDreamToAim",
		attribute.Int64("user.id", int64(ownerID)),
		attribute.Int64("dream.id", int64(dreamID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.ownDream(ctx, ownerID, dreamID); err != nil {
		return nil, err
	}
	if deadline == nil || deadline.IsZero() {
		return nil, models.NewValidationError("deadline is required")
	}

	aim, err = s.goalRepo.ConvertDreamToAim(ctx, dreamID, ownerID, *deadline)
	if err != nil {
		if models.ErrorCode(err) == models.CodeForbidden {
			return nil, s.foreign("Dream", dreamID)
		}
		return nil, err
	}
	observability.GoalConversions.Inc()
	return aim, nil
}
