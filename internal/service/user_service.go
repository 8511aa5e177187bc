// Package service holds the business rules of the application. Services
// validate input, enforce ownership and capabilities, and delegate
// persistence to the repository package.
package service

import (
	"context"
	"strings"

	"putevoditel/internal/models"
	"putevoditel/internal/observability"
	"putevoditel/internal/repository"
	"putevoditel/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxNameLen      = 255
	maxWhoAmILen    = 50
	maxWhatIWantLen = 100
)

// UserService manages accounts and the Putevoditel profile form.
type UserService struct {
	userRepo repository.UserRepository
	media    *MediaService
	hashCost int
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, media *MediaService) *UserService {
	return &UserService{
		userRepo: userRepo,
		media:    media,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates an account. The password hash and the slug are written
// by the same INSERT.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "Register")
	defer func() { observability.EndSpan(span, err) }()

	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateRequired("first_name", in.FirstName, maxNameLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateRequired("last_name", in.LastName, maxNameLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Email:     in.Email,
		Username:  in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	observability.Registrations.Inc()
	return user, nil
}

// Authenticate returns the user owning email when password matches.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetBySlug(ctx context.Context, slug string) (*models.User, error) {
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewNotFoundError("User", slug)
	}
	return s.userRepo.GetBySlug(ctx, slug)
}

// GetProfile returns the profile form of userID.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.ProfileView, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("User is not authenticated")
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileView(ctx, user)
}

// UpdateProfile applies the fields present in in. A full update (partial ==
// false) requires first_name and last_name; fields absent from the request
// are left untouched in both modes.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput, partial bool) (view *models.ProfileView, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "UserService", "UpdateProfile",
		attribute.Int64("user.id", int64(userID)),
		attribute.Bool("partial", partial),
	)
	defer func() { observability.EndSpan(span, err) }()

	if userID == 0 {
		return nil, models.NewUnauthorizedError("User is not authenticated")
	}
	if !partial {
		if !in.FirstName.Set || !in.LastName.Set {
			return nil, models.NewValidationError("first_name and last_name are required")
		}
	}
	if err := in.Validate(); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	columns := in.Apply(user)
	if err := s.userRepo.UpdateProfile(ctx, user, columns); err != nil {
		return nil, err
	}
	return s.profileView(ctx, user)
}

func (s *UserService) profileView(ctx context.Context, user *models.User) (*models.ProfileView, error) {
	urls, err := s.media.ListImages(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	view := user.Form(urls)
	return &view, nil
}

// SetCapability grants or revokes a capability. It reports whether the user
// row changed.
func (s *UserService) SetCapability(ctx context.Context, userID uint, capability string, granted bool) (*models.User, bool, error) {
	switch capability {
	case models.CapabilityInspirer, models.CapabilityAdmin:
	default:
		return nil, false, models.NewValidationError("Unknown capability: " + capability)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	var changed bool
	if granted {
		changed = user.Grant(capability)
	} else {
		changed = user.Revoke(capability)
	}
	if !changed {
		return user, false, nil
	}
	if err := s.userRepo.UpdateCapabilities(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// ListWithCapability returns every user holding capability.
func (s *UserService) ListWithCapability(ctx context.Context, capability string) ([]models.User, error) {
	return s.userRepo.ListWithCapability(ctx, capability)
}

// normalizeEmail trims the address and lowercases its domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
