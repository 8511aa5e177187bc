package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"putevoditel/internal/models"
)

type userRepoStub struct {
	createFn             func(context.Context, *models.User) error
	getByIDFn            func(context.Context, uint) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	getBySlugFn          func(context.Context, string) (*models.User, error)
	updateProfileFn      func(context.Context, *models.User, []string) error
	updateCapabilitiesFn func(context.Context, *models.User) error
	listWithCapabilityFn func(context.Context, string) ([]models.User, error)
	listIDsFn            func(context.Context) ([]uint, error)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetBySlug(ctx context.Context, slug string) (*models.User, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User, columns []string) error {
	return s.updateProfileFn(ctx, user, columns)
}
func (s *userRepoStub) UpdateCapabilities(ctx context.Context, user *models.User) error {
	return s.updateCapabilitiesFn(ctx, user)
}
func (s *userRepoStub) ListWithCapability(ctx context.Context, capability string) ([]models.User, error) {
	return s.listWithCapabilityFn(ctx, capability)
}
func (s *userRepoStub) ListIDs(ctx context.Context) ([]uint, error) {
	return s.listIDsFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:             func(context.Context, *models.User) error { return nil },
		getByIDFn:            func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:         func(context.Context, string) (*models.User, error) { return nil, nil },
		getBySlugFn:          func(context.Context, string) (*models.User, error) { return &models.User{}, nil },
		updateProfileFn:      func(context.Context, *models.User, []string) error { return nil },
		updateCapabilitiesFn: func(context.Context, *models.User) error { return nil },
		listWithCapabilityFn: func(context.Context, string) ([]models.User, error) { return nil, nil },
		listIDsFn:            func(context.Context) ([]uint, error) { return nil, nil },
	}
}

type subscriberRepoStub struct {
	subscribeFn    func(context.Context, uint, uint) (*models.User, bool, error)
	unsubscribeFn  func(context.Context, uint, uint) (bool, error)
	listByAuthorFn func(context.Context, uint, models.PageRequest) (*models.User, models.Page[models.Subscriber], error)
	existsFn       func(context.Context, uint, uint) (bool, error)
	recountFn      func(context.Context, uint) (int, error)
}

func (s *subscriberRepoStub) Subscribe(ctx context.Context, authorID, userID uint) (*models.User, bool, error) {
	return s.subscribeFn(ctx, authorID, userID)
}
func (s *subscriberRepoStub) Unsubscribe(ctx context.Context, authorID, userID uint) (bool, error) {
	return s.unsubscribeFn(ctx, authorID, userID)
}
func (s *subscriberRepoStub) ListByAuthor(ctx context.Context, authorID uint, page models.PageRequest) (*models.User, models.Page[models.Subscriber], error) {
	return s.listByAuthorFn(ctx, authorID, page)
}
func (s *subscriberRepoStub) Exists(ctx context.Context, authorID, userID uint) (bool, error) {
	return s.existsFn(ctx, authorID, userID)
}
func (s *subscriberRepoStub) Recount(ctx context.Context, authorID uint) (int, error) {
	return s.recountFn(ctx, authorID)
}

func failingSubscriberRepo(t *testing.T) *subscriberRepoStub {
	fail := func() { t.Helper(); t.Fatal("subscriber repository must not be called") }
	return &subscriberRepoStub{
		subscribeFn: func(context.Context, uint, uint) (*models.User, bool, error) {
			fail()
			return nil, false, nil
		},
		unsubscribeFn: func(context.Context, uint, uint) (bool, error) { fail(); return false, nil },
		listByAuthorFn: func(context.Context, uint, models.PageRequest) (*models.User, models.Page[models.Subscriber], error) {
			fail()
			return nil, models.Page[models.Subscriber]{}, nil
		},
		existsFn:  func(context.Context, uint, uint) (bool, error) { fail(); return false, nil },
		recountFn: func(context.Context, uint) (int, error) { fail(); return 0, nil },
	}
}

type goalRepoStub struct {
	dreams map[uint]*models.Dream
	aims   map[uint]*models.Aim
	nextID uint

	convertCalls int
	deleteCalls  int
}

func newGoalRepoStub() *goalRepoStub {
	return &goalRepoStub{dreams: map[uint]*models.Dream{}, aims: map[uint]*models.Aim{}, nextID: 1}
}

func (s *goalRepoStub) CreateDream(_ context.Context, d *models.Dream) error {
	d.ID = s.nextID
	s.nextID++
	d.CreatedAt = time.Now().UTC()
	cp := *d
	s.dreams[d.ID] = &cp
	return nil
}
func (s *goalRepoStub) CreateAim(_ context.Context, a *models.Aim) error {
	a.ID = s.nextID
	s.nextID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	s.aims[a.ID] = &cp
	return nil
}
func (s *goalRepoStub) GetDream(_ context.Context, id uint) (*models.Dream, error) {
	d, ok := s.dreams[id]
	if !ok {
		return nil, models.NewNotFoundError("Dream", id)
	}
	cp := *d
	return &cp, nil
}
func (s *goalRepoStub) GetAim(_ context.Context, id uint) (*models.Aim, error) {
	a, ok := s.aims[id]
	if !ok {
		return nil, models.NewNotFoundError("Aim", id)
	}
	cp := *a
	return &cp, nil
}
func (s *goalRepoStub) ListDreams(_ context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Dream], error) {
	var out []models.Dream
	for _, d := range s.dreams {
		if d.UserID == ownerID {
			out = append(out, *d)
		}
	}
	return models.NewPage(out, int64(len(out)), page), nil
}
func (s *goalRepoStub) ListAims(_ context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Aim], error) {
	var out []models.Aim
	for _, a := range s.aims {
		if a.UserID == ownerID {
			out = append(out, *a)
		}
	}
	return models.NewPage(out, int64(len(out)), page), nil
}
func (s *goalRepoStub) UpdateDream(_ context.Context, d *models.Dream) error {
	cp := *d
	s.dreams[d.ID] = &cp
	return nil
}
func (s *goalRepoStub) UpdateAim(_ context.Context, a *models.Aim) error {
	cp := *a
	s.aims[a.ID] = &cp
	return nil
}
func (s *goalRepoStub) DeleteDream(_ context.Context, id uint) error {
	s.deleteCalls++
	delete(s.dreams, id)
	return nil
}
func (s *goalRepoStub) DeleteAim(_ context.Context, id uint) error {
	s.deleteCalls++
	delete(s.aims, id)
	return nil
}
func (s *goalRepoStub) ConvertDreamToAim(ctx context.Context, dreamID, ownerID uint, deadline time.Time) (*models.Aim, error) {
	s.convertCalls++
	d, ok := s.dreams[dreamID]
	if !ok {
		return nil, models.NewNotFoundError("Dream", dreamID)
	}
	if d.UserID != ownerID {
		return nil, models.NewForbiddenError("You do not own this dream")
	}
	aim := d.ToAim(deadline)
	if err := s.CreateAim(ctx, aim); err != nil {
		return nil, err
	}
	delete(s.dreams, dreamID)
	return aim, nil
}

type publisherStub struct {
	mu       sync.Mutex
	err      error
	messages map[uint][]string
}

func (p *publisherStub) PublishUser(_ context.Context, userID uint, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.messages == nil {
		p.messages = map[uint][]string{}
	}
	p.messages[userID] = append(p.messages[userID], payload)
	return nil
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s app error, got %#v", code, err)
	}
}
