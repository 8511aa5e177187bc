package service

import (
	"context"

	"putevoditel/internal/middleware"
	"putevoditel/internal/models"
	"putevoditel/internal/notifications"
	"putevoditel/internal/observability"
	"putevoditel/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// EventPublisher delivers real-time events to a user's notification channel.
type EventPublisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// SubscriptionService maintains who follows which inspirer.
type SubscriptionService struct {
	subRepo   repository.SubscriberRepository
	userRepo  repository.UserRepository
	publisher EventPublisher
}

// NewSubscriptionService returns a new SubscriptionService. publisher may be nil.
func NewSubscriptionService(subRepo repository.SubscriberRepository, userRepo repository.UserRepository, publisher EventPublisher) *SubscriptionService {
	return &SubscriptionService{
		subRepo:   subRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// Subscribe makes subscriberID a subscriber of the inspirer with authorSlug.
// Subscribing twice is a no-op. It returns the author with the current count.
func (s *SubscriptionService) Subscribe(ctx context.Context, subscriberID uint, authorSlug string) (author *models.User, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "SubscriptionService", "Subscribe",
		attribute.Int64("subscriber.id", int64(subscriberID)),
		attribute.String("author.slug", authorSlug),
	)
	defer func() { observability.EndSpan(span, err) }()

	if subscriberID == 0 {
		return nil, models.NewUnauthorizedError("User is not authenticated")
	}
	target, err := s.userRepo.GetBySlug(ctx, authorSlug)
	if err != nil {
		return nil, err
	}
	if !target.IsInspirer() {
		return nil, models.NewForbiddenError("You are not allowed to subscribe to this user")
	}

	author, created, err := s.subRepo.Subscribe(ctx, target.ID, subscriberID)
	if err != nil {
		return nil, err
	}
	if !created {
		observability.SubscriptionEvents.WithLabelValues("existing").Inc()
		return author, nil
	}

	observability.SubscriptionEvents.WithLabelValues("created").Inc()
	s.notifySubscribed(ctx, author, subscriberID)
	return author, nil
}

// Unsubscribe removes the subscription if there is one. An unknown author or
// a missing subscription is not an error.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriberID uint, authorSlug string) (err error) {
	ctx, span := observability.StartServiceSpan(ctx, "SubscriptionService", "Unsubscribe",
		attribute.Int64("subscriber.id", int64(subscriberID)),
		attribute.String("author.slug", authorSlug),
	)
	defer func() { observability.EndSpan(span, err) }()

	if subscriberID == 0 {
		return models.NewUnauthorizedError("User is not authenticated")
	}
	author, err := s.userRepo.GetBySlug(ctx, authorSlug)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			observability.SubscriptionEvents.WithLabelValues("absent").Inc()
			return nil
		}
		return err
	}

	deleted, err := s.subRepo.Unsubscribe(ctx, author.ID, subscriberID)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return nil
		}
		return err
	}
	if deleted {
		observability.SubscriptionEvents.WithLabelValues("deleted").Inc()
	} else {
		observability.SubscriptionEvents.WithLabelValues("absent").Inc()
	}
	return nil
}

// ListSubscribers returns the author with one page of their subscribers.
// The slug lookup may be served from cache; the returned author and its
// subscriber_count come from the same read as the page.
func (s *SubscriptionService) ListSubscribers(ctx context.Context, authorSlug string, page models.PageRequest) (*models.User, models.Page[models.Subscriber], error) {
	target, err := s.userRepo.GetBySlug(ctx, authorSlug)
	if err != nil {
		return nil, models.Page[models.Subscriber]{}, err
	}
	return s.subRepo.ListByAuthor(ctx, target.ID, page)
}

// Recount rewrites one author's counter from the subscription rows.
func (s *SubscriptionService) Recount(ctx context.Context, authorID uint) (int, error) {
	return s.subRepo.Recount(ctx, authorID)
}

// RecountResult is the outcome of recounting one user.
type RecountResult struct {
	UserID uint
	Count  int
}

// RecountAll recounts every user and returns the new counters.
func (s *SubscriptionService) RecountAll(ctx context.Context) ([]RecountResult, error) {
	ids, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RecountResult, 0, len(ids))
	for _, id := range ids {
		n, err := s.subRepo.Recount(ctx, id)
		if err != nil {
			return out, err
		}
		out = append(out, RecountResult{UserID: id, Count: n})
	}
	return out, nil
}

// notifySubscribed publishes the new-subscriber event after commit. Failures
// are logged and never reach the caller.
func (s *SubscriptionService) notifySubscribed(ctx context.Context, author *models.User, subscriberID uint) {
	if s.publisher == nil {
		return
	}
	subscriber, err := s.userRepo.GetByID(ctx, subscriberID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "load subscriber for notification", "error", err)
		return
	}
	payload, err := notifications.Encode(notifications.EventSubscriberCreated, notifications.SubscriberCreated{
		AuthorSlug:      author.Slug,
		SubscriberCount: author.SubscriberCount,
		Email:           subscriber.Email,
		FirstName:       subscriber.FirstName,
		LastName:        subscriber.LastName,
	})
	if err != nil {
		middleware.Logger.WarnContext(ctx, "encode subscriber event", "error", err)
		return
	}
	if err := s.publisher.PublishUser(ctx, author.ID, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "publish subscriber event", "author_id", author.ID, "error", err)
	}
}
