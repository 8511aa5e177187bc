package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"putevoditel/internal/models"
	"putevoditel/internal/notifications"
	"putevoditel/internal/repository"
	"putevoditel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inspirerBySlug(users *userRepoStub, author *models.User) {
	users.getBySlugFn = func(_ context.Context, slug string) (*models.User, error) {
		if slug != author.Slug {
			return nil, models.NewNotFoundError("User", slug)
		}
		cp := *author
		return &cp, nil
	}
}

func TestSubscriptionService_RequiresAuthentication(t *testing.T) {
	svc := NewSubscriptionService(failingSubscriberRepo(t), noopUserRepo(), nil)

	_, err := svc.Subscribe(context.Background(), 0, "aaaaaaaaaaaaaaaaaaaa")
	assertCode(t, err, models.CodeUnauthorized)

	err = svc.Unsubscribe(context.Background(), 0, "aaaaaaaaaaaaaaaaaaaa")
	assertCode(t, err, models.CodeUnauthorized)
}

func TestSubscriptionService_RejectsNonInspirer(t *testing.T) {
	users := noopUserRepo()
	inspirerBySlug(users, &models.User{ID: 2, Slug: "plainplainplainplain"})
	svc := NewSubscriptionService(failingSubscriberRepo(t), users, nil)

	_, err := svc.Subscribe(context.Background(), 1, "plainplainplainplain")
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.Subscribe(context.Background(), 1, "missingmissingmissin")
	assertCode(t, err, models.CodeNotFound)
}

func TestSubscriptionService_PublishesOnlyOnCreation(t *testing.T) {
	author := &models.User{ID: 2, Slug: "inspirerinspirerinsp", Capabilities: []string{models.CapabilityInspirer}}
	users := noopUserRepo()
	inspirerBySlug(users, author)
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Email: "fan@example.com", FirstName: "Fan"}, nil
	}

	created := true
	subs := failingSubscriberRepo(t)
	subs.subscribeFn = func(_ context.Context, authorID, userID uint) (*models.User, bool, error) {
		assert.Equal(t, uint(2), authorID)
		assert.Equal(t, uint(1), userID)
		return &models.User{ID: 2, Slug: author.Slug, SubscriberCount: 1}, created, nil
	}

	pub := &publisherStub{}
	svc := NewSubscriptionService(subs, users, pub)

	got, err := svc.Subscribe(context.Background(), 1, author.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SubscriberCount)
	require.Len(t, pub.messages[2], 1)

	var event struct {
		Type    string                          `json:"type"`
		Payload notifications.SubscriberCreated `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(pub.messages[2][0]), &event))
	assert.Equal(t, notifications.EventSubscriberCreated, event.Type)
	assert.Equal(t, "fan@example.com", event.Payload.Email)
	assert.Equal(t, 1, event.Payload.SubscriberCount)

	created = false
	_, err = svc.Subscribe(context.Background(), 1, author.Slug)
	require.NoError(t, err)
	assert.Len(t, pub.messages[2], 1)
}

func TestSubscriptionService_PublishFailureIsNotAnError(t *testing.T) {
	author := &models.User{ID: 2, Slug: "inspirerinspirerinsp", Capabilities: []string{models.CapabilityInspirer}}
	users := noopUserRepo()
	inspirerBySlug(users, author)
	subs := failingSubscriberRepo(t)
	subs.subscribeFn = func(context.Context, uint, uint) (*models.User, bool, error) {
		return author, true, nil
	}

	svc := NewSubscriptionService(subs, users, &publisherStub{err: errors.New("redis down")})
	_, err := svc.Subscribe(context.Background(), 1, author.Slug)
	assert.NoError(t, err)
}

func TestSubscriptionService_UnsubscribeUnknownAuthorIsNoop(t *testing.T) {
	users := noopUserRepo()
	users.getBySlugFn = func(_ context.Context, slug string) (*models.User, error) {
		return nil, models.NewNotFoundError("User", slug)
	}
	svc := NewSubscriptionService(failingSubscriberRepo(t), users, nil)

	assert.NoError(t, svc.Unsubscribe(context.Background(), 1, "missingmissingmissin"))
}

func TestSubscriptionService_CounterMatchesRows(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	users := repository.NewUserRepository(db)
	subs := repository.NewSubscriberRepository(db)
	svc := NewSubscriptionService(subs, users, &publisherStub{})
	ctx := context.Background()

	author := testutil.CreateUser(t, db, models.CapabilityInspirer)
	fans := make([]*models.User, 6)
	for i := range fans {
		fans[i] = testutil.CreateUser(t, db)
	}

	var wg sync.WaitGroup
	for i, fan := range fans {
		wg.Add(2)
		go func(id uint) {
			defer wg.Done()
			_, err := svc.Subscribe(ctx, id, author.Slug)
			assert.NoError(t, err)
		}(fan.ID)
		go func(id uint, leave bool) {
			defer wg.Done()
			if leave {
				assert.NoError(t, svc.Unsubscribe(ctx, id, author.Slug))
				return
			}
			_, err := svc.Subscribe(ctx, id, author.Slug)
			assert.NoError(t, err)
		}(fan.ID, i%2 == 0)
	}
	wg.Wait()

	got, page, err := svc.ListSubscribers(ctx, author.Slug, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int(page.Count), got.SubscriberCount)

	results, err := svc.RecountAll(ctx)
	require.NoError(t, err)
	assert.Len(t, results, len(fans)+1)
	for _, r := range results {
		if r.UserID == author.ID {
			assert.Equal(t, int(page.Count), r.Count)
		}
	}
}
