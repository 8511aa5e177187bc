package service

import (
	"context"
	"testing"
	"time"

	"putevoditel/internal/featureflags"
	"putevoditel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDream(t *testing.T, repo *goalRepoStub, ownerID uint) *models.Dream {
	t.Helper()
	d := &models.Dream{UserID: ownerID, Name: "Sail", Description: "Cross the Baltic"}
	require.NoError(t, repo.CreateDream(context.Background(), d))
	return d
}

func TestGoalService_CreateValidation(t *testing.T) {
	svc := NewGoalService(newGoalRepoStub(), noopUserRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreateDream(ctx, 0, GoalInput{Name: models.Some("x"), Description: models.Some("y")})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.CreateDream(ctx, 1, GoalInput{Description: models.Some("y")})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.CreateAim(ctx, 1, GoalInput{Name: models.Some("x"), Description: models.Some("y")})
	assertCode(t, err, models.CodeValidation)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.CreateDream(ctx, 1, GoalInput{Name: models.Some(string(long)), Description: models.Some("y")})
	assertCode(t, err, models.CodeValidation)

	aim, err := svc.CreateAim(ctx, 1, GoalInput{
		Name:        models.Some("Run"),
		Description: models.Some("Marathon"),
		Deadline:    models.Some(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), aim.UserID)
}

func TestGoalService_ForeignGoalIsForbidden(t *testing.T) {
	repo := newGoalRepoStub()
	svc := NewGoalService(repo, noopUserRepo(), nil)
	dream := seedDream(t, repo, 1)

	_, err := svc.GetDream(context.Background(), 2, dream.ID)
	assertCode(t, err, models.CodeForbidden)

	err = svc.DeleteDream(context.Background(), 2, dream.ID)
	assertCode(t, err, models.CodeForbidden)
	assert.Zero(t, repo.deleteCalls)

	_, err = svc.GetDream(context.Background(), 2, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestGoalService_MaskForeignGoals(t *testing.T) {
	repo := newGoalRepoStub()
	svc := NewGoalService(repo, noopUserRepo(), featureflags.NewManager("mask_foreign_goals=on"))
	dream := seedDream(t, repo, 1)

	_, err := svc.GetDream(context.Background(), 2, dream.ID)
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.ConvertDreamToAim(context.Background(), 2, dream.ID, nil)
	assertCode(t, err, models.CodeNotFound)
}

func TestGoalService_UpdateDream(t *testing.T) {
	repo := newGoalRepoStub()
	svc := NewGoalService(repo, noopUserRepo(), nil)
	ctx := context.Background()
	dream := seedDream(t, repo, 1)

	updated, err := svc.UpdateDream(ctx, 1, dream.ID, GoalInput{Description: models.Some("Sail around Europe")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Sail", updated.Name)
	assert.Equal(t, "Sail around Europe", updated.Description)

	_, err = svc.UpdateDream(ctx, 1, dream.ID, GoalInput{Description: models.Some("only")}, false)
	assertCode(t, err, models.CodeValidation)

	_, err = svc.UpdateDream(ctx, 1, dream.ID, GoalInput{Name: models.Some("")}, true)
	assertCode(t, err, models.CodeValidation)
}

func TestGoalService_UpdateAimDeadline(t *testing.T) {
	repo := newGoalRepoStub()
	svc := NewGoalService(repo, noopUserRepo(), nil)
	ctx := context.Background()

	aim, err := svc.CreateAim(ctx, 1, GoalInput{
		Name: models.Some("Run"), Description: models.Some("10k"), Deadline: models.Some(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	_, err = svc.UpdateAim(ctx, 1, aim.ID, GoalInput{Deadline: models.Optional[time.Time]{Set: true, Null: true}}, true)
	assertCode(t, err, models.CodeValidation)

	later := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdateAim(ctx, 1, aim.ID, GoalInput{Deadline: models.Some(later)}, true)
	require.NoError(t, err)
	assert.True(t, updated.Deadline.Equal(later))
	assert.Equal(t, "Run", updated.Name)
}

func TestGoalService_ConvertDreamToAim(t *testing.T) {
	repo := newGoalRepoStub()
	svc := NewGoalService(repo, noopUserRepo(), nil)
	ctx := context.Background()
	dream := seedDream(t, repo, 1)

	deadline := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	aim, err := svc.ConvertDreamToAim(ctx, 1, dream.ID, &deadline)
	require.NoError(t, err)
	assert.Equal(t, dream.Name, aim.Name)
	assert.Equal(t, dream.Description, aim.Description)
	assert.True(t, aim.CreatedAt.Equal(dream.CreatedAt))
	assert.True(t, aim.Deadline.Equal(deadline))

	_, err = svc.GetDream(ctx, 1, dream.ID)
	assertCode(t, err, models.CodeNotFound)
}

func TestGoalService_ConvertRejectionsLeaveDream(t *testing.T) {
	repo := newGoalRepoStub()
	svc := NewGoalService(repo, noopUserRepo(), nil)
	ctx := context.Background()
	dream := seedDream(t, repo, 1)
	deadline := time.Now().Add(time.Hour)

	_, err := svc.ConvertDreamToAim(ctx, 2, dream.ID, &deadline)
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.ConvertDreamToAim(ctx, 1, dream.ID, nil)
	assertCode(t, err, models.CodeValidation)

	_, err = svc.ConvertDreamToAim(ctx, 0, dream.ID, &deadline)
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.ConvertDreamToAim(ctx, 1, 404, &deadline)
	assertCode(t, err, models.CodeNotFound)

	assert.Zero(t, repo.convertCalls)
	assert.Len(t, repo.dreams, 1)
	assert.Empty(t, repo.aims)
}

func TestGoalService_ListAimsBySlug(t *testing.T) {
	repo := newGoalRepoStub()
	users := noopUserRepo()
	users.getBySlugFn = func(_ context.Context, slug string) (*models.User, error) {
		return &models.User{ID: 5, Slug: slug}, nil
	}
	svc := NewGoalService(repo, users, nil)
	ctx := context.Background()

	_, err := svc.CreateAim(ctx, 5, GoalInput{
		Name: models.Some("Run"), Description: models.Some("10k"), Deadline: models.Some(time.Now()),
	})
	require.NoError(t, err)

	page, err := svc.ListAimsBySlug(ctx, "abcdefghijklmnopqrst", models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Count)

	_, err = svc.ListAimsBySlug(ctx, "bad slug", models.PageRequest{})
	assertCode(t, err, models.CodeNotFound)
}
