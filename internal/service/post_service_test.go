package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"putevoditel/internal/cache"
	"putevoditel/internal/config"
	"putevoditel/internal/models"
	"putevoditel/internal/repository"
	"putevoditel/internal/storage"
	"putevoditel/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var sampleMP4 = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom-sample")

func videoUpload() *storage.Upload {
	return &storage.Upload{Filename: "clip.mp4", ContentType: "video/mp4", Content: sampleMP4}
}

func newPostService(t *testing.T) (*PostService, *gorm.DB, *storage.Store) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store := storage.NewStore(&config.Config{MediaRoot: t.TempDir()})
	svc := NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db), store)
	return svc, db, store
}

func TestPostService_CreatePost(t *testing.T) {
	svc, db, store := newPostService(t)
	inspirer := testutil.CreateUser(t, db, models.CapabilityInspirer)

	view, err := svc.CreatePost(context.Background(), CreatePostInput{
		CreatorID:   inspirer.ID,
		Name:        "  Morning run  ",
		Description: "Five kilometres before breakfast",
		Video:       videoUpload(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Morning run", view.Name)
	assert.Equal(t, inspirer.Email, view.Creator.Email)
	assert.True(t, strings.HasPrefix(view.Video, storage.URLPrefix+"/videos/"), view.Video)

	rel := strings.TrimPrefix(view.Video, storage.URLPrefix+"/")
	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(rel)))
	assert.NoError(t, err)
}

func TestPostService_CreatePostRejects(t *testing.T) {
	svc, db, store := newPostService(t)
	ctx := context.Background()
	regular := testutil.CreateUser(t, db)
	inspirer := testutil.CreateUser(t, db, models.CapabilityInspirer)

	_, err := svc.CreatePost(ctx, CreatePostInput{Name: "x", Description: "y", Video: videoUpload()})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.CreatePost(ctx, CreatePostInput{CreatorID: regular.ID, Name: "x", Description: "y", Video: videoUpload()})
	assertCode(t, err, models.CodeForbidden)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "You can't create post", appErr.Message)

	invalid := []CreatePostInput{
		{CreatorID: inspirer.ID, Name: " ", Description: "y", Video: videoUpload()},
		{CreatorID: inspirer.ID, Name: "x", Description: "", Video: videoUpload()},
		{CreatorID: inspirer.ID, Name: "x", Description: "y"},
		{CreatorID: inspirer.ID, Name: "x", Description: "y", Video: &storage.Upload{Filename: "a.txt", Content: []byte("plain text")}},
	}
	for _, in := range invalid {
		_, err := svc.CreatePost(ctx, in)
		assertCode(t, err, models.CodeValidation)
	}

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)

	entries, err := os.ReadDir(store.Root())
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestPostService_ListPostsNewestFirst(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	inspirer := testutil.CreateUser(t, db, models.CapabilityInspirer)

	for _, name := range []string{"first", "second", "third"} {
		_, err := svc.CreatePost(ctx, CreatePostInput{CreatorID: inspirer.ID, Name: name, Description: name, Video: videoUpload()})
		require.NoError(t, err)
	}

	page, err := svc.ListPosts(ctx, models.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "third", page.Results[0].Name)
	assert.Equal(t, "second", page.Results[1].Name)
	require.NotNil(t, page.Next)

	page, err = svc.ListPosts(ctx, models.PageRequest{Page: *page.Next, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "first", page.Results[0].Name)
	assert.Nil(t, page.Next)
}

func TestPostService_FirstPageCacheInvalidatedOnCreate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	svc, db, _ := newPostService(t)
	ctx := context.Background()
	inspirer := testutil.CreateUser(t, db, models.CapabilityInspirer)

	_, err := svc.CreatePost(ctx, CreatePostInput{CreatorID: inspirer.ID, Name: "one", Description: "d", Video: videoUpload()})
	require.NoError(t, err)

	page, err := svc.ListPosts(ctx, models.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.True(t, mr.Exists(cache.PostsFirstPageKey(10)))

	_, err = svc.CreatePost(ctx, CreatePostInput{CreatorID: inspirer.ID, Name: "two", Description: "d", Video: videoUpload()})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.PostsFirstPageKey(10)))

	page, err = svc.ListPosts(ctx, models.PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "two", page.Results[0].Name)
}
