package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"putevoditel/internal/config"
	"putevoditel/internal/models"
	"putevoditel/internal/storage"
	"putevoditel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaService_AddImage(t *testing.T) {
	repo := testutil.NewMediaRepoStub()
	store := storage.NewStore(&config.Config{MediaRoot: t.TempDir()})
	svc := NewMediaService(repo, store)
	ctx := context.Background()

	assoc, err := svc.AddImage(ctx, 7, &storage.Upload{Filename: "dream.png", Content: testutil.TinyPNG(t, 32, 16)})
	require.NoError(t, err)
	assert.Equal(t, uint(7), assoc.UserID)
	assert.True(t, strings.HasPrefix(assoc.Image, "images/"), assoc.Image)

	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(assoc.Image)))
	assert.NoError(t, err)

	urls, err := svc.ListImages(ctx, 7)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, storage.URLPrefix+"/"+assoc.Image, urls[0])

	urls, err = svc.ListImages(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, urls)
	assert.NotNil(t, urls)
}

func TestMediaService_AddImageRejects(t *testing.T) {
	svc := NewMediaService(testutil.NewMediaRepoStub(), storage.NewStore(&config.Config{MediaRoot: t.TempDir()}))
	ctx := context.Background()

	_, err := svc.AddImage(ctx, 0, &storage.Upload{Content: testutil.TinyPNG(t, 1, 1)})
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.AddImage(ctx, 1, nil)
	assertCode(t, err, models.CodeValidation)

	_, err = svc.AddImage(ctx, 1, &storage.Upload{Filename: "notes.txt", Content: []byte("hello")})
	assertCode(t, err, models.CodeValidation)

	urls, err := svc.ListImages(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, urls)
}
