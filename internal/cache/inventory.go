package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserSlugKeyPrefix = "user:slug:%s"
	PostsPageKey      = "posts:page:1:size:%d"
)

const (
	UserTTL  = 5 * time.Minute
	PostsTTL = 30 * time.Second
)

func UserSlugKey(slug string) string {
	return fmt.Sprintf(UserSlugKeyPrefix, slug)
}

func PostsFirstPageKey(size int) string {
	return fmt.Sprintf(PostsPageKey, size)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops the cached author view; called whenever the user row changes.
func InvalidateUser(ctx context.Context, slug string) {
	Invalidate(ctx, UserSlugKey(slug))
}

// InvalidatePosts drops every cached first page of the post feed.
func InvalidatePosts(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "posts:page:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	Invalidate(ctx, keys...)
}
