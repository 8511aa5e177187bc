package service

import (
	"context"
	"strings"

	"putevoditel/internal/cache"
	"putevoditel/internal/models"
	"putevoditel/internal/observability"
	"putevoditel/internal/repository"
	"putevoditel/internal/storage"
	"putevoditel/internal/validation"
)

// CreatePostInput is a post submitted by an inspirer.
type CreatePostInput struct {
	CreatorID   uint
	Name        string
	Description string
	Video       *storage.Upload
}

// PostService publishes and lists posts.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	store    *storage.Store
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, store *storage.Store) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo, store: store}
}

// CreatePost stores the video and inserts the post. Only inspirers may post.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (view *models.PostView, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if in.CreatorID == 0 {
		return nil, models.NewUnauthorizedError("User is not authenticated")
	}
	creator, err := s.userRepo.GetByID(ctx, in.CreatorID)
	if err != nil {
		return nil, err
	}
	if !creator.IsInspirer() {
		return nil, models.NewForbiddenError("You can't create post")
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", in.Name, maxNameLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, models.NewValidationError("description is required")
	}
	if in.Video == nil {
		return nil, models.NewValidationError("video is required")
	}

	videoPath, err := s.store.SaveVideo(ctx, creator.ID, *in.Video)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Name:        in.Name,
		CreatorID:   creator.ID,
		Creator:     creator,
		Video:       videoPath,
		Description: in.Description,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.store.Remove(videoPath)
		return nil, err
	}

	observability.PostsCreated.Inc()
	v := s.view(*post)
	return &v, nil
}

// ListPosts returns all posts, newest first. The first page is cached.
func (s *PostService) ListPosts(ctx context.Context, page models.PageRequest) (models.Page[models.PostView], error) {
	page = page.Normalize()
	fetch := func() (models.Page[models.PostView], error) {
		posts, err := s.postRepo.List(ctx, page)
		if err != nil {
			return models.Page[models.PostView]{}, err
		}
		return models.MapPage(posts, s.view), nil
	}
	if page.Page != 1 {
		return fetch()
	}

	var out models.Page[models.PostView]
	err := cache.Aside(ctx, cache.PostsFirstPageKey(page.Size), &out, cache.PostsTTL, func() error {
		p, err := fetch()
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *PostService) view(p models.Post) models.PostView {
	v := p.View()
	v.Video = s.store.URL(p.Video)
	return v
}
