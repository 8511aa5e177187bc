package service

import (
	"context"

	"putevoditel/internal/models"
	"putevoditel/internal/repository"
	"putevoditel/internal/storage"
)

// MediaService stores the images users attach to their profile form.
type MediaService struct {
	mediaRepo repository.MediaRepository
	store     *storage.Store
}

// NewMediaService returns a new MediaService.
func NewMediaService(mediaRepo repository.MediaRepository, store *storage.Store) *MediaService {
	return &MediaService{mediaRepo: mediaRepo, store: store}
}

// AddImage stores upload and records it for userID.
func (s *MediaService) AddImage(ctx context.Context, userID uint, upload *storage.Upload) (*models.DreamAssociation, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("User is not authenticated")
	}
	if upload == nil {
		return nil, models.NewValidationError("image is required")
	}

	stored, err := s.store.SaveImage(ctx, userID, *upload)
	if err != nil {
		return nil, err
	}
	assoc := &models.DreamAssociation{UserID: userID, Image: stored.Path}
	if err := s.mediaRepo.Create(ctx, assoc); err != nil {
		s.store.Remove(stored.Path)
		s.store.Remove(stored.WebPPath)
		return nil, err
	}
	return assoc, nil
}

// ListImages returns the image URLs of userID, oldest first.
func (s *MediaService) ListImages(ctx context.Context, userID uint) ([]string, error) {
	images, err := s.mediaRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, s.store.URL(img.Image))
	}
	return urls, nil
}
