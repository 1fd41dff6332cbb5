package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/model"
	"github.com/gradnet/gradnet/internal/repository"
	"github.com/gradnet/gradnet/internal/storage"
	"github.com/gradnet/gradnet/internal/validation"
)

// AvatarService stores profile pictures in object storage and points the
// user's profilePic at them. A nil storage disables uploads.
type AvatarService struct {
	userRepository repository.UserRepository
	storage        storage.Storage
	guard          *Guard
}

func NewAvatarService(userRepository repository.UserRepository, store storage.Storage, guard *Guard) *AvatarService {
	return &AvatarService{
		userRepository: userRepository,
		storage:        store,
		guard:          guard,
	}
}

func (s *AvatarService) Enabled() bool {
	return s.storage != nil
}

// Upload validates the image, stores it under avatars/{userID}/ and replaces
// the previous upload, if any.
func (s *AvatarService) Upload(ctx context.Context, caller *model.Identity, userID string, header *multipart.FileHeader) (*model.User, error) {
	err := s.guard.Authorize(caller, ActionUpdate, Resource{Kind: "profile", OwnerID: userID}).Err()
	if err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, unavailable("profile picture uploads are not configured")
	}

	mimeType, err := validation.ValidateImage(header)
	if err != nil {
		return nil, invalidArgument("%s", err.Error())
	}

	user, err := s.userRepository.ByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	key := path.Join("avatars", userID, uuid.NewString()+validation.ImageConstraints.AllowedMimeTypes[mimeType])
	err = s.storage.Save(ctx, key, file, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	previous := user.ProfilePic
	url := s.storage.URL(key)
	user.ProfilePic = &url

	err = s.userRepository.UpdateProfile(ctx, user)
	if err != nil {
		delErr := s.storage.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to delete avatar during cleanup", "error", delErr, "key", key)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if previous != nil {
		s.Discard(ctx, *previous)
	}

	slog.Info("avatar uploaded", "user_id", userID, "key", key)
	return user, nil
}

// Discard deletes a stored avatar by URL. URLs that point elsewhere are left alone.
func (s *AvatarService) Discard(ctx context.Context, url string) {
	if !s.Enabled() {
		return
	}
	key, ok := s.storage.Key(url)
	if !ok {
		return
	}
	err := s.storage.Delete(ctx, key)
	if err != nil {
		slog.Warn("failed to delete avatar from storage", "key", key, "error", err)
	}
}
