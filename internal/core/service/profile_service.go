package service

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/core/ports"
	"github.com/taskdesk/todo-service/internal/pkg/id"
)

const (
	MaxNameLength         = 100
	DefaultMaxAvatarBytes = 2 << 20
)

type ProfileService struct {
	users          ports.UserRepository
	avatars        ports.AvatarStore
	events         *StateFeed
	maxAvatarBytes int64
	logger         zerolog.Logger
}

func NewProfileService(users ports.UserRepository, avatars ports.AvatarStore, events *StateFeed, maxAvatarBytes int64, logger zerolog.Logger) *ProfileService {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = DefaultMaxAvatarBytes
	}
	return &ProfileService{
		users:          users,
		avatars:        avatars,
		events:         events,
		maxAvatarBytes: maxAvatarBytes,
		logger:         logger,
	}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *ProfileService) UpdateName(ctx context.Context, userID, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, fmt.Errorf("%w: name must be 1 to %d characters", domain.ErrInvalidProfile, MaxNameLength)
	}

	user, err := s.users.UpdateProfile(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, userID)
	return user, nil
}

// UploadAvatar stores the picture under avatars/<userId>-<id>.<ext>, points
// the profile at its public URL and removes the previous object.
func (s *ProfileService) UploadAvatar(ctx context.Context, in ports.AvatarUpload) (*domain.User, error) {
	if !strings.HasPrefix(in.ContentType, "image/") {
		return nil, fmt.Errorf("%w: file must be an image", domain.ErrInvalidAvatar)
	}
	if in.Size <= 0 || in.Size > s.maxAvatarBytes {
		return nil, fmt.Errorf("%w: file must be between 1 and %d bytes", domain.ErrInvalidAvatar, s.maxAvatarBytes)
	}

	current, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s-%s%s", in.UserID, id.New(), avatarExt(in.Filename, in.ContentType))
	publicURL, err := s.avatars.Upload(ctx, key, in.Body, in.Size, in.ContentType)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", in.UserID).Msg("avatar upload failed")
		return nil, err
	}

	user, err := s.users.UpdateAvatar(ctx, in.UserID, publicURL, key)
	if err != nil {
		return nil, err
	}

	if current.AvatarKey != "" && current.AvatarKey != key {
		if err := s.avatars.Delete(ctx, current.AvatarKey); err != nil {
			s.logger.Warn().Err(err).Str("key", current.AvatarKey).Msg("failed to delete previous avatar")
		}
	}

	s.announce(ctx, in.UserID)
	return user, nil
}

func (s *ProfileService) announce(ctx context.Context, userID string) {
	if s.events != nil {
		s.events.Publish(ctx, domain.AuthEvent{Type: domain.AuthUserUpdated, UserID: userID})
	}
}

func avatarExt(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}
