package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"hydration/internal/domain"
)

const (
	maxNameRunes = 64
	// MaxImageBytes caps the size of a cached profile image.
	MaxImageBytes = 2 << 20
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ProfileService manages the local profile and its cached image.
type ProfileService struct {
	store domain.ProfileStore
	log   *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(store domain.ProfileStore, log *slog.Logger) *ProfileService {
	return &ProfileService{store: store, log: log}
}

// Get returns the stored profile, or an empty one.
func (s *ProfileService) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if p == nil {
		return domain.Profile{}, nil
	}
	return *p, nil
}

// Save stores the profile name, keeping the current image.
func (s *ProfileService) Save(ctx context.Context, userID int64, name string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if !utf8.ValidString(name) || utf8.RuneCountInString(name) > maxNameRunes {
		return domain.Profile{}, ErrInvalidProfile
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	p.Name = name
	if err := s.store.SaveProfile(ctx, userID, p); err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

// SetImage caches data as the profile image and points the profile at it.
// The sniffed content type wins over the declared one.
func (s *ProfileService) SetImage(ctx context.Context, userID int64, data []byte) (domain.Profile, error) {
	if len(data) == 0 || len(data) > MaxImageBytes {
		return domain.Profile{}, ErrInvalidImage
	}
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return domain.Profile{}, ErrInvalidImage
	}

	p, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	ref := uuid.NewString()
	if err := s.store.PutImage(ctx, userID, ref, domain.Image{ContentType: contentType, Data: data}); err != nil {
		return domain.Profile{}, fmt.Errorf("store image: %w", err)
	}

	old := p.ImageRef
	p.ImageRef = ref
	if err := s.store.SaveProfile(ctx, userID, p); err != nil {
		_ = s.store.DeleteImage(ctx, userID, ref)
		return domain.Profile{}, err
	}
	if old != "" {
		if err := s.store.DeleteImage(ctx, userID, old); err != nil {
			s.log.WarnContext(ctx, "delete replaced profile image", "userId", userID, "ref", old, "err", err)
		}
	}
	return p, nil
}

// Image returns the cached profile image.
func (s *ProfileService) Image(ctx context.Context, userID int64) (*domain.Image, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.ImageRef == "" {
		return nil, ErrImageNotFound
	}
	img, err := s.store.GetImage(ctx, userID, p.ImageRef)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, ErrImageNotFound
	}
	return img, nil
}

// Clear removes the profile and its image.
func (s *ProfileService) Clear(ctx context.Context, userID int64) error {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p.ImageRef != "" {
		if err := s.store.DeleteImage(ctx, userID, p.ImageRef); err != nil {
			return err
		}
	}
	return s.store.DeleteProfile(ctx, userID)
}
