package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
)

const MaxAvatarBytes = 5 * 1024 * 1024

var avatarContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
}

type profileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpsertComplete(ctx context.Context, input repository.CompleteProfileInput) (*models.Profile, error)
}

type ProfileService struct {
	profiles profileStore
	storage  StorageService
	log      *logger.Logger
}

func NewProfileService(profiles profileStore, storage StorageService, log *logger.Logger) *ProfileService {
	if log == nil {
		log = logger.Nop()
	}
	return &ProfileService{
		profiles: profiles,
		storage:  storage,
		log:      log.With("service", "ProfileService"),
	}
}

// GetProfile returns ErrNotFound when the identity has no profile row yet.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return profile, nil
}

type AvatarUpload struct {
	Filename string
	Content  []byte
}

type CompleteProfileInput struct {
	Email            string
	DisplayName      string
	Role             string
	Bio              string
	InterestedSports []string
	Avatar           *AvatarUpload
}

func (s *ProfileService) CompleteProfile(ctx context.Context, userID uuid.UUID, input CompleteProfileInput) (*models.Profile, error) {
	displayName := strings.TrimSpace(input.DisplayName)
	if n := utf8.RuneCountInString(displayName); n < 2 || n > 20 {
		return nil, invalid("display_name", "display name must be 2 to 20 characters")
	}

	role, err := models.ParseRole(input.Role)
	if err != nil {
		return nil, invalid("role", "role must be instructor or student")
	}

	sports, err := parseSports(input.InterestedSports)
	if err != nil {
		return nil, err
	}

	var avatarExt string
	if input.Avatar != nil {
		avatarExt, err = validateAvatar(input.Avatar)
		if err != nil {
			return nil, err
		}
	}

	var previousAvatar *string
	var existingEmail *string
	existing, err := s.profiles.GetByID(ctx, userID)
	switch {
	case err == nil:
		previousAvatar = existing.AvatarURL
		existingEmail = existing.Email
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, err
	}

	avatarURL := previousAvatar
	if input.Avatar != nil {
		avatarURL = s.uploadAvatar(ctx, userID, input.Avatar, avatarExt, previousAvatar)
	}

	email := existingEmail
	if email == nil && strings.TrimSpace(input.Email) != "" {
		trimmed := strings.TrimSpace(input.Email)
		email = &trimmed
	}

	var bio *string
	if trimmed := strings.TrimSpace(input.Bio); trimmed != "" {
		bio = &trimmed
	}

	return s.profiles.UpsertComplete(ctx, repository.CompleteProfileInput{
		ID:               userID,
		Email:            email,
		DisplayName:      displayName,
		Bio:              bio,
		Role:             role,
		AvatarURL:        avatarURL,
		InterestedSports: sports,
	})
}

// uploadAvatar never fails the form: on error it keeps the previous URL.
func (s *ProfileService) uploadAvatar(
	ctx context.Context,
	userID uuid.UUID,
	avatar *AvatarUpload,
	ext string,
	previous *string,
) *string {
	if s.storage == nil {
		s.log.Warn("avatar upload skipped, storage not configured", "user_id", userID)
		return previous
	}

	objectPath := fmt.Sprintf("%s/avatar.%s", userID, ext)
	url, err := s.storage.Upload(ctx, objectPath, avatar.Content, avatarContentTypes[ext])
	if err != nil {
		s.log.Error("avatar upload failed", "user_id", userID, "path", objectPath, "error", err)
		return previous
	}
	return &url
}

func parseSports(raw []string) ([]models.SportType, error) {
	seen := make(map[models.SportType]struct{}, len(raw))
	sports := make([]models.SportType, 0, len(raw))
	for _, value := range raw {
		sport := models.SportType(strings.ToLower(strings.TrimSpace(value)))
		if sport == "" {
			continue
		}
		if !sport.Valid() {
			return nil, invalid("interested_sports", fmt.Sprintf("unknown sport %q", value))
		}
		if _, dup := seen[sport]; dup {
			continue
		}
		seen[sport] = struct{}{}
		sports = append(sports, sport)
	}
	if len(sports) == 0 {
		return nil, invalid("interested_sports", "select at least one sport")
	}
	return sports, nil
}

func validateAvatar(avatar *AvatarUpload) (string, error) {
	if len(avatar.Content) > MaxAvatarBytes {
		return "", invalid("avatar", "avatar must be 5MB or smaller")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(avatar.Filename), "."))
	if _, ok := avatarContentTypes[ext]; !ok {
		return "", invalid("avatar", "avatar must be jpg, jpeg, png, webp or gif")
	}
	return ext, nil
}

// DashboardView is the landing page after login.
type DashboardView struct {
	Profile    *models.Profile `json:"profile"`
	Greeting   string          `json:"greeting"`
	Navigation []NavLink       `json:"navigation"`
}

type NavLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

func (s *ProfileService) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardView, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Role == nil {
		return nil, ErrForbidden
	}

	view := &DashboardView{
		Profile: profile,
		Navigation: []NavLink{
			{Label: "커뮤니티", Href: "/community"},
			{Label: "강의 보기", Href: "/courses"},
		},
	}

	switch *profile.Role {
	case models.RoleInstructor:
		view.Greeting = "강사 대시보드입니다"
		view.Navigation = append(view.Navigation,
			NavLink{Label: "내 강의", Href: "/instructor/courses"},
			NavLink{Label: "PT 요청", Href: "/instructor/pt-sessions"},
		)
	case models.RoleStudent:
		view.Greeting = "수강생 대시보드입니다"
		view.Navigation = append(view.Navigation,
			NavLink{Label: "수강 중인 강의", Href: "/student/courses"},
			NavLink{Label: "내 PT 세션", Href: "/student/pt-sessions"},
		)
	default:
		return nil, ErrForbidden
	}

	return view, nil
}
