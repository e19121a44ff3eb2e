package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
)

type stubProfileStore struct {
	existing   *models.Profile
	lastUpsert repository.CompleteProfileInput
	upserts    int
}

func (s *stubProfileStore) GetByID(_ context.Context, _ uuid.UUID) (*models.Profile, error) {
	if s.existing == nil {
		return nil, pgx.ErrNoRows
	}
	return s.existing, nil
}

func (s *stubProfileStore) UpsertComplete(_ context.Context, input repository.CompleteProfileInput) (*models.Profile, error) {
	s.upserts++
	s.lastUpsert = input
	role := input.Role
	return &models.Profile{
		ID:                input.ID,
		DisplayName:       input.DisplayName,
		Role:              &role,
		AvatarURL:         input.AvatarURL,
		InterestedSports:  input.InterestedSports,
		IsProfileComplete: true,
	}, nil
}

type stubStorage struct {
	lastPath string
	err      error
}

func (s *stubStorage) Upload(_ context.Context, objectPath string, _ []byte, _ string) (string, error) {
	s.lastPath = objectPath
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.example.com/" + objectPath, nil
}

func validCompleteInput() CompleteProfileInput {
	return CompleteProfileInput{
		DisplayName:      "김민",
		Role:             "student",
		InterestedSports: []string{"jiujitsu"},
	}
}

func TestCompleteProfileUploadsAvatarWithUpsertPath(t *testing.T) {
	store := &stubProfileStore{}
	storage := &stubStorage{}
	service := NewProfileService(store, storage, logger.Nop())
	userID := uuid.New()

	input := validCompleteInput()
	input.Avatar = &AvatarUpload{Filename: "Me.PNG", Content: []byte("png")}

	profile, err := service.CompleteProfile(context.Background(), userID, input)
	if err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if storage.lastPath != userID.String()+"/avatar.png" {
		t.Fatalf("unexpected object path %q", storage.lastPath)
	}
	if profile.AvatarURL == nil || !strings.HasSuffix(*profile.AvatarURL, "/avatar.png") {
		t.Fatalf("expected uploaded avatar url, got %v", profile.AvatarURL)
	}
	if !profile.Usable() {
		t.Fatalf("expected complete profile")
	}
}

func TestCompleteProfileKeepsPreviousAvatarWhenUploadFails(t *testing.T) {
	previous := "https://cdn.example.com/old.png"
	store := &stubProfileStore{existing: &models.Profile{AvatarURL: &previous}}
	service := NewProfileService(store, &stubStorage{err: errors.New("bucket unavailable")}, logger.Nop())

	input := validCompleteInput()
	input.Avatar = &AvatarUpload{Filename: "new.jpg", Content: []byte("jpg")}

	if _, err := service.CompleteProfile(context.Background(), uuid.New(), input); err != nil {
		t.Fatalf("expected upload failure to be tolerated, got %v", err)
	}
	if store.lastUpsert.AvatarURL == nil || *store.lastUpsert.AvatarURL != previous {
		t.Fatalf("expected previous avatar to be kept, got %v", store.lastUpsert.AvatarURL)
	}
}

func TestCompleteProfileValidation(t *testing.T) {
	cases := map[string]func(*CompleteProfileInput){
		"short name":    func(in *CompleteProfileInput) { in.DisplayName = "a" },
		"long name":     func(in *CompleteProfileInput) { in.DisplayName = strings.Repeat("가", 21) },
		"unknown role":  func(in *CompleteProfileInput) { in.Role = "admin" },
		"no sports":     func(in *CompleteProfileInput) { in.InterestedSports = nil },
		"unknown sport": func(in *CompleteProfileInput) { in.InterestedSports = []string{"boxing"} },
		"big avatar": func(in *CompleteProfileInput) {
			in.Avatar = &AvatarUpload{Filename: "a.png", Content: make([]byte, MaxAvatarBytes+1)}
		},
		"bad extension": func(in *CompleteProfileInput) {
			in.Avatar = &AvatarUpload{Filename: "a.bmp", Content: []byte("x")}
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			store := &stubProfileStore{}
			service := NewProfileService(store, &stubStorage{}, logger.Nop())
			input := validCompleteInput()
			mutate(&input)

			if _, err := service.CompleteProfile(context.Background(), uuid.New(), input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if store.upserts != 0 {
				t.Fatalf("expected no write")
			}
		})
	}
}

func TestDashboardNavigationByRole(t *testing.T) {
	instructor := newProfile(models.RoleInstructor, "Coach")
	student := newProfile(models.RoleStudent, "Min")
	service := NewProfileService(nil, nil, logger.Nop())
	service.profiles = &profileReaderAdapter{newStubProfiles(instructor, student)}

	view, err := service.Dashboard(context.Background(), instructor.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !hasNav(view, "/instructor/courses") || hasNav(view, "/student/courses") {
		t.Fatalf("unexpected instructor navigation %+v", view.Navigation)
	}

	view, err = service.Dashboard(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !hasNav(view, "/student/courses") || hasNav(view, "/instructor/courses") {
		t.Fatalf("unexpected student navigation %+v", view.Navigation)
	}
}

type profileReaderAdapter struct {
	*stubProfiles
}

func (a *profileReaderAdapter) UpsertComplete(context.Context, repository.CompleteProfileInput) (*models.Profile, error) {
	return nil, errors.New("not supported")
}

func hasNav(view *DashboardView, href string) bool {
	for _, link := range view.Navigation {
		if link.Href == href {
			return true
		}
	}
	return false
}
