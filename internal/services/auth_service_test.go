package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/oauth2"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
	"github.com/MINHYEOKJEON99/mat-we/pkg/utils"
)

const testSecret = "test-secret"

type stubUsers struct {
	users []*models.User
}

func (s *stubUsers) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range s.users {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) CreatePasswordUser(_ context.Context, input repository.CreatePasswordUserInput) (*models.User, error) {
	if _, err := s.GetByEmail(context.Background(), input.Email); err == nil {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	hash := input.PasswordHash
	name := input.DisplayName
	role := input.Role
	user := &models.User{ID: uuid.New(), Email: input.Email, PasswordHash: &hash, SignupName: &name, SignupRole: &role}
	s.users = append(s.users, user)
	copied := *user
	return &copied, nil
}

func (s *stubUsers) CreateOAuthUser(_ context.Context, provider, subject string, email *string) (*models.User, error) {
	now := time.Now()
	user := &models.User{ID: uuid.New(), OAuthProvider: &provider, OAuthSubject: &subject, EmailConfirmedAt: &now}
	if email != nil {
		user.Email = *email
	}
	s.users = append(s.users, user)
	copied := *user
	return &copied, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *stubUsers) GetByOAuth(_ context.Context, provider, subject string) (*models.User, error) {
	return s.find(func(u *models.User) bool {
		return u.OAuthProvider != nil && *u.OAuthProvider == provider && u.OAuthSubject != nil && *u.OAuthSubject == subject
	})
}

func (s *stubUsers) LinkOAuth(_ context.Context, id uuid.UUID, provider, subject string) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			u.OAuthProvider = &provider
			u.OAuthSubject = &subject
			now := time.Now()
			u.EmailConfirmedAt = &now
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) MarkEmailConfirmed(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			now := time.Now()
			u.EmailConfirmedAt = &now
			copied := *u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type stubBootstrap struct {
	profiles map[uuid.UUID]*models.Profile
}

func (s *stubBootstrap) GetByID(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (s *stubBootstrap) CreateEmpty(_ context.Context, input repository.CreateEmptyProfileInput) error {
	if _, ok := s.profiles[input.ID]; ok {
		return nil
	}
	s.profiles[input.ID] = &models.Profile{
		ID:          input.ID,
		Email:       input.Email,
		DisplayName: input.DisplayName,
		Role:        input.Role,
		AvatarURL:   input.AvatarURL,
	}
	return nil
}

func (s *stubBootstrap) BackfillEmail(_ context.Context, id uuid.UUID, email string) error {
	if p, ok := s.profiles[id]; ok && p.Email == nil {
		p.Email = &email
	}
	return nil
}

type recordingMailer struct {
	to, link string
}

func (m *recordingMailer) SendConfirmation(_ context.Context, to, link string) error {
	m.to, m.link = to, link
	return nil
}

func newTestAuthService(providers map[string]*OAuthProvider) (*AuthService, *stubUsers, *stubBootstrap, *recordingMailer) {
	users := &stubUsers{}
	profiles := &stubBootstrap{profiles: map[uuid.UUID]*models.Profile{}}
	mailer := &recordingMailer{}
	service := NewAuthService(users, profiles, mailer, providers, testSecret, "https://matwe.example", logger.Nop())
	return service, users, profiles, mailer
}

func TestSignupConfirmLoginFlow(t *testing.T) {
	service, _, profiles, mailer := newTestAuthService(nil)
	ctx := context.Background()

	err := service.Signup(ctx, SignupInput{
		Email:       "Student@Example.com",
		Password:    "password123",
		DisplayName: "Min",
		Role:        "student",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if mailer.to != "student@example.com" {
		t.Fatalf("expected mail to lowercased address, got %q", mailer.to)
	}

	if _, err := service.Login(ctx, "student@example.com", "password123"); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("expected ErrEmailNotConfirmed, got %v", err)
	}

	link, err := url.Parse(mailer.link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	if link.Path != "/auth/confirm" {
		t.Fatalf("unexpected confirm path %q", link.Path)
	}

	sessionToken, err := service.ConfirmEmail(ctx, link.Query().Get("token"))
	if err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}
	claims, err := utils.ValidateToken(sessionToken, testSecret, utils.PurposeSession)
	if err != nil {
		t.Fatalf("session token invalid: %v", err)
	}

	profile := profiles.profiles[uuid.MustParse(claims.UserID)]
	if profile == nil || profile.DisplayName != "Min" || !profile.HasRole(models.RoleStudent) {
		t.Fatalf("expected pre-filled profile, got %+v", profile)
	}
	if profile.Usable() {
		t.Fatalf("lazily created profile must start incomplete")
	}

	if _, err := service.Login(ctx, "student@example.com", "password123"); err != nil {
		t.Fatalf("Login after confirm: %v", err)
	}
	if _, err := service.Login(ctx, "student@example.com", "wrong-password"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	service, _, _, _ := newTestAuthService(nil)
	ctx := context.Background()

	cases := []SignupInput{
		{Email: "bad", Password: "password123", DisplayName: "Min", Role: "student"},
		{Email: "a@b.com", Password: "short", DisplayName: "Min", Role: "student"},
		{Email: "a@b.com", Password: "password123", DisplayName: " ", Role: "student"},
		{Email: "a@b.com", Password: "password123", DisplayName: "Min", Role: "admin"},
	}
	for _, input := range cases {
		if err := service.Signup(ctx, input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", input, err)
		}
	}

	valid := SignupInput{Email: "a@b.com", Password: "password123", DisplayName: "Min", Role: "student"}
	if err := service.Signup(ctx, valid); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if err := service.Signup(ctx, valid); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}
}

func TestConfirmEmailRejectsSessionToken(t *testing.T) {
	service, _, _, _ := newTestAuthService(nil)
	token, err := utils.GenerateToken(uuid.NewString(), "x@example.com", testSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := service.ConfirmEmail(context.Background(), token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func newFakeProvider(t *testing.T, userInfo string) *OAuthProvider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"fake-access","token_type":"bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer fake-access" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(userInfo))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return &OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "https://matwe.example/auth/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:   server.URL + "/authorize",
				TokenURL:  server.URL + "/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		UserInfoURL: server.URL + "/userinfo",
		parse:       parseGoogleUserInfo,
	}
}

func TestCompleteOAuthCreatesIncompleteProfile(t *testing.T) {
	provider := newFakeProvider(t, `{"sub":"g-123","email":"coach@example.com","email_verified":true,"name":"Coach Lee","picture":"https://img.example/p.png"}`)
	service, users, profiles, _ := newTestAuthService(map[string]*OAuthProvider{"google": provider})

	result, err := service.CompleteOAuth(context.Background(), "google", "auth-code")
	if err != nil {
		t.Fatalf("CompleteOAuth: %v", err)
	}
	if result.ProfileComplete {
		t.Fatalf("expected new profile to be incomplete")
	}
	if len(users.users) != 1 {
		t.Fatalf("expected one user, got %d", len(users.users))
	}

	profile := profiles.profiles[users.users[0].ID]
	if profile == nil || profile.Email == nil || *profile.Email != "coach@example.com" {
		t.Fatalf("expected profile with email, got %+v", profile)
	}
	if profile.AvatarURL == nil || *profile.AvatarURL != "https://img.example/p.png" {
		t.Fatalf("expected provider avatar to seed the profile")
	}

	again, err := service.CompleteOAuth(context.Background(), "google", "auth-code")
	if err != nil {
		t.Fatalf("second CompleteOAuth: %v", err)
	}
	if again.Token == "" || len(users.users) != 1 {
		t.Fatalf("expected returning login to reuse the user")
	}
}

func TestCompleteOAuthLinksExistingEmailAccount(t *testing.T) {
	provider := newFakeProvider(t, `{"sub":"g-999","email":"min@example.com","email_verified":true,"name":"Min"}`)
	service, users, profiles, _ := newTestAuthService(map[string]*OAuthProvider{"google": provider})
	ctx := context.Background()

	if err := service.Signup(ctx, SignupInput{Email: "min@example.com", Password: "password123", DisplayName: "Min", Role: "student"}); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	existing := users.users[0].ID
	role := models.RoleStudent
	profiles.profiles[existing] = &models.Profile{ID: existing, Role: &role, IsProfileComplete: true}

	result, err := service.CompleteOAuth(ctx, "google", "auth-code")
	if err != nil {
		t.Fatalf("CompleteOAuth: %v", err)
	}
	if !result.ProfileComplete {
		t.Fatalf("expected linked account to keep its complete profile")
	}
	if len(users.users) != 1 || users.users[0].OAuthSubject == nil || *users.users[0].OAuthSubject != "g-999" {
		t.Fatalf("expected provider to be linked to the existing user")
	}
	if profiles.profiles[existing].Email == nil {
		t.Fatalf("expected missing profile email to be backfilled")
	}
}

func TestCompleteOAuthUnknownProvider(t *testing.T) {
	service, _, _, _ := newTestAuthService(nil)
	if _, err := service.CompleteOAuth(context.Background(), "github", "code"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if _, err := service.AuthCodeURL("github", "state"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestParseProviderUserInfo(t *testing.T) {
	kakao, err := parseKakaoUserInfo([]byte(`{"id":12345,"kakao_account":{"email":"k@example.com","is_email_verified":true,"profile":{"nickname":"카카오"}}}`))
	if err != nil {
		t.Fatalf("parseKakaoUserInfo: %v", err)
	}
	if kakao.Subject != "12345" || kakao.Email != "k@example.com" || kakao.Name != "카카오" {
		t.Fatalf("unexpected kakao info %+v", kakao)
	}

	naver, err := parseNaverUserInfo([]byte(`{"resultcode":"00","response":{"id":"n-1","email":"n@example.com","nickname":"네이버"}}`))
	if err != nil {
		t.Fatalf("parseNaverUserInfo: %v", err)
	}
	if naver.Subject != "n-1" || naver.Name != "네이버" {
		t.Fatalf("unexpected naver info %+v", naver)
	}

	google, err := parseGoogleUserInfo([]byte(`{"sub":"g-1","email":"g@example.com","email_verified":false}`))
	if err != nil {
		t.Fatalf("parseGoogleUserInfo: %v", err)
	}
	if google.Email != "" {
		t.Fatalf("unverified google email must be ignored")
	}
}
