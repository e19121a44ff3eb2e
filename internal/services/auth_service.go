package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
	"github.com/MINHYEOKJEON99/mat-we/internal/models"
	"github.com/MINHYEOKJEON99/mat-we/internal/repository"
	"github.com/MINHYEOKJEON99/mat-we/pkg/utils"
)

const minPasswordLength = 8

var (
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	ErrUnknownProvider   = errors.New("unknown oauth provider")
)

type userStore interface {
	CreatePasswordUser(ctx context.Context, input repository.CreatePasswordUserInput) (*models.User, error)
	CreateOAuthUser(ctx context.Context, provider, subject string, email *string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByOAuth(ctx context.Context, provider, subject string) (*models.User, error)
	LinkOAuth(ctx context.Context, id uuid.UUID, provider, subject string) (*models.User, error)
	MarkEmailConfirmed(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type profileBootstrapper interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	CreateEmpty(ctx context.Context, input repository.CreateEmptyProfileInput) error
	BackfillEmail(ctx context.Context, id uuid.UUID, email string) error
}

type AuthService struct {
	users      userStore
	profiles   profileBootstrapper
	mailer     Mailer
	providers  map[string]*OAuthProvider
	jwtSecret  string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewAuthService(
	users userStore,
	profiles profileBootstrapper,
	mailer Mailer,
	providers map[string]*OAuthProvider,
	jwtSecret string,
	baseURL string,
	log *logger.Logger,
) *AuthService {
	if log == nil {
		log = logger.Nop()
	}
	if providers == nil {
		providers = map[string]*OAuthProvider{}
	}
	return &AuthService{
		users:      users,
		profiles:   profiles,
		mailer:     mailer,
		providers:  providers,
		jwtSecret:  jwtSecret,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		log:        log.With("service", "AuthService"),
	}
}

type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// Signup creates an unconfirmed account and mails the confirmation link.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return invalid("email", "a valid email is required")
	}
	if len(input.Password) < minPasswordLength {
		return invalid("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" || utf8.RuneCountInString(displayName) > 20 {
		return invalid("display_name", "display name is required")
	}
	role, err := models.ParseRole(input.Role)
	if err != nil {
		return invalid("role", "role must be instructor or student")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreatePasswordUser(ctx, repository.CreatePasswordUserInput{
		Email:        email,
		PasswordHash: hashed,
		DisplayName:  displayName,
		Role:         role,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	token, err := utils.GenerateConfirmToken(user.ID.String(), user.Email, s.jwtSecret)
	if err != nil {
		return err
	}
	link := s.baseURL + "/auth/confirm?token=" + url.QueryEscape(token)
	if err := s.mailer.SendConfirmation(ctx, user.Email, link); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}

	s.log.Info("signup created", "user_id", user.ID)
	return nil
}

// ConfirmEmail redeems a confirmation link and returns a session token.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	claims, err := utils.ValidateToken(token, s.jwtSecret, utils.PurposeEmailConfirm)
	if err != nil {
		return "", ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", ErrUnauthorized
	}

	user, err := s.users.MarkEmailConfirmed(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	displayName := ""
	if user.SignupName != nil {
		displayName = *user.SignupName
	}
	if err := s.ensureProfile(ctx, user, displayName, user.SignupRole, nil); err != nil {
		return "", err
	}

	return utils.GenerateToken(user.ID.String(), user.Email, s.jwtSecret)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if user.PasswordHash == nil || !utils.CheckPassword(password, *user.PasswordHash) {
		return "", ErrUnauthorized
	}
	if !user.Confirmed() {
		return "", ErrEmailNotConfirmed
	}

	return utils.GenerateToken(user.ID.String(), user.Email, s.jwtSecret)
}

func (s *AuthService) AuthCodeURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.Config.AuthCodeURL(state), nil
}

// Providers lists the configured OAuth providers in a stable order.
func (s *AuthService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type OAuthResult struct {
	Token           string
	ProfileComplete bool
}

// CompleteOAuth exchanges the callback code, resolves the identity by
// provider subject or email, and makes sure a profile row exists.
func (s *AuthService) CompleteOAuth(ctx context.Context, provider, code string) (*OAuthResult, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if strings.TrimSpace(code) == "" {
		return nil, invalid("code", "authorization code is missing")
	}

	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange %s code: %w", provider, err)
	}

	info, err := s.fetchUserInfo(ctx, p, token.AccessToken)
	if err != nil {
		return nil, err
	}
	if info.Subject == "" {
		return nil, fmt.Errorf("%s userinfo has no subject", provider)
	}

	user, err := s.resolveOAuthUser(ctx, provider, info)
	if err != nil {
		return nil, err
	}

	var avatar *string
	if info.AvatarURL != "" {
		avatar = &info.AvatarURL
	}
	if err := s.ensureProfile(ctx, user, info.Name, nil, avatar); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, user.ID)
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}

	sessionToken, err := utils.GenerateToken(user.ID.String(), user.Email, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &OAuthResult{Token: sessionToken, ProfileComplete: profile.Usable()}, nil
}

func (s *AuthService) fetchUserInfo(ctx context.Context, p *OAuthProvider, accessToken string) (OAuthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return OAuthUserInfo{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return OAuthUserInfo{}, fmt.Errorf("fetch %s userinfo: %w", p.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return OAuthUserInfo{}, fmt.Errorf("read %s userinfo: %w", p.Name, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return OAuthUserInfo{}, fmt.Errorf("fetch %s userinfo: status %d", p.Name, resp.StatusCode)
	}
	return p.parse(body)
}

func (s *AuthService) resolveOAuthUser(ctx context.Context, provider string, info OAuthUserInfo) (*models.User, error) {
	user, err := s.users.GetByOAuth(ctx, provider, info.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if info.Email != "" {
		existing, err := s.users.GetByEmail(ctx, info.Email)
		switch {
		case err == nil:
			return s.users.LinkOAuth(ctx, existing.ID, provider, info.Subject)
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, err
		}
	}

	var email *string
	if info.Email != "" {
		lowered := strings.ToLower(info.Email)
		email = &lowered
	}
	user, err = s.users.CreateOAuthUser(ctx, provider, info.Subject, email)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			// lost a race with a concurrent callback for the same identity
			return s.users.GetByOAuth(ctx, provider, info.Subject)
		}
		return nil, err
	}
	return user, nil
}

// ensureProfile creates the incomplete profile on first login and fills in a
// missing email on later ones.
func (s *AuthService) ensureProfile(
	ctx context.Context,
	user *models.User,
	displayName string,
	role *models.Role,
	avatarURL *string,
) error {
	var email *string
	if user.Email != "" {
		email = &user.Email
	}
	if err := s.profiles.CreateEmpty(ctx, repository.CreateEmptyProfileInput{
		ID:          user.ID,
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		Role:        role,
		AvatarURL:   avatarURL,
	}); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if user.Email != "" {
		if err := s.profiles.BackfillEmail(ctx, user.ID, user.Email); err != nil {
			return fmt.Errorf("backfill profile email: %w", err)
		}
	}
	return nil
}
