package services

import (
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/MINHYEOKJEON99/mat-we/internal/config"
)

// OAuthUserInfo is the provider-neutral subset of a userinfo response.
type OAuthUserInfo struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	parse       func(body []byte) (OAuthUserInfo, error)
}

func NewOAuthProviders(cfg *config.Config) map[string]*OAuthProvider {
	providers := make(map[string]*OAuthProvider)
	if cfg.Google.Enabled() {
		providers["google"] = googleProvider(cfg.Google)
	}
	if cfg.Kakao.Enabled() {
		providers["kakao"] = kakaoProvider(cfg.Kakao)
	}
	if cfg.Naver.Enabled() {
		providers["naver"] = naverProvider(cfg.Naver)
	}
	return providers
}

func googleProvider(p config.OAuthProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		parse:       parseGoogleUserInfo,
	}
}

func kakaoProvider(p config.OAuthProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		Name: "kakao",
		Config: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Scopes:       []string{"account_email", "profile_nickname", "profile_image"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://kauth.kakao.com/oauth/authorize",
				TokenURL:  "https://kauth.kakao.com/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		UserInfoURL: "https://kapi.kakao.com/v2/user/me",
		parse:       parseKakaoUserInfo,
	}
}

func naverProvider(p config.OAuthProviderConfig) *OAuthProvider {
	return &OAuthProvider{
		Name: "naver",
		Config: &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
				TokenURL:  "https://nid.naver.com/oauth2.0/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		UserInfoURL: "https://openapi.naver.com/v1/nid/me",
		parse:       parseNaverUserInfo,
	}
}

func parseGoogleUserInfo(body []byte) (OAuthUserInfo, error) {
	var payload struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return OAuthUserInfo{}, fmt.Errorf("decode google userinfo: %w", err)
	}
	info := OAuthUserInfo{Subject: payload.Sub, Name: payload.Name, AvatarURL: payload.Picture}
	if payload.EmailVerified {
		info.Email = payload.Email
	}
	return info, nil
}

func parseKakaoUserInfo(body []byte) (OAuthUserInfo, error) {
	var payload struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email           string `json:"email"`
			IsEmailVerified bool   `json:"is_email_verified"`
			Profile         struct {
				Nickname        string `json:"nickname"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return OAuthUserInfo{}, fmt.Errorf("decode kakao userinfo: %w", err)
	}
	info := OAuthUserInfo{
		Name:      payload.KakaoAccount.Profile.Nickname,
		AvatarURL: payload.KakaoAccount.Profile.ProfileImageURL,
	}
	if payload.ID != 0 {
		info.Subject = strconv.FormatInt(payload.ID, 10)
	}
	if payload.KakaoAccount.IsEmailVerified {
		info.Email = payload.KakaoAccount.Email
	}
	return info, nil
}

func parseNaverUserInfo(body []byte) (OAuthUserInfo, error) {
	var payload struct {
		ResultCode string `json:"resultcode"`
		Response   struct {
			ID           string `json:"id"`
			Email        string `json:"email"`
			Nickname     string `json:"nickname"`
			Name         string `json:"name"`
			ProfileImage string `json:"profile_image"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return OAuthUserInfo{}, fmt.Errorf("decode naver userinfo: %w", err)
	}
	if payload.ResultCode != "" && payload.ResultCode != "00" {
		return OAuthUserInfo{}, fmt.Errorf("naver userinfo result code %s", payload.ResultCode)
	}
	name := payload.Response.Nickname
	if name == "" {
		name = payload.Response.Name
	}
	return OAuthUserInfo{
		Subject:   payload.Response.ID,
		Email:     payload.Response.Email,
		Name:      name,
		AvatarURL: payload.Response.ProfileImage,
	}, nil
}
