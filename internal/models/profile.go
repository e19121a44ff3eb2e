package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// ParseRole is the only place a raw role string is interpreted.
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleInstructor:
		return RoleInstructor, nil
	case RoleStudent:
		return RoleStudent, nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleInstructor, RoleStudent:
		return true
	default:
		return false
	}
}

type SportType string

const (
	SportJiujitsu  SportType = "jiujitsu"
	SportWrestling SportType = "wrestling"
	SportJudo      SportType = "judo"
	SportMMA       SportType = "mma"
)

var AllSports = []SportType{SportJiujitsu, SportWrestling, SportJudo, SportMMA}

var sportLabels = map[SportType]string{
	SportJiujitsu:  "주짓수",
	SportWrestling: "레슬링",
	SportJudo:      "유도",
	SportMMA:       "종합격투기",
}

func (s SportType) Label() string {
	if label, ok := sportLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s SportType) Valid() bool {
	for _, sport := range AllSports {
		if s == sport {
			return true
		}
	}
	return false
}

type Profile struct {
	ID                uuid.UUID   `json:"id"`
	Email             *string     `json:"email"`
	DisplayName       string      `json:"display_name"`
	Bio               *string     `json:"bio"`
	Role              *Role       `json:"role"`
	AvatarURL         *string     `json:"avatar_url"`
	InterestedSports  []SportType `json:"interested_sports"`
	IsProfileComplete bool        `json:"is_profile_complete"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Usable reports whether the profile passed the completion form.
func (p *Profile) Usable() bool {
	return p != nil && p.IsProfileComplete
}

func (p *Profile) HasRole(role Role) bool {
	return p != nil && p.Role != nil && *p.Role == role
}

// User is the identity record behind a profile. Email is empty only for
// OAuth accounts whose provider did not share one.
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     *string    `json:"-"`
	SignupName       *string    `json:"-"`
	SignupRole       *Role      `json:"-"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	OAuthProvider    *string    `json:"oauth_provider,omitempty"`
	OAuthSubject     *string    `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (u *User) Confirmed() bool {
	return u != nil && u.EmailConfirmedAt != nil
}
