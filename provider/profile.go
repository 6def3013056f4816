package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ID names a supported identity provider.
type ID string

const (
	Google ID = "google"
	GitHub ID = "github"
)

var (
	// ErrUnknownProvider is returned for provider names outside the supported set.
	ErrUnknownProvider = errors.New("unknown identity provider")
	// ErrIncompleteProfile is returned when a provider profile lacks a required attribute.
	ErrIncompleteProfile = errors.New("incomplete provider profile")
)

// ParseID maps a provider name (case-insensitive) onto its ID.
func ParseID(name string) (ID, error) {
	switch ID(strings.ToLower(strings.TrimSpace(name))) {
	case Google:
		return Google, nil
	case GitHub:
		return GitHub, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}

// Profile is the normalized view of a provider user.
type Profile struct {
	Username  string
	Email     string
	FullName  string
	AvatarURL string
}

// Extractor turns a provider's raw userinfo attributes into a Profile.
type Extractor interface {
	Extract(attrs map[string]any) (Profile, error)
}

// ExtractorFor returns the attribute mapping for id.
func ExtractorFor(id ID) (Extractor, error) {
	switch id {
	case Google:
		return googleExtractor{}, nil
	case GitHub:
		return githubExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
	}
}

type googleExtractor struct{}

// Google has no handle, so the username is the local part of the email.
func (googleExtractor) Extract(attrs map[string]any) (Profile, error) {
	email := getString(attrs, "email")
	if email == "" {
		return Profile{}, fmt.Errorf("%w: google profile has no email", ErrIncompleteProfile)
	}
	username, _, _ := strings.Cut(email, "@")
	if username == "" {
		return Profile{}, fmt.Errorf("%w: google email has no local part", ErrIncompleteProfile)
	}

	return Profile{
		Username:  username,
		Email:     email,
		FullName:  getString(attrs, "name"),
		AvatarURL: getString(attrs, "picture"),
	}, nil
}

type githubExtractor struct{}

func (githubExtractor) Extract(attrs map[string]any) (Profile, error) {
	login := getString(attrs, "login")
	if login == "" {
		return Profile{}, fmt.Errorf("%w: github profile has no login", ErrIncompleteProfile)
	}
	email := getString(attrs, "email")
	if email == "" {
		return Profile{}, fmt.Errorf("%w: github profile has no email", ErrIncompleteProfile)
	}
	name := getString(attrs, "name")
	if name == "" {
		name = login
	}

	return Profile{
		Username:  login,
		Email:     email,
		FullName:  name,
		AvatarURL: getString(attrs, "avatar_url"),
	}, nil
}

func getString(data map[string]any, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return strings.TrimSpace(str)
		}
	}
	return ""
}
