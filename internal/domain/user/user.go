package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrEmailRequired       = errors.New("user: email is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrNameRequired        = errors.New("user: name is required")
	ErrInvalidRole         = errors.New("user: invalid role")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
)

type ID string

type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	FCMToken     string
	Favorites    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role := params.Role
	if role == "" {
		role = RoleGuest
	}
	if !validRole(role) {
		return nil, ErrInvalidRole
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	return &User{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		PasswordHash: params.PasswordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// BecomeHost flips a guest into a host; admins keep their role.
func (u *User) BecomeHost(now time.Time) {
	if u.Role == RoleGuest {
		u.Role = RoleHost
		u.touch(now)
	}
}

// BecomeGuest demotes a host back to guest.
func (u *User) BecomeGuest(now time.Time) {
	if u.Role == RoleHost {
		u.Role = RoleGuest
		u.touch(now)
	}
}

// CanHost reports whether the user may own listings and answer bookings.
func (u *User) CanHost() bool {
	return u.Role == RoleHost || u.Role == RoleAdmin
}

func (u *User) UpdateName(name string, now time.Time) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameRequired
	}
	u.Name = trimmed
	u.touch(now)
	return nil
}

func (u *User) SetPasswordHash(hash string, now time.Time) error {
	if strings.TrimSpace(hash) == "" {
		return ErrPasswordHashMissing
	}
	u.PasswordHash = hash
	u.touch(now)
	return nil
}

// SetFCMToken stores the push token; empty clears a stale one.
func (u *User) SetFCMToken(token string, now time.Time) {
	u.FCMToken = strings.TrimSpace(token)
	u.touch(now)
}

// ToggleFavorite adds or removes a listing from the favorites list and
// reports whether it is now a favorite.
func (u *User) ToggleFavorite(listingID string, now time.Time) bool {
	for i, fav := range u.Favorites {
		if fav == listingID {
			u.Favorites = append(u.Favorites[:i], u.Favorites[i+1:]...)
			u.touch(now)
			return false
		}
	}
	u.Favorites = append(u.Favorites, listingID)
	u.touch(now)
	return true
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validRole(role Role) bool {
	switch role {
	case RoleGuest, RoleHost, RoleAdmin:
		return true
	}
	return false
}
