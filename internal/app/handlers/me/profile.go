package me

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
	domainuser "stayloop/internal/domain/user"
)

const (
	updateProfileKey  = "me.profile.update"
	toggleFavoriteKey = "me.favorites.toggle"
	setFCMTokenKey    = "me.fcm_token.set"
)

type UpdateProfileCommand struct {
	UserID string
	Name   string
}

func (c UpdateProfileCommand) Key() string { return updateProfileKey }

type UpdateProfileHandler struct {
	Logger *slog.Logger
}

func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (dto.UserProfile, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.UserProfile{}, uow.ErrUnitOfWorkMissing
	}
	user, err := loadUser(ctx, unit, cmd.UserID)
	if err != nil {
		return dto.UserProfile{}, err
	}
	if err := user.UpdateName(cmd.Name, time.Now()); err != nil {
		return dto.UserProfile{}, fault.Validation("name", err.Error())
	}
	if err := unit.Users().Save(ctx, user); err != nil {
		return dto.UserProfile{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("profile updated", "user_id", user.ID)
	}
	return dto.MapUserProfile(user), nil
}

type ToggleFavoriteCommand struct {
	UserID    string
	ListingID string
}

func (c ToggleFavoriteCommand) Key() string { return toggleFavoriteKey }

type ToggleFavoriteResult struct {
	ListingID string `json:"listing_id"`
	Favorite  bool   `json:"favorite"`
}

type ToggleFavoriteHandler struct {
	Logger *slog.Logger
}

func (h *ToggleFavoriteHandler) Handle(ctx context.Context, cmd ToggleFavoriteCommand) (*ToggleFavoriteResult, error) {
	if strings.TrimSpace(cmd.ListingID) == "" {
		return nil, fault.Validation("listing_id", "listing id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	user, err := loadUser(ctx, unit, cmd.UserID)
	if err != nil {
		return nil, err
	}
	favorite := user.ToggleFavorite(cmd.ListingID, time.Now())
	if err := unit.Users().Save(ctx, user); err != nil {
		return nil, err
	}
	return &ToggleFavoriteResult{ListingID: cmd.ListingID, Favorite: favorite}, nil
}

type SetFCMTokenCommand struct {
	UserID string
	Token  string
}

func (c SetFCMTokenCommand) Key() string { return setFCMTokenKey }

type SetFCMTokenResult struct {
	UserID string `json:"user_id"`
}

// SetFCMTokenHandler stores the device push token used by the notifier.
type SetFCMTokenHandler struct {
	Logger *slog.Logger
}

func (h *SetFCMTokenHandler) Handle(ctx context.Context, cmd SetFCMTokenCommand) (*SetFCMTokenResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	user, err := loadUser(ctx, unit, cmd.UserID)
	if err != nil {
		return nil, err
	}
	user.SetFCMToken(cmd.Token, time.Now())
	if err := unit.Users().Save(ctx, user); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Debug("fcm token stored", "user_id", user.ID)
	}
	return &SetFCMTokenResult{UserID: string(user.ID)}, nil
}

func loadUser(ctx context.Context, unit uow.UnitOfWork, userID string) (*domainuser.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fault.Unauthorized("user id is required")
	}
	user, err := unit.Users().ByID(ctx, domainuser.ID(userID))
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, fault.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

var _ commands.Handler[UpdateProfileCommand, dto.UserProfile] = (*UpdateProfileHandler)(nil)
var _ commands.Handler[ToggleFavoriteCommand, *ToggleFavoriteResult] = (*ToggleFavoriteHandler)(nil)
var _ commands.Handler[SetFCMTokenCommand, *SetFCMTokenResult] = (*SetFCMTokenHandler)(nil)
