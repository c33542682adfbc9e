package listings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
)

const (
	createHostListingKey     = "host.listings.create"
	updateHostListingKey     = "host.listings.update"
	activateHostListingKey   = "host.listings.activate"
	deactivateHostListingKey = "host.listings.deactivate"
)

type HostListingPayload struct {
	Title        string
	Description  string
	PropertyType string
	Address      domainlistings.Address
	Amenities    []string
	Photos       []string
	GuestsLimit  int
	MinStay      int
	MaxStay      int
	HouseRules   domainlistings.HouseRules
	Pricing      domainlistings.Pricing
	InstantBook  bool
}

type CreateHostListingCommand struct {
	HostID  string
	Payload HostListingPayload
}

func (c CreateHostListingCommand) Key() string { return createHostListingKey }

type CreateHostListingHandler struct {
	Logger *slog.Logger
}

func (h *CreateHostListingHandler) Handle(ctx context.Context, cmd CreateHostListingCommand) (*dto.ListingOverview, error) {
	if strings.TrimSpace(cmd.HostID) == "" {
		return nil, fault.Unauthorized("host id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:           domainlistings.ListingID(uuid.NewString()),
		Host:         domainlistings.HostID(cmd.HostID),
		Title:        cmd.Payload.Title,
		Description:  cmd.Payload.Description,
		PropertyType: cmd.Payload.PropertyType,
		Address:      cmd.Payload.Address,
		Amenities:    cmd.Payload.Amenities,
		Photos:       cmd.Payload.Photos,
		GuestsLimit:  cmd.Payload.GuestsLimit,
		MinStay:      cmd.Payload.MinStay,
		MaxStay:      cmd.Payload.MaxStay,
		HouseRules:   cmd.Payload.HouseRules,
		Pricing:      cmd.Payload.Pricing,
		InstantBook:  cmd.Payload.InstantBook,
		Now:          time.Now(),
	})
	if err != nil {
		return nil, fault.Validation("listing", err.Error())
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing created", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	result := dto.MapListingOverview(listing)
	return &result, nil
}

type UpdateHostListingCommand struct {
	HostID    string
	ListingID string
	Payload   HostListingPayload
}

func (c UpdateHostListingCommand) Key() string { return updateHostListingKey }

type UpdateHostListingHandler struct {
	Logger *slog.Logger
}

func (h *UpdateHostListingHandler) Handle(ctx context.Context, cmd UpdateHostListingCommand) (*dto.ListingOverview, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := loadOwnedListing(ctx, unit, cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}

	if err := listing.UpdateDetails(domainlistings.UpdateListingParams{
		Title:        cmd.Payload.Title,
		Description:  cmd.Payload.Description,
		PropertyType: cmd.Payload.PropertyType,
		Address:      cmd.Payload.Address,
		Amenities:    cmd.Payload.Amenities,
		Photos:       cmd.Payload.Photos,
		GuestsLimit:  cmd.Payload.GuestsLimit,
		MinStay:      cmd.Payload.MinStay,
		MaxStay:      cmd.Payload.MaxStay,
		HouseRules:   cmd.Payload.HouseRules,
		Pricing:      cmd.Payload.Pricing,
		InstantBook:  cmd.Payload.InstantBook,
		Now:          time.Now(),
	}); err != nil {
		return nil, fault.Validation("listing", err.Error())
	}

	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("host listing updated", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	result := dto.MapListingOverview(listing)
	return &result, nil
}

type ActivateHostListingCommand struct {
	HostID    string
	ListingID string
}

func (c ActivateHostListingCommand) Key() string { return activateHostListingKey }

type DeactivateHostListingCommand struct {
	HostID    string
	ListingID string
}

func (c DeactivateHostListingCommand) Key() string { return deactivateHostListingKey }

type ListingStateResult struct {
	ListingID string `json:"listing_id"`
	State     string `json:"state"`
}

type ActivateHostListingHandler struct {
	Logger *slog.Logger
}

func (h *ActivateHostListingHandler) Handle(ctx context.Context, cmd ActivateHostListingCommand) (*ListingStateResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	listing, err := loadOwnedListing(ctx, unit, cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}
	if err := listing.Activate(time.Now()); err != nil {
		return nil, fault.PolicyViolation(err.Error())
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("host listing activated", "listing_id", listing.ID, "host_id", cmd.HostID)
	}
	return &ListingStateResult{ListingID: string(listing.ID), State: string(listing.State)}, nil
}

type DeactivateHostListingHandler struct {
	Logger *slog.Logger
}

func (h *DeactivateHostListingHandler) Handle(ctx context.Context, cmd DeactivateHostListingCommand) (*ListingStateResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	listing, err := loadOwnedListing(ctx, unit, cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}
	if err := listing.Deactivate(time.Now()); err != nil {
		return nil, fault.PolicyViolation(err.Error())
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("host listing deactivated", "listing_id", listing.ID, "host_id", cmd.HostID)
	}
	return &ListingStateResult{ListingID: string(listing.ID), State: string(listing.State)}, nil
}

func loadOwnedListing(ctx context.Context, unit uow.UnitOfWork, listingID, hostID string) (*domainlistings.Listing, error) {
	if strings.TrimSpace(hostID) == "" {
		return nil, fault.Unauthorized("host id is required")
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return nil, fault.NotFound("listing not found")
		}
		return nil, err
	}
	if listing.Host != domainlistings.HostID(hostID) {
		return nil, fault.Unauthorized("listing belongs to another host")
	}
	return listing, nil
}

var _ commands.Handler[CreateHostListingCommand, *dto.ListingOverview] = (*CreateHostListingHandler)(nil)
var _ commands.Handler[UpdateHostListingCommand, *dto.ListingOverview] = (*UpdateHostListingHandler)(nil)
var _ commands.Handler[ActivateHostListingCommand, *ListingStateResult] = (*ActivateHostListingHandler)(nil)
var _ commands.Handler[DeactivateHostListingCommand, *ListingStateResult] = (*DeactivateHostListingHandler)(nil)
