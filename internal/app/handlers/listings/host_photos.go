package listings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"stayloop/internal/app/commands"
	"stayloop/internal/app/fault"
	"stayloop/internal/app/policies"
	"stayloop/internal/app/uow"
)

const uploadHostListingPhotoKey = "host.listings.photos.upload"

type UploadHostListingPhotoCommand struct {
	HostID      string
	ListingID   string
	ObjectKey   string
	ContentType string
	Reader      io.Reader
}

func (c UploadHostListingPhotoCommand) Key() string { return uploadHostListingPhotoKey }

type HostListingPhotoUploadResult struct {
	ListingID string   `json:"listing_id"`
	PhotoURL  string   `json:"photo_url"`
	Photos    []string `json:"photos"`
}

type UploadHostListingPhotoHandler struct {
	Uploader policies.Uploader
	Logger   *slog.Logger
}

func (h *UploadHostListingPhotoHandler) Handle(ctx context.Context, cmd UploadHostListingPhotoCommand) (*HostListingPhotoUploadResult, error) {
	if h.Uploader == nil {
		return nil, fault.Internal("photo uploader unavailable", nil)
	}
	if cmd.Reader == nil {
		return nil, fault.Validation("photo", "photo body is required")
	}
	if strings.TrimSpace(cmd.ObjectKey) == "" {
		return nil, fault.Validation("photo", "object key is required")
	}

	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := loadOwnedListing(ctx, unit, cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}

	publicURL, err := h.Uploader.Upload(ctx, cmd.ObjectKey, cmd.Reader, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	if err := listing.AddPhoto(publicURL, time.Now()); err != nil {
		return nil, fault.Validation("photo", err.Error())
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing photo added", "listing_id", listing.ID, "host_id", cmd.HostID, "object_key", cmd.ObjectKey)
	}

	return &HostListingPhotoUploadResult{
		ListingID: string(listing.ID),
		PhotoURL:  publicURL,
		Photos:    append([]string(nil), listing.Photos...),
	}, nil
}

var _ commands.Handler[UploadHostListingPhotoCommand, *HostListingPhotoUploadResult] = (*UploadHostListingPhotoHandler)(nil)

const removeHostListingPhotoKey = "host.listings.photos.remove"

type RemoveHostListingPhotoCommand struct {
	HostID    string
	ListingID string
	PhotoURL  string
}

func (c RemoveHostListingPhotoCommand) Key() string { return removeHostListingPhotoKey }

type HostListingPhotoRemoveResult struct {
	ListingID string   `json:"listing_id"`
	Photos    []string `json:"photos"`
}

type RemoveHostListingPhotoHandler struct {
	Uploader policies.Uploader
	Logger   *slog.Logger
}

func (h *RemoveHostListingPhotoHandler) Handle(ctx context.Context, cmd RemoveHostListingPhotoCommand) (*HostListingPhotoRemoveResult, error) {
	photoURL := strings.TrimSpace(cmd.PhotoURL)
	if photoURL == "" {
		return nil, fault.Validation("photo_url", "photo url is required")
	}

	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := loadOwnedListing(ctx, unit, cmd.ListingID, cmd.HostID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, existing := range listing.Photos {
		if existing == photoURL {
			found = true
			break
		}
	}
	if !found {
		return nil, fault.NotFound("photo not on listing")
	}

	listing.RemovePhoto(photoURL, time.Now())
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	// Object-store cleanup is best effort; the listing no longer references
	// the photo either way.
	if h.Uploader != nil {
		if key := objectKeyFromURL(photoURL); key != "" {
			if err := h.Uploader.Remove(ctx, key); err != nil && h.Logger != nil {
				h.Logger.Warn("photo object removal failed", "listing_id", listing.ID, "key", key, "error", err)
			}
		}
	}

	if h.Logger != nil {
		h.Logger.Info("listing photo removed", "listing_id", listing.ID, "host_id", cmd.HostID)
	}

	return &HostListingPhotoRemoveResult{
		ListingID: string(listing.ID),
		Photos:    append([]string(nil), listing.Photos...),
	}, nil
}

// objectKeyFromURL recovers the storage key from a public photo URL.
// Uploaded keys always start with "listings/".
func objectKeyFromURL(url string) string {
	if idx := strings.Index(url, "/listings/"); idx >= 0 {
		return url[idx+1:]
	}
	return ""
}

var _ commands.Handler[RemoveHostListingPhotoCommand, *HostListingPhotoRemoveResult] = (*RemoveHostListingPhotoHandler)(nil)
