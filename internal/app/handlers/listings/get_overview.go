package listings

import (
	"context"
	"errors"

	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
)

const getListingOverviewKey = "listings.overview"

type GetListingOverviewQuery struct {
	ListingID string
}

func (q GetListingOverviewQuery) Key() string { return getListingOverviewKey }

// GetListingOverviewHandler returns the public detail page payload.
type GetListingOverviewHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingOverviewHandler) Handle(ctx context.Context, q GetListingOverviewQuery) (dto.ListingOverview, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingOverview{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		if errors.Is(err, domainlistings.ErrNotFound) {
			return dto.ListingOverview{}, fault.NotFound("listing not found")
		}
		return dto.ListingOverview{}, err
	}

	return dto.MapListingOverview(listing), nil
}

var _ queries.Handler[GetListingOverviewQuery, dto.ListingOverview] = (*GetListingOverviewHandler)(nil)
