package listings

import (
	"context"
	"strings"

	"stayloop/internal/app/dto"
	"stayloop/internal/app/fault"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
)

const listHostListingsKey = "host.listings.list"

type ListHostListingsQuery struct {
	HostID string
}

func (q ListHostListingsQuery) Key() string { return listHostListingsKey }

type HostListingCollection struct {
	Items []dto.ListingOverview `json:"items"`
}

// ListHostListingsHandler returns every listing a host owns, drafts
// included.
type ListHostListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHostListingsHandler) Handle(ctx context.Context, q ListHostListingsQuery) (HostListingCollection, error) {
	hostID := strings.TrimSpace(q.HostID)
	if hostID == "" {
		return HostListingCollection{}, fault.Unauthorized("host id is required")
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return HostListingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listings, err := unit.Listings().ListByHost(execCtx, domainlistings.HostID(hostID))
	if err != nil {
		return HostListingCollection{}, err
	}
	items := make([]dto.ListingOverview, 0, len(listings))
	for _, listing := range listings {
		items = append(items, dto.MapListingOverview(listing))
	}
	return HostListingCollection{Items: items}, nil
}

var _ queries.Handler[ListHostListingsQuery, HostListingCollection] = (*ListHostListingsHandler)(nil)
