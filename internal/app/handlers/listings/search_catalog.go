package listings

import (
	"context"
	"log/slog"

	"stayloop/internal/app/dto"
	handlersupport "stayloop/internal/app/handlers/support"
	"stayloop/internal/app/queries"
	"stayloop/internal/app/uow"
	domainlistings "stayloop/internal/domain/listings"
)

const searchCatalogKey = "listings.catalog.search"

type SearchCatalogQuery struct {
	Params domainlistings.SearchParams
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

// SearchCatalogHandler runs a public catalog search over active listings.
type SearchCatalogHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SearchCatalogHandler) Handle(ctx context.Context, q SearchCatalogQuery) (dto.ListingCatalog, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCatalog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	params := q.Params
	params.OnlyActive = true
	result, err := unit.Listings().Search(execCtx, params.Normalized())
	if err != nil {
		return dto.ListingCatalog{}, err
	}

	if h.Logger != nil {
		h.Logger.Debug("catalog searched", "total", result.Total, "returned", len(result.Items))
	}

	return dto.MapCatalog(result, params), nil
}

var _ queries.Handler[SearchCatalogQuery, dto.ListingCatalog] = (*SearchCatalogHandler)(nil)
