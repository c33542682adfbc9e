package uow

import (
	"context"

	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainreviews "stayloop/internal/domain/reviews"
	domainuser "stayloop/internal/domain/user"
)

// UnitOfWork gives handlers a transactional view over every aggregate
// repository. Writes made through it become visible together on Commit.
type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Booking() domainbooking.Repository
	Reviews() domainreviews.Repository
	Users() domainuser.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory opens units of work. Implementations live in infra (mongo
// sessions, plain memory).
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
