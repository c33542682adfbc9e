package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainreviews "stayloop/internal/domain/reviews"
	domainrange "stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

// ListingRepository is an in-memory implementation for tests and demo runs.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return listing, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.Version++
	r.items[listing.ID] = listing
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.Host == host {
			matches = append(matches, listing)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// Search returns listings that satisfy the provided filters.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		select {
		case <-ctx.Done():
			return domainlistings.SearchResult{}, ctx.Err()
		default:
		}

		if opts.OnlyActive && listing.State != domainlistings.ListingActive {
			continue
		}
		if opts.Host != "" && listing.Host != opts.Host {
			continue
		}
		if len(opts.States) > 0 && !stateIncluded(listing.State, opts.States) {
			continue
		}
		if opts.City != "" && !strings.EqualFold(listing.Address.City, opts.City) {
			continue
		}
		if opts.Country != "" && !strings.EqualFold(listing.Address.Country, opts.Country) {
			continue
		}
		if opts.LocationQuery != "" && !matchLocation(listing, opts.LocationQuery) {
			continue
		}
		if opts.MinGuests > 0 && listing.GuestsLimit < opts.MinGuests {
			continue
		}
		price := listing.Pricing.BasePrice.Amount
		if opts.PriceMinCents > 0 && price < opts.PriceMinCents {
			continue
		}
		if opts.PriceMaxCents > 0 && price > opts.PriceMaxCents {
			continue
		}
		if !tokensMatch(listing.Amenities, opts.Amenities) {
			continue
		}
		if len(opts.PropertyTypes) > 0 && !propertyTypeMatches(listing.PropertyType, opts.PropertyTypes) {
			continue
		}
		matches = append(matches, listing)
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch opts.Sort {
		case domainlistings.SortByPriceDesc:
			if a.Pricing.BasePrice.Amount == b.Pricing.BasePrice.Amount {
				return a.Rating.Average > b.Rating.Average
			}
			return a.Pricing.BasePrice.Amount > b.Pricing.BasePrice.Amount
		case domainlistings.SortByRating:
			if a.Rating.Average == b.Rating.Average {
				return a.Pricing.BasePrice.Amount < b.Pricing.BasePrice.Amount
			}
			return a.Rating.Average > b.Rating.Average
		case domainlistings.SortByNewest:
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.Pricing.BasePrice.Amount < b.Pricing.BasePrice.Amount
			}
			return a.CreatedAt.After(b.CreatedAt)
		default:
			if a.Pricing.BasePrice.Amount == b.Pricing.BasePrice.Amount {
				return a.Rating.Average > b.Rating.Average
			}
			return a.Pricing.BasePrice.Amount < b.Pricing.BasePrice.Amount
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	return domainlistings.SearchResult{
		Items: matches[start:end],
		Total: total,
	}, nil
}

func tokensMatch(values []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(values) == 0 {
		return false
	}
	index := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(strings.ToLower(value))
		if value == "" {
			continue
		}
		index[value] = struct{}{}
	}
	for _, token := range required {
		if _, ok := index[token]; !ok {
			return false
		}
	}
	return true
}

func matchLocation(listing *domainlistings.Listing, needle string) bool {
	full := strings.ToLower(strings.Join([]string{
		listing.Address.City,
		listing.Address.Country,
		listing.Address.Line1,
		listing.Title,
	}, " "))
	return strings.Contains(full, needle)
}

func propertyTypeMatches(value string, allowed []string) bool {
	current := strings.TrimSpace(strings.ToLower(value))
	if current == "" {
		return false
	}
	for _, option := range allowed {
		if current == option {
			return true
		}
	}
	return false
}

func stateIncluded(state domainlistings.ListingState, allowed []domainlistings.ListingState) bool {
	for _, candidate := range allowed {
		if state == candidate {
			return true
		}
	}
	return false
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return booking, nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.Version++
	r.items[booking.ID] = booking
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.GuestID == guestID })
}

func (r *BookingRepository) ListByHost(ctx context.Context, hostID string) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.HostID == hostID })
}

func (r *BookingRepository) FindConflicting(ctx context.Context, listingID domainlistings.ListingID, stay domainrange.DateRange, exclude domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool {
		if b.ListingID != listingID || b.ID == exclude {
			return false
		}
		return b.State.Blocking() && b.Range.Overlaps(stay)
	})
}

func (r *BookingRepository) ListConfirmedEndedBefore(ctx context.Context, guestID string, cutoff time.Time) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool {
		if guestID != "" && b.GuestID != guestID {
			return false
		}
		return b.State == domainbooking.StateConfirmed && !b.Range.CheckOut.After(cutoff)
	})
}

func (r *BookingRepository) StatsByHost(ctx context.Context, hostID string) ([]domainbooking.StatusStat, error) {
	bookings, err := r.ListByHost(ctx, hostID)
	if err != nil {
		return nil, err
	}
	type bucket struct {
		count   int
		revenue int64
	}
	currency := ""
	buckets := make(map[domainbooking.BookingState]*bucket)
	for _, b := range bookings {
		entry, ok := buckets[b.State]
		if !ok {
			entry = &bucket{}
			buckets[b.State] = entry
		}
		entry.count++
		// Revenue counts only bookings still holding or past their stay;
		// a paid booking cancelled without a refund earns nothing.
		if b.State == domainbooking.StateConfirmed || b.State == domainbooking.StateCompleted {
			entry.revenue += b.Price.Total.Amount
		}
		if currency == "" {
			currency = b.Price.Total.Currency
		}
	}
	stats := make([]domainbooking.StatusStat, 0, len(buckets))
	for state, entry := range buckets {
		stats = append(stats, domainbooking.StatusStat{
			Status:  state,
			Count:   entry.count,
			Revenue: money.Money{Amount: entry.revenue, Currency: currency},
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Status < stats[j].Status })
	return stats, nil
}

func (r *BookingRepository) list(match func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if match(booking) {
			matches = append(matches, booking)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

// ReviewsRepository is a lightweight in-memory review store.
type ReviewsRepository struct {
	mu    sync.RWMutex
	items map[domainreviews.ReviewID]*domainreviews.Review
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{items: make(map[domainreviews.ReviewID]*domainreviews.Review)}
}

func (r *ReviewsRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.items[id]
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return review, nil
}

func (r *ReviewsRepository) ByBookingRole(ctx context.Context, bookingID domainbooking.BookingID, role domainbooking.ReviewRole) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, review := range r.items {
		if review.BookingID == bookingID && review.Role == role {
			return review, nil
		}
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewsRepository) ListPublicByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.ListingID == listingID && review.IsPublic && review.Role == domainbooking.ReviewByGuest {
			matches = append(matches, review)
		}
	}
	return pageReviews(matches, limit, offset)
}

func (r *ReviewsRepository) ListByReviewee(ctx context.Context, revieweeID string, limit, offset int) ([]*domainreviews.Review, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.RevieweeID == revieweeID && review.IsPublic {
			matches = append(matches, review)
		}
	}
	return pageReviews(matches, limit, offset)
}

func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[review.ID] = review
	return nil
}

func (r *ReviewsRepository) Delete(ctx context.Context, id domainreviews.ReviewID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainreviews.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func pageReviews(matches []*domainreviews.Review, limit, offset int) ([]*domainreviews.Review, int, error) {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	total := len(matches)
	if limit <= 0 {
		return matches, total, nil
	}
	start := offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}
