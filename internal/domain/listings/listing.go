package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"stayloop/internal/domain/shared/events"
	"stayloop/internal/domain/shared/money"
)

var (
	ErrNotFound         = errors.New("listings: not found")
	ErrTitleRequired    = errors.New("listings: title is required")
	ErrHostRequired     = errors.New("listings: host is required")
	ErrGuestCapacity    = errors.New("listings: guest capacity must be at least 1")
	ErrStayRange        = errors.New("listings: min stay must be <= max stay")
	ErrNightlyRate      = errors.New("listings: base price must be non-negative")
	ErrInvalidState     = errors.New("listings: invalid state transition")
	ErrAddressRequired  = errors.New("listings: address must be provided when activating")
	ErrRatingOutOfRange = errors.New("listings: rating average must be within [0,5]")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "draft"
	ListingActive    ListingState = "active"
	ListingInactive  ListingState = "inactive"
	ListingSuspended ListingState = "suspended"
)

type Address struct {
	Line1   string
	Line2   string
	City    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

// HouseRules carries the flags bookings validate against.
type HouseRules struct {
	PetsAllowed    bool
	SmokingAllowed bool
	PartiesAllowed bool
	Additional     []string
}

// Pricing is the live tariff; bookings snapshot it at creation and never
// read it again afterwards.
type Pricing struct {
	BasePrice   money.Money
	CleaningFee money.Money
}

// Rating is the aggregate over public guest reviews. Only ApplyRating may
// write it; the rating aggregator owns the recomputation.
type Rating struct {
	Average float64
	Count   int
}

type Listing struct {
	ID           ListingID
	Host         HostID
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Amenities    []string
	Photos       []string
	GuestsLimit  int
	MinStay      int
	MaxStay      int
	HouseRules   HouseRules
	Pricing      Pricing
	State        ListingState
	Rating       Rating
	InstantBook  bool
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	events.EventRecorder
}

// Bookable reports whether new booking requests may target this listing.
func (l *Listing) Bookable() bool {
	return l.State == ListingActive
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	ListByHost(ctx context.Context, host HostID) ([]*Listing, error)
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateListingParams struct {
	ID           ListingID
	Host         HostID
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Amenities    []string
	Photos       []string
	GuestsLimit  int
	MinStay      int
	MaxStay      int
	HouseRules   HouseRules
	Pricing      Pricing
	InstantBook  bool
	Now          time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return nil, ErrGuestCapacity
	}
	if params.MinStay > params.MaxStay {
		return nil, ErrStayRange
	}
	if params.Pricing.BasePrice.Amount < 0 {
		return nil, ErrNightlyRate
	}
	now := params.Now.UTC()

	listing := &Listing{
		ID:           params.ID,
		Host:         params.Host,
		Title:        strings.TrimSpace(params.Title),
		Description:  strings.TrimSpace(params.Description),
		PropertyType: strings.TrimSpace(params.PropertyType),
		Address:      params.Address,
		Amenities:    append([]string(nil), params.Amenities...),
		Photos:       append([]string(nil), params.Photos...),
		GuestsLimit:  params.GuestsLimit,
		MinStay:      params.MinStay,
		MaxStay:      params.MaxStay,
		HouseRules:   params.HouseRules,
		Pricing:      params.Pricing,
		State:        ListingDraft,
		InstantBook:  params.InstantBook,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, At: now})
	return listing, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if l.State == ListingSuspended {
		return ErrInvalidState
	}
	if !l.Address.Valid() {
		return ErrAddressRequired
	}
	if l.GuestsLimit < 1 {
		return ErrGuestCapacity
	}
	if l.MinStay > l.MaxStay {
		return ErrStayRange
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingActivatedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Deactivate(now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingInactive
	l.UpdatedAt = now.UTC()
	l.Record(ListingDeactivatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Suspend(now time.Time, reason string) error {
	if l.State == ListingSuspended {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

type UpdateListingParams struct {
	Title        string
	Description  string
	PropertyType string
	Address      Address
	Amenities    []string
	Photos       []string
	GuestsLimit  int
	MinStay      int
	MaxStay      int
	HouseRules   HouseRules
	Pricing      Pricing
	InstantBook  bool
	Now          time.Time
}

func (l *Listing) UpdateDetails(params UpdateListingParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return ErrTitleRequired
	}
	if params.GuestsLimit < 1 {
		return ErrGuestCapacity
	}
	if params.MinStay > params.MaxStay {
		return ErrStayRange
	}
	if params.Pricing.BasePrice.Amount < 0 {
		return ErrNightlyRate
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	l.Title = strings.TrimSpace(params.Title)
	l.Description = strings.TrimSpace(params.Description)
	l.PropertyType = strings.TrimSpace(params.PropertyType)
	l.Address = params.Address
	l.Amenities = append([]string(nil), params.Amenities...)
	l.Photos = append([]string(nil), params.Photos...)
	l.GuestsLimit = params.GuestsLimit
	l.MinStay = params.MinStay
	l.MaxStay = params.MaxStay
	l.HouseRules = params.HouseRules
	l.Pricing = params.Pricing
	l.InstantBook = params.InstantBook
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// AddPhoto appends a photo URL, skipping duplicates.
func (l *Listing) AddPhoto(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("listings: photo url is required")
	}
	for _, existing := range l.Photos {
		if existing == url {
			return nil
		}
	}
	l.Photos = append(l.Photos, url)
	l.UpdatedAt = now.UTC()
	return nil
}

// RemovePhoto drops a photo URL if present.
func (l *Listing) RemovePhoto(url string, now time.Time) {
	for i, existing := range l.Photos {
		if existing == url {
			l.Photos = append(l.Photos[:i], l.Photos[i+1:]...)
			l.UpdatedAt = now.UTC()
			return
		}
	}
}

// ApplyRating overwrites the rating aggregate. Callers other than the rating
// aggregator must not invoke it.
func (l *Listing) ApplyRating(average float64, count int, now time.Time) error {
	if average < 0 || average > 5 {
		return ErrRatingOutOfRange
	}
	l.Rating = Rating{Average: average, Count: count}
	l.UpdatedAt = now.UTC()
	return nil
}
