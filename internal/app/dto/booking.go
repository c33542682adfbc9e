package dto

import (
	"time"

	domainbooking "stayloop/internal/domain/booking"
	domainlistings "stayloop/internal/domain/listings"
	domainpricing "stayloop/internal/domain/pricing"
	"stayloop/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type PriceSnapshotDTO struct {
	BasePrice   MoneyDTO `json:"base_price"`
	Nights      int      `json:"nights"`
	Subtotal    MoneyDTO `json:"subtotal"`
	CleaningFee MoneyDTO `json:"cleaning_fee"`
	ServiceFee  MoneyDTO `json:"service_fee"`
	Taxes       MoneyDTO `json:"taxes"`
	Total       MoneyDTO `json:"total"`
	Currency    string   `json:"currency"`
}

type GuestCountsDTO struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
	Pets     int `json:"pets"`
}

type BookingListingSnapshot struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type BookingDetail struct {
	ID              string                 `json:"id"`
	Listing         BookingListingSnapshot `json:"listing"`
	GuestID         string                 `json:"guest_id"`
	HostID          string                 `json:"host_id"`
	CheckIn         time.Time              `json:"check_in"`
	CheckOut        time.Time              `json:"check_out"`
	Guests          GuestCountsDTO         `json:"guests"`
	Status          string                 `json:"status"`
	PaymentStatus   string                 `json:"payment_status"`
	Price           PriceSnapshotDTO       `json:"price"`
	SpecialRequests string                 `json:"special_requests,omitempty"`
	GuestMessage    string                 `json:"guest_message,omitempty"`
	HostMessage     string                 `json:"host_message,omitempty"`
	RefundAmount    *MoneyDTO              `json:"refund_amount,omitempty"`
	CancelReason    string                 `json:"cancel_reason,omitempty"`
	ChatThreadID    string                 `json:"chat_thread_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type GuestBookingSummary struct {
	ID              string                 `json:"id"`
	Listing         BookingListingSnapshot `json:"listing"`
	CheckIn         time.Time              `json:"check_in"`
	CheckOut        time.Time              `json:"check_out"`
	Guests          int                    `json:"guests"`
	Status          string                 `json:"status"`
	Total           MoneyDTO               `json:"total"`
	CreatedAt       time.Time              `json:"created_at"`
	ReviewSubmitted bool                   `json:"review_submitted"`
	CanReview       bool                   `json:"can_review"`
}

type GuestBookingCollection struct {
	Items []GuestBookingSummary `json:"items"`
}

type HostBookingSummary struct {
	ID        string                 `json:"id"`
	Listing   BookingListingSnapshot `json:"listing"`
	GuestID   string                 `json:"guest_id"`
	CheckIn   time.Time              `json:"check_in"`
	CheckOut  time.Time              `json:"check_out"`
	Guests    int                    `json:"guests"`
	Status    string                 `json:"status"`
	Total     MoneyDTO               `json:"total"`
	CreatedAt time.Time              `json:"created_at"`
}

type HostBookingCollection struct {
	Items []HostBookingSummary `json:"items"`
}

type BookingStatusStat struct {
	Status  string   `json:"status"`
	Count   int      `json:"count"`
	Revenue MoneyDTO `json:"revenue"`
}

type HostBookingStats struct {
	Items []BookingStatusStat `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapPriceSnapshot(s domainpricing.Snapshot) PriceSnapshotDTO {
	return PriceSnapshotDTO{
		BasePrice:   MapMoney(s.BasePrice),
		Nights:      s.Nights,
		Subtotal:    MapMoney(s.Subtotal),
		CleaningFee: MapMoney(s.CleaningFee),
		ServiceFee:  MapMoney(s.ServiceFee),
		Taxes:       MapMoney(s.Taxes),
		Total:       MapMoney(s.Total),
		Currency:    s.Currency,
	}
}

func mapListingSnapshot(listingID domainlistings.ListingID, listing *domainlistings.Listing) BookingListingSnapshot {
	snapshot := BookingListingSnapshot{ID: string(listingID)}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.AddressLine1 = listing.Address.Line1
		snapshot.City = listing.Address.City
		snapshot.Region = listing.Address.Region
		snapshot.Country = listing.Address.Country
		if len(listing.Photos) > 0 {
			snapshot.ThumbnailURL = listing.Photos[0]
		}
	}
	return snapshot
}

func MapBookingDetail(b *domainbooking.Booking, listing *domainlistings.Listing) BookingDetail {
	detail := BookingDetail{
		ID:      string(b.ID),
		Listing: mapListingSnapshot(b.ListingID, listing),
		GuestID: b.GuestID,
		HostID:  b.HostID,
		CheckIn: b.Range.CheckIn,
		CheckOut: b.Range.CheckOut,
		Guests: GuestCountsDTO{
			Adults:   b.Guests.Adults,
			Children: b.Guests.Children,
			Infants:  b.Guests.Infants,
			Pets:     b.Guests.Pets,
		},
		Status:          string(b.State),
		PaymentStatus:   string(b.Payment),
		Price:           MapPriceSnapshot(b.Price),
		SpecialRequests: b.SpecialRequests,
		GuestMessage:    b.GuestMessage,
		ChatThreadID:    b.ChatThreadID,
		CreatedAt:       b.CreatedAt,
	}
	if b.HostResponse != nil {
		detail.HostMessage = b.HostResponse.Message
	}
	if b.Cancellation != nil {
		detail.CancelReason = b.Cancellation.Reason
		refund := MapMoney(b.Cancellation.RefundAmount)
		detail.RefundAmount = &refund
	}
	return detail
}

func MapGuestBookingSummary(b *domainbooking.Booking, listing *domainlistings.Listing, reviewSubmitted, canReview bool) GuestBookingSummary {
	return GuestBookingSummary{
		ID:              string(b.ID),
		Listing:         mapListingSnapshot(b.ListingID, listing),
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Guests:          b.Guests.Total(),
		Status:          string(b.State),
		Total:           MapMoney(b.Price.Total),
		CreatedAt:       b.CreatedAt,
		ReviewSubmitted: reviewSubmitted,
		CanReview:       canReview,
	}
}

func MapHostBookingSummary(b *domainbooking.Booking, listing *domainlistings.Listing) HostBookingSummary {
	return HostBookingSummary{
		ID:        string(b.ID),
		Listing:   mapListingSnapshot(b.ListingID, listing),
		GuestID:   b.GuestID,
		CheckIn:   b.Range.CheckIn,
		CheckOut:  b.Range.CheckOut,
		Guests:    b.Guests.Total(),
		Status:    string(b.State),
		Total:     MapMoney(b.Price.Total),
		CreatedAt: b.CreatedAt,
	}
}

func MapHostBookingStats(stats []domainbooking.StatusStat) HostBookingStats {
	items := make([]BookingStatusStat, 0, len(stats))
	for _, s := range stats {
		items = append(items, BookingStatusStat{
			Status:  string(s.Status),
			Count:   s.Count,
			Revenue: MapMoney(s.Revenue),
		})
	}
	return HostBookingStats{Items: items}
}
