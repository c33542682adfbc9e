package dto

import "time"

type AvailabilityResult struct {
	ListingID string    `json:"listing_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Available bool      `json:"available"`
}

type OccupiedDates struct {
	ListingID string      `json:"listing_id"`
	Dates     []time.Time `json:"dates"`
}
