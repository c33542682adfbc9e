package daterange

import (
	"errors"
	"math"
	"time"
)

var (
	ErrCheckOutNotAfterCheckIn = errors.New("daterange: check-out must be after check-in")
	ErrZeroDate                = errors.New("daterange: check-in and check-out are required")
)

const day = 24 * time.Hour

// DateRange is a half-open stay interval [CheckIn, CheckOut): the guest
// occupies the nights from check-in up to, but not including, check-out day.
type DateRange struct {
	CheckIn  time.Time `json:"check_in" bson:"check_in"`
	CheckOut time.Time `json:"check_out" bson:"check_out"`
}

// New validates and normalizes a stay range to UTC.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return DateRange{}, ErrZeroDate
	}
	if !checkOut.After(checkIn) {
		return DateRange{}, ErrCheckOutNotAfterCheckIn
	}
	return DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}, nil
}

// Nights returns the number of billable nights, rounding partial days up.
// Always >= 1 for a valid range.
func (r DateRange) Nights() int {
	return int(math.Ceil(r.CheckOut.Sub(r.CheckIn).Hours() / 24))
}

// Overlaps reports whether two half-open ranges intersect. Touching ranges,
// one stay ending the day another begins, do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && r.CheckOut.After(other.CheckIn)
}

// Contains reports whether the given instant falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.CheckIn) && t.Before(r.CheckOut)
}

// DaysUntilCheckIn returns ceil((checkIn - now) / 1 day); negative once
// check-in has passed.
func DaysUntilCheckIn(checkIn, now time.Time) int {
	return int(math.Ceil(checkIn.Sub(now).Hours() / 24))
}

// EachNight calls fn for every occupied night starting at midnight UTC.
func (r DateRange) EachNight(fn func(night time.Time)) {
	current := time.Date(r.CheckIn.Year(), r.CheckIn.Month(), r.CheckIn.Day(), 0, 0, 0, 0, time.UTC)
	for current.Before(r.CheckOut) {
		fn(current)
		current = current.Add(day)
	}
}
