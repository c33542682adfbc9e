package daterange

import (
	"errors"
	"testing"
	"time"
)

func date(d int) time.Time {
	return time.Date(2026, time.June, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, checkIn, checkOut time.Time) DateRange {
	t.Helper()
	r, err := New(checkIn, checkOut)
	if err != nil {
		t.Fatalf("range %s..%s: %v", checkIn, checkOut, err)
	}
	return r
}

func TestNewRejectsInvertedRange(t *testing.T) {
	if _, err := New(date(10), date(10)); !errors.Is(err, ErrCheckOutNotAfterCheckIn) {
		t.Fatalf("same-day: expected ErrCheckOutNotAfterCheckIn, got %v", err)
	}
	if _, err := New(date(12), date(10)); !errors.Is(err, ErrCheckOutNotAfterCheckIn) {
		t.Fatalf("inverted: expected ErrCheckOutNotAfterCheckIn, got %v", err)
	}
	if _, err := New(time.Time{}, date(10)); !errors.Is(err, ErrZeroDate) {
		t.Fatalf("zero date: expected ErrZeroDate, got %v", err)
	}
}

func TestNights(t *testing.T) {
	if got := mustRange(t, date(10), date(13)).Nights(); got != 3 {
		t.Fatalf("3 full days: got %d nights", got)
	}
	// Partial days bill as a full night.
	late := date(10).Add(14 * time.Hour)
	if got := mustRange(t, late, date(11)).Nights(); got != 1 {
		t.Fatalf("partial day: got %d nights", got)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	stay := mustRange(t, date(10), date(13))

	if !stay.Overlaps(mustRange(t, date(12), date(15))) {
		t.Fatal("intersecting ranges should overlap")
	}
	if !stay.Overlaps(mustRange(t, date(11), date(12))) {
		t.Fatal("contained range should overlap")
	}
	// One stay ending the day another begins is a back-to-back turnover.
	if stay.Overlaps(mustRange(t, date(13), date(16))) {
		t.Fatal("touching range starting at check-out should not overlap")
	}
	if stay.Overlaps(mustRange(t, date(7), date(10))) {
		t.Fatal("touching range ending at check-in should not overlap")
	}
}

func TestContains(t *testing.T) {
	stay := mustRange(t, date(10), date(13))
	if !stay.Contains(date(10)) {
		t.Fatal("check-in instant should be inside")
	}
	if stay.Contains(date(13)) {
		t.Fatal("check-out instant should be outside")
	}
}

func TestDaysUntilCheckIn(t *testing.T) {
	checkIn := date(10)
	if got := DaysUntilCheckIn(checkIn, date(3)); got != 7 {
		t.Fatalf("7 days out: got %d", got)
	}
	// A fraction of a day still counts as a whole day of notice.
	if got := DaysUntilCheckIn(checkIn, date(9).Add(6*time.Hour)); got != 1 {
		t.Fatalf("18 hours out: got %d", got)
	}
	if got := DaysUntilCheckIn(checkIn, date(11)); got != -1 {
		t.Fatalf("past check-in: got %d", got)
	}
}

func TestEachNight(t *testing.T) {
	stay := mustRange(t, date(10), date(13))
	var nights []time.Time
	stay.EachNight(func(n time.Time) { nights = append(nights, n) })
	if len(nights) != 3 {
		t.Fatalf("expected 3 nights, got %d", len(nights))
	}
	if !nights[0].Equal(date(10)) || !nights[2].Equal(date(12)) {
		t.Fatalf("unexpected nights: %v", nights)
	}
}
