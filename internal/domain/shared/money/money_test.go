package money

import (
	"errors"
	"testing"
)

func TestNewValidatesCurrency(t *testing.T) {
	if _, err := New(100, "EU"); !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
	m, err := New(100, "eur")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Currency != "EUR" {
		t.Fatalf("currency not normalized: %q", m.Currency)
	}
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	eur := Must(100, "EUR")
	usd := Must(100, "USD")
	if _, err := eur.Add(usd); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestArithmetic(t *testing.T) {
	m := Must(10000, "EUR")

	sum, err := m.Add(Must(2000, "EUR"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Amount != 12000 {
		t.Fatalf("add: got %d", sum.Amount)
	}

	diff, err := m.Sub(Must(2500, "EUR"))
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if diff.Amount != 7500 {
		t.Fatalf("sub: got %d", diff.Amount)
	}

	if got := m.Multiply(3).Amount; got != 30000 {
		t.Fatalf("multiply: got %d", got)
	}
}

func TestPercentTruncates(t *testing.T) {
	m := Must(31500, "EUR")
	if got := m.Percent(50).Amount; got != 15750 {
		t.Fatalf("50%%: got %d", got)
	}
	if got := Must(101, "EUR").Percent(50).Amount; got != 50 {
		t.Fatalf("odd amount should truncate, got %d", got)
	}
	if got := m.Percent(0).Amount; got != 0 {
		t.Fatalf("0%%: got %d", got)
	}
}

func TestRateRoundsHalfAwayFromZero(t *testing.T) {
	m := Must(10050, "EUR")
	if got := m.Rate(0.1).Amount; got != 1005 {
		t.Fatalf("10%% rate: got %d", got)
	}
	if got := Must(25, "EUR").Rate(0.1).Amount; got != 3 {
		t.Fatalf("2.5 cents should round to 3, got %d", got)
	}
	if got := m.Rate(0).Amount; got != 0 {
		t.Fatalf("zero rate: got %d", got)
	}
}

func TestString(t *testing.T) {
	if got := Must(31500, "EUR").String(); got != "315.00 EUR" {
		t.Fatalf("got %q", got)
	}
	if got := Must(5, "USD").String(); got != "0.05 USD" {
		t.Fatalf("got %q", got)
	}
}
