package pricing

import (
	"errors"
	"testing"
	"time"

	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

func stay(t *testing.T, nights int) daterange.DateRange {
	t.Helper()
	checkIn := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)
	r, err := daterange.New(checkIn, checkIn.AddDate(0, 0, nights))
	if err != nil {
		t.Fatalf("stay: %v", err)
	}
	return r
}

func TestQuoteBreakdown(t *testing.T) {
	calc := Calculator{}
	snap, err := calc.Quote(money.Must(10000, "EUR"), money.Must(2000, "EUR"), stay(t, 3))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if snap.Nights != 3 {
		t.Fatalf("nights: got %d", snap.Nights)
	}
	if snap.Subtotal.Amount != 30000 {
		t.Fatalf("subtotal: got %d", snap.Subtotal.Amount)
	}
	if snap.Total.Amount != 32000 {
		t.Fatalf("total: got %d", snap.Total.Amount)
	}
	if snap.Currency != "EUR" {
		t.Fatalf("currency: got %q", snap.Currency)
	}
}

func TestQuoteWeekStay(t *testing.T) {
	calc := Calculator{}
	snap, err := calc.Quote(money.Must(4500, "EUR"), money.Zero("EUR"), stay(t, 7))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if snap.Total.Amount != 31500 {
		t.Fatalf("total: got %d, want 31500", snap.Total.Amount)
	}
	if snap.ServiceFee.Amount != 0 || snap.Taxes.Amount != 0 {
		t.Fatalf("default policy should add no fees: %+v", snap)
	}
}

func TestQuoteAppliesFeePolicy(t *testing.T) {
	calc := Calculator{Policy: FeePolicy{ServiceFeeRate: 0.1, TaxRate: 0.05}}
	snap, err := calc.Quote(money.Must(10000, "EUR"), money.Zero("EUR"), stay(t, 2))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if snap.ServiceFee.Amount != 2000 {
		t.Fatalf("service fee: got %d", snap.ServiceFee.Amount)
	}
	if snap.Taxes.Amount != 1000 {
		t.Fatalf("taxes: got %d", snap.Taxes.Amount)
	}
	if snap.Total.Amount != 23000 {
		t.Fatalf("total: got %d", snap.Total.Amount)
	}
}

func TestQuoteDefaultsCleaningFeeCurrency(t *testing.T) {
	calc := Calculator{}
	snap, err := calc.Quote(money.Must(10000, "EUR"), money.Money{}, stay(t, 1))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if snap.CleaningFee.Currency != "EUR" {
		t.Fatalf("cleaning fee currency: got %q", snap.CleaningFee.Currency)
	}
}

func TestQuoteRejectsBadInput(t *testing.T) {
	calc := Calculator{}
	if _, err := calc.Quote(money.Money{Amount: 100}, money.Money{}, stay(t, 1)); !errors.Is(err, ErrCurrencyUnset) {
		t.Fatalf("missing currency: got %v", err)
	}
	if _, err := calc.Quote(money.Must(-100, "EUR"), money.Money{}, stay(t, 1)); !errors.Is(err, ErrNegativeComponent) {
		t.Fatalf("negative base price: got %v", err)
	}
}
