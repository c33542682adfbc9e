package pricing

import (
	"errors"

	"stayloop/internal/domain/shared/daterange"
	"stayloop/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset     = errors.New("pricing: currency must be defined")
	ErrNegativeComponent = errors.New("pricing: fee components cannot be negative")
	ErrNoNights          = errors.New("pricing: stay must cover at least one night")
)

// Snapshot is the cost breakdown frozen into a booking at creation time.
// Later changes to the listing tariff never alter an existing snapshot.
type Snapshot struct {
	BasePrice   money.Money `json:"base_price" bson:"base_price"`
	Nights      int         `json:"nights" bson:"nights"`
	Subtotal    money.Money `json:"subtotal" bson:"subtotal"`
	CleaningFee money.Money `json:"cleaning_fee" bson:"cleaning_fee"`
	ServiceFee  money.Money `json:"service_fee" bson:"service_fee"`
	Taxes       money.Money `json:"taxes" bson:"taxes"`
	Total       money.Money `json:"total" bson:"total"`
	Currency    string      `json:"currency" bson:"currency"`
}

// FeePolicy holds the deployment-tunable multipliers applied on top of the
// nightly subtotal. Both default to zero.
type FeePolicy struct {
	ServiceFeeRate float64
	TaxRate        float64
}

// Calculator derives a booking cost snapshot from a listing tariff and a
// stay range.
type Calculator struct {
	Policy FeePolicy
}

// Quote prices a stay: subtotal = basePrice x nights, then cleaning fee,
// service fee and taxes on top.
func (c Calculator) Quote(basePrice money.Money, cleaningFee money.Money, stay daterange.DateRange) (Snapshot, error) {
	if basePrice.Currency == "" {
		return Snapshot{}, ErrCurrencyUnset
	}
	if basePrice.Amount < 0 || cleaningFee.Amount < 0 {
		return Snapshot{}, ErrNegativeComponent
	}
	nights := stay.Nights()
	if nights < 1 {
		return Snapshot{}, ErrNoNights
	}
	if cleaningFee.Currency == "" {
		cleaningFee = money.Zero(basePrice.Currency)
	}

	subtotal := basePrice.Multiply(int64(nights))
	serviceFee := subtotal.Rate(c.Policy.ServiceFeeRate)
	taxes := subtotal.Rate(c.Policy.TaxRate)

	total := subtotal
	for _, component := range []money.Money{cleaningFee, serviceFee, taxes} {
		sum, err := total.Add(component)
		if err != nil {
			return Snapshot{}, err
		}
		total = sum
	}

	return Snapshot{
		BasePrice:   basePrice,
		Nights:      nights,
		Subtotal:    subtotal,
		CleaningFee: cleaningFee,
		ServiceFee:  serviceFee,
		Taxes:       taxes,
		Total:       total,
		Currency:    basePrice.Currency,
	}, nil
}
