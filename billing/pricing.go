package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// BookingType is the pricing unit of a line item.
type BookingType string

const (
	BookingHourly BookingType = "hourly"
	BookingDaily  BookingType = "daily"
)

var (
	ErrNoLineItems     = errors.New("at least one booking date is required")
	ErrInvalidLineItem = errors.New("invalid booking line item")
	ErrInvalidRate     = errors.New("space rate is not configured")
)

var validate = validator.New()

// LineItem is one date/time/seat entry of a booking request.
type LineItem struct {
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string      `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime     string      `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Seats       int         `json:"seats" validate:"gte=1"`
	BookingType BookingType `json:"booking_type,omitempty" validate:"omitempty,oneof=hourly daily"`
}

// Rates are a space's configured prices.
type Rates struct {
	Hourly decimal.Decimal
	Daily  decimal.Decimal
}

// Kind resolves the item's pricing unit. Items without an explicit type are
// hourly when both times are present and daily otherwise.
func (li LineItem) Kind() BookingType {
	if li.BookingType != "" {
		return li.BookingType
	}
	if li.StartTime != "" && li.EndTime != "" {
		return BookingHourly
	}
	return BookingDaily
}

// Day parses the item's calendar date.
func (li LineItem) Day() (time.Time, error) {
	return time.Parse(time.DateOnly, li.Date)
}

// DurationHours is max(1, end-start) in hours for hourly items and one unit
// for daily items.
func (li LineItem) DurationHours() (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if li.Kind() == BookingDaily {
		return one, nil
	}
	start, err := time.Parse("15:04", li.StartTime)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: start_time %q", ErrInvalidLineItem, li.StartTime)
	}
	end, err := time.Parse("15:04", li.EndTime)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: end_time %q", ErrInvalidLineItem, li.EndTime)
	}
	hours := decimal.NewFromInt(int64(end.Sub(start) / time.Minute)).Div(decimal.NewFromInt(60))
	return decimal.Max(one, hours), nil
}

// PricedLine is a validated line item with its computed amount.
type PricedLine struct {
	Item     LineItem        `json:"item"`
	Kind     BookingType     `json:"kind"`
	Rate     decimal.Decimal `json:"rate"`
	Duration decimal.Decimal `json:"duration"`
	Amount   decimal.Decimal `json:"amount"`
}

// PriceLine computes rate * seats * duration for one item.
func PriceLine(li LineItem, rates Rates) (PricedLine, error) {
	if err := validate.Struct(li); err != nil {
		return PricedLine{}, fmt.Errorf("%w: %v", ErrInvalidLineItem, err)
	}
	kind := li.Kind()
	if kind == BookingHourly && (li.StartTime == "" || li.EndTime == "") {
		return PricedLine{}, fmt.Errorf("%w: hourly booking needs start_time and end_time", ErrInvalidLineItem)
	}

	rate := rates.Hourly
	if kind == BookingDaily {
		rate = rates.Daily
	}
	if !rate.IsPositive() {
		return PricedLine{}, fmt.Errorf("%w: %s rate must be positive", ErrInvalidRate, kind)
	}

	duration, err := li.DurationHours()
	if err != nil {
		return PricedLine{}, err
	}

	amount := rate.Mul(decimal.NewFromInt(int64(li.Seats))).Mul(duration).Round(2)
	return PricedLine{Item: li, Kind: kind, Rate: rate, Duration: duration, Amount: amount}, nil
}

// PriceBatch prices every item and returns the lines with their sum.
func PriceBatch(items []LineItem, rates Rates) ([]PricedLine, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, ErrNoLineItems
	}
	lines := make([]PricedLine, 0, len(items))
	total := decimal.Zero
	for i, item := range items {
		line, err := PriceLine(item, rates)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("item %d: %w", i+1, err)
		}
		lines = append(lines, line)
		total = total.Add(line.Amount)
	}
	return lines, total, nil
}

// Amounts extracts the line amounts in order.
func Amounts(lines []PricedLine) []decimal.Decimal {
	out := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		out[i] = l.Amount
	}
	return out
}

// TotalSeats sums seats across the batch.
func TotalSeats(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Seats
	}
	return n
}
