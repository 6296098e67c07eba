package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle is the renewal period of an owner subscription.
type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

var ErrInvalidBillingCycle = errors.New("billing cycle must be monthly or yearly")

var zeroTime time.Time

// ExpiryDate is one month or one year after start.
func ExpiryDate(start time.Time, cycle BillingCycle) (time.Time, error) {
	switch cycle {
	case CycleMonthly:
		return start.AddDate(0, 1, 0), nil
	case CycleYearly:
		return start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, ErrInvalidBillingCycle
	}
}

// ToPaise converts a rupee amount to the gateway's minor unit.
func ToPaise(rupees decimal.Decimal) int64 {
	return rupees.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
