package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownPlan = errors.New("unknown subscription plan")

// PlanPrices maps "plan:cycle" to the subscription price.
type PlanPrices map[string]decimal.Decimal

func planKey(plan string, cycle BillingCycle) string {
	return strings.ToLower(strings.TrimSpace(plan)) + ":" + string(cycle)
}

// ParsePlanPrices reads a list like "pro:monthly=999,pro:yearly=9999".
func ParsePlanPrices(raw string) (PlanPrices, error) {
	out := PlanPrices{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, price, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("plan price %q: missing '='", entry)
		}
		plan, cycle, ok := strings.Cut(strings.TrimSpace(key), ":")
		if !ok {
			return nil, fmt.Errorf("plan price %q: key must be plan:cycle", entry)
		}
		if _, err := ExpiryDate(zeroTime, BillingCycle(cycle)); err != nil {
			return nil, fmt.Errorf("plan price %q: %w", entry, err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(price))
		if err != nil || amount.IsNegative() {
			return nil, fmt.Errorf("plan price %q: invalid amount", entry)
		}
		out[planKey(plan, BillingCycle(cycle))] = amount
	}
	return out, nil
}

// Price looks up a plan's price for cycle.
func (p PlanPrices) Price(plan string, cycle BillingCycle) (decimal.Decimal, error) {
	price, ok := p[planKey(plan, cycle)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s %s", ErrUnknownPlan, plan, cycle)
	}
	return price, nil
}
