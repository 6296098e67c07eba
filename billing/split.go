package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxRole distinguishes the commission-bearing rule from ordinary taxes.
type TaxRole string

const (
	RolePlatformFee TaxRole = "platform_fee"
	RoleOther       TaxRole = "other"
)

// AppliesTo records which side of the transaction a rule is levied on.
type AppliesTo string

const (
	AppliesToBooking     AppliesTo = "booking"
	AppliesToOwnerPayout AppliesTo = "owner_payout"
	AppliesToBoth        AppliesTo = "both"
)

var (
	ErrMultiplePlatformFees = errors.New("more than one enabled platform fee rule")
	ErrInvalidPercentage    = errors.New("tax percentage must be between 0 and 100")
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// TaxRule is one enabled percentage-based tax configuration.
type TaxRule struct {
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	AppliesTo  AppliesTo       `json:"applies_to"`
	Role       TaxRole         `json:"role"`
}

// TaxSnapshot is the ordered set of enabled rules read once per request.
type TaxSnapshot struct {
	Rules []TaxRule `json:"rules"`
}

// NewTaxSnapshot validates rules and wraps them. Rule order is preserved.
func NewTaxSnapshot(rules []TaxRule) (TaxSnapshot, error) {
	fees := 0
	for _, r := range rules {
		if r.Percentage.IsNegative() || r.Percentage.GreaterThan(hundred) {
			return TaxSnapshot{}, fmt.Errorf("rule %q: %w", r.Name, ErrInvalidPercentage)
		}
		if r.Role == RolePlatformFee {
			fees++
		}
	}
	if fees > 1 {
		return TaxSnapshot{}, ErrMultiplePlatformFees
	}
	return TaxSnapshot{Rules: rules}, nil
}

// HasPlatformFee reports whether the snapshot carries a commission rule.
func (s TaxSnapshot) HasPlatformFee() bool {
	for _, r := range s.Rules {
		if r.Role == RolePlatformFee {
			return true
		}
	}
	return false
}

// TaxLine is the amount one rule contributed to a split.
type TaxLine struct {
	Name                string          `json:"name"`
	Role                TaxRole         `json:"role"`
	AppliesTo           AppliesTo       `json:"applies_to"`
	EffectivePercentage decimal.Decimal `json:"effective_percentage"`
	Amount              decimal.Decimal `json:"amount"`
}

// Split is the batch-level division of a chargeable total.
type Split struct {
	Total              decimal.Decimal `json:"total"`
	TotalTax           decimal.Decimal `json:"total_tax"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	OwnerPayout        decimal.Decimal `json:"owner_payout"`
	Lines              []TaxLine       `json:"lines"`
}

// Split computes tax, commission and owner payout for total. The platform
// fee percentage is halved when the owner has premium payments enabled.
// Each rule amount is rounded to two decimal places.
func (s TaxSnapshot) Split(total decimal.Decimal, premiumPayments bool) Split {
	out := Split{
		Total:              total,
		TotalTax:           decimal.Zero,
		PlatformCommission: decimal.Zero,
	}
	for _, r := range s.Rules {
		pct := r.Percentage
		if r.Role == RolePlatformFee && premiumPayments {
			pct = pct.Div(two)
		}
		amount := total.Mul(pct).Div(hundred).Round(2)
		out.TotalTax = out.TotalTax.Add(amount)
		if r.Role == RolePlatformFee {
			out.PlatformCommission = out.PlatformCommission.Add(amount)
		}
		out.Lines = append(out.Lines, TaxLine{
			Name:                r.Name,
			Role:                r.Role,
			AppliesTo:           r.AppliesTo,
			EffectivePercentage: pct,
			Amount:              amount,
		})
	}
	out.OwnerPayout = total.Sub(out.TotalTax)
	return out
}

// LineShare is one line item's proportional part of a split.
type LineShare struct {
	Amount     decimal.Decimal `json:"amount"`
	Tax        decimal.Decimal `json:"tax"`
	Commission decimal.Decimal `json:"commission"`
	Payout     decimal.Decimal `json:"payout"`
}

// Allocate spreads split's tax and commission over amounts in proportion to
// each amount's share of split.Total. Shares are rounded to two places and
// the last line takes the rounding remainder, so the per-line sums equal the
// batch figures exactly. A zero total yields zero shares.
func Allocate(split Split, amounts []decimal.Decimal) []LineShare {
	shares := make([]LineShare, len(amounts))
	if len(amounts) == 0 {
		return shares
	}

	if split.Total.IsZero() {
		for i, amount := range amounts {
			shares[i] = LineShare{Amount: amount, Tax: decimal.Zero, Commission: decimal.Zero, Payout: amount}
		}
		return shares
	}

	taxLeft := split.TotalTax
	commissionLeft := split.PlatformCommission
	last := len(amounts) - 1
	for i, amount := range amounts {
		var tax, commission decimal.Decimal
		if i == last {
			tax, commission = taxLeft, commissionLeft
		} else {
			tax = amount.Mul(split.TotalTax).Div(split.Total).Round(2)
			commission = amount.Mul(split.PlatformCommission).Div(split.Total).Round(2)
			taxLeft = taxLeft.Sub(tax)
			commissionLeft = commissionLeft.Sub(commission)
		}
		shares[i] = LineShare{
			Amount:     amount,
			Tax:        tax,
			Commission: commission,
			Payout:     amount.Sub(tax).Sub(commission),
		}
	}
	return shares
}
