package billing

import "github.com/shopspring/decimal"

// Quote is a fully priced booking batch: the priced lines, the batch split
// and each line's share of it.
type Quote struct {
	Lines  []PricedLine `json:"lines"`
	Split  Split        `json:"split"`
	Shares []LineShare  `json:"shares"`
	Seats  int          `json:"seats"`
}

// QuoteBatch prices items against rates and splits the total with snapshot.
func QuoteBatch(items []LineItem, rates Rates, snapshot TaxSnapshot, premiumPayments bool) (Quote, error) {
	lines, total, err := PriceBatch(items, rates)
	if err != nil {
		return Quote{}, err
	}
	split := snapshot.Split(total, premiumPayments)
	return Quote{
		Lines:  lines,
		Split:  split,
		Shares: Allocate(split, Amounts(lines)),
		Seats:  TotalSeats(items),
	}, nil
}

// Total is the chargeable amount of the batch.
func (q Quote) Total() decimal.Decimal {
	return q.Split.Total
}
