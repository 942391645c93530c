package cgt

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/fiscal"
)

// ErrOversell is returned when a sell consumes more units than the
// instrument's open lots hold.
var ErrOversell = errors.New("sell exceeds open lots")

// discountHoldDays is the minimum holding period, exclusive, for the CGT
// discount: held 365 days is not eligible, 366 is.
const discountHoldDays = 365

// lot is an open buy parcel. Partial consumption writes a replacement value
// at the same arena index; fully consumed lots are marked dead rather than
// removed so indexes stay stable within a pass.
type lot struct {
	date  time.Time
	units decimal.Decimal
	price decimal.Decimal
	fee   decimal.Decimal
	dead  bool
}

// Realize matches every sell against the open buy lots of its instrument and
// returns the realized gains. Input order does not matter: trades are sorted
// by (instrument, date) so buys precede the sells that consume them, and
// buffers for different instruments never interact.
//
// A sell that exceeds the open units of its instrument is a hard error; no
// partial result is returned.
func Realize(trades []Trade) ([]Gain, error) {
	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Code != ordered[j].Code {
			return ordered[i].Code < ordered[j].Code
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})

	var gains []Gain
	buffers := make(map[string][]lot)

	for _, t := range ordered {
		if t.Action == Buy {
			buffers[t.Code] = append(buffers[t.Code], lot{
				date:  t.Date,
				units: t.Units,
				price: t.Price,
				fee:   t.Fee,
			})
			continue
		}

		buf := buffers[t.Code]
		fy := fiscal.Year(t.Date)
		remaining := t.Units

		for remaining.Sign() > 0 {
			idx := selectLot(buf, t.Price, t.Date)
			if idx < 0 {
				return nil, fmt.Errorf("%s units of %s on %s: %w",
					remaining, t.Code, t.Date.Format("2006-01-02"), ErrOversell)
			}
			l := buf[idx]

			isLoss := l.price.GreaterThanOrEqual(t.Price)
			discounted := discountEligible(l.date, t.Date)
			reason := ReasonFIFO
			switch {
			case isLoss:
				reason = ReasonLoss
			case discounted:
				reason = ReasonDiscount
			}

			var consumed, profit decimal.Decimal
			if remaining.GreaterThanOrEqual(l.units) {
				consumed = l.units
				profit = l.units.Mul(t.Price.Sub(l.price)).Sub(l.fee)
				buf[idx].dead = true
			} else {
				consumed = remaining
				feeShare := remaining.Div(l.units).Mul(l.fee)
				profit = remaining.Mul(t.Price.Sub(l.price)).Sub(feeShare)
				buf[idx] = lot{
					date:  l.date,
					units: l.units.Sub(remaining),
					price: l.price,
					fee:   l.fee.Sub(feeShare),
				}
			}
			remaining = remaining.Sub(consumed)

			taxable := profit
			if discounted {
				taxable = profit.Div(decimal.NewFromInt(2))
			}
			gains = append(gains, Gain{
				FY:          fy,
				Code:        t.Code,
				Units:       consumed,
				RawProfit:   profit,
				TaxableGain: taxable,
				Reason:      reason,
			})
		}
		buffers[t.Code] = buf
	}

	return gains, nil
}

// selectLot picks the next lot to consume: a loss lot first, else a
// discount-eligible lot, else the chronologically oldest. Ties keep the
// earliest-indexed lot. Returns -1 when no live lot remains.
func selectLot(buf []lot, sellPrice decimal.Decimal, sellDate time.Time) int {
	best := -1
	for i := range buf {
		if buf[i].dead {
			continue
		}
		if best < 0 || lotBefore(buf[i], buf[best], sellPrice, sellDate) {
			best = i
		}
	}
	return best
}

func lotBefore(a, b lot, sellPrice decimal.Decimal, sellDate time.Time) bool {
	aLoss := a.price.GreaterThanOrEqual(sellPrice)
	bLoss := b.price.GreaterThanOrEqual(sellPrice)
	if aLoss != bLoss {
		return aLoss
	}
	aDisc := discountEligible(a.date, sellDate)
	bDisc := discountEligible(b.date, sellDate)
	if aDisc != bDisc {
		return aDisc
	}
	return a.date.Before(b.date)
}

func discountEligible(bought, sold time.Time) bool {
	return holdingDays(bought, sold) > discountHoldDays
}

func holdingDays(bought, sold time.Time) int {
	return int(sold.Sub(bought).Hours() / 24)
}
