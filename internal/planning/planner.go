// Package planning nets realized capital gains against recorded losses
// across fiscal years, rolling unconsumed losses forward.
package planning

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/cgt"
)

// Loss is a capital loss available for offset. FY is the fiscal year it may
// be applied in; SourceFY is the year it originated.
type Loss struct {
	FY       int
	Amount   decimal.Decimal
	SourceFY int
}

// Validate rejects malformed loss records at construction time.
func (l Loss) Validate() error {
	if l.Amount.IsNegative() {
		return fmt.Errorf("loss amount %s must be non-negative", l.Amount)
	}
	if l.SourceFY > l.FY {
		return fmt.Errorf("loss originating in FY%d cannot apply in earlier FY%d", l.SourceFY, l.FY)
	}
	return nil
}

// YearPlan is the netting outcome for one fiscal year. ProjectedRate is the
// caller-supplied marginal-rate projection for display; it never changes
// which year a gain is realized in.
type YearPlan struct {
	FY               int
	RealizedGains    []cgt.Gain
	TaxableGain      decimal.Decimal
	CarryforwardUsed decimal.Decimal
	ProjectedRate    decimal.Decimal
}

// Plan processes fiscal years in ascending order, offsetting each year's
// realized taxable gains by the losses applicable that year. Loss in excess
// of a year's gain rolls into the following year (origin = the year it was
// rolled from) and is consumed by later years within the same pass. Excess
// remaining after the last active year is returned as carryforwards for a
// subsequent planning pass.
func Plan(gains []cgt.Gain, losses []Loss, projection map[int]decimal.Decimal) (map[int]YearPlan, []Loss, error) {
	for _, l := range losses {
		if err := l.Validate(); err != nil {
			return nil, nil, err
		}
	}

	gainsByYear := make(map[int][]cgt.Gain)
	for _, g := range gains {
		gainsByYear[g.FY] = append(gainsByYear[g.FY], g)
	}
	lossesByYear := make(map[int][]Loss)
	for _, l := range losses {
		lossesByYear[l.FY] = append(lossesByYear[l.FY], l)
	}

	if len(gainsByYear) == 0 && len(lossesByYear) == 0 {
		return map[int]YearPlan{}, nil, nil
	}

	minYear, maxYear := yearSpan(gainsByYear, lossesByYear)

	plan := make(map[int]YearPlan)
	var leftover []Loss

	for fy := minYear; fy <= maxYear; fy++ {
		yearGains := gainsByYear[fy]
		yearLosses := lossesByYear[fy]
		if len(yearGains) == 0 && len(yearLosses) == 0 {
			continue
		}

		gainTotal := decimal.Zero
		for _, g := range yearGains {
			gainTotal = gainTotal.Add(g.TaxableGain)
		}
		available := decimal.Zero
		for _, l := range yearLosses {
			available = available.Add(l.Amount)
		}

		offsettable := gainTotal
		if offsettable.IsNegative() {
			offsettable = decimal.Zero
		}
		used := decimal.Min(available, offsettable)

		if excess := available.Sub(used); excess.Sign() > 0 {
			rolled := Loss{FY: fy + 1, Amount: excess, SourceFY: fy}
			if fy < maxYear {
				lossesByYear[fy+1] = append(lossesByYear[fy+1], rolled)
			} else {
				leftover = append(leftover, rolled)
			}
		}

		plan[fy] = YearPlan{
			FY:               fy,
			RealizedGains:    yearGains,
			TaxableGain:      gainTotal.Sub(used),
			CarryforwardUsed: used,
			ProjectedRate:    projection[fy],
		}
	}

	return plan, leftover, nil
}

// Harvest applies same-year losses directly to a gain list: offset gains are
// reduced or dropped, and loss exceeding a year's gains becomes a
// carryforward into the following year. Losses landing in years with no
// gains are left untouched for a later pass.
func Harvest(gains []cgt.Gain, losses []Loss) ([]cgt.Gain, []Loss, error) {
	for _, l := range losses {
		if err := l.Validate(); err != nil {
			return nil, nil, err
		}
	}

	gainYears := make(map[int]bool)
	for _, g := range gains {
		gainYears[g.FY] = true
	}
	availableByYear := make(map[int]decimal.Decimal)
	for _, l := range losses {
		if gainYears[l.FY] {
			availableByYear[l.FY] = availableByYear[l.FY].Add(l.Amount)
		}
	}

	ordered := make([]cgt.Gain, len(gains))
	copy(ordered, gains)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].FY < ordered[j].FY })

	var remaining []cgt.Gain
	for _, g := range ordered {
		available := availableByYear[g.FY]
		if available.Sign() <= 0 || g.TaxableGain.Sign() <= 0 {
			remaining = append(remaining, g)
			continue
		}
		offset := decimal.Min(available, g.TaxableGain)
		availableByYear[g.FY] = available.Sub(offset)
		if offset.LessThan(g.TaxableGain) {
			g.TaxableGain = g.TaxableGain.Sub(offset)
			remaining = append(remaining, g)
		}
	}

	var carryforwards []Loss
	years := make([]int, 0, len(availableByYear))
	for fy := range availableByYear {
		years = append(years, fy)
	}
	sort.Ints(years)
	for _, fy := range years {
		if excess := availableByYear[fy]; excess.Sign() > 0 {
			carryforwards = append(carryforwards, Loss{FY: fy + 1, Amount: excess, SourceFY: fy})
		}
	}

	return remaining, carryforwards, nil
}

func yearSpan(gains map[int][]cgt.Gain, losses map[int][]Loss) (int, int) {
	first := true
	var minYear, maxYear int
	note := func(fy int) {
		if first {
			minYear, maxYear = fy, fy
			first = false
			return
		}
		if fy < minYear {
			minYear = fy
		}
		if fy > maxYear {
			maxYear = fy
		}
	}
	for fy := range gains {
		note(fy)
	}
	for fy := range losses {
		note(fy)
	}
	return minYear, maxYear
}
