// Package household allocates a couple's shared deductions between the two
// taxpayers to minimize their combined liability.
package household

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/cgt"
	"github.com/jmcalister/ozreturn/internal/planning"
)

// Individual is one taxpayer's position in one fiscal year. Values are
// constructed once at the boundary and never mutated; engine functions
// return new derived values.
type Individual struct {
	Name         string
	FY           int
	Income       decimal.Decimal
	Deductions   []decimal.Decimal
	Gains        []cgt.Gain
	Losses       []planning.Loss
	Dependents   int
	PrivateCover bool
}

// Validate rejects malformed taxpayer records at construction time.
func (i Individual) Validate() error {
	if i.Income.IsNegative() {
		return fmt.Errorf("%s: negative income %s", i.Name, i.Income)
	}
	for _, d := range i.Deductions {
		if d.IsNegative() {
			return fmt.Errorf("%s: negative deduction %s", i.Name, d)
		}
	}
	for _, l := range i.Losses {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("%s: %w", i.Name, err)
		}
	}
	if i.Dependents < 0 {
		return fmt.Errorf("%s: negative dependent count %d", i.Name, i.Dependents)
	}
	return nil
}

// TotalDeductions sums the deduction amounts claimed by this taxpayer.
func (i Individual) TotalDeductions() decimal.Decimal {
	total := decimal.Zero
	for _, d := range i.Deductions {
		total = total.Add(d)
	}
	return total
}

// TaxableIncome is gross income less deductions, plus realized taxable
// gains, less applied losses. The liability calculator clamps a negative
// result to zero.
func (i Individual) TaxableIncome() decimal.Decimal {
	taxable := i.Income.Sub(i.TotalDeductions())
	for _, g := range i.Gains {
		taxable = taxable.Add(g.TaxableGain)
	}
	for _, l := range i.Losses {
		taxable = taxable.Sub(l.Amount)
	}
	return taxable
}

// withDeductions returns a copy claiming the given deduction amounts.
// Gains and losses stay with their original owner.
func (i Individual) withDeductions(deductions []decimal.Decimal) Individual {
	out := i
	out.Deductions = deductions
	return out
}
