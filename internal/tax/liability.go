// Package tax computes personal income-tax liability: progressive bracket
// tax, the Medicare levy with its low-income phase-in (single and family),
// and the Medicare levy surcharge for taxpayers without private cover.
package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/taxconfig"
)

// FilingStatus selects which levy thresholds and surcharge tiers apply.
type FilingStatus string

const (
	Single FilingStatus = "single"
	Family FilingStatus = "family"
)

// ParseFilingStatus validates a wire-format filing status.
func ParseFilingStatus(s string) (FilingStatus, error) {
	switch FilingStatus(s) {
	case Single, Family:
		return FilingStatus(s), nil
	}
	return "", fmt.Errorf("invalid filing status %q", s)
}

// Input is one taxpayer's position for a liability calculation.
// PartnerIncome and Dependents are only consulted under family status;
// Dependents then means the household's combined dependent count.
type Input struct {
	TaxableIncome decimal.Decimal
	Status        FilingStatus
	Dependents    int
	PrivateCover  bool
	PartnerIncome decimal.Decimal
}

// Liability is a computed tax outcome. Each component is independently
// rounded to whole cents (half up) and Total is always their sum.
type Liability struct {
	IncomeTax         decimal.Decimal
	MedicareLevy      decimal.Decimal
	MedicareSurcharge decimal.Decimal
	Total             decimal.Decimal
}

// Calculator resolves fiscal years against a config registry. The underlying
// math is in Compute, which takes the config as an explicit value.
type Calculator struct {
	registry *taxconfig.Registry
}

func NewCalculator(registry *taxconfig.Registry) *Calculator {
	return &Calculator{registry: registry}
}

// Liability computes the tax outcome for a fiscal year. An unconfigured year
// fails with a taxconfig.YearError naming the available years.
func (c *Calculator) Liability(fy int, in Input) (Liability, error) {
	cfg, err := c.registry.Config(fy)
	if err != nil {
		return Liability{}, err
	}
	return Compute(cfg, in), nil
}

// Config exposes the registry lookup so callers that evaluate many inputs
// against one year (the household optimizer) resolve the year once.
func (c *Calculator) Config(fy int) (taxconfig.FYConfig, error) {
	return c.registry.Config(fy)
}

// Compute is the pure liability function. Negative taxable income clamps
// to zero.
func Compute(cfg taxconfig.FYConfig, in Input) Liability {
	taxable := in.TaxableIncome
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	partner := in.PartnerIncome
	if partner.IsNegative() {
		partner = decimal.Zero
	}

	incomeTax := bracketTax(taxable, cfg.Brackets).Round(2)
	levy := medicareLevy(cfg.Medicare, in.Status, in.Dependents, taxable, partner).Round(2)
	surcharge := medicareSurcharge(cfg.Medicare.Surcharge, in, taxable, partner).Round(2)

	return Liability{
		IncomeTax:         incomeTax,
		MedicareLevy:      levy,
		MedicareSurcharge: surcharge,
		Total:             incomeTax.Add(levy).Add(surcharge),
	}
}

// bracketTax sums, for each bracket reached, the dollars falling inside the
// band times its marginal rate. Bounds are inclusive: a bracket from 18201
// to 45000 covers 26800 dollars, hence upper - (lower - 1).
func bracketTax(taxable decimal.Decimal, brackets []taxconfig.Bracket) decimal.Decimal {
	if taxable.Sign() <= 0 {
		return decimal.Zero
	}
	one := decimal.NewFromInt(1)
	total := decimal.Zero
	for _, b := range brackets {
		lower := decimal.NewFromInt(b.Lower)
		if lower.GreaterThan(taxable) {
			break
		}
		upper := taxable
		if b.Upper > 0 {
			upper = decimal.Min(taxable, decimal.NewFromInt(b.Upper))
		}
		portion := upper.Sub(lower)
		if b.Lower > 0 {
			portion = upper.Sub(lower.Sub(one))
		}
		if portion.Sign() > 0 {
			total = total.Add(portion.Mul(b.Rate))
		}
	}
	return total
}

func medicareLevy(m taxconfig.MedicareConfig, status FilingStatus, dependents int, taxable, partner decimal.Decimal) decimal.Decimal {
	if status == Family {
		return familyLevy(m, dependents, taxable, partner)
	}
	threshold := decimal.NewFromInt(m.LowIncomeThresholdSingle)
	return phasedLevy(taxable, threshold, m.BaseRate, m.PhaseInRateSingle)
}

// phasedLevy is zero at or below the low-income threshold, then the lesser of
// the full-rate levy and the phase-in amount, so the levy ramps smoothly from
// the threshold and never exceeds a strict percentage of income.
func phasedLevy(income, threshold, baseRate, phaseInRate decimal.Decimal) decimal.Decimal {
	if income.LessThanOrEqual(threshold) {
		return decimal.Zero
	}
	full := income.Mul(baseRate)
	phased := income.Sub(threshold).Mul(phaseInRate)
	return decimal.Min(full, phased)
}

// familyLevy computes the levy on combined household income against the
// family threshold (raised per dependent), then apportions it to this
// taxpayer by income share, capped at their own full-rate levy.
func familyLevy(m taxconfig.MedicareConfig, dependents int, taxable, partner decimal.Decimal) decimal.Decimal {
	combined := taxable.Add(partner)
	if combined.Sign() <= 0 {
		return decimal.Zero
	}
	threshold := decimal.NewFromInt(m.LowIncomeThresholdFamily + m.DependentIncrement*int64(dependents))
	household := phasedLevy(combined, threshold, m.BaseRate, m.PhaseInRateFamily)
	if household.IsZero() {
		return decimal.Zero
	}
	share := household.Mul(taxable).Div(combined)
	ownFull := taxable.Mul(m.BaseRate)
	return decimal.Min(share, ownFull)
}

// medicareSurcharge applies the rate of the highest tier whose threshold the
// relevant income exceeds: individual income for singles, combined household
// income (with family thresholds raised per dependent) for families. The
// surcharge itself is levied on the individual's taxable income. Private
// cover exempts entirely.
func medicareSurcharge(sc *taxconfig.SurchargeConfig, in Input, taxable, partner decimal.Decimal) decimal.Decimal {
	if sc == nil || in.PrivateCover {
		return decimal.Zero
	}

	tiers := sc.Single
	tested := taxable
	var increment int64
	if in.Status == Family {
		tiers = sc.Family
		tested = taxable.Add(partner)
		increment = sc.DependentIncrement * int64(in.Dependents)
	}

	rate := decimal.Zero
	for _, t := range tiers {
		threshold := decimal.NewFromInt(t.Threshold + increment)
		if !tested.GreaterThan(threshold) {
			break
		}
		rate = t.Rate
	}
	return taxable.Mul(rate)
}
