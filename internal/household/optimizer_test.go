package household

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/cgt"
	"github.com/jmcalister/ozreturn/internal/planning"
	"github.com/jmcalister/ozreturn/internal/tax"
	"github.com/jmcalister/ozreturn/internal/taxconfig"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fy25Config() taxconfig.FYConfig {
	return taxconfig.FYConfig{
		FY: 2025,
		Brackets: []taxconfig.Bracket{
			{Lower: 0, Upper: 18200, Rate: decimal.Zero},
			{Lower: 18201, Upper: 45000, Rate: dec("0.16")},
			{Lower: 45001, Upper: 135000, Rate: dec("0.30")},
			{Lower: 135001, Upper: 190000, Rate: dec("0.37")},
			{Lower: 190001, Upper: 0, Rate: dec("0.45")},
		},
		Medicare: taxconfig.MedicareConfig{
			BaseRate:                 dec("0.02"),
			LowIncomeThresholdSingle: 24276,
			PhaseInRateSingle:        dec("0.10"),
			LowIncomeThresholdFamily: 40939,
			PhaseInRateFamily:        dec("0.10"),
			DependentIncrement:       3760,
		},
	}
}

func person(name, income string, deductions ...string) Individual {
	ind := Individual{Name: name, FY: 2025, Income: dec(income)}
	for _, d := range deductions {
		ind.Deductions = append(ind.Deductions, dec(d))
	}
	return ind
}

func TestTaxableIncome(t *testing.T) {
	ind := person("you", "100000", "2000", "3000")
	ind.Gains = []cgt.Gain{{FY: 2025, TaxableGain: dec("4000")}}
	ind.Losses = []planning.Loss{{FY: 2025, Amount: dec("1000"), SourceFY: 2025}}

	if got := ind.TaxableIncome(); !got.Equal(dec("98000")) {
		t.Errorf("taxable income = %s, want 98000", got)
	}
	if got := ind.TotalDeductions(); !got.Equal(dec("5000")) {
		t.Errorf("total deductions = %s, want 5000", got)
	}
}

func TestIndividualValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Individual)
	}{
		{"negative income", func(i *Individual) { i.Income = dec("-1") }},
		{"negative deduction", func(i *Individual) { i.Deductions = []decimal.Decimal{dec("-5")} }},
		{"negative dependents", func(i *Individual) { i.Dependents = -1 }},
		{"invalid loss", func(i *Individual) {
			i.Losses = []planning.Loss{{FY: 2024, Amount: dec("1"), SourceFY: 2025}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := person("you", "50000")
			tt.mutate(&ind)
			if err := ind.Validate(); err == nil {
				t.Error("Validate accepted a malformed taxpayer")
			}
		})
	}
}

func TestOptimizeFavorsHigherMarginalRate(t *testing.T) {
	cfg := fy25Config()
	first := person("you", "80000")
	second := person("janice", "40000", "5000")

	alloc, err := Optimize(cfg, first, second)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	// The higher earner's marginal dollar is taxed at 30% against 16%,
	// and the family levy total does not depend on the split.
	if got := alloc.First.TotalDeductions(); !got.Equal(dec("5000")) {
		t.Errorf("first taxpayer deductions = %s, want 5000", got)
	}
	if got := alloc.Second.TotalDeductions(); !got.IsZero() {
		t.Errorf("second taxpayer deductions = %s, want 0", got)
	}
	if !alloc.Total.Equal(alloc.FirstLiability.Total.Add(alloc.SecondLiability.Total)) {
		t.Errorf("allocation total %s is not the sum of both liabilities", alloc.Total)
	}
}

func TestOptimizeNeverWorseThanBaseline(t *testing.T) {
	cfg := fy25Config()
	first := person("you", "95000", "1200", "800")
	second := person("janice", "52000", "3000", "500")

	alloc, err := Optimize(cfg, first, second)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	// Baseline: everyone keeps their own deductions.
	baselineFirst := tax.Compute(cfg, tax.Input{
		TaxableIncome: first.TaxableIncome(),
		Status:        tax.Family,
		PartnerIncome: second.TaxableIncome(),
	})
	baselineSecond := tax.Compute(cfg, tax.Input{
		TaxableIncome: second.TaxableIncome(),
		Status:        tax.Family,
		PartnerIncome: first.TaxableIncome(),
	})
	baseline := baselineFirst.Total.Add(baselineSecond.Total)

	if alloc.Total.GreaterThan(baseline) {
		t.Errorf("optimized total %s exceeds baseline %s", alloc.Total, baseline)
	}
}

func TestOptimizePreservesPool(t *testing.T) {
	cfg := fy25Config()
	first := person("you", "90000", "1000", "2500")
	second := person("janice", "45000", "700")

	alloc, err := Optimize(cfg, first, second)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	total := alloc.First.TotalDeductions().Add(alloc.Second.TotalDeductions())
	if !total.Equal(dec("4200")) {
		t.Errorf("allocated deductions total %s, want the full 4200 pool", total)
	}
}

func TestOptimizeEmptyPool(t *testing.T) {
	cfg := fy25Config()
	alloc, err := Optimize(cfg, person("you", "80000"), person("janice", "40000"))
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(alloc.First.Deductions) != 0 || len(alloc.Second.Deductions) != 0 {
		t.Errorf("empty pool produced deductions: %+v", alloc)
	}
}

func TestOptimizeRejectsMismatchedYears(t *testing.T) {
	cfg := fy25Config()
	second := person("janice", "40000")
	second.FY = 2026

	if _, err := Optimize(cfg, person("you", "80000"), second); err == nil {
		t.Error("Optimize accepted taxpayers from different fiscal years")
	}
}

func TestOptimizeRejectsOversizedPool(t *testing.T) {
	cfg := fy25Config()
	first := person("you", "80000")
	for i := 0; i <= MaxSharedDeductions; i++ {
		first.Deductions = append(first.Deductions, dec("100"))
	}

	if _, err := Optimize(cfg, first, person("janice", "40000")); err == nil {
		t.Error("Optimize accepted a pool above the search cap")
	}
}

func TestOptimizeParallelDeterministic(t *testing.T) {
	cfg := fy25Config()
	// 11 deductions force the parallel search path.
	first := person("you", "120000")
	for i := 0; i < 6; i++ {
		first.Deductions = append(first.Deductions, dec("450"))
	}
	second := person("janice", "60000")
	for i := 0; i < 5; i++ {
		second.Deductions = append(second.Deductions, dec("325"))
	}

	a, err := Optimize(cfg, first, second)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	b, err := Optimize(cfg, first, second)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	if !a.Total.Equal(b.Total) {
		t.Errorf("repeated runs disagree: %s vs %s", a.Total, b.Total)
	}
	if !a.First.TotalDeductions().Equal(b.First.TotalDeductions()) {
		t.Errorf("repeated runs allocate differently: %s vs %s",
			a.First.TotalDeductions(), b.First.TotalDeductions())
	}
}
