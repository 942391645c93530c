// Package taxconfig holds the per-fiscal-year tax parameters: the progressive
// bracket table and the Medicare levy/surcharge settings. Configs are immutable
// once loaded and are passed explicitly into every calculation — there is no
// process-wide cached loader.
package taxconfig

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/fiscal"
)

// Bracket is one progressive-rate band. Lower and Upper are inclusive dollar
// bounds; Upper == 0 marks the unbounded top bracket.
type Bracket struct {
	Lower int64
	Upper int64
	Rate  decimal.Decimal
}

// SurchargeTier is one Medicare levy surcharge step: the rate applies once
// income exceeds the threshold.
type SurchargeTier struct {
	Threshold int64
	Rate      decimal.Decimal
}

// SurchargeConfig holds the ordered surcharge tiers per filing status.
// Family thresholds shift up by DependentIncrement per dependent.
type SurchargeConfig struct {
	DependentIncrement int64
	Single             []SurchargeTier
	Family             []SurchargeTier
}

// MedicareConfig holds the levy parameters for a fiscal year.
type MedicareConfig struct {
	BaseRate                 decimal.Decimal
	LowIncomeThresholdSingle int64
	PhaseInRateSingle        decimal.Decimal
	LowIncomeThresholdFamily int64
	PhaseInRateFamily        decimal.Decimal
	DependentIncrement       int64
	Surcharge                *SurchargeConfig
}

// FYConfig is the complete tax configuration for one fiscal year.
type FYConfig struct {
	FY       int
	Brackets []Bracket
	Medicare MedicareConfig
}

// Registry maps resolved fiscal years to their configurations.
type Registry struct {
	configs map[int]FYConfig
}

// YearError reports a lookup for a fiscal year with no configuration.
type YearError struct {
	FY        int
	Available []int
}

func (e *YearError) Error() string {
	return fmt.Sprintf("no tax configuration for FY%d (available: %v)", e.FY, e.Available)
}

// NewRegistry builds a registry from already-validated configs. Fiscal year
// keys are resolved, so FY25 and FY2025 address the same entry.
func NewRegistry(configs ...FYConfig) (*Registry, error) {
	r := &Registry{configs: make(map[int]FYConfig, len(configs))}
	for _, cfg := range configs {
		fy := fiscal.Resolve(cfg.FY)
		if _, ok := r.configs[fy]; ok {
			return nil, fmt.Errorf("duplicate configuration for FY%d", fy)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("FY%d: %w", fy, err)
		}
		cfg.FY = fy
		r.configs[fy] = cfg
	}
	return r, nil
}

// Config returns the configuration for a fiscal year, resolving two-digit
// labels. Missing years fail with a YearError listing what is available.
func (r *Registry) Config(fy int) (FYConfig, error) {
	resolved := fiscal.Resolve(fy)
	cfg, ok := r.configs[resolved]
	if !ok {
		return FYConfig{}, &YearError{FY: resolved, Available: r.Years()}
	}
	return cfg, nil
}

// Years lists the configured fiscal years in ascending order.
func (r *Registry) Years() []int {
	years := make([]int, 0, len(r.configs))
	for fy := range r.configs {
		years = append(years, fy)
	}
	sort.Ints(years)
	return years
}

// Validate checks the structural invariants: rates within [0,1], bracket
// bounds contiguous and strictly increasing with an unbounded top bracket,
// non-negative thresholds, and surcharge tiers sorted ascending.
func (c FYConfig) Validate() error {
	if len(c.Brackets) == 0 {
		return fmt.Errorf("no tax brackets")
	}
	for i, b := range c.Brackets {
		if err := validRate(b.Rate); err != nil {
			return fmt.Errorf("bracket %d: %w", i, err)
		}
		if b.Lower < 0 {
			return fmt.Errorf("bracket %d: negative lower bound %d", i, b.Lower)
		}
		last := i == len(c.Brackets)-1
		if last {
			if b.Upper != 0 {
				return fmt.Errorf("top bracket must be unbounded (upper = 0), got %d", b.Upper)
			}
			continue
		}
		if b.Upper <= b.Lower {
			return fmt.Errorf("bracket %d: upper bound %d not above lower bound %d", i, b.Upper, b.Lower)
		}
		if next := c.Brackets[i+1].Lower; next != b.Upper+1 {
			return fmt.Errorf("bracket %d: gap between upper bound %d and next lower bound %d", i, b.Upper, next)
		}
	}
	if c.Brackets[0].Lower != 0 {
		return fmt.Errorf("first bracket must start at 0, got %d", c.Brackets[0].Lower)
	}
	return c.Medicare.validate()
}

func (m MedicareConfig) validate() error {
	for name, rate := range map[string]decimal.Decimal{
		"base_rate":            m.BaseRate,
		"phase_in_rate_single": m.PhaseInRateSingle,
		"phase_in_rate_family": m.PhaseInRateFamily,
	} {
		if err := validRate(rate); err != nil {
			return fmt.Errorf("medicare %s: %w", name, err)
		}
	}
	if m.LowIncomeThresholdSingle < 0 || m.LowIncomeThresholdFamily < 0 || m.DependentIncrement < 0 {
		return fmt.Errorf("medicare thresholds must be non-negative")
	}
	if m.Surcharge == nil {
		return nil
	}
	if m.Surcharge.DependentIncrement < 0 {
		return fmt.Errorf("surcharge dependent_increment must be non-negative")
	}
	for status, tiers := range map[string][]SurchargeTier{
		"single": m.Surcharge.Single,
		"family": m.Surcharge.Family,
	} {
		for i, t := range tiers {
			if err := validRate(t.Rate); err != nil {
				return fmt.Errorf("surcharge %s tier %d: %w", status, i, err)
			}
			if t.Threshold < 0 {
				return fmt.Errorf("surcharge %s tier %d: negative threshold", status, i)
			}
			if i > 0 && t.Threshold <= tiers[i-1].Threshold {
				return fmt.Errorf("surcharge %s tiers must ascend by threshold", status)
			}
		}
	}
	return nil
}

func validRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("rate %s outside [0, 1]", rate)
	}
	return nil
}
