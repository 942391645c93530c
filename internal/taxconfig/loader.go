package taxconfig

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Rates are decoded into strings first so the YAML float literals never pass
// through float64 on their way into decimal values.
type rawFile map[string]yaml.Node

type rawFYConfig struct {
	Brackets []rawBracket `yaml:"brackets"`
	Medicare *rawMedicare `yaml:"medicare"`
}

type rawBracket struct {
	Rate string `yaml:"rate"`
	From int64  `yaml:"from"`
	To   int64  `yaml:"to"`
}

type rawMedicare struct {
	BaseRate                 string        `yaml:"base_rate"`
	LowIncomeThresholdSingle int64         `yaml:"low_income_threshold_single"`
	PhaseInRateSingle        string        `yaml:"phase_in_rate_single"`
	LowIncomeThresholdFamily int64         `yaml:"low_income_threshold_family"`
	PhaseInRateFamily        string        `yaml:"phase_in_rate_family"`
	DependentIncrement       int64         `yaml:"dependent_increment"`
	Surcharge                *rawSurcharge `yaml:"surcharge"`
}

type rawSurcharge struct {
	DependentIncrement int64     `yaml:"dependent_increment"`
	Single             []rawTier `yaml:"single"`
	Family             []rawTier `yaml:"family"`
}

type rawTier struct {
	Threshold int64  `yaml:"threshold"`
	Rate      string `yaml:"rate"`
}

// Load reads a YAML config file and returns a validated registry. Fiscal
// years are top-level "fy_<label>" keys; unrelated keys are ignored.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tax config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes into a validated registry.
func Parse(data []byte) (*Registry, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse tax config: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("tax config is empty")
	}

	var configs []FYConfig
	for key, node := range raw {
		if !strings.HasPrefix(key, "fy_") {
			continue
		}
		fy, err := strconv.Atoi(strings.TrimPrefix(key, "fy_"))
		if err != nil {
			return nil, fmt.Errorf("%s: fiscal year label is not numeric", key)
		}
		var rawCfg rawFYConfig
		if err := node.Decode(&rawCfg); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		cfg, err := buildFYConfig(fy, rawCfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		configs = append(configs, cfg)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("tax config has no fy_ sections")
	}
	return NewRegistry(configs...)
}

func buildFYConfig(fy int, raw rawFYConfig) (FYConfig, error) {
	cfg := FYConfig{FY: fy}

	for i, b := range raw.Brackets {
		rate, err := parseRate(b.Rate)
		if err != nil {
			return FYConfig{}, fmt.Errorf("bracket %d: %w", i, err)
		}
		cfg.Brackets = append(cfg.Brackets, Bracket{Lower: b.From, Upper: b.To, Rate: rate})
	}

	if raw.Medicare == nil {
		return FYConfig{}, fmt.Errorf("medicare configuration missing")
	}
	m := raw.Medicare
	base, err := parseRate(m.BaseRate)
	if err != nil {
		return FYConfig{}, fmt.Errorf("medicare base_rate: %w", err)
	}
	phaseSingle, err := parseRate(m.PhaseInRateSingle)
	if err != nil {
		return FYConfig{}, fmt.Errorf("medicare phase_in_rate_single: %w", err)
	}
	phaseFamily, err := parseRate(m.PhaseInRateFamily)
	if err != nil {
		return FYConfig{}, fmt.Errorf("medicare phase_in_rate_family: %w", err)
	}
	cfg.Medicare = MedicareConfig{
		BaseRate:                 base,
		LowIncomeThresholdSingle: m.LowIncomeThresholdSingle,
		PhaseInRateSingle:        phaseSingle,
		LowIncomeThresholdFamily: m.LowIncomeThresholdFamily,
		PhaseInRateFamily:        phaseFamily,
		DependentIncrement:       m.DependentIncrement,
	}

	if m.Surcharge != nil {
		sc := &SurchargeConfig{DependentIncrement: m.Surcharge.DependentIncrement}
		sc.Single, err = buildTiers(m.Surcharge.Single)
		if err != nil {
			return FYConfig{}, fmt.Errorf("surcharge single: %w", err)
		}
		sc.Family, err = buildTiers(m.Surcharge.Family)
		if err != nil {
			return FYConfig{}, fmt.Errorf("surcharge family: %w", err)
		}
		cfg.Medicare.Surcharge = sc
	}

	return cfg, nil
}

func buildTiers(raw []rawTier) ([]SurchargeTier, error) {
	tiers := make([]SurchargeTier, 0, len(raw))
	for i, t := range raw {
		rate, err := parseRate(t.Rate)
		if err != nil {
			return nil, fmt.Errorf("tier %d: %w", i, err)
		}
		tiers = append(tiers, SurchargeTier{Threshold: t.Threshold, Rate: rate})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Threshold < tiers[j].Threshold })
	return tiers, nil
}

func parseRate(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate %q", s)
	}
	return rate, nil
}
