package taxconfig

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
fy_2025:
  brackets:
    - { from: 0, to: 18200, rate: "0" }
    - { from: 18201, to: 45000, rate: "0.16" }
    - { from: 45001, to: 0, rate: "0.30" }
  medicare:
    base_rate: "0.02"
    low_income_threshold_single: 24276
    phase_in_rate_single: "0.10"
    low_income_threshold_family: 40939
    phase_in_rate_family: "0.10"
    dependent_increment: 3760
    surcharge:
      dependent_increment: 1500
      single:
        - { threshold: 113000, rate: "0.0125" }
        - { threshold: 97000, rate: "0.01" }
      family:
        - { threshold: 194000, rate: "0.01" }
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := r.Config(2025)
	if err != nil {
		t.Fatalf("Config(2025): %v", err)
	}
	if len(cfg.Brackets) != 3 {
		t.Fatalf("got %d brackets, want 3", len(cfg.Brackets))
	}
	if got := cfg.Brackets[1].Rate.String(); got != "0.16" {
		t.Errorf("bracket 1 rate = %s, want 0.16", got)
	}
	if cfg.Medicare.Surcharge == nil {
		t.Fatal("surcharge config missing")
	}
	// Tiers in the file are out of order; the loader sorts them.
	single := cfg.Medicare.Surcharge.Single
	if single[0].Threshold != 97000 || single[1].Threshold != 113000 {
		t.Errorf("surcharge tiers not sorted: %+v", single)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no fy sections", "other: 1\n"},
		{"non-numeric label", "fy_abc:\n  brackets: []\n"},
		{"bad rate", `
fy_2025:
  brackets:
    - { from: 0, to: 0, rate: "lots" }
  medicare:
    base_rate: "0.02"
`},
		{"missing medicare", `
fy_2025:
  brackets:
    - { from: 0, to: 0, rate: "0" }
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse accepted invalid config")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if years := r.Years(); len(years) != 1 || years[0] != 2025 {
		t.Errorf("Years() = %v, want [2025]", years)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load accepted a missing file")
	}
}
