package cgt

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func trade(action Action, code string, date time.Time, units, price, fee string) Trade {
	return Trade{
		Date:   date,
		Code:   code,
		Action: action,
		Units:  dec(units),
		Price:  dec(price),
		Fee:    dec(fee),
	}
}

func TestRealizeDiscountedGain(t *testing.T) {
	gains, err := Realize([]Trade{
		trade(Buy, "VAS", day(2023, time.January, 1), "100", "10", "10"),
		trade(Sell, "VAS", day(2024, time.August, 1), "100", "20", "0"),
	})
	if err != nil {
		t.Fatalf("Realize: %v", err)
	}
	if len(gains) != 1 {
		t.Fatalf("got %d gains, want 1", len(gains))
	}

	g := gains[0]
	if !g.RawProfit.Equal(dec("990")) {
		t.Errorf("raw profit = %s, want 990", g.RawProfit)
	}
	if !g.TaxableGain.Equal(dec("495")) {
		t.Errorf("taxable gain = %s, want 495", g.TaxableGain)
	}
	if g.Reason != ReasonDiscount {
		t.Errorf("reason = %s, want %s", g.Reason, ReasonDiscount)
	}
	if g.FY != 2025 {
		t.Errorf("fy = %d, want 2025", g.FY)
	}
}

func TestRealizeLossLotSelectedFirst(t *testing.T) {
	gains, err := Realize([]Trade{
		trade(Buy, "BHP", day(2024, time.January, 1), "100", "20", "0"),
		trade(Buy, "BHP", day(2024, time.February, 1), "100", "10", "0"),
		trade(Sell, "BHP", day(2024, time.May, 1), "100", "12", "0"),
	})
	if err != nil {
		t.Fatalf("Realize: %v", err)
	}
	if len(gains) != 1 {
		t.Fatalf("got %d gains, want 1", len(gains))
	}

	g := gains[0]
	if g.Reason != ReasonLoss {
		t.Errorf("reason = %s, want %s", g.Reason, ReasonLoss)
	}
	if !g.RawProfit.Equal(dec("-800")) {
		t.Errorf("raw profit = %s, want -800", g.RawProfit)
	}
	if !g.TaxableGain.Equal(dec("-800")) {
		t.Errorf("taxable gain = %s, want -800", g.TaxableGain)
	}
}

func TestRealizeLongHeldLossHalved(t *testing.T) {
	// Holding period is the only input to the discount: a lot held over
	// 365 days halves its taxable amount whether it closed up or down.
	gains, err := Realize([]Trade{
		trade(Buy, "NDQ", day(2022, time.January, 1), "50", "30", "0"),
		trade(Sell, "NDQ", day(2024, time.January, 1), "50", "20", "0"),
	})
	if err != nil {
		t.Fatalf("Realize: %v", err)
	}
	if !gains[0].RawProfit.Equal(dec("-500")) {
		t.Errorf("raw profit = %s, want -500", gains[0].RawProfit)
	}
	if !gains[0].TaxableGain.Equal(dec("-250")) {
		t.Errorf("taxable gain = %s, want -250", gains[0].TaxableGain)
	}
	if gains[0].Reason != ReasonLoss {
		t.Errorf("reason = %s, want %s", gains[0].Reason, ReasonLoss)
	}
}

func TestDiscountHoldingBoundary(t *testing.T) {
	bought := day(2023, time.January, 1)
	tests := []struct {
		name string
		sold time.Time
		want Reason
	}{
		{"365 days is not eligible", bought.AddDate(0, 0, 365), ReasonFIFO},
		{"366 days is eligible", bought.AddDate(0, 0, 366), ReasonDiscount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gains, err := Realize([]Trade{
				trade(Buy, "VGS", bought, "10", "10", "0"),
				trade(Sell, "VGS", tt.sold, "10", "15", "0"),
			})
			if err != nil {
				t.Fatalf("Realize: %v", err)
			}
			if gains[0].Reason != tt.want {
				t.Errorf("reason = %s, want %s", gains[0].Reason, tt.want)
			}
		})
	}
}

func TestPartialConsumptionProratesFee(t *testing.T) {
	gains, err := Realize([]Trade{
		trade(Buy, "IVV", day(2024, time.January, 1), "100", "10", "10"),
		trade(Sell, "IVV", day(2024, time.March, 1), "40", "12", "0"),
		trade(Sell, "IVV", day(2024, time.April, 1), "60", "12", "0"),
	})
	if err != nil {
		t.Fatalf("Realize: %v", err)
	}
	if len(gains) != 2 {
		t.Fatalf("got %d gains, want 2", len(gains))
	}

	// First sell: 40 units carrying 40% of the $10 buy fee.
	if !gains[0].RawProfit.Equal(dec("76")) {
		t.Errorf("first profit = %s, want 76", gains[0].RawProfit)
	}
	// Second sell consumes the rest with the remaining $6 fee.
	if !gains[1].RawProfit.Equal(dec("114")) {
		t.Errorf("second profit = %s, want 114", gains[1].RawProfit)
	}
	total := gains[0].Units.Add(gains[1].Units)
	if !total.Equal(dec("100")) {
		t.Errorf("consumed units = %s, want 100", total)
	}
}

func TestSellSpanningLots(t *testing.T) {
	gains, err := Realize([]Trade{
		trade(Buy, "VTS", day(2024, time.January, 1), "50", "10", "0"),
		trade(Buy, "VTS", day(2024, time.February, 1), "50", "12", "0"),
		trade(Sell, "VTS", day(2024, time.May, 1), "80", "15", "0"),
	})
	if err != nil {
		t.Fatalf("Realize: %v", err)
	}
	if len(gains) != 2 {
		t.Fatalf("got %d gains, want 2", len(gains))
	}
	if !gains[0].Units.Equal(dec("50")) || !gains[0].RawProfit.Equal(dec("250")) {
		t.Errorf("first lot: units %s profit %s, want 50 and 250", gains[0].Units, gains[0].RawProfit)
	}
	if !gains[1].Units.Equal(dec("30")) || !gains[1].RawProfit.Equal(dec("90")) {
		t.Errorf("second lot: units %s profit %s, want 30 and 90", gains[1].Units, gains[1].RawProfit)
	}
}

func TestInstrumentsIsolated(t *testing.T) {
	_, err := Realize([]Trade{
		trade(Buy, "AAA", day(2024, time.January, 1), "100", "10", "0"),
		trade(Sell, "BBB", day(2024, time.February, 1), "10", "10", "0"),
	})
	if !errors.Is(err, ErrOversell) {
		t.Errorf("selling an instrument never bought: error = %v, want ErrOversell", err)
	}
}

func TestOversellFails(t *testing.T) {
	_, err := Realize([]Trade{
		trade(Buy, "CBA", day(2024, time.January, 1), "100", "10", "0"),
		trade(Sell, "CBA", day(2024, time.February, 1), "150", "12", "0"),
	})
	if !errors.Is(err, ErrOversell) {
		t.Errorf("error = %v, want ErrOversell", err)
	}
}

func TestRealizeOrderIndependent(t *testing.T) {
	// Sell arrives before the buy in input order; date sorting fixes it.
	gains, err := Realize([]Trade{
		trade(Sell, "WES", day(2024, time.March, 1), "10", "15", "0"),
		trade(Buy, "WES", day(2024, time.January, 1), "10", "10", "0"),
	})
	if err != nil {
		t.Fatalf("Realize: %v", err)
	}
	if !gains[0].RawProfit.Equal(dec("50")) {
		t.Errorf("profit = %s, want 50", gains[0].RawProfit)
	}
}

func TestTradeValidate(t *testing.T) {
	valid := trade(Buy, "VAS", day(2024, time.January, 1), "10", "10", "0")

	tests := []struct {
		name   string
		mutate func(*Trade)
	}{
		{"missing code", func(tr *Trade) { tr.Code = "" }},
		{"bad action", func(tr *Trade) { tr.Action = "hold" }},
		{"zero units", func(tr *Trade) { tr.Units = decimal.Zero }},
		{"negative price", func(tr *Trade) { tr.Price = dec("-1") }},
		{"negative fee", func(tr *Trade) { tr.Fee = dec("-1") }},
		{"zero date", func(tr *Trade) { tr.Date = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if err := tr.Validate(); err == nil {
				t.Error("Validate accepted a malformed trade")
			}
		})
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate rejected a valid trade: %v", err)
	}
}
