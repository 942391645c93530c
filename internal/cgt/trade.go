// Package cgt reconciles buy and sell trades into realized capital gains.
// Each instrument keeps its own buffer of open buy lots; sells consume lots
// with loss-harvesting and CGT-discount priority before falling back to FIFO.
package cgt

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the trade direction. Buys open lots; sells consume them.
type Action string

const (
	Buy  Action = "buy"
	Sell Action = "sell"
)

// ParseAction validates a wire-format trade action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case Buy, Sell:
		return Action(s), nil
	}
	return "", fmt.Errorf("invalid trade action %q", s)
}

// Trade is one buy or sell event. Price is per unit; Fee is the total
// brokerage for the trade.
type Trade struct {
	Date   time.Time
	Code   string
	Action Action
	Units  decimal.Decimal
	Price  decimal.Decimal
	Fee    decimal.Decimal
	Owner  string
}

// Validate rejects malformed trades before they reach the matching engine.
func (t Trade) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("trade missing instrument code")
	}
	if _, err := ParseAction(string(t.Action)); err != nil {
		return err
	}
	if t.Units.Sign() <= 0 {
		return fmt.Errorf("trade %s: units must be positive, got %s", t.Code, t.Units)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("trade %s: negative unit price %s", t.Code, t.Price)
	}
	if t.Fee.IsNegative() {
		return fmt.Errorf("trade %s: negative fee %s", t.Code, t.Fee)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("trade %s: missing date", t.Code)
	}
	return nil
}

// Reason records which selection rule matched the consumed lot.
type Reason string

const (
	ReasonLoss     Reason = "loss"
	ReasonDiscount Reason = "discount"
	ReasonFIFO     Reason = "fifo"
)

// Gain is one realized disposal outcome. A sell spanning several lots yields
// one Gain per lot consumed. TaxableGain is RawProfit halved when the lot
// qualified for the CGT discount.
type Gain struct {
	FY          int
	Code        string
	Units       decimal.Decimal
	RawProfit   decimal.Decimal
	TaxableGain decimal.Decimal
	Reason      Reason
}
