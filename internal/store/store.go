// Package store persists the engine's durable inputs: trade history,
// recorded capital losses, and saved taxpayer profiles, keyed by owner.
// Amounts are held as decimal strings at the storage boundary and converted
// to engine values on read.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for lookups of records that do not exist.
var ErrNotFound = errors.New("record not found")

// Trade is a stored buy or sell event. Units, Price and Fee are decimal
// strings; conversion to engine types happens in the service layer.
type Trade struct {
	ID     string
	Owner  string
	Code   string
	Action string
	Date   time.Time
	Units  string
	Price  string
	Fee    string
}

// Loss is a stored capital loss: the fiscal year it may be applied in, the
// amount as a decimal string, and the fiscal year it originated in.
type Loss struct {
	ID       string
	Owner    string
	FY       int
	Amount   string
	SourceFY int
}

// Profile is a saved taxpayer position: income and deductions as decimal
// strings, plus the levy-relevant attributes.
type Profile struct {
	ID           string
	Owner        string
	Name         string
	Income       string
	Deductions   []string
	Dependents   int
	PrivateCover bool
}

// Store defines the persistence operations used by the service.
type Store interface {
	CreateTrade(ctx context.Context, trade *Trade) error
	GetTrade(ctx context.Context, tradeID string) (*Trade, error)
	ListTrades(ctx context.Context, owner string) ([]*Trade, error)
	DeleteTrade(ctx context.Context, tradeID string) error

	CreateLoss(ctx context.Context, loss *Loss) error
	ListLosses(ctx context.Context, owner string) ([]*Loss, error)
	DeleteLoss(ctx context.Context, lossID string) error

	CreateProfile(ctx context.Context, profile *Profile) error
	ListProfiles(ctx context.Context, owner string) ([]*Profile, error)
	DeleteProfile(ctx context.Context, profileID string) error
}
