package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTrades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	later := &Trade{
		ID: "t2", Owner: "you", Code: "VAS", Action: "sell",
		Date:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Units: "50", Price: "105.20", Fee: "9.50",
	}
	earlier := &Trade{
		ID: "t1", Owner: "you", Code: "VAS", Action: "buy",
		Date:  time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		Units: "100", Price: "95.00", Fee: "9.50",
	}
	other := &Trade{
		ID: "t3", Owner: "janice", Code: "BHP", Action: "buy",
		Date:  time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Units: "10", Price: "40.00", Fee: "5.00",
	}

	require.NoError(t, s.CreateTrade(ctx, later))
	require.NoError(t, s.CreateTrade(ctx, earlier))
	require.NoError(t, s.CreateTrade(ctx, other))

	got, err := s.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "VAS", got.Code)

	// Mutating the returned copy must not touch the stored record.
	got.Code = "changed"
	again, err := s.GetTrade(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "VAS", again.Code)

	trades, err := s.ListTrades(ctx, "you")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "t1", trades[0].ID, "list should be date-ordered")
	assert.Equal(t, "t2", trades[1].ID)

	require.NoError(t, s.DeleteTrade(ctx, "t1"))
	_, err = s.GetTrade(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteTrade(ctx, "t1"), ErrNotFound)
}

func TestMemoryStoreLosses(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateLoss(ctx, &Loss{ID: "l2", Owner: "you", FY: 2026, Amount: "2000", SourceFY: 2025}))
	require.NoError(t, s.CreateLoss(ctx, &Loss{ID: "l1", Owner: "you", FY: 2025, Amount: "1000", SourceFY: 2025}))
	require.NoError(t, s.CreateLoss(ctx, &Loss{ID: "l3", Owner: "janice", FY: 2025, Amount: "500", SourceFY: 2025}))

	losses, err := s.ListLosses(ctx, "you")
	require.NoError(t, err)
	require.Len(t, losses, 2)
	assert.Equal(t, "l1", losses[0].ID, "list should be year-ordered")
	assert.Equal(t, "l2", losses[1].ID)

	require.NoError(t, s.DeleteLoss(ctx, "l1"))
	losses, err = s.ListLosses(ctx, "you")
	require.NoError(t, err)
	assert.Len(t, losses, 1)
	assert.ErrorIs(t, s.DeleteLoss(ctx, "l1"), ErrNotFound)
}

func TestMemoryStoreProfiles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateProfile(ctx, &Profile{
		ID: "p2", Owner: "you", Name: "janice", Income: "40000",
		Deductions: []string{"5000"},
	}))
	require.NoError(t, s.CreateProfile(ctx, &Profile{
		ID: "p1", Owner: "you", Name: "alex", Income: "80000",
		Deductions: []string{"1200", "800"}, Dependents: 1, PrivateCover: true,
	}))

	profiles, err := s.ListProfiles(ctx, "you")
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "alex", profiles[0].Name, "list should be name-ordered")

	// Mutating a returned slice must not touch the stored record.
	profiles[0].Deductions[0] = "changed"
	again, err := s.ListProfiles(ctx, "you")
	require.NoError(t, err)
	assert.Equal(t, "1200", again[0].Deductions[0])

	require.NoError(t, s.DeleteProfile(ctx, "p1"))
	assert.ErrorIs(t, s.DeleteProfile(ctx, "p1"), ErrNotFound)
}

func TestMemoryStoreEmptyOwner(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	trades, err := s.ListTrades(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, trades)

	losses, err := s.ListLosses(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, losses)
}
