package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const (
	tradesCollection   = "trades"
	lossesCollection   = "losses"
	profilesCollection = "profiles"
)

// FirestoreStore implements Store backed by Firestore.
// NOTE: Field names in queries must match the Go struct field names
// (PascalCase) as that is how Firestore serializes the documents.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// CreateTrade stores a trade document keyed by its ID.
func (s *FirestoreStore) CreateTrade(ctx context.Context, trade *Trade) error {
	_, err := s.client.Collection(tradesCollection).Doc(trade.ID).Set(ctx, trade)
	return err
}

// GetTrade retrieves a trade by ID.
func (s *FirestoreStore) GetTrade(ctx context.Context, tradeID string) (*Trade, error) {
	doc, err := s.client.Collection(tradesCollection).Doc(tradeID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("trade %s: %w", tradeID, ErrNotFound)
	}
	var trade Trade
	if err := doc.DataTo(&trade); err != nil {
		return nil, fmt.Errorf("parse trade: %w", err)
	}
	return &trade, nil
}

// ListTrades returns an owner's trades ordered by date.
func (s *FirestoreStore) ListTrades(ctx context.Context, owner string) ([]*Trade, error) {
	query := s.client.Collection(tradesCollection).
		Where("Owner", "==", owner).
		OrderBy("Date", firestore.Asc)

	var out []*Trade
	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list trades: %w", err)
		}
		var trade Trade
		if err := doc.DataTo(&trade); err != nil {
			return nil, fmt.Errorf("parse trade: %w", err)
		}
		out = append(out, &trade)
	}
	return out, nil
}

// DeleteTrade removes a trade by ID.
func (s *FirestoreStore) DeleteTrade(ctx context.Context, tradeID string) error {
	_, err := s.client.Collection(tradesCollection).Doc(tradeID).Delete(ctx)
	return err
}

// CreateLoss stores a loss document keyed by its ID.
func (s *FirestoreStore) CreateLoss(ctx context.Context, loss *Loss) error {
	_, err := s.client.Collection(lossesCollection).Doc(loss.ID).Set(ctx, loss)
	return err
}

// ListLosses returns an owner's recorded losses ordered by applying year.
func (s *FirestoreStore) ListLosses(ctx context.Context, owner string) ([]*Loss, error) {
	query := s.client.Collection(lossesCollection).
		Where("Owner", "==", owner).
		OrderBy("FY", firestore.Asc)

	var out []*Loss
	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list losses: %w", err)
		}
		var loss Loss
		if err := doc.DataTo(&loss); err != nil {
			return nil, fmt.Errorf("parse loss: %w", err)
		}
		out = append(out, &loss)
	}
	return out, nil
}

// DeleteLoss removes a loss by ID.
func (s *FirestoreStore) DeleteLoss(ctx context.Context, lossID string) error {
	_, err := s.client.Collection(lossesCollection).Doc(lossID).Delete(ctx)
	return err
}

// CreateProfile stores a taxpayer profile keyed by its ID.
func (s *FirestoreStore) CreateProfile(ctx context.Context, profile *Profile) error {
	_, err := s.client.Collection(profilesCollection).Doc(profile.ID).Set(ctx, profile)
	return err
}

// ListProfiles returns an owner's saved profiles ordered by name.
func (s *FirestoreStore) ListProfiles(ctx context.Context, owner string) ([]*Profile, error) {
	query := s.client.Collection(profilesCollection).
		Where("Owner", "==", owner).
		OrderBy("Name", firestore.Asc)

	var out []*Profile
	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list profiles: %w", err)
		}
		var profile Profile
		if err := doc.DataTo(&profile); err != nil {
			return nil, fmt.Errorf("parse profile: %w", err)
		}
		out = append(out, &profile)
	}
	return out, nil
}

// DeleteProfile removes a profile by ID.
func (s *FirestoreStore) DeleteProfile(ctx context.Context, profileID string) error {
	_, err := s.client.Collection(profilesCollection).Doc(profileID).Delete(ctx)
	return err
}
