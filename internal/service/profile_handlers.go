package service

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/household"
	"github.com/jmcalister/ozreturn/internal/store"
)

// ProfileRequest saves a taxpayer position for reuse.
type ProfileRequest struct {
	Owner        string            `json:"owner"`
	Name         string            `json:"name"`
	Income       decimal.Decimal   `json:"income"`
	Deductions   []decimal.Decimal `json:"deductions"`
	Dependents   int               `json:"dependents"`
	PrivateCover bool              `json:"private_cover"`
}

// ProfilePayload is a stored taxpayer profile.
type ProfilePayload struct {
	ID           string            `json:"id"`
	Owner        string            `json:"owner"`
	Name         string            `json:"name"`
	Income       decimal.Decimal   `json:"income"`
	Deductions   []decimal.Decimal `json:"deductions"`
	Dependents   int               `json:"dependents"`
	PrivateCover bool              `json:"private_cover"`
}

func (s *TaxService) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Owner == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner and name are required"))
		return
	}

	ind := household.Individual{
		Name:         req.Name,
		Income:       req.Income,
		Deductions:   req.Deductions,
		Dependents:   req.Dependents,
		PrivateCover: req.PrivateCover,
	}
	if err := ind.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	deductions := make([]string, 0, len(req.Deductions))
	for _, d := range req.Deductions {
		deductions = append(deductions, d.String())
	}
	record := &store.Profile{
		ID:           uuid.New().String(),
		Owner:        req.Owner,
		Name:         req.Name,
		Income:       req.Income.String(),
		Deductions:   deductions,
		Dependents:   req.Dependents,
		PrivateCover: req.PrivateCover,
	}
	if err := s.store.CreateProfile(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	payload, err := profilePayload(record)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *TaxService) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner is required"))
		return
	}

	records, err := s.store.ListProfiles(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]ProfilePayload, 0, len(records))
	for _, rec := range records {
		payload, err := profilePayload(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, payload)
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": out})
}

func (s *TaxService) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProfile(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func profilePayload(rec *store.Profile) (ProfilePayload, error) {
	income, err := decimal.NewFromString(rec.Income)
	if err != nil {
		return ProfilePayload{}, err
	}
	deductions := make([]decimal.Decimal, 0, len(rec.Deductions))
	for _, d := range rec.Deductions {
		dd, err := decimal.NewFromString(d)
		if err != nil {
			return ProfilePayload{}, err
		}
		deductions = append(deductions, dd)
	}
	return ProfilePayload{
		ID:           rec.ID,
		Owner:        rec.Owner,
		Name:         rec.Name,
		Income:       income,
		Deductions:   deductions,
		Dependents:   rec.Dependents,
		PrivateCover: rec.PrivateCover,
	}, nil
}

// profileTaxpayers loads an owner's saved profiles as optimizer inputs.
// Optimization over saved profiles needs exactly two.
func (s *TaxService) profileTaxpayers(r *http.Request, owner string) (TaxpayerPayload, TaxpayerPayload, error) {
	records, err := s.store.ListProfiles(r.Context(), owner)
	if err != nil {
		return TaxpayerPayload{}, TaxpayerPayload{}, err
	}
	if len(records) != 2 {
		return TaxpayerPayload{}, TaxpayerPayload{},
			errors.New("household optimization over saved profiles needs exactly two profiles")
	}

	var out [2]TaxpayerPayload
	for i, rec := range records {
		payload, err := profilePayload(rec)
		if err != nil {
			return TaxpayerPayload{}, TaxpayerPayload{}, err
		}
		out[i] = TaxpayerPayload{
			Name:         payload.Name,
			Income:       payload.Income,
			Deductions:   payload.Deductions,
			Dependents:   payload.Dependents,
			PrivateCover: payload.PrivateCover,
		}
	}
	return out[0], out[1], nil
}
