// Package service exposes the tax engine over JSON HTTP: liability
// calculation, household deduction optimization, trade/loss persistence,
// realized gains and multi-year planning.
package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/household"
	"github.com/jmcalister/ozreturn/internal/store"
	"github.com/jmcalister/ozreturn/internal/tax"
	"github.com/jmcalister/ozreturn/internal/taxconfig"
)

// TaxService wires the engine packages to HTTP handlers.
type TaxService struct {
	store      store.Store
	registry   *taxconfig.Registry
	calculator *tax.Calculator
}

// NewTaxService creates a service over the given store and rate registry.
func NewTaxService(s store.Store, registry *taxconfig.Registry) *TaxService {
	return &TaxService{
		store:      s,
		registry:   registry,
		calculator: tax.NewCalculator(registry),
	}
}

// Routes returns the service's handler with all endpoints registered.
func (s *TaxService) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/liability", s.handleLiability)
	mux.HandleFunc("POST /v1/household/optimize", s.handleOptimize)
	mux.HandleFunc("POST /v1/trades", s.handleCreateTrade)
	mux.HandleFunc("GET /v1/trades", s.handleListTrades)
	mux.HandleFunc("DELETE /v1/trades/{id}", s.handleDeleteTrade)
	mux.HandleFunc("GET /v1/gains", s.handleGains)
	mux.HandleFunc("POST /v1/losses", s.handleCreateLoss)
	mux.HandleFunc("GET /v1/losses", s.handleListLosses)
	mux.HandleFunc("DELETE /v1/losses/{id}", s.handleDeleteLoss)
	mux.HandleFunc("POST /v1/profiles", s.handleCreateProfile)
	mux.HandleFunc("GET /v1/profiles", s.handleListProfiles)
	mux.HandleFunc("DELETE /v1/profiles/{id}", s.handleDeleteProfile)
	mux.HandleFunc("GET /v1/plan", s.handlePlan)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// LiabilityRequest is one taxpayer-year liability query.
type LiabilityRequest struct {
	FY            int             `json:"fy"`
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	Status        string          `json:"status"`
	Dependents    int             `json:"dependents"`
	PrivateCover  bool            `json:"private_cover"`
	PartnerIncome decimal.Decimal `json:"partner_income"`
}

// LiabilityResponse carries the liability components, rounded to cents.
type LiabilityResponse struct {
	FY                int             `json:"fy"`
	IncomeTax         decimal.Decimal `json:"income_tax"`
	MedicareLevy      decimal.Decimal `json:"medicare_levy"`
	MedicareSurcharge decimal.Decimal `json:"medicare_surcharge"`
	Total             decimal.Decimal `json:"total"`
}

func (s *TaxService) handleLiability(w http.ResponseWriter, r *http.Request) {
	var req LiabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	status, err := tax.ParseFilingStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	liability, err := s.calculator.Liability(req.FY, tax.Input{
		TaxableIncome: req.TaxableIncome,
		Status:        status,
		Dependents:    req.Dependents,
		PrivateCover:  req.PrivateCover,
		PartnerIncome: req.PartnerIncome,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, liabilityResponse(req.FY, liability))
}

// TaxpayerPayload is one member of a household optimization request.
type TaxpayerPayload struct {
	Name         string            `json:"name"`
	Income       decimal.Decimal   `json:"income"`
	Deductions   []decimal.Decimal `json:"deductions"`
	Dependents   int               `json:"dependents"`
	PrivateCover bool              `json:"private_cover"`
}

// OptimizeRequest asks for the liability-minimizing split of the couple's
// combined deductions. Taxpayers are given inline, or by owner to load the
// couple's saved profiles.
type OptimizeRequest struct {
	FY     int             `json:"fy"`
	Owner  string          `json:"owner"`
	First  TaxpayerPayload `json:"first"`
	Second TaxpayerPayload `json:"second"`
}

// AllocationPayload is one taxpayer's share of the optimal split.
type AllocationPayload struct {
	Name       string            `json:"name"`
	Deductions []decimal.Decimal `json:"deductions"`
	Liability  LiabilityResponse `json:"liability"`
}

// OptimizeResponse is the optimal allocation and its combined total.
type OptimizeResponse struct {
	First  AllocationPayload `json:"first"`
	Second AllocationPayload `json:"second"`
	Total  decimal.Decimal   `json:"total"`
}

func (s *TaxService) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := s.registry.Config(req.FY)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	first, second := req.First, req.Second
	if req.Owner != "" {
		first, second, err = s.profileTaxpayers(r, req.Owner)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	allocation, err := household.Optimize(cfg, toIndividual(first, cfg.FY), toIndividual(second, cfg.FY))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, OptimizeResponse{
		First: AllocationPayload{
			Name:       allocation.First.Name,
			Deductions: allocation.First.Deductions,
			Liability:  liabilityResponse(cfg.FY, allocation.FirstLiability),
		},
		Second: AllocationPayload{
			Name:       allocation.Second.Name,
			Deductions: allocation.Second.Deductions,
			Liability:  liabilityResponse(cfg.FY, allocation.SecondLiability),
		},
		Total: allocation.Total,
	})
}

func toIndividual(p TaxpayerPayload, fy int) household.Individual {
	return household.Individual{
		Name:         p.Name,
		FY:           fy,
		Income:       p.Income,
		Deductions:   p.Deductions,
		Dependents:   p.Dependents,
		PrivateCover: p.PrivateCover,
	}
}

func liabilityResponse(fy int, l tax.Liability) LiabilityResponse {
	return LiabilityResponse{
		FY:                fy,
		IncomeTax:         l.IncomeTax,
		MedicareLevy:      l.MedicareLevy,
		MedicareSurcharge: l.MedicareSurcharge,
		Total:             l.Total,
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeEngineError maps engine failures to status codes: an unknown fiscal
// year is 404 with the available years, everything else is 400.
func writeEngineError(w http.ResponseWriter, err error) {
	var yearErr *taxconfig.YearError
	if errors.As(err, &yearErr) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":     yearErr.Error(),
			"fy":        yearErr.FY,
			"available": yearErr.Available,
		})
		return
	}
	writeError(w, http.StatusBadRequest, err)
}
