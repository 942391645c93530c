package service

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jmcalister/ozreturn/internal/cgt"
	"github.com/jmcalister/ozreturn/internal/planning"
	"github.com/jmcalister/ozreturn/internal/store"
)

const dateLayout = "2006-01-02"

// TradeRequest records one buy or sell.
type TradeRequest struct {
	Owner  string          `json:"owner"`
	Code   string          `json:"code"`
	Action string          `json:"action"`
	Date   string          `json:"date"`
	Units  decimal.Decimal `json:"units"`
	Price  decimal.Decimal `json:"price"`
	Fee    decimal.Decimal `json:"fee"`
}

// TradePayload is a stored trade.
type TradePayload struct {
	ID     string          `json:"id"`
	Owner  string          `json:"owner"`
	Code   string          `json:"code"`
	Action string          `json:"action"`
	Date   string          `json:"date"`
	Units  decimal.Decimal `json:"units"`
	Price  decimal.Decimal `json:"price"`
	Fee    decimal.Decimal `json:"fee"`
}

func (s *TaxService) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner is required"))
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("date must be YYYY-MM-DD: %w", err))
		return
	}
	action, err := cgt.ParseAction(req.Action)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	trade := cgt.Trade{
		Date:   date,
		Code:   req.Code,
		Action: action,
		Units:  req.Units,
		Price:  req.Price,
		Fee:    req.Fee,
		Owner:  req.Owner,
	}
	if err := trade.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	record := &store.Trade{
		ID:     uuid.New().String(),
		Owner:  req.Owner,
		Code:   req.Code,
		Action: string(action),
		Date:   date,
		Units:  req.Units.String(),
		Price:  req.Price.String(),
		Fee:    req.Fee.String(),
	}
	if err := s.store.CreateTrade(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	payload, err := tradePayload(record)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *TaxService) handleListTrades(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner is required"))
		return
	}

	records, err := s.store.ListTrades(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]TradePayload, 0, len(records))
	for _, rec := range records {
		payload, err := tradePayload(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, payload)
	}
	writeJSON(w, http.StatusOK, map[string]any{"trades": out})
}

func (s *TaxService) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTrade(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GainPayload is one realized gain event.
type GainPayload struct {
	FY          int             `json:"fy"`
	Code        string          `json:"code"`
	Units       decimal.Decimal `json:"units"`
	RawProfit   decimal.Decimal `json:"raw_profit"`
	TaxableGain decimal.Decimal `json:"taxable_gain"`
	Reason      string          `json:"reason"`
}

func (s *TaxService) handleGains(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner is required"))
		return
	}

	gains, err := s.realizeGains(r, owner)
	if err != nil {
		if errors.Is(err, cgt.ErrOversell) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out := make([]GainPayload, 0, len(gains))
	for _, g := range gains {
		out = append(out, GainPayload{
			FY:          g.FY,
			Code:        g.Code,
			Units:       g.Units,
			RawProfit:   g.RawProfit,
			TaxableGain: g.TaxableGain,
			Reason:      string(g.Reason),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"gains": out})
}

// LossRequest records a capital loss for carryforward.
type LossRequest struct {
	Owner    string          `json:"owner"`
	FY       int             `json:"fy"`
	Amount   decimal.Decimal `json:"amount"`
	SourceFY int             `json:"source_fy"`
}

// LossPayload is a stored loss.
type LossPayload struct {
	ID       string          `json:"id"`
	Owner    string          `json:"owner"`
	FY       int             `json:"fy"`
	Amount   decimal.Decimal `json:"amount"`
	SourceFY int             `json:"source_fy"`
}

func (s *TaxService) handleCreateLoss(w http.ResponseWriter, r *http.Request) {
	var req LossRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Owner == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner is required"))
		return
	}
	if req.SourceFY == 0 {
		req.SourceFY = req.FY
	}

	loss := planning.Loss{FY: req.FY, Amount: req.Amount, SourceFY: req.SourceFY}
	if err := loss.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	record := &store.Loss{
		ID:       uuid.New().String(),
		Owner:    req.Owner,
		FY:       req.FY,
		Amount:   req.Amount.String(),
		SourceFY: req.SourceFY,
	}
	if err := s.store.CreateLoss(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	payload, err := lossPayload(record)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *TaxService) handleListLosses(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner is required"))
		return
	}

	records, err := s.store.ListLosses(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	out := make([]LossPayload, 0, len(records))
	for _, rec := range records {
		payload, err := lossPayload(rec)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, payload)
	}
	writeJSON(w, http.StatusOK, map[string]any{"losses": out})
}

func (s *TaxService) handleDeleteLoss(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteLoss(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// YearPlanPayload is one planned year: its realized gains, the taxable gain
// after carryforward offset, the carryforward consumed, and the
// caller-supplied marginal-rate projection (display only).
type YearPlanPayload struct {
	FY               int             `json:"fy"`
	Gains            []GainPayload   `json:"gains"`
	TaxableGain      decimal.Decimal `json:"taxable_gain"`
	CarryforwardUsed decimal.Decimal `json:"carryforward_used"`
	ProjectedRate    decimal.Decimal `json:"projected_rate"`
}

// PlanResponse maps an owner's trade and loss history into per-year plans
// plus the carryforward left after the final active year.
type PlanResponse struct {
	Years        []YearPlanPayload `json:"years"`
	Carryforward []LossPayload     `json:"carryforward"`
}

func (s *TaxService) handlePlan(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		writeError(w, http.StatusBadRequest, errors.New("owner is required"))
		return
	}

	gains, err := s.realizeGains(r, owner)
	if err != nil {
		if errors.Is(err, cgt.ErrOversell) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lossRecords, err := s.store.ListLosses(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	losses := make([]planning.Loss, 0, len(lossRecords))
	for _, rec := range lossRecords {
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("stored loss %s: %w", rec.ID, err))
			return
		}
		losses = append(losses, planning.Loss{FY: rec.FY, Amount: amount, SourceFY: rec.SourceFY})
	}

	projection, err := parseProjection(r.URL.Query().Get("projection"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	plans, leftover, err := planning.Plan(gains, losses, projection)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	years := make([]YearPlanPayload, 0, len(plans))
	for fy, plan := range plans {
		gainsOut := make([]GainPayload, 0, len(plan.RealizedGains))
		for _, g := range plan.RealizedGains {
			gainsOut = append(gainsOut, GainPayload{
				FY:          g.FY,
				Code:        g.Code,
				Units:       g.Units,
				RawProfit:   g.RawProfit,
				TaxableGain: g.TaxableGain,
				Reason:      string(g.Reason),
			})
		}
		years = append(years, YearPlanPayload{
			FY:               fy,
			Gains:            gainsOut,
			TaxableGain:      plan.TaxableGain,
			CarryforwardUsed: plan.CarryforwardUsed,
			ProjectedRate:    plan.ProjectedRate,
		})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].FY < years[j].FY })

	carryforward := make([]LossPayload, 0, len(leftover))
	for _, l := range leftover {
		carryforward = append(carryforward, LossPayload{
			Owner:    owner,
			FY:       l.FY,
			Amount:   l.Amount,
			SourceFY: l.SourceFY,
		})
	}

	writeJSON(w, http.StatusOK, PlanResponse{Years: years, Carryforward: carryforward})
}

// realizeGains loads an owner's trades and runs lot matching. A fy query
// parameter filters the result to one year.
func (s *TaxService) realizeGains(r *http.Request, owner string) ([]cgt.Gain, error) {
	records, err := s.store.ListTrades(r.Context(), owner)
	if err != nil {
		return nil, err
	}

	trades := make([]cgt.Trade, 0, len(records))
	for _, rec := range records {
		trade, err := toTrade(rec)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	gains, err := cgt.Realize(trades)
	if err != nil {
		return nil, err
	}

	if fyParam := r.URL.Query().Get("fy"); fyParam != "" {
		fy, err := strconv.Atoi(fyParam)
		if err != nil {
			return nil, fmt.Errorf("fy must be an integer: %w", err)
		}
		filtered := gains[:0]
		for _, g := range gains {
			if g.FY == fy {
				filtered = append(filtered, g)
			}
		}
		gains = filtered
	}
	return gains, nil
}

// parseProjection decodes the plan endpoint's projection query parameter,
// "fy:rate" pairs separated by commas, e.g. "2025:0.37,2026:0.30".
func parseProjection(raw string) (map[int]decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	out := make(map[int]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		fyStr, rateStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("projection entry %q is not fy:rate", pair)
		}
		fy, err := strconv.Atoi(fyStr)
		if err != nil {
			return nil, fmt.Errorf("projection year %q: %w", fyStr, err)
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("projection rate %q: %w", rateStr, err)
		}
		out[fy] = rate
	}
	return out, nil
}

func toTrade(rec *store.Trade) (cgt.Trade, error) {
	action, err := cgt.ParseAction(rec.Action)
	if err != nil {
		return cgt.Trade{}, fmt.Errorf("stored trade %s: %w", rec.ID, err)
	}
	units, err := decimal.NewFromString(rec.Units)
	if err != nil {
		return cgt.Trade{}, fmt.Errorf("stored trade %s units: %w", rec.ID, err)
	}
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return cgt.Trade{}, fmt.Errorf("stored trade %s price: %w", rec.ID, err)
	}
	fee, err := decimal.NewFromString(rec.Fee)
	if err != nil {
		return cgt.Trade{}, fmt.Errorf("stored trade %s fee: %w", rec.ID, err)
	}
	return cgt.Trade{
		Date:   rec.Date,
		Code:   rec.Code,
		Action: action,
		Units:  units,
		Price:  price,
		Fee:    fee,
		Owner:  rec.Owner,
	}, nil
}

func tradePayload(rec *store.Trade) (TradePayload, error) {
	units, err := decimal.NewFromString(rec.Units)
	if err != nil {
		return TradePayload{}, fmt.Errorf("stored trade %s units: %w", rec.ID, err)
	}
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return TradePayload{}, fmt.Errorf("stored trade %s price: %w", rec.ID, err)
	}
	fee, err := decimal.NewFromString(rec.Fee)
	if err != nil {
		return TradePayload{}, fmt.Errorf("stored trade %s fee: %w", rec.ID, err)
	}
	return TradePayload{
		ID:     rec.ID,
		Owner:  rec.Owner,
		Code:   rec.Code,
		Action: rec.Action,
		Date:   rec.Date.Format(dateLayout),
		Units:  units,
		Price:  price,
		Fee:    fee,
	}, nil
}

func lossPayload(rec *store.Loss) (LossPayload, error) {
	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return LossPayload{}, fmt.Errorf("stored loss %s: %w", rec.ID, err)
	}
	return LossPayload{
		ID:       rec.ID,
		Owner:    rec.Owner,
		FY:       rec.FY,
		Amount:   amount,
		SourceFY: rec.SourceFY,
	}, nil
}
