package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/display"
	"github.com/mtlprog/walletview/internal/domain"
	"github.com/mtlprog/walletview/internal/fee"
	"github.com/mtlprog/walletview/internal/snapshot"
	"github.com/mtlprog/walletview/internal/token"
	"github.com/mtlprog/walletview/internal/txlist"
	"github.com/mtlprog/walletview/internal/walletlist"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// RateSource provides current and historical exchange rates.
type RateSource interface {
	Current(ctx context.Context) (domain.ExchangeRates, error)
	History(ctx context.Context, limit int) ([]snapshot.RateSnapshot, error)
}

// Handler provides HTTP endpoints for the display API.
type Handler struct {
	rates  RateSource
	table  *currency.Table
	fees   *fee.Calculator
	tokens *token.Service
}

// NewHandler creates a new API handler.
func NewHandler(rates RateSource, table *currency.Table, fees *fee.Calculator) *Handler {
	return &Handler{
		rates:  rates,
		table:  table,
		fees:   fees,
		tokens: token.NewService(table),
	}
}

// GetRates handles GET /api/v1/rates.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rates.Current(r.Context())
	if err != nil {
		slog.Error("failed to get exchange rates", "error", err)
		writeError(w, http.StatusServiceUnavailable, "exchange rates unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// ListRateHistory handles GET /api/v1/rates/history.
func (h *Handler) ListRateHistory(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 168
	limit := snapshot.DefaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	history, err := h.rates.History(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list rate history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

type displayAmountResponse struct {
	CurrencyCode string              `json:"currencyCode"`
	Native       string              `json:"native"`
	Denomination domain.Denomination `json:"denomination"`
	Display      string              `json:"display"`
	Label        string              `json:"label"`
}

// GetDisplayAmount handles GET /api/v1/amounts/display?currency=&native=.
func (h *Handler) GetDisplayAmount(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("currency")
	native := r.URL.Query().Get("native")
	if code == "" || native == "" {
		writeError(w, http.StatusBadRequest, "currency and native are required")
		return
	}

	denom, err := h.table.DisplayDenomination(code)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	amount, err := display.ConvertNativeToDisplay(native, denom)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, displayAmountResponse{
		CurrencyCode: code,
		Native:       native,
		Denomination: denom,
		Display:      amount,
		Label:        display.Label(denom.Symbol, display.GroupThousands(amount)),
	})
}

type feeRequest struct {
	CurrencyCode        string `json:"currencyCode"`
	ParentCurrencyCode  string `json:"parentCurrencyCode"`
	NetworkFee          string `json:"networkFee"`
	ParentNetworkFee    string `json:"parentNetworkFee"`
	IsoFiatCurrencyCode string `json:"isoFiatCurrencyCode"`
}

type feeResponse struct {
	fee.Display
	PaidIn    string `json:"paidIn"`
	Line      string `json:"line"`
	RateError string `json:"rateError,omitempty"`
}

// ComputeFeeDisplay handles POST /api/v1/fees/display.
func (h *Handler) ComputeFeeDisplay(w http.ResponseWriter, r *http.Request) {
	var req feeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CurrencyCode == "" {
		writeError(w, http.StatusBadRequest, "currencyCode is required")
		return
	}
	if req.IsoFiatCurrencyCode == "" {
		req.IsoFiatCurrencyCode = domain.USDCode
	}
	if req.ParentCurrencyCode == "" {
		parentCode, err := h.table.ParentCurrency(req.CurrencyCode)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		req.ParentCurrencyCode = parentCode
	}

	primary, err := h.side(req.CurrencyCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	parent, err := h.side(req.ParentCurrencyCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rates, err := h.rates.Current(r.Context())
	if err != nil {
		slog.Warn("rendering fee without exchange rates", "error", err)
		rates = domain.ExchangeRates{}
	}

	fiat := currency.ToISO(req.IsoFiatCurrencyCode)
	out, err := h.fees.ComputeFeeDisplay(fee.Input{
		NetworkFee:       req.NetworkFee,
		ParentNetworkFee: req.ParentNetworkFee,
		Primary:          primary,
		Parent:           parent,
		FiatCode:         fiat,
		FiatSymbol:       currency.FiatSymbol(fiat),
	}, rates)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := feeResponse{Display: out, PaidIn: paidIn(out.Fee, primary, parent), Line: out.Line()}
	if out.RateErr != nil {
		resp.RateError = out.RateErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) side(code string) (fee.Side, error) {
	displayDenom, err := h.table.DisplayDenomination(code)
	if err != nil {
		return fee.Side{}, err
	}
	exchange, err := h.table.ExchangeDenomination(code)
	if err != nil {
		return fee.Side{}, err
	}
	return fee.Side{CurrencyCode: code, Display: displayDenom, Exchange: exchange}, nil
}

func paidIn(f domain.Fee, primary, parent fee.Side) string {
	switch f.(type) {
	case domain.ParentFee:
		return parent.CurrencyCode
	case domain.PrimaryFee:
		return primary.CurrencyCode
	default:
		return ""
	}
}

type walletRowsRequest struct {
	Wallets     map[string]walletlist.Wallet `json:"wallets"`
	Items       []walletlist.Item            `json:"items"`
	ShowBalance *bool                        `json:"showBalance"`
}

// BuildWalletRows handles POST /api/v1/wallets/rows.
func (h *Handler) BuildWalletRows(w http.ResponseWriter, r *http.Request) {
	var req walletRowsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rates := h.currentRates(r.Context(), "wallet rows")
	showBalance := req.ShowBalance == nil || *req.ShowBalance
	rows := walletlist.NewBuilder(h.table, showBalance).Rows(req.Wallets, req.Items, rates)
	writeJSON(w, http.StatusOK, rows)
}

type walletSummaryRequest struct {
	Wallet       walletlist.Wallet `json:"wallet"`
	CurrencyCode string            `json:"currencyCode"`
}

// GetWalletSummary handles POST /api/v1/wallets/summary.
// The currency defaults to the wallet's own.
func (h *Handler) GetWalletSummary(w http.ResponseWriter, r *http.Request) {
	var req walletSummaryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	code := req.CurrencyCode
	if code == "" {
		code = req.Wallet.CurrencyCode
	}
	if code == "" {
		writeError(w, http.StatusBadRequest, "currencyCode is required")
		return
	}
	if _, err := h.table.Info(code); err != nil {
		writeDomainError(w, err)
		return
	}

	rates := h.currentRates(r.Context(), "wallet summary")
	writeJSON(w, http.StatusOK, walletlist.NewBuilder(h.table, true).Summary(req.Wallet, code, rates))
}

type accountTotalRequest struct {
	Wallets             []walletlist.Wallet `json:"wallets"`
	IsoFiatCurrencyCode string              `json:"isoFiatCurrencyCode"`
}

type accountTotalResponse struct {
	IsoFiatCurrencyCode string `json:"isoFiatCurrencyCode"`
	FiatSymbol          string `json:"fiatSymbol"`
	Total               string `json:"total"`
}

// GetAccountTotal handles POST /api/v1/accounts/total.
func (h *Handler) GetAccountTotal(w http.ResponseWriter, r *http.Request) {
	var req accountTotalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	iso := domain.USDCode
	if req.IsoFiatCurrencyCode != "" {
		iso = currency.ToISO(req.IsoFiatCurrencyCode)
	}

	rates := h.currentRates(r.Context(), "account total")
	total := walletlist.TotalFiat(h.table, req.Wallets, iso, rates)
	writeJSON(w, http.StatusOK, accountTotalResponse{
		IsoFiatCurrencyCode: iso,
		FiatSymbol:          currency.FiatSymbol(iso),
		Total:               display.GroupThousands(display.FormatFiat(total)),
	})
}

type transactionRowsRequest struct {
	Wallet       txlist.Wallet        `json:"wallet"`
	Transactions []txlist.Transaction `json:"transactions"`
}

// BuildTransactionRows handles POST /api/v1/transactions/rows.
// Wallet fields left empty are filled from the currency table.
func (h *Handler) BuildTransactionRows(w http.ResponseWriter, r *http.Request) {
	var req transactionRowsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	wallet := req.Wallet
	if wallet.CurrencyCode == "" {
		writeError(w, http.StatusBadRequest, "wallet.currencyCode is required")
		return
	}

	info, err := h.table.Info(wallet.CurrencyCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if wallet.CurrencyName == "" {
		wallet.CurrencyName = info.DisplayName
	}
	if wallet.Denomination.Multiplier == "" {
		if wallet.Denomination, err = h.table.DisplayDenomination(wallet.CurrencyCode); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if wallet.ExchangeDenomination.Multiplier == "" {
		wallet.ExchangeDenomination = info.ExchangeDenomination()
	}
	if wallet.IsoFiatCurrencyCode == "" {
		wallet.IsoFiatCurrencyCode = domain.USDCode
	}

	rates := h.currentRates(r.Context(), "transaction rows")
	writeJSON(w, http.StatusOK, txlist.Rows(wallet, req.Transactions, rates))
}

// currentRates returns the current rate table, or an empty one when rates are unavailable.
func (h *Handler) currentRates(ctx context.Context, what string) domain.ExchangeRates {
	rates, err := h.rates.Current(ctx)
	if err != nil {
		slog.Warn("rendering "+what+" without exchange rates", "error", err)
		return domain.ExchangeRates{}
	}
	return rates
}

type denominationRequest struct {
	Multiplier string `json:"multiplier"`
}

// SetDenomination handles PUT /api/v1/denominations/{code}.
func (h *Handler) SetDenomination(w http.ResponseWriter, r *http.Request) {
	var req denominationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	code := r.PathValue("code")
	if _, err := h.table.Info(code); err != nil {
		writeDomainError(w, err)
		return
	}
	denom, err := h.table.SetDisplayDenomination(code, req.Multiplier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Info("display denomination changed", "code", code, "denomination", denom.Name)
	writeJSON(w, http.StatusOK, denom)
}

// AddToken handles POST /api/v1/tokens.
func (h *Handler) AddToken(w http.ResponseWriter, r *http.Request) {
	var req token.Request
	if !decodeBody(w, r, &req) {
		return
	}

	info, err := h.tokens.Add(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// HideToken handles DELETE /api/v1/tokens/{code}.
func (h *Handler) HideToken(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Hide(r.PathValue("code")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeDomainError maps sentinel errors to client statuses; anything else is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, currency.ErrUnknownCurrency), errors.Is(err, snapshot.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, token.ErrDuplicateCurrencyCode):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNegativeFee),
		errors.Is(err, token.ErrInvalidTokenInfo),
		errors.Is(err, token.ErrCustomTokensUnsupported):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
