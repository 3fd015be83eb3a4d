package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/walletview/internal/currency"
	"github.com/mtlprog/walletview/internal/fee"
)

// NewServer creates an HTTP server with all routes configured.
// Admin routes require a Bearer token when adminAPIKey is set.
func NewServer(port string, rates RateSource, table *currency.Table, fees *fee.Calculator, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(NewHandler(rates, table, fees), adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers the API routes of handler.
func NewMux(handler *Handler, adminAPIKey string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/rates", handler.GetRates)
	mux.HandleFunc("GET /api/v1/rates/history", handler.ListRateHistory)
	mux.HandleFunc("GET /api/v1/amounts/display", handler.GetDisplayAmount)
	mux.HandleFunc("POST /api/v1/fees/display", handler.ComputeFeeDisplay)
	mux.HandleFunc("POST /api/v1/wallets/rows", handler.BuildWalletRows)
	mux.HandleFunc("POST /api/v1/wallets/summary", handler.GetWalletSummary)
	mux.HandleFunc("POST /api/v1/accounts/total", handler.GetAccountTotal)
	mux.HandleFunc("POST /api/v1/transactions/rows", handler.BuildTransactionRows)

	admin := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}
	mux.Handle("PUT /api/v1/denominations/{code}", admin(handler.SetDenomination))
	mux.Handle("POST /api/v1/tokens", admin(handler.AddToken))
	mux.Handle("DELETE /api/v1/tokens/{code}", admin(handler.HideToken))

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
