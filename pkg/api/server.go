// Package api serves the cached market data over HTTP. Stale fallbacks are
// reported as successes; only a total failure produces an error response.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/michischmidt/crypto-tracker/pkg/fallback"
	"github.com/michischmidt/crypto-tracker/pkg/fault"
	"github.com/michischmidt/crypto-tracker/pkg/market"
	"github.com/michischmidt/crypto-tracker/pkg/models"
)

// CacheHeader reports how a response was produced: hit, miss or stale.
const CacheHeader = "X-Cache"

// Server exposes a market.Service over HTTP.
type Server struct {
	listen string
	svc    *market.Service
	log    *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server for svc listening on addr.
func New(addr string, svc *market.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		listen: addr,
		svc:    svc,
		log:    log,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /v1/symbols", s.handleSymbols)
	s.mux.HandleFunc("GET /v1/market/{coin}", s.handleMarket)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server with graceful shutdown support.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("crypto-tracker api listening", "addr", s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

type dataResponse[E any] struct {
	Data     []E        `json:"data"`
	CachedAt *time.Time `json:"cached_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.TopCoins(r.Context()))
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	period := models.PeriodWeek
	if p := r.URL.Query().Get("period"); p != "" {
		period = models.TimePeriod(p)
	}

	res, err := s.svc.MarketSeries(r.Context(), r.PathValue("coin"), period)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "invalid_request"})
		return
	}
	writeResult(w, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeResult[E any](w http.ResponseWriter, res fallback.Result[E]) {
	if res.Err != nil {
		kind := "network"
		if fault.IsParse(res.Err) {
			kind = "parse"
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: res.Err.Error(), Kind: kind})
		return
	}

	body := dataResponse[E]{Data: res.Data}
	if !res.CachedAt.IsZero() {
		at := res.CachedAt.UTC()
		body.CachedAt = &at
	}
	w.Header().Set(CacheHeader, res.Outcome.String())
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
