// Package api exposes the exchange over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/duskvale/patternmarket/internal/challenge"
	"github.com/duskvale/patternmarket/internal/exchange"
)

type Server struct {
	svc *exchange.Service
	log *zap.Logger
	mux *chi.Mux
	hub *streamHub
}

// New builds the HTTP server around an exchange service and starts the
// websocket broadcast hub on the service's event channel.
func New(svc *exchange.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		svc: svc,
		log: logger,
		mux: chi.NewRouter(),
		hub: newStreamHub(logger),
	}
	s.routes()
	go s.hub.run(svc.Events())
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/market", s.handleMarket)
		r.Get("/instruments", s.handleInstruments)
		r.Get("/instruments/{symbol}", s.handleInstrument)

		r.Post("/portfolios", s.handleCreatePortfolio)
		r.Get("/portfolios/{id}", s.handlePortfolio)

		r.Post("/orders", s.handlePlaceOrder)
		r.Get("/orders", s.handleOrders)
		r.Delete("/orders/{id}", s.handleCancelOrder)

		r.Post("/challenges", s.handleNewChallenge)
		r.Post("/challenges/solve", s.handleSolveChallenge)

		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"instruments": snap.Instruments})
}

func (s *Server) handleInstrument(w http.ResponseWriter, r *http.Request) {
	in, err := s.svc.Instrument(r.Context(), strings.ToUpper(chi.URLParam(r, "symbol")))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Owner string `json:"owner"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || strings.TrimSpace(in.Owner) == "" {
		writeError(w, http.StatusBadRequest, "owner is required")
		return
	}
	pv, err := s.svc.CreatePortfolio(r.Context(), strings.TrimSpace(in.Owner))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pv)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	pv, err := s.svc.Portfolio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Owner      string  `json:"owner"`
		Symbol     string  `json:"symbol"`
		Side       string  `json:"side"`
		Quantity   int64   `json:"quantity"`
		Price      float64 `json:"price"`
		Leverage   float64 `json:"leverage"`
		StopLoss   float64 `json:"stop_loss"`
		TakeProfit float64 `json:"take_profit"`
		Strategy   string  `json:"strategy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, ok := exchange.ParseSide(strings.ToUpper(strings.TrimSpace(in.Side)))
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be BUY, SELL, SHORT or COVER")
		return
	}
	o, err := s.svc.PlaceOrder(r.Context(), exchange.OrderRequest{
		Owner:      in.Owner,
		Symbol:     strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Side:       side,
		Quantity:   in.Quantity,
		Price:      in.Price,
		Leverage:   in.Leverage,
		StopLoss:   in.StopLoss,
		TakeProfit: in.TakeProfit,
		Strategy:   in.Strategy,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner query parameter is required")
		return
	}
	orders, err := s.svc.Orders(r.Context(), owner)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.CancelOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleNewChallenge(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Owner string `json:"owner"`
		Type  string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, ok := challenge.ParseType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown challenge type")
		return
	}
	view, err := s.svc.NewChallenge(r.Context(), in.Owner, t)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleSolveChallenge(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Owner    string `json:"owner"`
		Type     string `json:"type"`
		Solution string `json:"solution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, ok := challenge.ParseType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown challenge type")
		return
	}
	bonus, err := s.svc.SolveChallenge(r.Context(), in.Owner, t, in.Solution)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bonus)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	n := 50
	if v := r.URL.Query().Get("n"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": s.svc.RecentEvents(n)})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	s.hub.serve(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

// writeEngineError maps engine rejections onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exchange.ErrUnknownInstrument),
		errors.Is(err, exchange.ErrUnknownPortfolio),
		errors.Is(err, exchange.ErrOrderNotFound),
		errors.Is(err, exchange.ErrChallengeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, exchange.ErrInsufficientFunds),
		errors.Is(err, exchange.ErrInsufficientHoldings),
		errors.Is(err, exchange.ErrInsufficientShortPosition),
		errors.Is(err, exchange.ErrInvalidSolution):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, exchange.ErrDifficultyMismatch):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, exchange.ErrChallengeExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, exchange.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
