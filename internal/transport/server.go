// Package transport implements the façade that parses ingress requests,
// validates them, and enqueues the corresponding Operation onto the
// dispatch queue; and the streaming handlers that serve RFQ and depth
// reads from the snapshot manager's secondary engine.
package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/orderflow/matchbook/internal/dispatch"
	"github.com/orderflow/matchbook/internal/matching"
	"github.com/orderflow/matchbook/internal/merrors"
	"github.com/orderflow/matchbook/internal/snapshot"
)

// Config controls rate limiting and streaming cadence.
type Config struct {
	RateLimitPerSecond int
	RateLimitBurst     int
	QuoteCadence       time.Duration
	MaxQuoteCount      int
}

// Server wires gorilla/mux routes to the dispatch queue and the snapshot
// manager's secondary engine.
type Server struct {
	router     *mux.Router
	queue      *dispatch.Queue
	manager    *snapshot.Manager
	validate   *validator.Validate
	limiters   map[string]*rate.Limiter
	limitersMu sync.Mutex
	logger     *zap.Logger
	cfg        Config
}

// NewServer builds the façade's router. Call Router() to obtain the
// http.Handler to pass to an http.Server.
func NewServer(queue *dispatch.Queue, manager *snapshot.Manager, logger *zap.Logger, cfg Config) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		queue:    queue,
		manager:  manager,
		validate: validator.New(),
		limiters: make(map[string]*rate.Limiter),
		logger:   logger,
		cfg:      cfg,
	}
	s.routes()
	return s
}

// limiterFor returns the per-client token bucket for key, creating it
// with the configured rate and burst on first use.
func (s *Server) limiterFor(key string) *rate.Limiter {
	s.limitersMu.Lock()
	defer s.limitersMu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerSecond), s.cfg.RateLimitBurst)
		s.limiters[key] = l
	}
	return l
}

// Router returns the http.Handler serving every façade route.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.rateLimitMiddleware)
	s.router.HandleFunc("/v1/orders/limit", s.handlePlaceLimit).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/orders/market", s.handlePlaceMarket).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/orders/{id}/modify", s.handleModify).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/orders/{id}", s.handleCancel).Methods(http.MethodDelete)
	s.router.HandleFunc("/v1/stream/rfq", s.handleRFQStream).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/stream/orderbook", s.handleOrderbookStream).Methods(http.MethodGet)
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := s.limiterFor(clientIP(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.cfg.RateLimitBurst))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (s *Server) handlePlaceLimit(w http.ResponseWriter, r *http.Request) {
	var req PlaceLimitRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := matching.NewIDFromUUID(uuid.New())
	op := matching.Operation{
		Kind: matching.OpLimit,
		Limit: matching.LimitOrder{
			ID: id, Price: req.Price, Quantity: req.Quantity, Side: side,
		},
	}
	s.enqueue(w, op)
}

func (s *Server) handlePlaceMarket(w http.ResponseWriter, r *http.Request) {
	var req PlaceMarketRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := matching.NewIDFromUUID(uuid.New())
	op := matching.Operation{
		Kind:   matching.OpMarket,
		Market: matching.MarketOrder{ID: id, Quantity: req.Quantity, Side: side},
	}
	s.enqueue(w, op)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req ModifyRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}
	id, err := matching.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	op := matching.Operation{
		Kind:  matching.OpModify,
		Limit: matching.LimitOrder{ID: id, Price: req.Price, Quantity: req.Quantity, Side: side},
	}
	s.enqueue(w, op)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := matching.ParseID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	op := matching.Operation{Kind: matching.OpCancel, Cancel: id}
	s.enqueue(w, op)
}

func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) enqueue(w http.ResponseWriter, op matching.Operation) {
	if err := s.queue.TrySend(op); err != nil {
		if merrors.Is(err, merrors.CodeQueueFull) {
			writeError(w, http.StatusServiceUnavailable, "dispatch queue full")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AckResponse{Status: "ok"})
}

func parseSide(s string) (matching.Side, error) {
	switch s {
	case "bid":
		return matching.Bid, nil
	case "ask":
		return matching.Ask, nil
	default:
		return 0, merrors.New(merrors.CodeValidation, "side must be bid or ask")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
