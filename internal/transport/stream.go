package transport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/orderflow/matchbook/internal/matching"
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleRFQStream upgrades to a WebSocket and re-evaluates the RFQ named by
// the side and quantity query parameters against the secondary engine on
// every tick, pushing the resulting RfqStatus as a JSON frame. It stops
// after cfg.MaxQuoteCount frames (0 means unbounded) or client disconnect.
func (s *Server) handleRFQStream(w http.ResponseWriter, r *http.Request) {
	side, err := parseSide(r.URL.Query().Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quantity, err := strconv.ParseUint(r.URL.Query().Get("quantity"), 10, 64)
	if err != nil || quantity == 0 {
		writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("rfq stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	order := matching.MarketOrder{Quantity: quantity, Side: side}
	s.runQuoteLoop(r, conn, func() interface{} {
		return s.manager.Secondary().RFQ(order)
	})
}

// handleOrderbookStream pushes an OrderbookData snapshot (depth plus the
// cached top-of-book and last trade price) of the secondary engine at the
// configured cadence. The levels query parameter defaults to 10.
func (s *Server) handleOrderbookStream(w http.ResponseWriter, r *http.Request) {
	levels := 10
	if raw := r.URL.Query().Get("levels"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "levels must be a positive integer")
			return
		}
		levels = n
	}

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("orderbook stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.runQuoteLoop(r, conn, func() interface{} {
		return s.manager.Secondary().OrderbookSnapshot(levels)
	})
}

// runQuoteLoop drives a bounded, ticked push loop common to every stream
// handler. It watches the client's close frames on a background goroutine
// so a disconnect is noticed even while the write side is idle between
// ticks.
func (s *Server) runQuoteLoop(r *http.Request, conn *websocket.Conn, next func() interface{}) {
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	cadence := s.cfg.QuoteCadence
	if cadence <= 0 {
		cadence = time.Second
	}
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	sent := 0
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			if err := conn.WriteJSON(next()); err != nil {
				return
			}
			sent++
			if s.cfg.MaxQuoteCount > 0 && sent >= s.cfg.MaxQuoteCount {
				return
			}
		}
	}
}
