package api

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/crossbook/pkg/app/node"
	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/events"
	"github.com/uhyunpark/crossbook/pkg/protocol"
	"github.com/uhyunpark/crossbook/pkg/report"
)

const (
	defaultFillLimit = 50
	maxFillLimit     = 1000

	maxInstructionBytes = 4 << 10
)

// Server handles REST API and WebSocket connections
type Server struct {
	app            *node.App
	router         *mux.Router
	hub            *Hub
	log            *zap.SugaredLogger
	allowedOrigins []string
}

// NewServer creates a new API server
func NewServer(app *node.App, allowedOrigins []string, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{
		app:            app,
		router:         mux.NewRouter(),
		hub:            NewHub(logger),
		log:            logger,
		allowedOrigins: allowedOrigins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Instruction submission
	api.HandleFunc("/orders", s.handleNewOrder).Methods("POST")
	api.HandleFunc("/orders/modify", s.handleModifyOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/instructions", s.handleRawInstruction).Methods("POST")

	// Book and ledger
	api.HandleFunc("/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/book/{symbol}", s.handleGetBook).Methods("GET")
	api.HandleFunc("/firms", s.handleGetFirms).Methods("GET")
	api.HandleFunc("/report", s.handleGetReport).Methods("GET")
	api.HandleFunc("/fills/{symbol}", s.handleGetFills).Methods("GET")
	api.HandleFunc("/status", s.handleGetStatus).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the CORS-wrapped router.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start starts the hub and serves on addr until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()
	s.log.Infow("api_server_listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleNewOrder(w http.ResponseWriter, r *http.Request) {
	var req NewOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.FirmID == nil || req.Symbol == "" || req.Price == nil {
		respondError(w, http.StatusBadRequest, "missing field", "firmId, symbol and price are required")
		return
	}
	side, ok := parseSide(req.Side)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid side", "expected B, S, buy or sell")
		return
	}
	s.submit(w, protocol.Instruction{
		Op:     protocol.OpNew,
		Firm:   engine.FirmID(*req.FirmID),
		Symbol: req.Symbol,
		Side:   side,
		Price:  *req.Price,
	})
}

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	var req ModifyOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.FirmID == nil || req.Symbol == "" || req.Price == nil {
		respondError(w, http.StatusBadRequest, "missing field", "firmId, symbol and price are required")
		return
	}
	s.submit(w, protocol.Instruction{
		Op:     protocol.OpModify,
		Firm:   engine.FirmID(*req.FirmID),
		Symbol: req.Symbol,
		Price:  *req.Price,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.FirmID == nil || req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "missing field", "firmId and symbol are required")
		return
	}
	s.submit(w, protocol.Instruction{
		Op:     protocol.OpCancel,
		Firm:   engine.FirmID(*req.FirmID),
		Symbol: req.Symbol,
	})
}

// handleRawInstruction accepts the mempool's JSON envelope as is.
func (s *Server) handleRawInstruction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInstructionBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := s.app.PushRaw(body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid instruction", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	respondJSON(w, SubmitResponse{Status: "queued", Pending: s.app.MempoolSize()})
}

func (s *Server) submit(w http.ResponseWriter, in protocol.Instruction) {
	s.app.Submit(in)
	s.log.Debugw("instruction_queued", "op", in.Op.String(), "firm", in.Firm, "symbol", in.Symbol)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	respondJSON(w, SubmitResponse{
		Status:  "queued",
		Op:      in.Op.String(),
		Pending: s.app.MempoolSize(),
	})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	snap := s.app.Snapshot()
	respondJSON(w, BookSnapshot{
		Symbol:    symbol,
		Bids:      toEntries(snap.Bids, symbol),
		Asks:      toEntries(snap.Asks, symbol),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleGetFirms(w http.ResponseWriter, r *http.Request) {
	snap := s.app.Snapshot()
	ids := make([]uint16, len(snap.Firms))
	for i, f := range snap.Firms {
		ids[i] = uint16(f)
	}
	respondJSON(w, ids)
}

// handleGetReport returns the per-firm summary sorted by firm id. With
// ?format=text it returns the batch driver's full text report instead.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	snap := s.app.Snapshot()

	if r.URL.Query().Get("format") == "text" {
		var buf bytes.Buffer
		if err := report.Write(&buf, snap); err != nil {
			respondError(w, http.StatusInternalServerError, "render failed", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(buf.Bytes())
		return
	}

	rows := report.Summary(snap)
	out := make([]FirmSummary, len(rows))
	for i, rec := range rows {
		out[i] = FirmSummary{
			FirmID:    uint16(rec.Firm),
			LiveCount: rec.LiveCount,
			FillCount: rec.FillCount,
			NetCash:   decimal.NewFromFloat32(rec.NetCash),
		}
	}
	respondJSON(w, out)
}

func (s *Server) handleGetFills(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	limit := defaultFillLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit", v)
			return
		}
		if n > maxFillLimit {
			n = maxFillLimit
		}
		limit = n
	}

	fills, err := s.app.Store.RecentFills(symbol, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "fill tape unavailable", err.Error())
		return
	}
	out := make([]FillInfo, len(fills))
	for i, f := range fills {
		out[i] = toFillInfo(f)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	hash := s.app.StateHash()
	respondJSON(w, EngineStatus{
		Height:      s.app.Height(),
		StateHash:   "0x" + hex.EncodeToString(hash[:]),
		MempoolSize: s.app.MempoolSize(),
		Fills:       s.app.FillCount(),
		SellPricing: s.app.SellPricing().String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Methods (called from the sequencer hooks)
// ==============================

// BroadcastFills pushes fills to "fills" and "fills:<symbol>" subscribers.
func (s *Server) BroadcastFills(fills []events.FillEvent) {
	for _, f := range fills {
		update := FillUpdate{Type: "fill", FillInfo: toFillInfo(f)}
		s.hub.BroadcastToChannel("fills", update)
		s.hub.BroadcastToChannel("fills:"+f.Symbol, update)
	}
}

// BroadcastBooks pushes the current book for each symbol to "book:<symbol>".
func (s *Server) BroadcastBooks(res node.BatchResult) {
	if len(res.Symbols) == 0 {
		return
	}
	snap := s.app.Snapshot()
	now := time.Now().UnixMilli()
	for _, sym := range res.Symbols {
		s.hub.BroadcastToChannel("book:"+sym, BookUpdate{
			Type:      "book",
			Symbol:    sym,
			Bids:      toEntries(snap.Bids, sym),
			Asks:      toEntries(snap.Asks, sym),
			Timestamp: now,
			Height:    res.Height,
		})
	}
}

// ==============================
// Helper Functions
// ==============================

func parseSide(s string) (engine.Side, bool) {
	switch strings.ToLower(s) {
	case "b", "buy":
		return engine.Buy, true
	case "s", "sell":
		return engine.Sell, true
	default:
		return 0, false
	}
}

// toEntries converts orders, keeping only symbol when it is non-empty.
func toEntries(orders []engine.RestingOrder, symbol string) []OrderEntry {
	out := make([]OrderEntry, 0, len(orders))
	for _, o := range orders {
		if symbol != "" && o.Key.Symbol != symbol {
			continue
		}
		out = append(out, OrderEntry{
			FirmID: uint16(o.Key.Firm),
			Symbol: o.Key.Symbol,
			Price:  decimal.NewFromFloat32(o.Price),
		})
	}
	return out
}

func toFillInfo(f events.FillEvent) FillInfo {
	return FillInfo{
		ID:        f.ID,
		Seq:       f.Seq,
		Symbol:    f.Symbol,
		Buyer:     f.Buyer,
		Seller:    f.Seller,
		Price:     decimal.NewFromFloat32(f.Price),
		Aggressor: f.Aggressor,
		Timestamp: f.Timestamp,
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
