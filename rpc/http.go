package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lockvault/native/lockup"
	"lockvault/observability/metrics"
)

const jsonRPCVersion = "2.0"

const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeModulePaused   = -32002
)

// Server exposes the lockup engine over a JSON-RPC style HTTP surface. All
// mutating calls are serialised through one mutex: the engine is
// single-writer and the global supply counters are shared across accounts.
type Server struct {
	mu      sync.Mutex
	engine  *lockup.Engine
	logger  *slog.Logger
	metrics *metrics.LockupMetrics
}

// NewServer wires the engine behind the HTTP surface.
func NewServer(engine *lockup.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  engine,
		logger:  logger,
		metrics: metrics.Lockup(),
	}
}

// Router builds the HTTP handler: the RPC endpoint, a health probe and the
// prometheus scrape endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/rpc", s.handleRPC)
	return r
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var req RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "invalid request body", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	handler(w, r, &req)
}

type handlerFunc func(http.ResponseWriter, *http.Request, *RPCRequest)

func (s *Server) methods() map[string]handlerFunc {
	return map[string]handlerFunc{
		"lockup_stake":                s.handleStake,
		"lockup_claimRewards":         s.handleClaimRewards,
		"lockup_claimAllRewards":      s.handleClaimAllRewards,
		"lockup_withdrawExpiredLocks": s.handleWithdrawExpiredLocks,
		"lockup_relockExpiredLocks":   s.handleRelockExpiredLocks,
		"lockup_claimBounty":          s.handleClaimBounty,
		"lockup_claimAndCompound":     s.handleClaimAndCompound,
		"lockup_trackUnseenRewards":   s.handleTrackUnseenRewards,
		"lockup_notifyReward":         s.handleNotifyReward,
		"lockup_setDefaultLockIndex":  s.handleSetDefaultLockIndex,
		"lockup_setAutoRelock":        s.handleSetAutoRelock,
		"lockup_getUserLocks":         s.handleGetUserLocks,
		"lockup_getUserBalances":      s.handleGetUserBalances,
		"lockup_getClaimableRewards":  s.handleGetClaimableRewards,
		"lockup_getLockedSupply":      s.handleGetLockedSupply,
		"lockup_getRewardData":        s.handleGetRewardData,
		"lockup_getRewardTokens":      s.handleGetRewardTokens,
		"lockup_getDefaultLockIndex":  s.handleGetDefaultLockIndex,
	}
}

// observe records the outcome of a mutating operation and refreshes the
// supply gauges.
func (s *Server) observe(op string, err error) {
	s.metrics.ObserveOperation(op, err)
	if err != nil {
		s.logger.Warn("operation rejected", "op", op, "error", err)
		return
	}
	locked, lockedErr := s.engine.GetLockedSupply()
	weighted, weightedErr := s.engine.GetLockedSupplyWithMultiplier()
	if lockedErr == nil && weightedErr == nil {
		s.metrics.SetSupply(locked, weighted)
	}
}
