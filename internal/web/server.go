package web

import (
	"context"
	"net/http"
	"runtime"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/elys-network/wamm/internal/amm"
	"github.com/elys-network/wamm/internal/logger"
	"github.com/elys-network/wamm/internal/state"
	"github.com/elys-network/wamm/internal/types"
)

// PoolService is the subset of the AMM facade the API serves.
type PoolService interface {
	Snapshot() types.PoolSnapshot
	Paused() bool
	SharesOf(account string) sdkmath.Int
	Price(ctx context.Context, i int) (sdkmath.Int, error)
	DynamicFee(ctx context.Context, in, out int) (uint32, error)
	Quote(ctx context.Context, in, out int, amountIn sdkmath.Int) (*amm.SwapQuote, error)
	RebalanceDue() bool

	Deposit(ctx context.Context, depositor string, amounts []sdkmath.Int) (*amm.DepositResult, error)
	Withdraw(ctx context.Context, depositor string, shares sdkmath.Int) (*amm.WithdrawResult, error)
	Swap(ctx context.Context, trader string, in, out int, amountIn, minAmountOut sdkmath.Int) (*amm.SwapResult, error)
	Rebalance(ctx context.Context) ([]sdkmath.Int, error)
	SetFeeParams(ctx context.Context, fees types.FeeParameters) error
	SetRebalanceInterval(ctx context.Context, interval time.Duration) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
}

// WebServer exposes the pool over a JSON HTTP API
type WebServer struct {
	router  *mux.Router
	port    string
	pool    PoolService
	metrics http.Handler
	server  *http.Server
	started time.Time
	logger  zerolog.Logger
}

// NewWebServer creates a new web server instance. metrics may be nil.
func NewWebServer(port string, pool PoolService, metrics http.Handler) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:  mux.NewRouter(),
		port:    port,
		pool:    pool,
		metrics: metrics,
		started: time.Now(),
		logger:  logger.GetForComponent("web_server"),
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	if ws.metrics != nil {
		ws.router.Handle("/metrics", ws.metrics).Methods("GET")
	}

	// Read-only endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pool", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/quote", ws.handleGetQuote).Methods("GET")
	api.HandleFunc("/fee", ws.handleGetFee).Methods("GET")
	api.HandleFunc("/price/{index}", ws.handleGetPrice).Methods("GET")
	api.HandleFunc("/shares/{account}", ws.handleGetShares).Methods("GET")
	api.HandleFunc("/events", ws.handleGetEvents).Methods("GET")
	api.HandleFunc("/fees/history", ws.handleGetFeeHistory).Methods("GET")

	// Pool operations
	api.HandleFunc("/deposit", ws.handleDeposit).Methods("POST")
	api.HandleFunc("/withdraw", ws.handleWithdraw).Methods("POST")
	api.HandleFunc("/swap", ws.handleSwap).Methods("POST")
	api.HandleFunc("/rebalance", ws.handleRebalance).Methods("POST")

	// Admin
	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/fees", ws.handleSetFees).Methods("POST")
	admin.HandleFunc("/interval", ws.handleSetInterval).Methods("POST")
	admin.HandleFunc("/pause", ws.handlePause).Methods("POST")
	admin.HandleFunc("/unpause", ws.handleUnpause).Methods("POST")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Handler returns the routed handler, for tests and embedding.
func (ws *WebServer) Handler() http.Handler {
	return ws.router
}

// Start starts the web server and blocks until it stops.
func (ws *WebServer) Start() error {
	ws.logger.Info().Str("port", ws.port).Msg("Starting web server")

	ws.server = &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	err := ws.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (ws *WebServer) Shutdown(ctx context.Context) error {
	if ws.server == nil {
		return nil
	}
	ws.logger.Info().Msg("Shutting down web server")
	return ws.server.Shutdown(ctx)
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// Persistence is optional; only a configured but unreachable database degrades health.
	persistence := "disabled"
	hasErrors := false
	if state.DB != nil {
		persistence = "healthy"
		if err := state.CheckDBConnection(r.Context()); err != nil {
			ws.logger.Warn().Err(err).Msg("Database health check failed")
			persistence = "unreachable"
			hasErrors = true
		}
	}

	overallStatus := "OK"
	if hasErrors {
		overallStatus = "DEGRADED"
	}

	snapshot := ws.pool.Snapshot()
	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
			"uptime_seconds":   int64(time.Since(ws.started).Seconds()),
		},
		"component": map[string]interface{}{
			"name":    "wamm-weighted-oracle-amm",
			"version": "1.0.0",
		},
		"pool_status": map[string]interface{}{
			"paused":         snapshot.Paused,
			"total_shares":   snapshot.TotalShares,
			"last_rebalance": snapshot.LastRebalance,
			"rebalance_due":  ws.pool.RebalanceDue(),
			"persistence":    persistence,
		},
	}

	statusCode := http.StatusOK
	if hasErrors {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}
