package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/elys-network/wamm/internal/amm"
	"github.com/elys-network/wamm/internal/config"
	"github.com/elys-network/wamm/internal/logger"
	"github.com/elys-network/wamm/internal/metrics"
	"github.com/elys-network/wamm/internal/oracle"
	"github.com/elys-network/wamm/internal/pool"
	"github.com/elys-network/wamm/internal/state"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/vault"
	"github.com/elys-network/wamm/internal/web"
)

const (
	KEEPER_INTERVAL  = time.Minute
	SHUTDOWN_TIMEOUT = 10 * time.Second
)

var (
	keeperInterval time.Duration
	credits        []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pool with its JSON API and gRPC health service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&keeperInterval, "keeper-interval", KEEPER_INTERVAL, "how often the keeper checks whether a rebalance is due")
	serveCmd.Flags().StringArrayVar(&credits, "credit", nil, "seed the in-memory ledger, e.g. --credit alice=1000uatom,500uosmo (repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// --- 1. Initialization Phase ---
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var extra []io.Writer
	if cfg.LogFile != "" {
		fileWriter, err := logger.FileWriter(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		extra = append(extra, fileWriter)
	}
	logger.Initialize(cfg.LogLevel, extra...)
	log.Info().Msg("Weighted AMM starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. Collaborators ---
	feeds, err := buildFeeds(cfg)
	if err != nil {
		return err
	}

	healthServer := health.NewServer()
	metricsSink := metrics.NewSink()
	sinks := amm.MultiSink{amm.NewLogSink(), metricsSink, &healthSink{server: healthServer}}

	var restored *types.PoolSnapshot
	if cfg.DB != nil {
		if err := state.InitDB(*cfg.DB); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			return fmt.Errorf("failed to ensure database schema: %w", err)
		}
		if restored, err = state.LoadLatestPoolSnapshot(ctx); err != nil {
			return err
		}
		sinks = append(sinks, state.NewEventStore())
	} else {
		log.Warn().Msg("DB_HOST not set, running without persistence")
	}

	st, err := buildPoolState(cfg, feeds, restored, time.Now())
	if err != nil {
		return err
	}

	ledger := vault.NewLedger()
	if err := seedLedger(ledger, st, credits); err != nil {
		return err
	}

	// --- 3. Create AMM Instance with Dependency Injection ---
	ammInstance, err := amm.NewAMM(amm.Config{State: st, Transfer: ledger, Sink: sinks})
	if err != nil {
		return fmt.Errorf("failed to create AMM instance: %w", err)
	}
	setServingStatus(healthServer, ammInstance.Paused())

	// --- 4. Start servers and keeper ---
	webServer := web.NewWebServer(cfg.WebPort, ammInstance, metricsSink.Handler())
	go func() {
		log.Info().Str("port", cfg.WebPort).Str("url", "http://localhost:"+cfg.WebPort).Msg("Starting pool API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed")
			stop()
		}
	}()

	listener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %s: %w", cfg.GRPCPort, err)
	}
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("Starting gRPC health service")
		if err := grpcServer.Serve(listener); err != nil {
			log.Error().Err(err).Msg("gRPC server failed")
			stop()
		}
	}()

	go ammInstance.RunKeeper(ctx, keeperInterval)

	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Web server shutdown failed")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("Weighted AMM stopped")
	return nil
}

// buildFeeds creates one price feed per configured denom, in pool order.
func buildFeeds(cfg *config.AppConfig) ([]oracle.Feed, error) {
	feeds := make([]oracle.Feed, len(cfg.PoolDenoms))
	for i, denom := range cfg.PoolDenoms {
		switch cfg.OracleMode {
		case config.OracleModeStatic:
			price, ok := cfg.StaticPrices[denom]
			if !ok {
				return nil, fmt.Errorf("no static price for %s", denom)
			}
			feeds[i] = oracle.NewStaticFeed(price)
		case config.OracleModeHTTP:
			feed := oracle.NewHTTPFeed(cfg.OracleHTTPURL, denom)
			feed.MaxAge = cfg.OracleMaxAge
			feeds[i] = feed
		default:
			return nil, fmt.Errorf("unsupported oracle mode %q", cfg.OracleMode)
		}
	}
	return feeds, nil
}

// buildPoolState restores the persisted pool when there is one, otherwise creates a fresh pool.
func buildPoolState(cfg *config.AppConfig, feeds []oracle.Feed, restored *types.PoolSnapshot, now time.Time) (*pool.State, error) {
	if restored != nil {
		st, err := pool.Restore(*restored, cfg.PoolDenoms, feeds)
		if err != nil {
			return nil, fmt.Errorf("failed to restore persisted pool: %w", err)
		}
		log.Info().
			Str("totalShares", st.TotalShares.String()).
			Time("lastRebalance", st.LastRebalance).
			Msg("Pool restored from latest snapshot")
		return st, nil
	}

	st, err := pool.NewState(cfg.PoolDenoms, feeds, cfg.Pool, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	log.Info().Strs("denoms", cfg.PoolDenoms).Msg("Created fresh pool")
	return st, nil
}

// seedLedger gives custody of the pool's reserves to the pool account and
// applies each "account=coins" credit.
func seedLedger(ledger *vault.Ledger, st *pool.State, credits []string) error {
	if reserves := st.Coins(st.Reserves()); !reserves.IsZero() {
		if err := ledger.Credit(vault.PoolAccount, reserves); err != nil {
			return err
		}
	}
	for _, entry := range credits {
		account, raw, found := strings.Cut(entry, "=")
		account = strings.TrimSpace(account)
		if !found || account == "" {
			return fmt.Errorf("malformed credit %q, expected account=coins", entry)
		}
		coins, err := sdk.ParseCoinsNormalized(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("malformed credit %q: %w", entry, err)
		}
		if err := ledger.Credit(account, coins); err != nil {
			return err
		}
		log.Info().Str("account", account).Str("coins", coins.String()).Msg("Ledger credited")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// healthSink reports NOT_SERVING over gRPC health while the pool is paused.
type healthSink struct {
	server *health.Server
}

func (h *healthSink) Record(_ context.Context, _ types.Event, snapshot types.PoolSnapshot) error {
	setServingStatus(h.server, snapshot.Paused)
	return nil
}

func setServingStatus(server *health.Server, paused bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if paused {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	server.SetServingStatus("", status)
}
