package main

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/elys-network/wamm/internal/config"
	"github.com/elys-network/wamm/internal/oracle"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/vault"
)

func staticConfig() *config.AppConfig {
	return &config.AppConfig{
		PoolDenoms: []string{"uatom", "uosmo"},
		Pool:       config.DefaultPoolParameters,
		OracleMode: config.OracleModeStatic,
		StaticPrices: map[string]sdkmath.Int{
			"uatom": sdkmath.NewInt(1_000_000_000),
			"uosmo": sdkmath.NewInt(50_000_000),
		},
	}
}

func TestBuildFeeds(t *testing.T) {
	feeds, err := buildFeeds(staticConfig())
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	price, err := feeds[1].LatestPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "50000000", price.String())

	httpCfg := staticConfig()
	httpCfg.OracleMode = config.OracleModeHTTP
	httpCfg.OracleHTTPURL = "http://prices.local"
	httpCfg.OracleMaxAge = 5 * time.Second
	feeds, err = buildFeeds(httpCfg)
	require.NoError(t, err)
	httpFeed, ok := feeds[0].(*oracle.HTTPFeed)
	require.True(t, ok)
	assert.Equal(t, "uatom", httpFeed.Denom)
	assert.Equal(t, 5*time.Second, httpFeed.MaxAge)

	missing := staticConfig()
	delete(missing.StaticPrices, "uosmo")
	_, err = buildFeeds(missing)
	assert.Error(t, err)
}

func TestBuildPoolStateFreshAndRestored(t *testing.T) {
	cfg := staticConfig()
	feeds, err := buildFeeds(cfg)
	require.NoError(t, err)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	fresh, err := buildPoolState(cfg, feeds, nil, now)
	require.NoError(t, err)
	assert.True(t, fresh.TotalShares.IsZero())
	assert.Equal(t, now, fresh.LastRebalance)

	fresh.Assets[0].Reserve = sdkmath.NewInt(700)
	fresh.Assets[1].Reserve = sdkmath.NewInt(300)
	fresh.TotalShares = sdkmath.NewInt(10)
	fresh.Shares["alice"] = sdkmath.NewInt(10)
	snap := fresh.Snapshot()

	restored, err := buildPoolState(cfg, feeds, &snap, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "700", restored.Assets[0].Reserve.String())
	assert.Equal(t, "10", restored.SharesOf("alice").String())
	assert.Equal(t, now, restored.LastRebalance)

	other := staticConfig()
	other.PoolDenoms = []string{"uosmo", "uatom"}
	_, err = buildPoolState(other, feeds, &snap, now)
	assert.Error(t, err)
}

func TestSeedLedger(t *testing.T) {
	cfg := staticConfig()
	feeds, err := buildFeeds(cfg)
	require.NoError(t, err)
	st, err := buildPoolState(cfg, feeds, nil, time.Now())
	require.NoError(t, err)
	st.Assets[0].Reserve = sdkmath.NewInt(40)

	ledger := vault.NewLedger()
	require.NoError(t, seedLedger(ledger, st, []string{"alice=100uatom,5uosmo", " bob = 7uosmo"}))
	assert.Equal(t, "40uatom", ledger.Balance(vault.PoolAccount).String())
	assert.Equal(t, "100uatom,5uosmo", ledger.Balance("alice").String())
	assert.Equal(t, "7uosmo", ledger.Balance("bob").String())

	for _, bad := range []string{"alice", "=5uatom", "alice=lots"} {
		assert.Error(t, seedLedger(vault.NewLedger(), st, []string{bad}), bad)
	}
}

func TestHealthSinkTracksPause(t *testing.T) {
	server := health.NewServer()
	sink := &healthSink{server: server}
	ctx := context.Background()

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := server.Check(ctx, &healthpb.HealthCheckRequest{})
		require.NoError(t, err)
		return resp.Status
	}

	require.NoError(t, sink.Record(ctx, types.Event{Type: types.EventPoolPaused}, types.PoolSnapshot{Paused: true}))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status())

	require.NoError(t, sink.Record(ctx, types.Event{Type: types.EventPoolUnpaused}, types.PoolSnapshot{Paused: false}))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status())
}
