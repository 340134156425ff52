package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/elys-network/wamm/internal/oracle"
	"github.com/elys-network/wamm/internal/state"
	"github.com/elys-network/wamm/internal/types"
	"github.com/elys-network/wamm/internal/utils"
)

type depositRequest struct {
	Account string   `json:"account"`
	Amounts []string `json:"amounts"`
}

type withdrawRequest struct {
	Account string `json:"account"`
	Shares  string `json:"shares"`
}

type swapRequest struct {
	Trader       string `json:"trader"`
	In           int    `json:"in"`
	Out          int    `json:"out"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out"`
}

type intervalRequest struct {
	Interval string `json:"interval"` // Go duration, e.g. "24h"
}

// handleGetPool returns the full pool snapshot
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	ws.writeJSONResponse(w, http.StatusOK, ws.pool.Snapshot())
}

// handleGetQuote prices a swap without executing it: /api/quote?in=0&out=1&amount=100
func (ws *WebServer) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	in, out, err := pairFromQuery(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	amountIn, err := utils.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount: "+err.Error())
		return
	}

	quote, err := ws.pool.Quote(r.Context(), in, out, amountIn)
	if err != nil {
		ws.writePoolError(w, "quote", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, quote)
}

// handleGetFee returns the dynamic fee for a pair: /api/fee?in=0&out=1
func (ws *WebServer) handleGetFee(w http.ResponseWriter, r *http.Request) {
	in, out, err := pairFromQuery(r)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	feeBps, err := ws.pool.DynamicFee(r.Context(), in, out)
	if err != nil {
		ws.writePoolError(w, "dynamic fee", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"in":      in,
		"out":     out,
		"fee_bps": feeBps,
	})
}

// handleGetPrice returns the oracle price of one asset
func (ws *WebServer) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid asset index")
		return
	}

	price, err := ws.pool.Price(r.Context(), index)
	if err != nil {
		ws.writePoolError(w, "price", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"index":    index,
		"price":    price,
		"decimals": oracle.PriceExponent,
		"scale":    oracle.PriceDecimals,
	})
}

// handleGetShares returns one account's share balance
func (ws *WebServer) handleGetShares(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"shares":  ws.pool.SharesOf(account),
	})
}

// handleGetEvents returns persisted events: /api/events?limit=20&type=SWAP_EXECUTED
func (ws *WebServer) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := limitFromQuery(r)
	eventType := types.EventType(r.URL.Query().Get("type"))

	events, err := state.GetRecentEvents(r.Context(), limit, eventType)
	if err != nil {
		ws.writeStoreError(w, "events", err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
		"limit":  limit,
	})
}

// handleGetFeeHistory returns persisted fee schedule changes
func (ws *WebServer) handleGetFeeHistory(w http.ResponseWriter, r *http.Request) {
	limit := limitFromQuery(r)

	records, err := state.GetFeeHistory(r.Context(), limit)
	if err != nil {
		ws.writeStoreError(w, "fee history", err)
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"current": ws.pool.Snapshot().Fees,
		"history": records,
		"count":   len(records),
	})
}

func (ws *WebServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	amounts, err := utils.ParseAmounts(req.Amounts)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amounts: "+err.Error())
		return
	}

	result, err := ws.pool.Deposit(r.Context(), req.Account, amounts)
	if err != nil {
		ws.writePoolError(w, "deposit", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, result)
}

func (ws *WebServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	shares, err := utils.ParseAmount(req.Shares)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid shares: "+err.Error())
		return
	}

	result, err := ws.pool.Withdraw(r.Context(), req.Account, shares)
	if err != nil {
		ws.writePoolError(w, "withdraw", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, result)
}

func (ws *WebServer) handleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	amountIn, err := utils.ParseAmount(req.AmountIn)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount_in: "+err.Error())
		return
	}
	minAmountOut := sdkmath.ZeroInt()
	if req.MinAmountOut != "" {
		if minAmountOut, err = utils.ParseAmount(req.MinAmountOut); err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid min_amount_out: "+err.Error())
			return
		}
	}

	result, err := ws.pool.Swap(r.Context(), req.Trader, req.In, req.Out, amountIn, minAmountOut)
	if err != nil {
		ws.writePoolError(w, "swap", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, result)
}

func (ws *WebServer) handleRebalance(w http.ResponseWriter, r *http.Request) {
	weights, err := ws.pool.Rebalance(r.Context())
	if err != nil {
		ws.writePoolError(w, "rebalance", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"weights": weights,
	})
}

func (ws *WebServer) handleSetFees(w http.ResponseWriter, r *http.Request) {
	var fees types.FeeParameters
	if !ws.decodeBody(w, r, &fees) {
		return
	}
	if err := ws.pool.SetFeeParams(r.Context(), fees); err != nil {
		ws.writePoolError(w, "set fee parameters", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"fees": ws.pool.Snapshot().Fees,
	})
}

func (ws *WebServer) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if !ws.decodeBody(w, r, &req) {
		return
	}
	interval, err := time.ParseDuration(req.Interval)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid interval: "+err.Error())
		return
	}
	if err := ws.pool.SetRebalanceInterval(r.Context(), interval); err != nil {
		ws.writePoolError(w, "set rebalance interval", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"rebalance_interval": interval.String(),
	})
}

func (ws *WebServer) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := ws.pool.Pause(r.Context()); err != nil {
		ws.writePoolError(w, "pause", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"paused": ws.pool.Paused()})
}

func (ws *WebServer) handleUnpause(w http.ResponseWriter, r *http.Request) {
	if err := ws.pool.Unpause(r.Context()); err != nil {
		ws.writePoolError(w, "unpause", err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{"paused": ws.pool.Paused()})
}

func pairFromQuery(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	in, err := strconv.Atoi(q.Get("in"))
	if err != nil {
		return 0, 0, errors.New("invalid input asset index")
	}
	out, err := strconv.Atoi(q.Get("out"))
	if err != nil {
		return 0, 0, errors.New("invalid output asset index")
	}
	return in, out, nil
}

func limitFromQuery(r *http.Request) int {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}
	return limit
}

// statusForError maps a pool error category to an HTTP status code.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrSlippage):
		return http.StatusConflict
	case errors.Is(err, types.ErrSolvency):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrTiming):
		return http.StatusTooEarly
	case errors.Is(err, types.ErrExternalCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (ws *WebServer) writePoolError(w http.ResponseWriter, operation string, err error) {
	status := statusForError(err)
	event := ws.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = ws.logger.Error()
	}
	event.Err(err).Str("operation", operation).Int("status", status).Msg("Pool operation failed")
	ws.writeErrorResponse(w, status, err.Error())
}

func (ws *WebServer) writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, state.ErrDBNotInitialized) {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}
	ws.logger.Error().Err(err).Msgf("Failed to get %s", what)
	ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve "+what)
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func (ws *WebServer) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		ws.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}
