package jsonrpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerledger/gocertd/internal/auth"
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/core/tx"
	"github.com/enerledger/gocertd/internal/events"
	"github.com/enerledger/gocertd/internal/storage/history"
)

func newTestServer(t *testing.T) (*httptest.Server, *tx.Engine) {
	t.Helper()

	engine := tx.NewEngine(ledger.NewStore(), auth.NewSingleOwner("registry"))
	handler := NewHandler(engine, "test")

	hist, err := history.Open("sqlite", filepath.Join(t.TempDir(), "history.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })
	handler.SetHistory(hist)

	publisher := events.NewPublisher(16)
	handler.SetSubscriberCounter(publisher)

	srv := httptest.NewServer(NewServer("", handler))
	t.Cleanup(srv.Close)
	return srv, engine
}

func call(t *testing.T, srv *httptest.Server, method string, params any) Response {
	t.Helper()

	body, err := json.Marshal(Request{JSONRPC: "2.0", Method: method, Params: mustRaw(t, params), ID: 1})
	require.NoError(t, err)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func mustRaw(t *testing.T, params any) json.RawMessage {
	t.Helper()
	if params == nil {
		return nil
	}
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return raw
}

func submitResult(t *testing.T, resp Response) SubmitResult {
	t.Helper()
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var result SubmitResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

func TestTransactionMethods(t *testing.T) {
	srv, engine := newTestServer(t)

	result := submitResult(t, call(t, srv, "create_certificate", map[string]any{
		"account": "registry", "certificate_id": "c1", "owner_id": "S", "energy_amount": 100,
	}))
	assert.Equal(t, "SUCCESS", result.Result)
	assert.True(t, result.Applied)
	assert.Equal(t, "certificate created", result.Status)

	cert, ok := engine.Store().Certificate("c1")
	require.True(t, ok)
	assert.Equal(t, uint64(100), cert.EnergyAmount)

	// Unauthorized account on a privileged method.
	result = submitResult(t, call(t, srv, "create_wallet", map[string]any{
		"account": "stranger", "wallet_id": "B",
	}))
	assert.Equal(t, "NOT_AUTHORIZED", result.Result)
	assert.False(t, result.Applied)

	// Unprivileged method needs no account.
	result = submitResult(t, call(t, srv, "auto_credit", map[string]any{
		"wallet_id": "B", "amount": 500,
	}))
	assert.Equal(t, "SUCCESS", result.Result)
}

func TestFullTradeOverRPC(t *testing.T) {
	srv, engine := newTestServer(t)

	for _, params := range []map[string]any{
		{"account": "registry", "certificate_id": "c1", "owner_id": "S", "energy_amount": 100},
	} {
		result := submitResult(t, call(t, srv, "create_certificate", params))
		require.Equal(t, "SUCCESS", result.Result)
	}
	require.Equal(t, "SUCCESS", submitResult(t, call(t, srv, "create_wallet", map[string]any{
		"account": "registry", "wallet_id": "B", "currency": 500,
	})).Result)
	require.Equal(t, "SUCCESS", submitResult(t, call(t, srv, "create_wallet", map[string]any{
		"account": "registry", "wallet_id": "S",
	})).Result)
	require.Equal(t, "SUCCESS", submitResult(t, call(t, srv, "create_sell_order", map[string]any{
		"order_id": "order1", "price": 200, "energy_amount": 100,
		"seller_wallet": "S", "certificate_id": "c1",
	})).Result)

	result := submitResult(t, call(t, srv, "settle", map[string]any{
		"order_id": "order1", "buyer_wallet": "B",
	}))
	assert.Equal(t, "SUCCESS", result.Result)
	assert.Equal(t, "trade executed", result.Status)

	buyer, _ := engine.Store().Wallet("B")
	assert.Equal(t, uint64(300), buyer.Currency)
	assert.Equal(t, uint64(100), buyer.Energy)

	// Settling again is refused with a stable token, not an RPC error.
	result = submitResult(t, call(t, srv, "settle", map[string]any{
		"order_id": "order1", "buyer_wallet": "B",
	}))
	assert.Equal(t, "ALREADY_CONSUMED", result.Result)
	assert.False(t, result.Applied)
}

func TestQueryMethods(t *testing.T) {
	srv, _ := newTestServer(t)

	require.Equal(t, "SUCCESS", submitResult(t, call(t, srv, "create_certificate", map[string]any{
		"account": "registry", "certificate_id": "c1", "owner_id": "S", "energy_amount": 42,
	})).Result)

	resp := call(t, srv, "certificate_info", map[string]any{"certificate_id": "c1"})
	require.Nil(t, resp.Error)
	raw, _ := json.Marshal(resp.Result)
	var cert ledger.Certificate
	require.NoError(t, json.Unmarshal(raw, &cert))
	assert.Equal(t, uint64(42), cert.EnergyAmount)

	resp = call(t, srv, "certificate_info", map[string]any{"certificate_id": "missing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)

	resp = call(t, srv, "wallet_info", map[string]any{"wallet_id": "missing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)

	resp = call(t, srv, "order_info", map[string]any{"order_id": "missing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestTradeInfoNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := call(t, srv, "trade_info", map[string]any{"order_id": "missing"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestServerInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := call(t, srv, "server_info", nil)
	require.Nil(t, resp.Error)

	info, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test", info["version"])
	assert.Contains(t, info, "total_currency")
	assert.Contains(t, info, "subscribers")
	assert.Contains(t, info, "methods")
}

func TestMethodNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := call(t, srv, "no_such_method", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
}

func TestParseError(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.NotNil(t, decoded.Error)
	assert.Equal(t, CodeParseError, decoded.Error.Code)
}

func TestInvalidParams(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := call(t, srv, "create_certificate", []int{1, 2, 3})
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestGetIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
