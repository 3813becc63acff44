package jsonrpc

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/enerledger/gocertd/internal/core/tx"
	"github.com/enerledger/gocertd/internal/storage/history"
)

// SubscriberCounter reports how many event-stream subscribers are connected.
type SubscriberCounter interface {
	SubscriberCount() int
}

// Handler dispatches JSON-RPC methods. Every registered transaction type is
// exposed under its wire name; query methods are registered alongside.
type Handler struct {
	engine      *tx.Engine
	history     *history.Store
	subscribers SubscriberCounter
	version     string
	startedAt   time.Time
	methods     map[string]func(json.RawMessage) (any, *RPCError)
}

// NewHandler builds the method table for the given engine.
func NewHandler(engine *tx.Engine, version string) *Handler {
	h := &Handler{
		engine:    engine,
		version:   version,
		startedAt: time.Now(),
		methods:   make(map[string]func(json.RawMessage) (any, *RPCError)),
	}

	for _, txType := range tx.RegisteredTypes() {
		txType := txType
		h.methods[string(txType)] = func(params json.RawMessage) (any, *RPCError) {
			return h.submit(txType, params)
		}
	}

	h.methods["certificate_info"] = h.certificateInfo
	h.methods["wallet_info"] = h.walletInfo
	h.methods["order_info"] = h.orderInfo
	h.methods["trade_info"] = h.tradeInfo
	h.methods["recent_trades"] = h.recentTrades
	h.methods["server_info"] = h.serverInfo

	return h
}

// SetHistory enables the trade-history query methods.
func (h *Handler) SetHistory(store *history.Store) { h.history = store }

// SetSubscriberCounter wires the event publisher into server_info.
func (h *Handler) SetSubscriberCounter(c SubscriberCounter) { h.subscribers = c }

// Handle dispatches a method call.
func (h *Handler) Handle(method string, params json.RawMessage) (any, *RPCError) {
	handler, ok := h.methods[method]
	if !ok {
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found", Data: method}
	}
	return handler(params)
}

// Methods returns the names of all dispatchable methods, for server_info.
func (h *Handler) Methods() []string {
	names := make([]string, 0, len(h.methods))
	for name := range h.methods {
		names = append(names, name)
	}
	return names
}

func (h *Handler) submit(txType tx.Type, params json.RawMessage) (any, *RPCError) {
	transaction, ok := tx.New(txType)
	if !ok {
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found", Data: string(txType)}
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, transaction); err != nil {
			return nil, errInvalidParams(err)
		}
	}

	applied := h.engine.Apply(transaction)
	return SubmitResult{
		Result:  applied.Result.Token(),
		Code:    int(applied.Result),
		Applied: applied.Applied,
		Status:  applied.Status,
	}, nil
}

func (h *Handler) certificateInfo(params json.RawMessage) (any, *RPCError) {
	var req struct {
		CertificateID string `json:"certificate_id"`
	}
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}

	cert, ok := h.engine.Store().Certificate(req.CertificateID)
	if !ok {
		return nil, errNotFound("certificate")
	}
	return cert, nil
}

func (h *Handler) walletInfo(params json.RawMessage) (any, *RPCError) {
	var req struct {
		WalletID string `json:"wallet_id"`
	}
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}

	wallet, ok := h.engine.Store().Wallet(req.WalletID)
	if !ok {
		return nil, errNotFound("wallet")
	}
	return wallet, nil
}

func (h *Handler) orderInfo(params json.RawMessage) (any, *RPCError) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}

	order, ok := h.engine.Store().Order(req.OrderID)
	if !ok {
		return nil, errNotFound("order")
	}
	return order, nil
}

func (h *Handler) tradeInfo(params json.RawMessage) (any, *RPCError) {
	if h.history == nil {
		return nil, &RPCError{Code: CodeInternalError, Message: "trade history is disabled"}
	}

	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}

	trade, err := h.history.TradeByOrder(req.OrderID)
	if errors.Is(err, history.ErrNotFound) {
		return nil, errNotFound("trade")
	}
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	return trade, nil
}

func (h *Handler) recentTrades(params json.RawMessage) (any, *RPCError) {
	if h.history == nil {
		return nil, &RPCError{Code: CodeInternalError, Message: "trade history is disabled"}
	}

	var req struct {
		Limit int `json:"limit"`
	}
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}

	trades, err := h.history.RecentTrades(req.Limit)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	return map[string]any{"trades": trades}, nil
}

func (h *Handler) serverInfo(json.RawMessage) (any, *RPCError) {
	certificates, wallets, orders := h.engine.Store().Counts()

	info := map[string]any{
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"certificates":   certificates,
		"wallets":        wallets,
		"orders":         orders,
		"total_currency": h.engine.Store().TotalCurrency(),
		"methods":        h.Methods(),
	}
	if h.subscribers != nil {
		info["subscribers"] = h.subscribers.SubscriberCount()
	}
	return info, nil
}

func unmarshalParams(params json.RawMessage, into any) *RPCError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, into); err != nil {
		return errInvalidParams(err)
	}
	return nil
}
