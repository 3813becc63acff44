// Package events defines the structured records emitted after each successful
// ledger mutation and the publisher that delivers them. Emission always follows
// the state mutation; a failing or slow subscriber never rolls anything back.
package events

// Event type names as they appear on the wire.
const (
	TypeCertificateCreated = "certificate_created"
	TypeWalletCreated      = "wallet_created"
	TypeWalletCredited     = "wallet_credited"
	TypeOrderCreated       = "order_created"
	TypeOrderFinalized     = "order_finalized"
	TypeTradeExecuted      = "trade_executed"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// CertificateCreated is emitted after a certificate is minted.
type CertificateCreated struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	EnergyAmount uint64 `json:"energy_amount"`
}

// WalletCreated is emitted after a wallet is created.
type WalletCreated struct {
	ID       string `json:"id"`
	Currency uint64 `json:"currency"`
	Energy   uint64 `json:"energy"`
}

// WalletCredited is emitted after an auto-credit cash injection.
type WalletCredited struct {
	ID      string `json:"id"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
}

// OrderCreated is emitted after a buy or sell order is posted.
type OrderCreated struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Price        uint64 `json:"price"`
	EnergyAmount uint64 `json:"energy_amount"`
}

// OrderFinalized is emitted after an administrative finalize: the certificate
// is consumed and the order removed without a trade.
type OrderFinalized struct {
	OrderID       string `json:"order_id"`
	CertificateID string `json:"certificate_id"`
	Consumed      bool   `json:"consumed"`
}

// TradeExecuted is emitted after a settlement commits.
type TradeExecuted struct {
	OrderID      string `json:"order_id"`
	Buyer        string `json:"buyer"`
	Seller       string `json:"seller"`
	Price        uint64 `json:"price"`
	EnergyAmount uint64 `json:"energy_amount"`
}
