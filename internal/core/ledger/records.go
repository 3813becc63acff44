// Package ledger holds the three record types tracked by gocertd
// (certificates, wallets, and orders) and the Store that owns them for the
// lifetime of the process. Records reference each other by id only; the Store
// is the single ownership boundary for all mutable state.
package ledger

// OrderKind distinguishes buy orders from sell orders.
type OrderKind uint8

const (
	OrderKindBuy OrderKind = iota
	OrderKindSell
)

// String returns the wire name of the order kind.
func (k OrderKind) String() string {
	switch k {
	case OrderKindBuy:
		return "buy"
	case OrderKindSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Certificate is a Guarantee of Origin: a claim that EnergyAmount units of
// energy originated from the issuer identified by OwnerID. A certificate is
// consumable exactly once; Consumed never reverts to false.
type Certificate struct {
	ID           string `json:"id" codec:"id"`
	OwnerID      string `json:"owner_id" codec:"owner_id"`
	EnergyAmount uint64 `json:"energy_amount" codec:"energy_amount"`
	Consumed     bool   `json:"consumed" codec:"consumed"`
}

// Wallet is an account holding a currency balance and an energy balance.
// Both balances are unsigned; debits check sufficiency before applying, so a
// negative balance is unrepresentable.
type Wallet struct {
	ID       string `json:"id" codec:"id"`
	Currency uint64 `json:"currency" codec:"currency"`
	Energy   uint64 `json:"energy" codec:"energy"`
}

// Order is a standing intent to trade energy at a price. A sell order is bound
// to the certificate backing it and to the seller's wallet; its BuyerWallet is
// filled in when the order settles. A buy order carries only the buyer's wallet.
type Order struct {
	ID            string    `json:"id" codec:"id"`
	Kind          OrderKind `json:"kind" codec:"kind"`
	Price         uint64    `json:"price" codec:"price"`
	EnergyAmount  uint64    `json:"energy_amount" codec:"energy_amount"`
	BuyerWallet   string    `json:"buyer_wallet,omitempty" codec:"buyer_wallet"`
	SellerWallet  string    `json:"seller_wallet,omitempty" codec:"seller_wallet"`
	CertificateID string    `json:"certificate_id,omitempty" codec:"certificate_id"`
}
