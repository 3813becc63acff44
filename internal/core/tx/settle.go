package tx

import (
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/events"
)

func init() {
	Register(TypeSettle, func() Transaction { return &Settle{} })
}

// Settle executes a sell order against the caller-supplied buyer wallet. It is
// the only multi-record transaction in the system: it touches the order, its
// backing certificate, and both wallets, and either all four mutations commit
// or none do.
//
// The seller's energy balance is deliberately untouched: sellable supply is
// represented by certificates, not by wallet energy balances, so a sale moves
// currency to the seller and energy to the buyer while consuming the
// certificate.
type Settle struct {
	BaseTx

	OrderID     string `json:"order_id"`
	BuyerWallet string `json:"buyer_wallet"`
}

// TxType returns the transaction type.
func (*Settle) TxType() Type { return TypeSettle }

// Validate checks the stateless preconditions.
func (s *Settle) Validate() error {
	if s.OrderID == "" {
		return ErrEmptyID
	}
	if s.BuyerWallet == "" {
		return ErrZeroAddress
	}
	return nil
}

// Apply validates every referenced record, then stages the four mutations.
// Missing records fail loudly with NotFound rather than operating on phantom
// zero-valued records.
func (s *Settle) Apply(ctx *ApplyContext) Result {
	order, ok := ctx.View.Order(s.OrderID)
	if !ok {
		return NotFound
	}
	if order.Kind != ledger.OrderKindSell {
		return InvalidInput
	}

	cert, ok := ctx.View.Certificate(order.CertificateID)
	if !ok {
		return NotFound
	}

	buyer, ok := ctx.View.Wallet(s.BuyerWallet)
	if !ok {
		return NotFound
	}
	seller, ok := ctx.View.Wallet(order.SellerWallet)
	if !ok {
		return NotFound
	}

	if cert.Consumed {
		return AlreadyConsumed
	}
	if buyer.Currency < order.Price {
		return InsufficientFunds
	}

	// Commit point: everything below stages together.
	order.BuyerWallet = s.BuyerWallet
	cert.Consumed = true

	if s.BuyerWallet == order.SellerWallet {
		// The wallet trades with itself: the currency transfer nets out,
		// the energy still accrues.
		buyer.Energy += order.EnergyAmount
		ctx.View.PutWallet(buyer)
	} else {
		buyer.Currency -= order.Price
		buyer.Energy += order.EnergyAmount
		seller.Currency += order.Price
		ctx.View.PutWallet(buyer)
		ctx.View.PutWallet(seller)
	}

	ctx.View.PutOrder(order)
	ctx.View.PutCertificate(cert)

	ctx.Queue(events.TypeTradeExecuted, events.TradeExecuted{
		OrderID:      s.OrderID,
		Buyer:        s.BuyerWallet,
		Seller:       order.SellerWallet,
		Price:        order.Price,
		EnergyAmount: order.EnergyAmount,
	})
	ctx.Status = "trade executed"
	return Success
}
