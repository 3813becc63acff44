package tx

import (
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/events"
)

func init() {
	Register(TypeCreateSellOrder, func() Transaction { return &CreateSellOrder{} })
	Register(TypeCreateBuyOrder, func() Transaction { return &CreateBuyOrder{} })
	Register(TypeFinalizeOrder, func() Transaction { return &FinalizeOrder{} })
}

// CreateSellOrder posts an order to sell the energy backed by a certificate.
// The order amount must exactly match the certificate amount; partial coverage
// is not supported.
type CreateSellOrder struct {
	BaseTx

	OrderID       string `json:"order_id"`
	CertificateID string `json:"certificate_id"`
	Price         uint64 `json:"price"`
	EnergyAmount  uint64 `json:"energy_amount"`
	SellerWallet  string `json:"seller_wallet"`
}

// TxType returns the transaction type.
func (*CreateSellOrder) TxType() Type { return TypeCreateSellOrder }

// Validate checks the stateless preconditions.
func (o *CreateSellOrder) Validate() error {
	if o.OrderID == "" || o.CertificateID == "" {
		return ErrEmptyID
	}
	if o.SellerWallet == "" {
		return ErrZeroAddress
	}
	return nil
}

// Apply stores the sell order after checking it against its backing
// certificate.
func (o *CreateSellOrder) Apply(ctx *ApplyContext) Result {
	if _, ok := ctx.View.Order(o.OrderID); ok {
		return AlreadyExists
	}

	cert, ok := ctx.View.Certificate(o.CertificateID)
	if !ok {
		return NotFound
	}
	if cert.Consumed {
		return AlreadyConsumed
	}
	if o.EnergyAmount != cert.EnergyAmount {
		return QuantityMismatch
	}

	ctx.View.PutOrder(ledger.Order{
		ID:            o.OrderID,
		Kind:          ledger.OrderKindSell,
		Price:         o.Price,
		EnergyAmount:  o.EnergyAmount,
		SellerWallet:  o.SellerWallet,
		CertificateID: o.CertificateID,
	})

	ctx.Queue(events.TypeOrderCreated, events.OrderCreated{
		ID:           o.OrderID,
		Kind:         ledger.OrderKindSell.String(),
		Price:        o.Price,
		EnergyAmount: o.EnergyAmount,
	})
	ctx.Status = "sell order created"
	return Success
}

// CreateBuyOrder posts a standing intent to buy energy at a price. Buy orders
// are not bound to a certificate and are never settled by the engine; they
// exist as published intent only.
type CreateBuyOrder struct {
	BaseTx

	OrderID      string `json:"order_id"`
	BuyerWallet  string `json:"buyer_wallet"`
	Price        uint64 `json:"price"`
	EnergyAmount uint64 `json:"energy_amount"`
}

// TxType returns the transaction type.
func (*CreateBuyOrder) TxType() Type { return TypeCreateBuyOrder }

// Validate checks the stateless preconditions.
func (o *CreateBuyOrder) Validate() error {
	if o.OrderID == "" {
		return ErrEmptyID
	}
	if o.BuyerWallet == "" {
		return ErrZeroAddress
	}
	return nil
}

// Apply stores the buy order unless the id is taken.
func (o *CreateBuyOrder) Apply(ctx *ApplyContext) Result {
	if _, ok := ctx.View.Order(o.OrderID); ok {
		return AlreadyExists
	}

	ctx.View.PutOrder(ledger.Order{
		ID:           o.OrderID,
		Kind:         ledger.OrderKindBuy,
		Price:        o.Price,
		EnergyAmount: o.EnergyAmount,
		BuyerWallet:  o.BuyerWallet,
	})

	ctx.Queue(events.TypeOrderCreated, events.OrderCreated{
		ID:           o.OrderID,
		Kind:         ledger.OrderKindBuy.String(),
		Price:        o.Price,
		EnergyAmount: o.EnergyAmount,
	})
	ctx.Status = "buy order created"
	return Success
}

// FinalizeOrder is the administrative cancel: it consumes the certificate so
// it can never be traded, and removes the order record. No funds move.
// Privileged.
type FinalizeOrder struct {
	BaseTx

	OrderID       string `json:"order_id"`
	CertificateID string `json:"certificate_id"`
}

// AdminOnly marks the transaction as restricted to the privileged owner.
func (*FinalizeOrder) AdminOnly() {}

// TxType returns the transaction type.
func (*FinalizeOrder) TxType() Type { return TypeFinalizeOrder }

// Validate checks the stateless preconditions.
func (f *FinalizeOrder) Validate() error {
	if f.OrderID == "" || f.CertificateID == "" {
		return ErrEmptyID
	}
	return nil
}

// Apply consumes the certificate and removes the order. The order removal is
// unconditional: finalizing an order id that was never stored still succeeds,
// the deletion is simply a no-op.
func (f *FinalizeOrder) Apply(ctx *ApplyContext) Result {
	cert, ok := ctx.View.Certificate(f.CertificateID)
	if !ok {
		return NotFound
	}
	if cert.Consumed {
		return AlreadyConsumed
	}

	cert.Consumed = true
	ctx.View.PutCertificate(cert)
	ctx.View.DeleteOrder(f.OrderID)

	ctx.Queue(events.TypeOrderFinalized, events.OrderFinalized{
		OrderID:       f.OrderID,
		CertificateID: f.CertificateID,
		Consumed:      true,
	})
	ctx.Status = "order finalized"
	return Success
}
