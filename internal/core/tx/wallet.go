package tx

import (
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/events"
)

func init() {
	Register(TypeCreateWallet, func() Transaction { return &CreateWallet{} })
	Register(TypeAutoCredit, func() Transaction { return &AutoCredit{} })
}

// CreateWallet opens a wallet with initial balances. Privileged.
type CreateWallet struct {
	BaseTx

	WalletID string `json:"wallet_id"`
	Currency uint64 `json:"currency"`
	Energy   uint64 `json:"energy"`
}

// AdminOnly marks the transaction as restricted to the privileged owner.
func (*CreateWallet) AdminOnly() {}

// TxType returns the transaction type.
func (*CreateWallet) TxType() Type { return TypeCreateWallet }

// Validate checks the stateless preconditions.
func (w *CreateWallet) Validate() error {
	if w.WalletID == "" {
		return ErrZeroAddress
	}
	return nil
}

// Apply stores the wallet unless the address is taken. A wallet that was
// created with zero balances still occupies its address.
func (w *CreateWallet) Apply(ctx *ApplyContext) Result {
	if _, ok := ctx.View.Wallet(w.WalletID); ok {
		return AlreadyExists
	}

	ctx.View.PutWallet(ledger.Wallet{
		ID:       w.WalletID,
		Currency: w.Currency,
		Energy:   w.Energy,
	})

	ctx.Queue(events.TypeWalletCreated, events.WalletCreated{
		ID:       w.WalletID,
		Currency: w.Currency,
		Energy:   w.Energy,
	})
	ctx.Status = "wallet created"
	return Success
}

// AutoCredit unconditionally increases a wallet's currency balance. It
// represents an off-ledger cash injection, so no matching debit exists
// anywhere. Crediting an unknown address creates the wallet with zero balances
// first.
type AutoCredit struct {
	BaseTx

	WalletID string `json:"wallet_id"`
	Amount   uint64 `json:"amount"`
}

// TxType returns the transaction type.
func (*AutoCredit) TxType() Type { return TypeAutoCredit }

// Validate checks the stateless preconditions.
func (a *AutoCredit) Validate() error {
	if a.WalletID == "" {
		return ErrZeroAddress
	}
	return nil
}

// Apply credits the wallet's currency balance, creating the wallet if absent.
func (a *AutoCredit) Apply(ctx *ApplyContext) Result {
	wallet, ok := ctx.View.Wallet(a.WalletID)
	if !ok {
		wallet = ledger.Wallet{ID: a.WalletID}
	}
	wallet.Currency += a.Amount
	ctx.View.PutWallet(wallet)

	ctx.Queue(events.TypeWalletCredited, events.WalletCredited{
		ID:      a.WalletID,
		Amount:  a.Amount,
		Balance: wallet.Currency,
	})
	ctx.Status = "wallet credited"
	return Success
}
