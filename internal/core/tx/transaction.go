package tx

import (
	"errors"

	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/events"
)

// Type identifies a transaction type. The wire name doubles as the JSON-RPC
// method name.
type Type string

const (
	TypeCreateCertificate Type = "create_certificate"
	TypeCreateWallet      Type = "create_wallet"
	TypeCreateSellOrder   Type = "create_sell_order"
	TypeCreateBuyOrder    Type = "create_buy_order"
	TypeSettle            Type = "settle"
	TypeFinalizeOrder     Type = "finalize_order"
	TypeAutoCredit        Type = "auto_credit"
)

// Validation sentinel errors. Everything Validate returns maps to InvalidInput;
// the sentinels exist so tests and callers can check the specific precondition.
var (
	ErrEmptyID      = errors.New("id must not be empty")
	ErrEmptyOwner   = errors.New("owner id must not be empty")
	ErrZeroAddress  = errors.New("wallet address must not be the zero address")
	ErrNotSellOrder = errors.New("order is not a sell order")
)

// Common holds the fields shared by every transaction.
type Common struct {
	// Account is the caller identity, checked by the authorizer for
	// privileged transaction types.
	Account string `json:"account"`
}

// BaseTx is embedded by all transaction types.
type BaseTx struct {
	Common
}

// GetCommon returns the shared transaction fields.
func (b *BaseTx) GetCommon() *Common { return &b.Common }

// Transaction is one ledger operation. Validate performs stateless input
// checks; Apply reads and stages mutations through the context's view and
// returns a result code. Apply must leave the view untouched on any
// non-success result.
type Transaction interface {
	TxType() Type
	GetCommon() *Common
	Validate() error
	Apply(ctx *ApplyContext) Result
}

// AdminGated marks transaction types restricted to the privileged owner.
type AdminGated interface {
	AdminOnly()
}

// ApplyContext carries the staged view and collects the events to publish
// after a successful commit.
type ApplyContext struct {
	// View stages record mutations; the engine commits them atomically.
	View *ApplyTable

	// Status is the human-readable success line set by the transaction.
	Status string

	queued []events.Event
}

// Queue records an event for publication after commit. Events queued by a
// failed apply are discarded with the staged mutations.
func (ctx *ApplyContext) Queue(eventType string, payload any) {
	ctx.queued = append(ctx.queued, events.Event{Type: eventType, Payload: payload})
}

// QueuedEvents returns the events staged so far.
func (ctx *ApplyContext) QueuedEvents() []events.Event { return ctx.queued }

// ApplyTable stages record mutations against a base store. Reads see staged
// writes first, then the base; nothing touches the base store until the engine
// commits the accumulated change set in one step.
type ApplyTable struct {
	base    *ledger.Store
	changes *ledger.ChangeSet
	deleted map[string]bool
}

// NewApplyTable creates a staging view over the given store.
func NewApplyTable(base *ledger.Store) *ApplyTable {
	return &ApplyTable{
		base:    base,
		changes: ledger.NewChangeSet(),
		deleted: make(map[string]bool),
	}
}

// Certificate reads a certificate, staged writes first.
func (t *ApplyTable) Certificate(id string) (ledger.Certificate, bool) {
	if c, ok := t.changes.Certificates[id]; ok {
		return c, true
	}
	return t.base.Certificate(id)
}

// Wallet reads a wallet, staged writes first.
func (t *ApplyTable) Wallet(id string) (ledger.Wallet, bool) {
	if w, ok := t.changes.Wallets[id]; ok {
		return w, true
	}
	return t.base.Wallet(id)
}

// Order reads an order, staged writes first. A staged deletion hides the base
// record.
func (t *ApplyTable) Order(id string) (ledger.Order, bool) {
	if t.deleted[id] {
		return ledger.Order{}, false
	}
	if o, ok := t.changes.Orders[id]; ok {
		return o, true
	}
	return t.base.Order(id)
}

// PutCertificate stages a certificate write.
func (t *ApplyTable) PutCertificate(c ledger.Certificate) {
	t.changes.Certificates[c.ID] = c
}

// PutWallet stages a wallet write.
func (t *ApplyTable) PutWallet(w ledger.Wallet) {
	t.changes.Wallets[w.ID] = w
}

// PutOrder stages an order write.
func (t *ApplyTable) PutOrder(o ledger.Order) {
	delete(t.deleted, o.ID)
	t.changes.Orders[o.ID] = o
}

// DeleteOrder stages an order removal. Removing an absent order is a no-op at
// commit time.
func (t *ApplyTable) DeleteOrder(id string) {
	delete(t.changes.Orders, id)
	t.deleted[id] = true
	t.changes.DeletedOrders = append(t.changes.DeletedOrders, id)
}

// Changes returns the staged change set for commit.
func (t *ApplyTable) Changes() *ledger.ChangeSet { return t.changes }
