package tx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerledger/gocertd/internal/auth"
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/events"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(ledger.NewStore(), auth.AllowAll{})
}

func mustApply(t *testing.T, e *Engine, transaction Transaction) {
	t.Helper()
	res := e.Apply(transaction)
	require.True(t, res.Result.IsSuccess(), "expected success, got %s: %s", res.Result, res.Status)
	require.True(t, res.Applied)
}

// setupMarket creates certificate c1 (100 energy, owner o1), buyer wallet B
// (500 currency) and seller wallet S (empty), and a sell order at price 200.
func setupMarket(t *testing.T, e *Engine) {
	t.Helper()
	mustApply(t, e, &CreateCertificate{CertificateID: "c1", OwnerID: "o1", EnergyAmount: 100})
	mustApply(t, e, &CreateWallet{WalletID: "B", Currency: 500})
	mustApply(t, e, &CreateWallet{WalletID: "S"})
	mustApply(t, e, &CreateSellOrder{OrderID: "order1", CertificateID: "c1", Price: 200, EnergyAmount: 100, SellerWallet: "S"})
}

func TestSettleTransfersCurrencyAndEnergy(t *testing.T) {
	e := newTestEngine(t)
	setupMarket(t, e)

	res := e.Apply(&Settle{OrderID: "order1", BuyerWallet: "B"})
	require.Equal(t, Success, res.Result)
	assert.Equal(t, "trade executed", res.Status)

	buyer, ok := e.Store().Wallet("B")
	require.True(t, ok)
	assert.Equal(t, uint64(300), buyer.Currency)
	assert.Equal(t, uint64(100), buyer.Energy)

	seller, ok := e.Store().Wallet("S")
	require.True(t, ok)
	assert.Equal(t, uint64(200), seller.Currency)
	assert.Equal(t, uint64(0), seller.Energy, "seller energy never decremented or incremented by a sale")

	cert, ok := e.Store().Certificate("c1")
	require.True(t, ok)
	assert.True(t, cert.Consumed)

	order, ok := e.Store().Order("order1")
	require.True(t, ok, "settled order stays in the store")
	assert.Equal(t, "B", order.BuyerWallet)
}

func TestSettleTwiceFailsAlreadyConsumed(t *testing.T) {
	e := newTestEngine(t)
	setupMarket(t, e)
	mustApply(t, e, &Settle{OrderID: "order1", BuyerWallet: "B"})

	res := e.Apply(&Settle{OrderID: "order1", BuyerWallet: "B"})
	assert.Equal(t, AlreadyConsumed, res.Result)
	assert.False(t, res.Applied)

	// Balances unchanged from the first settlement.
	buyer, _ := e.Store().Wallet("B")
	assert.Equal(t, uint64(300), buyer.Currency)
	assert.Equal(t, uint64(100), buyer.Energy)
	seller, _ := e.Store().Wallet("S")
	assert.Equal(t, uint64(200), seller.Currency)
}

func TestSellOrderQuantityMismatch(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateCertificate{CertificateID: "c1", OwnerID: "o1", EnergyAmount: 100})
	mustApply(t, e, &CreateWallet{WalletID: "S"})

	res := e.Apply(&CreateSellOrder{OrderID: "order1", CertificateID: "c1", Price: 200, EnergyAmount: 50, SellerWallet: "S"})
	assert.Equal(t, QuantityMismatch, res.Result)

	_, ok := e.Store().Order("order1")
	assert.False(t, ok, "mismatched order must not be stored")
}

func TestAutoCredit(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateWallet{WalletID: "S", Currency: 200, Energy: 7})

	mustApply(t, e, &AutoCredit{WalletID: "S", Amount: 300})

	wallet, ok := e.Store().Wallet("S")
	require.True(t, ok)
	assert.Equal(t, uint64(500), wallet.Currency)
	assert.Equal(t, uint64(7), wallet.Energy, "auto-credit must not touch energy")
}

func TestAutoCreditCreatesMissingWallet(t *testing.T) {
	e := newTestEngine(t)

	mustApply(t, e, &AutoCredit{WalletID: "fresh", Amount: 42})

	wallet, ok := e.Store().Wallet("fresh")
	require.True(t, ok)
	assert.Equal(t, uint64(42), wallet.Currency)
	assert.Equal(t, uint64(0), wallet.Energy)
}

func TestSettleInsufficientFundsIsAtomic(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateCertificate{CertificateID: "c1", OwnerID: "o1", EnergyAmount: 100})
	mustApply(t, e, &CreateWallet{WalletID: "B", Currency: 100})
	mustApply(t, e, &CreateWallet{WalletID: "S"})
	mustApply(t, e, &CreateSellOrder{OrderID: "order1", CertificateID: "c1", Price: 200, EnergyAmount: 100, SellerWallet: "S"})

	res := e.Apply(&Settle{OrderID: "order1", BuyerWallet: "B"})
	assert.Equal(t, InsufficientFunds, res.Result)

	buyer, _ := e.Store().Wallet("B")
	assert.Equal(t, uint64(100), buyer.Currency)
	assert.Equal(t, uint64(0), buyer.Energy)
	seller, _ := e.Store().Wallet("S")
	assert.Equal(t, uint64(0), seller.Currency)
	cert, _ := e.Store().Certificate("c1")
	assert.False(t, cert.Consumed, "failed settlement must leave the certificate unconsumed")
	order, _ := e.Store().Order("order1")
	assert.Empty(t, order.BuyerWallet)
}

func TestSettleConservesCurrency(t *testing.T) {
	e := newTestEngine(t)
	setupMarket(t, e)

	before := e.Store().TotalCurrency()
	mustApply(t, e, &Settle{OrderID: "order1", BuyerWallet: "B"})
	assert.Equal(t, before, e.Store().TotalCurrency())
}

func TestSettleOwnOrder(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateCertificate{CertificateID: "c1", OwnerID: "o1", EnergyAmount: 100})
	mustApply(t, e, &CreateWallet{WalletID: "W", Currency: 500})
	mustApply(t, e, &CreateSellOrder{OrderID: "order1", CertificateID: "c1", Price: 200, EnergyAmount: 100, SellerWallet: "W"})

	mustApply(t, e, &Settle{OrderID: "order1", BuyerWallet: "W"})

	wallet, _ := e.Store().Wallet("W")
	assert.Equal(t, uint64(500), wallet.Currency, "paying yourself nets to zero")
	assert.Equal(t, uint64(100), wallet.Energy)
	cert, _ := e.Store().Certificate("c1")
	assert.True(t, cert.Consumed)
}

func TestSettleMissingRecords(t *testing.T) {
	e := newTestEngine(t)
	setupMarket(t, e)

	res := e.Apply(&Settle{OrderID: "no-such-order", BuyerWallet: "B"})
	assert.Equal(t, NotFound, res.Result)

	res = e.Apply(&Settle{OrderID: "order1", BuyerWallet: "no-such-wallet"})
	assert.Equal(t, NotFound, res.Result)

	cert, _ := e.Store().Certificate("c1")
	assert.False(t, cert.Consumed)
}

func TestSettleBuyOrderRejected(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateWallet{WalletID: "B", Currency: 500})
	mustApply(t, e, &CreateBuyOrder{OrderID: "bid1", BuyerWallet: "B", Price: 100, EnergyAmount: 50})

	res := e.Apply(&Settle{OrderID: "bid1", BuyerWallet: "B"})
	assert.Equal(t, InvalidInput, res.Result)
}

func TestSellOrderAgainstConsumedCertificate(t *testing.T) {
	e := newTestEngine(t)
	setupMarket(t, e)
	mustApply(t, e, &CreateWallet{WalletID: "B2", Currency: 500})
	mustApply(t, e, &Settle{OrderID: "order1", BuyerWallet: "B"})

	res := e.Apply(&CreateSellOrder{OrderID: "order2", CertificateID: "c1", Price: 100, EnergyAmount: 100, SellerWallet: "S"})
	assert.Equal(t, AlreadyConsumed, res.Result)
}

func TestSellOrderMissingCertificate(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateWallet{WalletID: "S"})

	res := e.Apply(&CreateSellOrder{OrderID: "order1", CertificateID: "ghost", Price: 10, EnergyAmount: 10, SellerWallet: "S"})
	assert.Equal(t, NotFound, res.Result)
}

func TestFinalizeOrder(t *testing.T) {
	e := newTestEngine(t)
	setupMarket(t, e)

	res := e.Apply(&FinalizeOrder{OrderID: "order1", CertificateID: "c1"})
	require.Equal(t, Success, res.Result)

	cert, _ := e.Store().Certificate("c1")
	assert.True(t, cert.Consumed)
	_, ok := e.Store().Order("order1")
	assert.False(t, ok, "finalized order is removed")

	// No funds moved.
	buyer, _ := e.Store().Wallet("B")
	assert.Equal(t, uint64(500), buyer.Currency)
	seller, _ := e.Store().Wallet("S")
	assert.Equal(t, uint64(0), seller.Currency)
}

func TestFinalizeTwiceFailsAlreadyConsumed(t *testing.T) {
	e := newTestEngine(t)
	setupMarket(t, e)
	mustApply(t, e, &FinalizeOrder{OrderID: "order1", CertificateID: "c1"})

	res := e.Apply(&FinalizeOrder{OrderID: "order1", CertificateID: "c1"})
	assert.Equal(t, AlreadyConsumed, res.Result)
}

func TestFinalizeMissingOrderIsNoop(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateCertificate{CertificateID: "c1", OwnerID: "o1", EnergyAmount: 100})

	// The order was never posted; the certificate is still voided.
	res := e.Apply(&FinalizeOrder{OrderID: "never-posted", CertificateID: "c1"})
	require.Equal(t, Success, res.Result)

	cert, _ := e.Store().Certificate("c1")
	assert.True(t, cert.Consumed)
}

func TestFinalizeMissingCertificate(t *testing.T) {
	e := newTestEngine(t)

	res := e.Apply(&FinalizeOrder{OrderID: "order1", CertificateID: "ghost"})
	assert.Equal(t, NotFound, res.Result)
}

func TestDuplicateCreationFails(t *testing.T) {
	e := newTestEngine(t)
	mustApply(t, e, &CreateCertificate{CertificateID: "c1", OwnerID: "o1", EnergyAmount: 100})
	mustApply(t, e, &CreateWallet{WalletID: "W"})
	mustApply(t, e, &CreateBuyOrder{OrderID: "bid1", BuyerWallet: "W"})

	assert.Equal(t, AlreadyExists, e.Apply(&CreateCertificate{CertificateID: "c1", OwnerID: "o2", EnergyAmount: 5}).Result)
	assert.Equal(t, AlreadyExists, e.Apply(&CreateWallet{WalletID: "W", Currency: 1}).Result)
	assert.Equal(t, AlreadyExists, e.Apply(&CreateBuyOrder{OrderID: "bid1", BuyerWallet: "W"}).Result)
}

func TestZeroValuedRecordStillExists(t *testing.T) {
	// Existence is decided by the store, not by field values: a zero-amount
	// certificate and a zero-price order still occupy their ids.
	e := newTestEngine(t)
	mustApply(t, e, &CreateCertificate{CertificateID: "c0", OwnerID: "o1", EnergyAmount: 0})
	mustApply(t, e, &CreateWallet{WalletID: "W"})
	mustApply(t, e, &CreateBuyOrder{OrderID: "bid0", BuyerWallet: "W", Price: 0})

	assert.Equal(t, AlreadyExists, e.Apply(&CreateCertificate{CertificateID: "c0", OwnerID: "o1", EnergyAmount: 10}).Result)
	assert.Equal(t, AlreadyExists, e.Apply(&CreateBuyOrder{OrderID: "bid0", BuyerWallet: "W", Price: 9}).Result)
}

func TestValidationFailures(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		name        string
		transaction Transaction
	}{
		{"certificate empty id", &CreateCertificate{OwnerID: "o1"}},
		{"certificate empty owner", &CreateCertificate{CertificateID: "c1"}},
		{"wallet zero address", &CreateWallet{}},
		{"sell order empty order id", &CreateSellOrder{CertificateID: "c1", SellerWallet: "S"}},
		{"sell order empty cert id", &CreateSellOrder{OrderID: "o1", SellerWallet: "S"}},
		{"sell order zero seller", &CreateSellOrder{OrderID: "o1", CertificateID: "c1"}},
		{"buy order empty id", &CreateBuyOrder{BuyerWallet: "B"}},
		{"buy order zero buyer", &CreateBuyOrder{OrderID: "o1"}},
		{"settle empty order id", &Settle{BuyerWallet: "B"}},
		{"settle zero buyer", &Settle{OrderID: "o1"}},
		{"finalize empty ids", &FinalizeOrder{}},
		{"auto credit zero address", &AutoCredit{Amount: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := e.Apply(tc.transaction)
			assert.Equal(t, InvalidInput, res.Result)
			assert.False(t, res.Applied)
		})
	}
}

func TestAuthorization(t *testing.T) {
	e := NewEngine(ledger.NewStore(), auth.NewSingleOwner("admin"))

	// Privileged operations from a non-admin account are rejected.
	res := e.Apply(&CreateCertificate{BaseTx: BaseTx{Common: Common{Account: "mallory"}}, CertificateID: "c1", OwnerID: "o1", EnergyAmount: 10})
	assert.Equal(t, NotAuthorized, res.Result)
	_, ok := e.Store().Certificate("c1")
	assert.False(t, ok)

	res = e.Apply(&CreateWallet{BaseTx: BaseTx{Common: Common{Account: ""}}, WalletID: "W"})
	assert.Equal(t, NotAuthorized, res.Result)

	// The admin passes.
	admin := BaseTx{Common: Common{Account: "admin"}}
	assert.Equal(t, Success, e.Apply(&CreateCertificate{BaseTx: admin, CertificateID: "c1", OwnerID: "o1", EnergyAmount: 10}).Result)
	assert.Equal(t, Success, e.Apply(&CreateWallet{BaseTx: admin, WalletID: "W"}).Result)
	assert.Equal(t, Success, e.Apply(&FinalizeOrder{BaseTx: admin, OrderID: "x", CertificateID: "c1"}).Result)

	// Unprivileged operations are open to anyone.
	assert.Equal(t, Success, e.Apply(&AutoCredit{WalletID: "W", Amount: 5}).Result)
}

type capturePublisher struct {
	published []events.Event
}

func (c *capturePublisher) Publish(evt events.Event) {
	c.published = append(c.published, evt)
}

func TestEventsFollowMutation(t *testing.T) {
	e := newTestEngine(t)
	pub := &capturePublisher{}
	e.SetPublisher(pub)

	setupMarket(t, e)
	mustApply(t, e, &Settle{OrderID: "order1", BuyerWallet: "B"})

	var types []string
	for _, evt := range pub.published {
		types = append(types, evt.Type)
	}
	assert.Equal(t, []string{
		events.TypeCertificateCreated,
		events.TypeWalletCreated,
		events.TypeWalletCreated,
		events.TypeOrderCreated,
		events.TypeTradeExecuted,
	}, types)

	trade, ok := pub.published[len(pub.published)-1].Payload.(events.TradeExecuted)
	require.True(t, ok)
	assert.Equal(t, "order1", trade.OrderID)
	assert.Equal(t, "B", trade.Buyer)
	assert.Equal(t, "S", trade.Seller)
	assert.Equal(t, uint64(200), trade.Price)
	assert.Equal(t, uint64(100), trade.EnergyAmount)
}

func TestFailedOperationEmitsNothing(t *testing.T) {
	e := newTestEngine(t)
	pub := &capturePublisher{}
	e.SetPublisher(pub)

	res := e.Apply(&Settle{OrderID: "ghost", BuyerWallet: "B"})
	assert.Equal(t, NotFound, res.Result)
	assert.Empty(t, pub.published)
}

type capturePersister struct {
	changeSets []*ledger.ChangeSet
	err        error
}

func (c *capturePersister) Persist(changes *ledger.ChangeSet) error {
	c.changeSets = append(c.changeSets, changes)
	return c.err
}

func TestPersisterReceivesCommittedChanges(t *testing.T) {
	e := newTestEngine(t)
	persister := &capturePersister{}
	e.SetPersister(persister)

	mustApply(t, e, &CreateWallet{WalletID: "W", Currency: 9})

	require.Len(t, persister.changeSets, 1)
	wallet, ok := persister.changeSets[0].Wallets["W"]
	require.True(t, ok)
	assert.Equal(t, uint64(9), wallet.Currency)
}

func TestPersisterFailureDoesNotRollBack(t *testing.T) {
	e := newTestEngine(t)
	e.SetPersister(&capturePersister{err: errors.New("disk gone")})

	res := e.Apply(&CreateWallet{WalletID: "W"})
	assert.Equal(t, Success, res.Result)
	_, ok := e.Store().Wallet("W")
	assert.True(t, ok)
}

func TestRegistry(t *testing.T) {
	for _, typeName := range []Type{
		TypeCreateCertificate, TypeCreateWallet, TypeCreateSellOrder,
		TypeCreateBuyOrder, TypeSettle, TypeFinalizeOrder, TypeAutoCredit,
	} {
		transaction, ok := New(typeName)
		require.True(t, ok, "type %s not registered", typeName)
		assert.Equal(t, typeName, transaction.TxType())
	}

	_, ok := New("no_such_type")
	assert.False(t, ok)

	assert.Len(t, RegisteredTypes(), 7)
}
