package ledger

import (
	"sync"
)

// ChangeSet is a staged group of record mutations that commits as one unit.
// Transactions build a ChangeSet against a snapshot of the store; Commit applies
// the whole set under the write lock, so a reader never observes a half-applied
// settlement.
type ChangeSet struct {
	Certificates map[string]Certificate
	Wallets      map[string]Wallet
	Orders       map[string]Order

	// DeletedOrders lists order ids to remove. Removing an id that is not
	// stored is a no-op.
	DeletedOrders []string
}

// NewChangeSet returns an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Certificates: make(map[string]Certificate),
		Wallets:      make(map[string]Wallet),
		Orders:       make(map[string]Order),
	}
}

// Empty reports whether the change set contains no mutations.
func (c *ChangeSet) Empty() bool {
	return len(c.Certificates) == 0 && len(c.Wallets) == 0 &&
		len(c.Orders) == 0 && len(c.DeletedOrders) == 0
}

// Store owns the certificate, wallet, and order mappings. All access goes
// through its lock: reads take the read lock, and every mutation arrives as a
// ChangeSet applied under the write lock. This gives the global single-writer
// semantics the settlement engine relies on.
type Store struct {
	mu sync.RWMutex

	certificates map[string]Certificate
	wallets      map[string]Wallet
	orders       map[string]Order
}

// NewStore creates an empty record store.
func NewStore() *Store {
	return &Store{
		certificates: make(map[string]Certificate),
		wallets:      make(map[string]Wallet),
		orders:       make(map[string]Order),
	}
}

// Certificate looks up a certificate by id.
func (s *Store) Certificate(id string) (Certificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificates[id]
	return c, ok
}

// Wallet looks up a wallet by id.
func (s *Store) Wallet(id string) (Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	return w, ok
}

// Order looks up an order by id.
func (s *Store) Order(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok
}

// Counts returns the number of stored certificates, wallets, and orders.
func (s *Store) Counts() (certificates, wallets, orders int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certificates), len(s.wallets), len(s.orders)
}

// TotalCurrency sums the currency balances of all wallets. Settlements move
// currency between wallets without creating or destroying it, so this total is
// invariant across settle calls.
func (s *Store) TotalCurrency() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total uint64
	for _, w := range s.wallets {
		total += w.Currency
	}
	return total
}

// Commit applies a change set atomically under the write lock.
func (s *Store) Commit(changes *ChangeSet) {
	if changes == nil || changes.Empty() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range changes.Certificates {
		s.certificates[id] = c
	}
	for id, w := range changes.Wallets {
		s.wallets[id] = w
	}
	for id, o := range changes.Orders {
		s.orders[id] = o
	}
	for _, id := range changes.DeletedOrders {
		delete(s.orders, id)
	}
}

// ForEachCertificate calls fn for every stored certificate. Iteration order is
// unspecified. If fn returns false, iteration stops early.
func (s *Store) ForEachCertificate(fn func(Certificate) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.certificates {
		if !fn(c) {
			return
		}
	}
}

// ForEachWallet calls fn for every stored wallet.
func (s *Store) ForEachWallet(fn func(Wallet) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wallets {
		if !fn(w) {
			return
		}
	}
}

// ForEachOrder calls fn for every stored order.
func (s *Store) ForEachOrder(fn func(Order) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if !fn(o) {
			return
		}
	}
}
