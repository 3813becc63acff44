package events

import (
	"sync"
)

// Hooks provides structured callbacks for ledger events. Any hook may be nil.
type Hooks struct {
	OnCertificateCreated func(CertificateCreated)
	OnWalletCreated      func(WalletCreated)
	OnWalletCredited     func(WalletCredited)
	OnOrderCreated       func(OrderCreated)
	OnOrderFinalized     func(OrderFinalized)
	OnTradeExecuted      func(TradeExecuted)
}

// Publisher fans events out to typed hooks and to channel subscribers (the
// WebSocket server). Delivery is asynchronous for hooks and non-blocking for
// channels: a subscriber with a full queue misses events rather than stalling
// the ledger.
type Publisher struct {
	mu          sync.RWMutex
	hooks       *Hooks
	subscribers map[uint64]chan Event
	nextID      uint64
	queueLimit  int
}

// NewPublisher creates a publisher. queueLimit bounds each subscriber channel;
// values below 1 fall back to 256.
func NewPublisher(queueLimit int) *Publisher {
	if queueLimit < 1 {
		queueLimit = 256
	}
	return &Publisher{
		subscribers: make(map[uint64]chan Event),
		queueLimit:  queueLimit,
	}
}

// SetHooks installs the structured event hooks.
func (p *Publisher) SetHooks(hooks *Hooks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = hooks
}

// Subscribe registers a new subscriber and returns its event channel together
// with a cancel function. The channel is closed on cancel.
func (p *Publisher) Subscribe() (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	ch := make(chan Event, p.queueLimit)
	p.subscribers[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subscribers[id]; ok {
			delete(p.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (p *Publisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}

// Publish delivers an event to all hooks and subscribers. It never blocks the
// caller: hooks run in their own goroutines and full subscriber channels are
// skipped.
func (p *Publisher) Publish(evt Event) {
	p.mu.RLock()
	hooks := p.hooks
	for _, ch := range p.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
	p.mu.RUnlock()

	if hooks == nil {
		return
	}

	switch payload := evt.Payload.(type) {
	case CertificateCreated:
		if hooks.OnCertificateCreated != nil {
			go hooks.OnCertificateCreated(payload)
		}
	case WalletCreated:
		if hooks.OnWalletCreated != nil {
			go hooks.OnWalletCreated(payload)
		}
	case WalletCredited:
		if hooks.OnWalletCredited != nil {
			go hooks.OnWalletCredited(payload)
		}
	case OrderCreated:
		if hooks.OnOrderCreated != nil {
			go hooks.OnOrderCreated(payload)
		}
	case OrderFinalized:
		if hooks.OnOrderFinalized != nil {
			go hooks.OnOrderFinalized(payload)
		}
	case TradeExecuted:
		if hooks.OnTradeExecuted != nil {
			go hooks.OnTradeExecuted(payload)
		}
	}
}
