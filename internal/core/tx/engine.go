package tx

import (
	"log"
	"sync"

	"github.com/enerledger/gocertd/internal/auth"
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/events"
)

// Publisher delivers events after a successful commit. Delivery failures are
// the publisher's problem; they never affect ledger state.
type Publisher interface {
	Publish(events.Event)
}

// Persister writes a committed change set to durable storage.
type Persister interface {
	Persist(*ledger.ChangeSet) error
}

// Engine applies transactions to the record store. Every operation runs under
// one mutex, so the whole pipeline from staging to commit is serialized: two
// settlements against the same certificate can never both observe it
// unconsumed.
type Engine struct {
	mu         sync.Mutex
	store      *ledger.Store
	authorizer auth.Authorizer
	publisher  Publisher
	persister  Persister
}

// NewEngine creates an engine over the given store. A nil authorizer rejects
// every privileged operation.
func NewEngine(store *ledger.Store, authorizer auth.Authorizer) *Engine {
	return &Engine{
		store:      store,
		authorizer: authorizer,
	}
}

// SetPublisher installs the post-commit event publisher.
func (e *Engine) SetPublisher(p Publisher) { e.publisher = p }

// SetPersister installs the durable-storage writer.
func (e *Engine) SetPersister(p Persister) { e.persister = p }

// Store returns the underlying record store (read-only queries).
func (e *Engine) Store() *ledger.Store { return e.store }

// Apply runs a transaction through preflight, authorization, and application.
// On success all staged mutations are committed to the store as one unit, then
// persisted and published; on any failure the store is untouched.
func (e *Engine) Apply(transaction Transaction) ApplyResult {
	// Preflight: stateless input validation.
	if err := transaction.Validate(); err != nil {
		return ApplyResult{
			Result: InvalidInput,
			Status: err.Error(),
		}
	}

	// Preclaim: authorization for privileged types.
	if _, gated := transaction.(AdminGated); gated {
		common := transaction.GetCommon()
		if e.authorizer == nil || !e.authorizer.Authorized(common.Account) {
			return ApplyResult{
				Result: NotAuthorized,
				Status: NotAuthorized.Message(),
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	table := NewApplyTable(e.store)
	ctx := &ApplyContext{View: table}

	result := transaction.Apply(ctx)
	if !result.IsSuccess() {
		return ApplyResult{
			Result: result,
			Status: result.Message(),
		}
	}

	changes := table.Changes()
	e.store.Commit(changes)

	// Mutation first, then durability and notification. Neither may undo the
	// commit; a failed persist is logged and the in-memory ledger stays
	// authoritative for this process.
	if e.persister != nil {
		if err := e.persister.Persist(changes); err != nil {
			log.Printf("persist failed for %s: %v", transaction.TxType(), err)
		}
	}
	if e.publisher != nil {
		for _, evt := range ctx.QueuedEvents() {
			e.publisher.Publish(evt)
		}
	}

	status := ctx.Status
	if status == "" {
		status = result.Message()
	}
	return ApplyResult{
		Result:  Success,
		Applied: true,
		Status:  status,
	}
}
