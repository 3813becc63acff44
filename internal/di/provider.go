package di

import (
	"github.com/enerledger/gocertd/internal/auth"
	"github.com/enerledger/gocertd/internal/config"
	"github.com/enerledger/gocertd/internal/core/ledger"
	"github.com/enerledger/gocertd/internal/core/tx"
	"github.com/enerledger/gocertd/internal/events"
	"github.com/enerledger/gocertd/internal/rpc"
	"github.com/enerledger/gocertd/internal/server/api/jsonrpc"
	"github.com/enerledger/gocertd/internal/storage/history"
	"github.com/enerledger/gocertd/internal/storage/keyvaluedb"
	"github.com/enerledger/gocertd/internal/storage/recorddb"
)

// Provider registers builders for every gocertd service.
type Provider struct {
	container *Container
	config    *config.Config
	version   string
}

// NewProvider creates a provider over the container.
func NewProvider(container *Container, cfg *config.Config, version string) *Provider {
	return &Provider{container: container, config: cfg, version: version}
}

// RegisterAll registers every service builder.
func (p *Provider) RegisterAll() {
	p.container.Register(ServiceConfig, p.config)
	p.registerStorageBuilders()
	p.registerLedgerBuilders()
	p.registerServerBuilders()
}

func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceKeyValueDB, func(c *Container) (any, error) {
		return keyvaluedb.Open(
			keyvaluedb.Backend(p.config.Storage.Backend),
			p.config.Storage.Path,
		)
	})

	p.container.RegisterBuilder(ServiceRecordDB, func(c *Container) (any, error) {
		db, err := c.Get(ServiceKeyValueDB)
		if err != nil {
			return nil, err
		}
		return recorddb.New(db.(keyvaluedb.DB), p.config.Storage.Compression)
	})

	p.container.RegisterBuilder(ServiceHistory, func(c *Container) (any, error) {
		if !p.config.History.Enabled {
			return (*history.Store)(nil), nil
		}
		return history.Open(
			p.config.History.Driver,
			p.config.History.DSN,
			p.config.History.CacheSize,
		)
	})
}

func (p *Provider) registerLedgerBuilders() {
	p.container.RegisterBuilder(ServiceStore, func(c *Container) (any, error) {
		store := ledger.NewStore()

		// Rehydrate from disk before anything touches the store.
		recordDB, err := c.Get(ServiceRecordDB)
		if err != nil {
			return nil, err
		}
		if err := recordDB.(*recorddb.RecordDB).Load(store); err != nil {
			return nil, err
		}
		return store, nil
	})

	p.container.RegisterBuilder(ServiceAuthorizer, func(c *Container) (any, error) {
		return auth.NewSingleOwner(p.config.Ledger.AdminAccount), nil
	})

	p.container.RegisterBuilder(ServiceEventPublisher, func(c *Container) (any, error) {
		publisher := events.NewPublisher(p.config.Events.QueueLimit)

		hist, err := c.Get(ServiceHistory)
		if err != nil {
			return nil, err
		}
		if store := hist.(*history.Store); store != nil {
			publisher.SetHooks(store.Hooks())
		}
		return publisher, nil
	})

	p.container.RegisterBuilder(ServiceTxEngine, func(c *Container) (any, error) {
		store, err := c.Get(ServiceStore)
		if err != nil {
			return nil, err
		}
		authorizer, err := c.Get(ServiceAuthorizer)
		if err != nil {
			return nil, err
		}

		engine := tx.NewEngine(store.(*ledger.Store), authorizer.(auth.Authorizer))

		recordDB, err := c.Get(ServiceRecordDB)
		if err != nil {
			return nil, err
		}
		engine.SetPersister(recordDB.(*recorddb.RecordDB))

		publisher, err := c.Get(ServiceEventPublisher)
		if err != nil {
			return nil, err
		}
		engine.SetPublisher(publisher.(*events.Publisher))

		return engine, nil
	})
}

func (p *Provider) registerServerBuilders() {
	p.container.RegisterBuilder(ServiceRPCServer, func(c *Container) (any, error) {
		engine, err := c.Get(ServiceTxEngine)
		if err != nil {
			return nil, err
		}

		handler := jsonrpc.NewHandler(engine.(*tx.Engine), p.version)

		hist, err := c.Get(ServiceHistory)
		if err != nil {
			return nil, err
		}
		if store := hist.(*history.Store); store != nil {
			handler.SetHistory(store)
		}

		publisher, err := c.Get(ServiceEventPublisher)
		if err != nil {
			return nil, err
		}
		handler.SetSubscriberCounter(publisher.(*events.Publisher))

		return jsonrpc.NewServer(p.config.Server.RPCAddr, handler), nil
	})

	p.container.RegisterBuilder(ServiceWSServer, func(c *Container) (any, error) {
		publisher, err := c.Get(ServiceEventPublisher)
		if err != nil {
			return nil, err
		}
		return rpc.NewWebSocketServer(p.config.Server.WSAddr, publisher.(*events.Publisher)), nil
	})
}

// Engine resolves the transaction engine.
func (p *Provider) Engine() (*tx.Engine, error) {
	engine, err := p.container.Get(ServiceTxEngine)
	if err != nil {
		return nil, err
	}
	return engine.(*tx.Engine), nil
}

// RPCServer resolves the JSON-RPC server.
func (p *Provider) RPCServer() (*jsonrpc.Server, error) {
	srv, err := p.container.Get(ServiceRPCServer)
	if err != nil {
		return nil, err
	}
	return srv.(*jsonrpc.Server), nil
}

// WSServer resolves the WebSocket server.
func (p *Provider) WSServer() (*rpc.WebSocketServer, error) {
	srv, err := p.container.Get(ServiceWSServer)
	if err != nil {
		return nil, err
	}
	return srv.(*rpc.WebSocketServer), nil
}

// Close releases resources that were actually constructed, in dependency
// order.
func (p *Provider) Close() {
	if p.container.Built(ServiceHistory) {
		if hist, err := p.container.Get(ServiceHistory); err == nil {
			if store := hist.(*history.Store); store != nil {
				store.Close()
			}
		}
	}
	if p.container.Built(ServiceKeyValueDB) {
		if db, err := p.container.Get(ServiceKeyValueDB); err == nil {
			db.(keyvaluedb.DB).Close()
		}
	}
}
