package app

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/phone"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/catalogs/supplier"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/infrastructure/export/xlsx"
	v1 "pharmaledger/internal/infrastructure/http/v1"
	"pharmaledger/internal/infrastructure/http/v1/handlers"
	"pharmaledger/internal/infrastructure/http/v1/middleware"
	pgnumerator "pharmaledger/internal/infrastructure/numerator"
	"pharmaledger/internal/infrastructure/storage/memory"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/document_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/register_repo"
	"pharmaledger/pkg/logger"
)

// Ledger is the batch store together with pharmacy enumeration.
type Ledger interface {
	inventory.Ledger
	inventory.PharmacyLister
}

// Backend is a storage backend with every ledger service wired on top.
type Backend struct {
	Kind string

	// Pool and TxStore are nil for the memory backend.
	Pool    *postgres.Pool
	TxStore *postgres.TxManager

	TxManager tx.Manager
	Ledger    Ledger
	Publisher audit.Publisher
	Services  v1.Services

	// Idempotency is nil unless the backend is postgres and it is enabled.
	Idempotency  *postgres.IdempotencyStore
	HealthChecks map[string]handlers.Pinger

	// Memory exposes the in-process tables of the memory backend.
	Memory *memory.Repositories
}

// Close releases the backend's connections.
func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// RouterConfig fills the backend-dependent part of the HTTP router config.
func (b *Backend) RouterConfig(validator middleware.TokenValidator) v1.RouterConfig {
	cfg := v1.RouterConfig{
		Services:       b.Services,
		TokenValidator: validator,
		HealthChecks:   b.HealthChecks,
	}
	// A typed nil would switch the middleware on.
	if b.Idempotency != nil {
		cfg.Idempotency = b.Idempotency
	}
	return cfg
}

// OpenOptions tune OpenBackend.
type OpenOptions struct {
	// Migrate applies pending schema migrations before wiring.
	Migrate bool
}

// OpenBackend connects the configured storage and wires the services.
func OpenBackend(ctx context.Context, cfg Config, opts OpenOptions) (*Backend, error) {
	phone.SetDefaultRegion(cfg.DefaultPhoneRegion)

	switch cfg.StorageBackend {
	case BackendMemory:
		logger.Warn(ctx, "using in-memory storage; data is lost on exit")
		return NewMemoryBackend(), nil
	case BackendPostgres:
		return openPostgres(ctx, cfg, opts)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// NewMemoryBackend wires the services over a fresh in-memory store.
func NewMemoryBackend() *Backend {
	repos := memory.NewRepositories()
	journal := audit.NewJournal(repos.Journal, repos.Journal)

	return &Backend{
		Kind:      BackendMemory,
		TxManager: repos.Store,
		Ledger:    repos.Ledger,
		Publisher: repos.Journal,
		Services: wireServices(serviceDeps{
			txManager: repos.Store,
			ledger:    repos.Ledger,
			purchases: repos.Purchases,
			bills:     repos.Bills,
			customers: repos.Customers,
			suppliers: repos.Suppliers,
			products:  repos.Products,
			numerator: repos.Numerator,
			journal:   journal,
		}),
		HealthChecks: map[string]handlers.Pinger{"storage": repos.Store},
		Memory:       repos,
	}
}

func openPostgres(ctx context.Context, cfg Config, opts OpenOptions) (*Backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if opts.Migrate {
		if err := postgres.RunMigrations(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	txm := postgres.NewTxManager(pool)
	auditSvc, err := postgres.NewAuditService(txm)
	if err != nil {
		pool.Close()
		return nil, err
	}
	outbox := postgres.NewOutboxPublisher(txm)
	ledger := register_repo.NewLedgerRepo(txm)

	// Bill numbers come from the committing transaction.
	numbers := pgnumerator.NewWithQuerier(func(ctx context.Context) pgnumerator.Querier {
		return txm.GetQuerier(ctx)
	})

	b := &Backend{
		Kind:      BackendPostgres,
		Pool:      pool,
		TxStore:   txm,
		TxManager: txm,
		Ledger:    ledger,
		Publisher: outbox,
		Services: wireServices(serviceDeps{
			txManager: txm,
			ledger:    ledger,
			purchases: document_repo.NewPurchaseRepo(txm),
			bills:     document_repo.NewBillRepo(txm),
			customers: catalog_repo.NewCustomerRepo(txm),
			suppliers: catalog_repo.NewSupplierRepo(txm),
			products:  catalog_repo.NewProductRepo(txm),
			numerator: numbers,
			journal:   audit.NewJournal(auditSvc, outbox),
		}),
		HealthChecks: map[string]handlers.Pinger{"database": pool},
	}
	if cfg.IdempotencyEnabled {
		b.Idempotency = postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL)
	}
	return b, nil
}

type serviceDeps struct {
	txManager tx.Manager
	ledger    inventory.Ledger
	purchases purchase.Repository
	bills     billing.Repository
	customers customer.Repository
	suppliers supplier.Repository
	products  product.Repository
	numerator numerator.Generator
	journal   *audit.Journal
}

func wireServices(d serviceDeps) v1.Services {
	suppliers := supplier.NewService(d.suppliers, d.txManager)
	customers := customer.NewService(d.customers)
	products := product.NewService(d.products, d.txManager)

	return v1.Services{
		Purchases: purchase.NewReconciler(purchase.Config{
			Repo:      d.purchases,
			Ledger:    d.ledger,
			TxManager: d.txManager,
			Suppliers: suppliers,
			Journal:   d.journal,
		}),
		Bills: billing.NewEngine(billing.Config{
			Repo:      d.bills,
			Ledger:    d.ledger,
			TxManager: d.txManager,
			Numerator: d.numerator,
			Customers: customers,
			Journal:   d.journal,
		}),
		Inventory: inventory.NewService(d.ledger, xlsx.New()).WithThresholds(products),
		Customers: customers,
		Suppliers: suppliers,
		Products:  products,
	}
}
