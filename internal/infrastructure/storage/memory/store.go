// Package memory is an in-process storage backend. It implements every
// repository with the same contracts as the postgres backend and serializes
// transactions behind one lock; a failed transaction restores the snapshot
// taken when it began.
package memory

import (
	"bytes"
	"context"
	"maps"
	"sort"
	"strings"
	"sync"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/catalogs/supplier"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/purchase"
)

type state struct {
	batches   map[id.ID]inventory.Batch
	batchKeys map[string]id.ID
	purchases map[id.ID]purchase.Purchase
	bills     map[id.ID]billing.Bill
	customers map[id.ID]customer.Customer
	suppliers map[id.ID]supplier.Supplier
	products  map[id.ID]product.Product
	sequences map[string]int64
	audit     []audit.Entry
	events    []audit.Event
}

func newState() *state {
	return &state{
		batches:   make(map[id.ID]inventory.Batch),
		batchKeys: make(map[string]id.ID),
		purchases: make(map[id.ID]purchase.Purchase),
		bills:     make(map[id.ID]billing.Bill),
		customers: make(map[id.ID]customer.Customer),
		suppliers: make(map[id.ID]supplier.Supplier),
		products:  make(map[id.ID]product.Product),
		sequences: make(map[string]int64),
	}
}

// clone copies the maps. Stored values are never mutated in place, so a
// shallow copy is a consistent snapshot.
func (s *state) clone() *state {
	return &state{
		batches:   maps.Clone(s.batches),
		batchKeys: maps.Clone(s.batchKeys),
		purchases: maps.Clone(s.purchases),
		bills:     maps.Clone(s.bills),
		customers: maps.Clone(s.customers),
		suppliers: maps.Clone(s.suppliers),
		products:  maps.Clone(s.products),
		sequences: maps.Clone(s.sequences),
		audit:     append([]audit.Entry(nil), s.audit...),
		events:    append([]audit.Event(nil), s.events...),
	}
}

// Store owns all in-memory tables.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New creates an empty store.
func New() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store unless ctx already runs inside one of its transactions.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunInTransaction implements tx.Manager.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
		if err != nil {
			s.state = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

var _ tx.ReadOnlyManager = (*Store)(nil)

// Ping reports readiness; the store is ready while ctx is live.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Repositories bundles the repositories backed by one store.
type Repositories struct {
	Store     *Store
	Ledger    *Ledger
	Purchases *Purchases
	Bills     *Bills
	Customers *Customers
	Suppliers *Suppliers
	Products  *Products
	Numerator *Numerator
	Journal   *Journal
}

// NewRepositories creates a store with all repositories attached.
func NewRepositories() *Repositories {
	s := New()
	return &Repositories{
		Store:     s,
		Ledger:    &Ledger{s: s},
		Purchases: &Purchases{s: s},
		Bills:     &Bills{s: s},
		Customers: &Customers{s: s},
		Suppliers: &Suppliers{s: s},
		Products:  &Products{s: s},
		Numerator: &Numerator{s: s},
		Journal:   &Journal{s: s},
	}
}

// --- list helpers ---

type comparator[T any] func(a, b T) int

// sortBy orders items by a "field" or "-field" spec, falling back to def.
func sortBy[T any](items []T, orderBy, def string, fields map[string]comparator[T]) {
	if orderBy == "" {
		orderBy = def
	}
	desc := strings.HasPrefix(orderBy, "-")
	cmp, ok := fields[strings.TrimPrefix(orderBy, "-")]
	if !ok {
		desc = strings.HasPrefix(def, "-")
		cmp = fields[strings.TrimPrefix(def, "-")]
	}
	if cmp == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		c := cmp(items[i], items[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func paginate[T any](items []T, f domain.ListFilter) domain.ListResult[T] {
	f = f.Normalized()
	total := len(items)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	page := make([]T, 0, end-start)
	page = append(page, items[start:end]...)
	return domain.ListResult[T]{
		Items:      page,
		TotalCount: int64(total),
		Limit:      f.Limit,
		Offset:     f.Offset,
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// compareIDs orders ids by their bytes, as PostgreSQL orders uuid columns.
func compareIDs(a, b id.ID) int {
	return bytes.Compare(a[:], b[:])
}
