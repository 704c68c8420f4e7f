package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/pkg/logger"
)

const (
	EntityType = "purchase"

	EventCreated = "purchase.created"
	EventUpdated = "purchase.updated"
	EventDeleted = "purchase.deleted"

	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// Reconciler applies purchase create, update and delete to the ledger.
// Each operation is one transaction: the purchase record and every batch it
// touches change together or not at all.
type Reconciler struct {
	repo      Repository
	ledger    inventory.Ledger
	txManager tx.Manager
	suppliers SupplierDirectory
	journal   *audit.Journal
	now       func() time.Time
}

// Config wires a Reconciler. Suppliers and Journal are optional.
type Config struct {
	Repo      Repository
	Ledger    inventory.Ledger
	TxManager tx.Manager
	Suppliers SupplierDirectory
	Journal   *audit.Journal
}

// NewReconciler creates a purchase reconciler.
func NewReconciler(cfg Config) *Reconciler {
	return &Reconciler{
		repo:      cfg.Repo,
		ledger:    cfg.Ledger,
		txManager: cfg.TxManager,
		suppliers: cfg.Suppliers,
		journal:   cfg.Journal,
		now:       time.Now,
	}
}

// Create normalizes every line, merges each into its batch and stores the
// canonical purchase.
func (r *Reconciler) Create(ctx context.Context, actor appctx.Actor, in CreateInput) (*Purchase, error) {
	items, err := NormalizeItems(in.Items)
	if err != nil {
		return nil, err
	}
	date, err := parsePurchaseDate(in.PurchaseDate, r.now())
	if err != nil {
		return nil, err
	}
	supplierName, err := r.resolveSupplier(ctx, actor.PharmacyID, in.SupplierID, in.SupplierName)
	if err != nil {
		return nil, err
	}

	p := &Purchase{
		BaseEntity:   entity.NewBaseEntity(actor.PharmacyID, actor.ActorID),
		SupplierID:   normalizeSupplierID(in.SupplierID),
		SupplierName: supplierName,
		InvoiceNo:    strings.TrimSpace(in.InvoiceNo),
		PurchaseDate: date,
		Items:        items,
		Notes:        strings.TrimSpace(in.Notes),
	}
	p.recalculate()

	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range p.Items {
			b, err := r.ledger.UpsertBatch(ctx, p.Items[i].arrival(p.PharmacyID, p.SupplierID, p.Items[i].TotalUnits), actor.ActorID)
			if err != nil {
				return fmt.Errorf("merge item %d: %w", i, err)
			}
			p.Items[i].InventoryID = &b.ID
		}
		if err := r.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return r.journal.Write(ctx,
			audit.Entry{EntityType: EntityType, EntityID: p.ID, PharmacyID: p.PharmacyID, ActorID: actor.ActorID, Action: audit.ActionCreate, Changes: p},
			audit.Event{AggregateType: EntityType, AggregateID: p.ID, EventType: EventCreated, Payload: eventPayload(p)},
		)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase created",
		"purchase_id", p.ID,
		"items", len(p.Items),
		"total_amount", p.TotalAmount.String(),
	)
	return p, nil
}

// Update applies a partial update. With updateInventory the ledger receives
// only the per-line difference against the stored lines; without it only the
// record changes.
func (r *Reconciler) Update(ctx context.Context, actor appctx.Actor, purchaseID id.ID, in UpdateInput, updateInventory bool) (*Purchase, error) {
	var newItems []Item
	if in.Items != nil {
		items, err := NormalizeItems(*in.Items)
		if err != nil {
			return nil, err
		}
		newItems = items
	}
	var date *time.Time
	if in.PurchaseDate != nil {
		d, err := parsePurchaseDate(*in.PurchaseDate, r.now())
		if err != nil {
			return nil, err
		}
		date = &d
	}

	var result *Purchase
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		old, err := r.repo.GetForUpdate(ctx, actor.PharmacyID, purchaseID)
		if err != nil {
			return err
		}

		next := *old
		next.Items = cloneItems(old.Items)
		if in.SupplierID != nil {
			next.SupplierID = normalizeSupplierID(in.SupplierID)
		}
		if in.SupplierID != nil || in.SupplierName != nil {
			given := next.SupplierName
			if in.SupplierName != nil {
				given = *in.SupplierName
			} else if in.SupplierID != nil {
				given = ""
			}
			name, err := r.resolveSupplier(ctx, actor.PharmacyID, next.SupplierID, given)
			if err != nil {
				return err
			}
			next.SupplierName = name
		}
		if in.InvoiceNo != nil {
			next.InvoiceNo = strings.TrimSpace(*in.InvoiceNo)
		}
		if in.Notes != nil {
			next.Notes = strings.TrimSpace(*in.Notes)
		}
		if date != nil {
			next.PurchaseDate = *date
		}
		if newItems != nil {
			next.Items = newItems
		}

		if updateInventory {
			if err := r.reconcile(ctx, actor, old, &next); err != nil {
				return err
			}
		} else {
			carryInventoryIDs(old, &next)
		}

		next.recalculate()
		next.Touch(actor.ActorID)
		if err := r.repo.Update(ctx, &next); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}

		result = &next
		return r.journal.Write(ctx,
			audit.Entry{EntityType: EntityType, EntityID: next.ID, PharmacyID: next.PharmacyID, ActorID: actor.ActorID, Action: audit.ActionUpdate,
				Changes: map[string]any{"before": old, "after": &next, "update_inventory": updateInventory}},
			audit.Event{AggregateType: EntityType, AggregateID: next.ID, EventType: EventUpdated, Payload: eventPayload(&next)},
		)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase updated",
		"purchase_id", purchaseID,
		"update_inventory", updateInventory,
		"items", len(result.Items),
	)
	return result, nil
}

// reconcile diffs old against next line by line and applies the signed
// differences to the ledger, filling InventoryID on next's lines.
func (r *Reconciler) reconcile(ctx context.Context, actor appctx.Actor, old, next *Purchase) error {
	pending := make(map[string][]int, len(old.Items))
	for i, it := range old.Items {
		k := it.matchKey()
		pending[k] = append(pending[k], i)
	}

	type pair struct{ oldIdx, newIdx int }
	var (
		matched []pair
		added   []int
	)
	for j, it := range next.Items {
		k := it.matchKey()
		if q := pending[k]; len(q) > 0 {
			matched = append(matched, pair{oldIdx: q[0], newIdx: j})
			pending[k] = q[1:]
			continue
		}
		added = append(added, j)
	}

	var removed []int
	for _, q := range pending {
		removed = append(removed, q...)
	}

	// Lines whose batch key moved are a removal plus an addition.
	var sameKey []pair
	for _, m := range matched {
		oldKey := old.Items[m.oldIdx].batchKey(old.PharmacyID, old.SupplierID)
		newKey := next.Items[m.newIdx].batchKey(next.PharmacyID, next.SupplierID)
		if oldKey.Equal(newKey) {
			sameKey = append(sameKey, m)
			continue
		}
		removed = append(removed, m.oldIdx)
		added = append(added, m.newIdx)
	}

	for _, i := range removed {
		if err := r.withdrawItem(ctx, old.PharmacyID, old.SupplierID, old.Items[i]); err != nil {
			return fmt.Errorf("withdraw item %d: %w", i, err)
		}
	}

	for _, m := range sameKey {
		prev, cur := old.Items[m.oldIdx], &next.Items[m.newIdx]
		if err := r.applyDelta(ctx, actor, next, prev, cur); err != nil {
			return fmt.Errorf("reconcile item %d: %w", m.newIdx, err)
		}
	}

	for _, j := range added {
		it := &next.Items[j]
		b, err := r.ledger.UpsertBatch(ctx, it.arrival(next.PharmacyID, next.SupplierID, it.TotalUnits), actor.ActorID)
		if err != nil {
			return fmt.Errorf("merge item %d: %w", j, err)
		}
		it.InventoryID = &b.ID
	}
	return nil
}

// applyDelta moves a matched line from prev to cur inside the same batch.
func (r *Reconciler) applyDelta(ctx context.Context, actor appctx.Actor, p *Purchase, prev Item, cur *Item) error {
	batchID, err := r.batchIDFor(ctx, p.PharmacyID, p.SupplierID, prev)
	if err != nil {
		return err
	}
	delta := cur.TotalUnits - prev.TotalUnits

	if batchID == nil {
		// The earlier line never reached the ledger (or its batch was deleted).
		b, err := r.ledger.UpsertBatch(ctx, cur.arrival(p.PharmacyID, p.SupplierID, cur.TotalUnits), actor.ActorID)
		if err != nil {
			return err
		}
		cur.InventoryID = &b.ID
		return nil
	}

	cur.InventoryID = batchID
	switch {
	case delta > 0:
		b, err := r.ledger.UpsertBatch(ctx, cur.arrival(p.PharmacyID, p.SupplierID, delta), actor.ActorID)
		if err != nil {
			return err
		}
		cur.InventoryID = &b.ID
		return nil
	case delta < 0:
		// Units already sold cannot be un-purchased.
		_, err := r.ledger.Deduct(ctx, p.PharmacyID, *batchID, -delta)
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "batch already deleted, skipping reduction", "inventory_id", *batchID)
			cur.InventoryID = nil
			return nil
		}
		if err != nil {
			return err
		}
	}

	if prev.PriceEquals(cur.Canonical) {
		return nil
	}
	err = r.ledger.RefreshPrices(ctx, p.PharmacyID, *batchID, cur.priceHints(), actor.ActorID)
	if apperror.IsNotFound(err) {
		logger.Warn(ctx, "batch already deleted, skipping price refresh", "inventory_id", *batchID)
		cur.InventoryID = nil
		return nil
	}
	return err
}

// Delete removes a purchase. With deleteInventory every line's units are
// taken back out of its batch; batches that no longer exist are skipped.
func (r *Reconciler) Delete(ctx context.Context, actor appctx.Actor, purchaseID id.ID, deleteInventory bool) (DeleteResult, error) {
	var res DeleteResult
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		res = DeleteResult{}
		p, err := r.repo.GetForUpdate(ctx, actor.PharmacyID, purchaseID)
		if err != nil {
			return err
		}

		if deleteInventory {
			for _, it := range p.Items {
				ok, err := r.reverseItem(ctx, p.PharmacyID, p.SupplierID, it, it.TotalUnits)
				if err != nil {
					return err
				}
				if ok {
					res.ReversedInventoryItems++
				} else {
					res.SkippedInventoryItems++
				}
			}
		}

		if err := r.repo.Delete(ctx, p.PharmacyID, p.ID); err != nil {
			return fmt.Errorf("delete purchase: %w", err)
		}
		return r.journal.Write(ctx,
			audit.Entry{EntityType: EntityType, EntityID: p.ID, PharmacyID: p.PharmacyID, ActorID: actor.ActorID, Action: audit.ActionDelete,
				Changes: map[string]any{"purchase": p, "delete_inventory": deleteInventory}},
			audit.Event{AggregateType: EntityType, AggregateID: p.ID, EventType: EventDeleted,
				Payload: map[string]any{"purchase_id": p.ID, "reversed_inventory_items": res.ReversedInventoryItems}},
		)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	logger.Info(ctx, "purchase deleted",
		"purchase_id", purchaseID,
		"delete_inventory", deleteInventory,
		"reversed", res.ReversedInventoryItems,
		"skipped", res.SkippedInventoryItems,
	)
	return res, nil
}

// withdrawItem takes a dropped line's units back out of its batch during an
// update. Unlike reverseItem it refuses to go below zero, so a line whose
// stock was partly sold fails the whole update with INSUFFICIENT_STOCK.
func (r *Reconciler) withdrawItem(ctx context.Context, pharmacyID id.ID, supplierID *id.ID, it Item) error {
	batchID, err := r.batchIDFor(ctx, pharmacyID, supplierID, it)
	if err != nil {
		return err
	}
	if batchID == nil {
		logger.Warn(ctx, "purchase line has no batch to withdraw", "product_name", it.ProductName, "batch_no", it.BatchNo)
		return nil
	}
	_, err = r.ledger.Deduct(ctx, pharmacyID, *batchID, it.TotalUnits)
	if apperror.IsNotFound(err) {
		logger.Warn(ctx, "batch already deleted, skipping withdrawal", "inventory_id", *batchID)
		return nil
	}
	return err
}

// reverseItem takes qty units of a line back out of its batch. It reports
// false when the batch no longer exists.
func (r *Reconciler) reverseItem(ctx context.Context, pharmacyID id.ID, supplierID *id.ID, it Item, qty int64) (bool, error) {
	batchID, err := r.batchIDFor(ctx, pharmacyID, supplierID, it)
	if err != nil {
		return false, err
	}
	if batchID == nil {
		logger.Warn(ctx, "purchase line has no batch to reverse", "product_name", it.ProductName, "batch_no", it.BatchNo)
		return false, nil
	}

	b, err := r.ledger.Reverse(ctx, pharmacyID, *batchID, qty)
	if apperror.IsNotFound(err) {
		logger.Warn(ctx, "batch already deleted, skipping reversal", "inventory_id", *batchID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if b.AvailableQuantity < 0 {
		logger.Warn(ctx, "batch went negative after purchase reversal",
			"inventory_id", b.ID,
			"available_quantity", b.AvailableQuantity,
		)
	}
	return true, nil
}

// batchIDFor returns the batch a stored line merged into. Lines recorded
// without an inventory id fall back to a key lookup.
func (r *Reconciler) batchIDFor(ctx context.Context, pharmacyID id.ID, supplierID *id.ID, it Item) (*id.ID, error) {
	if it.InventoryID != nil {
		return it.InventoryID, nil
	}
	b, err := r.ledger.GetByKey(ctx, it.batchKey(pharmacyID, supplierID))
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b.ID, nil
}

// Get returns one purchase.
func (r *Reconciler) Get(ctx context.Context, pharmacyID, purchaseID id.ID) (*Purchase, error) {
	return r.repo.GetByID(ctx, pharmacyID, purchaseID)
}

// List returns a page of purchases, newest first by default.
func (r *Reconciler) List(ctx context.Context, pharmacyID id.ID, filter domain.ListFilter) (domain.ListResult[Purchase], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "-purchase_date"
	}
	return r.repo.List(ctx, pharmacyID, filter.Normalized())
}

// PriceHistory lists what the pharmacy paid for a product over time.
func (r *Reconciler) PriceHistory(ctx context.Context, pharmacyID id.ID, productName string, limit int) ([]PricePoint, error) {
	key := inventory.NormalizeName(productName)
	if key == "" {
		return nil, apperror.NewFieldValidation("product_name", "product_name is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return r.repo.PriceHistory(ctx, pharmacyID, key, limit)
}

func (r *Reconciler) resolveSupplier(ctx context.Context, pharmacyID id.ID, supplierID *id.ID, given string) (string, error) {
	given = strings.TrimSpace(given)
	supplierID = normalizeSupplierID(supplierID)
	if supplierID == nil || r.suppliers == nil {
		return given, nil
	}
	name, err := r.suppliers.SupplierName(ctx, pharmacyID, *supplierID)
	if apperror.IsNotFound(err) {
		return "", apperror.NewFieldValidation("supplier_id", "unknown supplier")
	}
	if err != nil {
		return "", err
	}
	if given != "" {
		return given, nil
	}
	return name, nil
}

// carryInventoryIDs keeps batch references when the ledger is left untouched:
// the units of a matched line still sit in the batch the old line fed.
func carryInventoryIDs(old, next *Purchase) {
	byMatch := make(map[string][]Item, len(old.Items))
	for _, it := range old.Items {
		byMatch[it.matchKey()] = append(byMatch[it.matchKey()], it)
	}
	for j := range next.Items {
		cur := &next.Items[j]
		if cur.InventoryID != nil {
			continue
		}
		q := byMatch[cur.matchKey()]
		if len(q) == 0 {
			continue
		}
		cur.InventoryID = q[0].InventoryID
		byMatch[cur.matchKey()] = q[1:]
	}
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func normalizeSupplierID(v *id.ID) *id.ID {
	if v == nil || id.IsNil(*v) {
		return nil
	}
	c := *v
	return &c
}

func eventPayload(p *Purchase) map[string]any {
	return map[string]any{
		"purchase_id":   p.ID,
		"supplier_id":   p.SupplierID,
		"invoice_no":    p.InvoiceNo,
		"total_amount":  p.TotalAmount,
		"items":         len(p.Items),
		"purchase_date": p.PurchaseDate.Format("2006-01-02"),
	}
}
