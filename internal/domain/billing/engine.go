package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/entity"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/core/tx"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/pkg/logger"
)

const (
	EntityType = "bill"

	EventCommitted = "bill.committed"
	EventUpdated   = "bill.updated"
	EventDeleted   = "bill.deleted"
	EventPaid      = "bill.paid"

	CodeAlreadyPaid = "BILL_ALREADY_PAID"
)

// Engine previews, commits, edits and deletes bills.
//
// Commit and edit deduct stock with the ledger's conditional decrement inside
// one transaction, so a shortage on any line leaves every batch untouched.
type Engine struct {
	repo      Repository
	ledger    inventory.Ledger
	txManager tx.Manager
	numerator numerator.Generator
	customers Customers
	journal   *audit.Journal
	now       func() time.Time
}

// Config wires an Engine. Customers and Journal are optional.
type Config struct {
	Repo      Repository
	Ledger    inventory.Ledger
	TxManager tx.Manager
	Numerator numerator.Generator
	Customers Customers
	Journal   *audit.Journal
}

// NewEngine creates a billing engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		repo:      cfg.Repo,
		ledger:    cfg.Ledger,
		txManager: cfg.TxManager,
		numerator: cfg.Numerator,
		customers: cfg.Customers,
		journal:   cfg.Journal,
		now:       time.Now,
	}
}

// Preview computes a bill without persisting or deducting anything.
// Shortages are reported as warnings; commit re-checks them.
func (e *Engine) Preview(ctx context.Context, actor appctx.Actor, in Input) (*Preview, error) {
	if err := validateInput(in.Items, in.DiscountPercent); err != nil {
		return nil, err
	}

	out := &Preview{StockWarnings: []StockWarning{}}
	items := make([]Item, len(in.Items))
	for i, line := range in.Items {
		if line.IsManual() {
			items[i] = manualItem(line)
			continue
		}
		b, err := e.ledger.GetByID(ctx, actor.PharmacyID, *line.InventoryID)
		if err != nil {
			return nil, itemErr(i, err)
		}
		if b.AvailableQuantity < line.Quantity {
			out.StockWarnings = append(out.StockWarnings, StockWarning{
				InventoryID: b.ID,
				ProductName: b.ProductName,
				Requested:   line.Quantity,
				Available:   b.AvailableQuantity,
				Message:     fmt.Sprintf("only %d units of %s in stock", b.AvailableQuantity, b.ProductName),
			})
		}
		items[i] = batchItem(line, b)
	}

	t := Summarize(items, in.DiscountPercent)
	out.Items = items
	out.Subtotal = t.Subtotal
	out.DiscountPercent = in.DiscountPercent
	out.DiscountAmount = t.DiscountAmount
	out.GrandTotal = t.GrandTotal
	out.TotalProfit = t.Profit
	out.TotalCost = t.TotalCost
	out.MissingCostLines = t.MissingCostLines
	out.InventoryBilledQty = t.InventoryBilledQty
	out.ManualBilledQty = t.ManualBilledQty
	return out, nil
}

// Commit numbers, deducts and persists a bill.
func (e *Engine) Commit(ctx context.Context, actor appctx.Actor, in Input) (*Bill, error) {
	if err := validateInput(in.Items, in.DiscountPercent); err != nil {
		return nil, err
	}

	b := &Bill{
		BaseEntity:      entity.NewBaseEntity(actor.PharmacyID, actor.ActorID),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		DiscountPercent: in.DiscountPercent,
		IsPaid:          in.paid(),
		Notes:           strings.TrimSpace(in.Notes),
	}
	if b.IsPaid {
		paidAt := b.CreatedAt
		b.PaidAt = &paidAt
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// The counter row stays locked until commit, so numbers are gapless
		// and follow commit order within a pharmacy.
		no, err := e.numerator.GetNextNumber(ctx, numerator.BillConfig(actor.PharmacyID.String()), numerator.DefaultOptions(), b.CreatedAt)
		if err != nil {
			return fmt.Errorf("allocate bill number: %w", err)
		}
		b.BillNo = no

		items, err := e.deductAll(ctx, actor.PharmacyID, in.Items)
		if err != nil {
			return err
		}
		b.Items = items
		b.applyTotals(Summarize(items, b.DiscountPercent))

		if err := e.attachCustomer(ctx, b, b.CustomerName, in.CustomerMobile); err != nil {
			return err
		}
		if err := e.adjustDebt(ctx, b.PharmacyID, b.CustomerID, b.Outstanding()); err != nil {
			return err
		}

		if err := e.repo.Create(ctx, b); err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
		return e.journal.Write(ctx,
			audit.Entry{EntityType: EntityType, EntityID: b.ID, PharmacyID: b.PharmacyID, ActorID: actor.ActorID, Action: audit.ActionCreate, Changes: b},
			audit.Event{AggregateType: EntityType, AggregateID: b.ID, EventType: EventCommitted, Payload: eventPayload(b)},
		)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bill committed",
		"bill_id", b.ID,
		"bill_no", b.BillNo,
		"grand_total", b.GrandTotal.String(),
		"profit", b.Profit.String(),
	)
	return b, nil
}

// Update edits a committed bill in place. When items change, every old
// ledger line is restored and every new one deducted in the same
// transaction; bill_no never changes.
func (e *Engine) Update(ctx context.Context, actor appctx.Actor, billID id.ID, in UpdateInput) (*Bill, error) {
	if in.Items != nil {
		if err := validateInput(*in.Items, decimal.Zero); err != nil {
			return nil, err
		}
	}
	if in.DiscountPercent != nil {
		if err := ValidateDiscount("discount_percent", *in.DiscountPercent); err != nil {
			return nil, err
		}
	}

	var result *Bill
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		old, err := e.repo.GetForUpdate(ctx, actor.PharmacyID, billID)
		if err != nil {
			return err
		}
		next := *old
		next.Items = append([]Item(nil), old.Items...)

		if in.Items != nil {
			if _, _, err := e.restoreAll(ctx, old); err != nil {
				return err
			}
			items, err := e.deductAll(ctx, actor.PharmacyID, *in.Items)
			if err != nil {
				return err
			}
			next.Items = items
		}
		if in.DiscountPercent != nil {
			next.DiscountPercent = *in.DiscountPercent
		}
		if in.Notes != nil {
			next.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.IsPaid != nil && *in.IsPaid != old.IsPaid {
			next.IsPaid = *in.IsPaid
			next.PaidAt = nil
			if next.IsPaid {
				now := e.now().UTC()
				next.PaidAt = &now
			}
		}
		if in.CustomerName != nil || in.CustomerMobile != nil {
			name, mobile := next.CustomerName, next.CustomerMobile
			if in.CustomerName != nil {
				name = strings.TrimSpace(*in.CustomerName)
			}
			if in.CustomerMobile != nil {
				mobile = *in.CustomerMobile
			}
			next.CustomerName = name
			if err := e.attachCustomer(ctx, &next, name, mobile); err != nil {
				return err
			}
		}
		next.applyTotals(Summarize(next.Items, next.DiscountPercent))

		if err := e.adjustDebt(ctx, old.PharmacyID, old.CustomerID, old.Outstanding().Neg()); err != nil {
			return err
		}
		if err := e.adjustDebt(ctx, next.PharmacyID, next.CustomerID, next.Outstanding()); err != nil {
			return err
		}

		next.Touch(actor.ActorID)
		if err := e.repo.Update(ctx, &next); err != nil {
			return fmt.Errorf("update bill: %w", err)
		}
		result = &next
		return e.journal.Write(ctx,
			audit.Entry{EntityType: EntityType, EntityID: next.ID, PharmacyID: next.PharmacyID, ActorID: actor.ActorID, Action: audit.ActionUpdate,
				Changes: map[string]any{"before": old, "after": &next}},
			audit.Event{AggregateType: EntityType, AggregateID: next.ID, EventType: EventUpdated, Payload: eventPayload(&next)},
		)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bill updated", "bill_id", billID, "bill_no", result.BillNo, "items_replaced", in.Items != nil)
	return result, nil
}

// Delete removes a bill. With restoreInventory the units of every ledger
// line go back to their batches; batches deleted since are skipped.
func (e *Engine) Delete(ctx context.Context, actor appctx.Actor, billID id.ID, restoreInventory bool) (DeleteResult, error) {
	var res DeleteResult
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		res = DeleteResult{}
		b, err := e.repo.GetForUpdate(ctx, actor.PharmacyID, billID)
		if err != nil {
			return err
		}

		if restoreInventory {
			restored, skipped, err := e.restoreAll(ctx, b)
			if err != nil {
				return err
			}
			res.RestoredInventoryItems = restored
			res.SkippedInventoryItems = skipped
		}

		if err := e.adjustDebt(ctx, b.PharmacyID, b.CustomerID, b.Outstanding().Neg()); err != nil {
			return err
		}
		if err := e.repo.Delete(ctx, b.PharmacyID, b.ID); err != nil {
			return fmt.Errorf("delete bill: %w", err)
		}
		return e.journal.Write(ctx,
			audit.Entry{EntityType: EntityType, EntityID: b.ID, PharmacyID: b.PharmacyID, ActorID: actor.ActorID, Action: audit.ActionDelete,
				Changes: map[string]any{"bill": b, "restore_inventory": restoreInventory}},
			audit.Event{AggregateType: EntityType, AggregateID: b.ID, EventType: EventDeleted,
				Payload: map[string]any{"bill_id": b.ID, "bill_no": b.BillNo, "restored_inventory_items": res.RestoredInventoryItems}},
		)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	logger.Info(ctx, "bill deleted",
		"bill_id", billID,
		"restore_inventory", restoreInventory,
		"restored", res.RestoredInventoryItems,
	)
	return res, nil
}

// MarkPaid settles an unpaid bill and clears its share of customer debt.
func (e *Engine) MarkPaid(ctx context.Context, actor appctx.Actor, billID id.ID) (*Bill, error) {
	var result *Bill
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := e.repo.GetForUpdate(ctx, actor.PharmacyID, billID)
		if err != nil {
			return err
		}
		if b.IsPaid {
			return apperror.NewBusinessRule(CodeAlreadyPaid, "Bill is already paid").WithDetail("bill_no", b.BillNo)
		}
		if err := e.adjustDebt(ctx, b.PharmacyID, b.CustomerID, b.GrandTotal.Neg()); err != nil {
			return err
		}

		now := e.now().UTC()
		b.IsPaid = true
		b.PaidAt = &now
		b.Touch(actor.ActorID)
		if err := e.repo.Update(ctx, b); err != nil {
			return fmt.Errorf("update bill: %w", err)
		}
		result = b
		return e.journal.Write(ctx,
			audit.Entry{EntityType: EntityType, EntityID: b.ID, PharmacyID: b.PharmacyID, ActorID: actor.ActorID, Action: audit.ActionMarkPaid,
				Changes: map[string]any{"is_paid": true, "paid_at": now}},
			audit.Event{AggregateType: EntityType, AggregateID: b.ID, EventType: EventPaid, Payload: eventPayload(b)},
		)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns one bill.
func (e *Engine) Get(ctx context.Context, pharmacyID, billID id.ID) (*Bill, error) {
	return e.repo.GetByID(ctx, pharmacyID, billID)
}

// List returns a page of bills, newest first by default.
func (e *Engine) List(ctx context.Context, pharmacyID id.ID, filter ListFilter) (domain.ListResult[Bill], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "-created_at"
	}
	filter.ListFilter = filter.ListFilter.Normalized()
	return e.repo.List(ctx, pharmacyID, filter)
}

// deductAll takes stock for every ledger line and computes all lines. The
// cost snapshot comes from the batch as it was at deduction.
func (e *Engine) deductAll(ctx context.Context, pharmacyID id.ID, lines []ItemInput) ([]Item, error) {
	items := make([]Item, len(lines))
	for i, line := range lines {
		if line.IsManual() {
			items[i] = manualItem(line)
			continue
		}
		b, err := e.ledger.Deduct(ctx, pharmacyID, *line.InventoryID, line.Quantity)
		if err != nil {
			return nil, itemErr(i, err)
		}
		items[i] = batchItem(line, b)
	}
	return items, nil
}

// restoreAll puts back the units of every ledger line of b.
func (e *Engine) restoreAll(ctx context.Context, b *Bill) (restored, skipped int, err error) {
	for _, it := range b.Items {
		if it.IsManual || it.InventoryID == nil {
			continue
		}
		_, err := e.ledger.Restore(ctx, b.PharmacyID, *it.InventoryID, it.Quantity)
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "batch no longer exists, skipping restore",
				"bill_no", b.BillNo,
				"inventory_id", *it.InventoryID,
				"quantity", it.Quantity,
			)
			skipped++
			continue
		}
		if err != nil {
			return restored, skipped, err
		}
		restored++
	}
	return restored, skipped, nil
}

func (e *Engine) attachCustomer(ctx context.Context, b *Bill, name, mobile string) error {
	b.CustomerMobile = strings.TrimSpace(mobile)
	b.CustomerID = nil
	if e.customers == nil {
		return nil
	}
	customerID, normalized, err := e.customers.Resolve(ctx, b.PharmacyID, name, mobile)
	if err != nil {
		return err
	}
	b.CustomerID = customerID
	b.CustomerMobile = normalized
	return nil
}

func (e *Engine) adjustDebt(ctx context.Context, pharmacyID id.ID, customerID *id.ID, delta decimal.Decimal) error {
	if e.customers == nil || customerID == nil || delta.IsZero() {
		return nil
	}
	return e.customers.AdjustDebt(ctx, pharmacyID, *customerID, delta)
}

func manualItem(line ItemInput) Item {
	it := Item{
		ProductName:     strings.TrimSpace(line.ProductName),
		BatchNo:         strings.TrimSpace(line.BatchNo),
		Quantity:        line.Quantity,
		UnitPrice:       *line.UnitPrice,
		DiscountPercent: line.DiscountPercent,
		IsManual:        true,
	}
	ComputeLine(&it, line.PurchasePrice)
	return it
}

func batchItem(line ItemInput, b *inventory.Batch) Item {
	batchID := b.ID
	it := Item{
		InventoryID:     &batchID,
		ProductName:     b.ProductName,
		BatchNo:         b.BatchNo,
		ExpiryDate:      b.ExpiryDate,
		Quantity:        line.Quantity,
		UnitPrice:       b.MRP,
		DiscountPercent: line.DiscountPercent,
	}
	if line.UnitPrice != nil {
		it.UnitPrice = *line.UnitPrice
	}
	cost := b.PurchasePrice
	ComputeLine(&it, &cost)
	return it
}

func itemErr(index int, err error) error {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.WithDetail("item_index", index)
	}
	return fmt.Errorf("item %d: %w", index, err)
}

func eventPayload(b *Bill) map[string]any {
	return map[string]any{
		"bill_id":     b.ID,
		"bill_no":     b.BillNo,
		"customer_id": b.CustomerID,
		"grand_total": b.GrandTotal,
		"profit":      b.Profit,
		"is_paid":     b.IsPaid,
		"items":       len(b.Items),
	}
}
