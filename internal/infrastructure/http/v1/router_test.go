package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/audit"
	"pharmaledger/internal/domain/auth"
	"pharmaledger/internal/domain/billing"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/domain/catalogs/supplier"
	"pharmaledger/internal/domain/inventory"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/infrastructure/export/xlsx"
	v1 "pharmaledger/internal/infrastructure/http/v1"
	"pharmaledger/internal/infrastructure/http/v1/dto"
	"pharmaledger/internal/infrastructure/http/v1/handlers"
	"pharmaledger/internal/infrastructure/storage/memory"
)

type apiFixture struct {
	router     http.Handler
	repos      *memory.Repositories
	pharmacist string
	admin      string
	outsider   string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	repos := memory.NewRepositories()
	journal := audit.NewJournal(repos.Journal, repos.Journal)
	suppliers := supplier.NewService(repos.Suppliers, repos.Store)
	customers := customer.NewService(repos.Customers)
	products := product.NewService(repos.Products, repos.Store)

	jwtSvc, err := auth.NewJWTService(auth.DefaultJWTConfig("router-test-secret-0123456789"))
	require.NoError(t, err)

	router, err := v1.NewRouter(v1.RouterConfig{
		Services: v1.Services{
			Purchases: purchase.NewReconciler(purchase.Config{
				Repo: repos.Purchases, Ledger: repos.Ledger, TxManager: repos.Store,
				Suppliers: suppliers, Journal: journal,
			}),
			Bills: billing.NewEngine(billing.Config{
				Repo: repos.Bills, Ledger: repos.Ledger, TxManager: repos.Store,
				Numerator: repos.Numerator, Customers: customers, Journal: journal,
			}),
			Inventory: inventory.NewService(repos.Ledger, xlsx.New()).WithThresholds(products),
			Customers: customers,
			Suppliers: suppliers,
			Products:  products,
		},
		TokenValidator: jwtSvc,
		HealthChecks:   map[string]handlers.Pinger{"storage": repos.Store},
	})
	require.NoError(t, err)

	pharmacyID := id.New()
	mint := func(pid id.ID, roles ...string) string {
		tok, _, err := jwtSvc.GenerateAccessToken(appctx.Actor{ActorID: id.New(), PharmacyID: pid, Roles: roles})
		require.NoError(t, err)
		return tok
	}

	return &apiFixture{
		router:     router,
		repos:      repos,
		pharmacist: mint(pharmacyID, appctx.RolePharmacist),
		admin:      mint(pharmacyID, appctx.RoleAdmin),
		outsider:   mint(id.New(), appctx.RoleAdmin),
	}
}

func (f *apiFixture) do(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *apiFixture) receive(t *testing.T, name string, qty int) purchase.Purchase {
	t.Helper()
	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/purchases", map[string]any{
		"supplier_name": "Acme Pharma",
		"invoice_no":    "INV-1",
		"items": []map[string]any{{
			"product_name":   name,
			"batch_no":       "B1",
			"expiry_date":    time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
			"quantity":       qty,
			"purchase_price": "1.50",
			"mrp":            "2.00",
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[purchase.Purchase](t, w)
}

func TestHealth_NoAuth(t *testing.T) {
	f := newAPI(t)

	assert.Equal(t, http.StatusOK, f.do(t, "", http.MethodGet, "/api/v1/health/live", nil).Code)

	w := f.do(t, "", http.MethodGet, "/api/v1/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"healthy"`)
}

func TestAuth_Required(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, "", http.MethodGet, "/api/v1/purchases", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, decode[dto.ErrorResponse](t, w).Code)

	w = f.do(t, "not-a-token", http.MethodGet, "/api/v1/purchases", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPurchaseBillRoundTrip(t *testing.T) {
	f := newAPI(t)
	p := f.receive(t, "Paracetamol 500", 100)
	require.Len(t, p.Items, 1)
	require.NotNil(t, p.Items[0].InventoryID)
	batchID := p.Items[0].InventoryID.String()

	w := f.do(t, f.pharmacist, http.MethodGet, "/api/v1/inventory/search?q=parac", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[dto.InventorySearchResponse](t, w)
	require.Equal(t, 1, found.Count)
	assert.Equal(t, int64(100), found.Inventory[0].AvailableQuantity)

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/bills/preview", map[string]any{
		"items": []map[string]any{{"inventory_id": batchID, "quantity": 10}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[billing.Preview](t, w)
	assert.Equal(t, "20", preview.GrandTotal.String())

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/bills", map[string]any{
		"items": []map[string]any{{"inventory_id": batchID, "quantity": 10}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bill := decode[billing.Bill](t, w)
	assert.NotEmpty(t, bill.BillNo)
	assert.True(t, bill.IsPaid)

	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/inventory/"+batchID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(90), decode[inventory.Batch](t, w).AvailableQuantity)

	w = f.do(t, f.pharmacist, http.MethodDelete, "/api/v1/bills/"+bill.ID.String()+"?restore_inventory=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[dto.BillDeleteResponse](t, w).RestoredInventoryItems)

	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/inventory/"+batchID, nil)
	assert.Equal(t, int64(100), decode[inventory.Batch](t, w).AvailableQuantity)
}

func TestBill_InsufficientStock(t *testing.T) {
	f := newAPI(t)
	p := f.receive(t, "Cetirizine 10", 5)

	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/bills", map[string]any{
		"items": []map[string]any{{"inventory_id": p.Items[0].InventoryID.String(), "quantity": 6}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, apperror.CodeInsufficientStock, decode[dto.ErrorResponse](t, w).Code)
}

func TestBill_InvalidMobileRejected(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/bills/preview", map[string]any{
		"customer_mobile": "12",
		"items":           []map[string]any{{"product_name": "Cotton roll", "quantity": 1, "unit_price": "30"}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode[dto.ErrorResponse](t, w).Code)
}

func TestCustomerDebt_ClearRequiresAdmin(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/bills", map[string]any{
		"customer_name":   "Ravi",
		"customer_mobile": "+919876543210",
		"is_paid":         false,
		"items":           []map[string]any{{"product_name": "Cotton roll", "quantity": 2, "unit_price": "30"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bill := decode[billing.Bill](t, w)
	require.NotNil(t, bill.CustomerID)
	path := "/api/v1/customers/" + bill.CustomerID.String()

	w = f.do(t, f.pharmacist, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "60", decode[customer.Customer](t, w).TotalDebt.String())

	w = f.do(t, f.pharmacist, http.MethodPost, path+"/clear-debt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, f.admin, http.MethodPost, path+"/clear-debt", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[customer.Customer](t, w).TotalDebt.IsZero())
}

func TestPharmacyIsolation(t *testing.T) {
	f := newAPI(t)
	p := f.receive(t, "Amoxicillin 250", 20)

	w := f.do(t, f.outsider, http.MethodGet, "/api/v1/purchases/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, f.outsider, http.MethodGet, "/api/v1/inventory/search?q=amox", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[dto.InventorySearchResponse](t, w).Count)
}

func TestSuppliers_CRUD(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/suppliers", map[string]any{
		"name": "Acme Pharma", "email": "orders@acme.example",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sup := decode[supplier.Supplier](t, w)

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/suppliers", map[string]any{"name": "acme pharma"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, f.pharmacist, http.MethodPut, "/api/v1/suppliers/"+sup.ID.String(), map[string]any{"contact_person": "Meera"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Meera", decode[supplier.Supplier](t, w).ContactPerson)

	w = f.do(t, f.pharmacist, http.MethodDelete, "/api/v1/suppliers/"+sup.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/suppliers/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventoryExport(t *testing.T) {
	f := newAPI(t)
	f.receive(t, "Ibuprofen 400", 12)

	w := f.do(t, f.pharmacist, http.MethodGet, "/api/v1/inventory/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsx.New().ContentType(), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestPurchaseUpdate_CannotShrinkBelowSold(t *testing.T) {
	f := newAPI(t)
	p := f.receive(t, "Azithromycin 500", 100)
	batchID := p.Items[0].InventoryID.String()

	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/bills", map[string]any{
		"items": []map[string]any{{"inventory_id": batchID, "quantity": 90}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, f.pharmacist, http.MethodPut, "/api/v1/purchases/"+p.ID.String()+"?update_inventory=true", map[string]any{
		"items": []map[string]any{{
			"product_name":   "Azithromycin 500",
			"batch_no":       "B1",
			"expiry_date":    time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
			"quantity":       50,
			"purchase_price": "1.50",
			"mrp":            "2.00",
		}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, apperror.CodeInsufficientStock, decode[dto.ErrorResponse](t, w).Code)

	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/inventory/"+batchID, nil)
	assert.Equal(t, int64(10), decode[inventory.Batch](t, w).AvailableQuantity)
}

func TestProducts_CRUDAndSearch(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Dolo 650", "salt_composition": "Paracetamol 650mg", "low_stock_threshold": 25,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	dolo := decode[product.Product](t, w)
	assert.Equal(t, int64(25), dolo.LowStockThreshold)

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/products", map[string]any{"name": "Adolo Gel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, product.DefaultLowStockThreshold, decode[product.Product](t, w).LowStockThreshold)

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/products", map[string]any{"name": "DOLO 650"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/products/search?q=dolo", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	found := decode[dto.ProductSearchResponse](t, w)
	require.Equal(t, 2, found.Count)
	assert.Equal(t, "Dolo 650", found.Products[0].Name)

	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/products/search?q=d", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/v1/products/" + dolo.ID.String()
	w = f.do(t, f.pharmacist, http.MethodPut, path, map[string]any{"low_stock_threshold": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(5), decode[product.Product](t, w).LowStockThreshold)

	w = f.do(t, f.pharmacist, http.MethodPut, path, map[string]any{"low_stock_threshold": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, f.outsider, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, f.pharmacist, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_count":1`)
}

func TestProductThresholdDrivesAlerts(t *testing.T) {
	f := newAPI(t)
	f.receive(t, "Insulin Pen", 30)

	w := f.do(t, f.pharmacist, http.MethodGet, "/api/v1/inventory/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[inventory.Alerts](t, w).LowStock)

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/products", map[string]any{"name": "insulin  pen", "low_stock_threshold": 40})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, f.pharmacist, http.MethodGet, "/api/v1/inventory/alerts", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	low := decode[inventory.Alerts](t, w).LowStock
	require.Len(t, low, 1)
	assert.Equal(t, "Insulin Pen", low[0].ProductName)
}

func TestCustomers_CRUD(t *testing.T) {
	f := newAPI(t)

	w := f.do(t, f.pharmacist, http.MethodPost, "/api/v1/customers", map[string]any{
		"name": "Meera", "mobile": "9876543210", "address": "12 MG Road",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := decode[customer.Customer](t, w)
	assert.Equal(t, "+919876543210", c.Mobile)

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/customers", map[string]any{"mobile": "+91 98765 43210"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, f.pharmacist, http.MethodPost, "/api/v1/customers", map[string]any{"name": "No phone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/v1/customers/" + c.ID.String()
	w = f.do(t, f.pharmacist, http.MethodPut, path, map[string]any{"name": "Meera S", "email": "meera@example.in"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[customer.Customer](t, w)
	assert.Equal(t, "Meera S", updated.Name)
	assert.Equal(t, "12 MG Road", updated.Address)

	w = f.do(t, f.outsider, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, f.pharmacist, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, f.pharmacist, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
