package product_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/catalogs/product"
	"pharmaledger/internal/infrastructure/storage/memory"
)

func newService() (*product.Service, *memory.Repositories) {
	repos := memory.NewRepositories()
	return product.NewService(repos.Products, repos.Store), repos
}

func create(t *testing.T, svc *product.Service, pharmacyID id.ID, name, salt string) *product.Product {
	t.Helper()
	p := product.NewProduct(pharmacyID, id.New(), name)
	p.SaltComposition = salt
	require.NoError(t, svc.Create(context.Background(), p))
	return p
}

func TestProduct_Validate(t *testing.T) {
	p := product.NewProduct(id.New(), id.New(), "  Dolo   650 ")
	require.NoError(t, p.Validate())
	assert.Equal(t, "Dolo   650", p.Name)
	assert.Equal(t, "dolo 650", p.ProductKey)
	assert.Equal(t, product.DefaultLowStockThreshold, p.LowStockThreshold)

	p.LowStockThreshold = -1
	err := p.Validate()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "low_stock_threshold", appErr.Field())

	p.Name = " "
	assert.True(t, apperror.IsValidation(p.Validate()))
}

func TestService_CreateRejectsSameNormalizedName(t *testing.T) {
	svc, _ := newService()
	pharmacyID := id.New()
	create(t, svc, pharmacyID, "Dolo 650", "")

	err := svc.Create(context.Background(), product.NewProduct(pharmacyID, id.New(), " DOLO  650"))
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	// Another pharmacy may use the name.
	create(t, svc, id.New(), "Dolo 650", "")
}

func TestService_DeleteHidesFromListAndSearch(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	pharmacyID := id.New()
	p := create(t, svc, pharmacyID, "Crocin", "Paracetamol 500mg")

	require.NoError(t, svc.Delete(ctx, pharmacyID, p.ID))

	list, err := svc.List(ctx, pharmacyID, domain.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.TotalCount)
	found, err := svc.Search(ctx, pharmacyID, "crocin", 0)
	require.NoError(t, err)
	assert.Empty(t, found)

	// The name is free again.
	create(t, svc, pharmacyID, "Crocin", "")
}

func TestService_SearchRanksExactBeforeManyPartials(t *testing.T) {
	svc, _ := newService()
	pharmacyID := id.New()
	for i := range 25 {
		create(t, svc, pharmacyID, fmt.Sprintf("Adolo %02d", i), "")
	}
	create(t, svc, pharmacyID, "Calpol", "Paracetamol dolo base")
	create(t, svc, pharmacyID, "Dolo", "Paracetamol 650mg")
	create(t, svc, pharmacyID, "Dolo 650", "Paracetamol 650mg")

	got, err := svc.Search(context.Background(), pharmacyID, "DOLO", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Dolo", got[0].Name)
	assert.Equal(t, "Dolo 650", got[1].Name)
	assert.Equal(t, "Adolo 00", got[2].Name)

	bySalt, err := svc.Search(context.Background(), pharmacyID, "paracetamol", 0)
	require.NoError(t, err)
	assert.Len(t, bySalt, 3)

	_, err = svc.Search(context.Background(), pharmacyID, "d", 0)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_LowStockThresholds(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	pharmacyID := id.New()
	p := create(t, svc, pharmacyID, "Insulin Pen", "")
	p.LowStockThreshold = 50
	require.NoError(t, svc.Update(ctx, p))
	gone := create(t, svc, pharmacyID, "Old Syrup", "")
	require.NoError(t, svc.Delete(ctx, pharmacyID, gone.ID))

	got, err := svc.LowStockThresholds(ctx, pharmacyID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"insulin pen": 50}, got)
}
