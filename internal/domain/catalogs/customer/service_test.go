package customer_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	appctx "pharmaledger/internal/core/context"
	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/catalogs/customer"
	"pharmaledger/internal/infrastructure/storage/memory"
)

func fixture() (*customer.Service, *memory.Repositories, appctx.Actor) {
	repos := memory.NewRepositories()
	actor := appctx.Actor{ActorID: id.New(), PharmacyID: id.New(), Roles: []string{appctx.RolePharmacist}}
	return customer.NewService(repos.Customers), repos, actor
}

func TestService_CreateNormalizesAndRejectsDuplicates(t *testing.T) {
	svc, _, actor := fixture()
	ctx := context.Background()

	c, err := svc.Create(ctx, actor, customer.CreateInput{Name: " Asha ", Mobile: "098765 43210", Email: "asha@example.in"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", c.Name)
	assert.Equal(t, "+919876543210", c.Mobile)

	_, err = svc.Create(ctx, actor, customer.CreateInput{Name: "Other", Mobile: "+91 98765 43210"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	_, err = svc.Create(ctx, actor, customer.CreateInput{Name: "No phone"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(ctx, actor, customer.CreateInput{Mobile: "9876543212", Email: "not-an-email"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "email", appErr.Field())
}

func TestService_UpdateKeepsDebt(t *testing.T) {
	svc, _, actor := fixture()
	ctx := context.Background()
	c, err := svc.Create(ctx, actor, customer.CreateInput{Name: "Asha", Mobile: "9876543210"})
	require.NoError(t, err)
	require.NoError(t, svc.AdjustDebt(ctx, actor.PharmacyID, c.ID, decimal.NewFromInt(75)))

	name, mobile := "Asha K", "9876543219"
	updated, err := svc.Update(ctx, actor, c.ID, customer.UpdateInput{Name: &name, Mobile: &mobile})
	require.NoError(t, err)
	assert.Equal(t, "+919876543219", updated.Mobile)

	stored, err := svc.Get(ctx, actor.PharmacyID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha K", stored.Name)
	assert.True(t, decimal.NewFromInt(75).Equal(stored.TotalDebt))

	other, err := svc.Create(ctx, actor, customer.CreateInput{Mobile: "9876543211"})
	require.NoError(t, err)
	_, err = svc.Update(ctx, actor, other.ID, customer.UpdateInput{Mobile: &mobile})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	_, err = svc.Update(ctx, actor, id.New(), customer.UpdateInput{Name: &name})
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_DeleteRefusesOutstandingDebt(t *testing.T) {
	svc, _, actor := fixture()
	ctx := context.Background()
	c, err := svc.Create(ctx, actor, customer.CreateInput{Name: "Asha", Mobile: "9876543210"})
	require.NoError(t, err)
	require.NoError(t, svc.AdjustDebt(ctx, actor.PharmacyID, c.ID, decimal.NewFromInt(10)))

	err = svc.Delete(ctx, actor, c.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	require.NoError(t, svc.AdjustDebt(ctx, actor.PharmacyID, c.ID, decimal.NewFromInt(-10)))
	require.NoError(t, svc.Delete(ctx, actor, c.ID))
	_, err = svc.Get(ctx, actor.PharmacyID, c.ID)
	assert.True(t, apperror.IsNotFound(err))

	// The mobile can be registered again.
	_, err = svc.Create(ctx, actor, customer.CreateInput{Mobile: "9876543210"})
	assert.NoError(t, err)
}
