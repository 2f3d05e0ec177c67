package warehouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizbook/internal/core/apperror"
	"bizbook/internal/core/id"
	"bizbook/internal/core/numerator"
	"bizbook/internal/core/tx"
	"bizbook/internal/domain/catalogs/catalogtest"
	"bizbook/internal/domain/catalogs/warehouse"
)

func TestCreate_AssignsSequentialCodes(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.NewRepo(catalogtest.Copy[warehouse.Warehouse])
	svc := warehouse.NewService(repo, tx.Inline{}, &numerator.MockGenerator{})

	primary := warehouse.NewWarehouse(" Main ", " Dock 1 ")
	require.NoError(t, svc.Create(ctx, primary))
	annex := warehouse.NewWarehouse("Annex", "")
	require.NoError(t, svc.Create(ctx, annex))

	assert.Equal(t, "WH0001", primary.Code)
	assert.Equal(t, "WH0002", annex.Code)
	assert.Equal(t, "Main", primary.Name)
	assert.Equal(t, "Dock 1", primary.Location)

	got, err := svc.GetByCode(ctx, "WH0002")
	require.NoError(t, err)
	assert.Equal(t, annex.ID, got.ID)

	ok, err := svc.Exists(ctx, primary.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Exists(ctx, id.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreate_RequiresName(t *testing.T) {
	repo := catalogtest.NewRepo(catalogtest.Copy[warehouse.Warehouse])
	svc := warehouse.NewService(repo, tx.Inline{}, &numerator.MockGenerator{})

	err := svc.Create(context.Background(), warehouse.NewWarehouse("  ", "Dock 1"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
	assert.Zero(t, repo.Len())
}

func TestGetByID_NotFoundNamesWarehouse(t *testing.T) {
	repo := catalogtest.NewRepo(catalogtest.Copy[warehouse.Warehouse])
	svc := warehouse.NewService(repo, tx.Inline{}, &numerator.MockGenerator{})

	_, err := svc.GetByID(context.Background(), id.New())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
	assert.Contains(t, appErr.Message, "warehouse")
}
