package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService(t *testing.T) (*Service, primitive.ObjectID) {
	t.Helper()
	return NewService(NewInMemoryStore()), primitive.NewObjectID()
}

func Test_ProductService_CreateAndFind(t *testing.T) {
	svc, farmerID := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, farmerID, CreateDto{
		Name:     "Potato",
		Price:    20,
		Stock:    10,
		Category: "Vegetables",
		Location: "Pune",
	})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, farmerID, created.FarmerID, "owner is the calling farmer")

	found, err := svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Potato", found.Name)

	byCategory, err := svc.FindByCategory(ctx, "Vegetables")
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	mine, err := svc.FindByFarmer(ctx, farmerID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.FindByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func Test_ProductService_Update(t *testing.T) {
	svc, farmerID := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, farmerID, CreateDto{Name: "Potato", Price: 20, Stock: 10})
	require.NoError(t, err)

	newPrice := 25.0
	updated, err := svc.Update(ctx, farmerID, created.ID, UpdateDto{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 25.0, updated.Price)
	assert.Equal(t, "Potato", updated.Name, "absent fields keep prior value")
	assert.Equal(t, int32(10), updated.Stock)

	// An explicit zero stock is applied, unlike an absent field.
	zero := int32(0)
	updated, err = svc.Update(ctx, farmerID, created.ID, UpdateDto{Stock: &zero})
	require.NoError(t, err)
	assert.Equal(t, int32(0), updated.Stock)
}

func Test_ProductService_OwnershipEnforced(t *testing.T) {
	svc, farmerID := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, farmerID, CreateDto{Name: "Potato", Price: 20, Stock: 10})
	require.NoError(t, err)

	stranger := primitive.NewObjectID()
	_, err = svc.Update(ctx, stranger, created.ID, UpdateDto{Name: "Stolen Potato"})
	assert.ErrorIs(t, err, ErrNotOwner)

	err = svc.Delete(ctx, stranger, created.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, svc.Delete(ctx, farmerID, created.ID))
	_, err = svc.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
