package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/store"
)

func (e *testEnv) catalog() CatalogService {
	return NewCatalogService(e.stores.Catalog, e.log)
}

func TestCatalogNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.catalog()

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.GetProduct(ctx, "nope")
		assert.ErrorIs(t, err, ErrProductNotFound)

		_, err = svc.UpdateProduct(ctx, "nope", ProductParams{Name: "x", Price: 1})
		assert.ErrorIs(t, err, ErrProductNotFound)

		assert.ErrorIs(t, svc.DeleteProduct(ctx, "nope"), ErrProductNotFound)
	})

	t.Run("unknown scent", func(t *testing.T) {
		_, err := svc.UpdateScent(ctx, "nope", ScentParams{Name: "x"})
		assert.ErrorIs(t, err, ErrScentNotFound)

		assert.ErrorIs(t, svc.DeleteScent(ctx, "nope"), ErrScentNotFound)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := svc.UpdateCategory(ctx, "nope", CategoryParams{Name: "x"})
		assert.ErrorIs(t, err, ErrCategoryNotFound)

		assert.ErrorIs(t, svc.DeleteCategory(ctx, "nope"), ErrCategoryNotFound)
	})
}

func TestUpdateProductResolvesScents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.catalog()
	product, scent := env.seedCatalog(t)

	updated, err := svc.UpdateProduct(ctx, product.ID, ProductParams{
		Name:       "Hearth Pillar XL",
		Price:      31.00,
		CategoryID: product.CategoryID,
		ScentIDs:   []string{scent.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hearth Pillar XL", updated.Name)
	require.Len(t, updated.Scents, 1)

	listed, total, err := svc.ListProducts(ctx, store.ProductFilter{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Hearth Pillar XL", listed[0].Name)
}
