package usecase_test

import (
	"context"
	"testing"

	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteUsecase_AddListRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := usecase.NewFavoriteUsecase(f.store.Favorites(), f.store.Products())
	uid := f.user(t, "alice")
	p := f.product(t, "Beans", "9.00")

	created, err := uc.Add(ctx, uid, p.ID)
	require.NoError(t, err)
	assert.True(t, created)

	//2回目は作らない
	created, err = uc.Add(ctx, uid, p.ID)
	require.NoError(t, err)
	assert.False(t, created)

	list, err := uc.List(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Beans", list[0].Product.Name)

	require.NoError(t, uc.Remove(ctx, uid, p.ID))
	assertKind(t, uc.Remove(ctx, uid, p.ID), usecase.ErrNotFound)

	list, err = uc.List(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFavoriteUsecase_Add_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewFavoriteUsecase(f.store.Favorites(), f.store.Products())

	_, err := uc.Add(context.Background(), f.user(t, "alice"), 999)
	assertKind(t, err, usecase.ErrNotFound)
}
