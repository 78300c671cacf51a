package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductAPI_ListSearchDetail(t *testing.T) {
	a := newTestAPI(t, nil)
	a.product(t, "Dark Roast", "12.00")
	light := a.product(t, "Light Roast", "8.00")
	a.product(t, "Teapot", "30.00")

	rec := a.do(t, http.MethodGet, "/api/products?q=roast&sort=price_asc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[usecase.ProductListOutput](t, rec)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, 20, list.Limit)
	require.Len(t, list.Items, 2)
	assert.Equal(t, light.ID, list.Items[0].ID)

	rec = a.do(t, http.MethodGet, "/api/products/search?q=pot", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]usecase.ProductOutput](t, rec), 1)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", light.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Light Roast", decode[usecase.ProductOutput](t, rec).Name)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/products/99999", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/products/xyz", "", nil).Code)
}

func TestProductAPI_BadQuery(t *testing.T) {
	a := newTestAPI(t, nil)

	for _, q := range []string{"page=0", "page=x", "limit=500", "sort=name", "category=abc"} {
		rec := a.do(t, http.MethodGet, "/api/products?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestFavoriteAPI(t *testing.T) {
	a := newTestAPI(t, nil)
	_, token := a.login(t, "alice", model.RoleUser)
	p := a.product(t, "Beans", "1.00")
	path := fmt.Sprintf("/api/favorites/%d", p.ID)

	assert.Equal(t, http.StatusCreated, a.do(t, http.MethodPost, path, token, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodPost, path, token, nil).Code)

	rec := a.do(t, http.MethodGet, "/api/favorites", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]usecase.FavoriteOutput](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/favorites/4242", token, nil).Code)
}

func TestHealthAPI(t *testing.T) {
	ok := newTestAPI(t, stubPinger{})
	rec := ok.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[handler.HealthResponse](t, rec).Status)

	down := newTestAPI(t, stubPinger{err: errPing})
	rec = down.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
