package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

func TestCartFlow(t *testing.T) {
	api := newTestAPI(t)
	acc, token := api.register("ada@example.com", domain.RoleCustomer)

	w := api.do(http.MethodPost, "/api/cart/items", token,
		`{"productId":"p1","quantity":2,"priceAtTime":10,"variant":{"size":"M","color":"red"}}`)
	requireStatus(t, w, http.StatusOK)

	w = api.do(http.MethodPost, "/api/cart/items", token,
		`{"productId":"p1","quantity":1,"priceAtTime":12,"variant":{"color":"red","size":"M"}}`)
	requireStatus(t, w, http.StatusOK)

	data := decode(t, w.Body.Bytes())["data"].(map[string]any)
	require.Len(t, data["items"], 1)
	assert.EqualValues(t, 3, data["itemCount"])

	w = api.do(http.MethodPost, "/api/cart/coupons", token, `{"couponCode":"SAVE5","discountAmount":5}`)
	requireStatus(t, w, http.StatusOK)
	w = api.do(http.MethodPut, "/api/cart/shipping", token, `{"methodId":"express","cost":7}`)
	requireStatus(t, w, http.StatusOK)

	data = decode(t, w.Body.Bytes())["data"].(map[string]any)
	assert.Equal(t, "express", data["shippingMethod"])
	stored := api.store.carts[acc.ID]
	assert.InDelta(t, stored.Subtotal-stored.TotalDiscount+stored.TotalTax+stored.ShippingCost, stored.TotalAmount, 1e-9)
	assert.InDelta(t, 7.0, stored.ShippingCost, 1e-9)

	w = api.do(http.MethodDelete, "/api/cart/coupons/NOPE", token, "")
	requireStatus(t, w, http.StatusNotFound)

	w = api.do(http.MethodDelete, "/api/cart/items", token, `{"productId":"p2"}`)
	requireStatus(t, w, http.StatusNotFound)
	assert.Equal(t, "Item not found in cart", decode(t, w.Body.Bytes())["message"])

	w = api.do(http.MethodDelete, "/api/cart", token, "")
	requireStatus(t, w, http.StatusOK)
	assert.Empty(t, api.store.carts[acc.ID].Items)
	assert.Empty(t, api.store.carts[acc.ID].Coupons)
}

func TestCartRejectsInvalidQuantity(t *testing.T) {
	api := newTestAPI(t)
	acc, token := api.register("ada@example.com", domain.RoleCustomer)

	w := api.do(http.MethodPost, "/api/cart/items", token, `{"productId":"p1","quantity":101,"priceAtTime":1}`)
	requireStatus(t, w, http.StatusBadRequest)
	assert.Empty(t, api.store.carts[acc.ID].Items)
}

func TestCartRequiresAuthentication(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/cart", "", "")
	requireStatus(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Access denied. No token provided.", decode(t, w.Body.Bytes())["message"])
}

func TestPreferencesUpdate(t *testing.T) {
	api := newTestAPI(t)
	acc, token := api.register("ada@example.com", domain.RoleCustomer)

	w := api.do(http.MethodPut, "/api/preferences", token, `{"theme":"dark","itemsPerPage":50}`)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, "dark", api.store.prefs[acc.ID].Theme)
	assert.Equal(t, 50, api.store.prefs[acc.ID].ItemsPerPage)

	w = api.do(http.MethodPut, "/api/preferences", token, `{"itemsPerPage":5}`)
	requireStatus(t, w, http.StatusBadRequest)
}
