package validator

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItem(t *testing.T) {
	tests := []struct {
		name      string
		in        AddItemInput
		wantField string
		wantMsg   string
	}{
		{name: "ok", in: AddItemInput{ProductID: 1, Quantity: 1}},
		{name: "zero quantity", in: AddItemInput{ProductID: 1, Quantity: 0}, wantField: "quantity", wantMsg: "must be at least 1"},
		{name: "negative quantity", in: AddItemInput{ProductID: 1, Quantity: -2}, wantField: "quantity", wantMsg: "must be at least 1"},
		{name: "no product", in: AddItemInput{ProductID: 0, Quantity: 1}, wantField: "product_id", wantMsg: "must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := AddItem(tt.in)
			if tt.wantField == "" {
				assert.Nil(t, errs)
				return
			}
			require.NotNil(t, errs)
			assert.Equal(t, tt.wantMsg, errs.Field(tt.wantField))
		})
	}
}

func TestCheckout_TrimsAddress(t *testing.T) {
	out, errs := Checkout(CheckoutInput{ShippingAddress: "\n 1 Main St \t"})
	require.Nil(t, errs)
	assert.Equal(t, "1 Main St", out.ShippingAddress)

	_, errs = Checkout(CheckoutInput{ShippingAddress: "   "})
	require.NotNil(t, errs)
	assert.Equal(t, "this field is required", errs.Field("shipping_address"))

	_, errs = Checkout(CheckoutInput{ShippingAddress: strings.Repeat("a", 1001)})
	require.NotNil(t, errs)
	assert.Equal(t, "must be at most 1000 characters", errs.Field("shipping_address"))
}

func TestRegister(t *testing.T) {
	ok := RegisterInput{
		Username:  " alice ",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "alice@example.com",
		Password1: "wonderland1",
		Password2: "wonderland1",
	}
	out, errs := Register(ok)
	require.Nil(t, errs)
	assert.Equal(t, "alice", out.Username)

	bad := ok
	bad.Email = "alice"
	bad.Password1 = "short"
	bad.Password2 = "other"
	_, errs = Register(bad)
	require.NotNil(t, errs)
	assert.Equal(t, "enter a valid email address", errs.Field("email"))
	assert.Equal(t, "must be at least 8 characters", errs.Field("password1"))
	assert.Equal(t, "passwords do not match", errs.Field("password2"))
}

func TestProduct(t *testing.T) {
	_, errs := Product(ProductInput{Name: "Beans", Price: decimal.RequireFromString("0")})
	assert.Nil(t, errs)

	_, errs = Product(ProductInput{Name: "Beans", Price: decimal.RequireFromString("-0.01")})
	require.NotNil(t, errs)
	assert.Equal(t, "must be at least 0", errs.Field("price"))

	bad := int64(0)
	_, errs = Product(ProductInput{Name: "  ", Price: decimal.NewFromInt(1), CategoryID: &bad})
	require.NotNil(t, errs)
	assert.Equal(t, "this field is required", errs.Field("name"))
	assert.Equal(t, "must be greater than 0", errs.Field("category"))
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}
	assert.Equal(t, "a: x; b: y", errs.Error())
	assert.Equal(t, "", errs.Field("c"))
}
