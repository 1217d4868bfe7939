package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/cafe-orders/internal/menu"
)

func newValidator() *Validator {
	return NewValidator(testMenu(), Pricer{TaxRate: DefaultTaxRate})
}

func TestCreateOrder_SingleItemTotals(t *testing.T) {
	o, err := newValidator().CreateOrder(context.Background(), CreateOrderRequest{
		ShopID: "s1",
		Items:  []CartItem{{MenuItemID: "latte", Quantity: 1}},
	}, "c1")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "5.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "0.40", o.Tax.StringFixed(2))
	assert.Equal(t, "5.40", o.Total.StringFixed(2))
	assert.NotEmpty(t, o.ID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, o.ID, o.Items[0].OrderID)
	assert.Equal(t, o.CreatedAt, o.UpdatedAt)
	assert.Zero(t, o.LoyaltyPointsEarned)
}

func TestCreateOrder_IgnoresClientPrices(t *testing.T) {
	o, err := newValidator().CreateOrder(context.Background(), CreateOrderRequest{
		ShopID: "s1",
		Items:  []CartItem{{MenuItemID: "latte", Quantity: 1, UnitPrice: "0.01"}},
		Total:  "0.01",
	}, "c1")
	require.NoError(t, err)
	assert.Equal(t, "5.00", o.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "5.40", o.Total.StringFixed(2))
}

func TestCreateOrder_Customizations(t *testing.T) {
	o, err := newValidator().CreateOrder(context.Background(), CreateOrderRequest{
		Items: []CartItem{
			{MenuItemID: "latte", Quantity: 2, Customizations: []string{"oat", "large", "decaf"}},
			{MenuItemID: "cookie", Quantity: 1},
		},
	}, "c1")
	require.NoError(t, err)

	assert.Equal(t, "s1", o.ShopID, "shop is taken from the first item")
	line := o.Items[0]
	require.Len(t, line.Customizations, 3)
	assert.Equal(t, menu.RuleFlat, line.Customizations[0].Kind)
	assert.Equal(t, "0.75", line.Customizations[0].Price.StringFixed(2))
	assert.Equal(t, menu.RulePercent, line.Customizations[1].Kind)
	assert.Equal(t, "1.00", line.Customizations[1].Price.StringFixed(2))
	assert.Equal(t, menu.RuleFree, line.Customizations[2].Kind)
	assert.True(t, line.Customizations[2].Price.IsZero())

	// (5.00 + 0.75 + 1.00) * 2 + 2.50 = 16.00
	assert.Equal(t, "6.75", line.EffectiveUnitPrice().StringFixed(2))
	assert.Equal(t, "16.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "1.28", o.Tax.StringFixed(2))
	assert.Equal(t, "17.28", o.Total.StringFixed(2))
}

func TestCreateOrder_TotalMatchesLines(t *testing.T) {
	o, err := newValidator().CreateOrder(context.Background(), CreateOrderRequest{
		ShopID: "s1",
		Items: []CartItem{
			{MenuItemID: "latte", Quantity: 3, Customizations: []string{"large"}},
			{MenuItemID: "cookie", Quantity: 4},
		},
	}, "c1")
	require.NoError(t, err)

	sum := dec("0")
	for _, it := range o.Items {
		sum = sum.Add(it.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, sum.Equal(o.Subtotal))
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.Subtotal.Mul(DefaultTaxRate).Round(2))))
}

func TestCreateOrder_Errors(t *testing.T) {
	cases := []struct {
		name     string
		customer string
		req      CreateOrderRequest
		code     ValidationCode
	}{
		{"no customer", "", CreateOrderRequest{Items: []CartItem{{MenuItemID: "latte", Quantity: 1}}}, CodeMissingCustomer},
		{"empty cart", "c1", CreateOrderRequest{ShopID: "s1"}, CodeEmptyCart},
		{"zero quantity", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "latte", Quantity: 0}}}, CodeInvalidQuantity},
		{"negative quantity", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "latte", Quantity: -2}}}, CodeInvalidQuantity},
		{"huge quantity", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "latte", Quantity: MaxQuantity + 1}}}, CodeInvalidQuantity},
		{"missing item", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "nope", Quantity: 1}}}, CodeUnavailableItem},
		{"unavailable item", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "scone", Quantity: 1}}}, CodeUnavailableItem},
		{"shop mismatch with request", "c1", CreateOrderRequest{ShopID: "s2", Items: []CartItem{{MenuItemID: "latte", Quantity: 1}}}, CodeShopMismatch},
		{"mixed shops", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "latte", Quantity: 1}, {MenuItemID: "mocha", Quantity: 1}}}, CodeShopMismatch},
		{"unknown customization", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "latte", Quantity: 1, Customizations: []string{"gold-leaf"}}}}, CodeUnknownCustomization},
		{"repeated customization", "c1", CreateOrderRequest{Items: []CartItem{{MenuItemID: "latte", Quantity: 1, Customizations: []string{"oat", "oat"}}}}, CodeDuplicateCustomization},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newValidator().CreateOrder(context.Background(), tc.req, tc.customer)
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.code, ve.Code)
		})
	}
}

type brokenMenu struct{}

func (brokenMenu) GetByID(context.Context, string) (*menu.Item, error) {
	return nil, errors.New("connection refused")
}

func TestCreateOrder_MenuOutage(t *testing.T) {
	v := NewValidator(brokenMenu{}, Pricer{TaxRate: DefaultTaxRate})
	_, err := v.CreateOrder(context.Background(), CreateOrderRequest{
		Items: []CartItem{{MenuItemID: "latte", Quantity: 1}},
	}, "c1")
	require.ErrorIs(t, err, ErrMenuUnavailable)
	assert.NotErrorIs(t, err, ErrValidation)
}
