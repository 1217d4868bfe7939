package loyalty

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MikeMC777/cafe-orders/internal/shop"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPointsFor(t *testing.T) {
	cases := []struct {
		subtotal, rate string
		want           int64
	}{
		{"10.00", "10", 100},
		{"4.99", "10", 49},
		{"0.09", "10", 0},
		{"12.34", "1.5", 18},
		{"10.00", "0", 0},
		{"0", "10", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PointsFor(dec(tc.subtotal), dec(tc.rate)), "%s x %s", tc.subtotal, tc.rate)
	}
}

func TestPlanCredits_ShopOnly(t *testing.T) {
	o := OrderRef{ID: "o1", CustomerID: "c1", ShopID: "s1", Subtotal: dec("10.00")}
	credits := PlanCredits(o, shop.Config{ID: "s1", PointsPerDollar: dec("10")}, shop.Program{PointsPerDollar: dec("5")})
	assert.Equal(t, []Credit{{CustomerID: "c1", ShopID: "s1", OrderID: "o1", Points: 100}}, credits)
	assert.EqualValues(t, 100, ShopPoints(credits, "s1"))
}

func TestPlanCredits_GlobalIsIndependent(t *testing.T) {
	o := OrderRef{ID: "o1", CustomerID: "c1", ShopID: "s1", Subtotal: dec("7.50")}
	credits := PlanCredits(o,
		shop.Config{ID: "s1", PointsPerDollar: dec("10"), GlobalProgram: true},
		shop.Program{PointsPerDollar: dec("2")})

	assert.Equal(t, []Credit{
		{CustomerID: "c1", ShopID: "s1", OrderID: "o1", Points: 75},
		{CustomerID: "c1", ShopID: shop.GlobalShopID, OrderID: "o1", Points: 15},
	}, credits)
	assert.EqualValues(t, 75, ShopPoints(credits, "s1"))
}

func TestPlanCredits_DropsZero(t *testing.T) {
	o := OrderRef{ID: "o1", CustomerID: "c1", ShopID: "s1", Subtotal: dec("0.05")}
	credits := PlanCredits(o, shop.Config{PointsPerDollar: dec("10"), GlobalProgram: true}, shop.Program{})
	assert.Empty(t, credits)
}
