package loyalty

import (
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/cafe-orders/internal/shop"
)

// PointsFor returns floor(subtotal * rate), never negative.
func PointsFor(subtotal, rate decimal.Decimal) int64 {
	if subtotal.Sign() <= 0 || rate.Sign() <= 0 {
		return 0
	}
	return subtotal.Mul(rate).Floor().IntPart()
}

// PlanCredits computes the credits for a completed order: one against the shop
// balance and, when the shop takes part in the global program, an independent one
// against the global pool at the program's own rate. Zero-point credits are dropped.
func PlanCredits(o OrderRef, cfg shop.Config, global shop.Program) []Credit {
	var out []Credit
	if pts := PointsFor(o.Subtotal, cfg.PointsPerDollar); pts > 0 {
		out = append(out, Credit{CustomerID: o.CustomerID, ShopID: o.ShopID, OrderID: o.ID, Points: pts})
	}
	if cfg.GlobalProgram {
		if pts := PointsFor(o.Subtotal, global.PointsPerDollar); pts > 0 {
			out = append(out, Credit{CustomerID: o.CustomerID, ShopID: shop.GlobalShopID, OrderID: o.ID, Points: pts})
		}
	}
	return out
}

// ShopPoints returns the points credited to the order's own shop.
func ShopPoints(credits []Credit, shopID string) int64 {
	var n int64
	for _, c := range credits {
		if c.ShopID == shopID {
			n += c.Points
		}
	}
	return n
}
