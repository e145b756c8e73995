// Package pricing 提供含税/未税换算与订单金额汇总的纯函数。
// 所有计算基于 decimal，只在 Money 边界做 2 位小数舍入，避免累计误差。
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/cafe-next/internal/models"
)

// TaxRate 固定税率 10%
var TaxRate = decimal.RequireFromString("0.10")

var one = decimal.NewFromInt(1)

// ToInclusive 未税金额换算为含税金额
func ToInclusive(exclusive, rate decimal.Decimal) decimal.Decimal {
	return exclusive.Mul(one.Add(rate))
}

// FromInclusive 含税金额换算为未税金额
func FromInclusive(inclusive, rate decimal.Decimal) decimal.Decimal {
	return inclusive.Div(one.Add(rate))
}

// OrderTotals 订单金额汇总
type OrderTotals struct {
	SubtotalExclusive models.Money `json:"subtotal_exclusive"` // 未税小计（折扣前）
	SubtotalInclusive models.Money `json:"subtotal_inclusive"` // 含税小计（折扣前）
	DiscountExclusive models.Money `json:"discount_exclusive"` // 未税折扣额
	DiscountInclusive models.Money `json:"discount_inclusive"` // 含税折扣额
	Tax               models.Money `json:"tax"`                // 税额
	TotalInclusive    models.Money `json:"total_inclusive"`    // 含税应付总额
}

// ComputeOrderTotals 按固定税率汇总订单金额
// 折扣不会使计税基数为负：taxable = max(0, subtotal - discount)
func ComputeOrderTotals(subtotalExclusive, discountExclusive decimal.Decimal) OrderTotals {
	taxable := subtotalExclusive.Sub(discountExclusive)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := taxable.Mul(TaxRate)
	return OrderTotals{
		SubtotalExclusive: models.NewMoneyFromDecimal(subtotalExclusive),
		SubtotalInclusive: models.NewMoneyFromDecimal(ToInclusive(subtotalExclusive, TaxRate)),
		DiscountExclusive: models.NewMoneyFromDecimal(discountExclusive),
		DiscountInclusive: models.NewMoneyFromDecimal(ToInclusive(discountExclusive, TaxRate)),
		Tax:               models.NewMoneyFromDecimal(tax),
		TotalInclusive:    models.NewMoneyFromDecimal(taxable.Add(tax)),
	}
}
