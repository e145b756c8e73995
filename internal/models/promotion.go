package models

import (
	"github.com/shopspring/decimal"

	"github.com/cafe-next/internal/constants"
)

// PromoCode 优惠码折扣描述
type PromoCode struct {
	Code  string `json:"code"`  // 规范化后的优惠码（大写）
	Kind  string `json:"kind"`  // 折扣类型（percent/fixed）
	Value Money  `json:"value"` // 百分比数值或固定金额
}

// LoyaltyReward 积分奖励描述
// 积分在此阶段只做预占，真正扣减在订单确认支付后由队列任务执行
type LoyaltyReward struct {
	Name            string `json:"name"`
	Kind            string `json:"kind"`                        // 奖励类型（percent/free_product）
	DiscountValue   Money  `json:"discount_value"`              // percent 类型的折扣百分比
	PointsRequired  int    `json:"points_required"`
	RewardProductID *uint  `json:"reward_product_id,omitempty"` // free_product 类型对应的商品
}

// ActivePromotion 当前生效的促销，约束为最多一个生效
// nil 表示无促销；PromoApplied 与 LoyaltyApplied 互斥，由类型本身保证
type ActivePromotion interface {
	Kind() string
	// DiscountExclusive 基于未税小计计算未税折扣额
	DiscountExclusive(subtotal decimal.Decimal) decimal.Decimal

	activePromotion()
}

// PromoApplied 优惠码生效
type PromoApplied struct {
	Promo PromoCode
}

// Kind 促销种类
func (p PromoApplied) Kind() string {
	return constants.PromotionKindPromo
}

// DiscountExclusive 按优惠码类型计算折扣
func (p PromoApplied) DiscountExclusive(subtotal decimal.Decimal) decimal.Decimal {
	switch p.Promo.Kind {
	case constants.DiscountTypePercent:
		return subtotal.Mul(p.Promo.Value.Decimal).Div(decimal.NewFromInt(100))
	case constants.DiscountTypeFixed:
		return p.Promo.Value.Decimal
	default:
		return decimal.Zero
	}
}

func (p PromoApplied) activePromotion() {}

// LoyaltyApplied 积分奖励生效
type LoyaltyApplied struct {
	Reward LoyaltyReward
}

// Kind 促销种类
func (l LoyaltyApplied) Kind() string {
	return constants.PromotionKindLoyalty
}

// DiscountExclusive 按奖励类型计算折扣
// free_product 的赠品行金额在订单提交侧处理，这里不产生折扣
func (l LoyaltyApplied) DiscountExclusive(subtotal decimal.Decimal) decimal.Decimal {
	if l.Reward.Kind == constants.RewardTypePercent {
		return subtotal.Mul(l.Reward.DiscountValue.Decimal).Div(decimal.NewFromInt(100))
	}
	return decimal.Zero
}

func (l LoyaltyApplied) activePromotion() {}
