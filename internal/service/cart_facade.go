package service

import (
	"context"

	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/pricing"
)

// CartFacade 购物车读写门面
// 纯委托，不含业务逻辑，用于解耦 UI/结账层与引擎内部状态形态
type CartFacade struct {
	store *CartService
}

// NewCartFacade 创建购物车门面
func NewCartFacade(store *CartService) *CartFacade {
	return &CartFacade{store: store}
}

// Add 加入商品
func (f *CartFacade) Add(input AddItemInput) error {
	return f.store.AddItem(input)
}

// Increment 数量加一
func (f *CartFacade) Increment(productID uint) error {
	return f.store.ChangeQuantity(productID, 1)
}

// Decrement 数量减一（减到 0 时整项移除）
func (f *CartFacade) Decrement(productID uint) error {
	return f.store.ChangeQuantity(productID, -1)
}

// Remove 移除商品
func (f *CartFacade) Remove(productID uint) error {
	return f.store.RemoveItem(productID)
}

// Clear 清空购物车（系统触发，例如下单完成）
func (f *CartFacade) Clear() error {
	return f.store.Clear()
}

// ClearConfirmed 用户主动清空，需要显式确认
func (f *CartFacade) ClearConfirmed(confirmed bool) error {
	if !confirmed {
		return ErrClearNotConfirmed
	}
	return f.store.Clear()
}

// ApplyPromo 应用优惠码
func (f *CartFacade) ApplyPromo(ctx context.Context, code string) error {
	return f.store.ApplyPromoCode(ctx, code)
}

// RemovePromo 移除优惠码
func (f *CartFacade) RemovePromo() error {
	return f.store.RemovePromoCode()
}

// ApplyLoyaltyReward 应用积分奖励
func (f *CartFacade) ApplyLoyaltyReward(reward models.LoyaltyReward) error {
	return f.store.ApplyLoyaltyReward(reward)
}

// RemoveLoyaltyReward 移除积分奖励
func (f *CartFacade) RemoveLoyaltyReward() error {
	return f.store.RemoveLoyaltyReward()
}

// SelectFulfillment 选择取餐方式
func (f *CartFacade) SelectFulfillment(fulfillment string) error {
	return f.store.SetFulfillment(fulfillment)
}

// Items 购物车项
func (f *CartFacade) Items() []models.CartItem {
	return f.store.Items()
}

// TotalItems 商品总件数
func (f *CartFacade) TotalItems() int {
	return f.store.TotalItems()
}

// IsEmpty 是否为空
func (f *CartFacade) IsEmpty() bool {
	return f.store.IsEmpty()
}

// Fulfillment 当前取餐方式
func (f *CartFacade) Fulfillment() string {
	return f.store.Fulfillment()
}

// Promotion 当前生效的促销
func (f *CartFacade) Promotion() models.ActivePromotion {
	return f.store.Promotion()
}

// OwnerKey 当前绑定的归属键
func (f *CartFacade) OwnerKey() string {
	return f.store.OwnerKey()
}

// Subtotal 未税小计
func (f *CartFacade) Subtotal() models.Money {
	return f.store.SubtotalExclusive()
}

// Discount 未税折扣额
func (f *CartFacade) Discount() models.Money {
	return f.store.DiscountExclusive()
}

// Total 含税应付总额
func (f *CartFacade) Total() models.Money {
	return f.store.Totals().TotalInclusive
}

// Totals 订单金额汇总
func (f *CartFacade) Totals() pricing.OrderTotals {
	return f.store.Totals()
}
