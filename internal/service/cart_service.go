package service

import (
	"context"
	"sync"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/pricing"
	"github.com/cafe-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CartService 购物车引擎
// 维护购物车内容、取餐方式与当前促销（最多一个生效），
// 每次变更前做身份守卫：归属身份变化时清空并重新绑定，防止共享设备串号。
// 所有变更对调用方原子可见，派生金额在每次读取时重新计算，不做缓存。
type CartService struct {
	repo      repository.CartRepository
	identity  IdentityProvider
	validator PromoValidator

	mu            sync.Mutex
	cart          *models.Cart
	promoInFlight bool
	unsubscribe   func()
}

// AddItemInput 加入购物车输入
// 名称与图片在加入时冗余拷贝，后续不随商品目录变化
type AddItemInput struct {
	ProductID uint
	Name      string
	Image     string
	UnitPrice models.Money
}

// NewCartService 创建购物车引擎
func NewCartService(repo repository.CartRepository, identity IdentityProvider, validator PromoValidator) *CartService {
	s := &CartService{
		repo:      repo,
		identity:  identity,
		validator: validator,
		cart:      models.NewCart(""),
	}
	if identity != nil {
		s.unsubscribe = identity.Subscribe(s.onIdentityChange)
	}
	return s
}

// Close 释放身份订阅
func (s *CartService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Rehydrate 启动时从持久化快照恢复购物车
// 恢复后立即执行一次身份守卫，过期身份的快照不会被信任
func (s *CartService) Rehydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.currentKeyLocked()
	if key == "" {
		s.cart = models.NewCart("")
		return nil
	}
	loaded, err := s.repo.Load(key)
	if err != nil {
		return err
	}
	if loaded == nil {
		s.cart = models.NewCart(key)
		return nil
	}
	s.cart = loaded
	return nil
}

// AddItem 加入商品：已存在则数量加一，否则追加数量为 1 的新项
func (s *CartService) AddItem(input AddItemInput) error {
	if input.ProductID == 0 || input.UnitPrice.Decimal.IsNegative() {
		return ErrItemInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	return s.commitLocked(func() {
		if _, item := s.cart.FindItem(input.ProductID); item != nil {
			item.Quantity++
			return
		}
		s.cart.Items = append(s.cart.Items, models.CartItem{
			ProductID: input.ProductID,
			Name:      input.Name,
			Image:     input.Image,
			UnitPrice: input.UnitPrice,
			Quantity:  1,
		})
	})
}

// ChangeQuantity 调整数量，结果 <= 0 时整项移除
// 不存在的商品视为无操作
func (s *CartService) ChangeQuantity(productID uint, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	idx, item := s.cart.FindItem(productID)
	if item == nil {
		return nil
	}
	return s.commitLocked(func() {
		item.Quantity += delta
		if item.Quantity <= 0 {
			s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
		}
	})
}

// RemoveItem 无条件移除购物车项
func (s *CartService) RemoveItem(productID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	idx, item := s.cart.FindItem(productID)
	if item == nil {
		return nil
	}
	return s.commitLocked(func() {
		s.cart.Items = append(s.cart.Items[:idx], s.cart.Items[idx+1:]...)
	})
}

// Clear 清空内容、取餐方式与促销，保留归属身份
func (s *CartService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	return s.commitLocked(func() {
		s.cart.Items = models.CartItemList{}
		s.cart.Fulfillment = constants.FulfillmentUnset
		s.cart.Promotion = nil
	})
}

// SetFulfillment 设置取餐方式，接受旧版法语值并归一化存储
func (s *CartService) SetFulfillment(raw string) error {
	normalized, ok := constants.NormalizeFulfillment(raw)
	if !ok || normalized == constants.FulfillmentUnset {
		return ErrFulfillmentInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	return s.commitLocked(func() {
		s.cart.Fulfillment = normalized
	})
}

// ApplyPromoCode 校验并应用优惠码，成功时无条件替换已生效的积分奖励
// 校验进行中的并发调用被拒绝，避免乱序的远端响应覆盖更新的用户操作
func (s *CartService) ApplyPromoCode(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.promoInFlight {
		s.mu.Unlock()
		return ErrPromoApplyInFlight
	}
	s.promoInFlight = true
	subtotal := models.NewMoneyFromDecimal(s.cart.SubtotalExclusive())
	s.mu.Unlock()

	promo, err := s.validator.Validate(ctx, code, subtotal)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.promoInFlight = false
	if err != nil {
		// 校验失败不修改任何状态
		return err
	}
	s.guardLocked()
	return s.commitLocked(func() {
		s.cart.Promotion = models.PromoApplied{Promo: *promo}
	})
}

// ApplyLoyaltyReward 应用积分奖励，无条件替换已生效的优惠码
// 积分余额与奖励资格由调用方预校验，积分扣减延迟到订单确认支付后
func (s *CartService) ApplyLoyaltyReward(reward models.LoyaltyReward) error {
	if reward.Name == "" {
		return ErrRewardInvalid
	}
	if reward.Kind != constants.RewardTypePercent && reward.Kind != constants.RewardTypeFreeProduct {
		return ErrRewardInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	return s.commitLocked(func() {
		s.cart.Promotion = models.LoyaltyApplied{Reward: reward}
	})
}

// RemovePromoCode 移除生效中的优惠码，未生效时为幂等无操作
func (s *CartService) RemovePromoCode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	if _, ok := s.cart.Promotion.(models.PromoApplied); !ok {
		return nil
	}
	return s.commitLocked(func() {
		s.cart.Promotion = nil
	})
}

// RemoveLoyaltyReward 移除生效中的积分奖励，未生效时为幂等无操作
func (s *CartService) RemoveLoyaltyReward() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()

	if _, ok := s.cart.Promotion.(models.LoyaltyApplied); !ok {
		return nil
	}
	return s.commitLocked(func() {
		s.cart.Promotion = nil
	})
}

// Items 返回购物车项拷贝
func (s *CartService) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.CartItem, len(s.cart.Items))
	copy(items, s.cart.Items)
	return items
}

// TotalItems 商品总件数
func (s *CartService) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalItems()
}

// IsEmpty 是否为空
func (s *CartService) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

// Fulfillment 当前取餐方式
func (s *CartService) Fulfillment() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Fulfillment
}

// Promotion 当前生效的促销，nil 表示无
func (s *CartService) Promotion() models.ActivePromotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Promotion
}

// OwnerKey 当前绑定的归属键
func (s *CartService) OwnerKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.OwnerKey
}

// SubtotalExclusive 未税小计
func (s *CartService) SubtotalExclusive() models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.NewMoneyFromDecimal(s.cart.SubtotalExclusive())
}

// DiscountExclusive 未税折扣额
func (s *CartService) DiscountExclusive() models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.NewMoneyFromDecimal(s.discountLocked())
}

// Totals 订单金额汇总（每次读取重新计算）
func (s *CartService) Totals() pricing.OrderTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.ComputeOrderTotals(s.cart.SubtotalExclusive(), s.discountLocked())
}

func (s *CartService) discountLocked() decimal.Decimal {
	if s.cart.Promotion == nil {
		return decimal.Zero
	}
	return s.cart.Promotion.DiscountExclusive(s.cart.SubtotalExclusive())
}

func (s *CartService) currentKeyLocked() string {
	if s.identity == nil {
		return ""
	}
	current := s.identity.Current()
	if current == nil {
		return ""
	}
	return current.Key
}

// guardLocked 变更前的身份守卫
// 归属身份已绑定且与当前身份不一致时清空购物车并重新绑定；
// 首次绑定（初始未绑定）保留已有内容
func (s *CartService) guardLocked() {
	key := s.currentKeyLocked()
	if s.cart.OwnerKey == key {
		return
	}

	revision := uint64(0)
	if key != "" {
		if existing, err := s.repo.Load(key); err == nil && existing != nil {
			revision = existing.Revision
		}
	}
	if s.cart.OwnerKey != "" {
		logger.Infow("cart_identity_rebind",
			"previous_owner", s.cart.OwnerKey,
			"new_owner", key,
		)
		s.cart = models.NewCart(key)
	} else {
		s.cart.OwnerKey = key
	}
	s.cart.Revision = revision
}

// commitLocked 执行变更并持久化，保存失败时回滚内存态
// 失败的变更不留下半程状态，版本号也不前进，冲突守卫不会被反复重试推着走
func (s *CartService) commitLocked(mutate func()) error {
	prev := s.cart.Clone()
	mutate()
	if err := s.persistLocked(); err != nil {
		s.cart = prev
		return err
	}
	return nil
}

func (s *CartService) persistLocked() error {
	if s.cart.OwnerKey == "" {
		// 尚无会话身份时仅保留内存态
		return nil
	}
	s.cart.Revision++
	if err := s.repo.Save(s.cart); err != nil {
		logger.Warnw("cart_snapshot_save_failed",
			"owner", s.cart.OwnerKey,
			"revision", s.cart.Revision,
			"error", err,
		)
		return err
	}
	return nil
}

func (s *CartService) onIdentityChange(_ *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardLocked()
}
