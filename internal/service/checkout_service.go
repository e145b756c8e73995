package service

import (
	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/pricing"
	"github.com/cafe-next/internal/queue"
)

// OrderDraft 订单提交载荷
// 由结账流程读取引擎派生金额构建，交给订单服务落单
type OrderDraft struct {
	OwnerKey      string              `json:"owner_key"`
	Items         []models.CartItem   `json:"items"`
	Fulfillment   string              `json:"fulfillment"`
	Totals        pricing.OrderTotals `json:"totals"`
	PromotionKind string              `json:"promotion_kind"`
	PromoCode     string              `json:"promo_code,omitempty"`
	LoyaltyName   string              `json:"loyalty_name,omitempty"`
	LoyaltyPoints int                 `json:"loyalty_points,omitempty"`
	FreeProductID *uint               `json:"free_product_id,omitempty"`
}

// CheckoutService 结账协作方
// 只读取购物车门面构建订单载荷；订单确认支付后负责触发积分扣减并清空购物车
type CheckoutService struct {
	cart        *CartFacade
	queueClient *queue.Client
}

// NewCheckoutService 创建结账服务
func NewCheckoutService(cart *CartFacade, queueClient *queue.Client) *CheckoutService {
	return &CheckoutService{
		cart:        cart,
		queueClient: queueClient,
	}
}

// BuildOrderDraft 从购物车当前状态构建订单载荷
// 购物车为空或取餐方式未选择时拒绝
func (s *CheckoutService) BuildOrderDraft() (*OrderDraft, error) {
	if s.cart.IsEmpty() {
		return nil, ErrCartEmpty
	}
	if s.cart.Fulfillment() == constants.FulfillmentUnset {
		return nil, ErrFulfillmentUnset
	}

	draft := &OrderDraft{
		OwnerKey:      s.cart.OwnerKey(),
		Items:         s.cart.Items(),
		Fulfillment:   s.cart.Fulfillment(),
		Totals:        s.cart.Totals(),
		PromotionKind: constants.PromotionKindNone,
	}
	switch p := s.cart.Promotion().(type) {
	case models.PromoApplied:
		draft.PromotionKind = constants.PromotionKindPromo
		draft.PromoCode = p.Promo.Code
	case models.LoyaltyApplied:
		draft.PromotionKind = constants.PromotionKindLoyalty
		draft.LoyaltyName = p.Reward.Name
		draft.LoyaltyPoints = p.Reward.PointsRequired
		draft.FreeProductID = p.Reward.RewardProductID
	}
	return draft, nil
}

// ConfirmPaid 订单确认支付后的收尾
// 积分奖励此前只做预占，这里才投递扣减任务；随后清空购物车
func (s *CheckoutService) ConfirmPaid(draft *OrderDraft, orderNo string) error {
	if draft == nil || orderNo == "" {
		return ErrOrderDraftInvalid
	}
	if draft.PromotionKind == constants.PromotionKindLoyalty && draft.LoyaltyPoints > 0 {
		err := s.queueClient.EnqueueLoyaltyDeduct(queue.LoyaltyDeductPayload{
			OwnerKey: draft.OwnerKey,
			Points:   draft.LoyaltyPoints,
			OrderNo:  orderNo,
		})
		if err != nil {
			logger.Errorw("checkout_loyalty_deduct_enqueue_failed",
				"order_no", orderNo,
				"owner", draft.OwnerKey,
				"error", err,
			)
			return err
		}
	}
	if err := s.cart.Clear(); err != nil {
		return err
	}
	logger.Infow("checkout_confirmed_paid",
		"order_no", orderNo,
		"owner", draft.OwnerKey,
		"total", draft.Totals.TotalInclusive.String(),
	)
	return nil
}
