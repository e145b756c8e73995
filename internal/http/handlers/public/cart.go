package public

import (
	"strconv"

	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/pricing"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID uint         `json:"product_id" binding:"required"`
	Name      string       `json:"name" binding:"required"`
	Image     string       `json:"image"`
	UnitPrice models.Money `json:"unit_price"`
}

// CartItemView 购物车项响应
type CartItemView struct {
	ProductID    uint         `json:"product_id"`
	Name         string       `json:"name"`
	Image        string       `json:"image"`
	UnitPrice    models.Money `json:"unit_price"`
	Quantity     int          `json:"quantity"`
	LineSubtotal models.Money `json:"line_subtotal"`
}

// CartView 购物车响应
type CartView struct {
	OwnerKey    string              `json:"owner_key"`
	Items       []CartItemView      `json:"items"`
	TotalItems  int                 `json:"total_items"`
	Fulfillment string              `json:"fulfillment"`
	Promotion   *PromotionView      `json:"promotion"`
	Totals      pricing.OrderTotals `json:"totals"`
}

// PromotionView 生效促销响应
type PromotionView struct {
	Kind    string                `json:"kind"`
	Promo   *models.PromoCode     `json:"promo,omitempty"`
	Loyalty *models.LoyaltyReward `json:"loyalty,omitempty"`
}

func (h *Handler) buildCartView() CartView {
	items := h.CartFacade.Items()
	views := make([]CartItemView, 0, len(items))
	for _, item := range items {
		views = append(views, CartItemView{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Image:        item.Image,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineSubtotal: models.NewMoneyFromDecimal(item.LineSubtotal()),
		})
	}

	var promotion *PromotionView
	switch p := h.CartFacade.Promotion().(type) {
	case models.PromoApplied:
		promo := p.Promo
		promotion = &PromotionView{Kind: p.Kind(), Promo: &promo}
	case models.LoyaltyApplied:
		reward := p.Reward
		promotion = &PromotionView{Kind: p.Kind(), Loyalty: &reward}
	}

	return CartView{
		OwnerKey:    h.CartFacade.OwnerKey(),
		Items:       views,
		TotalItems:  h.CartFacade.TotalItems(),
		Fulfillment: h.CartFacade.Fulfillment(),
		Promotion:   promotion,
		Totals:      h.CartFacade.Totals(),
	}
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	response.Success(c, h.buildCartView())
}

// AddCartItem 加入商品（同商品叠加数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.CartFacade.Add(service.AddItemInput{
		ProductID: req.ProductID,
		Name:      req.Name,
		Image:     req.Image,
		UnitPrice: req.UnitPrice,
	}); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// IncrementCartItem 数量加一
func (h *Handler) IncrementCartItem(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	if err := h.CartFacade.Increment(productID); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// DecrementCartItem 数量减一（减到 0 时整项移除）
func (h *Handler) DecrementCartItem(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	if err := h.CartFacade.Decrement(productID); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// DeleteCartItem 移除商品
func (h *Handler) DeleteCartItem(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	if err := h.CartFacade.Remove(productID); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// ClearCartRequest 清空购物车请求
type ClearCartRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ClearCart 用户主动清空购物车，需显式确认
func (h *Handler) ClearCart(c *gin.Context) {
	var req ClearCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.CartFacade.ClearConfirmed(req.Confirmed); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// SetFulfillmentRequest 取餐方式请求
type SetFulfillmentRequest struct {
	Fulfillment string `json:"fulfillment" binding:"required"`
}

// SetFulfillment 选择取餐方式
func (h *Handler) SetFulfillment(c *gin.Context) {
	var req SetFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.CartFacade.SelectFulfillment(req.Fulfillment); err != nil {
		respondCartMutationError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// ApplyPromoRequest 应用优惠码请求
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyPromo 应用优惠码（互斥替换已生效的积分奖励）
func (h *Handler) ApplyPromo(c *gin.Context) {
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	if err := h.CartFacade.ApplyPromo(c.Request.Context(), req.Code); err != nil {
		respondPromoError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// RemovePromo 移除优惠码（未应用时为幂等空操作）
func (h *Handler) RemovePromo(c *gin.Context) {
	if err := h.CartFacade.RemovePromo(); err != nil {
		respondPromoError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// ApplyRewardRequest 应用积分奖励请求
type ApplyRewardRequest struct {
	RewardID uint `json:"reward_id" binding:"required"`
}

// ApplyReward 应用积分奖励（先校验余额，互斥替换已生效的优惠码）
func (h *Handler) ApplyReward(c *gin.Context) {
	var req ApplyRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	definition, err := h.LoyaltyService.GetReward(req.RewardID)
	if err != nil {
		respondRewardError(c, err)
		return
	}
	reward := definition.ToReward()
	if err := h.LoyaltyService.CheckRedeemable(h.CartFacade.OwnerKey(), reward); err != nil {
		respondRewardError(c, err)
		return
	}
	if err := h.CartFacade.ApplyLoyaltyReward(reward); err != nil {
		respondRewardError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// RemoveReward 移除积分奖励（未应用时为幂等空操作）
func (h *Handler) RemoveReward(c *gin.Context) {
	if err := h.CartFacade.RemoveLoyaltyReward(); err != nil {
		respondRewardError(c, err)
		return
	}
	response.Success(c, h.buildCartView())
}

// GetRewards 获取启用中的奖励目录与当前积分余额
func (h *Handler) GetRewards(c *gin.Context) {
	rewards, err := h.LoyaltyService.ListRewards()
	if err != nil {
		respondError(c, response.CodeInternal, "积分奖励获取失败", err)
		return
	}
	balance, err := h.LoyaltyService.Balance(h.CartFacade.OwnerKey())
	if err != nil {
		respondError(c, response.CodeInternal, "积分余额获取失败", err)
		return
	}
	response.Success(c, gin.H{
		"rewards": rewards,
		"balance": balance,
	})
}

func parseProductID(c *gin.Context) (uint, bool) {
	raw := c.Param("product_id")
	productID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "购物车项无效", nil)
		return 0, false
	}
	return uint(productID), true
}
