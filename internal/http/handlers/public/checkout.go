package public

import (
	"strings"

	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PreviewCheckout 基于购物车当前状态构建订单载荷
func (h *Handler) PreviewCheckout(c *gin.Context) {
	draft, err := h.CheckoutService.BuildOrderDraft()
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, draft)
}

// ConfirmPaidRequest 订单确认支付请求
type ConfirmPaidRequest struct {
	OrderNo string              `json:"order_no" binding:"required"`
	Draft   *service.OrderDraft `json:"draft" binding:"required"`
}

// ConfirmCheckoutPaid 订单确认支付后的收尾（触发积分扣减、清空购物车）
func (h *Handler) ConfirmCheckoutPaid(c *gin.Context) {
	var req ConfirmPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	orderNo := strings.TrimSpace(req.OrderNo)
	if err := h.CheckoutService.ConfirmPaid(req.Draft, orderNo); err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, gin.H{"order_no": orderNo, "confirmed": true})
}
