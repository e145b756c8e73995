package public

import (
	"errors"

	"github.com/cafe-next/internal/http/response"
	"github.com/cafe-next/internal/repository"
	"github.com/cafe-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系
type mappedHandlerError struct {
	target error
	code   int
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.target.Error(), nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var cartMutationErrorRules = []mappedHandlerError{
	{target: service.ErrItemInvalid, code: response.CodeBadRequest},
	{target: service.ErrFulfillmentInvalid, code: response.CodeBadRequest},
	{target: service.ErrFulfillmentUnset, code: response.CodeBadRequest},
	{target: service.ErrClearNotConfirmed, code: response.CodeBadRequest},
	{target: repository.ErrRevisionConflict, code: response.CodeConflict},
}

var promoErrorRules = []mappedHandlerError{
	{target: service.ErrPromoCodeInvalid, code: response.CodeBadRequest},
	{target: service.ErrPromoServiceUnavailable, code: response.CodeUnavailable},
	{target: service.ErrPromoApplyInFlight, code: response.CodeTooManyRequests},
	{target: repository.ErrRevisionConflict, code: response.CodeConflict},
}

var rewardErrorRules = []mappedHandlerError{
	{target: service.ErrRewardInvalid, code: response.CodeBadRequest},
	{target: service.ErrRewardNotFound, code: response.CodeNotFound},
	{target: repository.ErrInsufficientPoints, code: response.CodeBadRequest},
	{target: repository.ErrRevisionConflict, code: response.CodeConflict},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest},
	{target: service.ErrFulfillmentUnset, code: response.CodeBadRequest},
	{target: service.ErrOrderDraftInvalid, code: response.CodeBadRequest},
	{target: repository.ErrRevisionConflict, code: response.CodeConflict},
}

func respondCartMutationError(c *gin.Context, err error) {
	respondWithMappedError(c, err, cartMutationErrorRules, response.CodeInternal, "购物车更新失败")
}

func respondPromoError(c *gin.Context, err error) {
	respondWithMappedError(c, err, promoErrorRules, response.CodeInternal, "优惠码处理失败")
}

func respondRewardError(c *gin.Context, err error) {
	respondWithMappedError(c, err, rewardErrorRules, response.CodeInternal, "积分奖励处理失败")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "结账处理失败")
}
