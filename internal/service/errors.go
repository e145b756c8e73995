package service

import "errors"

// 购物车引擎业务错误（可预期条件一律以哨兵错误返回，不抛 panic）
var (
	ErrItemInvalid             = errors.New("购物车项无效")
	ErrFulfillmentInvalid      = errors.New("取餐方式无效")
	ErrFulfillmentUnset        = errors.New("取餐方式未选择")
	ErrCartEmpty               = errors.New("购物车为空")
	ErrClearNotConfirmed       = errors.New("清空购物车需要确认")
	ErrPromoCodeInvalid        = errors.New("优惠码无效")
	ErrPromoServiceUnavailable = errors.New("优惠码校验服务不可用")
	ErrPromoApplyInFlight      = errors.New("优惠码校验进行中")
	ErrRewardInvalid           = errors.New("积分奖励无效")
	ErrRewardNotFound          = errors.New("积分奖励不存在")
	ErrOrderDraftInvalid       = errors.New("订单载荷无效")
)
