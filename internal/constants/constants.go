package constants

// 取餐方式常量（规范值）
const (
	FulfillmentDineIn   = "dine_in"
	FulfillmentTakeaway = "takeaway"
	FulfillmentDelivery = "delivery"
	FulfillmentUnset    = ""
)

// 旧版取餐方式常量（法语字符串，来自历史持久化快照）
const (
	LegacyFulfillmentDineIn   = "sur place"
	LegacyFulfillmentTakeaway = "à emporter"
	LegacyFulfillmentDelivery = "livraison"
)

// 优惠码折扣类型常量
const (
	DiscountTypePercent = "percent"
	DiscountTypeFixed   = "fixed"
)

// 积分奖励类型常量
const (
	RewardTypePercent     = "percent"
	RewardTypeFreeProduct = "free_product"
)

// 促销种类常量（快照持久化用）
const (
	PromotionKindNone    = "none"
	PromotionKindPromo   = "promo"
	PromotionKindLoyalty = "loyalty"
)

// 队列与任务常量
const (
	QueueDefault      = "default"
	TaskLoyaltyDeduct = "loyalty:deduct_points"
)

// FallbackPromoCodes 优惠码本地兜底表（远端校验服务不可用时使用，值为百分比）
var FallbackPromoCodes = map[string]int64{
	"WELCOME10": 10,
	"SUMMER20":  20,
	"VIP30":     30,
}

// NormalizeFulfillment 归一化取餐方式，兼容旧版法语值
func NormalizeFulfillment(raw string) (string, bool) {
	switch raw {
	case FulfillmentDineIn, LegacyFulfillmentDineIn:
		return FulfillmentDineIn, true
	case FulfillmentTakeaway, LegacyFulfillmentTakeaway:
		return FulfillmentTakeaway, true
	case FulfillmentDelivery, LegacyFulfillmentDelivery:
		return FulfillmentDelivery, true
	case FulfillmentUnset:
		return FulfillmentUnset, true
	default:
		return FulfillmentUnset, false
	}
}
