package models

import (
	"time"

	"gorm.io/gorm"
)

// LoyaltyAccount 会员积分账户
type LoyaltyAccount struct {
	ID        uint           `gorm:"primarykey" json:"id"`                  // 主键
	OwnerKey  string         `gorm:"uniqueIndex;not null" json:"owner_key"` // 归属键（user:<id>）
	Points    int            `gorm:"not null;default:0" json:"points"`      // 当前积分
	CreatedAt time.Time      `gorm:"index" json:"created_at"`               // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`               // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                        // 软删除时间
}

// TableName 指定表名
func (LoyaltyAccount) TableName() string {
	return "loyalty_accounts"
}

// LoyaltyDeduction 积分扣减流水（按订单号幂等）
type LoyaltyDeduction struct {
	ID        uint      `gorm:"primarykey" json:"id"`                 // 主键
	OrderNo   string    `gorm:"uniqueIndex;not null" json:"order_no"` // 订单号（幂等键）
	OwnerKey  string    `gorm:"index;not null" json:"owner_key"`      // 归属键
	Points    int       `gorm:"not null" json:"points"`               // 扣减积分
	CreatedAt time.Time `gorm:"index" json:"created_at"`              // 创建时间
}

// TableName 指定表名
func (LoyaltyDeduction) TableName() string {
	return "loyalty_deductions"
}

// RewardDefinition 积分奖励目录项（UI 据此构造 LoyaltyReward）
type RewardDefinition struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                        // 主键
	Name           string         `gorm:"not null" json:"name"`                                        // 奖励名称
	Description    string         `gorm:"type:text" json:"description"`                                // 奖励描述
	PointsRequired int            `gorm:"not null" json:"points_required"`                             // 所需积分
	RewardType     string         `gorm:"type:varchar(20);not null" json:"reward_type"`                // 奖励类型（percent/free_product）
	DiscountValue  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_value"` // 折扣百分比
	ProductID      *uint          `json:"product_id"`                                                  // 赠品商品ID
	IsActive       bool           `gorm:"not null;default:true" json:"is_active"`                      // 是否启用
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (RewardDefinition) TableName() string {
	return "reward_definitions"
}

// ToReward 转换为购物车引擎使用的奖励描述
func (r RewardDefinition) ToReward() LoyaltyReward {
	return LoyaltyReward{
		Name:            r.Name,
		Kind:            r.RewardType,
		DiscountValue:   r.DiscountValue,
		PointsRequired:  r.PointsRequired,
		RewardProductID: r.ProductID,
	}
}
