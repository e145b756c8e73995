package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem 购物车项
// 名称与图片为加入时的冗余展示字段，不随商品目录实时更新
type CartItem struct {
	ProductID uint   `json:"product_id"` // 商品ID（同一购物车内唯一）
	Name      string `json:"name"`       // 冗余商品名称
	Image     string `json:"image"`      // 冗余商品图片
	UnitPrice Money  `json:"unit_price"` // 未税单价
	Quantity  int    `json:"quantity"`   // 数量（始终 >= 1）
}

// LineSubtotal 未税行小计
func (i CartItem) LineSubtotal() decimal.Decimal {
	return i.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItemList 购物车项集合（以 JSON 列持久化）
type CartItemList []CartItem

// Value 用于数据库写入
func (l CartItemList) Value() (driver.Value, error) {
	if l == nil {
		l = CartItemList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 用于数据库读取
func (l *CartItemList) Scan(value interface{}) error {
	if value == nil {
		*l = CartItemList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported cart item list source")
	}
	if len(raw) == 0 {
		*l = CartItemList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

// Cart 购物车聚合根（内存态）
// OwnerKey 为空表示尚未绑定身份；Promotion 为 nil 表示无促销
type Cart struct {
	Items       CartItemList
	Fulfillment string
	Promotion   ActivePromotion
	OwnerKey    string
	Revision    uint64
}

// NewCart 创建空购物车
func NewCart(ownerKey string) *Cart {
	return &Cart{
		Items:    CartItemList{},
		OwnerKey: ownerKey,
	}
}

// Clone 拷贝购物车（持久化失败时回滚内存态用）
func (c *Cart) Clone() *Cart {
	copied := *c
	copied.Items = make(CartItemList, len(c.Items))
	copy(copied.Items, c.Items)
	return &copied
}

// FindItem 按商品ID查找购物车项
func (c *Cart) FindItem(productID uint) (int, *CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i, &c.Items[i]
		}
	}
	return -1, nil
}

// SubtotalExclusive 未税小计
func (c *Cart) SubtotalExclusive() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineSubtotal())
	}
	return sum
}

// TotalItems 商品总件数
func (c *Cart) TotalItems() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty 是否为空
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartSnapshot 购物车持久化快照（按归属键唯一，扁平字段存储促销状态）
type CartSnapshot struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                           // 主键
	OwnerKey        string         `gorm:"uniqueIndex;not null" json:"owner_key"`                          // 归属键（user:<id> 或 guest:<uuid>）
	Items           CartItemList   `gorm:"type:text" json:"items"`                                         // 购物车项（JSON）
	FulfillmentType string         `gorm:"type:varchar(20)" json:"fulfillment_type"`                       // 取餐方式（可能含旧版法语值）
	PromotionKind   string         `gorm:"type:varchar(20);not null;default:'none'" json:"promotion_kind"` // 促销种类
	PromoCode       string         `json:"promo_code"`                                                     // 优惠码
	PromoType       string         `gorm:"type:varchar(20)" json:"promo_type"`                             // 优惠码折扣类型
	PromoValue      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"promo_value"`       // 优惠码数值
	LoyaltyName     string         `json:"loyalty_name"`                                                   // 奖励名称
	LoyaltyType     string         `gorm:"type:varchar(20)" json:"loyalty_type"`                           // 奖励类型
	LoyaltyValue    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"loyalty_value"`     // 奖励折扣百分比
	LoyaltyPoints   int            `gorm:"not null;default:0" json:"loyalty_points"`                       // 奖励所需积分
	LoyaltyProduct  *uint          `json:"loyalty_product"`                                                // 赠品商品ID
	Revision        uint64         `gorm:"not null;default:0" json:"revision"`                             // 快照版本号（单调递增）
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                        // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                                 // 软删除时间
}

// TableName 指定表名
func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
