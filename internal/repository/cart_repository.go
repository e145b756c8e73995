package repository

import (
	"errors"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
)

// ErrRevisionConflict 快照版本冲突（另一会话已写入更新的版本）
// 跨标签页并发写入不做静默合并，由调用方决定如何处理
var ErrRevisionConflict = errors.New("购物车快照版本冲突")

// CartRepository 购物车快照数据访问接口
type CartRepository interface {
	Load(ownerKey string) (*models.Cart, error)
	Save(cart *models.Cart) error
	Delete(ownerKey string) error
}

// GormCartRepository GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓库
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// Load 按归属键加载购物车，未找到返回 nil
// 旧版取餐方式在此归一化；损坏快照中促销字段若同时存在，以积分奖励为准
func (r *GormCartRepository) Load(ownerKey string) (*models.Cart, error) {
	var snapshot models.CartSnapshot
	err := r.db.Where("owner_key = ?", ownerKey).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromSnapshot(&snapshot), nil
}

// Save 写入购物车快照
// 已存在更高或相同版本号的快照时拒绝写入并返回 ErrRevisionConflict
func (r *GormCartRepository) Save(cart *models.Cart) error {
	if cart == nil || cart.OwnerKey == "" {
		return nil
	}
	snapshot := toSnapshot(cart)
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CartSnapshot
		err := tx.Where("owner_key = ?", cart.OwnerKey).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(snapshot).Error
		}
		if err != nil {
			return err
		}
		if existing.Revision >= snapshot.Revision {
			return ErrRevisionConflict
		}
		snapshot.ID = existing.ID
		snapshot.CreatedAt = existing.CreatedAt
		return tx.Save(snapshot).Error
	})
}

// Delete 删除购物车快照
func (r *GormCartRepository) Delete(ownerKey string) error {
	if ownerKey == "" {
		return nil
	}
	return r.db.Where("owner_key = ?", ownerKey).Delete(&models.CartSnapshot{}).Error
}

func toSnapshot(cart *models.Cart) *models.CartSnapshot {
	snapshot := &models.CartSnapshot{
		OwnerKey:        cart.OwnerKey,
		Items:           cart.Items,
		FulfillmentType: cart.Fulfillment,
		PromotionKind:   constants.PromotionKindNone,
		Revision:        cart.Revision,
	}
	switch p := cart.Promotion.(type) {
	case models.PromoApplied:
		snapshot.PromotionKind = constants.PromotionKindPromo
		snapshot.PromoCode = p.Promo.Code
		snapshot.PromoType = p.Promo.Kind
		snapshot.PromoValue = p.Promo.Value
	case models.LoyaltyApplied:
		snapshot.PromotionKind = constants.PromotionKindLoyalty
		snapshot.LoyaltyName = p.Reward.Name
		snapshot.LoyaltyType = p.Reward.Kind
		snapshot.LoyaltyValue = p.Reward.DiscountValue
		snapshot.LoyaltyPoints = p.Reward.PointsRequired
		snapshot.LoyaltyProduct = p.Reward.RewardProductID
	}
	return snapshot
}

func fromSnapshot(snapshot *models.CartSnapshot) *models.Cart {
	cart := models.NewCart(snapshot.OwnerKey)
	cart.Items = snapshot.Items
	if cart.Items == nil {
		cart.Items = models.CartItemList{}
	}
	if normalized, ok := constants.NormalizeFulfillment(snapshot.FulfillmentType); ok {
		cart.Fulfillment = normalized
	}
	cart.Promotion = resolvePromotion(snapshot)
	cart.Revision = snapshot.Revision
	return cart
}

// resolvePromotion 从扁平快照字段还原促销状态
// 积分奖励字段非空时优先于优惠码字段，写路径不会产生两者共存的快照
func resolvePromotion(snapshot *models.CartSnapshot) models.ActivePromotion {
	hasLoyalty := snapshot.LoyaltyName != "" && snapshot.LoyaltyType != ""
	hasPromo := snapshot.PromoCode != "" && snapshot.PromoType != ""

	if hasLoyalty && (snapshot.PromotionKind == constants.PromotionKindLoyalty || hasPromo) {
		return models.LoyaltyApplied{Reward: models.LoyaltyReward{
			Name:            snapshot.LoyaltyName,
			Kind:            snapshot.LoyaltyType,
			DiscountValue:   snapshot.LoyaltyValue,
			PointsRequired:  snapshot.LoyaltyPoints,
			RewardProductID: snapshot.LoyaltyProduct,
		}}
	}
	if hasPromo && snapshot.PromotionKind != constants.PromotionKindNone {
		return models.PromoApplied{Promo: models.PromoCode{
			Code:  snapshot.PromoCode,
			Kind:  snapshot.PromoType,
			Value: snapshot.PromoValue,
		}}
	}
	if hasLoyalty {
		return models.LoyaltyApplied{Reward: models.LoyaltyReward{
			Name:            snapshot.LoyaltyName,
			Kind:            snapshot.LoyaltyType,
			DiscountValue:   snapshot.LoyaltyValue,
			PointsRequired:  snapshot.LoyaltyPoints,
			RewardProductID: snapshot.LoyaltyProduct,
		}}
	}
	return nil
}
