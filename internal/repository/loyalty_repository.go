package repository

import (
	"errors"
	"time"

	"github.com/cafe-next/internal/models"

	"gorm.io/gorm"
)

// ErrInsufficientPoints 积分余额不足
var ErrInsufficientPoints = errors.New("积分余额不足")

// LoyaltyRepository 积分账户与奖励目录数据访问接口
type LoyaltyRepository interface {
	GetAccount(ownerKey string) (*models.LoyaltyAccount, error)
	DeductPoints(ownerKey string, points int, orderNo string) error
	ListActiveRewards() ([]models.RewardDefinition, error)
	WithTx(tx *gorm.DB) *GormLoyaltyRepository
}

// GormLoyaltyRepository GORM 实现
type GormLoyaltyRepository struct {
	db *gorm.DB
}

// NewLoyaltyRepository 创建积分仓库
func NewLoyaltyRepository(db *gorm.DB) *GormLoyaltyRepository {
	return &GormLoyaltyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoyaltyRepository) WithTx(tx *gorm.DB) *GormLoyaltyRepository {
	if tx == nil {
		return r
	}
	return &GormLoyaltyRepository{db: tx}
}

// GetAccount 按归属键获取积分账户，未找到返回 nil
func (r *GormLoyaltyRepository) GetAccount(ownerKey string) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := r.db.Where("owner_key = ?", ownerKey).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeductPoints 按订单号幂等扣减积分
// 同一订单号重复扣减直接视为成功，不再重复入账
func (r *GormLoyaltyRepository) DeductPoints(ownerKey string, points int, orderNo string) error {
	if ownerKey == "" || orderNo == "" || points <= 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.LoyaltyDeduction
		err := tx.Where("order_no = ?", orderNo).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var account models.LoyaltyAccount
		if err := tx.Where("owner_key = ?", ownerKey).First(&account).Error; err != nil {
			return err
		}
		if account.Points < points {
			return ErrInsufficientPoints
		}

		now := time.Now()
		if err := tx.Model(&account).Updates(map[string]interface{}{
			"points":     account.Points - points,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		deduction := models.LoyaltyDeduction{
			OrderNo:   orderNo,
			OwnerKey:  ownerKey,
			Points:    points,
			CreatedAt: now,
		}
		return tx.Create(&deduction).Error
	})
}

// ListActiveRewards 获取启用中的奖励目录
func (r *GormLoyaltyRepository) ListActiveRewards() ([]models.RewardDefinition, error) {
	var rewards []models.RewardDefinition
	if err := r.db.Where("is_active = ?", true).Order("points_required asc").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}
