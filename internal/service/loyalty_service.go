package service

import (
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"
)

// LoyaltyService 积分服务
// 提供奖励目录、余额预校验与订单支付后的积分扣减
type LoyaltyService struct {
	loyaltyRepo repository.LoyaltyRepository
}

// NewLoyaltyService 创建积分服务
func NewLoyaltyService(loyaltyRepo repository.LoyaltyRepository) *LoyaltyService {
	return &LoyaltyService{loyaltyRepo: loyaltyRepo}
}

// ListRewards 获取启用中的奖励目录
func (s *LoyaltyService) ListRewards() ([]models.RewardDefinition, error) {
	return s.loyaltyRepo.ListActiveRewards()
}

// GetReward 按ID获取奖励定义
func (s *LoyaltyService) GetReward(id uint) (*models.RewardDefinition, error) {
	rewards, err := s.loyaltyRepo.ListActiveRewards()
	if err != nil {
		return nil, err
	}
	for i := range rewards {
		if rewards[i].ID == id {
			return &rewards[i], nil
		}
	}
	return nil, ErrRewardNotFound
}

// Balance 查询积分余额，账户不存在视为 0
func (s *LoyaltyService) Balance(ownerKey string) (int, error) {
	account, err := s.loyaltyRepo.GetAccount(ownerKey)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}
	return account.Points, nil
}

// CheckRedeemable 预校验余额是否足以兑换奖励
// 购物车引擎信任其输入，余额校验由这里（调用方侧）完成；
// 余额不足与扣减侧共用同一哨兵 repository.ErrInsufficientPoints
func (s *LoyaltyService) CheckRedeemable(ownerKey string, reward models.LoyaltyReward) error {
	balance, err := s.Balance(ownerKey)
	if err != nil {
		return err
	}
	if balance < reward.PointsRequired {
		return repository.ErrInsufficientPoints
	}
	return nil
}

// DeductForOrder 订单确认支付后按订单号幂等扣减积分
func (s *LoyaltyService) DeductForOrder(ownerKey string, points int, orderNo string) error {
	return s.loyaltyRepo.DeductPoints(ownerKey, points, orderNo)
}
