package service

import (
	"errors"
	"testing"

	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/models"
	"github.com/cafe-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupLoyaltyServiceTest(t *testing.T) (*LoyaltyService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:loyalty_service_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.LoyaltyAccount{}, &models.LoyaltyDeduction{}, &models.RewardDefinition{}); err != nil {
		t.Fatalf("migrate loyalty tables failed: %v", err)
	}
	for _, model := range []interface{}{&models.LoyaltyDeduction{}, &models.LoyaltyAccount{}, &models.RewardDefinition{}} {
		if err := db.Where("1 = 1").Unscoped().Delete(model).Error; err != nil {
			t.Fatalf("clean loyalty tables failed: %v", err)
		}
	}
	return NewLoyaltyService(repository.NewLoyaltyRepository(db)), db
}

func TestBalanceMissingAccountIsZero(t *testing.T) {
	svc, _ := setupLoyaltyServiceTest(t)

	balance, err := svc.Balance("user:404")
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("balance want 0 got %d", balance)
	}
}

func TestCheckRedeemableUsesSharedSentinel(t *testing.T) {
	svc, db := setupLoyaltyServiceTest(t)

	if err := db.Create(&models.LoyaltyAccount{OwnerKey: "user:9", Points: 100}).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	reward := models.LoyaltyReward{
		Name:           "半价咖啡日",
		Kind:           constants.RewardTypePercent,
		DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		PointsRequired: 500,
	}
	// 预校验与扣减侧共用同一哨兵，接口层与 worker 只需匹配一个错误
	if err := svc.CheckRedeemable("user:9", reward); !errors.Is(err, repository.ErrInsufficientPoints) {
		t.Fatalf("want repository.ErrInsufficientPoints got %v", err)
	}

	reward.PointsRequired = 100
	if err := svc.CheckRedeemable("user:9", reward); err != nil {
		t.Fatalf("redeemable check failed: %v", err)
	}
}

func TestGetRewardNotFound(t *testing.T) {
	svc, db := setupLoyaltyServiceTest(t)

	if err := db.Create(&models.RewardDefinition{
		Name:           "会员九五折",
		PointsRequired: 100,
		RewardType:     constants.RewardTypePercent,
		DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		IsActive:       true,
	}).Error; err != nil {
		t.Fatalf("create reward failed: %v", err)
	}

	if _, err := svc.GetReward(9999); !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("want ErrRewardNotFound got %v", err)
	}
}
