package main

import (
	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	espressoID := uint(101)

	// 添加积分奖励目录
	rewards := []models.RewardDefinition{
		{
			Name:           "会员九五折",
			Description:    "全单 5% 折扣",
			PointsRequired: 100,
			RewardType:     constants.RewardTypePercent,
			DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
			IsActive:       true,
		},
		{
			Name:           "半价咖啡日",
			Description:    "全单 50% 折扣",
			PointsRequired: 500,
			RewardType:     constants.RewardTypePercent,
			DiscountValue:  models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			IsActive:       true,
		},
		{
			Name:           "免费浓缩咖啡",
			Description:    "兑换一杯免费浓缩咖啡",
			PointsRequired: 300,
			RewardType:     constants.RewardTypeFreeProduct,
			DiscountValue:  models.NewMoneyFromDecimal(decimal.Zero),
			ProductID:      &espressoID,
			IsActive:       true,
		},
	}

	for _, reward := range rewards {
		var existing models.RewardDefinition
		if err := models.DB.Where("name = ?", reward.Name).First(&existing).Error; err != nil {
			// 不存在则创建
			if err := models.DB.Create(&reward).Error; err != nil {
				stdLog.Printf("Failed to create reward %s: %v", reward.Name, err)
			} else {
				stdLog.Printf("Created reward: %s", reward.Name)
			}
		} else {
			stdLog.Printf("Reward already exists: %s", reward.Name)
		}
	}

	// 添加演示积分账户
	accounts := []models.LoyaltyAccount{
		{OwnerKey: "user:1", Points: 800},
		{OwnerKey: "user:2", Points: 120},
	}
	for _, account := range accounts {
		var existing models.LoyaltyAccount
		if err := models.DB.Where("owner_key = ?", account.OwnerKey).First(&existing).Error; err != nil {
			if err := models.DB.Create(&account).Error; err != nil {
				stdLog.Printf("Failed to create loyalty account %s: %v", account.OwnerKey, err)
			} else {
				stdLog.Printf("Created loyalty account: %s (%d points)", account.OwnerKey, account.Points)
			}
		} else {
			stdLog.Printf("Loyalty account already exists: %s", account.OwnerKey)
		}
	}

	stdLog.Println("Seed completed")
}
