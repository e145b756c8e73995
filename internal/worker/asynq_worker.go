package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/provider"
	"github.com/cafe-next/internal/queue"
	"github.com/cafe-next/internal/repository"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLoyaltyDeduct, c.handleLoyaltyDeduct)
}

// handleLoyaltyDeduct 订单确认支付后扣减积分
// 扣减以订单号幂等，重复投递不会二次扣减；积分不足视为终态错误不再重试
func (c *Consumer) handleLoyaltyDeduct(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_loyalty_deduct_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LoyaltyDeductPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_loyalty_deduct_unmarshal_failed", "error", err)
		return err
	}
	if payload.OwnerKey == "" || payload.OrderNo == "" || payload.Points <= 0 {
		logger.Debugw("worker_loyalty_deduct_skip_invalid_payload",
			"owner", payload.OwnerKey,
			"order_no", payload.OrderNo,
			"points", payload.Points,
		)
		return nil
	}
	if c.LoyaltyService == nil {
		logger.Warnw("worker_loyalty_deduct_skip_service_nil", "order_no", payload.OrderNo)
		return nil
	}
	if err := c.LoyaltyService.DeductForOrder(payload.OwnerKey, payload.Points, payload.OrderNo); err != nil {
		if errors.Is(err, repository.ErrInsufficientPoints) {
			logger.Errorw("worker_loyalty_deduct_insufficient_points",
				"owner", payload.OwnerKey,
				"order_no", payload.OrderNo,
				"points", payload.Points,
			)
			return asynq.SkipRetry
		}
		logger.Warnw("worker_loyalty_deduct_failed",
			"owner", payload.OwnerKey,
			"order_no", payload.OrderNo,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_loyalty_deduct_done",
		"owner", payload.OwnerKey,
		"order_no", payload.OrderNo,
		"points", payload.Points,
	)
	return nil
}
