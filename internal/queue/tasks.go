package queue

import (
	"encoding/json"

	"github.com/cafe-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLoyaltyDeduct 积分扣减任务
	TaskLoyaltyDeduct = constants.TaskLoyaltyDeduct
)

// LoyaltyDeductPayload 积分扣减任务载荷
// 扣减按 OrderNo 幂等，重复投递不会重复扣分
type LoyaltyDeductPayload struct {
	OwnerKey string `json:"owner_key"`
	Points   int    `json:"points"`
	OrderNo  string `json:"order_no"`
}

// NewLoyaltyDeductTask 创建积分扣减任务
func NewLoyaltyDeductTask(payload LoyaltyDeductPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoyaltyDeduct, body), nil
}
