package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cafe-next/internal/models"
)

const defaultPromoCacheTTL = 5 * time.Minute

// PromoValidation 远端优惠码校验结果快照
// 仅缓存校验成功的结果，失败与兜底命中不缓存
type PromoValidation struct {
	Code     string       `json:"code"`
	Kind     string       `json:"kind"`
	Value    models.Money `json:"value"`
	CachedAt int64        `json:"cached_at"`
}

func promoValidationKey(code string) string {
	return fmt.Sprintf("promo:code:%s", strings.ToUpper(strings.TrimSpace(code)))
}

// GetPromoValidation 读取优惠码校验缓存
func GetPromoValidation(ctx context.Context, code string) (*PromoValidation, error) {
	var state PromoValidation
	found, err := GetJSON(ctx, promoValidationKey(code), &state)
	if err != nil || !found {
		return nil, err
	}
	return &state, nil
}

// SetPromoValidation 写入优惠码校验缓存
func SetPromoValidation(ctx context.Context, state *PromoValidation, ttl time.Duration) error {
	if state == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultPromoCacheTTL
	}
	state.CachedAt = time.Now().Unix()
	return SetJSON(ctx, promoValidationKey(state.Code), state, ttl)
}
