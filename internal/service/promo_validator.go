package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cafe-next/internal/cache"
	"github.com/cafe-next/internal/config"
	"github.com/cafe-next/internal/constants"
	"github.com/cafe-next/internal/logger"
	"github.com/cafe-next/internal/models"

	"github.com/shopspring/decimal"
)

const defaultPromoTimeout = 5 * time.Second

// PromoValidator 优惠码校验接口
type PromoValidator interface {
	Validate(ctx context.Context, code string, subtotal models.Money) (*models.PromoCode, error)
}

// RemotePromoValidator 远端优惠码校验实现
// 远端不可用时降级到本地兜底表，保证可用性优先于严格校验
type RemotePromoValidator struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	cacheTTL time.Duration
}

// NewPromoValidator 创建优惠码校验器
func NewPromoValidator(cfg *config.PromoValidatorConfig) *RemotePromoValidator {
	timeout := defaultPromoTimeout
	cacheTTL := time.Duration(0)
	endpoint := ""
	if cfg != nil {
		endpoint = strings.TrimSpace(cfg.Endpoint)
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		if cfg.CacheTTLSeconds > 0 {
			cacheTTL = time.Duration(cfg.CacheTTLSeconds) * time.Second
		}
	}
	return &RemotePromoValidator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		cacheTTL: cacheTTL,
	}
}

type promoValidateRequest struct {
	Code     string       `json:"code"`
	Subtotal models.Money `json:"subtotal"`
}

type promoValidateResponse struct {
	Success       bool         `json:"success"`
	DiscountType  string       `json:"discount_type"`
	DiscountValue models.Money `json:"discount_value"`
}

// Validate 校验优惠码并返回折扣描述
// 优惠码统一大写后再查询；校验失败返回 ErrPromoCodeInvalid，不修改任何购物车状态
func (v *RemotePromoValidator) Validate(ctx context.Context, code string, subtotal models.Money) (*models.PromoCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, ErrPromoCodeInvalid
	}

	if cached, err := cache.GetPromoValidation(ctx, normalized); err == nil && cached != nil {
		logger.Debugw("promo_validate_cache_hit", "code", normalized)
		return &models.PromoCode{Code: cached.Code, Kind: cached.Kind, Value: cached.Value}, nil
	}

	if v.endpoint == "" {
		return v.fallbackLookup(normalized)
	}

	promo, err := v.validateRemote(ctx, normalized, subtotal)
	if err == nil {
		if cacheErr := cache.SetPromoValidation(ctx, &cache.PromoValidation{
			Code:  promo.Code,
			Kind:  promo.Kind,
			Value: promo.Value,
		}, v.cacheTTL); cacheErr != nil {
			logger.Debugw("promo_validate_cache_set_failed", "code", normalized, "error", cacheErr)
		}
		return promo, nil
	}
	if err == ErrPromoServiceUnavailable {
		logger.Warnw("promo_validate_remote_unavailable", "code", normalized)
		return v.fallbackLookup(normalized)
	}
	return nil, err
}

func (v *RemotePromoValidator) validateRemote(ctx context.Context, code string, subtotal models.Money) (*models.PromoCode, error) {
	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	body, err := json.Marshal(promoValidateRequest{Code: code, Subtotal: subtotal})
	if err != nil {
		return nil, ErrPromoServiceUnavailable
	}
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, ErrPromoServiceUnavailable
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, ErrPromoServiceUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, ErrPromoServiceUnavailable
	}
	var result promoValidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, ErrPromoServiceUnavailable
	}
	if resp.StatusCode != http.StatusOK || !result.Success {
		return nil, ErrPromoCodeInvalid
	}
	kind := strings.ToLower(strings.TrimSpace(result.DiscountType))
	if kind != constants.DiscountTypePercent && kind != constants.DiscountTypeFixed {
		return nil, ErrPromoCodeInvalid
	}
	if result.DiscountValue.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrPromoCodeInvalid
	}
	return &models.PromoCode{
		Code:  code,
		Kind:  kind,
		Value: result.DiscountValue,
	}, nil
}

// fallbackLookup 本地兜底表查询，表中不存在时仍按无效优惠码处理
func (v *RemotePromoValidator) fallbackLookup(code string) (*models.PromoCode, error) {
	percent, ok := constants.FallbackPromoCodes[code]
	if !ok {
		return nil, ErrPromoCodeInvalid
	}
	return &models.PromoCode{
		Code:  code,
		Kind:  constants.DiscountTypePercent,
		Value: models.NewMoneyFromDecimal(decimal.NewFromInt(percent)),
	}, nil
}
