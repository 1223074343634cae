package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xiebiao/hotelbooking/internal/infrastructure/config"
	"github.com/xiebiao/hotelbooking/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/hotelbooking/pkg/errors"
)

// Verifier 支付授权核验接口
// 设计说明:预订创建前必须确认支付授权凭证有效,
// 但网关是外部依赖,接口化之后应用层可以用假实现做单元测试
type Verifier interface {
	// VerifyAuthorization 核验支付授权凭证
	// 凭证无效或金额不符时返回ErrPaymentRejected,
	// 网关不可用(超时/熔断)时返回ErrCodePaymentError级别的错误
	VerifyAuthorization(ctx context.Context, paymentRef string, amount int64, currency string) error
}

// Client 支付网关HTTP客户端
// 教学要点:
// 1. 外部HTTP调用必须设置超时(没有超时的HTTP调用是生产事故之源)
// 2. 用熔断器包住网关调用:网关抖动时快速失败,不拖垮预订链路
// 3. 业务拒绝(凭证无效)不算熔断器的失败,只有网络/5xx才算
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewClient 创建支付网关客户端
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Payment.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &Client{
		baseURL: cfg.Payment.BaseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: circuitbreaker.NewCircuitBreaker("payment-gateway", circuitbreaker.Config{
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				// 连续5次失败,或样本够多且失败率过半
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 10 && counts.FailureRate() > 0.5)
			},
		}),
	}
}

// verifyResponse 网关核验接口的响应体
type verifyResponse struct {
	Authorized bool   `json:"authorized"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// VerifyAuthorization 核验支付授权凭证
func (c *Client) VerifyAuthorization(ctx context.Context, paymentRef string, amount int64, currency string) error {
	var rejected error

	err := c.breaker.Execute(func() error {
		url := fmt.Sprintf("%s/v1/authorizations/%s", c.baseURL, paymentRef)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err // 网络错误,计入熔断统计
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			// 凭证不存在是业务拒绝,不计入熔断失败
			rejected = apperrors.ErrPaymentRejected
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("支付网关异常: HTTP %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			rejected = apperrors.ErrPaymentRejected
			return nil
		}

		var body verifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("解析网关响应失败: %w", err)
		}

		// 授权必须有效,且金额币种与预订一致
		if !body.Authorized || body.Amount < amount || body.Currency != currency {
			rejected = apperrors.ErrPaymentRejected
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpenState) {
			return apperrors.New(apperrors.ErrCodePaymentError, "支付网关暂时不可用,请稍后重试")
		}
		return apperrors.Wrap(err, "核验支付授权失败")
	}

	return rejected
}
