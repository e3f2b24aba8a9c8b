package mailtm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL mail.tm 公共 API 地址。
const DefaultBaseURL = "https://api.mail.tm"

// Client mail.tm API 的轻量 HTTP 客户端。
//
// 每次请求前经过限流器，命中供应商 429 时按 Retry-After
// 或指数退避重试。令牌按邮箱粒度由调用方传入。
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient 创建供应商客户端。
//
// 参数:
//   - baseURL: API 根地址，空串时使用 DefaultBaseURL
//   - timeout: 单次请求超时
//   - qps: 对供应商的请求速率上限
func NewClient(baseURL string, timeout time.Duration, qps float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if qps <= 0 {
		qps = 4
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(qps), int(qps)+1),
		maxRetries: 3,
	}
}

// GetDomains 获取供应商的域名列表。
func (c *Client) GetDomains(ctx context.Context) ([]Domain, error) {
	var collection hydraCollection[Domain]
	if err := c.do(ctx, http.MethodGet, "/domains", "", nil, &collection); err != nil {
		return nil, err
	}
	return collection.Members, nil
}

// CreateAccount 在供应商侧注册邮箱账户。
func (c *Client) CreateAccount(ctx context.Context, address, password string) (*Account, error) {
	var account Account
	req := createAccountRequest{Address: address, Password: password}
	if err := c.do(ctx, http.MethodPost, "/accounts", "", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetToken 用邮箱地址和密码换取 Bearer 令牌。
func (c *Client) GetToken(ctx context.Context, address, password string) (*Token, error) {
	var token Token
	req := tokenRequest{Address: address, Password: password}
	if err := c.do(ctx, http.MethodPost, "/token", "", req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// GetMessages 拉取邮箱的邮件列表（不含正文）。
func (c *Client) GetMessages(ctx context.Context, token string) ([]MessageSummary, error) {
	var collection hydraCollection[MessageSummary]
	if err := c.do(ctx, http.MethodGet, "/messages", token, nil, &collection); err != nil {
		return nil, err
	}
	return collection.Members, nil
}

// GetMessage 拉取单封邮件的完整内容。
func (c *Client) GetMessage(ctx context.Context, token, id string) (*MessageDetail, error) {
	var detail MessageDetail
	if err := c.do(ctx, http.MethodGet, "/messages/"+id, token, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// do 构造请求，处理认证、限流重试与 JSON 编解码。
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	token string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &APIError{StatusCode: resp.StatusCode, Detail: "rate limited"}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			var hydraErr hydraError
			if json.Unmarshal(respBody, &hydraErr) == nil {
				apiErr.Detail = hydraErr.text()
			}
			return apiErr
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration 读取 Retry-After 头计算等待时长，
// 缺省时退化为指数退避。
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
