// Package apiclient talks to the upstream LMS REST API on behalf of a device.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"learning_portal/pkg/monitoring"
	"learning_portal/pkg/tracing"

	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	// HTTPClient 为空时使用带超时的默认客户端
	HTTPClient *http.Client
}

// Client 的零 token 实例为共享实例，WithToken 派生出设备实例，二者共用连接池和限流器
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	token   string
}

// APIError 上游返回的非 2xx 响应
type APIError struct {
	Status   int
	Message  string
	Endpoint string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream %s: %d %s", e.Endpoint, e.Status, e.Message)
}

// IsStatus 判断 err 是否为指定状态码的 APIError
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func New(cfg Config) *Client {
	h := cfg.HTTPClient
	if h == nil {
		h = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    h,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

func (c *Client) Token() string { return c.token }

// SetRate 调整共享限流器，配置热更新时调用
func (c *Client) SetRate(perSecond float64, burst int) {
	if perSecond <= 0 {
		c.limiter.SetLimit(rate.Inf)
	} else {
		c.limiter.SetLimit(rate.Limit(perSecond))
	}
	if burst > 0 {
		c.limiter.SetBurst(burst)
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Do 发送请求并把响应（可能包裹在 data 字段中）解码进 out
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := EndpointLabel(path)

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	ctx, span := tracing.StartClientSpan(ctx, req, endpoint)
	req = req.WithContext(ctx)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		monitoring.ObserveUpstream(method, endpoint, 0, time.Since(start))
		tracing.EndClientSpan(span, 0, err)
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	monitoring.ObserveUpstream(method, endpoint, res.StatusCode, time.Since(start))
	if err != nil {
		tracing.EndClientSpan(span, res.StatusCode, err)
		return err
	}

	if res.StatusCode/100 != 2 {
		apiErr := &APIError{Status: res.StatusCode, Endpoint: method + " " + endpoint, Message: errorMessage(raw, res)}
		tracing.EndClientSpan(span, res.StatusCode, apiErr)
		return apiErr
	}
	tracing.EndClientSpan(span, res.StatusCode, nil)

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decode(raw, out)
}

func decode(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

func errorMessage(raw []byte, res *http.Response) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return http.StatusText(res.StatusCode)
}

// EndpointLabel 把含数字的路径段替换为 :id，控制指标基数
func EndpointLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if strings.IndexFunc(s, unicode.IsDigit) >= 0 {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}
