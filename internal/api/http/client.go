package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/resilience"
)

// Client talks to the kernel API over HTTP. Kernel failures come back as
// *kernel.Error with the server's result code.
type Client struct {
	baseURL string
	resty   *resty.Client
	probe   *retryablehttp.Client
	breaker *resilience.Breaker
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	probe := retryablehttp.NewClient()
	probe.RetryMax = 5
	probe.RetryWaitMin = 100 * time.Millisecond
	probe.RetryWaitMax = 2 * time.Second
	probe.Logger = nil

	// Kernel calls are not idempotent, so resty never retries them. Only the
	// readiness probe retries.
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "auroractl/"+kernel.VersionString()).
		SetHeader("Accept", "application/json").
		SetTransport(probe.HTTPClient.Transport)

	breaker := resilience.New("kernel-http", resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: isKernelResult,
	})

	return &Client{
		baseURL: baseURL,
		resty:   r,
		probe:   probe,
		breaker: breaker,
	}
}

// WaitReady polls GET /health until the server answers or retries run out.
func (c *Client) WaitReady(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return fmt.Errorf("kernel server not ready: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kernel server not ready: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	err := c.do(ctx, "version", http.MethodGet, "/kernel/version", nil, &out)
	return out.Version, err
}

func (c *Client) Init(ctx context.Context) error {
	return c.do(ctx, "init", http.MethodPost, "/kernel/init", nil, nil)
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.do(ctx, "shutdown", http.MethodPost, "/kernel/shutdown", nil, nil)
}

func (c *Client) Status(ctx context.Context) (kernel.Status, error) {
	var out struct {
		Status kernel.Status `json:"status"`
	}
	err := c.do(ctx, "status", http.MethodGet, "/kernel/status", nil, &out)
	return out.Status, err
}

func (c *Client) CreateThread(ctx context.Context, name string) (kernel.ThreadID, error) {
	var out struct {
		ThreadID kernel.ThreadID `json:"thread_id"`
	}
	err := c.do(ctx, "create_thread", http.MethodPost, "/threads", CreateThreadRequest{Name: name}, &out)
	return out.ThreadID, err
}

func (c *Client) DestroyThread(ctx context.Context, id kernel.ThreadID) error {
	path := "/threads/" + strconv.FormatUint(uint64(id), 10)
	return c.do(ctx, "destroy_thread", http.MethodDelete, path, nil, nil)
}

func (c *Client) ThreadCount(ctx context.Context) (uint32, error) {
	var out struct {
		Count uint32 `json:"count"`
	}
	err := c.do(ctx, "thread_count", http.MethodGet, "/threads/count", nil, &out)
	return out.Count, err
}

func (c *Client) ListThreads(ctx context.Context) ([]kernel.Thread, error) {
	var out struct {
		Threads []kernel.Thread `json:"threads"`
	}
	err := c.do(ctx, "list_threads", http.MethodGet, "/threads", nil, &out)
	return out.Threads, err
}

// Send posts msg to target. A nil msg is sent without a message field and
// the server rejects it as an invalid parameter.
func (c *Client) Send(ctx context.Context, target kernel.ThreadID, msg *kernel.Message) error {
	body := SendRequest{Target: uint32(target)}
	if msg != nil {
		dto := NewMessageDTO(*msg)
		body.Message = &dto
	}
	return c.do(ctx, "send", http.MethodPost, "/ipc/send", body, nil)
}

func (c *Client) Receive(ctx context.Context) (kernel.ThreadID, kernel.Message, error) {
	var out struct {
		Sender  kernel.ThreadID `json:"sender"`
		Message MessageDTO      `json:"message"`
	}
	if err := c.do(ctx, "receive", http.MethodPost, "/ipc/receive", nil, &out); err != nil {
		return 0, kernel.Message{}, err
	}
	return out.Sender, out.Message.Message(), nil
}

func (c *Client) DemoCall(ctx context.Context, input string, capacity int) (string, error) {
	var out struct {
		Output string `json:"output"`
	}
	body := DemoCallRequest{Input: &input, Capacity: &capacity}
	err := c.do(ctx, "demo_call", http.MethodPost, "/kernel/demo", body, &out)
	return out.Output, err
}

func (c *Client) do(ctx context.Context, op, method, path string, body, result any) error {
	_, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		req := c.resty.R().
			SetContext(ctx).
			SetError(&ErrorResponse{})
		if body != nil {
			req.SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			return nil, fmt.Errorf("kernel %s: %w", op, err)
		}
		if resp.IsError() {
			return resp, decodeError(op, resp)
		}
		return resp, nil
	})
	return err
}

func decodeError(op string, resp *resty.Response) error {
	if e, ok := resp.Error().(*ErrorResponse); ok && e.Code != 0 {
		if e.Op != "" {
			op = e.Op
		}
		return &kernel.Error{Code: kernel.ParseCode(e.Code), Op: op, Detail: e.Detail}
	}
	return fmt.Errorf("kernel %s: unexpected status %d: %s", op, resp.StatusCode(), resp.String())
}

// isKernelResult keeps kernel result codes from tripping the breaker; only
// transport failures count.
func isKernelResult(err error) bool {
	var kerr *kernel.Error
	return err == nil || errors.As(err, &kerr)
}
