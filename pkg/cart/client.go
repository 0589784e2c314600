package cart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
)

type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindStatus  ErrorKind = "status"
	KindDecode  ErrorKind = "decode"
)

// Error is a failed cart request. The caller decides whether to keep the
// stale view or resync.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("cart %s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("cart %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var ErrUnexpectedStatus = errors.New("unexpected status")

// Result holds either a cart or the reason there is none.
type Result struct {
	Cart *Cart
	Err  *Error
}

func (r Result) OK() bool {
	return r.Err == nil && r.Cart != nil
}

// AddError is an explicit refusal from /cart/add.js, such as a sold out
// variant. Message is meant for the shopper.
type AddError struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (e *AddError) Error() string {
	if e.Description != "" {
		return e.Message + ": " + e.Description
	}
	return e.Message
}

// Backend is what the theme needs from the commerce backend.
type Backend interface {
	Fetch(ctx context.Context) Result
	Change(ctx context.Context, key string, quantity int) Result
	Add(ctx context.Context, form url.Values) (*LineItem, error)
}

// Client talks to the storefront cart endpoints. The cookie jar keeps the
// cart token between calls.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse cart base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base: base,
		http: &http.Client{Jar: jar, Timeout: 15 * time.Second},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}
	return c, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.ResolveReference(&url.URL{Path: path}).String()
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body []byte) ([]byte, *Error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return data, &Error{Kind: KindStatus, Op: op, Status: res.StatusCode, Err: ErrUnexpectedStatus}
	}
	return data, nil
}

func (c *Client) cartResult(op string, data []byte, cerr *Error) Result {
	if cerr != nil {
		requests.WithLabelValues(op, string(cerr.Kind)).Inc()
		c.log.Debug("cart request failed", zap.String("op", op), zap.Error(cerr))
		return Result{Err: cerr}
	}
	var cart Cart
	if err := jsoncompat.Unmarshal(data, &cart); err != nil {
		requests.WithLabelValues(op, string(KindDecode)).Inc()
		return Result{Err: &Error{Kind: KindDecode, Op: op, Err: err}}
	}
	requests.WithLabelValues(op, "ok").Inc()
	return Result{Cart: &cart}
}

// Fetch reads the current cart.
func (c *Client) Fetch(ctx context.Context) Result {
	data, err := c.do(ctx, "fetch", http.MethodGet, "/cart.js", "", nil)
	return c.cartResult("fetch", data, err)
}

type changeRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// Change sets the quantity of one line; 0 removes it.
func (c *Client) Change(ctx context.Context, key string, quantity int) Result {
	body, err := jsoncompat.Marshal(changeRequest{ID: key, Quantity: quantity})
	if err != nil {
		return Result{Err: &Error{Kind: KindDecode, Op: "change", Err: err}}
	}
	data, cerr := c.do(ctx, "change", http.MethodPost, "/cart/change.js", "application/json", body)
	return c.cartResult("change", data, cerr)
}

// Add posts a product form. A refusal with a message comes back as
// *AddError, every other failure as *Error.
func (c *Client) Add(ctx context.Context, form url.Values) (*LineItem, error) {
	data, cerr := c.do(ctx, "add", http.MethodPost, "/cart/add.js",
		"application/x-www-form-urlencoded", []byte(form.Encode()))
	if cerr != nil {
		requests.WithLabelValues("add", string(cerr.Kind)).Inc()
		if cerr.Kind == KindStatus {
			var refusal AddError
			if jsoncompat.Unmarshal(data, &refusal) == nil && strings.TrimSpace(refusal.Message) != "" {
				if refusal.Status == 0 {
					refusal.Status = cerr.Status
				}
				return nil, &refusal
			}
		}
		return nil, cerr
	}
	var item LineItem
	if err := jsoncompat.Unmarshal(data, &item); err != nil {
		requests.WithLabelValues("add", string(KindDecode)).Inc()
		return nil, &Error{Kind: KindDecode, Op: "add", Err: err}
	}
	requests.WithLabelValues("add", "ok").Inc()
	return &item, nil
}
