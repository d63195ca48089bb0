// Package api is the typed client for the advisory platform's HTTP API.
// Calls are grouped by resource (auth, crops, chat, calendar, weather, voice,
// marketplace, orders, training, admin) and all go to one base URL. Each
// request is stamped with the bearer token found in storage at send time;
// failures surface as *Error carrying the server's structured error body.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"agromitra/internal/models"
	"agromitra/internal/pkg/auth"
	"agromitra/internal/pkg/events"
	"agromitra/internal/pkg/logger"
	"agromitra/internal/storage"

	"go.uber.org/zap"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3001"

const (
	apiPrefix      = "/api"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 64 << 10
)

// ErrUnreachable marks failures where no response was received.
var ErrUnreachable = errors.New("api: server unreachable")

// Client sends requests for one session scheme (farmer or admin).
type Client struct {
	name           string
	baseURL        string
	httpClient     *http.Client
	tokens         auth.TokenSource
	onUnauthorized func()
	log            *logger.Logger
	metrics        *Metrics

	Auth          *AuthService
	Crops         *CropsService
	Chat          *ChatService
	Calendar      *CalendarService
	Weather       *WeatherService
	Voice         *VoiceService
	Marketplace   *MarketplaceService
	Orders        *OrdersService
	Training      *TrainingService
	Admin         *AdminService
	AdminTraining *TrainingService
}

type service struct {
	client *Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is
// wrapped with request logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request and error logging.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics records every call on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTokenSource overrides where the bearer token comes from.
func WithTokenSource(ts auth.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler registers fn to run whenever the server answers 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New returns a client for baseURL named name (used in logs and metrics).
func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: NormalizeBaseURL(baseURL),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		c.tokens = auth.StaticToken("")
	}

	hc := &http.Client{Timeout: defaultTimeout}
	if c.httpClient != nil {
		copied := *c.httpClient
		hc = &copied
	}
	hc.Transport = c.log.Transport(hc.Transport)
	c.httpClient = hc

	c.Auth = &AuthService{client: c}
	c.Crops = &CropsService{client: c}
	c.Chat = &ChatService{client: c}
	c.Calendar = &CalendarService{client: c}
	c.Weather = &WeatherService{client: c}
	c.Voice = &VoiceService{client: c}
	c.Marketplace = &MarketplaceService{client: c}
	c.Orders = &OrdersService{client: c}
	c.Training = &TrainingService{client: c, prefix: "/training", group: "training"}
	c.Admin = &AdminService{client: c}
	c.AdminTraining = &TrainingService{client: c, prefix: "/admin/training", group: "admin"}
	return c
}

// NewFarmer returns the client for the farmer session. It reads the token
// under storage.KeyAuthToken and, on 401, removes the farmer session keys and
// publishes events.AuthLogout so the store can clear its state.
func NewFarmer(baseURL string, store storage.Storage, bus *events.Bus, opts ...Option) *Client {
	base := []Option{
		WithTokenSource(auth.StoredToken{Store: store, Key: storage.KeyAuthToken}),
		WithUnauthorizedHandler(func() {
			_ = storage.RemoveAll(store, storage.KeyAuthToken, storage.KeyUser)
			if bus != nil {
				bus.Publish(events.AuthLogout)
			}
		}),
	}
	return New("farmer", baseURL, append(base, opts...)...)
}

// NewAdmin returns the client for the admin session, reading the token under
// storage.KeyAdmin. It has no 401 hook: session expiry is handled by the
// admin dashboard.
func NewAdmin(baseURL string, store storage.Storage, opts ...Option) *Client {
	base := []Option{WithTokenSource(auth.StoredToken{Store: store, Key: storage.KeyAdmin})}
	return New("admin", baseURL, append(base, opts...)...)
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// NormalizeBaseURL makes raw end in exactly one "/api" path prefix.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultBaseURL
	}
	raw = strings.TrimRight(raw, "/")
	if strings.HasSuffix(raw, apiPrefix) {
		return raw
	}
	return raw + apiPrefix
}

// Error is a non-2xx answer from the API.
type Error struct {
	Status int
	Method string
	Path   string
	Body   models.ErrorResponse
	Raw    []byte
}

func (e *Error) Error() string {
	msg := e.Message()
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Message is the server's top-level message, falling back to its "error" field.
func (e *Error) Message() string {
	if e.Body.Message != "" {
		return e.Body.Message
	}
	return e.Body.Error
}

// ValidationMessages returns the non-empty "msg" entries of the errors array.
func (e *Error) ValidationMessages() []string {
	var out []string
	for _, fe := range e.Body.Errors {
		if fe.Msg != "" {
			out = append(out, fe.Msg)
		}
	}
	return out
}

// StatusOf returns the HTTP status carried by err, or 0 when err did not come
// from a server response.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// do sends one request and decodes the JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, group, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	auth.SetBearer(req, c.tokens.Token())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(c.name, group, method, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("api: %s %s: %w", method, path, ctxErr)
		}
		return fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(c.name, group, method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Method: method, Path: path}
		apiErr.Raw, _ = io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if len(apiErr.Raw) > 0 {
			_ = json.Unmarshal(apiErr.Raw, &apiErr.Body)
		}
		c.log.Debug("api error",
			zap.String("client", c.name),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message()))
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %w", ErrUnreachable, method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

// params collects query parameters, skipping empty values like the browser
// client skipped undefined ones.
type params url.Values

func (p params) str(key, v string) params {
	if v != "" {
		url.Values(p).Set(key, v)
	}
	return p
}

func (p params) num(key string, v int) params {
	if v != 0 {
		url.Values(p).Set(key, strconv.Itoa(v))
	}
	return p
}

func (p params) coord(key string, v *float64) params {
	if v != nil {
		url.Values(p).Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
	return p
}

func (p params) values() url.Values { return url.Values(p) }

func escape(segment string) string { return url.PathEscape(segment) }
