// Package client provides the HTTP/JSON transport for the help-desk backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
)

const (
	// DefaultBaseURL is used when no backend URL is configured.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout caps every backend call.
	DefaultTimeout = 30 * time.Second
)

// Operation names, used for logging and metrics.
const (
	OpChat         = "chat"
	OpQuickActions = "quick_actions"
	OpQuickAction  = "quick_action"
	OpTicket       = "ticket"
	OpClear        = "clear_conversation"
	OpHistory      = "history"
	OpHealth       = "health"
	OpAnalytics    = "analytics"
)

// Recorder receives per-call timings. failure is empty for successful calls
// and the failure Kind name otherwise.
type Recorder interface {
	RecordCall(op string, duration time.Duration, failure string)
}

// Client is an HTTP client for the help-desk backend.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for call logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithHTTPClient replaces the underlying HTTP client. The per-call timeout
// still applies through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a backend client.
// An empty baseURL uses DefaultBaseURL; a non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorEnvelope is the error body returned by the backend for non-2xx responses.
type errorEnvelope struct {
	Error      any `json:"error"`
	Detail     any `json:"detail"`
	StatusCode int `json:"status_code"`
}

func (e errorEnvelope) message() string {
	var parts []string
	for _, v := range []any{e.Error, e.Detail} {
		switch s := v.(type) {
		case nil:
		case string:
			if s != "" {
				parts = append(parts, s)
			}
		default:
			if b, err := json.Marshal(s); err == nil {
				parts = append(parts, string(b))
			}
		}
	}
	return strings.Join(parts, ": ")
}

// validator is implemented by response types that can reject partial payloads.
type validator interface {
	Validate() error
}

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// conversationID is attached to the call's log line when set.
	conversationID string
	// lenient accepts empty or non-JSON success bodies.
	lenient bool
}

// do executes a call and decodes the JSON response into c.out.
// Every failure is returned as *Error.
func (c *Client) do(ctx context.Context, cl call) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := uuid.NewString()
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		failure := ""
		if err != nil {
			failure = Classify(err).String()
		}
		if c.recorder != nil {
			c.recorder.RecordCall(cl.op, duration, failure)
		}
		logCall(c.logger, cl.op, requestID, cl.conversationID, duration, cl.method+" "+cl.path, err)
	}()

	var reqBody io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return &Error{Op: cl.op, Kind: KindUnknown, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reqBody = bytes.NewReader(payload)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reqBody)
	if err != nil {
		return &Error{Op: cl.op, Kind: KindUnknown, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: cl.op, Kind: transportKind(ctx, err), Err: fmt.Errorf("execute request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: cl.op, Kind: transportKind(ctx, err), StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := KindUnknown
		if resp.StatusCode == http.StatusServiceUnavailable {
			kind = KindServiceUnavailable
		}
		var env errorEnvelope
		detail := ""
		if json.Unmarshal(body, &env) == nil {
			detail = env.message()
		}
		if detail == "" {
			detail = models.Truncate(strings.TrimSpace(string(body)), maxLogLen)
		}
		return &Error{Op: cl.op, Kind: kind, StatusCode: resp.StatusCode, Detail: detail}
	}

	if cl.out == nil {
		return nil
	}
	if cl.lenient {
		_ = json.Unmarshal(body, cl.out)
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &Error{Op: cl.op, Kind: KindUnknown, StatusCode: resp.StatusCode, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return &Error{Op: cl.op, Kind: KindUnknown, StatusCode: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}
	if v, ok := cl.out.(validator); ok {
		if err := v.Validate(); err != nil {
			return &Error{Op: cl.op, Kind: KindUnknown, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// =============================================================================
// CHAT
// =============================================================================

// Chat sends one user turn.
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	err := c.do(ctx, call{op: OpChat, method: http.MethodPost, path: "/chat", body: req, out: &resp, conversationID: req.ConversationID})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// QUICK ACTIONS
// =============================================================================

// QuickActions fetches the quick-action catalog.
func (c *Client) QuickActions(ctx context.Context) ([]models.QuickAction, error) {
	var actions []models.QuickAction
	if err := c.do(ctx, call{op: OpQuickActions, method: http.MethodGet, path: "/quick-actions", out: &actions}); err != nil {
		return nil, err
	}
	for i := range actions {
		if err := actions[i].Validate(); err != nil {
			return nil, &Error{Op: OpQuickActions, Kind: KindUnknown, StatusCode: http.StatusOK, Err: err}
		}
	}
	return actions, nil
}

// InvokeQuickAction runs the quick action with the given id.
// conversationID may be empty on the first turn.
func (c *Client) InvokeQuickAction(ctx context.Context, actionID, conversationID string) (*models.ChatResponse, error) {
	var query url.Values
	if conversationID != "" {
		query = url.Values{"conversation_id": {conversationID}}
	}
	var resp models.ChatResponse
	err := c.do(ctx, call{
		op:     OpQuickAction,
		method: http.MethodPost,
		path:   "/quick-action/" + url.PathEscape(actionID),
		query:  query,
		out:    &resp,

		conversationID: conversationID,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// TICKETS
// =============================================================================

// CreateTicket submits a support ticket.
func (c *Client) CreateTicket(ctx context.Context, req models.TicketRequest) (*models.TicketResponse, error) {
	var resp models.TicketResponse
	err := c.do(ctx, call{op: OpTicket, method: http.MethodPost, path: "/ticket", body: req, out: &resp, conversationID: req.ConversationID})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ClearConversation deletes the backend-side state of a conversation.
func (c *Client) ClearConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, call{
		op:     OpClear,
		method: http.MethodDelete,
		path:   "/conversation/" + url.PathEscape(conversationID),

		conversationID: conversationID,
	})
}

// History returns the backend-defined history payload of a conversation.
func (c *Client) History(ctx context.Context, conversationID string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		op:     OpHistory,
		method: http.MethodGet,
		path:   "/conversation/" + url.PathEscape(conversationID) + "/history",
		out:    &raw,

		conversationID: conversationID,
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// =============================================================================
// SERVICE
// =============================================================================

// Health calls the liveness endpoint. Any 2xx counts as healthy; the
// payload is decoded when it is JSON.
func (c *Client) Health(ctx context.Context) (*models.HealthStatus, error) {
	var status models.HealthStatus
	if err := c.do(ctx, call{op: OpHealth, method: http.MethodGet, path: "/health", out: &status, lenient: true}); err != nil {
		return nil, err
	}
	return &status, nil
}

// LogAnalytics posts a usage event.
func (c *Client) LogAnalytics(ctx context.Context, event models.AnalyticsEvent) error {
	return c.do(ctx, call{op: OpAnalytics, method: http.MethodPost, path: "/analytics", body: event, conversationID: event.ConversationID})
}
