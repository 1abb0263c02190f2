package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/helpdesk-go/internal/escalation"
	"github.com/raphaelgruber/helpdesk-go/internal/models"
	"golang.org/x/sync/errgroup"
)

// ErrConfirmationRequired is returned by Clear when the caller has not
// confirmed the reset.
var ErrConfirmationRequired = errors.New("clearing the conversation requires confirmation")

// analyticsTimeout bounds a best-effort analytics post.
const analyticsTimeout = 5 * time.Second

// Backend is the subset of the transport client the controller uses.
type Backend interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	QuickActions(ctx context.Context) ([]models.QuickAction, error)
	InvokeQuickAction(ctx context.Context, actionID, conversationID string) (*models.ChatResponse, error)
	CreateTicket(ctx context.Context, req models.TicketRequest) (*models.TicketResponse, error)
	ClearConversation(ctx context.Context, conversationID string) error
	LogAnalytics(ctx context.Context, event models.AnalyticsEvent) error
}

// Prober reports backend connectivity.
type Prober interface {
	Probe(ctx context.Context) models.ConnectivityState
	MaybeProbe(ctx context.Context) (models.ConnectivityState, bool)
}

// Options configures a Controller. Zero values pick production defaults.
type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
	NewID  func() string

	// Analytics enables best-effort usage events.
	Analytics bool

	// TicketDefaults prefill empty ticket form fields.
	TicketDefaults escalation.Form
}

// Controller owns one session. Operations that need the backend return an
// Effect; the caller runs it (inline, in a goroutine, or as a UI command)
// and passes the resulting Event to Apply. A nil Effect means nothing was
// issued.
//
// Controller is safe for concurrent use, but is designed for a single
// owner that serializes Apply calls.
type Controller struct {
	backend        Backend
	prober         Prober
	logger         *slog.Logger
	now            func() time.Time
	newID          func() string
	analytics      bool
	ticketDefaults escalation.Form

	ctx  context.Context
	stop context.CancelFunc
	// bgMu orders track's Add against Close's Wait.
	bgMu sync.Mutex
	bg   sync.WaitGroup

	mu      sync.Mutex
	state   State
	cancels map[Token]context.CancelFunc
}

// New creates a controller seeded with the welcome message. Call
// Initialize before the first exchange.
func New(backend Backend, prober Prober, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		backend:        backend,
		prober:         prober,
		logger:         opts.Logger,
		now:            opts.Now,
		newID:          opts.NewID,
		analytics:      opts.Analytics,
		ticketDefaults: opts.TicketDefaults,
		ctx:            ctx,
		stop:           stop,
		cancels:        make(map[Token]context.CancelFunc),
	}
	c.state = initialState(c.stamp())
	return c
}

func (c *Controller) stamp() stamp {
	return stamp{id: c.newID(), at: c.now()}
}

// Initialize loads the quick-action catalog and probes connectivity
// concurrently, then seeds the transcript with the welcome message.
// Failures are not fatal: the catalog stays empty and connectivity is
// reported as disconnected.
func (c *Controller) Initialize(ctx context.Context) {
	var (
		catalog []models.QuickAction
		conn    models.ConnectivityState
	)

	var g errgroup.Group
	g.Go(func() error {
		actions, err := c.backend.QuickActions(ctx)
		if err != nil {
			c.logger.Warn("failed to load quick actions", "error", err)
			return nil
		}
		catalog = actions
		return nil
	})
	g.Go(func() error {
		conn = c.prober.Probe(ctx)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.initialize(catalog, conn, c.stamp())
	c.logger.Info("session initialized",
		"quick_actions", len(catalog),
		"connected", conn.Connected,
	)
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Send issues a chat turn. It returns nil when text is blank or another
// exchange is outstanding.
func (c *Controller) Send(text string) Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, req := c.state.beginSend(text, c.stamp())
	c.state = next
	if req == nil {
		return nil
	}
	return c.effect(*req)
}

// InvokeQuickAction issues the quick action with the given id under the
// same gate as Send.
func (c *Controller) InvokeQuickAction(actionID string) Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, req := c.state.beginQuickAction(actionID, c.stamp())
	c.state = next
	if req == nil {
		return nil
	}
	return c.effect(*req)
}

// Clear resets the session. Without confirmation it changes nothing and
// returns ErrConfirmationRequired. Any outstanding exchange or ticket
// submission is canceled and its late result discarded. The returned
// Effect deletes the backend copy of the conversation, if one was bound.
func (c *Controller) Clear(confirmed bool) (Effect, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tok := range []Token{c.state.exchange, c.state.ticket} {
		if cancel, ok := c.cancels[tok]; ok {
			cancel()
			delete(c.cancels, tok)
		}
	}

	next, req := c.state.clear(c.stamp())
	c.state = next
	c.logger.Info("conversation cleared")
	if req == nil {
		return nil, nil
	}
	return c.effect(*req), nil
}

// OpenTicketForm moves the escalation banner from its prompt to the form.
func (c *Controller) OpenTicketForm() error {
	_, err := c.escalate(escalation.Opened{Prefill: c.ticketDefaults})
	return err
}

// CloseTicketForm returns from the form to the prompt.
func (c *Controller) CloseTicketForm() error {
	_, err := c.escalate(escalation.FormClosed{})
	return err
}

// SubmitTicket validates form and, when valid, returns the Effect that
// submits it. Validation failures are returned without any backend call.
func (c *Controller) SubmitTicket(form escalation.Form) (Effect, error) {
	return c.escalateWith(func(s State) escalation.Event {
		return escalation.Submitted{Form: form, ConversationID: s.ConversationID}
	})
}

// DismissEscalation hides the banner. A later escalation signal shows it again.
func (c *Controller) DismissEscalation() {
	_, _ = c.escalate(escalation.Dismissed{})
}

func (c *Controller) escalate(ev escalation.Event) (Effect, error) {
	return c.escalateWith(func(State) escalation.Event { return ev })
}

// escalateWith builds the event from the current state under the lock.
func (c *Controller) escalateWith(build func(State) escalation.Event) (Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, req, err := c.state.escalate(build(c.state))
	if err != nil {
		return nil, err
	}
	c.state = next
	if req == nil {
		return nil, nil
	}
	return c.effect(*req), nil
}

// Reprobe returns an Effect that re-checks connectivity, subject to the
// prober's throttling. A result that arrives after a newer exchange has
// settled is dropped.
func (c *Controller) Reprobe() Effect {
	c.mu.Lock()
	since := c.state.outcomes
	c.mu.Unlock()

	return func() Event {
		state, ok := c.prober.MaybeProbe(c.ctx)
		return ProbeSettled{State: state, Skipped: !ok, since: since}
	}
}

// Apply folds a settled Effect result into the session.
func (c *Controller) Apply(ev Event) {
	if ev == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := ev.(type) {
	case ExchangeSettled:
		c.release(ev.Token)
		next, ok := c.state.settleExchange(ev, c.stamp())
		if !ok {
			c.logger.Debug("discarding stale exchange result")
			return
		}
		bound := c.state.ConversationID == "" && next.ConversationID != ""
		c.state = next
		if bound {
			c.logger.Info("conversation bound", "conversation_id", next.ConversationID)
		}
		if ev.Err != nil {
			c.logger.Warn("exchange failed", "conversation_id", next.ConversationID, "error", ev.Err)
		} else if next.Escalating() {
			c.logger.Debug("escalation active", "phase", next.Escalation.Phase.String())
		}

	case TicketSettled:
		c.release(ev.Token)
		next, ok := c.state.settleTicket(ev)
		if !ok {
			c.logger.Debug("discarding stale ticket result")
			return
		}
		c.state = next
		if ev.Err != nil {
			c.logger.Warn("ticket submission failed", "error", ev.Err)
		} else if ev.Response != nil {
			c.logger.Info("ticket created", "ticket_id", ev.Response.TicketID)
		}

	case ProbeSettled:
		next, ok := c.state.settleProbe(ev)
		if !ok {
			if !ev.Skipped {
				c.logger.Debug("discarding stale probe result", "connected", ev.State.Connected)
			}
			return
		}
		c.state = next

	case ConversationDeleted:
		c.release(ev.Token)
		if ev.Err != nil {
			c.logger.Warn("failed to clear conversation on backend", "conversation_id", ev.ConversationID, "error", ev.Err)
		}
	}
}

// Settle runs eff inline and applies its result. A nil eff is ignored.
func (c *Controller) Settle(eff Effect) {
	if eff == nil {
		return
	}
	c.Apply(eff())
}

// Close cancels outstanding requests and waits for background analytics.
// Requests that settle afterwards post no analytics.
func (c *Controller) Close() {
	c.bgMu.Lock()
	c.stop()
	c.bgMu.Unlock()
	c.bg.Wait()
}

// release forgets the cancel func of a settled request.
// Caller must hold c.mu.
func (c *Controller) release(tok Token) {
	if cancel, ok := c.cancels[tok]; ok {
		cancel()
		delete(c.cancels, tok)
	}
}

// effect wraps a request into an Effect bound to a cancelable context.
// Caller must hold c.mu.
func (c *Controller) effect(req request) Effect {
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancels[req.token] = cancel
	c.logger.Debug("request issued", "op", req.kind.String())
	return func() Event {
		return c.perform(ctx, req)
	}
}

// perform executes a request against the backend.
func (c *Controller) perform(ctx context.Context, req request) Event {
	start := c.now()

	switch req.kind {
	case requestChat:
		resp, err := c.backend.Chat(ctx, req.chat)
		if err == nil {
			c.track(models.EventChatExchange, resp.ConversationID, req.chat.Message, "", c.now().Sub(start))
		}
		return ExchangeSettled{Token: req.token, Response: resp, Err: err}

	case requestQuickAction:
		resp, err := c.backend.InvokeQuickAction(ctx, req.actionID, req.conversationID)
		if err == nil {
			c.track(models.EventQuickAction, resp.ConversationID, req.actionID, "", c.now().Sub(start))
		}
		return ExchangeSettled{Token: req.token, Response: resp, Err: err}

	case requestTicket:
		resp, err := c.backend.CreateTicket(ctx, req.ticket)
		if err == nil {
			c.track(models.EventTicketCreated, req.ticket.ConversationID, "", req.ticket.Category, c.now().Sub(start))
		}
		return TicketSettled{Token: req.token, Response: resp, Err: err}

	default:
		err := c.backend.ClearConversation(ctx, req.conversationID)
		return ConversationDeleted{Token: req.token, ConversationID: req.conversationID, Err: err}
	}
}

// track posts an analytics event in the background when enabled.
func (c *Controller) track(eventType, conversationID, query, category string, elapsed time.Duration) {
	if !c.analytics {
		return
	}
	ms := float64(elapsed.Microseconds()) / 1000
	event := models.AnalyticsEvent{
		EventType:      eventType,
		ConversationID: conversationID,
		UserQuery:      models.Truncate(query, 200),
		ResponseTimeMs: &ms,
		Category:       category,
		Timestamp:      c.now().UTC().Format(time.RFC3339),
	}

	c.bgMu.Lock()
	defer c.bgMu.Unlock()
	if c.ctx.Err() != nil {
		return
	}
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), analyticsTimeout)
		defer cancel()
		if err := c.backend.LogAnalytics(ctx, event); err != nil {
			c.logger.Debug("analytics event dropped", "event_type", eventType, "error", err)
		}
	}()
}
