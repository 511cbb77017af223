package ws

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/webdesk/backend/internal/domain/bus"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/location"
	"github.com/GriffinCanCode/webdesk/backend/internal/domain/window"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64

	// navigateTimeout bounds a single navigation, launch included
	navigateTimeout = 10 * time.Second

	// DefaultConfirmTimeout bounds the wait for a close_reply
	DefaultConfirmTimeout = 5 * time.Second
)

// Message types sent to clients
const (
	TypeLocation  = "location"
	TypeNavigated = "navigated"
	TypeLifecycle = "lifecycle"
	TypeBus       = "bus"
	TypePong      = "pong"
	TypeError     = "error"

	// TypeConfirmClose asks the hosted app whether a window may close.
	// Clients answer with a close_reply carrying the same id and allow.
	TypeConfirmClose = "confirm_close"
)

// Message types received from clients
const (
	TypeNavigate   = "navigate"
	TypePing       = "ping"
	TypeCloseReply = "close_reply"
)

// Locator reconciles navigation events coming from clients
type Locator interface {
	HandleNavigation(ctx context.Context, raw string) (location.Result, error)
	Current() string
}

// CloseGate installs per-window close confirmation hooks
type CloseGate interface {
	SetCloseConfirmation(windowID string, hook window.CloseConfirmation) bool
}

// Handler manages WebSocket connections. Every connected client is a view
// of the same desktop: it receives the derived location, lifecycle events
// and bus messages, and may send navigation events back.
type Handler struct {
	upgrader websocket.Upgrader
	locator  Locator
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger

	gate           CloseGate
	confirmTimeout time.Duration

	mu      sync.RWMutex
	clients map[string]*client // Protected by mu
	closed  bool               // Protected by mu

	pendingMu sync.Mutex
	pending   map[string]chan bool // correlation id -> reply, protected by pendingMu
}

// NewHandler creates a new WebSocket handler. An empty origin list accepts
// any origin.
func NewHandler(allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		clients:        make(map[string]*client),
		pending:        make(map[string]chan bool),
		confirmTimeout: DefaultConfirmTimeout,
		logger:         logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// WithLocator attaches the location service. It is set after construction
// because the service itself uses the handler as its navigator.
func (h *Handler) WithLocator(locator Locator) *Handler {
	h.locator = locator
	return h
}

// WithMetrics enables connection and message metrics
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// WithTracer traces client navigations
func (h *Handler) WithTracer(tracer *tracing.Tracer) *Handler {
	h.tracer = tracer
	return h
}

// WithCloseGate makes connected clients the close confirmation of every
// mounted window
func (h *Handler) WithCloseGate(gate CloseGate) *Handler {
	h.gate = gate
	return h
}

// WithConfirmTimeout sets how long a close waits for a client reply
func (h *Handler) WithConfirmTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.confirmTimeout = d
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(uuid.NewString(), conn, h.logger)
	if !h.add(cl) {
		_ = conn.Close()
		return
	}
	defer h.remove(cl)

	go cl.writePump()

	if h.locator != nil {
		h.send(cl, types.WSMessage{Type: TypeLocation, URL: h.locator.Current()})
	}
	h.readPump(c.Request.Context(), cl)
}

func (h *Handler) readPump(ctx context.Context, cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.String("client_id", cl.id), zap.Error(err))
			}
			return
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(cl, "malformed message")
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case TypeNavigate:
			h.handleNavigate(ctx, cl, msg)
		case TypeCloseReply:
			h.handleCloseReply(cl, msg)
		case TypePing:
			h.send(cl, types.WSMessage{Type: TypePong})
		default:
			h.sendError(cl, "unknown message type")
		}
	}
}

func (h *Handler) handleNavigate(reqCtx context.Context, cl *client, msg types.WSMessage) {
	if h.locator == nil {
		h.sendError(cl, "navigation unavailable")
		return
	}
	if err := utils.ValidateLocation(msg.URL); err != nil {
		h.sendError(cl, err.Error())
		return
	}

	// The connection context lives as long as the socket
	ctx, cancel := context.WithTimeout(reqCtx, navigateTimeout)
	defer cancel()

	var result location.Result
	navigate := func(ctx context.Context) error {
		var err error
		result, err = h.locator.HandleNavigation(ctx, msg.URL)
		return err
	}

	var err error
	if h.tracer != nil {
		err = h.tracer.Trace(ctx, "ws.navigate", navigate)
	} else {
		err = navigate(ctx)
	}
	if err != nil {
		h.logger.Warn("Client navigation failed",
			zap.String("client_id", cl.id),
			zap.String("url", msg.URL),
			zap.Error(err),
		)
		h.sendError(cl, err.Error())
		return
	}
	h.send(cl, types.WSMessage{Type: TypeNavigated, URL: msg.URL, Payload: result})
}

func (h *Handler) handleCloseReply(cl *client, msg types.WSMessage) {
	if msg.ID == "" || msg.Allow == nil {
		h.sendError(cl, "close_reply needs id and allow")
		return
	}

	h.pendingMu.Lock()
	reply, ok := h.pending[msg.ID]
	h.pendingMu.Unlock()
	if !ok {
		h.sendError(cl, "no close confirmation pending for "+msg.ID)
		return
	}

	// First answer wins
	select {
	case reply <- *msg.Allow:
	default:
	}
}

// ConfirmClose asks the connected clients whether a window may close and
// waits for the first reply. With no client connected the close is allowed.
// It has the window.CloseConfirmation signature.
func (h *Handler) ConfirmClose(ctx context.Context, w *types.Window) (bool, error) {
	if h.ClientCount() == 0 {
		return true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.confirmTimeout)
	defer cancel()

	id := uuid.NewString()
	reply := make(chan bool, 1)
	h.pendingMu.Lock()
	h.pending[id] = reply
	h.pendingMu.Unlock()
	defer func() {
		h.pendingMu.Lock()
		delete(h.pending, id)
		h.pendingMu.Unlock()
	}()

	h.Broadcast(types.WSMessage{Type: TypeConfirmClose, ID: id, WindowID: w.ID, Payload: w})

	select {
	case allowed := <-reply:
		h.logger.Debug("Close confirmation answered",
			zap.String("window_id", w.ID),
			zap.Bool("allowed", allowed),
		)
		return allowed, nil
	case <-ctx.Done():
		return false, fmt.Errorf("no close_reply for %s: %w", w.ID, ctx.Err())
	}
}

// Replace pushes a location to every client. It implements location.Navigator
// and never fails: a client that cannot keep up is dropped.
func (h *Handler) Replace(ctx context.Context, url string) error {
	h.Broadcast(types.WSMessage{Type: TypeLocation, URL: url})
	return nil
}

// OnLifecycleEvent forwards a lifecycle event to every client. Mounted
// windows get ConfirmClose as their close confirmation.
func (h *Handler) OnLifecycleEvent(event types.LifecycleEvent) {
	if event.Type == types.EventMount && h.gate != nil && event.WindowID != "" {
		h.gate.SetCloseConfirmation(event.WindowID, h.ConfirmClose)
	}
	h.Broadcast(types.WSMessage{Type: TypeLifecycle, Payload: event})
}

// OnBusMessage forwards a bus message to every client
func (h *Handler) OnBusMessage(msg bus.Message) {
	h.Broadcast(types.WSMessage{Type: TypeBus, Channel: string(msg.Channel), Payload: msg.Payload})
}

// Broadcast sends a message to every connected client
func (h *Handler) Broadcast(msg types.WSMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		h.deliver(cl, msg.Type, data)
	}
}

// ClientCount returns the number of connected clients
func (h *Handler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Handler) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
	}
}

func (h *Handler) add(cl *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[cl.id] = cl
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("WebSocket client connected", zap.String("client_id", cl.id))
	return true
}

func (h *Handler) remove(cl *client) {
	h.mu.Lock()
	_, ok := h.clients[cl.id]
	delete(h.clients, cl.id)
	h.mu.Unlock()

	cl.close()
	if ok && h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("WebSocket client disconnected", zap.String("client_id", cl.id))
}

func (h *Handler) send(cl *client, msg types.WSMessage) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	h.deliver(cl, msg.Type, data)
}

func (h *Handler) sendError(cl *client, message string) {
	h.send(cl, types.WSMessage{Type: TypeError, Payload: map[string]interface{}{
		"message":   message,
		"timestamp": time.Now().Unix(),
	}})
}

func (h *Handler) deliver(cl *client, msgType string, data []byte) {
	if !cl.enqueue(data) {
		h.logger.Warn("Dropping slow WebSocket client", zap.String("client_id", cl.id))
		h.remove(cl)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", msgType)
	}
}
