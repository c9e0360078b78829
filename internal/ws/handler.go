package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/FrameLens/backend/internal/frames"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FrameLens/backend/internal/infrastructure/monitoring"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 * 1024
)

// Handler manages WebSocket connections
type Handler struct {
	composer Composer
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. origins lists the allowed
// Origin headers; "*" or an empty list allows any.
func NewHandler(composer Composer, metrics *monitoring.Metrics, logger *logging.Logger, origins []string) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return &Handler{
		composer: composer,
		metrics:  metrics,
		logger:   logger.Component("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || allowed["*"] || origin == "" || allowed[origin]
			},
		},
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	w := &writer{conn: conn}
	done := make(chan struct{})
	defer close(done)
	go w.keepAlive(done)

	session := NewSession(h.composer, frames.NewHTMLRenderer())
	h.send(w, Outbound{
		Type:      TypeSystem,
		Message:   "Connected to FrameLens overlay stream",
		Timestamp: time.Now().Unix(),
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.send(w, Outbound{Type: TypeError, Message: "invalid message", Timestamp: time.Now().Unix()})
			continue
		}
		h.record("in", msg.Type)

		for _, out := range session.Handle(msg) {
			if err := h.send(w, out); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(w *writer, msg Outbound) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	if err := w.write(websocket.TextMessage, data); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	h.record("out", msg.Type)
	return nil
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

// writer serializes writes; gorilla connections allow one concurrent writer.
type writer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *writer) write(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteMessage(messageType, data)
}

func (w *writer) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := w.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
