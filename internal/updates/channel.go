// Package updates implements the persistent per-client update channel: a
// websocket carrying a minimal text protocol ("close" terminates the
// session) plus an optional module-change broadcaster.
package updates

import (
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// State 描述单个会话的生命周期，只存在 Open → Closing → Closed 三个状态。
type State string

const (
	StateOpen    State = "open"
	StateClosing State = "closing"
	StateClosed  State = "closed"
)

const closeHandshakeTimeout = 5 * time.Second

// messageConn 抽象底层 websocket 连接，便于在测试中注入假实现。
type messageConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Session owns exactly one accepted connection; it holds no state shared
// with other sessions.
type Session struct {
	conn   messageConn
	logger *logrus.Logger

	mu    sync.Mutex
	state State
}

func newSession(conn messageConn, logger *logrus.Logger) *Session {
	return &Session{conn: conn, logger: logger, state: StateOpen}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run processes frames strictly in arrival order until the session closes.
// A text frame equal to "close" triggers the close handshake; any other
// frame leaves the session open. A transport error is logged and ends the
// session only because the transport itself is gone.
func (s *Session) Run() {
	defer s.setState(StateClosed)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logf(logrus.ErrorLevel, "websocket_error", err)
			}
			return
		}

		if messageType == websocket.TextMessage && string(data) == "close" {
			s.close()
			return
		}
	}
}

// Notify pushes a text frame to the client; only called for live sessions.
func (s *Session) Notify(message string) error {
	if s.State() != StateOpen {
		return nil
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

func (s *Session) close() {
	s.setState(StateClosing)
	deadline := time.Now().Add(closeHandshakeTimeout)
	payload := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := s.conn.WriteControl(websocket.CloseMessage, payload, deadline); err != nil {
		s.logf(logrus.DebugLevel, "websocket_close_handshake", err)
	}
	if err := s.conn.Close(); err != nil {
		s.logf(logrus.DebugLevel, "websocket_close", err)
	}
}

func (s *Session) logf(level logrus.Level, action string, err error) {
	if s.logger == nil {
		return
	}
	entry := s.logger.WithFields(logrus.Fields{"action": action})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Log(level, "update channel event")
}

// Channel 接受 websocket 升级请求并为每个连接派生一个独立 Session。
type Channel struct {
	upgrader websocket.FastHTTPUpgrader
	logger   *logrus.Logger
	sessions sync.Map
}

// NewChannel 创建更新通道处理器；logger 可为空。
func NewChannel(logger *logrus.Logger) *Channel {
	return &Channel{logger: logger}
}

// Handler returns the Fiber handler upgrading requests to websocket
// sessions. Non-upgrade requests receive 426.
func (ch *Channel) Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		if !websocket.FastHTTPIsWebSocketUpgrade(c.RequestCtx()) {
			return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "websocket_upgrade_required"})
		}

		err := ch.upgrader.Upgrade(c.RequestCtx(), func(conn *websocket.Conn) {
			session := newSession(conn, ch.logger)
			ch.sessions.Store(session, struct{}{})
			defer ch.sessions.Delete(session)

			if ch.logger != nil {
				ch.logger.WithFields(logrus.Fields{"action": "websocket_open"}).Debug("open a new websocket")
			}
			session.Run()
			if ch.logger != nil {
				ch.logger.WithFields(logrus.Fields{"action": "websocket_closed"}).Debug("close a websocket")
			}
		})
		if err != nil && ch.logger != nil {
			ch.logger.WithFields(logrus.Fields{"action": "websocket_upgrade"}).WithError(err).Warn("upgrade failed")
		}
		return nil
	}
}

// Broadcast sends message to every live session; write failures are left to
// each session's own transport handling.
func (ch *Channel) Broadcast(message string) {
	ch.sessions.Range(func(key, _ any) bool {
		session, ok := key.(*Session)
		if !ok {
			return true
		}
		if err := session.Notify(message); err != nil {
			session.logf(logrus.DebugLevel, "websocket_notify", err)
		}
		return true
	})
}
