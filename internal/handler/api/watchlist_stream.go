package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"Coinverge/internal/domain/models"
	"Coinverge/internal/usecase"
	xhttp "Coinverge/pkg/http"
	xlogger "Coinverge/pkg/logger"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// StreamMessage is one frame pushed to a portfolio stream.
type StreamMessage struct {
	Type      string            `json:"type"`
	Portfolio *models.Portfolio `json:"portfolio,omitempty"`
	Error     *xhttp.AppError   `json:"error,omitempty"`
}

// WatchlistStreamHandler pushes refreshed portfolios over a WebSocket.
type WatchlistStreamHandler struct {
	logger    *xlogger.Logger
	watchlist *usecase.WatchlistService
	interval  time.Duration
	upgrader  websocket.Upgrader
}

func NewWatchlistStreamHandler(logger *xlogger.Logger, watchlist *usecase.WatchlistService, interval time.Duration) *WatchlistStreamHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &WatchlistStreamHandler{
		logger:    logger,
		watchlist: watchlist,
		interval:  interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// CORS middleware already gates browser origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WatchlistStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/watchlists/:owner/stream", h.Stream)
}

func (h *WatchlistStreamHandler) Stream(c echo.Context) error {
	req := &models.StreamRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	interval := h.interval
	if c.QueryParam("interval_sec") != "" {
		interval = time.Duration(req.IntervalSec) * time.Second
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.String("owner", req.Owner), xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go h.readPump(conn, cancel)

	h.logger.Info("portfolio stream opened",
		xlogger.String("owner", req.Owner),
		xlogger.Duration("interval", interval),
	)
	defer h.logger.Info("portfolio stream closed", xlogger.String("owner", req.Owner))

	if !h.push(ctx, conn, req.Owner) {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return nil
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return nil
			}
		case <-ticker.C:
			if !h.push(ctx, conn, req.Owner) {
				return nil
			}
		}
	}
}

// push refreshes and writes one frame. It returns false once the connection is unusable.
func (h *WatchlistStreamHandler) push(ctx context.Context, conn *websocket.Conn, owner string) bool {
	msg := StreamMessage{Type: "portfolio"}
	p, err := h.watchlist.Refresh(ctx, owner)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		h.logger.Warn("stream refresh failed", xlogger.String("owner", owner), xlogger.Error(err))
		msg = StreamMessage{Type: "error", Error: toAppError(err)}
	} else {
		msg.Portfolio = &p
	}

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("stream write failed", xlogger.String("owner", owner), xlogger.Error(err))
		return false
	}
	return true
}

// readPump drains client frames so control messages are processed, and cancels on disconnect.
func (h *WatchlistStreamHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
