package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/middleware"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/omrgrade/omr-backend/internal/service"
	ws "github.com/omrgrade/omr-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams grading results of a test to connected operators.
type WSHandler struct {
	rdb         *redis.Client
	testService *service.TestService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, testService *service.TestService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		testService: testService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// ResultStream godoc
// WS /ws/v1/tests/:id/results?token=...
// Upgrades to WebSocket and pushes a "graded" event for every sheet of the
// test that is graded while the connection is open.
func (h *WSHandler) ResultStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.testService.GetByID(c.Request.Context(), testID); err != nil {
		failFromError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("operator_id", claims.OperatorID).
		Str("test_id", testID.String()).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.TestResultsChannel(testID.String()))
	defer sub.Close()

	// Wait for the subscription so no event published after "subscribed" is lost.
	if _, err := sub.Receive(ctx); err != nil {
		wsLog.Error().Err(err).Msg("Subscribe failed")
		ws.WriteError(conn, "subscribe failed")
		return
	}

	ws.PrepareConn(conn)
	if err := ws.WriteJSON(conn, ws.EventSubscribed, gin.H{"test_id": testID}); err != nil {
		return
	}
	wsLog.Info().Msg("Operator subscribed")

	// Only this goroutine writes to conn; the reader hands pings over.
	pings := make(chan struct{}, 1)
	go h.readLoop(conn, wsLog, pings, cancel)

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteJSON(conn, ws.EventGraded, json.RawMessage(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-pings:
			if err := ws.WriteJSON(conn, ws.EventPong, nil); err != nil {
				return
			}
		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}

// readLoop consumes client messages until the connection closes.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, pings chan<- struct{}, done context.CancelFunc) {
	defer done()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			select {
			case pings <- struct{}{}:
			default:
			}
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		}
	}
}
