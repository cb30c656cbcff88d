package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/aegis/v13/optimizer/internal/evolve"
	"github.com/wonny/aegis/v13/optimizer/internal/optimizer"
	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
)

const (
	streamWriteWait = 10 * time.Second
	streamReadLimit = maxBodyBytes
)

// Stream message types
const (
	MessageGeneration = "generation"
	MessageResult     = "result"
	MessageError      = "error"
)

// StreamMessage is one frame sent to a streaming client
type StreamMessage struct {
	Type   string                  `json:"type"`
	Stats  *evolve.GenerationStats `json:"stats,omitempty"`
	Result *optimizer.Result       `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
	Field  string                  `json:"field,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// readConfig decodes the first client frame with the same rules as POST bodies
func readConfig(conn *websocket.Conn, cfg *runconfig.Config) error {
	_, rd, err := conn.NextReader()
	if err != nil {
		return err
	}
	return decodeStrict(rd, cfg)
}

// Stream runs one optimization and pushes every generation to the client.
// The first client frame is the run config; closing the socket cancels the run.
// GET /ws/optimize
func (h *OptimizeHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(streamReadLimit)

	cfg := h.baseline()
	if err := readConfig(conn, cfg); err != nil {
		h.send(conn, StreamMessage{Type: MessageError, Error: "Invalid config: " + err.Error()})
		return
	}

	if err := h.check(cfg); err != nil {
		h.sendRunError(conn, err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 클라이언트 종료 감지 → 실행 취소
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	result, err := h.service.RunWithProgress(ctx, cfg, func(st evolve.GenerationStats) {
		if err := h.send(conn, StreamMessage{Type: MessageGeneration, Stats: &st}); err != nil {
			cancel()
		}
	})
	if err != nil {
		h.sendRunError(conn, err)
		return
	}

	h.send(conn, StreamMessage{Type: MessageResult, Result: result})
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(streamWriteWait),
	)
}

func (h *OptimizeHandler) send(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.WithError(err).Debug("WebSocket write failed")
		return err
	}
	return nil
}

func (h *OptimizeHandler) sendRunError(conn *websocket.Conn, err error) {
	msg := StreamMessage{Type: MessageError, Error: err.Error()}
	var verr runconfig.ValidationError
	if errors.As(err, &verr) {
		msg.Error = verr.Message
		msg.Field = verr.Field
	}
	h.send(conn, msg)
}
