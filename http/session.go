package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heartrisk/form"
	"heartrisk/monitoring"
)

const (
	sessionIdleTimeout = 10 * time.Minute
	sessionWriteWait   = 10 * time.Second
)

// Session reply types.
const (
	ReplyResult = "result"
	ReplyError  = "error"
)

// SessionReply is written once for every message a client sends.
type SessionReply struct {
	Type    string       `json:"type"`
	Result  *form.Result `json:"result,omitempty"`
	Status  int          `json:"status,omitempty"`
	Error   string       `json:"error,omitempty"`
	Details string       `json:"details,omitempty"`
}

func errorReply(status int, msg, details string) SessionReply {
	return SessionReply{Type: ReplyError, Status: status, Error: msg, Details: details}
}

// handlePredictSession serves one interactive session: read a form, predict,
// reply, then read the next form. Predictions on a session never overlap.
func (h *Handlers) handlePredictSession(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)
	requestID := GetRequestID(r.Context())
	h.logger.Info("prediction session opened", zap.String("request_id", requestID))

	for {
		// deadlines set by the http.Server survive the hijack
		conn.SetReadDeadline(time.Now().Add(sessionIdleTimeout))
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("request_id", requestID), zap.Error(err))
			}
			break
		}

		var reply SessionReply
		if msgType != websocket.TextMessage {
			h.metrics.ObservePrediction(monitoring.OutcomeRejected, 0)
			reply = errorReply(http.StatusBadRequest, "invalid message", "expected a JSON text message")
		} else if in, err := decodeInput(payload); err != nil {
			h.metrics.ObservePrediction(monitoring.OutcomeRejected, 0)
			reply = errorReply(http.StatusBadRequest, "invalid request body", err.Error())
		} else if result, err := h.evaluate(r.Context(), in); err != nil {
			status, msg := statusFor(err)
			reply = errorReply(status, msg, err.Error())
		} else {
			reply = SessionReply{Type: ReplyResult, Result: &result}
		}

		conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Warn("websocket write failed", zap.String("request_id", requestID), zap.Error(err))
			break
		}
	}

	h.logger.Info("prediction session closed", zap.String("request_id", requestID))
}

