package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/rsehgal/wayfarer/internal/app/trip"
	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

type wsInbound struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type wsOutbound struct {
	Response    string    `json:"response"`
	MessageID   string    `json:"message_id"`
	Timestamp   time.Time `json:"timestamp"`
	Suggestions []string  `json:"suggestions"`
}

type wsError struct {
	Error string `json:"error"`
}

// handleWebSocket streams chat over a websocket: each inbound frame carries a
// user message, each outbound frame the agent's reply for the same session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := domain.SessionID(chi.URLParam(r, "sessionID"))
	logger := observability.Component("ws")

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Error("websocket accept failed", "error", err)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()

	logger.Info("websocket connected", "session_id", sessionID)

	ctx := r.Context()
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				logger.Info("websocket closed by client", "session_id", sessionID)
			} else {
				logger.Warn("websocket read error", "error", err, "session_id", sessionID)
			}
			return
		}

		var in wsInbound
		if err := json.Unmarshal(data, &in); err != nil {
			// Fallback: treat the raw frame as the message text.
			in = wsInbound{Message: string(data)}
		}
		if strings.TrimSpace(in.Message) == "" {
			if err := writeWS(ws, wsError{Error: "message is required"}); err != nil {
				return
			}
			continue
		}

		out, err := s.svc.SendMessage(ctx, trip.SendMessageInput{
			SessionID: sessionID,
			UserID:    domain.UserID(in.UserID),
			Text:      in.Message,
		})
		if err != nil {
			logger.Error("websocket message failed", "error", err, "session_id", sessionID)
			if err := writeWS(ws, wsError{Error: "failed to process message"}); err != nil {
				return
			}
			continue
		}

		suggestions := out.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		reply := wsOutbound{
			Response:    out.AgentMessage.Text,
			MessageID:   string(out.AgentMessage.ID),
			Timestamp:   out.AgentMessage.CreatedAt,
			Suggestions: suggestions,
		}
		if err := writeWS(ws, reply); err != nil {
			logger.Warn("websocket write error", "error", err, "session_id", sessionID)
			return
		}
	}
}

func writeWS(ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(context.Background(), websocket.MessageText, data)
}
