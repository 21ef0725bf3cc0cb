package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"gamecenter/internal/game"
	"gamecenter/internal/logger"
	"gamecenter/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	ClientID string `json:"clientId"`
}

type statePayload struct {
	Session session.Info `json:"session"`
}

type errorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Range   any    `json:"range,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	sess, ok := s.manager.Get(code)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		logger.Warn("websocket accept", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &join); err != nil {
			sendWSError(ctx, conn, "invalid join payload")
			return
		}
	}
	if join.ClientID == "" {
		join.ClientID = uuid.NewString()
	}

	client := sess.AddClient(join.ClientID)
	defer sess.RemoveClient(client)
	logger.Debug("client joined", "session", code, "client", client.ID)

	sendWSMsg(sess, client, "state", statePayload{Session: sess.Info()})

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range client.Send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(sess, client, "error", errorPayload{Message: "invalid message"})
			continue
		}
		s.handleMessage(ctx, sess, client, msg)
	}
	logger.Debug("client left", "session", code, "client", client.ID)
}

func (s *Server) handleMessage(ctx context.Context, sess *session.Session, client *session.Client, msg WSMessage) {
	switch msg.Type {
	case "action":
		var action game.Action
		if err := json.Unmarshal(msg.Payload, &action); err != nil || action.Type == "" {
			sendWSMsg(sess, client, "error", errorPayload{Message: "invalid action payload"})
			return
		}
		info, err := sess.Apply(ctx, action)
		switch {
		case err == nil:
			// broadcast by the manager's change hook
		case errors.Is(err, game.ErrNotAcceptingInput):
			sendWSMsg(sess, client, "state", statePayload{Session: info})
		default:
			_, body := actionFailure(err, info)
			ep := errorPayload{Message: body.Error, Kind: body.Kind}
			if body.Range != nil {
				ep.Range = body.Range
			}
			sendWSMsg(sess, client, "error", ep)
		}

	default:
		sendWSMsg(sess, client, "error", errorPayload{Message: "unknown message type: " + msg.Type})
	}
}

// broadcastState pushes the session state to every connected client.
func (s *Server) broadcastState(sess *session.Session) {
	sess.Broadcast(encodeWSMsg("state", statePayload{Session: sess.Info()}))
}

func encodeWSMsg(msgType string, payload any) []byte {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	return msg
}

func sendWSMsg(sess *session.Session, client *session.Client, msgType string, payload any) {
	sess.Send(client, encodeWSMsg(msgType, payload))
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	conn.Write(ctx, websocket.MessageText, encodeWSMsg("error", errorPayload{Message: message}))
}
