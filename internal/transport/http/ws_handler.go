package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"school-competition-service/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	tick     time.Duration
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tick: time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS streams a session to the student and applies the actions they send.
// Views are pushed on every transition plus a tick view while the clock runs.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		for {
			var msg outboundMessage
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				msg = outboundMessage{Type: "session", Payload: view}
			case <-ticker.C:
				view := session.View()
				if view.RemainingSeconds == nil {
					continue
				}
				msg = outboundMessage{Type: "tick", Payload: view}
			case <-closeSignals:
				return
			}
			select {
			case send <- msg:
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.apply(r.Context(), session, inbound); err != nil {
			select {
			case send <- outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// apply runs one client action. Resulting views reach the client through the subscription.
func (h *WSHandler) apply(ctx context.Context, session *app.Session, msg inboundMessage) error {
	switch msg.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return session.SelectOption(payload.Option)
	case "reveal":
		return session.Reveal()
	case "advance":
		return session.Advance()
	case "submit":
		_, err := session.Submit(ctx)
		return err
	case "cancel":
		return session.Cancel()
	}
	return errUnsupportedMessage
}
