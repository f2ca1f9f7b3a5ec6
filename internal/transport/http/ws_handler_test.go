package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"school-competition-service/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

func dialSession(t *testing.T, h *WSHandler, sessionID string) (*websocket.Conn, func()) {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/ws/sessions/{sessionID}", h.ServeWS)
	server := httptest.NewServer(r)

	u := "ws" + server.URL[len("http"):] + "/ws/sessions/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func TestWebSocketSessionFlow(t *testing.T) {
	service, _ := newTestService(t)
	session, err := service.StartCompetition(context.Background(), app.StartRequest{CompetitionID: "comp-1", StudentID: "s1"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h := NewWSHandler(service)
	h.tick = time.Hour
	conn, closeAll := dialSession(t, h, session.ID())
	defer closeAll()

	// Expect the current view first.
	view := readSession(t, conn, "session")
	if view.ID != session.ID() || view.State != app.StateInProgress {
		t.Fatalf("unexpected initial view %+v", view)
	}

	for i := 0; i < view.TotalQuestions; i++ {
		current := session.View()
		option := map[string]string{"q1": "4", "q2": "9"}[current.Question.ID]
		send(t, conn, "select", map[string]string{"option": option})
		if got := readSession(t, conn, "session"); got.SelectedOption != option {
			t.Fatalf("expected selection %q, got %+v", option, got)
		}
		send(t, conn, "reveal", nil)
		if got := readSession(t, conn, "session"); got.State != app.StateRevealed || got.Correct == nil || !*got.Correct {
			t.Fatalf("expected revealed correct view, got %+v", got)
		}
		if i < view.TotalQuestions-1 {
			send(t, conn, "advance", nil)
			readSession(t, conn, "session")
		}
	}

	send(t, conn, "submit", nil)
	final := readSession(t, conn, "session")
	if final.State != app.StateCompleted || final.Outcome == nil || final.Outcome.Result.Achieved != 3 {
		t.Fatalf("unexpected final view %+v", final)
	}

	send(t, conn, "reveal", nil)
	msgType, _ := readNext(t, conn)
	if msgType != "error" {
		t.Fatalf("expected error after completion, got %s", msgType)
	}
}

func TestWebSocketTicksAndRejectsUnknownMessages(t *testing.T) {
	service, _ := newTestService(t)
	session, err := service.StartCompetition(context.Background(), app.StartRequest{CompetitionID: "comp-1", StudentID: "s2"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Cancel()

	h := NewWSHandler(service)
	h.tick = 20 * time.Millisecond
	conn, closeAll := dialSession(t, h, session.ID())
	defer closeAll()

	readSession(t, conn, "session")
	tick := readSession(t, conn, "tick")
	if tick.RemainingSeconds == nil || *tick.RemainingSeconds <= 0 || *tick.RemainingSeconds > 300 {
		t.Fatalf("unexpected tick %+v", tick)
	}

	send(t, conn, "dance", nil)
	for i := 0; i < 10; i++ {
		msgType, payload := readNext(t, conn)
		if msgType == "tick" {
			continue
		}
		var body errorPayload
		_ = json.Unmarshal(payload, &body)
		if msgType != "error" || body.Message != errUnsupportedMessage.Error() {
			t.Fatalf("expected unsupported message error, got %s %s", msgType, payload)
		}
		return
	}
	t.Fatalf("no error reply received")
}

func TestWebSocketUnknownSession(t *testing.T) {
	service, _ := newTestService(t)
	r := chi.NewRouter()
	r.Get("/ws/sessions/{sessionID}", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(r)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/sessions/missing"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail for unknown session")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}

func readSession(t *testing.T, conn *websocket.Conn, expect string) app.SessionView {
	t.Helper()
	msgType, payload := readNext(t, conn)
	if msgType != expect {
		t.Fatalf("expected type %s, got %s (%s)", expect, msgType, payload)
	}
	var view app.SessionView
	if err := json.Unmarshal(payload, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}
