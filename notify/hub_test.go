package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"krishilink/logger"
	"krishilink/mq"
)

type tokenVerifier map[string]string

func (v tokenVerifier) Verify(_ context.Context, token string) (string, error) {
	if email, ok := v[token]; ok {
		return email, nil
	}
	return "", errors.New("invalid token")
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(logger.Nop(), tokenVerifier{"buyer-token": "buyer@farm.test"})
	router := httprouter.New()
	router.GET("/ws/interests", hub.ServeWS)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/interests?token=" + token
}

func TestHubDeliversEventToRecipient(t *testing.T) {
	hub, srv := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "buyer-token"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections("buyer@farm.test") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Someone else's event must not arrive.
	_ = hub.Emit(context.Background(), mq.Event{Name: mq.InterestCreated, Recipient: "seller@farm.test", InterestID: "other"})
	_ = hub.Emit(context.Background(), mq.Event{Name: mq.InterestStatus, Recipient: "Buyer@Farm.test", InterestID: "i-1", Status: "accepted"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type       string `json:"type"`
		InterestID string `json:"interest_id"`
		Status     string `json:"status"`
	}
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != mq.InterestStatus || got.InterestID != "i-1" || got.Status != "accepted" {
		t.Fatalf("event: got=%+v", got)
	}
}

func TestHubRejectsUnknownToken(t *testing.T) {
	_, srv := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "nope"), nil)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: want=%d got=%v", http.StatusUnauthorized, resp)
	}
}
