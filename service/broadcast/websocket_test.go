package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/khaledhikmat/gaze-go/model"
)

func startHub(t *testing.T, onThreshold ThresholdFunc) (*wsService, *websocket.Conn) {
	t.Helper()

	svc := newHub(context.Background(), onThreshold)
	srv := httptest.NewServer(http.HandlerFunc(svc.serveWS))
	t.Cleanup(func() {
		svc.Close()
		srv.Close()
	})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitFor(t, func() bool { return svc.Clients() == 1 })
	return svc, conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_Publish(t *testing.T) {
	svc, conn := startHub(t, nil)

	event := model.DirectionEvent{Source: "cam", Frame: 12, Direction: "left", Threshold: 25, Changed: true}
	if err := svc.Publish(event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got model.DirectionEvent
	if err := json.Unmarshal(msg, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != event {
		t.Errorf("expected %+v, got %+v", event, got)
	}
}

func TestHub_ThresholdControl(t *testing.T) {
	requested := make(chan int, 4)
	_, conn := startHub(t, func(threshold int) int {
		requested <- threshold
		if threshold > 255 {
			return 255
		}
		return threshold
	})

	// Ignored: not JSON, then no threshold field.
	conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"other": 1}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"threshold": 300}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var reply ack
	if err := json.Unmarshal(msg, &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if reply.Threshold != 255 {
		t.Errorf("expected 255, got %d", reply.Threshold)
	}
	if len(requested) != 1 || <-requested != 300 {
		t.Errorf("expected one request for 300")
	}
}

func TestHub_ListeningViewerStaysConnected(t *testing.T) {
	saved := readWait
	readWait = 300 * time.Millisecond
	t.Cleanup(func() { readWait = saved })

	svc, conn := startHub(t, nil)

	// The viewer never writes; reading lets it answer pings.
	messages := make(chan []byte, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(messages)
				return
			}
			messages <- msg
		}
	}()

	time.Sleep(4 * readWait)
	if svc.Clients() != 1 {
		t.Fatalf("expected the silent viewer to stay registered, got %d clients", svc.Clients())
	}

	if err := svc.Publish(model.DirectionEvent{Source: "cam", Frame: 7, Direction: "right"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg, ok := <-messages:
		if !ok {
			t.Fatalf("viewer was disconnected")
		}
		if !strings.Contains(string(msg), `"right"`) {
			t.Errorf("unexpected event %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
	}
}

func TestHub_Unregister(t *testing.T) {
	svc, conn := startHub(t, nil)

	conn.Close()
	waitFor(t, func() bool { return svc.Clients() == 0 })
}

func TestHub_PublishAfterClose(t *testing.T) {
	svc := newHub(context.Background(), nil)
	svc.Close()

	if err := svc.Publish(model.DirectionEvent{}); err == nil {
		t.Errorf("expected an error publishing on a closed hub")
	}
}

func TestNoop(t *testing.T) {
	svc := NewNoop()
	if err := svc.Publish(model.DirectionEvent{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if svc.Clients() != 0 {
		t.Errorf("expected no clients")
	}
}
