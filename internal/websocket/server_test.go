package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func TestHubBroadcastsToConnectedClient(t *testing.T) {
	hub := NewHub(logger.Nop())
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer server.Close()

	url := "ws" + server.URL[len("http"):]
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// Give the hub a moment to register the client before broadcasting.
	time.Sleep(50 * time.Millisecond)
	hub.Broadcast(Event{Type: EventTaskCompleted, ICAO: "45d2ed", Month: "2022-03"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "" {
		t.Fatal("expected a non-empty event message")
	}
}
