package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/scripting"
)

func dialHub(t *testing.T, hub *Hub, hello *Message) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, hello)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubBroadcastsEngineEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	conn := dialHub(t, hub, &Message{Type: MsgLedger, Data: ledger.Snapshot{}})
	assert.Equal(t, MsgLedger, readMessage(t, conn).Type, "hello frame first")

	hub.LedgerChanged(ctx, ledger.Snapshot{Balance: dec("42")})
	msg := readMessage(t, conn)
	assert.Equal(t, MsgLedger, msg.Type)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "42", data["balance"])

	hub.EmitScriptState(scripting.EngineSnapshot{State: scripting.StateRunning})
	assert.Equal(t, MsgAutoplayState, readMessage(t, conn).Type)

	hub.EmitScriptLog([]scripting.LogEntry{{Message: "hi"}})
	assert.Equal(t, MsgAutoplayLog, readMessage(t, conn).Type)
}

func TestHubAnswersPing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	conn := dialHub(t, hub, nil)
	require.NoError(t, conn.WriteJSON(Message{Type: MsgPing}))
	assert.Equal(t, MsgPong, readMessage(t, conn).Type)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewHub([]string{"http://localhost:5173"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, nil)
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(nil) // not running: nothing drains the queue

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.LedgerChanged(context.Background(), ledger.Snapshot{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked")
	}
}
