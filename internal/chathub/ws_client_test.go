package chathub_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mentorchat/backend/internal/chathub"
	"mentorchat/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{}

// Two pushes queued at once get batched into one text frame; each must
// arrive as its own JSON document so a line-splitting client can decode
// them separately.
func TestWebSocketClient_BatchedPushesAreNewlineSeparated(t *testing.T) {
	storageMock := new(MockStorage)
	storageMock.On("SubscribeDeliveries").Return(nil)
	hub, _ := newTestHub(storageMock)
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &chathub.WebSocketClient{
			ConnID: "conn-1",
			Hub:    hub,
			Conn:   conn,
			Send:   make(chan models.OutboundMessage, 8),
		}
		// Both messages are buffered before the pumps start, so the
		// write pump batches them into a single frame.
		client.Send <- models.OutboundMessage{Type: models.EventReceiveMessage, SenderID: "alice", Body: "first"}
		client.Send <- models.OutboundMessage{Type: models.EventReceiveMessage, SenderID: "alice", Body: "second"}
		client.Run()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	lines := bytes.Split(frame, []byte("\n"))
	require.Len(t, lines, 2, "each batched message occupies its own line")

	var first, second models.OutboundMessage
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "first", first.Body)
	assert.Equal(t, "second", second.Body)
}
