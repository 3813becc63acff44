package rpc

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerledger/gocertd/internal/events"
)

func dialTestServer(t *testing.T) (*websocket.Conn, *events.Publisher) {
	t.Helper()

	publisher := events.NewPublisher(16)
	srv := httptest.NewServer(NewWebSocketServer("", publisher))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Wait for the subscription to register before publishing.
	require.Eventually(t, func() bool {
		return publisher.SubscriberCount() == 1
	}, time.Second, 5*time.Millisecond)

	return conn, publisher
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt events.Event
	require.NoError(t, conn.ReadJSON(&evt))
	return evt
}

func TestStreamsAllEventsByDefault(t *testing.T) {
	conn, publisher := dialTestServer(t)

	publisher.Publish(events.Event{
		Type:    events.TypeTradeExecuted,
		Payload: events.TradeExecuted{OrderID: "order1", Buyer: "B", Seller: "S", Price: 200},
	})

	evt := readEvent(t, conn)
	assert.Equal(t, events.TypeTradeExecuted, evt.Type)

	payload, ok := evt.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "order1", payload["order_id"])
	assert.Equal(t, float64(200), payload["price"])
}

func TestSubscribeFiltersStreams(t *testing.T) {
	conn, publisher := dialTestServer(t)

	require.NoError(t, conn.WriteJSON(Command{
		Command: "subscribe",
		Streams: []string{events.TypeTradeExecuted},
		ID:      1,
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp CommandResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "success", resp.Status)

	publisher.Publish(events.Event{Type: events.TypeWalletCreated, Payload: events.WalletCreated{ID: "B"}})
	publisher.Publish(events.Event{Type: events.TypeTradeExecuted, Payload: events.TradeExecuted{OrderID: "order1"}})

	// Only the trade comes through.
	evt := readEvent(t, conn)
	assert.Equal(t, events.TypeTradeExecuted, evt.Type)
}

func TestUnknownCommand(t *testing.T) {
	conn, _ := dialTestServer(t)

	require.NoError(t, conn.WriteJSON(Command{Command: "path_find", ID: 7}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp CommandResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, float64(7), resp.ID)
}

func TestCloseUnsubscribes(t *testing.T) {
	conn, publisher := dialTestServer(t)

	conn.Close()
	assert.Eventually(t, func() bool {
		return publisher.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
