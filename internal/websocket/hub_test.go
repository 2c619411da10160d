package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/filipexyz/compass/internal/domain"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func testClient(hub *Hub, buffer int, keys ...string) *Client {
	c := &Client{hub: hub, send: make(chan []byte, buffer)}
	c.setKeys(keys)
	return c
}

func register(t *testing.T, hub *Hub, clients ...*Client) {
	t.Helper()
	for _, c := range clients {
		if !hub.Register(c) {
			t.Fatal("Register refused")
		}
	}
	waitFor(t, func() bool { return hub.ClientCount() == len(clients) })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case data := <-c.send:
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func TestHub_BroadcastFiltersByKey(t *testing.T) {
	hub, _ := startHub(t)
	all := testClient(hub, 4)
	orders := testClient(hub, 4, "orders")
	register(t, hub, all, orders)

	hub.Broadcast(&domain.ConfigEvent{ID: "evt_1", Action: domain.ConfigUpdated, ConfigID: 1, ConfigKey: "stock"})
	hub.Broadcast(&domain.ConfigEvent{ID: "evt_2", Action: domain.ConfigDeleted, ConfigID: 2, ConfigKey: "orders", Origin: "peer"})

	if msg := receive(t, all); msg["configKey"] != "stock" || msg["type"] != "change" {
		t.Errorf("all got %v", msg)
	}
	if msg := receive(t, all); msg["configKey"] != "orders" {
		t.Errorf("all got %v", msg)
	}
	msg := receive(t, orders)
	if msg["configKey"] != "orders" || msg["action"] != "deleted" || msg["origin"] != "peer" {
		t.Errorf("orders got %v", msg)
	}
	if len(orders.send) != 0 {
		t.Error("orders client received a stock change")
	}
}

func TestHub_SlowClientMissesEvents(t *testing.T) {
	hub, _ := startHub(t)
	slow := testClient(hub, 1)
	register(t, hub, slow)

	for i := 0; i < 3; i++ {
		hub.Broadcast(&domain.ConfigEvent{ConfigKey: "orders"})
	}
	if len(slow.send) != 1 {
		t.Errorf("buffered = %d, want 1", len(slow.send))
	}
}

func TestHub_Unregister(t *testing.T) {
	hub, _ := startHub(t)
	c := testClient(hub, 1)
	register(t, hub, c)

	hub.Unregister(c)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
	// Replies after unregistering are dropped, not sent on the closed channel.
	c.sendJSON(NewPongMessage())
}

func TestHub_StopDisconnectsClients(t *testing.T) {
	hub, cancel := startHub(t)
	c := testClient(hub, 1)
	register(t, hub, c)

	cancel()
	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("client not disconnected")
	}

	if hub.Register(testClient(hub, 1)) {
		t.Error("Register should fail after stop")
	}
	hub.Unregister(c)
}

func TestClient_HandleMessage(t *testing.T) {
	hub, _ := startHub(t)
	c := testClient(hub, 4)
	register(t, hub, c)

	c.handleMessage([]byte(`{"action":"subscribe","keys":["orders"]}`))
	if msg := receive(t, c); msg["type"] != "subscribed" {
		t.Errorf("got %v", msg)
	}
	if !c.Wants("orders") || c.Wants("stock") {
		t.Error("subscribe did not set the key filter")
	}

	c.handleMessage([]byte(`{"action":"subscribe"}`))
	receive(t, c)
	if !c.Wants("stock") {
		t.Error("empty subscribe should watch every key")
	}

	c.handleMessage([]byte(`{"action":"ping"}`))
	if msg := receive(t, c); msg["type"] != "pong" {
		t.Errorf("got %v", msg)
	}

	c.handleMessage([]byte(`{"action":"ack"}`))
	if msg := receive(t, c); msg["code"] != "UNKNOWN_ACTION" {
		t.Errorf("got %v", msg)
	}

	c.handleMessage([]byte(`not json`))
	if msg := receive(t, c); msg["code"] != "INVALID_JSON" {
		t.Errorf("got %v", msg)
	}
}
