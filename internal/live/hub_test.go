package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHub(t *testing.T, hub *Hub, debateID string, initial *Event) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r, debateID, initial); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil skips events of other types, such as presence updates.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		if ev.Type == eventType {
			return ev
		}
	}
}

func TestHub_InitialEventAndBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	initial, err := NewEvent("d1", "results", map[string]int{"total_votes": 3})
	require.NoError(t, err)

	conn := dial(t, serveHub(t, hub, "d1", initial))

	ev := readUntil(t, conn, "results")
	assert.Equal(t, "d1", ev.DebateID)
	assert.JSONEq(t, `{"total_votes":3}`, string(ev.Payload))

	assert.Eventually(t, func() bool { return hub.Subscribers("d1") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), "d1", "results", map[string]int{"total_votes": 4}))
	ev = readUntil(t, conn, "results")
	assert.JSONEq(t, `{"total_votes":4}`, string(ev.Payload))
}

func TestHub_RoomsAreIsolated(t *testing.T) {
	hub := NewHub(nil, nil)
	conn := dial(t, serveHub(t, hub, "d1", nil))
	readUntil(t, conn, "presence")

	require.NoError(t, hub.Publish(context.Background(), "d2", "results", map[string]int{"total_votes": 1}))
	require.NoError(t, hub.Publish(context.Background(), "d1", "opinion", map[string]string{"id": "o1"}))

	ev := readUntil(t, conn, "opinion")
	assert.Equal(t, "d1", ev.DebateID)
	assert.Equal(t, 0, hub.Subscribers("d2"))
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub := NewHub(nil, nil)
	url := serveHub(t, hub, "d1", nil)

	first := dial(t, url)
	second := dial(t, url)
	readUntil(t, second, "presence")
	assert.Eventually(t, func() bool { return hub.Subscribers("d1") == 2 }, time.Second, 10*time.Millisecond)

	first.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers("d1") == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	hub := NewHub(nil, []string{"https://polls.example"})
	url := serveHub(t, hub, "d1", nil)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://polls.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	conn.Close()
}

func TestUnmarshalEvent(t *testing.T) {
	ev, err := NewEvent("d1", "totals", map[string]int{"total_votes": 2})
	require.NoError(t, err)
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	got, err := UnmarshalEvent(string(data))
	require.NoError(t, err)
	assert.Equal(t, "totals", got.Type)
	assert.Equal(t, "debate:d1:events", ChannelName("d1"))

	_, err = UnmarshalEvent(`{"type":"results"}`)
	assert.Error(t, err)
	_, err = UnmarshalEvent(`not json`)
	assert.Error(t, err)
}

func TestHub_RedisRelay(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two hubs sharing Redis stand in for two server instances.
	sender := NewHub(rdb, nil)
	receiver := NewHub(rdb, nil)
	go receiver.Run(ctx)

	conn := dial(t, serveHub(t, receiver, "relay", nil))
	readUntil(t, conn, "presence")

	assert.Eventually(t, func() bool {
		n, err := rdb.PubSubNumPat(ctx).Result()
		return err == nil && n > 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, sender.Publish(ctx, "relay", "results", map[string]int{"total_votes": 9}))
	ev := readUntil(t, conn, "results")
	assert.JSONEq(t, `{"total_votes":9}`, string(ev.Payload))
}

func TestHub_RunSurvivesUnreachableRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	t.Cleanup(func() { rdb.Close() })

	hub := NewHub(rdb, nil)
	hub.retryMin = 10 * time.Millisecond
	hub.retryMax = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(300 * time.Millisecond):
	}
	assert.False(t, hub.Relaying())

	// Local subscribers still get events while the relay is down.
	conn := dial(t, serveHub(t, hub, "d1", nil))
	readUntil(t, conn, "presence")
	err := hub.Publish(context.Background(), "d1", "results", map[string]int{"total_votes": 5})
	assert.Error(t, err)
	ev := readUntil(t, conn, "results")
	assert.JSONEq(t, `{"total_votes":5}`, string(ev.Payload))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
