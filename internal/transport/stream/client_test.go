package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniferous/riftgate/client/internal/protocol"
)

var upgrader = websocket.Upgrader{}

// wsFixture runs a websocket server that pushes the given frames on connect
// and records everything the client sends.
type wsFixture struct {
	srv      *httptest.Server
	frames   []string
	received chan protocol.Action
}

func newWSFixture(t *testing.T, frames ...string) *wsFixture {
	t.Helper()
	f := &wsFixture{frames: frames, received: make(chan protocol.Action, 16)}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, fr := range f.frames {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(fr)))
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var out struct {
				Action *protocol.Action `json:"action"`
			}
			if json.Unmarshal(data, &out) == nil && out.Action != nil {
				f.received <- *out.Action
			}
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *wsFixture) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestServesLatestPushedStack(t *testing.T) {
	f := newWSFixture(t,
		`{"stack": {"entries": [{"key": "old", "element": {"menu": {"items": [], "can_cancel": false}}}]}}`,
		`{"stack": {"entries": [{"key": "new", "element": {"menu": {"items": [], "can_cancel": false}}}]}}`,
	)

	c, err := Dial(context.Background(), Options{URL: f.url()})
	require.NoError(t, err)
	defer c.Close()

	waitFor(t, func() bool {
		s, err := c.UIStack(context.Background())
		return err == nil && len(s.Entries) == 1 && s.Entries[0].Key == "new"
	})
}

func TestEmptyUntilFirstPush(t *testing.T) {
	f := newWSFixture(t)

	c, err := Dial(context.Background(), Options{URL: f.url()})
	require.NoError(t, err)
	defer c.Close()

	s, err := c.UIStack(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Entries)
}

func TestServiceRequestsDrainOnce(t *testing.T) {
	f := newWSFixture(t,
		`{"services": [{"speak": {"text": "one", "interrupt": false}}]}`,
		`{"services": [{"speak": {"text": "two", "interrupt": true}}]}`,
	)

	c, err := Dial(context.Background(), Options{URL: f.url()})
	require.NoError(t, err)
	defer c.Close()

	waitFor(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.pending) == 2
	})

	batch, err := c.DequeueServiceRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Requests, 2)
	assert.Equal(t, "one", batch.Requests[0].Speak.Text)

	batch, err = c.DequeueServiceRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Requests)
}

func TestActionsReachTheServer(t *testing.T) {
	f := newWSFixture(t)

	c, err := Dial(context.Background(), Options{URL: f.url()})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Complete(context.Background(), "a", "atk"))
	require.NoError(t, c.Cancel(context.Background(), "a"))

	got := <-f.received
	assert.Equal(t, protocol.Action{Target: "a", Kind: protocol.ActionComplete, Value: "atk"}, got)
	got = <-f.received
	assert.Equal(t, protocol.Action{Target: "a", Kind: protocol.ActionCancel}, got)
}

func TestLostFeedSurfacesError(t *testing.T) {
	f := newWSFixture(t)

	c, err := Dial(context.Background(), Options{URL: f.url()})
	require.NoError(t, err)
	defer c.Close()

	f.srv.CloseClientConnections()

	waitFor(t, func() bool {
		_, err := c.UIStack(context.Background())
		return err != nil
	})
}

func TestMalformedFrameIsSkipped(t *testing.T) {
	f := newWSFixture(t,
		`{nonsense`,
		`{"stack": {"entries": [{"key": "ok", "element": {"menu": {"items": [], "can_cancel": false}}}]}}`,
	)

	c, err := Dial(context.Background(), Options{URL: f.url()})
	require.NoError(t, err)
	defer c.Close()

	waitFor(t, func() bool {
		s, err := c.UIStack(context.Background())
		return err == nil && len(s.Entries) == 1 && s.Entries[0].Key == "ok"
	})
}
