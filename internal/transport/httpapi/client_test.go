package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniferous/riftgate/client/internal/infrastructure/resilience"
	"github.com/soniferous/riftgate/client/internal/protocol"
)

type fakeServer struct {
	mu       sync.Mutex
	stack    string
	status   int
	actions  []protocol.Action
	sessions map[string]struct{}
}

func newFakeServer() (*fakeServer, *httptest.Server) {
	f := &fakeServer{stack: `{"entries": []}`, status: http.StatusOK, sessions: map[string]struct{}{}}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ui/stack", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sessions[r.Header.Get("X-Riftgate-Session")] = struct{}{}
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(f.stack))
	})

	mux.HandleFunc("POST /api/ui/actions", func(w http.ResponseWriter, r *http.Request) {
		var a protocol.Action
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.actions = append(f.actions, a)
		f.mu.Unlock()
	})

	mux.HandleFunc("POST /api/services/dequeue", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"requests": [{"speak": {"text": "hi", "interrupt": false}}]}`))
	})

	return f, httptest.NewServer(mux)
}

func TestUIStackRoundTrip(t *testing.T) {
	f, srv := newFakeServer()
	defer srv.Close()

	f.stack = `{"entries": [{"key": "a", "element": {"menu": {"items": [], "can_cancel": true}}}]}`

	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	stack, err := c.UIStack(context.Background())
	require.NoError(t, err)
	require.Len(t, stack.Entries, 1)
	assert.Equal(t, "a", stack.Entries[0].Key)
	assert.True(t, stack.Entries[0].Element.Menu.CanCancel)

	// Every request carries the client's session ID.
	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.sessions, c.Session())
}

func TestActionsArePosted(t *testing.T) {
	f, srv := newFakeServer()
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	require.NoError(t, c.Complete(context.Background(), "a", "atk"))
	require.NoError(t, c.Cancel(context.Background(), "b"))

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.actions, 2)
	assert.Equal(t, protocol.Action{Target: "a", Kind: protocol.ActionComplete, Value: "atk"}, f.actions[0])
	assert.Equal(t, protocol.Action{Target: "b", Kind: protocol.ActionCancel}, f.actions[1])
}

func TestDequeueServiceRequests(t *testing.T) {
	_, srv := newFakeServer()
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	batch, err := c.DequeueServiceRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Requests, 1)
	assert.Equal(t, "hi", batch.Requests[0].Speak.Text)
}

func TestServerErrorSurfaces(t *testing.T) {
	f, srv := newFakeServer()
	defer srv.Close()

	f.mu.Lock()
	f.status = http.StatusInternalServerError
	f.mu.Unlock()

	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	_, err := c.UIStack(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestBreakerFailsFastWhenServerIsDown(t *testing.T) {
	_, srv := newFakeServer()
	srv.Close() // refuse every connection

	c := New(Options{BaseURL: srv.URL})
	defer c.Close()

	for i := 0; i < 5; i++ {
		_, err := c.UIStack(context.Background())
		require.Error(t, err)
	}

	_, err := c.UIStack(context.Background())
	assert.ErrorIs(t, err, resilience.ErrOpen)
}
