package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/payload"
	"github.com/grovetools/extdev/server"
	"github.com/grovetools/extdev/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testSession() payload.SessionOptions {
	return payload.SessionOptions{
		APIKey:          "api-key",
		AppTitle:        "Test App",
		URL:             "https://localhost:8081",
		StoreFqdn:       "example.myshopify.com",
		CheckoutCartURL: "mock/cart/url",
	}
}

// startServer runs a real dev server and returns its websocket url.
func startServer(t *testing.T, descriptors ...core.ExtensionDescriptor) (*server.Server, string) {
	t.Helper()
	s := server.New(server.Options{
		Session:     testSession(),
		Descriptors: descriptors,
		PublicDir:   t.TempDir(),
	})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, strings.Replace(ts.URL, "http", "ws", 1) + "/extensions"
}

func connect(t *testing.T, url string, opts ...func(*Options)) *Client {
	t.Helper()
	options := Options{URL: url, ID: "test-client"}
	for _, opt := range opts {
		opt(&options)
	}
	c, err := New(options)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// waitFor blocks until the channel yields or the test times out.
func waitFor(t *testing.T, ch <-chan json.RawMessage) json.RawMessage {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func eventChan(c *Client, event string) <-chan json.RawMessage {
	ch := make(chan json.RawMessage, 8)
	c.On(event, func(data json.RawMessage) { ch <- data })
	return ch
}

// recordingSocket is a bare websocket sink capturing every raw frame a
// client writes, for asserting exact wire shapes.
func recordingSocket(t *testing.T) (string, <-chan []byte) {
	t.Helper()
	frames := make(chan []byte, 8)
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- raw
		}
	}))
	t.Cleanup(ts.Close)
	return strings.Replace(ts.URL, "http", "ws", 1), frames
}

func TestConnectedEventDelivered(t *testing.T) {
	_, url := startServer(t, testutil.Descriptor(t, "abc", core.SurfaceCheckout))

	// Register the listener before dialing so the snapshot frame can't
	// race past it.
	c := connect(t, url, func(o *Options) { o.DeferConnect = true })
	ch := eventChan(c, "connected")
	require.NoError(t, c.Connect())

	data := waitFor(t, ch)
	var snapshot struct {
		Store      string           `json:"store"`
		Extensions []core.Extension `json:"extensions"`
	}
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Equal(t, "example.myshopify.com", snapshot.Store)
	require.Len(t, snapshot.Extensions, 1)
	assert.Equal(t, "abc", snapshot.Extensions[0].UUID)
}

func TestPersistSendsBareEventFrame(t *testing.T) {
	url, frames := recordingSocket(t)
	c := connect(t, url)

	c.Persist("update", core.UpdatePatch{
		Extensions: []core.ExtensionPatch{
			{UUID: "abc", Development: &core.DevelopmentPatch{Hidden: boolPtr(true)}},
		},
	})

	select {
	case raw := <-frames:
		assert.JSONEq(t,
			`{"event":"update","data":{"extensions":[{"uuid":"abc","development":{"hidden":true}}]}}`,
			string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestEmitWrapsInDispatchEnvelope(t *testing.T) {
	url, frames := recordingSocket(t)
	c := connect(t, url)

	c.Emit("refresh", []map[string]string{{"uuid": "abc"}})

	select {
	case raw := <-frames:
		assert.JSONEq(t,
			`{"event":"dispatch","data":{"type":"refresh","payload":[{"uuid":"abc"}]}}`,
			string(raw))
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestEmitUpdateTransmitsNothing(t *testing.T) {
	url, frames := recordingSocket(t)
	c := connect(t, url)

	c.Emit("update", core.UpdatePatch{App: &core.AppPatch{Title: strPtr("Hijack")}})
	// A follow-up legitimate frame proves nothing was queued before it.
	c.Emit("refresh", nil)

	select {
	case raw := <-frames:
		var msg struct {
			Event string `json:"event"`
			Data  struct {
				Type string `json:"type"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "dispatch", msg.Event)
		assert.Equal(t, "refresh", msg.Data.Type, "the refused emit must not reach the wire")
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestPersistRefusesDispatchEvents(t *testing.T) {
	url, frames := recordingSocket(t)
	c := connect(t, url)

	c.Persist("refresh", nil)
	c.Persist("update", core.UpdatePatch{App: &core.AppPatch{Title: strPtr("ok")}})

	select {
	case raw := <-frames:
		var msg struct {
			Event string `json:"event"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "update", msg.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}
}

func TestUnsubscribeRemovesExactlyOneListener(t *testing.T) {
	s, url := startServer(t, core.ExtensionDescriptor{DevUUID: "abc", Surface: core.SurfaceCheckout})
	c := connect(t, url)

	first := make(chan json.RawMessage, 8)
	second := make(chan json.RawMessage, 8)
	unsubFirst := c.On("update", func(data json.RawMessage) { first <- data })
	c.On("update", func(data json.RawMessage) { second <- data })

	unsubFirst()
	s.Store().ApplyUpdate(core.UpdatePatch{App: &core.AppPatch{Title: strPtr("New Title")}})

	waitFor(t, second)
	select {
	case <-first:
		t.Fatal("unsubscribed listener was invoked")
	default:
	}
}

func TestDispatchEnvelopeUnwrappedToCommandName(t *testing.T) {
	s, url := startServer(t, core.ExtensionDescriptor{DevUUID: "abc", Surface: core.SurfaceCheckout})
	c := connect(t, url)
	refresh := eventChan(c, "refresh")

	require.NoError(t, s.Broadcaster().DispatchCommand("refresh", []map[string]string{{"uuid": "abc"}}))

	data := waitFor(t, refresh)
	var refs []core.Extension
	require.NoError(t, json.Unmarshal(data, &refs))
	require.Len(t, refs, 1)
	assert.Equal(t, "abc", refs[0].UUID)
}

func TestRemoteCloseAllowsRedial(t *testing.T) {
	// First connection is dropped by the server straight away; later
	// ones stay open and receive a dispatch frame.
	var mu sync.Mutex
	connections := 0
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		connections++
		first := connections == 1
		mu.Unlock()

		if first {
			conn.Close()
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"event":"dispatch","data":{"type":"refresh","payload":[]}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)

	c := connect(t, strings.Replace(ts.URL, "http", "ws", 1))
	refresh := eventChan(c, "refresh")

	require.Eventually(t, func() bool {
		return c.State() == StateDisconnected
	}, 2*time.Second, 10*time.Millisecond, "remote close must reset the connection state")

	// Re-dialing works and earlier subscriptions carry over.
	require.NoError(t, c.Connect())
	assert.Equal(t, StateConnected, c.State())
	waitFor(t, refresh)
}

func TestConnectIsIdempotentWhileOpen(t *testing.T) {
	_, url := startServer(t)
	c := connect(t, url)

	require.Equal(t, StateConnected, c.State())
	require.NoError(t, c.Connect())
	assert.Equal(t, StateConnected, c.State())
}

func TestCloseClearsListeners(t *testing.T) {
	s, url := startServer(t, core.ExtensionDescriptor{DevUUID: "abc", Surface: core.SurfaceCheckout})
	c := connect(t, url)

	stale := make(chan json.RawMessage, 8)
	c.On("update", func(data json.RawMessage) { stale <- data })

	c.Close()
	require.NoError(t, c.Connect())

	fresh := eventChan(c, "update")
	s.Store().ApplyUpdate(core.UpdatePatch{App: &core.AppPatch{Title: strPtr("Again")}})

	waitFor(t, fresh)
	select {
	case <-stale:
		t.Fatal("listener survived Close")
	default:
	}
}

func TestSurfaceFilterNarrowsConnectedSnapshot(t *testing.T) {
	_, url := startServer(t,
		core.ExtensionDescriptor{DevUUID: "co", Surface: core.SurfaceCheckout},
		core.ExtensionDescriptor{DevUUID: "adm", Surface: core.SurfaceAdmin},
	)

	c := connect(t, url, func(o *Options) {
		o.DeferConnect = true
		o.Surface = core.SurfaceCheckout
	})
	ch := eventChan(c, "connected")
	require.NoError(t, c.Connect())

	data := waitFor(t, ch)
	var snapshot struct {
		Extensions []core.Extension `json:"extensions"`
	}
	require.NoError(t, json.Unmarshal(data, &snapshot))
	require.Len(t, snapshot.Extensions, 1)
	assert.Equal(t, "co", snapshot.Extensions[0].UUID)
}

func boolPtr(b bool) *bool { return &b }

func TestHTTPOrigin(t *testing.T) {
	assert.Equal(t, "https://localhost:8081/extensions", HTTPOrigin("wss://localhost:8081/extensions"))
	assert.Equal(t, "http://localhost:8081/extensions", HTTPOrigin("ws://localhost:8081/extensions"))
	assert.Equal(t, "http://localhost:8081/extensions", HTTPOrigin("http://localhost:8081/extensions"))
}

func TestAPIClientFallback(t *testing.T) {
	s := server.New(server.Options{
		Session: testSession(),
		Descriptors: []core.ExtensionDescriptor{
			{DevUUID: "co", Surface: core.SurfaceCheckout},
			{DevUUID: "adm", Surface: core.SurfaceAdmin},
		},
		PublicDir: t.TempDir(),
	})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		api := NewAPIClient(ts.URL+"/extensions", "")
		body, err := api.Extensions(ctx)
		require.NoError(t, err)
		assert.Equal(t, "api-key", body.App.APIKey)
		assert.Equal(t, "3", body.Version)
		assert.Len(t, body.Extensions, 2)
	})

	t.Run("list filtered by surface", func(t *testing.T) {
		api := NewAPIClient(ts.URL+"/extensions", core.SurfaceAdmin)
		body, err := api.Extensions(ctx)
		require.NoError(t, err)
		require.Len(t, body.Extensions, 1)
		assert.Equal(t, "adm", body.Extensions[0].UUID)
	})

	t.Run("single extension", func(t *testing.T) {
		api := NewAPIClient(ts.URL+"/extensions", "")
		body, err := api.ExtensionByID(ctx, "co")
		require.NoError(t, err)
		assert.Equal(t, "co", body.Extension.UUID)
	})

	t.Run("unknown id surfaces the server message", func(t *testing.T) {
		api := NewAPIClient(ts.URL+"/extensions", "")
		_, err := api.ExtensionByID(ctx, "ghost")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Extension with id ghost not found")
	})
}
