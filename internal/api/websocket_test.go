package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/figure-editor/backend/internal/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, srv *httptest.Server, sid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + sid + "/events"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

// readEvent skips messages until an event of the given type arrives.
func readEvent(t *testing.T, ws *websocket.Conn, typ string) *session.Event {
	t.Helper()
	for i := 0; i < 50; i++ {
		msg := readMessage(t, ws)
		if msg.Type == MsgTypeEvent && msg.Event != nil && msg.Event.Type == typ {
			return msg.Event
		}
	}
	t.Fatalf("no %s event received", typ)
	return nil
}

func TestWebSocketEvents(t *testing.T) {
	h := newAPI(t, true)
	srv := httptest.NewServer(h.e)
	defer srv.Close()

	sid := h.createSession(t)
	ws := dialEvents(t, srv, sid)

	connected := readMessage(t, ws)
	assert.Equal(t, MsgTypeConnected, connected.Type)
	assert.Contains(t, string(connected.Payload), sid)

	h.addPanel(t, sid, 0, 0)
	ev := readEvent(t, ws, session.EventPanelAdded)
	payload, ok := ev.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), payload["index"])

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypePing, ID: "p1"}))
	for {
		msg := readMessage(t, ws)
		if msg.Type == MsgTypePong {
			assert.Equal(t, "p1", msg.ID)
			break
		}
	}

	require.NoError(t, ws.WriteJSON(WSMessage{Type: MsgTypeSnapshot, ID: "s1"}))
	for {
		msg := readMessage(t, ws)
		if msg.Type == MsgTypeState {
			assert.Equal(t, "s1", msg.ID)
			assert.Contains(t, string(msg.Payload), `"panels"`)
			break
		}
	}

	require.NoError(t, ws.WriteJSON(WSMessage{Type: "bogus", ID: "b1"}))
	for {
		msg := readMessage(t, ws)
		if msg.Type == MsgTypeError {
			assert.Equal(t, "b1", msg.ID)
			break
		}
	}
}

func TestWebSocketClosedWithSession(t *testing.T) {
	h := newAPI(t, true)
	srv := httptest.NewServer(h.e)
	defer srv.Close()

	sid := h.createSession(t)
	ws := dialEvents(t, srv, sid)
	assert.Equal(t, MsgTypeConnected, readMessage(t, ws).Type)

	require.NoError(t, h.mgr.Close(sid))
	readEvent(t, ws, session.EventClosed)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}

func TestWebSocketUnknownSession(t *testing.T) {
	h := newAPI(t, true)
	srv := httptest.NewServer(h.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/nope/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventsWithoutUpgradeWritesOneResponse(t *testing.T) {
	h := newAPI(t, true)
	sid := h.createSession(t)

	rec := h.request(t, http.MethodGet, "/api/sessions/"+sid+"/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"code"`)
	assert.Contains(t, rec.Body.String(), http.StatusText(http.StatusBadRequest))
}
