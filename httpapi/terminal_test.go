package httpapi

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"pkt.systems/ctrconsole/internal/channel/channeltest"
)

func dialTerminal(t *testing.T, url, id string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/api/containers/" + id + "/terminal"
	conn, err := websocket.Dial(wsURL, "", "http://localhost/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readUntil(t *testing.T, conn *websocket.Conn, want string) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var all strings.Builder
	for !strings.Contains(all.String(), want) {
		var msg string
		require.NoError(t, websocket.Message.Receive(conn, &msg), "got so far %q", all.String())
		all.WriteString(msg)
	}
	return all.String()
}

func (f *fakeEngine) waitChannel(t *testing.T) *channeltest.Fake {
	t.Helper()
	var ch *channeltest.Fake
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		if len(f.channels) == 0 {
			return false
		}
		ch = f.channels[0]
		return true
	}, 2*time.Second, 5*time.Millisecond)
	return ch
}

func TestTerminalWebsocket(t *testing.T) {
	eng := newFakeEngine()
	ts := newTestServer(t, eng)
	conn := dialTerminal(t, ts.URL, "web")

	resize, err := json.Marshal(resizeFrame{Width: 1140, CellWidth: 10})
	require.NoError(t, err)
	require.NoError(t, websocket.Message.Send(conn, append([]byte{frameResize}, resize...)))

	ch := eng.waitChannel(t)
	require.Eventually(t, func() bool {
		eng.mu.Lock()
		defer eng.mu.Unlock()
		return len(eng.resizes) > 0 && eng.resizes[len(eng.resizes)-1] == 100
	}, 2*time.Second, 5*time.Millisecond, "remote resized from pixel width")

	ch.Deliver([]byte("HTTP/1.0 200 OK\r\n\r\nwelcome"))
	out := readUntil(t, conn, "welcome")
	assert.NotContains(t, out, "HTTP/1.0")

	require.NoError(t, websocket.Message.Send(conn, append([]byte{frameInput}, "id\r"...)))
	require.Eventually(t, func() bool { return strings.HasSuffix(ch.SentString(), "id\r") }, 2*time.Second, 5*time.Millisecond)

	ch.Hangup(nil)
	readUntil(t, conn, "disconnected")
}

func TestTerminalUnknownContainer(t *testing.T) {
	ts := newTestServer(t, newFakeEngine())
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/containers/ghost/terminal"
	_, err := websocket.Dial(wsURL, "", "http://localhost/")
	assert.Error(t, err)
}

func TestEnqueueWidthKeepsLatest(t *testing.T) {
	ch := make(chan float64, 1)
	enqueueWidth(ch, 1)
	enqueueWidth(ch, 2)
	assert.Equal(t, 2.0, <-ch)
}
