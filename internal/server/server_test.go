package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flavioheleno/tftlcd"
	"github.com/flavioheleno/tftlcd/internal/script"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newServer(t *testing.T) (*httptest.Server, *i2ctest.Record) {
	t.Helper()
	rec := &i2ctest.Record{}
	dev, err := tftlcd.NewI2C(rec, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(New(dev, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, rec
}

func opcodes(t *testing.T, rec *i2ctest.Record) []tftlcd.Opcode {
	t.Helper()
	rec.Lock()
	defer rec.Unlock()
	ops := make([]tftlcd.Opcode, 0, len(rec.Ops))
	for _, op := range rec.Ops {
		f, err := tftlcd.ParseFrame(op.W)
		require.NoError(t, err)
		ops = append(ops, f.Opcode())
	}
	return ops
}

func wsURL(base string) string {
	return "ws" + strings.TrimPrefix(base, "http") + "/ws"
}

func post(t *testing.T, ts *httptest.Server, body string) (int, map[string]any) {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+"/api/commands", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestStatus(t *testing.T) {
	t.Parallel()

	ts, _ := newServer(t)
	resp, err := ts.Client().Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var st statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "v2", st.Protocol)
	assert.True(t, strings.HasPrefix(st.Device, "tftlcd.Dev{"), st.Device)
}

func TestCommandsSingle(t *testing.T) {
	t.Parallel()

	ts, rec := newServer(t)
	status, out := post(t, ts, `{"op":"clear"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, []tftlcd.Opcode{tftlcd.OpClearScreen}, opcodes(t, rec))
}

func TestCommandsArray(t *testing.T) {
	t.Parallel()

	ts, rec := newServer(t)
	status, _ := post(t, ts, `[
		{"op":"backlight","on":true},
		{"op":"text","line":2,"text":"hello"},
		{"op":"pie","parts":[{"value":3,"label":"a"}]}
	]`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []tftlcd.Opcode{
		tftlcd.OpSetBacklight,
		tftlcd.OpChangeLine,
		tftlcd.OpDrawString,
		tftlcd.OpDrawPieChart,
	}, opcodes(t, rec))
}

func TestCommandsBadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, body string
	}{
		{"empty", ""},
		{"not json", "clear"},
		{"unknown field", `{"op":"clear","colour":1}`},
		{"unknown op", `{"op":"blink"}`},
		{"out of range", `{"op":"progress","percent":150}`},
		{"invalid in array", `[{"op":"clear"},{"op":"line","line":0}]`},
		{"trailing data", `{"op":"clear"} junk`},
		{"second value", `[{"op":"clear"}] {"op":"clear"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts, rec := newServer(t)
			status, out := post(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "error", out["status"])
			assert.NotEmpty(t, out["error"])
			assert.Empty(t, opcodes(t, rec))
		})
	}
}

type failConn struct{}

func (failConn) String() string       { return "failConn" }
func (failConn) Tx(w, r []byte) error { return errors.New("nack") }
func (failConn) Duplex() conn.Duplex  { return conn.Half }

func TestCommandsTransportError(t *testing.T) {
	t.Parallel()

	dev, err := tftlcd.NewConn(failConn{}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(New(dev, nil).Handler())
	defer ts.Close()

	status, out := post(t, ts, `{"op":"clear"}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, out["error"], "nack")
}

func TestCORS(t *testing.T) {
	t.Parallel()

	ts, _ := newServer(t)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/commands", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocket(t *testing.T) {
	t.Parallel()

	ts, rec := newServer(t)
	c, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer c.Close()

	exchange := func(msg string) wsReply {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(msg)))
		var reply wsReply
		require.NoError(t, c.ReadJSON(&reply))
		return reply
	}

	assert.Equal(t, wsReply{OK: true}, exchange(`{"op":"pen","color":16711680}`))
	assert.Equal(t, wsReply{OK: true}, exchange(`{"op":"circle","x":10,"y":10,"r":5,"fill":true}`))

	bad := exchange(`{"op":"line","line":12}`)
	assert.False(t, bad.OK)
	assert.NotEmpty(t, bad.Error)

	garbage := exchange(`not json`)
	assert.False(t, garbage.OK)

	twice := exchange(`{"op":"clear"} {"op":"clear"}`)
	assert.False(t, twice.OK)

	assert.Equal(t, []tftlcd.Opcode{tftlcd.OpSetPenColor, tftlcd.OpDrawCircle}, opcodes(t, rec))
}

func TestServeShutdown(t *testing.T) {
	t.Parallel()

	dev, err := tftlcd.NewI2C(&i2ctest.Record{}, nil)
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(dev, &Options{CORSOrigins: []string{"http://localhost"}}).Serve(ctx, ln)
	}()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, statusFor(script.ErrInvalid))
	assert.Equal(t, http.StatusBadRequest, statusFor(tftlcd.ErrOutOfRange))
	assert.Equal(t, http.StatusBadRequest, statusFor(tftlcd.ErrFrameTooLong))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusBadGateway, statusFor(errors.New("nack")))
}

func TestWebSocketOrigin(t *testing.T) {
	t.Parallel()

	rec := &i2ctest.Record{}
	dev, err := tftlcd.NewI2C(rec, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(New(dev, &Options{CORSOrigins: []string{"http://dash.local"}}).Handler())
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), http.Header{"Origin": {"http://evil.example"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), http.Header{"Origin": {"http://dash.local"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"op":"clear"}`)))
	var reply wsReply
	require.NoError(t, c.ReadJSON(&reply))
	assert.True(t, reply.OK)
	require.NoError(t, c.Close())

	// Clients outside a browser send no Origin.
	c, resp, err = websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, c.Close())

	assert.Equal(t, []tftlcd.Opcode{tftlcd.OpClearScreen}, opcodes(t, rec))
}

func TestCheckOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		origins []string
		origin  string
		want    bool
	}{
		{nil, "http://anything", true},
		{[]string{"*"}, "http://anything", true},
		{[]string{"http://dash.local"}, "http://dash.local", true},
		{[]string{"http://dash.local"}, "HTTP://DASH.LOCAL", true},
		{[]string{"http://dash.local"}, "http://evil.example", false},
		{[]string{"http://dash.local"}, "", true},
	}

	for _, tt := range tests {
		s := New(nil, &Options{CORSOrigins: tt.origins})
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, s.checkOrigin(r), "origins %v, origin %q", tt.origins, tt.origin)
	}
}

func TestWebSocketDisconnectReleasesDisplay(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	rec := &i2ctest.Record{}
	dev, err := tftlcd.NewI2C(rec, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(New(dev, &Options{Clock: clock}).Handler())
	defer ts.Close()

	c, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"op":"wait","ms":60000}`)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	// Leave mid-wait; the display must be free again without the clock moving.
	require.NoError(t, c.Close())

	ts.Client().Timeout = 5 * time.Second
	status, out := post(t, ts, `{"op":"clear"}`)
	assert.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, []tftlcd.Opcode{tftlcd.OpClearScreen}, opcodes(t, rec))
}

func TestServeShutdownEndsWebSocket(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	dev, err := tftlcd.NewI2C(&i2ctest.Record{}, nil)
	require.NoError(t, err)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(dev, &Options{Clock: clock}).Serve(ctx, ln)
	}()

	c, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer c.Close()
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"op":"wait","ms":60000}`)))

	bctx, bcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer bcancel()
	require.NoError(t, clock.BlockUntilContext(bctx, 1))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	// The wait is cut short and the session closed.
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply wsReply
	require.NoError(t, c.ReadJSON(&reply))
	assert.False(t, reply.OK)
	_, _, err = c.ReadMessage()
	require.Error(t, err)
}

func TestWebSocketReadLimit(t *testing.T) {
	t.Parallel()

	ts, rec := newServer(t)
	c, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL), nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer c.Close()

	big := `{"op":"text","text":"` + strings.Repeat("x", maxMessageSize) + `"}`
	// The server may hang up before the whole message is written.
	_ = c.WriteMessage(websocket.TextMessage, []byte(big))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = c.ReadMessage()
	require.Error(t, err)
	assert.Empty(t, opcodes(t, rec))
}
