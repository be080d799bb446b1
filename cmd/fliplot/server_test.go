package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/internal/config"
	"github.com/raczben/fliplot-sub000/waveform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a := &app{cfg: config.Default(), log: slog.New(slog.NewTextHandler(io.Discard, nil)), out: io.Discard}
	s := newServer(a)
	return s, s.routes()
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_noTrace(t *testing.T) {
	_, r := newTestServer(t)

	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"status": "ok", "trace": ""}, decode[map[string]string](t, w))

	for _, target := range []string{"/signals", "/value?path=top.clk&time=0", "/rows"} {
		w = do(r, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Equal(t, "no trace loaded", decode[errorResponse](t, w).Error, target)
	}
}

func TestServer_parse(t *testing.T) {
	_, r := newTestServer(t)

	w := do(r, http.MethodPost, "/parse-vcd?name=test.vcd", testVCD)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, traceResponse{Name: "test.vcd", Timescale: "1ns", Now: 30, Signals: 3}, decode[traceResponse](t, w))

	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, "test.vcd", decode[map[string]string](t, w)["trace"])

	w = do(r, http.MethodPost, "/parse-vcd", "$comment hi $end\n$var wire w ! a $end\n")
	require.Equal(t, http.StatusBadRequest, w.Code)
	e := decode[errorResponse](t, w)
	assert.Equal(t, 2, e.Line)
	assert.NotEmpty(t, e.Error)

	// a failed upload keeps the previous trace
	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, "test.vcd", decode[map[string]string](t, w)["trace"])
}

func TestServer_tooLarge(t *testing.T) {
	s, r := newTestServer(t)
	// the limit falls at the end of the first line
	s.a.cfg.Server.MaxUploadBytes = int64(len("$timescale 1ns $end\n"))
	w := do(r, http.MethodPost, "/parse-vcd", testVCD)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_queries(t *testing.T) {
	_, r := newTestServer(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/parse-vcd", testVCD).Code)

	w := do(r, http.MethodGet, "/signals", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []signalResponse{
		{Path: "top.clk", Type: "wire", Width: 1, Len: 4},
		{Path: "top.data", Type: "wire", Width: 8, Len: 3},
		{Path: "top.en", Type: "wire", Width: 1, Len: 2},
	}, decode[[]signalResponse](t, w))

	w = do(r, http.MethodGet, "/value?path=top.data&time=15&radix=hex", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, valueResponse{Path: "top.data", Time: 15, Radix: "hex", Value: "0xa5"}, decode[valueResponse](t, w))

	w = do(r, http.MethodGet, "/value?path=top.data&time=25&radix=s0", "")
	assert.Equal(t, "-1", decode[valueResponse](t, w).Value)

	w = do(r, http.MethodGet, "/value?path=top.nope&time=0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(r, http.MethodGet, "/value?path=top.data&time=soon", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodGet, "/value?path=top.data&time=0&radix=octal", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/rows?time=15", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]waveform.RowValue](t, w)
	require.Len(t, rows, 3)
	got := make(map[string]string)
	for _, rv := range rows {
		got[rv.Name] = rv.Value
	}
	assert.Equal(t, map[string]string{"top.clk": "1", "top.data[7:0]": "0b10100101", "top.en": "1"}, got)
}

func TestServer_metrics(t *testing.T) {
	_, r := newTestServer(t)
	do(r, http.MethodPost, "/parse-vcd", testVCD)
	do(r, http.MethodGet, "/signals", "")

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `fliplot_vcd_parses_total{result="ok"} 1`)
	assert.Contains(t, body, "fliplot_signals 3")
	assert.Contains(t, body, `fliplot_http_requests_total{code="200",route="/signals"} 1`)
	assert.Contains(t, body, "fliplot_vcd_parse_duration_seconds_count 1")
}

func TestServer_waves(t *testing.T) {
	s, r := newTestServer(t)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/parse-vcd", testVCD).Code)

	w := do(r, http.MethodGet, "/waves?path=top.clk&to=15&radix=u", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []waveItemResponse{
		{Kind: fl.Native.String(), Index: 0, Time: 0, Value: "0"},
		{Kind: fl.Native.String(), Index: 1, Time: 10, Value: "1"},
		{Kind: fl.Native.String(), Index: 2, Time: 20, Value: "0"},
	}, decode[[]waveItemResponse](t, w))

	s.a.cfg.Zoom.Changes = 2
	w = do(r, http.MethodGet, "/waves?path=top.clk&radix=u&scale=0.2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	items := decode[[]waveItemResponse](t, w)
	require.Len(t, items, 3)
	zero, one := 0.0, 1.0
	assert.Equal(t, waveItemResponse{Kind: fl.ZoomCompressed.String(), Index: 0, Time: 0, Value: "0", MinTime: 0, MaxTime: 20, MinValue: &zero, MaxValue: &one}, items[0])
	assert.Equal(t, waveItemResponse{Kind: fl.Native.String(), Index: 3, Time: 30, Value: "1"}, items[1])
	assert.Equal(t, waveItemResponse{Kind: fl.PhantomNow.String(), Index: 4, Time: 30, Value: "1"}, items[2])

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/waves?path=top.clk&scale=-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/waves?path=top.nope", "").Code)
}

func dialEvents(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) traceResponse {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev traceResponse
	require.NoError(t, ws.ReadJSON(&ev))
	return ev
}

func TestServer_events(t *testing.T) {
	s, r := newTestServer(t)
	ts := httptest.NewServer(r)
	defer ts.Close()

	ws := dialEvents(t, ts)
	resp, err := http.Post(ts.URL+"/parse-vcd?name=live.vcd", "text/plain", strings.NewReader(testVCD))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, traceResponse{Name: "live.vcd", Timescale: "1ns", Now: 30, Signals: 3}, readEvent(t, ws))

	// late subscribers get the current trace first
	late := dialEvents(t, ts)
	assert.Equal(t, "live.vcd", readEvent(t, late).Name)

	s.close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestServer_watchTrace(t *testing.T) {
	s, r := newTestServer(t)
	s.a.cfg.Watch.Debounce = 20 * time.Millisecond
	ts := httptest.NewServer(r)
	defer ts.Close()
	ws := dialEvents(t, ts)

	name := writeVCD(t, testVCD)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.a.watchTrace(ctx, s, name) }()

	ev := readEvent(t, ws)
	assert.Equal(t, name, ev.Name)
	assert.Equal(t, int64(30), ev.Now)

	require.NoError(t, os.WriteFile(name, []byte(testVCD+"#40\n0!\n"), 0o644))
	for ev.Now != 40 {
		ev = readEvent(t, ws)
	}
	w := do(r, http.MethodGet, "/value?path=top.clk&time=45&radix=u", "")
	assert.Equal(t, "0", decode[valueResponse](t, w).Value)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}
}
