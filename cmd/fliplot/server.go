// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	fl "github.com/raczben/fliplot-sub000"
	"github.com/raczben/fliplot-sub000/vcd"
	"github.com/raczben/fliplot-sub000/waveform"
)

// server serves a single loaded trace over HTTP. Decoding values fills the
// per change caches, so all access to the trace is serialized by mu.
type server struct {
	a *app

	mu   sync.Mutex
	db   *fl.SimDB
	rows *waveform.DB
	name string

	subMu sync.Mutex
	subs  map[chan traceResponse]struct{}

	reg           *prometheus.Registry
	requests      *prometheus.CounterVec
	parses        *prometheus.CounterVec
	parseDuration prometheus.Histogram
	signals       prometheus.Gauge
}

func newServer(a *app) *server {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &server{
		a:    a,
		subs: make(map[chan traceResponse]struct{}),
		reg:  reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fliplot_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		parses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fliplot_vcd_parses_total",
			Help: "VCD uploads by result.",
		}, []string{"result"}),
		parseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fliplot_vcd_parse_duration_seconds",
			Help:    "Time spent parsing uploaded VCD files.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		signals: f.NewGauge(prometheus.GaugeOpts{
			Name: "fliplot_signals",
			Help: "Number of signals in the loaded trace.",
		}),
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Line  int    `json:"line,omitempty"`
}

type traceResponse struct {
	Name      string `json:"name"`
	Timescale string `json:"timescale"`
	Now       int64  `json:"now"`
	Signals   int    `json:"signals"`
}

type signalResponse struct {
	Path  string `json:"path"`
	Type  string `json:"type"`
	Width int    `json:"width"`
	Len   int    `json:"changes"`
}

type valueResponse struct {
	Path  string `json:"path"`
	Time  int64  `json:"time"`
	Radix string `json:"radix"`
	Value string `json:"value"`
}

type waveItemResponse struct {
	Kind     string   `json:"kind"`
	Index    int      `json:"index"`
	Time     int64    `json:"time"`
	Value    string   `json:"value"`
	MinTime  int64    `json:"min_time,omitempty"`
	MaxTime  int64    `json:"max_time,omitempty"`
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
}

// finite returns nil for values JSON cannot represent.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newTraceResponse(name string, db *fl.SimDB) traceResponse {
	return traceResponse{Name: name, Timescale: db.Timescale, Now: db.Now, Signals: len(db.AllSignals())}
}

// set replaces the served trace and notifies event subscribers.
func (s *server) set(name string, db *fl.SimDB) error {
	rows := waveform.New(db, waveform.WithLogger(s.a.log), waveform.WithDefaultRadix(s.a.cfg.Display.Radix))
	if _, err := rows.AddAll(true); err != nil {
		return err
	}
	s.mu.Lock()
	s.db, s.rows, s.name = db, rows, name
	s.mu.Unlock()
	s.signals.Set(float64(len(db.AllSignals())))
	s.broadcast(newTraceResponse(name, db))
	return nil
}

// subscribe registers a channel receiving a message each time the trace is
// replaced. The channel is closed by the returned cancel function or by
// close.
func (s *server) subscribe() (<-chan traceResponse, func()) {
	ch := make(chan traceResponse, 4)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *server) broadcast(ev traceResponse) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.a.log.Debug("event dropped for slow subscriber", "trace", ev.Name)
		}
	}
}

// close disconnects all event subscribers.
func (s *server) close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.instrument)
	r.POST("/parse-vcd", s.handleParse)
	r.GET("/signals", s.handleSignals)
	r.GET("/value", s.handleValue)
	r.GET("/rows", s.handleRows)
	r.GET("/waves", s.handleWaves)
	r.GET("/events", s.handleEvents)
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})))
	return r
}

func (s *server) instrument(c *gin.Context) {
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	s.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	s.a.log.Debug("request", "method", c.Request.Method, "route", route, "status", c.Writer.Status(), "elapsed", time.Since(start))
}

func (s *server) handleParse(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		name = "upload.vcd"
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.a.cfg.Server.MaxUploadBytes)
	start := time.Now()
	t, err := s.a.parser().Parse(body)
	s.parseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.parses.WithLabelValues("error").Inc()
		resp := errorResponse{Error: err.Error()}
		code := http.StatusBadRequest
		var pe *vcd.ParseError
		var me *http.MaxBytesError
		switch {
		case errors.As(err, &pe):
			resp.Line = pe.Line
		case errors.As(err, &me):
			code = http.StatusRequestEntityTooLarge
		}
		c.JSON(code, resp)
		return
	}
	db, err := s.a.build(t)
	if err == nil {
		err = s.set(name, db)
	}
	if err != nil {
		s.parses.WithLabelValues("error").Inc()
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	s.parses.WithLabelValues("ok").Inc()
	s.a.log.Info("trace loaded", "name", name, "now", db.Now)
	c.JSON(http.StatusOK, newTraceResponse(name, db))
}

// loaded returns the current database or writes a 404 response.
func (s *server) loaded(c *gin.Context) (*fl.SimDB, *waveform.DB, bool) {
	if s.db == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no trace loaded"})
		return nil, nil, false
	}
	return s.db, s.rows, true
}

func (s *server) handleSignals(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, _, ok := s.loaded(c)
	if !ok {
		return
	}
	sigs := db.AllSignals()
	out := make([]signalResponse, len(sigs))
	for i, o := range sigs {
		out[i] = signalResponse{Path: o.Path(), Type: o.Signal.Type, Width: o.Width(), Len: o.Signal.Len()}
	}
	c.JSON(http.StatusOK, out)
}

func (s *server) handleValue(c *gin.Context) {
	t, err := parseTime(c.Query("time"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	r, prefix, err := s.a.radix(c.Query("radix"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db, _, ok := s.loaded(c)
	if !ok {
		return
	}
	path := c.Query("path")
	o, err := lookup(db, path)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	resp := valueResponse{Path: o.Path(), Time: t, Radix: r.String(), Value: waveform.NA}
	if v, err := o.ValueAt(t, r); err == nil {
		resp.Value = prefix + v.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleRows(c *gin.Context) {
	t, err := parseTime(c.DefaultQuery("time", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, rows, ok := s.loaded(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rows.ValuesAt(t))
}

// handleWaves returns the drawable items of a signal over [from, to]. A
// positive scale, in pixels per time unit, enables zoom compression.
func (s *server) handleWaves(c *gin.Context) {
	r, prefix, err := s.a.radix(c.Query("radix"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	scale, err := strconv.ParseFloat(c.DefaultQuery("scale", "0"), 64)
	if err != nil || scale < 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid scale " + strconv.Quote(c.Query("scale"))})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	db, _, ok := s.loaded(c)
	if !ok {
		return
	}
	q := fl.WaveQuery{
		Scale: scale,
		Now:   db.Now,
		Radix: r,
		Zoom:  fl.Zoom{Changes: s.a.cfg.Zoom.Changes, Pixels: s.a.cfg.Zoom.Pixels},
	}
	if q.From, err = parseTime(c.DefaultQuery("from", "0")); err == nil {
		q.To, err = parseTime(c.DefaultQuery("to", strconv.FormatInt(db.Now, 10)))
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	o, err := lookup(db, c.Query("path"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	items := o.Signal.Waves(q).Items()
	out := make([]waveItemResponse, len(items))
	for i, it := range items {
		out[i] = waveItemResponse{Kind: it.Kind.String(), Index: it.Index, Time: it.Time, Value: prefix + it.Value.String()}
		if it.Kind == fl.ZoomCompressed {
			out[i].MinTime, out[i].MaxTime = it.MinTime, it.MaxTime
			out[i].MinValue, out[i].MaxValue = finite(it.MinValue), finite(it.MaxValue)
		}
	}
	c.JSON(http.StatusOK, out)
}

const eventWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024}

// handleEvents streams a trace description over a websocket each time the
// served trace is replaced, starting with the current one if any.
func (s *server) handleEvents(c *gin.Context) {
	events, cancel := s.subscribe()
	defer cancel()
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.a.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	// clients only send close frames
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev traceResponse) bool {
		_ = ws.SetWriteDeadline(time.Now().Add(eventWriteWait))
		if err := ws.WriteJSON(ev); err != nil {
			s.a.log.Debug("websocket write failed", "err", err)
			return false
		}
		return true
	}
	s.mu.Lock()
	db, name := s.db, s.name
	var cur traceResponse
	if db != nil {
		cur = newTraceResponse(name, db)
	}
	s.mu.Unlock()
	if db != nil && !send(cur) {
		return
	}
	for {
		select {
		case <-gone:
			return
		case ev, ok := <-events:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
					time.Now().Add(eventWriteWait))
				return
			}
			if !send(ev) {
				return
			}
		}
	}
}

func (s *server) handleHealth(c *gin.Context) {
	s.mu.Lock()
	name := s.name
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "trace": name})
}
