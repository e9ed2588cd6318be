package surface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/render"
)

const (
	// clientBuffer is how many encoded frames may queue per viewer before
	// frames are dropped for it.
	clientBuffer = 2
	writeTimeout = 5 * time.Second
)

type StreamOptions struct {
	// Addr is the HTTP listen address; ":0" picks a free port.
	Addr          string
	Width, Height int
	FPS           float64
	MaxFrames     int
	Metrics       *observability.RenderCollector
	Log           logging.Logger
}

// ResizeMessage is the JSON text message a viewer sends to change the
// drawable size.
type ResizeMessage struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Stream serves rendered frames as binary PNG websocket messages on /stream
// and Prometheus metrics on /metrics.
type Stream struct {
	window

	limiter  *rate.Limiter
	metrics  *observability.RenderCollector
	log      logging.Logger
	upgrader websocket.Upgrader
	encoder  png.Encoder

	ln  net.Listener
	srv *http.Server

	clientsMu sync.Mutex
	clients   map[*streamClient]struct{}

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewStream starts listening immediately so callers can learn the bound
// address before the first frame.
func NewStream(opts StreamOptions) (*Stream, error) {
	log := opts.Log
	if log == nil {
		log = logging.Noop()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &Stream{
		window:  newWindow(opts.Width, opts.Height, opts.MaxFrames),
		limiter: newLimiter(opts.FPS),
		metrics: opts.Metrics,
		log:     log.With(logging.String("surface", "stream")),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
		ln:      ln,
		clients: make(map[*streamClient]struct{}),
		done:    make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/stream", s.handleStream)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "stream server stopped", logging.Err(err))
		}
	}()
	s.log.Info(context.Background(), "frame stream listening", logging.String("addr", ln.Addr().String()))
	return s, nil
}

// Addr returns the bound listen address.
func (s *Stream) Addr() string { return s.ln.Addr().String() }

// ClientCount returns the number of connected viewers.
func (s *Stream) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

func (s *Stream) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}
	c := &streamClient{conn: conn, send: make(chan []byte, clientBuffer)}

	s.clientsMu.Lock()
	select {
	case <-s.done:
		s.clientsMu.Unlock()
		_ = conn.Close()
		return
	default:
	}
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.clientsMu.Unlock()

	s.metrics.SetStreamClients(n)
	s.log.Info(r.Context(), "stream client connected",
		logging.String("remote", r.RemoteAddr),
		logging.Int("clients", n),
	)

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop consumes viewer messages until the connection fails.
func (s *Stream) readLoop(c *streamClient) {
	defer s.removeClient(c)
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		var msg ResizeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Debug(context.Background(), "ignoring malformed viewer message", logging.Err(err))
			continue
		}
		s.RequestResize(msg.Width, msg.Height)
	}
}

func (s *Stream) writeLoop(c *streamClient) {
	defer s.removeClient(c)
	for frame := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}

func (s *Stream) removeClient(c *streamClient) {
	c.once.Do(func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		n := len(s.clients)
		close(c.send)
		s.clientsMu.Unlock()

		_ = c.conn.Close()
		s.metrics.SetStreamClients(n)
	})
}

// Present encodes fb once and hands it to every viewer without blocking;
// viewers that are behind miss the frame.
func (s *Stream) Present(ctx context.Context, fb *render.Framebuffer) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	s.countFrame()

	if fb == nil || s.ClientCount() == 0 || fb.Image().Bounds().Empty() {
		return nil
	}
	var buf bytes.Buffer
	if err := s.encoder.Encode(&buf, fb.Image()); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	frame := buf.Bytes()

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- frame:
		default:
			s.metrics.IncDroppedFrames()
		}
	}
	return nil
}

// Close stops the HTTP server and disconnects every viewer.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.clientsMu.Lock()
		close(s.done)
		clients := make([]*streamClient, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		s.clientsMu.Unlock()

		s.RequestClose()
		for _, c := range clients {
			s.removeClient(c)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			s.closeErr = fmt.Errorf("shutdown stream server: %w", err)
		}
	})
	return s.closeErr
}
