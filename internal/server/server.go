package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/lotas/tabhost/internal/applog"
	"github.com/lotas/tabhost/internal/lifecycle"
	"github.com/lotas/tabhost/internal/navigate"
)

// Reply answers a Command.
type Reply struct {
	ID      string       `json:"id"`
	OK      bool         `json:"ok"`
	Error   string       `json:"error,omitempty"`
	Window  string       `json:"window,omitempty"`
	Tab     string       `json:"tab,omitempty"`
	Windows []wireWindow `json:"windows,omitempty"`
}

// eventMsg is pushed to the client for every state change.
type eventMsg struct {
	Type  string          `json:"type"`
	Event lifecycle.Event `json:"event"`
}

// Server is the local control bridge. It runs commands against the
// manager and forwards its events to the connected client.
type Server struct {
	port   int
	m      *lifecycle.Manager
	events chan lifecycle.Event

	mu   sync.Mutex
	conn *websocket.Conn
}

// New creates a Server. Port 0 means the caller manages the listener.
func New(port int, m *lifecycle.Manager) *Server {
	return &Server{
		port:   port,
		m:      m,
		events: make(chan lifecycle.Event, 256),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Connected reports whether a client is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Notify queues ev for the connected client. It runs on the manager loop,
// so events are dropped rather than blocking when the queue is full or no
// client is connected.
func (s *Server) Notify(ev lifecycle.Event) {
	if !s.Connected() {
		return
	}
	select {
	case s.events <- ev:
	default:
		applog.Info("ws.event.dropped", "type", string(ev.Type))
	}
}

func (s *Server) send(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Execute runs cmd on the manager loop and returns the reply.
func (s *Server) Execute(ctx context.Context, cmd Command) Reply {
	reply := Reply{ID: cmd.ID}
	var err error
	doErr := s.m.Loop().Do(ctx, func() {
		err = s.apply(cmd, &reply)
	})
	if doErr != nil {
		err = doErr
	}
	if err != nil {
		reply.Error = err.Error()
		applog.Error("ws.command", err, "action", cmd.Action, "id", cmd.ID)
		return reply
	}
	reply.OK = true
	return reply
}

// apply runs on the loop.
func (s *Server) apply(cmd Command, reply *Reply) error {
	switch cmd.Action {
	case ActionOpenTab:
		w, err := s.m.WindowByID(cmd.Window)
		if err != nil {
			return err
		}
		t, err := s.m.OpenTab(w, s.resolve(cmd.URL), "", cmd.Private || w.Private)
		if err != nil {
			return err
		}
		reply.Window, reply.Tab = w.ID, t.ID
	case ActionCloseTab:
		return s.m.CloseTabByID(cmd.Tab)
	case ActionSwitchTab:
		w, err := s.m.WindowByID(cmd.Window)
		if err != nil {
			return err
		}
		if err := s.m.SwitchTab(w, *cmd.Index); err != nil {
			return err
		}
		reply.Window = w.ID
	case ActionNavigate:
		t, err := s.m.TabByID(cmd.Tab)
		if err != nil {
			return err
		}
		if err := s.m.Navigate(t, cmd.URL); err != nil {
			return err
		}
		reply.Tab = t.ID
	case ActionNewWindow:
		var (
			w   *lifecycle.Window
			err error
		)
		if cmd.URL != "" {
			w, err = s.m.OpenWindowWithURLs([]string{s.resolve(cmd.URL)}, 0, cmd.Private)
		} else {
			w, err = s.m.SpawnWindow(cmd.Private)
		}
		if err != nil {
			return err
		}
		reply.Window = w.ID
		if t := w.ActiveTab(); t != nil {
			reply.Tab = t.ID
		}
	case ActionList:
		reply.Windows = toWire(s.m.Snapshot())
	default:
		return fmt.Errorf("%w: unknown action %q", ErrBadCommand, cmd.Action)
	}
	return nil
}

// resolve turns address-bar input into a loadable URL. Empty input stays
// empty so the homepage is used.
func (s *Server) resolve(input string) string {
	if target, _, ok := navigate.Resolve(input, s.m.Settings().SearchEngine()); ok {
		return target
	}
	return ""
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"127.0.0.1:*", "localhost:*"},
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced")
			s.conn.CloseNow()
		}
		s.conn = conn
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			cancel()
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		go s.pumpEvents(ctx, conn)

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			cmd, err := ParseCommand(data)
			var reply Reply
			if err != nil {
				applog.Error("ws.parse", err)
				reply = Reply{ID: cmd.ID, Error: err.Error()}
			} else {
				applog.Info("ws.recv", "action", cmd.Action, "id", cmd.ID)
				reply = s.Execute(ctx, cmd)
			}
			if err := s.send(ctx, conn, reply); err != nil {
				return
			}
		}
	})
}

func (s *Server) pumpEvents(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			if err := s.send(ctx, conn, eventMsg{Type: "event", Event: ev}); err != nil {
				return
			}
		}
	}
}

// ListenAndServe starts the bridge on 127.0.0.1 at the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
