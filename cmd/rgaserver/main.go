// Command rgaserver hosts a single RGA replica behind a WebSocket relay
// so browser clients can edit one shared document collaboratively.
//
// Clients connect to /ws, receive a snapshot of every stored node, and
// then a stream of node records as edits arrive. Edits are submitted as
// JSON messages ({"type":"insert",...} / {"type":"delete",...}) and applied
// to the server replica. An inserted node is broadcast to every session,
// the sender included; a tombstoned node goes to every other session.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	rga "github.com/cshekharsharma/go-rga"
)

const (
	msgSnapshot = "snapshot"
	msgNode     = "node"
	msgError    = "error"

	msgInsert = "insert"
	msgDelete = "delete"

	writeWait       = 10 * time.Second
	sendBufferSize  = 64
	shutdownTimeout = 5 * time.Second
)

// clientMessage is an edit submitted over the socket.
type clientMessage struct {
	Type  string `json:"type"`
	After rga.ID `json:"after,omitempty"`
	ID    rga.ID `json:"id,omitempty"`
	Char  string `json:"char,omitempty"`
}

// serverMessage is pushed to sessions: a join snapshot, a replicated
// node, or an error echoed back to the offending client.
type serverMessage struct {
	Type  string     `json:"type"`
	Nodes []rga.Node `json:"nodes,omitempty"`
	Node  *rga.Node  `json:"node,omitempty"`
	Error string     `json:"error,omitempty"`
}

// session is one connected editor.
type session struct {
	conn *websocket.Conn
	send chan []byte
}

func (s *session) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (s *session) push(msg serverMessage) bool {
	b, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	select {
	case s.send <- b:
		return true
	default:
		// The session stopped draining; drop it rather than stall the
		// broadcast path.
		return false
	}
}

// server owns the shared replica and the set of live sessions.
type server struct {
	doc      *rga.RGA
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
}

func newServer(doc *rga.RGA, log *zap.Logger) *server {
	return &server{
		doc: doc,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sessions: make(map[*session]struct{}),
	}
}

func (sv *server) join(s *session) {
	sv.mu.Lock()
	sv.sessions[s] = struct{}{}
	n := len(sv.sessions)
	sv.mu.Unlock()
	sv.log.Info("session joined", zap.Int("sessions", n))
}

func (sv *server) leave(s *session) {
	sv.mu.Lock()
	if _, ok := sv.sessions[s]; ok {
		delete(sv.sessions, s)
		close(s.send)
	}
	n := len(sv.sessions)
	sv.mu.Unlock()
	sv.log.Info("session left", zap.Int("sessions", n))
}

// broadcast pushes a replicated node to every session except the origin.
// The origin already holds the state; echoing it back would only race
// its own local apply.
func (sv *server) broadcast(n rga.Node, origin *session) {
	msg := serverMessage{Type: msgNode, Node: &n}
	sv.mu.Lock()
	var stalled []*session
	for s := range sv.sessions {
		if s == origin {
			continue
		}
		if !s.push(msg) {
			stalled = append(stalled, s)
		}
	}
	sv.mu.Unlock()
	for _, s := range stalled {
		sv.leave(s)
	}
}

func (sv *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := sv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sv.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	s := &session{conn: conn, send: make(chan []byte, sendBufferSize)}
	go s.writePump()

	// Join before the snapshot goes out: an edit that lands in between is
	// then both in the snapshot and broadcast, and duplicate delivery is
	// exactly what the CRDT absorbs.
	sv.join(s)
	defer sv.leave(s)
	s.push(serverMessage{Type: msgSnapshot, Nodes: sv.doc.AllNodes()})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sv.log.Warn("read error", zap.Error(err))
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.push(serverMessage{Type: msgError, Error: "malformed message"})
			continue
		}
		sv.dispatch(s, msg)
	}
}

func (sv *server) dispatch(s *session, msg clientMessage) {
	switch msg.Type {
	case msgInsert:
		chars := []rune(msg.Char)
		if len(chars) != 1 {
			s.push(serverMessage{Type: msgError, Error: "char must be a single rune"})
			return
		}
		id, err := sv.doc.InsertAfter(msg.After, chars[0])
		if err != nil {
			s.push(serverMessage{Type: msgError, Error: err.Error()})
			return
		}
		if n, ok := sv.doc.Node(id); ok {
			// Echo to the origin too: it needs the minted id.
			sv.broadcast(n, nil)
		}

	case msgDelete:
		if err := sv.doc.Delete(msg.ID); err != nil {
			s.push(serverMessage{Type: msgError, Error: err.Error()})
			return
		}
		if n, ok := sv.doc.Node(msg.ID); ok {
			sv.broadcast(n, s)
		}

	default:
		s.push(serverMessage{Type: msgError, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (sv *server) handleText(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, sv.doc.String())
}

func (sv *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", sv.handleWS)
	mux.HandleFunc("/text", sv.handleText)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	return mux
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	replica := flag.Uint64("replica", 1, "replica id of the server document (non-zero)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	doc, err := rga.New(*replica)
	if err != nil {
		log.Fatal("invalid replica id", zap.Error(err))
	}

	sv := newServer(doc, log)
	srv := &http.Server{Addr: *addr, Handler: sv.routes()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("rga collaboration server listening",
			zap.String("addr", *addr),
			zap.Uint64("replica", *replica))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
