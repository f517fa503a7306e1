package main

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/kevinxiao27/venue-crdt/delta"
	"github.com/kevinxiao27/venue-crdt/doc"
	"github.com/kevinxiao27/venue-crdt/internal/codec"
	"github.com/kevinxiao27/venue-crdt/ol"
	"github.com/spf13/pflag"
)

const (
	MsgSyncRequest  = "sync-request"
	MsgSyncResponse = "sync-response"
	MsgOps          = "ops"
	MsgError        = "error"
)

// WSMessage is the envelope for every frame. Text frames carry JSON and
// binary frames carry CBOR of the same shape.
type WSMessage struct {
	Type     string                  `json:"type" cbor:"type"`
	Request  *delta.Request          `json:"request,omitempty" cbor:"request,omitempty"`
	Response *delta.Response[ol.HLC] `json:"response,omitempty" cbor:"response,omitempty"`
	Ops      []ol.Record[ol.HLC]     `json:"ops,omitempty" cbor:"ops,omitempty"`
	Error    string                  `json:"error,omitempty" cbor:"error,omitempty"`
}

const (
	writeWait = 10 * time.Second
	sendQueue = 64
)

var errClientGone = errors.New("client disconnected")

// client is one websocket session. Only writeLoop writes to conn; everyone
// else hands messages over through send.
type client struct {
	conn      *websocket.Conn
	replicaID string
	binary    atomic.Bool
	send      chan WSMessage
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, replicaID string, queue int) *client {
	return &client{
		conn:      conn,
		replicaID: replicaID,
		send:      make(chan WSMessage, queue),
		done:      make(chan struct{}),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue never blocks. A client whose queue is full is disconnected so it
// cannot hold up the venue lock.
func (c *client) enqueue(msg WSMessage) error {
	select {
	case <-c.done:
		return errClientGone
	default:
	}
	select {
	case c.send <- msg:
		return nil
	default:
		glog.Warningf("[server] client %s fell behind, disconnecting\n", c.replicaID)
		c.close()
		return errClientGone
	}
}

func (c *client) write(msg WSMessage) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if c.binary.Load() {
		data, err := codec.Marshal(msg)
		if err != nil {
			return err
		}
		return c.conn.WriteMessage(websocket.BinaryMessage, data)
	}
	return c.conn.WriteJSON(msg)
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				glog.Warningf("[server] write to %s failed: %v\n", c.replicaID, err)
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// venue is one hosted scene. mu guards doc and clients.
type venue struct {
	mu      sync.Mutex
	doc     *doc.Document[ol.HLC]
	clients map[*client]struct{}
}

type Server struct {
	replicaID string
	mu        sync.Mutex
	venues    map[string]*venue
	upgrader  websocket.Upgrader
}

func NewServer(replicaID string) *Server {
	return &Server{
		replicaID: replicaID,
		venues:    make(map[string]*venue),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// getVenue returns the venue, creating it on first use.
func (s *Server) getVenue(id string) *venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, exists := s.venues[id]; exists {
		return v
	}
	v := &venue{
		doc:     doc.New(s.replicaID, ol.CompareHLC),
		clients: make(map[*client]struct{}),
	}
	s.venues[id] = v
	return v
}

func (s *Server) lookupVenue(id string) (*venue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, exists := s.venues[id]
	return v, exists
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/venues/{venue}", s.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/venues/{venue}/ws", s.handleWebSocket)
	return r
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	v, exists := s.lookupVenue(mux.Vars(r)["venue"])
	if !exists {
		http.Error(w, "unknown venue", http.StatusNotFound)
		return
	}
	v.mu.Lock()
	objects := v.doc.Objects()
	v.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(objects)
}

// ingest applies records and returns the ones that were new. Records must
// continue each origin's history without gaps; a batch that skips ahead is
// rejected whole.
func (v *venue) ingest(records []ol.Record[ol.HLC]) ([]ol.Record[ol.HLC], error) {
	ops, err := ol.FromRecords(records)
	if err != nil {
		return nil, err
	}
	if ops, err = delta.InOrder(v.doc.StateVector(), ops); err != nil {
		return nil, err
	}
	var fresh []ol.Record[ol.HLC]
	for _, op := range ops {
		applied, err := v.doc.Apply(op)
		if err != nil {
			return fresh, err
		}
		if applied {
			fresh = append(fresh, ol.ToRecord(op))
		}
	}
	return fresh, nil
}

// broadcast queues records for every client but from. Called with mu held,
// so every client sees a venue's ops in the order they were applied.
func (v *venue) broadcast(from *client, records []ol.Record[ol.HLC]) {
	if len(records) == 0 {
		return
	}
	msg := WSMessage{Type: MsgOps, Ops: records}
	for c := range v.clients {
		if c == from {
			continue
		}
		c.enqueue(msg)
	}
}

func (v *venue) handle(c *client, msg WSMessage) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch msg.Type {
	case MsgSyncRequest:
		if msg.Request == nil {
			return c.enqueue(WSMessage{Type: MsgError, Error: "sync-request without request"})
		}
		resp, err := delta.Respond(v.doc, *msg.Request)
		if err != nil {
			return c.enqueue(WSMessage{Type: MsgError, Error: err.Error()})
		}
		if err := c.enqueue(WSMessage{Type: MsgSyncResponse, Response: &resp}); err != nil {
			return err
		}
		req := delta.NewRequest(v.doc)
		return c.enqueue(WSMessage{Type: MsgSyncRequest, Request: &req})

	case MsgSyncResponse, MsgOps:
		records := msg.Ops
		if msg.Type == MsgSyncResponse {
			if msg.Response == nil {
				return c.enqueue(WSMessage{Type: MsgError, Error: "sync-response without response"})
			}
			records = msg.Response.Ops
		}
		fresh, err := v.ingest(records)
		if err != nil {
			glog.Warningf("[server] rejected ops from %s: %v\n", c.replicaID, err)
			return c.enqueue(WSMessage{Type: MsgError, Error: err.Error()})
		}
		glog.V(1).Infof("[server] %s applied %d/%d ops\n", c.replicaID, len(fresh), len(records))
		v.broadcast(c, fresh)
		return nil

	default:
		return c.enqueue(WSMessage{Type: MsgError, Error: "unknown message type " + msg.Type})
	}
}

func decode(messageType int, data []byte) (WSMessage, error) {
	var msg WSMessage
	var err error
	if messageType == websocket.BinaryMessage {
		err = codec.Unmarshal(data, &msg)
	} else {
		err = json.Unmarshal(data, &msg)
	}
	return msg, err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("[server] upgrade failed: %v\n", err)
		return
	}
	defer conn.Close()

	venueID := mux.Vars(r)["venue"]
	replicaID := r.URL.Query().Get("replica")
	if replicaID == "" {
		replicaID = uuid.NewString()
	}
	c := newClient(conn, replicaID, sendQueue)
	go c.writeLoop()
	defer c.close()

	v := s.getVenue(venueID)
	v.mu.Lock()
	v.clients[c] = struct{}{}
	total := len(v.clients)
	v.mu.Unlock()
	glog.Infof("[server] client %s connected: venue=%s total=%d\n", replicaID, venueID, total)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		c.binary.Store(messageType == websocket.BinaryMessage)

		msg, err := decode(messageType, data)
		if err != nil {
			if err := c.enqueue(WSMessage{Type: MsgError, Error: err.Error()}); err != nil {
				break
			}
			continue
		}
		if err := v.handle(c, msg); err != nil {
			break
		}
	}

	v.mu.Lock()
	delete(v.clients, c)
	remaining := len(v.clients)
	v.mu.Unlock()
	glog.Infof("[server] client %s disconnected: venue=%s remaining=%d\n", replicaID, venueID, remaining)
}

func main() {
	var addr, configPath, replicaID string
	pflag.StringVar(&addr, "addr", "", "listen address (default :8080)")
	pflag.StringVar(&configPath, "config", "", "path to a YAML config file")
	pflag.StringVar(&replicaID, "replica", "", "replica id of this server (default: random)")
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	defer glog.Flush()

	config, err := loadConfig(configPath)
	if err != nil {
		glog.Exitf("%v", err)
	}
	if addr != "" {
		config.Addr = addr
	}
	if replicaID != "" {
		config.ReplicaID = replicaID
	}
	if config.ReplicaID == "" {
		config.ReplicaID = uuid.NewString()
	}

	server := NewServer(config.ReplicaID)
	for _, id := range config.Venues {
		server.getVenue(id)
	}

	glog.Infof("[server] replica %s listening on %s\n", config.ReplicaID, config.Addr)
	glog.Infof("[server] websocket: ws://localhost%s/venues/{venue}/ws\n", config.Addr)
	if err := http.ListenAndServe(config.Addr, server.Router()); err != nil {
		glog.Exitf("%v", err)
	}
}
