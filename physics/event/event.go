// Package event delivers simulation lifecycle events to the plugins connected to them.
package event

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// UpdateInfo describes the tick that is about to be simulated.
type UpdateInfo struct {
	WorldName string
	SimTime   time.Duration
	RealTime  time.Duration
}

// A Connection is the handle returned when connecting to an event.
type Connection struct {
	id           uint64
	cb           func(UpdateInfo)
	disconnected atomic.Bool
}

// Events is the set of event sources of one world.
type Events struct {
	mu               sync.Mutex
	nextID           uint64
	worldUpdateBegin []*Connection
}

// New returns an empty set of event sources.
func New() *Events {
	return &Events{}
}

// ConnectWorldUpdateBegin registers cb to be invoked at the start of every world update.
func (e *Events) ConnectWorldUpdateBegin(cb func(UpdateInfo)) *Connection {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	conn := &Connection{id: e.nextID, cb: cb}
	e.worldUpdateBegin = append(e.worldUpdateBegin, conn)
	return conn
}

// DisconnectWorldUpdateBegin unregisters a connection. Disconnecting twice or passing nil is a
// no-op. Once it returns, the callback is not started again.
func (e *Events) DisconnectWorldUpdateBegin(conn *Connection) {
	if conn == nil || conn.disconnected.Swap(true) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.worldUpdateBegin {
		if c.id == conn.id {
			e.worldUpdateBegin = append(e.worldUpdateBegin[:i:i], e.worldUpdateBegin[i+1:]...)
			return
		}
	}
}

// FireWorldUpdateBegin invokes every connected callback synchronously, in connection order.
func (e *Events) FireWorldUpdateBegin(info UpdateInfo) {
	e.mu.Lock()
	conns := make([]*Connection, len(e.worldUpdateBegin))
	copy(conns, e.worldUpdateBegin)
	e.mu.Unlock()

	for _, conn := range conns {
		if conn.disconnected.Load() {
			continue
		}
		conn.cb(info)
	}
}

// NumWorldUpdateBeginConnections returns how many callbacks are connected.
func (e *Events) NumWorldUpdateBeginConnections() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.worldUpdateBegin)
}
