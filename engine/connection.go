package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"antmonitor/fleet"
	"antmonitor/messaging"
	"antmonitor/metrics"

	"github.com/looplab/fsm"
)

// Connection states.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

const (
	evConnect    = "connect"
	evEstablish  = "establish"
	evFail       = "fail"
	evDisconnect = "disconnect"
)

// Connection describes the current fleet server session.
type Connection struct {
	State       string    `json:"state"`
	Server      string    `json:"server,omitempty"`
	User        string    `json:"user,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Since       time.Time `json:"since,omitzero"`
}

var ErrAlreadyConnecting = errors.New("engine: connection attempt in progress")

func newConnFSM(m *metrics.Metrics) *fsm.FSM {
	return fsm.NewFSM(
		StateDisconnected,
		fsm.Events{
			{Name: evConnect, Src: []string{StateDisconnected}, Dst: StateConnecting},
			{Name: evEstablish, Src: []string{StateConnecting}, Dst: StateConnected},
			{Name: evFail, Src: []string{StateConnecting}, Dst: StateDisconnected},
			{Name: evDisconnect, Src: []string{StateConnecting, StateConnected}, Dst: StateDisconnected},
		},
		fsm.Callbacks{
			"enter_" + StateConnected:    func(_ context.Context, _ *fsm.Event) { m.SetConnected(true) },
			"enter_" + StateDisconnected: func(_ context.Context, _ *fsm.Event) { m.SetConnected(false) },
		},
	)
}

// ConnState returns the connection lifecycle state.
func (e *Engine) ConnState() string {
	return e.conn.Current()
}

// Connection returns the current session details.
func (e *Engine) Connection() Connection {
	e.sessMu.RLock()
	defer e.sessMu.RUnlock()
	c := e.session
	c.State = e.conn.Current()
	return c
}

// Connect logs into server, loads the node map and starts automatic
// polling. An existing session is closed first. An empty server keeps the
// configured base URL.
func (e *Engine) Connect(ctx context.Context, server, user, pass string) error {
	e.connMu.Lock()
	defer e.connMu.Unlock()

	if e.conn.Current() != StateDisconnected {
		e.disconnectLocked(ctx)
	}
	if err := e.conn.Event(ctx, evConnect); err != nil {
		return ErrAlreadyConnecting
	}

	ant := e.antConfig()
	if server == "" {
		server = ant.BaseURL
	}
	e.fleet.Reconfigure(fleet.ReconfigureParams{BaseURL: server, Timeout: ant.Timeout})

	sess, err := e.fleet.Login(ctx, user, pass)
	if err != nil {
		e.conn.Event(ctx, evFail)
		e.logFn("engine: connect %s as %s: %v", server, user, err)
		e.Events.Emit(Event{Type: EventConnectFailed, Payload: ConnectionEvent{Server: server, User: user, Detail: err.Error()}})
		e.notify(func(n Notifier) error {
			return n.Connection(messaging.ConnectionPayload{Server: server, User: user, Error: err.Error()})
		})
		return fmt.Errorf("connect %s: %w", server, err)
	}

	e.sessMu.Lock()
	e.session = Connection{Server: server, User: user, DisplayName: sess.DisplayName, Since: time.Now()}
	e.sessMu.Unlock()
	e.conn.Event(ctx, evEstablish)
	e.rememberServer(server, user)

	e.logFn("engine: connected to %s (%s) as %s", server, e.fleet.Name(), sess.DisplayName)
	e.Events.Emit(Event{Type: EventConnected, Payload: ConnectionEvent{Server: server, User: user, DisplayName: sess.DisplayName}})
	e.notify(func(n Notifier) error {
		return n.Connection(messaging.ConnectionPayload{Connected: true, Server: server, User: user})
	})

	if err := e.sched.Refresh(ctx, fleet.KindNodes); err != nil {
		e.logFn("engine: load nodes: %v", err)
	}
	e.sched.Start()
	return nil
}

// Disconnect stops polling, drops the session and empties the
// collections. Safe to call when not connected.
func (e *Engine) Disconnect(ctx context.Context) {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	e.disconnectLocked(ctx)
}

func (e *Engine) disconnectLocked(ctx context.Context) {
	if e.conn.Current() == StateDisconnected {
		return
	}
	e.sched.Stop()
	if err := e.fleet.Logout(ctx); err != nil {
		e.logFn("engine: logout: %v", err)
	}
	e.conn.Event(ctx, evDisconnect)

	e.sessMu.Lock()
	server := e.session.Server
	e.session = Connection{}
	e.sessMu.Unlock()

	e.onLoop(func() {
		e.handleApplied(appliedOf(fleet.KindMissions, e.missions.Reconcile(nil), 0))
		e.handleApplied(appliedOf(fleet.KindVehicles, e.vehicles.Reconcile(nil), 0))
		e.handleApplied(appliedOf(fleet.KindAlarms, e.alarms.Reconcile(nil), 0))
		e.handleApplied(appliedOf(fleet.KindNodes, e.nodes.Replace(nil), 0))
	})

	e.logFn("engine: disconnected from %s", server)
	e.Events.Emit(Event{Type: EventDisconnected, Payload: ConnectionEvent{Server: server}})
	e.notify(func(n Notifier) error {
		return n.Connection(messaging.ConnectionPayload{Server: server})
	})
}

func (e *Engine) rememberServer(server, user string) {
	if e.db == nil {
		return
	}
	if err := e.db.SetSetting("last_server", server); err != nil {
		e.logFn("engine: save last server: %v", err)
	}
	if err := e.db.SetSetting("last_user", user); err != nil {
		e.logFn("engine: save last user: %v", err)
	}
}
