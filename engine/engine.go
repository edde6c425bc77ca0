package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"antmonitor/config"
	"antmonitor/fleet"
	"antmonitor/messaging"
	"antmonitor/metrics"
	"antmonitor/poller"
	"antmonitor/reconcile"
	"antmonitor/store"
	"antmonitor/view"

	"github.com/looplab/fsm"
)

type LogFunc func(format string, args ...any)

// SnapshotSink receives a copy of a collection after it changes.
type SnapshotSink interface {
	Submit(kind string, items any) error
}

// Notifier publishes engine activity to a message broker.
type Notifier interface {
	Change(p messaging.ChangePayload) error
	Connection(p messaging.ConnectionPayload) error
	Command(p messaging.CommandPayload) error
}

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Fleet      fleet.Backend
	Snapshots  SnapshotSink // optional
	Notifier   Notifier     // optional
	Metrics    *metrics.Metrics
	LogFunc    LogFunc
	Debug      bool

	// Clock drives the rolling windows of the views. Defaults to time.Now.
	Clock func() time.Time
}

type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	fleet      fleet.Backend
	snapshots  SnapshotSink
	notifier   Notifier
	metrics    *metrics.Metrics
	Events     *EventBus
	logFn      LogFunc
	debug      bool

	loop  *poller.Loop
	sched *poller.Scheduler

	vehicles *reconcile.Store[*fleet.Vehicle]
	missions *reconcile.Store[*fleet.Mission]
	alarms   *reconcile.Store[*fleet.Alarm]
	nodes    *reconcile.Store[*fleet.Node]

	vehicleView *view.View[*fleet.Vehicle]
	missionView *view.View[*fleet.Mission]
	alarmView   *view.View[*fleet.Alarm]
	views       map[fleet.Kind]viewControl

	connMu  sync.Mutex // serializes Connect and Disconnect
	conn    *fsm.FSM
	sessMu  sync.RWMutex
	session Connection

	statusMu sync.RWMutex
	status   map[fleet.Kind]poller.Status

	routesMu sync.RWMutex
	routes   []*store.Route

	startOnce sync.Once
	stopOnce  sync.Once
}

// viewControl is the criteria side of a view, independent of entity type.
type viewControl interface {
	Criteria() view.Criteria
	SetCriteria(c view.Criteria) error
	Stats() view.Stats
	FilterNames() []string
	Refresh()
	Close()
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	cfg := c.AppConfig
	if cfg == nil {
		cfg = config.Defaults()
	}
	e := &Engine{
		cfg:        cfg,
		configPath: c.ConfigPath,
		db:         c.DB,
		fleet:      c.Fleet,
		snapshots:  c.Snapshots,
		notifier:   c.Notifier,
		metrics:    c.Metrics,
		Events:     NewEventBus(),
		logFn:      logFn,
		debug:      c.Debug || cfg.Debug,
		loop:       poller.NewLoop(),
		vehicles:   reconcile.NewStore[*fleet.Vehicle](),
		missions:   reconcile.NewStore[*fleet.Mission](),
		alarms:     reconcile.NewStore[*fleet.Alarm](),
		nodes:      reconcile.NewStore[*fleet.Node](),
		status:     make(map[fleet.Kind]poller.Status),
	}

	var opts []view.Option
	if c.Clock != nil {
		opts = append(opts, view.WithClock(c.Clock))
	}
	e.vehicleView = view.New(e.vehicles, view.VehicleSpec(), opts...)
	e.missionView = view.New(e.missions, view.MissionSpec(), opts...)
	e.alarmView = view.New(e.alarms, view.AlarmSpec(), opts...)
	e.views = map[fleet.Kind]viewControl{
		fleet.KindVehicles: e.vehicleView,
		fleet.KindMissions: e.missionView,
		fleet.KindAlarms:   e.alarmView,
	}

	e.sched = poller.New(e.loop,
		poller.WithInterval(cfg.ANT.PollInterval),
		poller.WithMetrics(c.Metrics),
		poller.WithLogFunc(poller.LogFunc(logFn)),
		poller.WithDebug(e.debug),
		poller.WithStatus(e.handleStatus),
		poller.WithApplied(e.handleApplied),
		poller.WithAfterCycle(e.refreshViews),
	)
	// Automatic cycles apply missions, then vehicles, then alarms.
	e.sched.Register(poller.Bind(fleet.KindMissions, e.fleet.Missions, e.missions), true)
	e.sched.Register(poller.Bind(fleet.KindVehicles, e.fleet.Vehicles, e.vehicles), true)
	e.sched.Register(poller.Bind(fleet.KindAlarms, e.fleet.Alarms, e.alarms), true)
	e.sched.Register(poller.BindReplace(fleet.KindNodes, e.fleet.Nodes, e.nodes), false)

	e.conn = newConnFSM(e.metrics)
	return e
}

// Start loads the saved routes and, when configured, connects to the
// fleet server in the background. Only the first call has any effect.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.loadRoutes()

		ant := e.antConfig()
		if ant.AutoConnect && ant.Username != "" {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), ant.Timeout+5*time.Second)
				defer cancel()
				if err := e.Connect(ctx, ant.BaseURL, ant.Username, ant.Password); err != nil {
					e.logFn("engine: auto-connect: %v", err)
				}
			}()
		}
		e.logFn("engine: started")
	})
}

// Stop disconnects and shuts the loop down. The engine cannot be
// restarted.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		e.Disconnect(ctx)
		for _, v := range e.views {
			v.Close()
		}
		e.loop.Stop()
		e.logFn("engine: stopped")
	})
}

// Accessors
func (e *Engine) DB() *store.DB                { return e.db }
func (e *Engine) AppConfig() *config.Config    { return e.cfg }
func (e *Engine) ConfigPath() string           { return e.configPath }
func (e *Engine) Fleet() fleet.Backend         { return e.fleet }
func (e *Engine) Metrics() *metrics.Metrics    { return e.metrics }
func (e *Engine) Scheduler() *poller.Scheduler { return e.sched }

func (e *Engine) antConfig() config.ANTConfig {
	e.cfg.RLock()
	defer e.cfg.RUnlock()
	return e.cfg.ANT
}

func (e *Engine) debugf(format string, args ...any) {
	if e.debug {
		e.logFn(format, args...)
	}
}

// onLoop runs fn on the reconciliation loop and reports whether it ran.
func (e *Engine) onLoop(fn func()) bool {
	return e.loop.Do(fn)
}
