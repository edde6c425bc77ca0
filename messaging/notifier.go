package messaging

import (
	"log"
	"sync"
)

// Publisher is the transport side of a Notifier. *Client implements it.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Topic(name string) string
}

// Notifier publishes envelopes from a background goroutine so callers on
// the reconciliation path never wait on a broker. When the queue is full
// new notifications are dropped and logged.
type Notifier struct {
	pub     Publisher
	station string
	LogFunc func(format string, args ...any)

	queue chan outbound
	done  chan struct{}
	once  sync.Once

	mu      sync.Mutex
	dropped int
}

type outbound struct {
	topic string
	env   *Envelope
}

const queueSize = 256

func NewNotifier(pub Publisher, station string) *Notifier {
	n := &Notifier{
		pub:     pub,
		station: station,
		LogFunc: log.Printf,
		queue:   make(chan outbound, queueSize),
		done:    make(chan struct{}),
	}
	go n.run()
	return n
}

// Change queues a change notification on the topic named after its kind.
func (n *Notifier) Change(p ChangePayload) error {
	return n.send(p.Kind, TypeChange, p)
}

func (n *Notifier) Connection(p ConnectionPayload) error {
	return n.send("connection", TypeConnection, p)
}

func (n *Notifier) Command(p CommandPayload) error {
	return n.send("commands", TypeCommand, p)
}

func (n *Notifier) send(stream, msgType string, payload any) error {
	env, err := NewEnvelope(msgType, n.station, payload)
	if err != nil {
		return err
	}
	select {
	case n.queue <- outbound{topic: n.pub.Topic(stream), env: env}:
	default:
		n.mu.Lock()
		n.dropped++
		n.mu.Unlock()
		n.LogFunc("messaging: queue full, dropped %s on %s", msgType, stream)
	}
	return nil
}

// Dropped reports how many notifications were discarded on a full queue.
func (n *Notifier) Dropped() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

func (n *Notifier) run() {
	defer close(n.done)
	for msg := range n.queue {
		data, err := msg.env.Encode()
		if err != nil {
			n.LogFunc("messaging: encode %s: %v", msg.env.Type, err)
			continue
		}
		if err := n.pub.Publish(msg.topic, data); err != nil {
			n.LogFunc("messaging: publish %s: %v", msg.topic, err)
		}
	}
}

// Stop publishes what is queued and ends the notifier. Calls to the send
// methods after Stop panic.
func (n *Notifier) Stop() {
	n.once.Do(func() { close(n.queue) })
	<-n.done
}
