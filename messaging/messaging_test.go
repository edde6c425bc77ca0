package messaging

import (
	"errors"
	"sync"
	"testing"

	"antmonitor/config"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypeChange, "line-1", ChangePayload{Kind: "missions", Added: []string{"M1"}, Total: 1})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.ID == "" || env.Version != Version || env.Timestamp.IsZero() {
		t.Fatalf("envelope header = %+v", env)
	}
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != env.ID || got.Station != "line-1" || got.Type != TypeChange {
		t.Errorf("decoded = %+v", got)
	}
	var p ChangePayload
	if err := got.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.Kind != "missions" || len(p.Added) != 1 || p.Total != 1 {
		t.Errorf("payload = %+v", p)
	}
}

func TestDecodeRejectsVersion(t *testing.T) {
	if _, err := Decode([]byte(`{"v":9,"type":"x"}`)); err == nil {
		t.Error("expected version error")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvelopeIDsUnique(t *testing.T) {
	a, _ := NewEnvelope(TypeCommand, "", CommandPayload{})
	b, _ := NewEnvelope(TypeCommand, "", CommandPayload{})
	if a.ID == b.ID {
		t.Error("envelope IDs should differ")
	}
}

func TestTopicNames(t *testing.T) {
	tests := []struct {
		backend, prefix, name, want string
	}{
		{"kafka", "", "vehicles", "antmonitor.vehicles"},
		{"kafka", "plant7", "alarms", "plant7.alarms"},
		{"mqtt", "plant7", "missions", "plant7/missions"},
		{"", "", "connection", "antmonitor.connection"},
	}
	for _, tt := range tests {
		c := NewClient(&config.MessagingConfig{Backend: tt.backend, TopicPrefix: tt.prefix})
		if got := c.Topic(tt.name); got != tt.want {
			t.Errorf("Topic(%q) on %q = %q, want %q", tt.name, tt.backend, got, tt.want)
		}
	}
}

func TestClientWithoutBackend(t *testing.T) {
	c := NewClient(&config.MessagingConfig{})
	if err := c.Connect(); err == nil {
		t.Error("Connect without backend should fail")
	}
	if c.IsConnected() {
		t.Error("IsConnected = true without backend")
	}
	if err := c.Publish("x", nil); err == nil {
		t.Error("Publish without backend should fail")
	}
	c.Close()
}

func TestKafkaRequiresBrokers(t *testing.T) {
	c := NewClient(&config.MessagingConfig{Backend: "kafka"})
	if err := c.Connect("vehicles"); err == nil {
		t.Error("expected error with no brokers")
	}
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	bodies [][]byte
	err    error
}

func (f *fakePublisher) Topic(name string) string { return "test." + name }

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	f.bodies = append(f.bodies, payload)
	return f.err
}

func TestNotifierPublishesInOrder(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, "line-1")
	n.Connection(ConnectionPayload{Connected: true, Server: "http://ant"})
	n.Change(ChangePayload{Kind: "vehicles", Updated: []string{"V1"}, Total: 3})
	n.Command(CommandPayload{Command: "cancel_mission", EntityID: "M9"})
	n.Stop()
	n.Stop()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	want := []string{"test.connection", "test.vehicles", "test.commands"}
	if len(pub.topics) != len(want) {
		t.Fatalf("topics = %v", pub.topics)
	}
	for i := range want {
		if pub.topics[i] != want[i] {
			t.Errorf("topic[%d] = %q, want %q", i, pub.topics[i], want[i])
		}
	}
	env, err := Decode(pub.bodies[1])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != TypeChange || env.Station != "line-1" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestNotifierLogsPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := NewNotifier(pub, "")
	var mu sync.Mutex
	var logged int
	n.LogFunc = func(string, ...any) {
		mu.Lock()
		logged++
		mu.Unlock()
	}
	n.Change(ChangePayload{Kind: "alarms"})
	n.Stop()
	mu.Lock()
	defer mu.Unlock()
	if logged != 1 {
		t.Errorf("logged = %d, want 1", logged)
	}
}
