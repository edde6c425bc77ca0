package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memPutter struct {
	mu     sync.Mutex
	writes map[string][]byte
	calls  int
	err    error
}

func (m *memPutter) Put(_ context.Context, kind string, data []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.writes == nil {
		m.writes = make(map[string][]byte)
	}
	m.writes[kind] = data
	return nil
}

func TestWriterFlushesOnStop(t *testing.T) {
	p := &memPutter{}
	w := NewWriter(p)

	type item struct {
		Name string `json:"name"`
	}
	if err := w.Submit("vehicles", []item{{Name: "V1"}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	w.Submit("vehicles", []item{{Name: "V1"}, {Name: "V2"}})
	w.Stop()
	w.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	var got []item
	if err := json.Unmarshal(p.writes["vehicles"], &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("latest snapshot not written: %+v", got)
	}
}

func TestWriterLogsFailures(t *testing.T) {
	p := &memPutter{err: errors.New("connection refused")}
	w := NewWriter(p)
	var logged []string
	var mu sync.Mutex
	w.LogFunc = func(format string, args ...any) {
		mu.Lock()
		logged = append(logged, format)
		mu.Unlock()
	}
	w.Submit("alarms", []string{"a"})
	w.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(logged) == 0 {
		t.Error("write failure was not logged")
	}
}

func TestSubmitRejectsUnencodable(t *testing.T) {
	w := NewWriter(&memPutter{})
	defer w.Stop()
	if err := w.Submit("bad", make(chan int)); err == nil {
		t.Error("expected encode error")
	}
}

func TestRedisKeys(t *testing.T) {
	r := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "", time.Minute)
	if got := r.dataKey("missions"); got != "antmonitor:snapshot:missions" {
		t.Errorf("dataKey = %q", got)
	}
	if got := r.updatedKey("missions"); got != "antmonitor:snapshot:missions:updated" {
		t.Errorf("updatedKey = %q", got)
	}
	if got := r.kindsKey(); got != "antmonitor:snapshots" {
		t.Errorf("kindsKey = %q", got)
	}
}

func TestRedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	r := NewRedisStore(client, "test", 0)

	ctx := context.Background()
	if err := r.Put(ctx, "vehicles", []byte("[]"), time.Now()); err == nil {
		t.Error("Put should fail without a server")
	}
	if _, _, err := r.Get(ctx, "vehicles", new([]any)); err == nil {
		t.Error("Get should fail without a server")
	}
}
