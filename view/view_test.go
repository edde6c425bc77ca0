package view

import (
	"slices"
	"testing"
	"time"

	"antmonitor/fleet"
	"antmonitor/reconcile"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func missionView(ms ...*fleet.Mission) (*reconcile.Store[*fleet.Mission], *View[*fleet.Mission]) {
	s := reconcile.NewStore[*fleet.Mission]()
	s.Reconcile(ms)
	return s, New(s, MissionSpec(), WithClock(clock))
}

func ids(ms []*fleet.Mission) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestDefaultFilterRollingWindow(t *testing.T) {
	_, v := missionView(
		&fleet.Mission{ID: "old", NavigationState: fleet.NavTerminated, ArrivingTime: now.Add(-5 * time.Minute)},
		&fleet.Mission{ID: "recent", NavigationState: fleet.NavTerminated, ArrivingTime: now.Add(-1 * time.Minute)},
		&fleet.Mission{ID: "running", NavigationState: fleet.NavStarted, ArrivingTime: now.Add(-time.Hour)},
		&fleet.Mission{ID: "cancelled", NavigationState: fleet.NavCancelled, ArrivingTime: now},
	)

	got := ids(v.Items())
	slices.Sort(got)
	if !slices.Equal(got, []string{"recent", "running"}) {
		t.Errorf("items = %v, want [recent running]", got)
	}
}

func TestTimeRangeOverridesWindow(t *testing.T) {
	_, v := missionView(
		&fleet.Mission{ID: "old", NavigationState: fleet.NavTerminated, ArrivingTime: now.Add(-10 * time.Minute)},
		&fleet.Mission{ID: "older", NavigationState: fleet.NavTerminated, ArrivingTime: now.Add(-2 * time.Hour)},
	)
	if len(v.Items()) != 0 {
		t.Fatalf("rolling window should hide both, got %v", ids(v.Items()))
	}

	// Inverted bounds are swapped.
	if err := v.SetTimeRange(now, now.Add(-time.Hour)); err != nil {
		t.Fatalf("SetTimeRange: %v", err)
	}
	if got := ids(v.Items()); !slices.Equal(got, []string{"old"}) {
		t.Errorf("ranged items = %v, want [old]", got)
	}

	if err := v.SetTimeRange(time.Time{}, time.Time{}); err != nil {
		t.Fatalf("clear range: %v", err)
	}
	if len(v.Items()) != 0 {
		t.Errorf("clearing range should restore the rolling window, got %v", ids(v.Items()))
	}
}

func TestSearch(t *testing.T) {
	_, v := missionView(
		&fleet.Mission{ID: "m1", FromNode: "Dock-A", ToNode: "Rack-7", NavigationState: fleet.NavStarted},
		&fleet.Mission{ID: "m2", FromNode: "Rack-7", ToNode: "Dock-B", NavigationState: fleet.NavStarted},
		&fleet.Mission{ID: "m3", FromNode: "Line-1", ToNode: "Line-2", Vehicle: "dock-runner", NavigationState: fleet.NavStarted},
	)
	if err := v.SetSort(SortKey{Column: "id"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		term, column string
		want         []string
	}{
		{"dock", "", []string{"m1", "m2", "m3"}},
		{"DOCK", "from", []string{"m1"}},
		{"rack-7", "to", []string{"m1"}},
		{"nothing", "", []string{}},
		{"", "from", []string{"m1", "m2", "m3"}},
	}
	for _, tt := range tests {
		if err := v.SetSearch(tt.term, tt.column); err != nil {
			t.Fatalf("SetSearch(%q, %q): %v", tt.term, tt.column, err)
		}
		if got := ids(v.Items()); !slices.Equal(got, tt.want) {
			t.Errorf("search %q in %q = %v, want %v", tt.term, tt.column, got, tt.want)
		}
	}
}

func TestUnknownCriteriaRejected(t *testing.T) {
	_, v := missionView()
	if err := v.SetFilter("bogus"); err == nil {
		t.Error("expected error for unknown filter")
	}
	if err := v.SetSearch("x", "bogus"); err == nil {
		t.Error("expected error for unknown search column")
	}
	if err := v.SetSort(SortKey{Column: "bogus"}); err == nil {
		t.Error("expected error for unknown sort column")
	}
	if c := v.Criteria(); c.Filter != "default" || c.Search != "" {
		t.Errorf("criteria changed after rejected updates: %+v", c)
	}
}

func TestStableMultiKeySort(t *testing.T) {
	_, v := missionView(
		&fleet.Mission{ID: "a", Priority: 1, NavigationState: fleet.NavStarted},
		&fleet.Mission{ID: "b", Priority: 2, NavigationState: fleet.NavStarted},
		&fleet.Mission{ID: "c", Priority: 1, NavigationState: fleet.NavAccepted},
		&fleet.Mission{ID: "d", Priority: 2, NavigationState: fleet.NavStarted},
	)

	if err := v.SetSort(SortKey{Column: "priority", Descending: true}); err != nil {
		t.Fatal(err)
	}
	// Ties keep store order.
	if got := ids(v.Items()); !slices.Equal(got, []string{"b", "d", "a", "c"}) {
		t.Errorf("priority desc = %v", got)
	}

	if err := v.SetSort(SortKey{Column: "priority"}, SortKey{Column: "navigation_state"}); err != nil {
		t.Fatal(err)
	}
	first := ids(v.Items())
	if !slices.Equal(first, []string{"c", "a", "b", "d"}) {
		t.Errorf("priority, state = %v", first)
	}

	v.Refresh()
	if again := ids(v.Items()); !slices.Equal(again, first) {
		t.Errorf("re-sort changed order: %v then %v", first, again)
	}
}

func TestStatsMatchFilteredItems(t *testing.T) {
	_, v := missionView(
		&fleet.Mission{ID: "1", NavigationState: fleet.NavStarted},
		&fleet.Mission{ID: "2", NavigationState: fleet.NavStarted},
		&fleet.Mission{ID: "3", NavigationState: fleet.NavTerminated, ArrivingTime: now},
		&fleet.Mission{ID: "4", NavigationState: fleet.NavTerminated, ArrivingTime: now.Add(-time.Hour)},
		&fleet.Mission{ID: "5", NavigationState: fleet.NavRejected},
	)

	st := v.Stats()
	if st.Total != len(v.Items()) || st.Total != 3 {
		t.Fatalf("total = %d, items = %d, want 3", st.Total, len(v.Items()))
	}
	if st.Buckets["started"] != 2 || st.Buckets["terminated"] != 1 || st.Buckets["rejected"] != 0 {
		t.Errorf("buckets = %v", st.Buckets)
	}
	sum := 0
	for _, n := range st.Buckets {
		sum += n
	}
	if sum != st.Total {
		t.Errorf("bucket sum %d != total %d", sum, st.Total)
	}

	if err := v.SetFilter("all"); err != nil {
		t.Fatal(err)
	}
	if st := v.Stats(); st.Total != 5 || st.Buckets["rejected"] != 1 {
		t.Errorf("all filter stats = %+v", st)
	}
}

func TestViewFollowsStore(t *testing.T) {
	s, v := missionView(&fleet.Mission{ID: "m1", NavigationState: fleet.NavStarted})
	defer v.Close()

	notified := 0
	v.Subscribe(func() { notified++ })

	s.Reconcile([]*fleet.Mission{
		{ID: "m1", NavigationState: fleet.NavStarted},
		{ID: "m2", NavigationState: fleet.NavAccepted},
	})
	if len(v.Items()) != 2 {
		t.Errorf("items = %v, want 2", ids(v.Items()))
	}
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}

	// An identical fetch changes nothing and does not recompute.
	s.Reconcile([]*fleet.Mission{
		{ID: "m1", NavigationState: fleet.NavStarted},
		{ID: "m2", NavigationState: fleet.NavAccepted},
	})
	if notified != 1 {
		t.Errorf("notified = %d after identical fetch, want 1", notified)
	}

	v.Close()
	s.Reconcile(nil)
	if len(v.Items()) != 2 {
		t.Error("closed view should stop following the store")
	}
}

func TestItemsShareStoreIdentity(t *testing.T) {
	m := &fleet.Mission{ID: "m1", NavigationState: fleet.NavStarted}
	s, v := missionView(m)
	s.Reconcile([]*fleet.Mission{{ID: "m1", NavigationState: fleet.NavAccepted}})

	items := v.Items()
	if len(items) != 1 || items[0] != m {
		t.Fatal("view should hold the store's entries, not copies")
	}
	if items[0].NavigationState != fleet.NavAccepted {
		t.Errorf("state = %v", items[0].NavigationState)
	}
}

func TestVehicleAndAlarmCatalogs(t *testing.T) {
	vs := reconcile.NewStore[*fleet.Vehicle]()
	vs.Reconcile([]*fleet.Vehicle{
		{Name: "V1", State: fleet.VehicleIdle},
		{Name: "V2", State: fleet.VehicleExtracted},
		{Name: "V3", State: fleet.VehicleError},
	})
	vv := New(vs, VehicleSpec(), WithClock(clock))
	if vv.Stats().Total != 2 {
		t.Errorf("default vehicle view total = %d, want 2", vv.Stats().Total)
	}
	if err := vv.SetFilter("error"); err != nil {
		t.Fatal(err)
	}
	if items := vv.Items(); len(items) != 1 || items[0].Name != "V3" {
		t.Errorf("error filter = %v", items)
	}

	cleared := now.Add(-10 * time.Minute)
	as := reconcile.NewStore[*fleet.Alarm]()
	as.Reconcile([]*fleet.Alarm{
		{UUID: "a1", State: fleet.AlarmOpen, LastEventAt: now.Add(-time.Hour)},
		{UUID: "a2", State: fleet.AlarmCleared, ClearedAt: &cleared},
	})
	av := New(as, AlarmSpec(), WithClock(clock))
	if items := av.Items(); len(items) != 1 || items[0].UUID != "a1" {
		t.Errorf("default alarm view = %v", items)
	}
	if err := av.SetFilter("closed"); err != nil {
		t.Fatal(err)
	}
	if items := av.Items(); len(items) != 1 || items[0].UUID != "a2" {
		t.Errorf("closed alarm view = %v", items)
	}
}
