package treads

import (
	"testing"

	"github.com/treadsim/treads/config"
)

func TestEventsEnterStayExit(t *testing.T) {
	e := NewEvents()
	var got []Event
	for _, kind := range []EventType{COLLISION_ENTER, COLLISION_STAY, COLLISION_EXIT} {
		e.Subscribe(kind, func(ev Event) { got = append(got, ev) })
	}

	// Tick 1: pair appears.
	e.currentActivePairs[makePairKey("crate", "rover")] = true
	e.flush()
	// Tick 2: still touching.
	e.currentActivePairs[makePairKey("rover", "crate")] = true
	e.flush()
	// Tick 3: separated.
	e.flush()

	want := []EventType{COLLISION_ENTER, COLLISION_STAY, COLLISION_EXIT}
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i, ev := range got {
		if ev.Kind != want[i] {
			t.Errorf("event %d kind = %d, want %d", i, ev.Kind, want[i])
		}
		if ev.A != "crate" || ev.B != "rover" {
			t.Errorf("event %d pair = %q, %q; order should be normalized", i, ev.A, ev.B)
		}
	}
}

func TestEventsForgetDropsPairs(t *testing.T) {
	e := NewEvents()
	exits := 0
	e.Subscribe(COLLISION_EXIT, func(Event) { exits++ })

	e.currentActivePairs[makePairKey("a", "b")] = true
	e.flush()
	e.forget("a")
	e.flush()
	if exits != 0 {
		t.Errorf("removed element should not emit exit events, got %d", exits)
	}
}

func TestWorldEmitsCollisionEvents(t *testing.T) {
	w := NewWorld(0.01, 9.81)
	v := mustVehicle(t, roverConfig("rover", map[string]float64{"torque_left": 5, "torque_right": 5}))
	if err := w.AddVehicle(v); err != nil {
		t.Fatal(err)
	}
	crate, err := NewBlock(config.BlockConfig{
		Name: "crate", Mass: 5, Pose: config.PoseConfig{X: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.AddBlock(crate); err != nil {
		t.Fatal(err)
	}

	entered := false
	w.Events.Subscribe(COLLISION_ENTER, func(ev Event) {
		if ev.A == "crate" && ev.B == "rover" {
			entered = true
		}
	})

	w.Run(2000)
	if !entered {
		t.Error("no collision event for the vehicle hitting the crate")
	}
}
