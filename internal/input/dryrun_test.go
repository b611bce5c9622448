package input

import (
	"testing"

	"github.com/kellerith/rox-farm-go/internal/calibration"
)

func TestDryRunRecordsClicks(t *testing.T) {
	d := NewDryRunDispatcher()

	if err := d.Click(100, 200, 6); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if err := d.DragVertical(50, 60, -400); err != nil {
		t.Fatalf("DragVertical() error = %v", err)
	}

	actions := d.Actions()
	if len(actions) != 2 {
		t.Fatalf("recorded %d actions, want 2", len(actions))
	}
	if actions[0].Type != "click" || actions[0].X != 100 || actions[0].Y != 200 {
		t.Errorf("actions[0] = %+v, want click at (100,200)", actions[0])
	}
	if actions[1].Type != "drag" || actions[1].Detail != "dy=-400" {
		t.Errorf("actions[1] = %+v, want drag dy=-400", actions[1])
	}
}

func TestDryRunTypeDigits(t *testing.T) {
	pad := map[string]calibration.XY{
		"1": {X: 10, Y: 0}, "2": {X: 20, Y: 0}, "7": {X: 70, Y: 0},
	}
	d := NewDryRunDispatcher()

	if err := d.TypeDigits(127, pad); err != nil {
		t.Fatalf("TypeDigits() error = %v", err)
	}

	actions := d.Actions()
	if len(actions) != 3 {
		t.Fatalf("recorded %d actions, want 3", len(actions))
	}
	wantX := []int{10, 20, 70}
	for i, x := range wantX {
		if actions[i].X != x {
			t.Errorf("actions[%d].X = %d, want %d", i, actions[i].X, x)
		}
	}
}

func TestDryRunTypeDigitsNegative(t *testing.T) {
	pad := map[string]calibration.XY{"5": {X: 50, Y: 0}}
	d := NewDryRunDispatcher()

	if err := d.TypeDigits(-5, pad); err != nil {
		t.Fatalf("TypeDigits() error = %v", err)
	}
	if len(d.Actions()) != 1 {
		t.Errorf("recorded %d actions, want 1 (absolute value typed)", len(d.Actions()))
	}
}

func TestDryRunReset(t *testing.T) {
	d := NewDryRunDispatcher()
	d.Click(1, 2, 0)
	d.Reset()
	if len(d.Actions()) != 0 {
		t.Error("Reset() should clear recorded actions")
	}
}

func TestRandBetween(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := randBetween(-6, 6)
		if v < -6 || v > 6 {
			t.Fatalf("randBetween(-6, 6) = %d, out of range", v)
		}
	}
	if v := randBetween(3, 3); v != 3 {
		t.Errorf("randBetween(3, 3) = %d, want 3", v)
	}
}
