package clock

import (
	"testing"
	"time"
)

func TestManual(t *testing.T) {
	m := NewManual(1)
	if got := m.Now(); got != 1 {
		t.Fatalf("Now() = %v, want 1", got)
	}

	m.Advance(2.5)
	if got := m.Now(); got != 3.5 {
		t.Errorf("after Advance(2.5) Now() = %v, want 3.5", got)
	}

	m.Advance(-1)
	if got := m.Now(); got != 3.5 {
		t.Errorf("negative Advance moved clock to %v", got)
	}

	m.Set(2)
	if got := m.Now(); got != 3.5 {
		t.Errorf("Set backwards moved clock to %v", got)
	}

	m.Set(10)
	if got := m.Now(); got != 10 {
		t.Errorf("Set(10) Now() = %v, want 10", got)
	}
}

func TestSystemIsMonotonic(t *testing.T) {
	c := System()
	a := c.Now()
	time.Sleep(2 * time.Millisecond)
	b := c.Now()
	if b <= a {
		t.Errorf("Now() went from %v to %v, want increase", a, b)
	}
}
