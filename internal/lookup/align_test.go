package lookup

import (
	"math"
	"testing"
)

func TestAlign_ForwardFill(t *testing.T) {
	higherTimes := []int64{100, 200, 300}
	higherVals := []float64{1.0, 2.0, 3.0}
	lowerTimes := []int64{100, 150, 200, 250, 300, 350}

	got, err := Align(higherTimes, higherVals, lowerTimes)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	want := []float64{1.0, 1.0, 2.0, 2.0, 3.0, 3.0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAlign_LeadingPositionsUndefined(t *testing.T) {
	higherTimes := []int64{200}
	higherVals := []float64{5.0}
	lowerTimes := []int64{50, 100, 150, 200, 250}

	got, err := Align(higherTimes, higherVals, lowerTimes)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("out[%d] = %v, want NaN before first observation", i, got[i])
		}
	}
	if got[3] != 5.0 || got[4] != 5.0 {
		t.Errorf("tail = %v, %v, want 5.0, 5.0", got[3], got[4])
	}
}

func TestAlign_LengthMismatch(t *testing.T) {
	_, err := Align([]int64{1, 2}, []float64{1.0}, []int64{1})
	if err != ErrLengthMismatch {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestValueAt(t *testing.T) {
	times := []int64{100, 200}
	vals := []float64{1.0, 2.0}

	if v := ValueAt(150, times, vals); v != 1.0 {
		t.Errorf("ValueAt(150) = %v, want 1.0", v)
	}
	if v := ValueAt(200, times, vals); v != 2.0 {
		t.Errorf("ValueAt(200) = %v, want 2.0", v)
	}
	if v := ValueAt(50, times, vals); !math.IsNaN(v) {
		t.Errorf("ValueAt(50) = %v, want NaN", v)
	}
}
