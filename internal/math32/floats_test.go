package math32

import (
	"math"
	"testing"
)

func TestDot(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	if got := Dot(a, b); got != 32 {
		t.Errorf("Dot = %f, want 32", got)
	}
}

func TestSquaredL2(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 6, 3}

	if got := SquaredL2(a, b); got != 25 {
		t.Errorf("SquaredL2 = %f, want 25", got)
	}

	if got := SquaredL2(a, a); got != 0 {
		t.Errorf("SquaredL2 identical = %f, want 0", got)
	}
}

func TestL1(t *testing.T) {
	a := []float32{1, -2, 3}
	b := []float32{0, 2, 1}

	if got := L1(a, b); got != 7 {
		t.Errorf("L1 = %f, want 7", got)
	}
}

func TestScaleInPlace(t *testing.T) {
	v := []float32{2, 4, 6}
	ScaleInPlace(v, 0.5)

	want := []float32{1, 2, 3}
	for i := range v {
		if v[i] != want[i] {
			t.Errorf("ScaleInPlace[%d] = %f, want %f", i, v[i], want[i])
		}
	}
}

func TestAddScaledInPlace(t *testing.T) {
	a := []float32{1, 1, 1}
	b := []float32{1, 2, 3}
	AddScaledInPlace(a, b, 2)

	want := []float32{3, 5, 7}
	for i := range a {
		if math.Abs(float64(a[i]-want[i])) > 1e-6 {
			t.Errorf("AddScaledInPlace[%d] = %f, want %f", i, a[i], want[i])
		}
	}
}
