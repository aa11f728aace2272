package domain

import (
	"math"
	"testing"
)

func TestFloatEquals(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected bool
	}{
		{1.0, 1.0, true},
		{1.0, 1.0 + Epsilon/2, true},
		{1.0, 1.0 + Epsilon*2, false},
		{0, -Epsilon / 2, true},
	}

	for _, tt := range tests {
		if got := FloatEquals(tt.a, tt.b); got != tt.expected {
			t.Errorf("FloatEquals(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestFloatOrdering(t *testing.T) {
	if !FloatLess(1, 2) || FloatLess(1, 1+Epsilon/2) {
		t.Error("FloatLess returned unexpected result")
	}
	if !FloatGreater(2, 1) || FloatGreater(1+Epsilon/2, 1) {
		t.Error("FloatGreater returned unexpected result")
	}
}

func TestIsPositive(t *testing.T) {
	if IsPositive(Epsilon/10) || !IsPositive(0.1) || IsPositive(-1) {
		t.Error("IsPositive returned unexpected result")
	}
}

func TestClampZero(t *testing.T) {
	if ClampZero(-3) != 0 || ClampZero(2.5) != 2.5 || ClampZero(0) != 0 {
		t.Error("ClampZero returned unexpected result")
	}
}

func TestConstants(t *testing.T) {
	if Infinity != math.MaxFloat64 {
		t.Error("infinity constants changed")
	}
	if DefaultPrecision != 2 {
		t.Errorf("DefaultPrecision = %d", DefaultPrecision)
	}
}
