package codec

import "testing"

func TestRationalFloat64(t *testing.T) {
	tests := []struct {
		name string
		r    Rational
		want float64
	}{
		{"half", NewRational(1, 2), 0.5},
		{"whole", NewRational(30, 1), 30.0},
		{"ntsc", NewRational(30000, 1001), 29.97002997002997},
		{"zero den", NewRational(1, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Float64(); got != tt.want {
				t.Errorf("Float64() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRationalMul(t *testing.T) {
	got := NewRational(1, 2).Mul(NewRational(2, 3))
	want := NewRational(1, 3)
	if got != want {
		t.Errorf("Mul = %v, want %v", got, want)
	}
}

func TestRationalDiv(t *testing.T) {
	got := NewRational(1, 2).Div(NewRational(1, 4))
	want := NewRational(2, 1)
	if got != want {
		t.Errorf("Div = %v, want %v", got, want)
	}
}

func TestRationalCmp(t *testing.T) {
	a := NewRational(1, 3)
	b := NewRational(1, 2)

	if a.Cmp(b) != -1 {
		t.Error("1/3 should be less than 1/2")
	}
	if b.Cmp(a) != 1 {
		t.Error("1/2 should be greater than 1/3")
	}
	if a.Cmp(NewRational(2, 6)) != 0 {
		t.Error("1/3 should equal 2/6")
	}
}

func TestRationalReduce(t *testing.T) {
	got := NewRational(15, 90000).Reduce()
	want := NewRational(1, 6000)
	if got != want {
		t.Errorf("Reduce = %v, want %v", got, want)
	}
}

func TestRationalRescale(t *testing.T) {
	// 90000 ticks in 1/90000 is exactly one second, which is 1000 in 1/1000.
	got := NewRational(1, 90000).Rescale(90000, NewRational(1, 1000))
	if got != 1000 {
		t.Errorf("Rescale = %d, want 1000", got)
	}

	// Rounding to nearest.
	got = NewRational(1, 3).Rescale(1, NewRational(1, 1))
	if got != 0 {
		t.Errorf("Rescale = %d, want 0", got)
	}
}
