package codec

// Rational is a fraction as used for stream time bases (AVRational).
type Rational struct {
	Num int32
	Den int32
}

// NewRational creates a Rational with the given numerator and denominator.
func NewRational(num, den int32) Rational {
	return Rational{Num: num, Den: den}
}

// Float64 converts the rational to a float64.
// Returns 0 if the denominator is 0.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Invert returns the inverted rational (den/num).
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// IsZero returns true if the rational is zero.
func (r Rational) IsZero() bool {
	return r.Num == 0
}

// Mul multiplies two rationals and reduces the result.
func (r Rational) Mul(other Rational) Rational {
	return Rational{
		Num: r.Num * other.Num,
		Den: r.Den * other.Den,
	}.Reduce()
}

// Div divides two rationals.
func (r Rational) Div(other Rational) Rational {
	return r.Mul(other.Invert())
}

// Cmp compares two rationals.
// Returns -1 if r < other, 0 if r == other, 1 if r > other.
func (r Rational) Cmp(other Rational) int {
	left := int64(r.Num) * int64(other.Den)
	right := int64(other.Num) * int64(r.Den)
	if left < right {
		return -1
	}
	if left > right {
		return 1
	}
	return 0
}

// Reduce reduces the rational to lowest terms.
func (r Rational) Reduce() Rational {
	if r.Den == 0 {
		return r
	}
	g := gcd(abs(r.Num), abs(r.Den))
	if g == 0 {
		return r
	}
	return Rational{Num: r.Num / g, Den: r.Den / g}
}

// Rescale converts v from this time base to dst, rounding to nearest.
// Equivalent to av_rescale_q.
func (r Rational) Rescale(v int64, dst Rational) int64 {
	b := int64(r.Num) * int64(dst.Den)
	c := int64(r.Den) * int64(dst.Num)
	if c == 0 {
		return 0
	}
	if v >= 0 {
		return (v*b + c/2) / c
	}
	return (v*b - c/2) / c
}

func gcd(a, b int32) int32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
