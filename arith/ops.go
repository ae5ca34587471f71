package arith

import "math"

// This file implements the checked signed-64-bit arithmetic primitives:
// every binary/unary operator that can overflow reports Overflow rather
// than silently wrapping, per spec. MIN_I64 is the one value whose
// negation and whose division/remainder by -1 need special-casing.

const (
	maxI64 = math.MaxInt64
	minI64 = math.MinInt64
)

func overflow(expr string) error { return &Error{Kind: Overflow, Expr: expr} }

func addOv(a, b int64) (int64, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, overflow("+")
	}
	return s, nil
}

func subOv(a, b int64) (int64, error) {
	d := a - b
	if (b < 0 && d < a) || (b > 0 && d > a) {
		return 0, overflow("-")
	}
	return d, nil
}

func mulOv(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a {
		return 0, overflow("*")
	}
	return p, nil
}

func divOv(a, b int64) (int64, error) {
	if b == 0 {
		return 0, &Error{Kind: DivByZero, Expr: "/"}
	}
	if a == minI64 && b == -1 {
		return 0, overflow("/")
	}
	return a / b, nil
}

func remOv(a, b int64) (int64, error) {
	if b == 0 {
		return 0, &Error{Kind: DivByZero, Expr: "%"}
	}
	if a == minI64 && b == -1 {
		// Bash-compatible special case: MIN % -1 == 0, not an overflow,
		// since the mathematical result (0) fits perfectly well.
		return 0, nil
	}
	return a % b, nil
}

func negOv(a int64) (int64, error) {
	if a == minI64 {
		return 0, overflow("unary -")
	}
	return -a, nil
}

// intPow computes base**exp with overflow checking. A negative exponent is
// rejected outright; an exponent large enough that even |base|>1 could
// not fit in 63 bits is rejected as Overflow without attempting the loop.
func intPow(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, &Error{Kind: NegativeExponent, Expr: "**"}
	}
	if exp == 0 {
		return 1, nil
	}
	if (base == 1) || (base == 0 && exp == 0) {
		return 1, nil
	}
	if base == 0 {
		return 0, nil
	}
	if base == -1 {
		if exp%2 == 0 {
			return 1, nil
		}
		return -1, nil
	}
	if exp > 62 {
		return 0, overflow("**")
	}
	result := int64(1)
	for i := int64(0); i < exp; i++ {
		next, err := mulOv(result, base)
		if err != nil {
			return 0, err
		}
		result = next
	}
	return result, nil
}

// shiftLeft and shiftRight clamp a negative shift count to 0 and take the
// count modulo 64, per spec (shift amounts are taken modulo 64 after
// clamping negatives to 0).
func shiftCount(n int64) uint {
	if n < 0 {
		n = 0
	}
	return uint(n % 64)
}

func shiftLeft(a, n int64) int64 {
	return a << shiftCount(n)
}

func shiftRight(a, n int64) int64 {
	return a >> shiftCount(n)
}
