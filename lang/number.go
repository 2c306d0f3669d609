package lang

import (
	"math"
	"math/big"
	"reflect"
)

// NumberCategory groups numeric representations that compare equal to each
// other by value. Values from different categories are never Equiv.
type NumberCategory int

const (
	Integral NumberCategory = iota + 1
	Floating
	Ratio
	Decimal
)

func (c NumberCategory) String() string {
	switch c {
	case Integral:
		return "integral"
	case Floating:
		return "floating"
	case Ratio:
		return "ratio"
	case Decimal:
		return "decimal"
	}
	return "unknown"
}

// number is the normalized form of any supported numeric value. Integral
// values that fit in an int64 always live in i; big is only set beyond that.
type number struct {
	cat NumberCategory
	i   int64
	big *big.Int
	f   float64
	rat *big.Rat
	dec *big.Float
}

// Category classifies x. Complex numbers and non-numbers yield an
// *UnsupportedOperandError.
func Category(x interface{}) (NumberCategory, error) {
	n, ok := classify(x)
	if !ok {
		return 0, unsupported("category", x)
	}
	return n.cat, nil
}

// NumEquiv compares two numbers by value regardless of category, so that
// NumEquiv(1, 1.0) is true while Equiv(1, 1.0) is not.
func NumEquiv(a, b interface{}) (bool, error) {
	na, ok := classify(a)
	if !ok {
		return false, unsupported("==", a)
	}
	nb, ok := classify(b)
	if !ok {
		return false, unsupported("==", b)
	}
	if na.cat == nb.cat {
		return na.equal(nb), nil
	}
	ra, fa := na.toRat()
	rb, fb := nb.toRat()
	if fa && fb {
		return ra.Cmp(rb) == 0, nil
	}
	return na.toFloat() == nb.toFloat(), nil
}

func classify(x interface{}) (number, bool) {
	switch v := x.(type) {
	case int:
		return number{cat: Integral, i: int64(v)}, true
	case int64:
		return number{cat: Integral, i: v}, true
	case int32:
		return number{cat: Integral, i: int64(v)}, true
	case float64:
		return number{cat: Floating, f: v}, true
	case *big.Int:
		if v == nil {
			return number{}, false
		}
		if v.IsInt64() {
			return number{cat: Integral, i: v.Int64()}, true
		}
		return number{cat: Integral, big: v}, true
	case *big.Rat:
		if v == nil {
			return number{}, false
		}
		return number{cat: Ratio, rat: v}, true
	case *big.Float:
		if v == nil {
			return number{}, false
		}
		return number{cat: Decimal, dec: v}, true
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{cat: Integral, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return number{cat: Integral, big: new(big.Int).SetUint64(u)}, true
		}
		return number{cat: Integral, i: int64(u)}, true
	case reflect.Float32, reflect.Float64:
		return number{cat: Floating, f: rv.Float()}, true
	}
	return number{}, false
}

// equal compares two numbers of the same category.
func (n number) equal(o number) bool {
	switch n.cat {
	case Integral:
		if n.big == nil && o.big == nil {
			return n.i == o.i
		}
		return n.bigInt().Cmp(o.bigInt()) == 0
	case Floating:
		return n.f == o.f
	case Ratio:
		return n.rat.Cmp(o.rat) == 0
	case Decimal:
		return n.dec.Cmp(o.dec) == 0
	}
	return false
}

func (n number) bigInt() *big.Int {
	if n.big != nil {
		return n.big
	}
	return big.NewInt(n.i)
}

// toRat returns the exact rational value of n, or false for infinities and NaN.
func (n number) toRat() (*big.Rat, bool) {
	switch n.cat {
	case Integral:
		return new(big.Rat).SetInt(n.bigInt()), true
	case Floating:
		if math.IsInf(n.f, 0) || math.IsNaN(n.f) {
			return nil, false
		}
		return new(big.Rat).SetFloat64(n.f), true
	case Ratio:
		return n.rat, true
	case Decimal:
		if n.dec.IsInf() {
			return nil, false
		}
		r, _ := n.dec.Rat(nil)
		return r, true
	}
	return nil, false
}

func (n number) toFloat() float64 {
	switch n.cat {
	case Integral:
		if n.big == nil {
			return float64(n.i)
		}
		f, _ := new(big.Float).SetInt(n.big).Float64()
		return f
	case Floating:
		return n.f
	case Ratio:
		f, _ := n.rat.Float64()
		return f
	case Decimal:
		f, _ := n.dec.Float64()
		return f
	}
	return math.NaN()
}

func (n number) hash() uint32 {
	switch n.cat {
	case Integral:
		if n.big == nil {
			return hashUint64(integralSeed, uint64(n.i))
		}
		return hashBigInt(integralSeed, n.big)
	case Floating:
		f := n.f
		if f == 0 {
			// -0.0 == 0.0
			f = 0
		}
		return hashUint64(floatingSeed, math.Float64bits(f))
	case Ratio:
		return HashCombine(hashBigInt(ratioSeed, n.rat.Num()), hashBigInt(ratioSeed, n.rat.Denom()))
	case Decimal:
		if n.dec.IsInf() {
			return hashUint64(decimalSeed, uint64(n.dec.Sign()))
		}
		r, _ := n.dec.Rat(nil)
		return HashCombine(hashBigInt(decimalSeed, r.Num()), hashBigInt(decimalSeed, r.Denom()))
	}
	return 0
}

func hashBigInt(seed byte, b *big.Int) uint32 {
	if b.IsInt64() {
		return hashUint64(seed, uint64(b.Int64()))
	}
	h := hashBytes(seed, b.Bytes())
	if b.Sign() < 0 {
		h = ^h
	}
	return h
}

// AsInt returns x as an int if it is an integral number that fits in one.
func AsInt(x interface{}) (int, bool) {
	n, ok := classify(x)
	if !ok || n.cat != Integral || n.big != nil {
		return 0, false
	}
	i := int(n.i)
	if int64(i) != n.i {
		return 0, false
	}
	return i, true
}
