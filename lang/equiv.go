package lang

import "reflect"

// Equiver is implemented by values, typically collections, that decide
// equality against arbitrary other values themselves.
type Equiver interface {
	Equiv(other interface{}) bool
}

// Equiv is the library-wide equality. It agrees with Hash: Equiv(a, b)
// implies Hash(a) == Hash(b).
//
// Numbers are equal when they belong to the same NumberCategory and have the
// same value, so int8(1) and uint64(1) are equal but 1 and 1.0 are not.
func Equiv(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, ok := classify(a); ok {
		nb, ok := classify(b)
		return ok && na.cat == nb.cat && na.equal(nb)
	}
	if e, ok := a.(Equiver); ok {
		return e.Equiv(b)
	}
	if e, ok := b.(Equiver); ok {
		return e.Equiv(a)
	}
	return safeEqual(a, b)
}

func safeEqual(a, b interface{}) (eq bool) {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return Identical(a, b)
	}
	// Comparable types may still hold non-comparable values in interface fields.
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// Identical reports whether a and b are the same value by reference: the same
// pointer, the same slice backing array and length, the same map, or equal
// comparable values. Funcs are never identical to anything.
func Identical(a, b interface{}) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	switch ta.Kind() {
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Func:
		return false
	}
	if !ta.Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
