package lang

import (
	"encoding/binary"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Hasher is implemented by values that provide their own hash. It must be
// consistent with Equiv: values that are Equiv must hash identically.
type Hasher interface {
	Hash() uint32
}

// Seeds keep values of different kinds from sharing hashes by construction.
const (
	stringSeed byte = iota
	keywordSeed
	symbolSeed
	integralSeed
	floatingSeed
	ratioSeed
	decimalSeed
	pointerSeed
	collSeed
)

// Hash returns the hash of x used by the hash trie. It panics with an
// *UnsupportedOperandError if x is not hashable (slices, maps and funcs), the
// same way a Go map panics on such a key.
func Hash(x interface{}) uint32 {
	switch v := x.(type) {
	case nil:
		return 0
	case Hasher:
		return v.Hash()
	case string:
		return hashString(stringSeed, v)
	case bool:
		return hashBool(v)
	}
	if n, ok := classify(x); ok {
		return n.hash()
	}
	return hashValue(reflect.ValueOf(x), x)
}

func hashValue(rv reflect.Value, orig interface{}) uint32 {
	if rv.CanInterface() {
		x := rv.Interface()
		if h, ok := x.(Hasher); ok {
			return h.Hash()
		}
		if n, ok := classify(x); ok {
			return n.hash()
		}
	}
	switch rv.Kind() {
	case reflect.String:
		return hashString(stringSeed, rv.String())
	case reflect.Bool:
		return hashBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return hashUint64(integralSeed, uint64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return hashUint64(integralSeed, rv.Uint())
	case reflect.Float32, reflect.Float64:
		return number{cat: Floating, f: rv.Float()}.hash()
	case reflect.Ptr, reflect.Chan, reflect.UnsafePointer:
		return hashUint64(pointerSeed, uint64(rv.Pointer()))
	case reflect.Interface:
		if rv.IsNil() {
			return 0
		}
		return hashValue(rv.Elem(), orig)
	case reflect.Struct:
		h := uint32(rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			h = HashCombine(h, hashValue(rv.Field(i), orig))
		}
		return h
	case reflect.Array:
		o := NewOrderedHash()
		for i := 0; i < rv.Len(); i++ {
			o.AddHash(hashValue(rv.Index(i), orig))
		}
		return o.Sum()
	}
	panic(unsupported("hash", orig))
}

func hashBool(b bool) uint32 {
	if b {
		return 1231
	}
	return 1237
}

func hashString(seed byte, s string) uint32 {
	if seed == stringSeed {
		return fold(xxhash.Sum64String(s))
	}
	d := xxhash.New()
	d.Write([]byte{seed})
	d.WriteString(s)
	return fold(d.Sum64())
}

func hashBytes(seed byte, b []byte) uint32 {
	d := xxhash.New()
	d.Write([]byte{seed})
	d.Write(b)
	return fold(d.Sum64())
}

func hashUint64(seed byte, v uint64) uint32 {
	var buf [9]byte
	buf[0] = seed
	binary.LittleEndian.PutUint64(buf[1:], v)
	return fold(xxhash.Sum64(buf[:]))
}

func fold(h uint64) uint32 {
	return uint32(h) ^ uint32(h>>32)
}

// HashCombine mixes h into seed.
func HashCombine(seed, h uint32) uint32 {
	return seed ^ (h + 0x9e3779b9 + (seed << 6) + (seed >> 2))
}

// MixCollHash finalizes the accumulated hash of a collection of count elements.
func MixCollHash(h uint32, count int) uint32 {
	return hashUint64(collSeed, uint64(h)<<32|uint64(uint32(count)))
}

// OrderedHash accumulates the hash of a sequential collection. Two sequential
// collections with Equiv elements in the same order get the same hash no
// matter their concrete types.
type OrderedHash struct {
	h uint32
	n int
}

func NewOrderedHash() OrderedHash {
	return OrderedHash{h: 1}
}

func (o *OrderedHash) Add(x interface{}) {
	o.AddHash(Hash(x))
}

func (o *OrderedHash) AddHash(h uint32) {
	o.h = 31*o.h + h
	o.n++
}

func (o OrderedHash) Sum() uint32 {
	return MixCollHash(o.h, o.n)
}

// UnorderedHash accumulates the hash of a set or map, independent of
// iteration order.
type UnorderedHash struct {
	h uint32
	n int
}

func (u *UnorderedHash) Add(x interface{}) {
	u.AddHash(Hash(x))
}

func (u *UnorderedHash) AddHash(h uint32) {
	u.h += h
	u.n++
}

func (u UnorderedHash) Sum() uint32 {
	return MixCollHash(u.h, u.n)
}
