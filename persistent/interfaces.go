package persistent

import (
	"fmt"

	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/seq"
)

// Counted collections know their size in constant time.
type Counted interface {
	Count() int
}

// Indexed collections provide positional access. Nth panics with an
// *IndexOutOfBoundsError outside [0, Count); NthOr returns notFound instead.
type Indexed interface {
	Counted
	Nth(i int) interface{}
	NthOr(i int, notFound interface{}) interface{}
}

// Associative collections map keys to values. Vectors are associative too,
// keyed by index.
type Associative interface {
	Counted
	ValAt(key interface{}) interface{}
	ValAtOr(key, notFound interface{}) interface{}
	ContainsKey(key interface{}) bool
	EntryAt(key interface{}) (MapEntry, bool)
	AssocKey(key, val interface{}) Associative
}

var (
	_ Indexed     = (*Vector)(nil)
	_ Indexed     = (*SubVector)(nil)
	_ Indexed     = (*TransientVector)(nil)
	_ Associative = (*Vector)(nil)
	_ Associative = (*HashMap)(nil)

	_ seq.Seqable    = (*HashMap)(nil)
	_ seq.Seqable    = (*HashSet)(nil)
	_ seq.Sequential = (*Vector)(nil)
	_ seq.Sequential = (*SubVector)(nil)
	_ seq.Seq        = (*List)(nil)

	_ lang.Equiver = (*Vector)(nil)
	_ lang.Equiver = (*HashMap)(nil)
	_ lang.Equiver = (*HashSet)(nil)
	_ lang.Hasher  = (*Vector)(nil)
	_ lang.Hasher  = (*HashMap)(nil)
	_ lang.Hasher  = (*HashSet)(nil)
)

// MapEntry is a key/value pair as stored in a map.
type MapEntry struct {
	Key interface{}
	Val interface{}
}

func (e MapEntry) Hash() uint32 {
	h := lang.NewOrderedHash()
	h.Add(e.Key)
	h.Add(e.Val)
	return h.Sum()
}

func (e MapEntry) Equiv(other interface{}) bool {
	o, ok := other.(MapEntry)
	return ok && lang.Equiv(e.Key, o.Key) && lang.Equiv(e.Val, o.Val)
}

func (e MapEntry) String() string {
	return fmt.Sprintf("[%v %v]", e.Key, e.Val)
}
