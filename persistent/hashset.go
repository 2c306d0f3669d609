package persistent

import (
	"fmt"
	"strings"

	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/seq"
)

// HashSet is a persistent set, stored as a HashMap from each element to
// itself.
type HashSet struct {
	impl *HashMap
}

var emptyHashSet = &HashSet{impl: emptyHashMap}

// EmptyHashSet returns the canonical empty set. Every set emptied with
// Disjoin is this same value.
func EmptyHashSet() *HashSet {
	return emptyHashSet
}

func NewHashSet(items ...interface{}) *HashSet {
	if len(items) == 0 {
		return emptyHashSet
	}
	t := emptyHashSet.AsTransient()
	for _, x := range items {
		t.Conj(x)
	}
	return t.Persistent()
}

// NewHashSetStrict is like NewHashSet but fails with a *DuplicateKeyError at
// the first element that was already given.
func NewHashSetStrict(items ...interface{}) (*HashSet, error) {
	t := emptyHashSet.AsTransient()
	for _, x := range items {
		if t.Contains(x) {
			return nil, duplicateKey(x)
		}
		t.Conj(x)
	}
	return t.Persistent(), nil
}

func (s *HashSet) Count() int {
	return s.impl.Count()
}

func (s *HashSet) Contains(x interface{}) bool {
	return s.impl.ContainsKey(x)
}

// Get returns the element of s equal to x, as it was stored.
func (s *HashSet) Get(x interface{}) (interface{}, bool) {
	return s.impl.Get(x)
}

// Conj returns a set with x added. If x is already present, s itself is
// returned.
func (s *HashSet) Conj(x interface{}) *HashSet {
	if s.Contains(x) {
		return s
	}
	return &HashSet{impl: s.impl.Assoc(x, x)}
}

// Disjoin returns a set without x.
func (s *HashSet) Disjoin(x interface{}) *HashSet {
	impl := s.impl.Dissoc(x)
	if impl == s.impl {
		return s
	}
	if impl.Count() == 0 {
		return emptyHashSet
	}
	return &HashSet{impl: impl}
}

func (s *HashSet) Seq() seq.Seq {
	return newKeySeq(s.impl.Seq())
}

// keySeq is a map entry sequence seen as its keys.
type keySeq struct {
	s seq.Seq
}

func newKeySeq(s seq.Seq) seq.Seq {
	if s == nil {
		return nil
	}
	return keySeq{s}
}

func (k keySeq) First() interface{} {
	return k.s.First().(MapEntry).Key
}

func (k keySeq) Next() seq.Seq {
	return newKeySeq(k.s.Next())
}

func (k keySeq) Cons(x interface{}) seq.Seq {
	return seq.NewCons(x, k)
}

func (k keySeq) String() string {
	return seq.Format(k, "(", ")")
}

// Range calls f for every element until f returns false.
func (s *HashSet) Range(f func(x interface{}) bool) {
	s.impl.Range(func(k, _ interface{}) bool {
		return f(k)
	})
}

func (s *HashSet) Equiv(other interface{}) bool {
	o, ok := other.(*HashSet)
	if !ok || o == nil || o.Count() != s.Count() {
		return false
	}
	eq := true
	s.Range(func(x interface{}) bool {
		eq = o.Contains(x)
		return eq
	})
	return eq
}

func (s *HashSet) Hash() uint32 {
	var h lang.UnorderedHash
	s.Range(func(x interface{}) bool {
		h.Add(x)
		return true
	})
	return h.Sum()
}

func (s *HashSet) String() string {
	var sb strings.Builder
	sb.WriteString("#{")
	first := true
	s.Range(func(x interface{}) bool {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		fmt.Fprint(&sb, x)
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}

// TransientHashSet is the transient counterpart of HashSet.
type TransientHashSet struct {
	impl *TransientHashMap
}

func (s *HashSet) AsTransient() *TransientHashSet {
	return &TransientHashSet{impl: s.impl.AsTransient()}
}

func (t *TransientHashSet) Count() int {
	return t.impl.Count()
}

func (t *TransientHashSet) Contains(x interface{}) bool {
	return t.impl.ContainsKey(x)
}

func (t *TransientHashSet) Conj(x interface{}) *TransientHashSet {
	t.impl.Assoc(x, x)
	return t
}

func (t *TransientHashSet) Disjoin(x interface{}) *TransientHashSet {
	t.impl.Dissoc(x)
	return t
}

func (t *TransientHashSet) Persistent() *HashSet {
	impl := t.impl.Persistent()
	if impl.Count() == 0 {
		return emptyHashSet
	}
	return &HashSet{impl: impl}
}
