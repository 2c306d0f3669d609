package persistent

import (
	"fmt"
	"strings"

	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/seq"
)

// HashMap is a persistent map. Keys are compared with lang.Equiv and hashed
// with lang.Hash; any value lang.Hash accepts, nil included, can be a key.
//
// Up to ArrayMapThreshold entries are kept in a flat key/value array that is
// searched linearly. Bigger maps are hash array mapped tries.
type HashMap struct {
	count int
	// array holds k0, v0, k1, v1... while root is nil.
	array []interface{}
	root  *node
	// The nil key can't be stored in the trie, where a nil key marks a child
	// node.
	hasNil bool
	nilVal interface{}
}

var emptyHashMap = &HashMap{}

// EmptyHashMap returns the canonical empty map.
func EmptyHashMap() *HashMap {
	return emptyHashMap
}

// NewHashMap returns a map from alternating keys and values. Later keys win
// over earlier equal ones. It panics with ErrOddKeyValues if the last key has
// no value.
func NewHashMap(kvs ...interface{}) *HashMap {
	if len(kvs)%2 != 0 {
		panic(ErrOddKeyValues)
	}
	if len(kvs) == 0 {
		return emptyHashMap
	}
	t := emptyHashMap.AsTransient()
	for i := 0; i < len(kvs); i += 2 {
		t.Assoc(kvs[i], kvs[i+1])
	}
	return t.Persistent()
}

// NewHashMapStrict is like NewHashMap but fails with a *DuplicateKeyError at
// the first key that was already given.
func NewHashMapStrict(kvs ...interface{}) (*HashMap, error) {
	if len(kvs)%2 != 0 {
		return nil, ErrOddKeyValues
	}
	t := emptyHashMap.AsTransient()
	for i := 0; i < len(kvs); i += 2 {
		if t.ContainsKey(kvs[i]) {
			return nil, duplicateKey(kvs[i])
		}
		t.Assoc(kvs[i], kvs[i+1])
	}
	return t.Persistent(), nil
}

func (m *HashMap) Count() int {
	return m.count
}

func lookup(array []interface{}, root *node, hasNil bool, nilVal interface{}, key interface{}) (interface{}, interface{}, bool) {
	if root == nil {
		if i := indexOf(array, key); i >= 0 {
			return array[i], array[i+1], true
		}
		return nil, nil, false
	}
	if key == nil {
		return nil, nilVal, hasNil
	}
	return root.find(0, lang.Hash(key), key)
}

// mustHash hashes key only for its panic, so that a key the trie couldn't
// hold is rejected while the map is still a flat array.
func mustHash(key interface{}) {
	lang.Hash(key)
}

func indexOf(array []interface{}, key interface{}) int {
	for i := 0; i < len(array); i += 2 {
		if lang.Equiv(key, array[i]) {
			return i
		}
	}
	return -1
}

// Get returns the value for key and whether it was present.
func (m *HashMap) Get(key interface{}) (interface{}, bool) {
	_, v, ok := lookup(m.array, m.root, m.hasNil, m.nilVal, key)
	return v, ok
}

func (m *HashMap) ValAt(key interface{}) interface{} {
	return m.ValAtOr(key, nil)
}

func (m *HashMap) ValAtOr(key, notFound interface{}) interface{} {
	if v, ok := m.Get(key); ok {
		return v
	}
	return notFound
}

func (m *HashMap) ContainsKey(key interface{}) bool {
	_, ok := m.Get(key)
	return ok
}

// EntryAt returns the entry for key, holding the key as it was stored.
func (m *HashMap) EntryAt(key interface{}) (MapEntry, bool) {
	k, v, ok := lookup(m.array, m.root, m.hasNil, m.nilVal, key)
	if !ok {
		return MapEntry{}, false
	}
	return MapEntry{k, v}, true
}

// Assoc returns a map with key associated to val. If key already maps to a
// value identical to val, m itself is returned.
func (m *HashMap) Assoc(key, val interface{}) *HashMap {
	if m.root != nil {
		return m.assocTrie(key, val)
	}
	if i := indexOf(m.array, key); i >= 0 {
		if lang.Identical(m.array[i+1], val) {
			return m
		}
		a := make([]interface{}, len(m.array))
		copy(a, m.array)
		a[i+1] = val
		return &HashMap{count: m.count, array: a}
	}
	mustHash(key)
	if m.count >= ArrayMapThreshold {
		t := m.AsTransient()
		t.promote()
		t.assocTrie(key, val)
		return t.Persistent()
	}
	a := make([]interface{}, len(m.array)+2)
	copy(a, m.array)
	a[len(m.array)], a[len(m.array)+1] = key, val
	return &HashMap{count: m.count + 1, array: a}
}

func (m *HashMap) assocTrie(key, val interface{}) *HashMap {
	if key == nil {
		if m.hasNil && lang.Identical(val, m.nilVal) {
			return m
		}
		count := m.count
		if !m.hasNil {
			count++
		}
		return &HashMap{count: count, root: m.root, hasNil: true, nilVal: val}
	}
	root, added := m.root.assoc(nil, 0, lang.Hash(key), key, val)
	if root == m.root {
		return m
	}
	count := m.count
	if added {
		count++
	}
	return &HashMap{count: count, root: root, hasNil: m.hasNil, nilVal: m.nilVal}
}

// AssocKey implements Associative.
func (m *HashMap) AssocKey(key, val interface{}) Associative {
	return m.Assoc(key, val)
}

// Dissoc returns a map without key. Removing the last entry yields the
// canonical empty map.
func (m *HashMap) Dissoc(key interface{}) *HashMap {
	if m.root == nil {
		i := indexOf(m.array, key)
		if i < 0 {
			return m
		}
		if m.count == 1 {
			return emptyHashMap
		}
		a := make([]interface{}, len(m.array)-2)
		copy(a, m.array[:i])
		copy(a[i:], m.array[i+2:])
		return &HashMap{count: m.count - 1, array: a}
	}
	if key == nil {
		if !m.hasNil {
			return m
		}
		if m.count == 1 {
			return emptyHashMap
		}
		return &HashMap{count: m.count - 1, root: m.root}
	}
	root, removed := m.root.without(nil, 0, lang.Hash(key), key)
	if !removed {
		return m
	}
	if m.count == 1 {
		return emptyHashMap
	}
	if root == nil {
		root = emptyNode
	}
	return &HashMap{count: m.count - 1, root: root, hasNil: m.hasNil, nilVal: m.nilVal}
}

// Seq returns a sequence of MapEntry values, or nil for an empty map.
func (m *HashMap) Seq() seq.Seq {
	if m.root == nil {
		return newArrayMapSeq(m.array, 0)
	}
	s := m.root.seq()
	if m.hasNil {
		return seq.NewCons(MapEntry{nil, m.nilVal}, s)
	}
	return s
}

// Range calls f for every entry until f returns false.
func (m *HashMap) Range(f func(key, val interface{}) bool) {
	if m.root == nil {
		for i := 0; i < len(m.array); i += 2 {
			if !f(m.array[i], m.array[i+1]) {
				return
			}
		}
		return
	}
	if m.hasNil && !f(nil, m.nilVal) {
		return
	}
	m.root.kvrange(f)
}

func (m *HashMap) Keys() []interface{} {
	ret := make([]interface{}, 0, m.count)
	m.Range(func(k, _ interface{}) bool {
		ret = append(ret, k)
		return true
	})
	return ret
}

func (m *HashMap) Vals() []interface{} {
	ret := make([]interface{}, 0, m.count)
	m.Range(func(_, v interface{}) bool {
		ret = append(ret, v)
		return true
	})
	return ret
}

// Equiv reports whether other is a map with the same keys mapped to Equiv
// values.
func (m *HashMap) Equiv(other interface{}) bool {
	o, ok := other.(*HashMap)
	if !ok || o == nil || o.count != m.count {
		return false
	}
	if o == m {
		return true
	}
	eq := true
	m.Range(func(k, v interface{}) bool {
		ov, found := o.Get(k)
		eq = found && lang.Equiv(v, ov)
		return eq
	})
	return eq
}

func (m *HashMap) Hash() uint32 {
	var h lang.UnorderedHash
	m.Range(func(k, v interface{}) bool {
		h.AddHash(MapEntry{k, v}.Hash())
		return true
	})
	return h.Sum()
}

func (m *HashMap) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	m.Range(func(k, v interface{}) bool {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%v %v", k, v)
		return true
	})
	sb.WriteByte('}')
	return sb.String()
}

// StringRaw dumps the internal structure of m, for debugging.
func (m *HashMap) StringRaw() string {
	if m.root == nil {
		return fmt.Sprintf("array %v\n", m.array)
	}
	s := m.root.stringRaw("")
	if m.hasNil {
		s = fmt.Sprintf("nil => %v\n", m.nilVal) + s
	}
	return s
}

type arrayMapSeq struct {
	array []interface{}
	i     int
}

func newArrayMapSeq(array []interface{}, i int) seq.Seq {
	if i >= len(array) {
		return nil
	}
	return &arrayMapSeq{array, i}
}

func (s *arrayMapSeq) First() interface{} {
	return MapEntry{s.array[s.i], s.array[s.i+1]}
}

func (s *arrayMapSeq) Next() seq.Seq {
	return newArrayMapSeq(s.array, s.i+2)
}

func (s *arrayMapSeq) Cons(x interface{}) seq.Seq {
	return seq.NewCons(x, s)
}

func (s *arrayMapSeq) String() string {
	return seq.Format(s, "(", ")")
}

// TransientHashMap is a mutable view of a HashMap for bulk updates. It must
// be used by a single goroutine and discarded after Persistent.
type TransientHashMap struct {
	edit   *editToken
	count  int
	array  []interface{}
	root   *node
	hasNil bool
	nilVal interface{}
}

// AsTransient returns a transient holding the same entries as m. m is left
// untouched by anything done to the transient.
func (m *HashMap) AsTransient() *TransientHashMap {
	t := &TransientHashMap{
		edit:   newEditToken(),
		count:  m.count,
		root:   m.root,
		hasNil: m.hasNil,
		nilVal: m.nilVal,
	}
	if m.root == nil {
		t.array = make([]interface{}, len(m.array), len(m.array)+2*ArrayMapThreshold)
		copy(t.array, m.array)
	}
	return t
}

func (t *TransientHashMap) Count() int {
	t.edit.ensureEditable()
	return t.count
}

func (t *TransientHashMap) Get(key interface{}) (interface{}, bool) {
	t.edit.ensureEditable()
	_, v, ok := lookup(t.array, t.root, t.hasNil, t.nilVal, key)
	return v, ok
}

func (t *TransientHashMap) ValAt(key interface{}) interface{} {
	v, _ := t.Get(key)
	return v
}

func (t *TransientHashMap) ContainsKey(key interface{}) bool {
	_, ok := t.Get(key)
	return ok
}

// Assoc associates key with val in place and returns t.
func (t *TransientHashMap) Assoc(key, val interface{}) *TransientHashMap {
	t.edit.ensureEditable()
	if t.root == nil {
		if i := indexOf(t.array, key); i >= 0 {
			t.array[i+1] = val
			return t
		}
		mustHash(key)
		if t.count < ArrayMapThreshold {
			t.array = append(t.array, key, val)
			t.count++
			return t
		}
		t.promote()
	}
	t.assocTrie(key, val)
	return t
}

// promote moves the entries of the flat array into a trie.
func (t *TransientHashMap) promote() {
	array := t.array
	t.array, t.root, t.count = nil, emptyNode, 0
	for i := 0; i < len(array); i += 2 {
		t.assocTrie(array[i], array[i+1])
	}
}

func (t *TransientHashMap) assocTrie(key, val interface{}) {
	if key == nil {
		if !t.hasNil {
			t.count++
			t.hasNil = true
		}
		t.nilVal = val
		return
	}
	root, added := t.root.assoc(t.edit, 0, lang.Hash(key), key, val)
	t.root = root
	if added {
		t.count++
	}
}

// Dissoc removes key in place and returns t.
func (t *TransientHashMap) Dissoc(key interface{}) *TransientHashMap {
	t.edit.ensureEditable()
	if t.root == nil {
		if i := indexOf(t.array, key); i >= 0 {
			last := len(t.array) - 2
			t.array[i], t.array[i+1] = t.array[last], t.array[last+1]
			t.array[last], t.array[last+1] = nil, nil
			t.array = t.array[:last]
			t.count--
		}
		return t
	}
	if key == nil {
		if t.hasNil {
			t.hasNil, t.nilVal = false, nil
			t.count--
		}
		return t
	}
	root, removed := t.root.without(t.edit, 0, lang.Hash(key), key)
	if removed {
		if root == nil {
			root = emptyNode
		}
		t.root = root
		t.count--
	}
	return t
}

// Persistent freezes t and returns its contents as a HashMap. Any later use
// of t panics with ErrTransientReused.
func (t *TransientHashMap) Persistent() *HashMap {
	t.edit.ensureEditable()
	t.edit.frozen = true
	if t.count == 0 {
		return emptyHashMap
	}
	return &HashMap{count: t.count, array: t.array, root: t.root, hasNil: t.hasNil, nilVal: t.nilVal}
}
