package persistent

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/benbjohnson/immutable"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/seq"
)

// collider is a key with a chosen hash, to drive keys into specific slots
// and into collision nodes.
type collider struct {
	id   int
	hash uint32
}

func (c collider) Hash() uint32 {
	return c.hash
}

func (c collider) String() string {
	return fmt.Sprintf("c%d#%x", c.id, c.hash)
}

// nodeKinds counts the nodes of each kind below n.
func nodeKinds(n *node) map[nodeKind]int {
	kinds := map[nodeKind]int{}
	var walk func(n *node)
	walk = func(n *node) {
		kinds[n.kind]++
		switch n.kind {
		case bitmapKind:
			for i := 0; i < len(n.array); i += 2 {
				if n.array[i] == nil {
					walk(n.array[i+1].(*node))
				}
			}
		case arrayKind:
			for _, c := range n.nodes {
				if c != nil {
					walk(c)
				}
			}
		}
	}
	walk(n)
	return kinds
}

func sortedKeys(m *HashMap) []int {
	var ks []int
	m.Range(func(k, _ interface{}) bool {
		ks = append(ks, k.(int))
		return true
	})
	sort.Ints(ks)
	return ks
}

func TestHashMapBasics(t *testing.T) {
	m := NewHashMap("a", 1, "b", 2)
	require.Equal(t, 2, m.Count())
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Nil(t, m.ValAt("z"))
	require.Equal(t, "none", m.ValAtOr("z", "none"))
	require.True(t, m.ContainsKey("b"))
	e, ok := m.EntryAt("b")
	require.True(t, ok)
	require.Equal(t, MapEntry{"b", 2}, e)

	m2 := m.Assoc("a", 10)
	require.Equal(t, 1, m.ValAt("a"))
	require.Equal(t, 10, m2.ValAt("a"))
	require.Same(t, m, m.Assoc("a", 1))
	require.Same(t, m, m.Dissoc("nope"))

	require.Same(t, EmptyHashMap(), m.Dissoc("a").Dissoc("b"))
	require.Same(t, EmptyHashMap(), NewHashMap())
}

func TestHashMapNumericKeys(t *testing.T) {
	m := NewHashMap(1, "int")
	require.Equal(t, "int", m.ValAt(int64(1)))
	require.Equal(t, "int", m.ValAt(uint8(1)))
	require.Nil(t, m.ValAt(1.0))

	m = m.Assoc(int32(1), "int32")
	require.Equal(t, 1, m.Count())
	require.Equal(t, "int32", m.ValAt(1))
}

func TestHashMapGrowShrink(t *testing.T) {
	const n = 5000
	m := EmptyHashMap()
	for i := 0; i < n; i++ {
		m = m.Assoc(i, i*2)
		if i == ArrayMapThreshold-1 {
			require.Nil(t, m.root)
		}
		if i == ArrayMapThreshold {
			require.NotNil(t, m.root)
		}
	}
	require.Equal(t, n, m.Count())
	for i := 0; i < n; i++ {
		require.Equal(t, i*2, m.ValAt(i))
	}
	require.Equal(t, n, len(m.Keys()))
	require.Equal(t, n, len(m.Vals()))
	require.Equal(t, n, seq.Count(m.Seq()))

	for i := 0; i < n; i += 2 {
		m = m.Dissoc(i)
	}
	require.Equal(t, n/2, m.Count())
	for i := 0; i < n; i++ {
		require.Equal(t, i%2 == 1, m.ContainsKey(i), "key %d", i)
	}
}

func TestHashMapInverseLaw(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, size := range []int{0, 3, 8, 9, 40, 1000} {
		m := EmptyHashMap()
		for m.Count() < size {
			m = m.Assoc(r.Intn(1<<20), r.Int())
		}
		for i := 0; i < 50; i++ {
			k := -1 - r.Intn(1000)
			back := m.Assoc(k, "v").Dissoc(k)
			require.True(t, m.Equiv(back))
			require.Equal(t, m.Hash(), back.Hash())
			require.Equal(t, sortedKeys(m), sortedKeys(back))
		}
	}
}

func TestHashMapCollisions(t *testing.T) {
	m := EmptyHashMap()
	for i := 0; i < 20; i++ {
		m = m.Assoc(collider{i, uint32(i)}, i)
	}
	a, b, c := collider{100, 42}, collider{101, 42}, collider{102, 42}
	m = m.Assoc(a, "a").Assoc(b, "b")
	require.Equal(t, 22, m.Count())
	require.Equal(t, 1, nodeKinds(m.root)[collisionKind])
	require.Equal(t, "a", m.ValAt(a))
	require.Equal(t, "b", m.ValAt(b))
	require.False(t, m.ContainsKey(c))

	m = m.Assoc(c, "c").Assoc(b, "B")
	require.Equal(t, 23, m.Count())
	require.Equal(t, "B", m.ValAt(b))

	m = m.Dissoc(a).Dissoc(c)
	require.Equal(t, 21, m.Count())
	require.Equal(t, "B", m.ValAt(b))
	require.Zero(t, nodeKinds(m.root)[collisionKind], "a lone colliding key is inlined")
	for i := 0; i < 20; i++ {
		require.Equal(t, i, m.ValAt(collider{i, uint32(i)}))
	}
}

func TestHashMapCollisionDivergence(t *testing.T) {
	// Same low fragments, different full hash: the collision node must be
	// pushed down when a key with a different hash arrives.
	node := emptyNode
	keys := []collider{{1, 0x21}, {2, 0x21}, {3, 0x421}, {4, 0x21 | 1<<30}}
	for i, k := range keys {
		var added bool
		node, added = node.assoc(nil, 0, k.hash, k, i)
		require.True(t, added)
	}
	for i, k := range keys {
		_, v, ok := node.find(0, k.hash, k)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, _, ok := node.find(0, 0x21, collider{5, 0x21})
	require.False(t, ok)

	for _, k := range keys {
		var removed bool
		node, removed = node.without(nil, 0, k.hash, k)
		require.True(t, removed)
		if node == nil {
			break
		}
	}
	require.Nil(t, node)
}

func TestHashMapArrayNode(t *testing.T) {
	// Keys whose hashes differ in the first fragment all land in the root.
	m := EmptyHashMap()
	for i := 0; i <= ArrayNodePromoteThreshold; i++ {
		m = m.Assoc(collider{i, uint32(i)}, i)
	}
	require.Equal(t, arrayKind, m.root.kind)
	require.Equal(t, ArrayNodePromoteThreshold+1, m.root.count)

	for i := 0; i <= ArrayNodePromoteThreshold; i++ {
		require.Equal(t, i, m.ValAt(collider{i, uint32(i)}))
	}

	i := 0
	for ; m.Count() > ArrayNodeDemoteThreshold; i++ {
		m = m.Dissoc(collider{i, uint32(i)})
		require.Equal(t, arrayKind, m.root.kind)
	}
	m = m.Dissoc(collider{i, uint32(i)})
	require.Equal(t, bitmapKind, m.root.kind)
	require.Equal(t, ArrayNodeDemoteThreshold-1, m.Count())
	for j := i + 1; j <= ArrayNodePromoteThreshold; j++ {
		require.Equal(t, j, m.ValAt(collider{j, uint32(j)}))
	}
}

// subnodes maps each first-level fragment of n to the child node there.
func subnodes(n *node) map[uint32]*node {
	ret := map[uint32]*node{}
	switch n.kind {
	case arrayKind:
		for i, c := range n.nodes {
			if c != nil {
				ret[uint32(i)] = c
			}
		}
	case bitmapKind:
		for frag := uint32(0); frag < branching; frag++ {
			bit := uint32(1) << frag
			if n.bitmap&bit == 0 {
				continue
			}
			idx := n.index(bit)
			if n.array[2*idx] == nil {
				ret[frag] = n.array[2*idx+1].(*node)
			}
		}
	}
	return ret
}

func TestHashMapStructuralSharing(t *testing.T) {
	m := EmptyHashMap()
	for i := 0; i < 1000; i++ {
		m = m.Assoc(i, i)
	}
	for _, k := range []interface{}{5, 999, 5000, "new"} {
		m2 := m.Assoc(k, "x")
		require.NotSame(t, m.root, m2.root)
		touched := mask(lang.Hash(k), 0)
		before, after := subnodes(m.root), subnodes(m2.root)
		require.NotEmpty(t, before)
		for frag, c := range before {
			if frag == touched {
				require.NotSame(t, c, after[frag])
				continue
			}
			require.Same(t, c, after[frag], "key %v, fragment %d", k, frag)
		}
	}

	before := subnodes(m.root)
	touched := mask(lang.Hash(5), 0)
	for frag, c := range subnodes(m.Dissoc(5).root) {
		if frag != touched {
			require.Same(t, before[frag], c, "fragment %d", frag)
		}
	}
}

func TestHashMapUnhashableKey(t *testing.T) {
	var unsupported *lang.UnsupportedOperandError
	check := func(f func()) {
		t.Helper()
		var p interface{}
		func() {
			defer func() { p = recover() }()
			f()
		}()
		err, ok := p.(error)
		require.True(t, ok, "want a panic with an error, got %v", p)
		require.True(t, errors.As(err, &unsupported))
	}
	for _, size := range []int{0, 3, ArrayMapThreshold, 100} {
		m := EmptyHashMap()
		for i := 0; i < size; i++ {
			m = m.Assoc(i, i)
		}
		check(func() { m.Assoc([]int{1}, "slice") })
		check(func() { m.AsTransient().Assoc([]int{1}, "slice") })
		check(func() { NewHashSet(1, []int{1}) })

		// The map is still usable, and growing it doesn't blame later keys.
		for i := size; i < size+ArrayMapThreshold+1; i++ {
			m = m.Assoc(i, i)
		}
		require.Equal(t, size+ArrayMapThreshold+1, m.Count())
	}
}

func TestHashMapNilKey(t *testing.T) {
	m := NewHashMap(nil, "nil", "a", 1)
	require.Equal(t, "nil", m.ValAt(nil))
	require.True(t, m.ContainsKey(nil))
	require.Equal(t, 2, m.Count())

	for i := 0; i < 20; i++ {
		m = m.Assoc(i, i)
	}
	require.NotNil(t, m.root)
	require.Equal(t, "nil", m.ValAt(nil))
	require.Equal(t, 22, m.Count())
	require.Equal(t, 22, seq.Count(m.Seq()))
	require.Equal(t, MapEntry{nil, "nil"}, m.Seq().First())

	m2 := m.Dissoc(nil)
	require.False(t, m2.ContainsKey(nil))
	require.Equal(t, 21, m2.Count())
	require.True(t, m.ContainsKey(nil))

	require.Same(t, m, m.Assoc(nil, "nil"))
	require.Same(t, EmptyHashMap(), NewHashMap(nil, 1).Dissoc(nil))
}

func TestHashMapStrict(t *testing.T) {
	_, err := NewHashMapStrict("a", 1, "b", 2, "b", 3)
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "b", dup.Key)

	_, err = NewHashMapStrict("a")
	require.Equal(t, ErrOddKeyValues, errors.Cause(err))
	require.PanicsWithValue(t, ErrOddKeyValues, func() { NewHashMap("a") })

	m, err := NewHashMapStrict("a", 1, "b", 2)
	require.NoError(t, err)
	require.Equal(t, 2, m.Count())

	require.Equal(t, 2, NewHashMap("a", 1, "a", 2).ValAt("a"))
}

func TestHashMapEquivHash(t *testing.T) {
	var kvs []interface{}
	for i := 0; i < 100; i++ {
		kvs = append(kvs, i, fmt.Sprint(i))
	}
	a := NewHashMap(kvs...)
	b := EmptyHashMap()
	for i := 99; i >= 0; i-- {
		b = b.Assoc(i, fmt.Sprint(i))
	}
	require.True(t, a.Equiv(b))
	require.Equal(t, a.Hash(), b.Hash())
	require.False(t, a.Equiv(b.Assoc(0, "x")))
	require.False(t, a.Equiv(b.Dissoc(0)))
	require.True(t, lang.Equiv(a, b))

	// A trie shrunk below the flat threshold equals a flat map.
	c := EmptyHashMap()
	for i := 0; i < 9; i++ {
		c = c.Assoc(i, i)
	}
	c = c.Dissoc(8)
	flat := NewHashMap(0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7)
	require.NotNil(t, c.root)
	require.Nil(t, flat.root)
	require.True(t, c.Equiv(flat))
	require.Equal(t, c.Hash(), flat.Hash())

	var nilMap *HashMap
	require.False(t, c.Equiv(nilMap))
	require.False(t, EmptyHashMap().Equiv(nilMap))
}

func TestHashMapString(t *testing.T) {
	require.Equal(t, "{}", EmptyHashMap().String())
	require.Equal(t, "{a 1, b 2}", NewHashMap("a", 1, "b", 2).String())
	require.Contains(t, NewHashMap("a", 1).StringRaw(), "array")
}

func TestHashMapRangeStops(t *testing.T) {
	m := EmptyHashMap()
	for i := 0; i < 100; i++ {
		m = m.Assoc(i, i)
	}
	n := 0
	m.Range(func(_, _ interface{}) bool {
		n++
		return n < 10
	})
	require.Equal(t, 10, n)
}

func TestTransientHashMap(t *testing.T) {
	base := NewHashMap("a", 1)
	tm := base.AsTransient()
	for i := 0; i < 1000; i++ {
		tm.Assoc(i, i)
	}
	tm.Assoc(nil, "nil")
	for i := 0; i < 1000; i += 3 {
		tm.Dissoc(i)
	}
	tm.Dissoc("nope")
	require.Equal(t, 1+1000-334+1, tm.Count())
	require.Equal(t, 5, tm.ValAt(5))
	require.False(t, tm.ContainsKey(3))

	m := tm.Persistent()
	require.Equal(t, 1, base.Count())
	require.Equal(t, 668, m.Count())
	require.Equal(t, "nil", m.ValAt(nil))
	require.Equal(t, 1, m.ValAt("a"))

	require.PanicsWithValue(t, ErrTransientReused, func() { tm.Assoc(1, 1) })
	require.PanicsWithValue(t, ErrTransientReused, func() { tm.Dissoc(1) })
	require.PanicsWithValue(t, ErrTransientReused, func() { tm.Get(1) })
	require.PanicsWithValue(t, ErrTransientReused, func() { tm.Persistent() })
}

func TestTransientHashMapRoundTrip(t *testing.T) {
	m := NewHashMap("a", 1, "b", 2)
	for i := 0; i < 100; i++ {
		m = m.Assoc(i, i)
	}
	back := m.AsTransient().Persistent()
	require.True(t, m.Equiv(back))

	// Writes by a second transient never reach the first map's nodes.
	tm := back.AsTransient()
	for i := 0; i < 100; i++ {
		tm.Assoc(i, -i)
	}
	for i := 0; i < 50; i++ {
		tm.Dissoc(i)
	}
	out := tm.Persistent()
	for i := 0; i < 100; i++ {
		require.Equal(t, i, back.ValAt(i))
		require.Equal(t, i, m.ValAt(i))
	}
	require.Equal(t, -60, out.ValAt(60))
	require.False(t, out.ContainsKey(10))

	require.Same(t, EmptyHashMap(), NewHashMap(1, 1).AsTransient().Dissoc(1).Persistent())
}

// TestHashMapAgainstOracle runs random operations on persistent and transient
// maps and on an immutable.Map and compares them, including earlier versions
// kept around.
func TestHashMapAgainstOracle(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	type version struct {
		m      *HashMap
		oracle *immutable.Map[int, int]
	}
	m := EmptyHashMap()
	oracle := immutable.NewMap[int, int](nil)
	var versions []version

	check := func(v version) {
		require.Equal(t, v.oracle.Len(), v.m.Count())
		itr := v.oracle.Iterator()
		for !itr.Done() {
			k, want, _ := itr.Next()
			got, ok := v.m.Get(k)
			require.True(t, ok, "missing key %d", k)
			require.Equal(t, want, got)
		}
	}

	for step := 0; step < 20000; step++ {
		k := r.Intn(3000)
		switch op := r.Intn(10); {
		case op < 6:
			m = m.Assoc(k, step)
			oracle = oracle.Set(k, step)
		case op < 9:
			m = m.Dissoc(k)
			oracle = oracle.Delete(k)
		default:
			tm := m.AsTransient()
			for j := 0; j < 50; j++ {
				k := r.Intn(3000)
				if r.Intn(2) == 0 {
					tm.Assoc(k, -step)
					oracle = oracle.Set(k, -step)
				} else {
					tm.Dissoc(k)
					oracle = oracle.Delete(k)
				}
			}
			m = tm.Persistent()
		}
		if step%500 == 0 {
			versions = append(versions, version{m, oracle})
			check(versions[len(versions)-1])
		}
	}
	check(version{m, oracle})
	for _, v := range versions {
		check(v)
	}

	var want []int
	itr := oracle.Iterator()
	for !itr.Done() {
		k, _, _ := itr.Next()
		want = append(want, k)
	}
	sort.Ints(want)
	if diff := cmp.Diff(want, sortedKeys(m)); diff != "" {
		t.Fatalf("keys differ (-want +got):\n%s", diff)
	}
}

func benchmarkAssoc(b *testing.B, n int) {
	for i := 0; i < b.N; i++ {
		m := EmptyHashMap()
		for j := 0; j < n; j++ {
			m = m.Assoc(j, j)
		}
	}
}

func BenchmarkHashMapAssoc8(b *testing.B) { benchmarkAssoc(b, 8) }
func BenchmarkHashMapAssoc1000(b *testing.B) { benchmarkAssoc(b, 1000) }
func BenchmarkHashMapAssoc100k(b *testing.B) { benchmarkAssoc(b, 100000) }

func BenchmarkTransientHashMapAssoc(b *testing.B) {
	for i := 0; i < b.N; i++ {
		tm := EmptyHashMap().AsTransient()
		for j := 0; j < 100000; j++ {
			tm.Assoc(j, j)
		}
		tm.Persistent()
	}
}

func BenchmarkHashMapGet(b *testing.B) {
	tm := EmptyHashMap().AsTransient()
	for j := 0; j < 100000; j++ {
		tm.Assoc(j, j)
	}
	m := tm.Persistent()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Get(i % 100000)
	}
}
