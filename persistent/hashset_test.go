package persistent

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/tcard/gojure/seq"
)

func TestHashSet(t *testing.T) {
	s := NewHashSet(1, 2, 3, 2)
	require.Equal(t, 3, s.Count())
	require.True(t, s.Contains(2))
	require.False(t, s.Contains(4))

	x, ok := s.Get(int64(1))
	require.True(t, ok)
	require.Equal(t, 1, x)

	require.Same(t, s, s.Conj(1))
	require.Same(t, s, s.Disjoin(99))

	s2 := s.Conj(4)
	require.Equal(t, 4, s2.Count())
	require.False(t, s.Contains(4))

	s3 := s.Disjoin(1)
	require.Equal(t, 2, s3.Count())
	require.True(t, s.Contains(1))
}

func TestHashSetCanonicalEmpty(t *testing.T) {
	a := NewHashSet(1).Disjoin(1)
	b := NewHashSet("x", "y").Disjoin("y").Disjoin("x")
	require.Same(t, EmptyHashSet(), a)
	require.Same(t, a, b)
	require.Same(t, EmptyHashSet(), NewHashSet())
	require.Same(t, EmptyHashSet(), NewHashSet(1).AsTransient().Disjoin(1).Persistent())

	big := EmptyHashSet()
	for i := 0; i < 100; i++ {
		big = big.Conj(i)
	}
	for i := 0; i < 100; i++ {
		big = big.Disjoin(i)
	}
	require.Same(t, EmptyHashSet(), big)
}

func TestHashSetStrict(t *testing.T) {
	_, err := NewHashSetStrict("a", "b", "b")
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, "b", dup.Key)

	s, err := NewHashSetStrict("a", "b")
	require.NoError(t, err)
	require.Equal(t, 2, s.Count())
}

func TestHashSetSeqEquivHash(t *testing.T) {
	a := EmptyHashSet()
	for i := 0; i < 50; i++ {
		a = a.Conj(i)
	}
	var got []int
	for _, x := range seq.ToSlice(a.Seq()) {
		got = append(got, x.(int))
	}
	sort.Ints(got)
	require.Len(t, got, 50)
	require.Equal(t, 0, got[0])
	require.Equal(t, 49, got[49])

	b := EmptyHashSet().AsTransient()
	for i := 49; i >= 0; i-- {
		b.Conj(i)
	}
	bs := b.Persistent()
	require.True(t, a.Equiv(bs))
	require.Equal(t, a.Hash(), bs.Hash())
	require.False(t, a.Equiv(bs.Disjoin(0)))
	require.False(t, a.Equiv(NewVector(1)))
	var nilSet *HashSet
	require.False(t, a.Equiv(nilSet))
	require.False(t, EmptyHashSet().Equiv(nilSet))

	require.Nil(t, EmptyHashSet().Seq())
	require.Equal(t, "#{}", EmptyHashSet().String())
	require.Equal(t, "#{7}", NewHashSet(7).String())
}

func TestTransientHashSet(t *testing.T) {
	ts := NewHashSet("keep").AsTransient()
	for i := 0; i < 200; i++ {
		ts.Conj(i)
	}
	ts.Disjoin(5)
	require.Equal(t, 200, ts.Count())
	require.False(t, ts.Contains(5))
	s := ts.Persistent()
	require.True(t, s.Contains("keep"))
	require.Equal(t, 200, s.Count())
	require.PanicsWithValue(t, ErrTransientReused, func() { ts.Conj(1) })
}
