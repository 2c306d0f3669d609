package persistent

import (
	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/seq"
)

// SubVector is a view of the elements of a Vector in [start, end). Creating
// one copies nothing; updates produce a new underlying vector.
type SubVector struct {
	v          *Vector
	start, end int
}

func (s *SubVector) Count() int {
	return s.end - s.start
}

func (s *SubVector) Nth(i int) interface{} {
	if i < 0 || s.start+i >= s.end {
		panic(outOfBounds(i, s.Count()))
	}
	return s.v.Nth(s.start + i)
}

func (s *SubVector) NthOr(i int, notFound interface{}) interface{} {
	if i < 0 || s.start+i >= s.end {
		return notFound
	}
	return s.v.Nth(s.start + i)
}

// AssocN returns a view with the element at i replaced by x. i may be Count,
// in which case x is appended.
func (s *SubVector) AssocN(i int, x interface{}) *SubVector {
	if i < 0 || s.start+i > s.end {
		panic(outOfBounds(i, s.Count()))
	}
	if s.start+i == s.end {
		return s.Conj(x)
	}
	return &SubVector{s.v.AssocN(s.start+i, x), s.start, s.end}
}

// Conj appends x, overwriting whatever the underlying vector had after the
// view.
func (s *SubVector) Conj(x interface{}) *SubVector {
	return &SubVector{s.v.AssocN(s.end, x), s.start, s.end + 1}
}

func (s *SubVector) Pop() *SubVector {
	if s.end == s.start {
		panic(ErrPopEmpty)
	}
	return &SubVector{s.v, s.start, s.end - 1}
}

func (s *SubVector) Peek() interface{} {
	if s.end == s.start {
		return nil
	}
	return s.v.Nth(s.end - 1)
}

// SubVec returns a view of [start, end) relative to s. It shares s's
// underlying vector.
func (s *SubVector) SubVec(start, end int) *SubVector {
	if end < start || start < 0 {
		panic(outOfBounds(start, s.Count()))
	}
	if end > s.Count() {
		panic(outOfBounds(end, s.Count()))
	}
	return &SubVector{s.v, s.start + start, s.start + end}
}

func (s *SubVector) Seq() seq.Seq {
	return newIndexedSeq(s, 0)
}

// indexedSeq walks any Indexed collection by position.
type indexedSeq struct {
	coll Indexed
	i    int
}

func newIndexedSeq(coll Indexed, i int) seq.Seq {
	if i >= coll.Count() {
		return nil
	}
	return indexedSeq{coll, i}
}

func (s indexedSeq) First() interface{} {
	return s.coll.Nth(s.i)
}

func (s indexedSeq) Next() seq.Seq {
	return newIndexedSeq(s.coll, s.i+1)
}

func (s indexedSeq) Cons(x interface{}) seq.Seq {
	return seq.NewCons(x, s)
}

func (s indexedSeq) String() string {
	return seq.Format(s, "(", ")")
}

func (s *SubVector) Sequential() {}

func (s *SubVector) Equiv(other interface{}) bool {
	return equivIndexed(s, other)
}

func (s *SubVector) Hash() uint32 {
	h := lang.NewOrderedHash()
	for i := s.start; i < s.end; i++ {
		h.Add(s.v.Nth(i))
	}
	return h.Sum()
}

func (s *SubVector) String() string {
	return seq.Format(s.Seq(), "[", "]")
}
