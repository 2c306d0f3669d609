// Package seq defines the sequence abstraction every Gojure collection can be
// viewed through, plus a handful of lazy combinators over it.
//
// The empty sequence is the nil Seq.
package seq

import (
	"context"
	"fmt"

	"github.com/tcard/gojure/lang"
)

type Seq interface {
	First() interface{}
	Next() Seq
	Cons(x interface{}) Seq
}

// Seqable is implemented by collections that can produce a Seq over their
// elements. An empty collection produces nil.
type Seqable interface {
	Seq() Seq
}

func Count(s Seq) int {
	if s == nil {
		return 0
	}
	i := 1
	for s = s.Next(); s != nil; s = s.Next() {
		i++
	}
	return i
}

func Format(seq Seq, start string, end string) string {
	s := start
	if seq != nil {
		s += fmt.Sprint(seq.First())
		for seq = seq.Next(); seq != nil; seq = seq.Next() {
			s += " " + fmt.Sprint(seq.First())
		}
	}
	s += end
	return s
}

// Iter sends every element of seq on the returned channel, then closes it.
// Cancelling ctx stops the sender and closes the channel early.
func Iter(ctx context.Context, seq Seq) <-chan interface{} {
	ret := make(chan interface{})
	go func() {
		defer close(ret)
		for ; seq != nil; seq = seq.Next() {
			select {
			case ret <- seq.First():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ret
}

func ToSlice(s Seq) []interface{} {
	ret := []interface{}{}
	for ; s != nil; s = s.Next() {
		ret = append(ret, s.First())
	}
	return ret
}

// Equiv compares two sequences element by element with lang.Equiv.
func Equiv(a, b Seq) bool {
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if !lang.Equiv(a.First(), b.First()) {
			return false
		}
	}
	return a == nil && b == nil
}

// Hash is the ordered hash of s. Every sequential collection hashes through
// it, so that equal vectors, lists and seqs agree.
func Hash(s Seq) uint32 {
	h := lang.NewOrderedHash()
	for ; s != nil; s = s.Next() {
		h.Add(s.First())
	}
	return h.Sum()
}

// ConsCell is the result of consing an element onto an existing sequence.
type ConsCell struct {
	first interface{}
	more  Seq
}

func NewCons(x interface{}, more Seq) Seq {
	return &ConsCell{x, more}
}

func (c *ConsCell) First() interface{} {
	return c.first
}

func (c *ConsCell) Next() Seq {
	return c.more
}

func (c *ConsCell) Cons(x interface{}) Seq {
	return NewCons(x, c)
}

func (c *ConsCell) Equiv(other interface{}) bool {
	return equivSeq(c, other)
}

func (c *ConsCell) Hash() uint32 {
	return Hash(c)
}

func (c *ConsCell) String() string {
	return Format(c, "(", ")")
}

// equivSeq compares s against anything sequential: another Seq or a Seqable
// that is not a map or set (those don't implement Seq directly and are
// handled by their own Equiv).
func equivSeq(s Seq, other interface{}) bool {
	switch o := other.(type) {
	case Sequential:
		return Equiv(s, o.Seq())
	case Seq:
		return Equiv(s, o)
	}
	return false
}

// Sequential marks Seqable collections whose order is part of their identity,
// such as vectors and lists.
type Sequential interface {
	Seqable
	Sequential()
}

type LazySeq struct {
	val *struct {
		first interface{}
		rest  Seq
	}
	force func() (interface{}, Seq)
}

func (l *LazySeq) f() {
	if l.val == nil {
		l.val = new(struct {
			first interface{}
			rest  Seq
		})
		l.val.first, l.val.rest = l.force()
	}
}

func Lazy(from func() (interface{}, Seq)) Seq {
	return &LazySeq{force: from}
}

func (l *LazySeq) First() interface{} {
	l.f()
	return l.val.first
}

func (l *LazySeq) Next() Seq {
	l.f()
	return l.val.rest
}

func (l *LazySeq) Cons(x interface{}) Seq {
	return Lazy(func() (interface{}, Seq) {
		return x, l
	})
}

func (l *LazySeq) Equiv(other interface{}) bool {
	return equivSeq(l, other)
}

func (l *LazySeq) Hash() uint32 {
	return Hash(l)
}

func (l *LazySeq) String() string {
	return Format(l, "(", ")")
}

func Take(n int, seq Seq) Seq {
	if n == 0 || seq == nil {
		return nil
	}
	return Lazy(func() (interface{}, Seq) {
		return seq.First(), Take(n-1, seq.Next())
	})
}

func Map(f func(interface{}) interface{}, seq Seq) Seq {
	if seq == nil {
		return nil
	}
	return Lazy(func() (interface{}, Seq) {
		return f(seq.First()), Map(f, seq.Next())
	})
}
