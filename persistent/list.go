package persistent

import (
	"github.com/tcard/gojure/seq"
)

// List is a persistent singly linked list. The empty list is the nil *List.
type List struct {
	first interface{}
	rest  *List
	count int
}

func NewList(items ...interface{}) *List {
	var l *List = nil
	for i := len(items) - 1; i >= 0; i-- {
		l = l.Conj(items[i])
	}
	return l
}

func (l *List) Count() int {
	if l == nil {
		return 0
	}
	return l.count
}

func (l *List) First() interface{} {
	if l == nil {
		return nil
	}
	return l.first
}

func (l *List) Next() seq.Seq {
	if l == nil || l.rest == nil {
		return nil
	}
	return l.rest
}

// Pop returns the list without its first element.
func (l *List) Pop() *List {
	if l == nil {
		panic(ErrPopEmpty)
	}
	return l.rest
}

// Conj returns a list with x prepended.
func (l *List) Conj(x interface{}) *List {
	return &List{x, l, l.Count() + 1}
}

func (l *List) Cons(x interface{}) seq.Seq {
	return l.Conj(x)
}

func (l *List) Seq() seq.Seq {
	if l == nil {
		return nil
	}
	return l
}

func (l *List) Sequential() {}

func (l *List) Equiv(other interface{}) bool {
	switch o := other.(type) {
	case *List:
		if l.Count() != o.Count() {
			return false
		}
		return seq.Equiv(l.Seq(), o.Seq())
	case seq.Sequential:
		return seq.Equiv(l.Seq(), o.Seq())
	case seq.Seq:
		return seq.Equiv(l.Seq(), o)
	}
	return false
}

func (l *List) Hash() uint32 {
	return seq.Hash(l.Seq())
}

func (l *List) String() string {
	return seq.Format(l.Seq(), "(", ")")
}
