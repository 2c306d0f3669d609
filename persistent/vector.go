package persistent

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tcard/gojure/lang"
	"github.com/tcard/gojure/seq"
)

const (
	vectorNodeShift = 5
	vectorNodeLen   = 1 << vectorNodeShift
	vectorNodeMask  = vectorNodeLen - 1
)

// Vector is a persistent vector: a 32-way trie of the elements that fill
// complete leaves, plus a tail with the last, at most 32, elements.
type Vector struct {
	count int
	shift uint
	root  *vectorNode
	tail  []interface{}
}

// vectorNode is an internal node or a leaf of the trie. Internal nodes hold
// *vectorNode children, leaves hold elements.
type vectorNode struct {
	edit  *editToken
	items []interface{}
}

var emptyVectorNode = &vectorNode{items: make([]interface{}, vectorNodeLen)}
var emptyVector = &Vector{0, vectorNodeShift, emptyVectorNode, []interface{}{}}

func NewVector(items ...interface{}) *Vector {
	if len(items) == 0 {
		return emptyVector
	}
	ret := emptyVector.AsTransient()
	for _, x := range items {
		ret.Conj(x)
	}
	return ret.Persistent()
}

// EmptyVector returns the canonical empty vector.
func EmptyVector() *Vector {
	return emptyVector
}

func (v *Vector) Count() int {
	return v.count
}

func (v *Vector) tailoff() int {
	return tailoff(v.count)
}

func tailoff(count int) int {
	if count < vectorNodeLen {
		return 0
	}
	return ((count - 1) >> vectorNodeShift) << vectorNodeShift
}

// arrayFor returns the leaf, or the tail, holding element i.
func (v *Vector) arrayFor(i int) []interface{} {
	if i < 0 || i >= v.count {
		panic(outOfBounds(i, v.count))
	}
	if i >= v.tailoff() {
		return v.tail
	}
	n := v.root
	for level := v.shift; level > 0; level -= vectorNodeShift {
		n = n.items[(i>>level)&vectorNodeMask].(*vectorNode)
	}
	return n.items
}

// Nth returns the element at i. It panics with an *IndexOutOfBoundsError if i
// is not in [0, Count).
func (v *Vector) Nth(i int) interface{} {
	subsl := v.arrayFor(i)
	return subsl[i&vectorNodeMask]
}

func (v *Vector) NthOr(i int, notFound interface{}) interface{} {
	if i < 0 || i >= v.count {
		return notFound
	}
	return v.Nth(i)
}

// Peek returns the last element, or nil for an empty vector.
func (v *Vector) Peek() interface{} {
	if v.count == 0 {
		return nil
	}
	return v.Nth(v.count - 1)
}

// AssocN returns a vector with the element at i replaced by x. i may be
// Count, in which case x is appended.
func (v *Vector) AssocN(i int, x interface{}) *Vector {
	if i < 0 || i > v.count {
		panic(outOfBounds(i, v.count))
	}
	if i == v.count {
		return v.Conj(x)
	}
	if i >= v.tailoff() {
		newTail := make([]interface{}, len(v.tail))
		copy(newTail, v.tail)
		newTail[i&vectorNodeMask] = x
		return &Vector{v.count, v.shift, v.root, newTail}
	}
	return &Vector{v.count, v.shift, doAssoc(v.shift, v.root, i, x), v.tail}
}

func doAssoc(shift uint, node *vectorNode, i int, x interface{}) *vectorNode {
	ret := &vectorNode{items: make([]interface{}, len(node.items))}
	copy(ret.items, node.items)
	if shift == 0 {
		ret.items[i&vectorNodeMask] = x
	} else {
		subi := (i >> shift) & vectorNodeMask
		ret.items[subi] = doAssoc(shift-vectorNodeShift, node.items[subi].(*vectorNode), i, x)
	}
	return ret
}

// Conj returns a vector with x appended.
func (v *Vector) Conj(x interface{}) *Vector {
	if v.count-v.tailoff() < vectorNodeLen {
		newTail := make([]interface{}, len(v.tail)+1)
		copy(newTail, v.tail)
		newTail[len(v.tail)] = x
		return &Vector{v.count + 1, v.shift, v.root, newTail}
	}
	var newRoot *vectorNode
	tailNode := &vectorNode{items: v.tail}
	newShift := v.shift
	if (v.count >> vectorNodeShift) > (1 << v.shift) {
		// The trie is full at this depth: grow a level.
		newRoot = &vectorNode{items: make([]interface{}, vectorNodeLen)}
		newRoot.items[0] = v.root
		newRoot.items[1] = newPath(nil, v.shift, tailNode)
		newShift += vectorNodeShift
	} else {
		newRoot = v.pushTail(v.shift, v.root, tailNode)
	}
	return &Vector{v.count + 1, newShift, newRoot, []interface{}{x}}
}

func (v *Vector) pushTail(shift uint, parent *vectorNode, tailNode *vectorNode) *vectorNode {
	subi := ((v.count - 1) >> shift) & vectorNodeMask
	ret := &vectorNode{items: make([]interface{}, len(parent.items))}
	copy(ret.items, parent.items)
	var nodeToInsert *vectorNode
	if shift == vectorNodeShift {
		nodeToInsert = tailNode
	} else {
		child, ok := parent.items[subi].(*vectorNode)
		if ok {
			nodeToInsert = v.pushTail(shift-vectorNodeShift, child, tailNode)
		} else {
			nodeToInsert = newPath(nil, shift-vectorNodeShift, tailNode)
		}
	}
	ret.items[subi] = nodeToInsert
	return ret
}

// newPath wraps node in as many single-child levels as needed to hang it at
// shift.
func newPath(edit *editToken, shift uint, node *vectorNode) *vectorNode {
	if shift == 0 {
		return node
	}
	ret := &vectorNode{edit: edit, items: make([]interface{}, vectorNodeLen)}
	ret.items[0] = newPath(edit, shift-vectorNodeShift, node)
	return ret
}

// Pop returns a vector without its last element. It panics with ErrPopEmpty
// on an empty vector.
func (v *Vector) Pop() *Vector {
	if v.count == 0 {
		panic(ErrPopEmpty)
	}
	if v.count == 1 {
		return emptyVector
	}
	if v.count-v.tailoff() > 1 {
		newTail := make([]interface{}, len(v.tail)-1)
		copy(newTail, v.tail)
		return &Vector{v.count - 1, v.shift, v.root, newTail}
	}
	newTail := v.arrayFor(v.count - 2)
	newRoot := v.popTail(v.shift, v.root)
	newShift := v.shift
	if newRoot == nil {
		newRoot = emptyVectorNode
	}
	if v.shift > vectorNodeShift && newRoot.items[1] == nil {
		// Only the first child is left: drop a level.
		newRoot = newRoot.items[0].(*vectorNode)
		newShift -= vectorNodeShift
	}
	return &Vector{v.count - 1, newShift, newRoot, newTail}
}

// popTail returns node without the rightmost leaf, or nil if nothing is left.
func (v *Vector) popTail(shift uint, node *vectorNode) *vectorNode {
	subi := ((v.count - 2) >> shift) & vectorNodeMask
	if shift > vectorNodeShift {
		newChild := v.popTail(shift-vectorNodeShift, node.items[subi].(*vectorNode))
		if newChild == nil && subi == 0 {
			return nil
		}
		ret := &vectorNode{items: make([]interface{}, len(node.items))}
		copy(ret.items, node.items)
		if newChild == nil {
			ret.items[subi] = nil
		} else {
			ret.items[subi] = newChild
		}
		return ret
	}
	if subi == 0 {
		return nil
	}
	ret := &vectorNode{items: make([]interface{}, len(node.items))}
	copy(ret.items, node.items)
	ret.items[subi] = nil
	return ret
}

// SubVec returns a view of the elements in [start, end). It panics with an
// *IndexOutOfBoundsError if the range is not within the vector.
func (v *Vector) SubVec(start, end int) *SubVector {
	if end < start || start < 0 {
		panic(outOfBounds(start, v.count))
	}
	if end > v.count {
		panic(outOfBounds(end, v.count))
	}
	return &SubVector{v, start, end}
}

// Get returns the element at the integral index key, and whether there is
// one.
func (v *Vector) Get(key interface{}) (interface{}, bool) {
	i, ok := vectorIndex(key)
	if !ok || i < 0 || i >= v.count {
		return nil, false
	}
	return v.Nth(i), true
}

// ValAt returns the element at the integral index key, or nil.
func (v *Vector) ValAt(key interface{}) interface{} {
	return v.ValAtOr(key, nil)
}

func (v *Vector) ValAtOr(key, notFound interface{}) interface{} {
	if i, ok := vectorIndex(key); ok {
		return v.NthOr(i, notFound)
	}
	return notFound
}

func (v *Vector) ContainsKey(key interface{}) bool {
	i, ok := vectorIndex(key)
	return ok && i >= 0 && i < v.count
}

func (v *Vector) EntryAt(key interface{}) (MapEntry, bool) {
	i, ok := vectorIndex(key)
	if !ok || i < 0 || i >= v.count {
		return MapEntry{}, false
	}
	return MapEntry{i, v.Nth(i)}, true
}

// AssocKey implements Associative. It panics if key is not an integral index
// in [0, Count].
func (v *Vector) AssocKey(key, val interface{}) Associative {
	i, ok := vectorIndex(key)
	if !ok {
		panic(errors.WithStack(&lang.UnsupportedOperandError{Op: "vector index", Operand: key}))
	}
	return v.AssocN(i, val)
}

func vectorIndex(key interface{}) (int, bool) {
	return lang.AsInt(key)
}

// Seq returns a sequence over the elements, or nil for an empty vector.
func (v *Vector) Seq() seq.Seq {
	return newChunkedSeq(v, 0, 0)
}

func (v *Vector) Sequential() {}

// Range calls f with every index and element, in order, until f returns
// false.
func (v *Vector) Range(f func(i int, x interface{}) bool) {
	for i := 0; i < v.count; i += vectorNodeLen {
		leaf := v.arrayFor(i)
		for j := 0; j < len(leaf) && i+j < v.count; j++ {
			if !f(i+j, leaf[j]) {
				return
			}
		}
	}
}

func (v *Vector) Equiv(other interface{}) bool {
	return equivIndexed(v, other)
}

// equivIndexed compares an indexed collection against any sequential one.
func equivIndexed(v Indexed, other interface{}) bool {
	switch o := other.(type) {
	case Indexed:
		if _, ok := o.(seq.Sequential); !ok {
			return false
		}
		if o.Count() != v.Count() {
			return false
		}
		for i := 0; i < v.Count(); i++ {
			if !lang.Equiv(v.Nth(i), o.Nth(i)) {
				return false
			}
		}
		return true
	case seq.Sequential:
		return seq.Equiv(v.(seq.Seqable).Seq(), o.Seq())
	case seq.Seq:
		return seq.Equiv(v.(seq.Seqable).Seq(), o)
	}
	return false
}

func (v *Vector) Hash() uint32 {
	h := lang.NewOrderedHash()
	v.Range(func(_ int, x interface{}) bool {
		h.Add(x)
		return true
	})
	return h.Sum()
}

func (v *Vector) String() string {
	return seq.Format(v.Seq(), "[", "]")
}

// StringRaw dumps the trie and the tail, for debugging.
func (v *Vector) StringRaw() string {
	var f func(interface{}, int) string
	f = func(x interface{}, lvl int) string {
		switch tx := x.(type) {
		case *vectorNode:

			s := "\n" + strings.Repeat(" ", lvl) + "{\n"
			lvl += 1
			for i, v := range tx.items {
				if i > 0 {
					s += " "
				}
				s += f(v, lvl)
			}
			lvl -= 1
			s += "\n" + strings.Repeat(" ", lvl) + "}"
			return s
		default:
			return fmt.Sprint(x)
		}
	}
	return f(v.root, 0) + " + " + fmt.Sprint(v.tail)
}

// chunkedSeq walks a vector one leaf at a time.
type chunkedSeq struct {
	vec    *Vector
	leaf   []interface{}
	i      int // index of leaf[0] in vec
	offset int
}

func newChunkedSeq(v *Vector, i, offset int) seq.Seq {
	if i+offset >= v.count {
		return nil
	}
	return &chunkedSeq{v, v.arrayFor(i), i, offset}
}

func (s *chunkedSeq) First() interface{} {
	return s.leaf[s.offset]
}

func (s *chunkedSeq) Next() seq.Seq {
	if s.offset+1 < len(s.leaf) && s.i+s.offset+1 < s.vec.count {
		return &chunkedSeq{s.vec, s.leaf, s.i, s.offset + 1}
	}
	return newChunkedSeq(s.vec, s.i+len(s.leaf), 0)
}

func (s *chunkedSeq) Cons(x interface{}) seq.Seq {
	return seq.NewCons(x, s)
}

func (s *chunkedSeq) Equiv(other interface{}) bool {
	switch o := other.(type) {
	case seq.Sequential:
		return seq.Equiv(s, o.Seq())
	case seq.Seq:
		return seq.Equiv(s, o)
	}
	return false
}

func (s *chunkedSeq) Hash() uint32 {
	return seq.Hash(s)
}

func (s *chunkedSeq) String() string {
	return seq.Format(s, "(", ")")
}
